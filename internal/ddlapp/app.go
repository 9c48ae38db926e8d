// Package ddlapp runs one ddlgen invocation: it reads the schema, writes the
// changelog, and optionally applies and verifies the DDL against a database.
package ddlapp

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"graphql-ddl/internal/changelog"
	"graphql-ddl/internal/config"
	"graphql-ddl/internal/dbapply"
	"graphql-ddl/internal/ddl"
	"graphql-ddl/internal/logging"
	"graphql-ddl/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

// App owns the resources of a single run.
type App struct {
	cfg    *config.Config
	logger *logging.Logger
	stdout io.Writer

	openDB func(dsn string) (*sql.DB, error)

	cleanup      cleanupStack
	stateMu      sync.Mutex
	shutdownOnce sync.Once
}

// New creates an App. Changelogs without an output file go to stdout.
func New(cfg *config.Config, logger *logging.Logger, stdout io.Writer) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if stdout == nil {
		stdout = os.Stdout
	}
	return &App{
		cfg:    cfg,
		logger: logger,
		stdout: stdout,
		openDB: dbapply.Open,
	}, nil
}

// AttachTelemetry registers telemetry providers for shutdown. They are
// flushed after every other resource is released.
func (a *App) AttachTelemetry(telemetry *observability.Telemetry) {
	if telemetry == nil {
		return
	}
	a.stateMu.Lock()
	defer a.stateMu.Unlock()
	a.cleanup.pushFirst("telemetry", func(ctx context.Context) error {
		return telemetry.Shutdown(ctx, a.logger.Logger)
	})
}

// Run generates the changelog and performs the configured database steps.
// The changelog is written before the database is contacted.
func (a *App) Run(ctx context.Context) (err error) {
	ctx, span := startSpan(ctx, "ddlgen.run",
		attribute.String("output.format", a.cfg.Output.Format),
		attribute.Bool("database.apply", a.cfg.Database.Apply),
		attribute.Bool("database.verify", a.cfg.Database.Verify),
	)
	defer func() {
		recordSpanError(span, err)
		span.End()
	}()

	schema, err := loadSchema(a.cfg.Schema.File, a.logger)
	if err != nil {
		return err
	}

	gen, err := newGenerator(a.cfg, a.logger)
	if err != nil {
		return err
	}

	serializer, err := changelog.ForFormat(a.cfg.Output.Format)
	if err != nil {
		return err
	}

	changeID := a.cfg.ChangeSet.ResolvedID()
	cs, err := gen.ChangeSet(schema, changeID, a.cfg.ChangeSet.Author)
	if err != nil {
		return fmt.Errorf("failed to generate DDL: %w", err)
	}
	if len(cs.Tables) == 0 {
		a.logger.Warn("schema produced no tables", slog.String("schema", a.cfg.Schema.File))
	}

	if err := writeOutput(gen, cs, serializer, a.cfg.Output.File, a.stdout); err != nil {
		return err
	}

	if !a.cfg.Database.Enabled() {
		return nil
	}
	return a.runDatabase(ctx, cs)
}

func (a *App) runDatabase(ctx context.Context, cs ddl.ChangeSet) error {
	db, databaseName, err := a.connectDB(ctx)
	if err != nil {
		return err
	}

	if a.cfg.Database.Apply {
		statements := changelog.SQLSerializer{}.Statements(cs)
		if err := dbapply.Apply(ctx, db, statements, a.logger.Logger); err != nil {
			return fmt.Errorf("failed to apply DDL: %w", err)
		}
	}

	if a.cfg.Database.Verify {
		if err := verifyTables(ctx, db, databaseName, cs.Tables, a.logger); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) connectDB(ctx context.Context) (*sql.DB, string, error) {
	dbCfg := &a.cfg.Database
	effectiveDatabase, databaseSource, err := dbCfg.EffectiveDatabaseName()
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve effective database configuration: %w", err)
	}

	if err := dbCfg.RegisterTLS(); err != nil {
		return nil, "", fmt.Errorf("failed to configure database TLS: %w", err)
	}
	dsn, err := dbCfg.DSN()
	if err != nil {
		return nil, "", err
	}

	a.logger.Info("connecting to database",
		slog.String("host", dbCfg.Host),
		slog.Int("port", dbCfg.Port),
		slog.String("database_effective", effectiveDatabase),
		slog.String("database_source", databaseSource),
		slog.Bool("dsn_present", dbCfg.ConnectionString != ""),
	)

	db, err := a.openDB(dsn)
	if err != nil {
		return nil, "", err
	}
	a.stateMu.Lock()
	a.cleanup.push("database", func(context.Context) error {
		return db.Close()
	})
	a.stateMu.Unlock()

	if err := dbapply.WaitForDatabase(ctx, db, dbCfg.ConnectionTimeout, dbCfg.ConnectionRetryInterval, a.logger.Logger); err != nil {
		return nil, "", fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, effectiveDatabase, nil
}

// Shutdown releases resources in reverse order of acquisition. It is safe
// to call multiple times.
func (a *App) Shutdown(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	a.shutdownOnce.Do(func() {
		a.stateMu.Lock()
		cleanup := a.cleanup
		a.stateMu.Unlock()
		cleanup.run(ctx, a.logger)
	})
}
