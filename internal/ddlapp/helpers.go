package ddlapp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"graphql-ddl/internal/changelog"
	"graphql-ddl/internal/config"
	"graphql-ddl/internal/ddl"
	"graphql-ddl/internal/ddlgen"
	"graphql-ddl/internal/gqlschema"
	"graphql-ddl/internal/introspection"
	"graphql-ddl/internal/logging"
	"graphql-ddl/internal/naming"
	"graphql-ddl/internal/observability"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrSchemaDrift is returned when verification finds differences between
// the generated tables and the database.
var ErrSchemaDrift = errors.New("database schema differs from generated DDL")

// InitTelemetry starts the configured OTLP providers and builds the process
// logger on top of them. The returned telemetry must be shut down on exit.
func InitTelemetry(ctx context.Context, cfg *config.Config, version string, stderr io.Writer) (*logging.Logger, *observability.Telemetry, error) {
	loggerCfg := logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: stderr,
	}
	logger := logging.NewLogger(loggerCfg)
	slog.SetDefault(logger.Logger)

	obs := cfg.Observability
	if !obs.TracingEnabled && !obs.LogExportsEnabled {
		return logger, nil, nil
	}

	logger.Info("initializing OpenTelemetry",
		slog.String("service_name", obs.ServiceName),
		slog.String("service_version", version),
		slog.String("otlp_endpoint", obs.OTLP.Endpoint),
		slog.String("otlp_protocol", obs.OTLP.Protocol),
		slog.Bool("tracing", obs.TracingEnabled),
		slog.Bool("log_exports", obs.LogExportsEnabled),
	)

	telemetry, err := observability.Setup(ctx, observability.Config{
		ServiceName:      obs.ServiceName,
		ServiceVersion:   version,
		TracingEnabled:   obs.TracingEnabled,
		LogExportEnabled: obs.LogExportsEnabled,
		TraceSampleRatio: obs.TraceSampleRatio,
		OTLP: observability.OTLPExporterConfig{
			Endpoint:          obs.OTLP.Endpoint,
			Protocol:          obs.OTLP.Protocol,
			Insecure:          obs.OTLP.Insecure,
			TLSCertFile:       obs.OTLP.TLSCertFile,
			TLSClientCertFile: obs.OTLP.TLSClientCertFile,
			TLSClientKeyFile:  obs.OTLP.TLSClientKeyFile,
			Headers:           obs.OTLP.Headers,
			Timeout:           obs.OTLP.Timeout,
			Compression:       obs.OTLP.Compression,
			RetryEnabled:      obs.OTLP.RetryEnabled,
		},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	if provider := telemetry.LoggerProvider(); provider != nil {
		loggerCfg.LoggerProvider = provider
		logger = logging.NewLogger(loggerCfg)
		slog.SetDefault(logger.Logger)
	}
	return logger, telemetry, nil
}

func loadSchema(path string, logger *logging.Logger) (*gqlschema.Schema, error) {
	sdl, err := gqlschema.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}
	name := path
	if name == "@-" {
		name = "stdin"
	}
	schema, err := gqlschema.ParseNamed(name, sdl)
	if err != nil {
		return nil, err
	}
	logger.Debug("schema loaded", slog.String("schema", name), slog.Int("types", len(schema.Types())))
	return schema, nil
}

func newGenerator(cfg *config.Config, logger *logging.Logger) (*ddlgen.Generator, error) {
	registry, err := cfg.Mapping.Registry()
	if err != nil {
		return nil, err
	}
	var skip []string
	if len(cfg.Mapping.SkipTypes) > 0 {
		skip = cfg.Mapping.SkipTypes
	}
	return ddlgen.New(ddlgen.Options{
		Registry: &registry,
		Namer:    naming.New(cfg.Naming, logger.Logger),
		Skip:     skip,
		Filter:   cfg.SchemaFilters,
		Logger:   logger.Logger,
	}), nil
}

// writeOutput serializes into memory first so a failed run leaves no
// partial output file behind.
func writeOutput(gen *ddlgen.Generator, cs ddl.ChangeSet, serializer changelog.Serializer, path string, stdout io.Writer) error {
	var buf bytes.Buffer
	if err := gen.Write(cs, serializer, &buf); err != nil {
		return err
	}
	if path == "" || path == "-" {
		_, err := stdout.Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write changelog: %w", err)
	}
	return nil
}

func verifyTables(ctx context.Context, db introspection.Queryer, databaseName string, tables []ddl.Table, logger *logging.Logger) error {
	mismatches, err := introspection.Verify(ctx, db, databaseName, tables)
	if err != nil {
		return fmt.Errorf("failed to verify DDL: %w", err)
	}
	if len(mismatches) == 0 {
		logger.Info("database matches generated DDL", slog.Int("tables", len(tables)))
		return nil
	}
	for _, m := range mismatches {
		logger.Warn("schema mismatch",
			slog.String("table", m.Table),
			slog.String("column", m.Column),
			slog.String("kind", string(m.Kind)),
			slog.String("expected", m.Expected),
			slog.String("actual", m.Actual),
		)
	}
	return fmt.Errorf("%w: %d mismatches", ErrSchemaDrift, len(mismatches))
}

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.Tracer("graphql-ddl/ddlapp")
	ctx, span := tracer.Start(ctx, name)
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	return ctx, span
}

func recordSpanError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
