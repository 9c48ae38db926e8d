// Package dbapply executes generated DDL against a MySQL-compatible database.
package dbapply

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/XSAM/otelsql"
	_ "github.com/go-sql-driver/mysql"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// maxRetryInterval caps the exponential backoff in WaitForDatabase.
const maxRetryInterval = 30 * time.Second

// Executor runs statements that return no rows.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Pinger checks database reachability.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Open opens an instrumented MySQL connection pool. Statements executed
// through the pool produce spans when a tracer provider is installed.
func Open(dsn string) (*sql.DB, error) {
	db, err := otelsql.Open("mysql", dsn,
		otelsql.WithAttributes(semconv.DBSystemMySQL),
		otelsql.WithSpanOptions(otelsql.SpanOptions{DisableErrSkip: true}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// WaitForDatabase pings until the database answers or timeout elapses. A
// zero timeout makes a single attempt. The retry interval doubles after each
// failure up to 30s.
func WaitForDatabase(ctx context.Context, db Pinger, timeout, interval time.Duration, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout == 0 {
		return db.PingContext(ctx)
	}

	deadline := time.Now().Add(timeout)
	attempt := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		attempt++
		err := db.PingContext(ctx)
		if err == nil {
			if attempt > 1 {
				logger.Info("database connection established", slog.Int("attempts", attempt))
			}
			return nil
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("database not available after %v: %w", timeout, err)
		}

		logger.Warn("database not ready, retrying...",
			slog.Int("attempt", attempt),
			slog.Duration("retry_in", interval),
			slog.String("error", err.Error()),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}

		interval = min(interval*2, maxRetryInterval)
	}
}

// StatementError reports which statement failed.
type StatementError struct {
	Index     int
	Statement string
	Err       error
}

func (e *StatementError) Error() string {
	return fmt.Sprintf("statement %d failed: %v", e.Index+1, e.Err)
}

func (e *StatementError) Unwrap() error {
	return e.Err
}

// Apply executes statements in order and stops at the first failure. MySQL
// commits DDL implicitly, so statements that ran before a failure stay applied.
func Apply(ctx context.Context, exec Executor, statements []string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, span := startSpan(ctx, "dbapply.apply", attribute.Int("statements", len(statements)))
	defer span.End()

	for i, stmt := range statements {
		if err := applyOne(ctx, exec, i, stmt); err != nil {
			recordSpanError(span, err)
			return err
		}
		logger.Debug("applied statement", slog.Int("index", i+1))
	}

	logger.Info("applied DDL", slog.Int("statements", len(statements)))
	return nil
}

func applyOne(ctx context.Context, exec Executor, index int, stmt string) error {
	ctx, span := startSpan(ctx, "dbapply.statement",
		attribute.Int("statement.index", index+1),
		attribute.String("db.query.text", stmt),
	)
	defer span.End()

	if _, err := exec.ExecContext(ctx, stmt); err != nil {
		stmtErr := &StatementError{Index: index, Statement: stmt, Err: err}
		recordSpanError(span, stmtErr)
		return stmtErr
	}
	return nil
}

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.Tracer("graphql-ddl/dbapply")
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
