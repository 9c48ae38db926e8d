// Package introspection reads applied table definitions back from
// INFORMATION_SCHEMA so generated DDL can be verified against a live database.
package introspection

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Column represents a database column as reported by INFORMATION_SCHEMA.
type Column struct {
	Name            string
	DataType        string
	ColumnType      string
	IsNullable      bool
	IsPrimaryKey    bool
	IsAutoIncrement bool
}

// ForeignKey represents a foreign key constraint on a column.
type ForeignKey struct {
	ColumnName       string // e.g., "product_category_id"
	ReferencedTable  string // e.g., "product_category"
	ReferencedColumn string // e.g., "id"
	ConstraintName   string // e.g., "fk_product_category_product"
}

// Table represents an applied table.
type Table struct {
	Name        string
	Columns     []Column
	ForeignKeys []ForeignKey
}

// Column returns the named column, if present.
func (t *Table) Column(name string) (Column, bool) {
	for _, col := range t.Columns {
		if strings.EqualFold(col.Name, name) {
			return col, true
		}
	}
	return Column{}, false
}

// Queryer provides query access for introspection.
type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// DescribeTable reads a table's columns and foreign keys. It returns nil
// without error when the table does not exist.
func DescribeTable(ctx context.Context, db Queryer, databaseName, tableName string) (*Table, error) {
	ctx, span := startSpan(ctx, "introspection.describe_table",
		attribute.String("db.name", databaseName),
		attribute.String("db.table", tableName),
	)
	defer span.End()

	columns, err := getColumns(ctx, db, databaseName, tableName)
	if err != nil {
		recordSpanError(span, err)
		return nil, fmt.Errorf("failed to get columns for %s: %w", tableName, err)
	}
	if len(columns) == 0 {
		return nil, nil
	}

	foreignKeys, err := getForeignKeys(ctx, db, databaseName, tableName)
	if err != nil {
		recordSpanError(span, err)
		return nil, fmt.Errorf("failed to get foreign keys for table %s: %w", tableName, err)
	}

	return &Table{
		Name:        tableName,
		Columns:     columns,
		ForeignKeys: foreignKeys,
	}, nil
}

func columnsQuery(databaseName, tableName string) (string, []any, error) {
	return sq.Select("COLUMN_NAME", "DATA_TYPE", "COLUMN_TYPE", "IS_NULLABLE", "COLUMN_KEY", "EXTRA").
		From("INFORMATION_SCHEMA.COLUMNS").
		Where(sq.Eq{"TABLE_SCHEMA": databaseName}).
		Where(sq.Eq{"TABLE_NAME": tableName}).
		OrderBy("ORDINAL_POSITION").
		PlaceholderFormat(sq.Question).
		ToSql()
}

func foreignKeysQuery(databaseName, tableName string) (string, []any, error) {
	return sq.Select("COLUMN_NAME", "REFERENCED_TABLE_NAME", "REFERENCED_COLUMN_NAME", "CONSTRAINT_NAME").
		From("INFORMATION_SCHEMA.KEY_COLUMN_USAGE").
		Where(sq.Eq{"TABLE_SCHEMA": databaseName}).
		Where(sq.Eq{"TABLE_NAME": tableName}).
		Where("REFERENCED_TABLE_NAME IS NOT NULL").
		OrderBy("CONSTRAINT_NAME", "ORDINAL_POSITION").
		PlaceholderFormat(sq.Question).
		ToSql()
}

func getColumns(ctx context.Context, db Queryer, databaseName, tableName string) ([]Column, error) {
	ctx, span := startSpan(ctx, "introspection.get_columns",
		attribute.String("db.name", databaseName),
		attribute.String("db.table", tableName),
	)
	defer span.End()

	query, args, err := columnsQuery(databaseName, tableName)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var columns []Column
	for rows.Next() {
		var col Column
		var isNullable string
		var columnKey sql.NullString
		var extra sql.NullString
		if err := rows.Scan(&col.Name, &col.DataType, &col.ColumnType, &isNullable, &columnKey, &extra); err != nil {
			recordSpanError(span, err)
			return nil, err
		}
		col.IsNullable = strings.EqualFold(isNullable, "YES")
		col.IsPrimaryKey = strings.EqualFold(columnKey.String, "PRI")
		col.IsAutoIncrement = strings.Contains(strings.ToLower(extra.String), "auto_increment")
		columns = append(columns, col)
	}

	if err := rows.Err(); err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	return columns, nil
}

func getForeignKeys(ctx context.Context, db Queryer, databaseName, tableName string) ([]ForeignKey, error) {
	ctx, span := startSpan(ctx, "introspection.get_foreign_keys",
		attribute.String("db.name", databaseName),
		attribute.String("db.table", tableName),
	)
	defer span.End()

	query, args, err := foreignKeysQuery(databaseName, tableName)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var foreignKeys []ForeignKey
	for rows.Next() {
		var fk ForeignKey
		if err := rows.Scan(&fk.ColumnName, &fk.ReferencedTable, &fk.ReferencedColumn, &fk.ConstraintName); err != nil {
			recordSpanError(span, err)
			return nil, err
		}
		foreignKeys = append(foreignKeys, fk)
	}

	if err := rows.Err(); err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	return foreignKeys, nil
}

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.Tracer("graphql-ddl/introspection")
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
