package introspection

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"graphql-ddl/internal/ddl"
	"graphql-ddl/internal/sqltype"
)

// MismatchKind classifies a difference between generated and applied DDL.
type MismatchKind string

const (
	MissingTable           MismatchKind = "missing_table"
	MissingColumn          MismatchKind = "missing_column"
	TypeMismatch           MismatchKind = "type"
	NullabilityMismatch    MismatchKind = "nullability"
	PrimaryKeyMismatch     MismatchKind = "primary_key"
	AutoIncrementMismatch  MismatchKind = "auto_increment"
	MissingForeignKey      MismatchKind = "missing_foreign_key"
	ForeignKeyTargetDiffer MismatchKind = "foreign_key_target"
)

// Mismatch describes one difference found by Verify.
type Mismatch struct {
	Table    string
	Column   string
	Kind     MismatchKind
	Expected string
	Actual   string
}

func (m Mismatch) String() string {
	location := m.Table
	if m.Column != "" {
		location += "." + m.Column
	}
	if m.Expected == "" && m.Actual == "" {
		return fmt.Sprintf("%s: %s", location, m.Kind)
	}
	return fmt.Sprintf("%s: %s (expected %s, got %s)", location, m.Kind, m.Expected, m.Actual)
}

// Verify compares generated tables with what the database reports. Extra
// columns in the database are ignored.
func Verify(ctx context.Context, db Queryer, databaseName string, tables []ddl.Table) ([]Mismatch, error) {
	ctx, span := startSpan(ctx, "introspection.verify",
		attribute.String("db.name", databaseName),
		attribute.Int("tables", len(tables)),
	)
	defer span.End()

	var mismatches []Mismatch
	for _, table := range tables {
		applied, err := DescribeTable(ctx, db, databaseName, table.Name)
		if err != nil {
			recordSpanError(span, err)
			return nil, err
		}
		if applied == nil {
			mismatches = append(mismatches, Mismatch{Table: table.Name, Kind: MissingTable})
			continue
		}
		mismatches = append(mismatches, compareTable(table, applied)...)
	}

	span.SetAttributes(attribute.Int("mismatches", len(mismatches)))
	return mismatches, nil
}

func compareTable(table ddl.Table, applied *Table) []Mismatch {
	var mismatches []Mismatch
	add := func(column string, kind MismatchKind, expected, actual string) {
		mismatches = append(mismatches, Mismatch{
			Table:    table.Name,
			Column:   column,
			Kind:     kind,
			Expected: expected,
			Actual:   actual,
		})
	}

	for _, column := range table.Columns {
		got, ok := applied.Column(column.Name)
		if !ok {
			add(column.Name, MissingColumn, "", "")
			continue
		}
		if !sqltype.Compatible(column.Type.String(), got.ColumnType) {
			add(column.Name, TypeMismatch, column.Type.String(), got.ColumnType)
		}
		if column.Nullable != got.IsNullable {
			add(column.Name, NullabilityMismatch, nullability(column.Nullable), nullability(got.IsNullable))
		}
		if column.PrimaryKey != got.IsPrimaryKey {
			add(column.Name, PrimaryKeyMismatch, fmt.Sprint(column.PrimaryKey), fmt.Sprint(got.IsPrimaryKey))
		}
		if column.AutoIncrement != got.IsAutoIncrement {
			add(column.Name, AutoIncrementMismatch, fmt.Sprint(column.AutoIncrement), fmt.Sprint(got.IsAutoIncrement))
		}
	}

	for _, fk := range table.ForeignKeys() {
		found := false
		for _, appliedFK := range applied.ForeignKeys {
			if !strings.EqualFold(appliedFK.ColumnName, fk.Column) {
				continue
			}
			found = true
			want := fk.ReferencedTable + "(" + fk.ReferencedColumn + ")"
			got := appliedFK.ReferencedTable + "(" + appliedFK.ReferencedColumn + ")"
			if !strings.EqualFold(want, got) {
				add(fk.Column, ForeignKeyTargetDiffer, want, got)
			}
			break
		}
		if !found {
			add(fk.Column, MissingForeignKey, fk.Name, "none")
		}
	}
	return mismatches
}

func nullability(nullable bool) string {
	if nullable {
		return "NULL"
	}
	return "NOT NULL"
}
