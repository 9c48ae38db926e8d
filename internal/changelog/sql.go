package changelog

import (
	"fmt"
	"strings"

	"graphql-ddl/internal/ddl"
	"graphql-ddl/internal/sqlutil"
)

// SQLSerializer writes MySQL/TiDB DDL as a Liquibase formatted SQL changelog.
type SQLSerializer struct{}

func (SQLSerializer) Format() string { return FormatSQL }

// Serialize renders the formatted SQL header followed by every statement.
func (s SQLSerializer) Serialize(cs ddl.ChangeSet) ([]byte, error) {
	if strings.ContainsAny(cs.Author, " \n") || strings.ContainsAny(cs.ID, " \n") {
		return nil, fmt.Errorf("changeset author and id must not contain whitespace in formatted SQL: %q:%q", cs.Author, cs.ID)
	}

	var b strings.Builder
	b.WriteString("-- liquibase formatted sql\n\n")
	fmt.Fprintf(&b, "-- changeset %s:%s\n", cs.Author, cs.ID)
	for i, stmt := range s.Statements(cs) {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(stmt)
		b.WriteString(";\n")
	}
	return []byte(b.String()), nil
}

// Statements returns the CREATE TABLE statements in table order followed by
// one ALTER TABLE per foreign key, without trailing semicolons.
func (SQLSerializer) Statements(cs ddl.ChangeSet) []string {
	statements := make([]string, 0, len(cs.Tables))
	var foreignKeys []string

	for _, table := range cs.Tables {
		statements = append(statements, createTable(table))
		for _, fk := range table.ForeignKeys() {
			foreignKeys = append(foreignKeys, "ALTER TABLE "+sqlutil.QuoteIdentifier(fk.Table)+
				" ADD "+sqlutil.ForeignKeyClause(fk.Name, fk.Column, fk.ReferencedTable, fk.ReferencedColumn))
		}
	}
	return append(statements, foreignKeys...)
}

func createTable(table ddl.Table) string {
	lines := make([]string, 0, len(table.Columns)+1)
	for _, column := range table.Columns {
		lines = append(lines, "  "+sqlutil.ColumnDefinition(column.Name, column.Type.String(), !column.Nullable, column.AutoIncrement))
	}
	if pk, ok := table.PrimaryKey(); ok {
		clause := "PRIMARY KEY (" + sqlutil.QuoteIdentifierList(pk.Name) + ")"
		if pk.PrimaryKeyName != "" {
			clause = "CONSTRAINT " + sqlutil.QuoteIdentifier(pk.PrimaryKeyName) + " " + clause
		}
		lines = append(lines, "  "+clause)
	}
	return "CREATE TABLE " + sqlutil.QuoteIdentifier(table.Name) + " (\n" + strings.Join(lines, ",\n") + "\n)"
}
