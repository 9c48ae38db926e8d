// Package changelog serializes a changeset into Liquibase changelog documents
// (XML, YAML, JSON) or Liquibase formatted SQL.
package changelog

import (
	"fmt"
	"strings"

	"graphql-ddl/internal/ddl"
)

// Serializer renders a changeset as a complete changelog document.
type Serializer interface {
	Serialize(cs ddl.ChangeSet) ([]byte, error)
	Format() string
}

const (
	FormatXML  = "xml"
	FormatYAML = "yaml"
	FormatJSON = "json"
	FormatSQL  = "sql"
)

// Formats lists the supported output formats.
func Formats() []string {
	return []string{FormatXML, FormatYAML, FormatJSON, FormatSQL}
}

// ForFormat returns the serializer for a format name.
func ForFormat(format string) (Serializer, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatXML:
		return XMLSerializer{}, nil
	case FormatYAML, "yml":
		return YAMLSerializer{}, nil
	case FormatJSON:
		return JSONSerializer{}, nil
	case FormatSQL:
		return SQLSerializer{}, nil
	default:
		return nil, fmt.Errorf("unknown changelog format %q (valid formats: %s)", format, strings.Join(Formats(), ", "))
	}
}

// constraintsFor returns the constraint attributes of a column, or nil when
// the column carries none.
func constraintsFor(column ddl.Column) *constraints {
	c := constraints{}
	set := false
	if column.PrimaryKey {
		c.PrimaryKey = boolPtr(true)
		c.PrimaryKeyName = column.PrimaryKeyName
		set = true
	}
	if !column.Nullable {
		c.Nullable = boolPtr(false)
		set = true
	}
	if !set {
		return nil
	}
	return &c
}

// foreignKeysFor lists every foreign key of the changeset in table order.
// Changelogs add them after all tables exist so creation order never
// matters.
func foreignKeysFor(cs ddl.ChangeSet) []addForeignKey {
	var fks []addForeignKey
	for _, table := range cs.Tables {
		for _, fk := range table.ForeignKeys() {
			fks = append(fks, addForeignKey{
				ConstraintName:        fk.Name,
				BaseTableName:         fk.Table,
				BaseColumnNames:       fk.Column,
				ReferencedTableName:   fk.ReferencedTable,
				ReferencedColumnNames: fk.ReferencedColumn,
			})
		}
	}
	return fks
}

func boolPtr(v bool) *bool {
	return &v
}
