// Package ddl defines the relational schema description produced from a GraphQL
// type system: tables, columns, and the constraints carried by those columns.
// Values are built fully populated and are not mutated after construction.
package ddl

import "strconv"

// ColumnType describes a SQL column type with an optional size.
type ColumnType struct {
	Name string
	// Size is the length bound for sized types (e.g. VARCHAR). Zero means unsized.
	Size int
}

// String renders the type as NAME or NAME(size).
func (t ColumnType) String() string {
	if t.Size > 0 {
		return t.Name + "(" + strconv.Itoa(t.Size) + ")"
	}
	return t.Name
}

// ForeignKey is the constraint carried by a foreign-key column.
type ForeignKey struct {
	Name             string // e.g. "fk_product_category_product"
	ReferencedTable  string // e.g. "product_category"
	ReferencedColumn string // e.g. "id"
}

// Column represents a table column and its inline constraints.
type Column struct {
	Name           string
	Type           ColumnType
	Nullable       bool
	AutoIncrement  bool
	PrimaryKey     bool
	PrimaryKeyName string
	ForeignKey     *ForeignKey
}

// Table represents a CREATE TABLE operation.
type Table struct {
	Name    string
	Columns []Column
}

// PrimaryKey returns the primary key column, if present.
func (t Table) PrimaryKey() (Column, bool) {
	for _, col := range t.Columns {
		if col.PrimaryKey {
			return col, true
		}
	}
	return Column{}, false
}

// ForeignKeyConstraint pairs a foreign key with the column that owns it.
type ForeignKeyConstraint struct {
	Table  string
	Column string
	ForeignKey
}

// ForeignKeys returns the table's foreign key constraints in column order.
func (t Table) ForeignKeys() []ForeignKeyConstraint {
	var fks []ForeignKeyConstraint
	for _, col := range t.Columns {
		if col.ForeignKey == nil {
			continue
		}
		fks = append(fks, ForeignKeyConstraint{
			Table:      t.Name,
			Column:     col.Name,
			ForeignKey: *col.ForeignKey,
		})
	}
	return fks
}

// Column returns the named column, if present.
func (t Table) Column(name string) (Column, bool) {
	for _, col := range t.Columns {
		if col.Name == name {
			return col, true
		}
	}
	return Column{}, false
}

// ChangeSet is one atomic unit of table-creation operations.
type ChangeSet struct {
	ID     string
	Author string
	Tables []Table
}
