package ddl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColumnTypeString(t *testing.T) {
	tests := []struct {
		input    ColumnType
		expected string
	}{
		{ColumnType{Name: "BIGINT"}, "BIGINT"},
		{ColumnType{Name: "VARCHAR", Size: 255}, "VARCHAR(255)"},
		{ColumnType{Name: "BOOLEAN", Size: 0}, "BOOLEAN"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.input.String())
		})
	}
}

func TestTableConstraints(t *testing.T) {
	table := Table{
		Name: "product",
		Columns: []Column{
			{Name: "id", Type: ColumnType{Name: "BIGINT"}, PrimaryKey: true, PrimaryKeyName: "pk_product", AutoIncrement: true},
			{Name: "name", Type: ColumnType{Name: "VARCHAR", Size: 255}},
			{Name: "product_category_id", Type: ColumnType{Name: "BIGINT"}, Nullable: true, ForeignKey: &ForeignKey{
				Name: "fk_product_category_product", ReferencedTable: "product_category", ReferencedColumn: "id",
			}},
		},
	}

	pk, ok := table.PrimaryKey()
	assert.True(t, ok)
	assert.Equal(t, "id", pk.Name)

	fks := table.ForeignKeys()
	if assert.Len(t, fks, 1) {
		assert.Equal(t, "product", fks[0].Table)
		assert.Equal(t, "product_category_id", fks[0].Column)
		assert.Equal(t, "fk_product_category_product", fks[0].Name)
		assert.Equal(t, "product_category", fks[0].ReferencedTable)
	}

	_, ok = table.Column("missing")
	assert.False(t, ok)
	col, ok := table.Column("name")
	assert.True(t, ok)
	assert.Equal(t, "VARCHAR(255)", col.Type.String())
}

func TestTableWithoutPrimaryKey(t *testing.T) {
	table := Table{Name: "note", Columns: []Column{{Name: "body", Type: ColumnType{Name: "VARCHAR", Size: 255}}}}
	_, ok := table.PrimaryKey()
	assert.False(t, ok)
	assert.Empty(t, table.ForeignKeys())
}
