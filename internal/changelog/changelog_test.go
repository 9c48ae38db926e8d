package changelog

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"graphql-ddl/internal/ddl"
)

func productChangeSet() ddl.ChangeSet {
	varchar := ddl.ColumnType{Name: "VARCHAR", Size: 255}
	bigint := ddl.ColumnType{Name: "BIGINT"}
	return ddl.ChangeSet{
		ID:     "init",
		Author: "buddy",
		Tables: []ddl.Table{
			{
				Name: "product",
				Columns: []ddl.Column{
					{Name: "id", Type: bigint, AutoIncrement: true, PrimaryKey: true, PrimaryKeyName: "pk_product"},
					{Name: "name", Type: varchar},
					{Name: "description", Type: varchar, Nullable: true},
					{
						Name: "product_category_id",
						Type: bigint,
						ForeignKey: &ddl.ForeignKey{
							Name:             "fk_product_category_product",
							ReferencedTable:  "product_category",
							ReferencedColumn: "id",
						},
					},
				},
			},
			{
				Name: "product_category",
				Columns: []ddl.Column{
					{Name: "id", Type: bigint, AutoIncrement: true, PrimaryKey: true, PrimaryKeyName: "pk_product_category"},
					{Name: "name", Type: varchar},
				},
			},
		},
	}
}

func TestForFormat(t *testing.T) {
	tests := []struct {
		input  string
		format string
	}{
		{"xml", FormatXML},
		{"XML", FormatXML},
		{"yaml", FormatYAML},
		{"yml", FormatYAML},
		{"json", FormatJSON},
		{" sql ", FormatSQL},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			serializer, err := ForFormat(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.format, serializer.Format())
		})
	}

	_, err := ForFormat("toml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xml, yaml, json, sql")
}

func TestXMLSerializer(t *testing.T) {
	out, err := XMLSerializer{}.Serialize(productChangeSet())
	require.NoError(t, err)

	doc := string(out)
	assert.True(t, strings.HasPrefix(doc, `<?xml version="1.1" encoding="UTF-8" standalone="no"?>`))
	assert.Contains(t, doc, `<databaseChangeLog xmlns="http://www.liquibase.org/xml/ns/dbchangelog"`)
	assert.Contains(t, doc, `<changeSet author="buddy" id="init">`)
	assert.Contains(t, doc, `<createTable tableName="product">`)
	assert.Contains(t, doc, `<column autoIncrement="true" name="id" type="BIGINT">`)
	assert.Contains(t, doc, `<constraints primaryKey="true" primaryKeyName="pk_product" nullable="false"></constraints>`)
	assert.Contains(t, doc, `<column name="description" type="VARCHAR(255)"></column>`)
	assert.Contains(t, doc, `<column name="product_category_id" type="BIGINT">`)
	assert.NotContains(t, doc, `references=`)
	assert.Contains(t, doc, `<addForeignKeyConstraint constraintName="fk_product_category_product" baseTableName="product" baseColumnNames="product_category_id" referencedTableName="product_category" referencedColumnNames="id"></addForeignKeyConstraint>`)
	assert.Less(t, strings.Index(doc, `tableName="product"`), strings.Index(doc, `tableName="product_category"`))
	assert.Greater(t, strings.Index(doc, `<addForeignKeyConstraint`), strings.LastIndex(doc, `</createTable>`))
}

func TestYAMLSerializer(t *testing.T) {
	out, err := YAMLSerializer{}.Serialize(productChangeSet())
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(out, &decoded))

	changeSets := decoded["databaseChangeLog"].([]any)
	require.Len(t, changeSets, 1)
	changeSet := changeSets[0].(map[string]any)["changeSet"].(map[string]any)
	assert.Equal(t, "init", changeSet["id"])
	assert.Equal(t, "buddy", changeSet["author"])

	changes := changeSet["changes"].([]any)
	require.Len(t, changes, 3)
	createTable := changes[0].(map[string]any)["createTable"].(map[string]any)
	assert.Equal(t, "product", createTable["tableName"])

	columns := createTable["columns"].([]any)
	require.Len(t, columns, 4)
	id := columns[0].(map[string]any)["column"].(map[string]any)
	assert.Equal(t, true, id["autoIncrement"])
	constraints := id["constraints"].(map[string]any)
	assert.Equal(t, true, constraints["primaryKey"])
	assert.Equal(t, false, constraints["nullable"])

	description := columns[2].(map[string]any)["column"].(map[string]any)
	assert.NotContains(t, description, "constraints")

	fk := changes[2].(map[string]any)["addForeignKeyConstraint"].(map[string]any)
	assert.Equal(t, "fk_product_category_product", fk["constraintName"])
	assert.Equal(t, "product", fk["baseTableName"])
	assert.NotContains(t, changes[2].(map[string]any), "createTable")

	assert.Contains(t, string(out), "databaseChangeLog:\n  - changeSet:\n")
}

func TestJSONSerializer(t *testing.T) {
	out, err := JSONSerializer{}.Serialize(productChangeSet())
	require.NoError(t, err)

	var decoded document
	require.NoError(t, json.Unmarshal(out, &decoded))
	require.Len(t, decoded.DatabaseChangeLog, 1)

	changes := decoded.DatabaseChangeLog[0].ChangeSet.Changes
	require.Len(t, changes, 3)
	column := changes[0].CreateTable.Columns[3].Column
	assert.Equal(t, "product_category_id", column.Name)
	require.NotNil(t, column.Constraints)
	assert.Equal(t, boolPtr(false), column.Constraints.Nullable)

	require.Nil(t, changes[2].CreateTable)
	assert.Equal(t, &addForeignKey{
		ConstraintName:        "fk_product_category_product",
		BaseTableName:         "product",
		BaseColumnNames:       "product_category_id",
		ReferencedTableName:   "product_category",
		ReferencedColumnNames: "id",
	}, changes[2].AddForeignKeyConstraint)
}

func TestDocumentAddsForeignKeysAfterAllTables(t *testing.T) {
	cs := productChangeSet()
	cs.Tables[1].Columns = append(cs.Tables[1].Columns, ddl.Column{
		Name: "parent_id",
		Type: ddl.ColumnType{Name: "BIGINT"},
		ForeignKey: &ddl.ForeignKey{
			Name:             "fk_product_category_product_category",
			ReferencedTable:  "product_category",
			ReferencedColumn: "id",
		},
		Nullable: true,
	})

	changes := newDocument(cs).DatabaseChangeLog[0].ChangeSet.Changes
	require.Len(t, changes, 4)

	lastCreate, firstForeignKey := -1, len(changes)
	for i, change := range changes {
		if change.CreateTable != nil {
			lastCreate = i
		}
		if change.AddForeignKeyConstraint != nil && i < firstForeignKey {
			firstForeignKey = i
		}
	}
	assert.Less(t, lastCreate, firstForeignKey)
	assert.Equal(t, "product", changes[2].AddForeignKeyConstraint.BaseTableName)
	assert.Equal(t, "product_category", changes[3].AddForeignKeyConstraint.BaseTableName)
}

func TestSQLSerializer(t *testing.T) {
	out, err := SQLSerializer{}.Serialize(productChangeSet())
	require.NoError(t, err)

	expected := "-- liquibase formatted sql\n" +
		"\n" +
		"-- changeset buddy:init\n" +
		"CREATE TABLE `product` (\n" +
		"  `id` BIGINT NOT NULL AUTO_INCREMENT,\n" +
		"  `name` VARCHAR(255) NOT NULL,\n" +
		"  `description` VARCHAR(255),\n" +
		"  `product_category_id` BIGINT NOT NULL,\n" +
		"  CONSTRAINT `pk_product` PRIMARY KEY (`id`)\n" +
		");\n" +
		"\n" +
		"CREATE TABLE `product_category` (\n" +
		"  `id` BIGINT NOT NULL AUTO_INCREMENT,\n" +
		"  `name` VARCHAR(255) NOT NULL,\n" +
		"  CONSTRAINT `pk_product_category` PRIMARY KEY (`id`)\n" +
		");\n" +
		"\n" +
		"ALTER TABLE `product` ADD CONSTRAINT `fk_product_category_product` FOREIGN KEY (`product_category_id`) REFERENCES `product_category` (`id`);\n"

	if diff := cmp.Diff(expected, string(out)); diff != "" {
		t.Errorf("SQL changelog mismatch (-want +got):\n%s", diff)
	}
}

func TestSQLStatements(t *testing.T) {
	statements := SQLSerializer{}.Statements(productChangeSet())

	require.Len(t, statements, 3)
	assert.True(t, strings.HasPrefix(statements[0], "CREATE TABLE `product` ("))
	assert.True(t, strings.HasPrefix(statements[1], "CREATE TABLE `product_category` ("))
	assert.True(t, strings.HasPrefix(statements[2], "ALTER TABLE `product` ADD CONSTRAINT"))
	for _, stmt := range statements {
		assert.False(t, strings.HasSuffix(stmt, ";"))
	}
}

func TestSQLSerializerRejectsWhitespaceInHeader(t *testing.T) {
	cs := productChangeSet()
	cs.Author = "jane doe"

	_, err := SQLSerializer{}.Serialize(cs)
	assert.Error(t, err)
}

func TestSerializersAreDeterministic(t *testing.T) {
	for _, format := range Formats() {
		t.Run(format, func(t *testing.T) {
			serializer, err := ForFormat(format)
			require.NoError(t, err)

			first, err := serializer.Serialize(productChangeSet())
			require.NoError(t, err)
			second, err := serializer.Serialize(productChangeSet())
			require.NoError(t, err)
			assert.Equal(t, first, second)
		})
	}
}

func TestSerializersHandleEmptyChangeSet(t *testing.T) {
	cs := ddl.ChangeSet{ID: "init", Author: "buddy"}
	for _, format := range Formats() {
		t.Run(format, func(t *testing.T) {
			serializer, err := ForFormat(format)
			require.NoError(t, err)

			out, err := serializer.Serialize(cs)
			require.NoError(t, err)
			assert.NotEmpty(t, out)
		})
	}
}
