package ddlgen

import (
	"log/slog"

	"github.com/graphql-go/graphql"

	"graphql-ddl/internal/ddl"
	"graphql-ddl/internal/gqlschema"
	"graphql-ddl/internal/naming"
	"graphql-ddl/internal/schemafilter"
	"graphql-ddl/internal/sqltype"
)

const defaultPrimaryKeyColumn = "id"

type tableBuilder struct {
	schema     *gqlschema.Schema
	registry   sqltype.Registry
	namer      *naming.Namer
	filter     schemafilter.Config
	collisions *naming.CollisionDetector
	logger     *slog.Logger
}

// buildTable maps one object type to a table. Columns follow field
// declaration order. The first ID field is the primary key.
func (b *tableBuilder) buildTable(obj *graphql.Object) (ddl.Table, error) {
	typeName := obj.Name()
	tableName := b.namer.TableName(typeName)
	b.namer.CheckReserved("table", tableName)
	b.collisions.RegisterTable(tableName, typeName)

	fields := b.schema.Fields(obj)
	columns := make([]ddl.Column, 0, len(fields))
	var primaryKeyField string

	for _, field := range fields {
		if !schemafilter.FieldAllowed(typeName, field.Name, b.filter) {
			b.logger.Debug("field excluded by filter",
				slog.String("type", typeName),
				slog.String("field", field.Name),
			)
			continue
		}
		category, err := Classify(typeName, field, b.registry)
		if err != nil {
			return ddl.Table{}, err
		}

		var column ddl.Column
		switch category.Kind {
		case PrimaryKey:
			column = ddl.Column{
				Name:     b.namer.ColumnName(field.Name),
				Type:     category.Type,
				Nullable: !category.Required,
			}
			if primaryKeyField == "" {
				primaryKeyField = field.Name
				column.Nullable = false
				column.AutoIncrement = true
				column.PrimaryKey = true
				column.PrimaryKeyName = b.namer.PrimaryKeyName(tableName)
			} else {
				b.logger.Warn("additional ID field mapped as plain column",
					slog.String("type", typeName),
					slog.String("field", field.Name),
					slog.String("primary_key_field", primaryKeyField),
				)
			}
		case ScalarColumn, EnumColumn:
			column = ddl.Column{
				Name:     b.namer.ColumnName(field.Name),
				Type:     category.Type,
				Nullable: !category.Required,
			}
		case ForeignKeyColumn:
			referencedTable := b.namer.TableName(category.TargetType)
			column = ddl.Column{
				Name:     b.namer.ForeignKeyColumn(referencedTable),
				Type:     category.Type,
				Nullable: !category.Required,
				ForeignKey: &ddl.ForeignKey{
					Name:             b.namer.ForeignKeyName(referencedTable, tableName),
					ReferencedTable:  referencedTable,
					ReferencedColumn: b.referencedColumn(category.TargetType),
				},
			}
		}

		b.namer.CheckReserved("column", column.Name)
		b.collisions.RegisterColumn(tableName, column.Name, typeName+"."+field.Name)
		columns = append(columns, column)
	}

	b.logger.Debug("mapped object type to table",
		slog.String("type", typeName),
		slog.String("table", tableName),
		slog.Int("columns", len(columns)),
	)
	return ddl.Table{Name: tableName, Columns: columns}, nil
}

// referencedColumn returns the primary key column of the referenced object,
// falling back to "id" when the object declares no ID field.
func (b *tableBuilder) referencedColumn(typeName string) string {
	obj, ok := b.schema.GraphQL().Type(typeName).(*graphql.Object)
	if !ok {
		return defaultPrimaryKeyColumn
	}
	for _, field := range b.schema.Fields(obj) {
		fieldType := field.Type
		if nonNull, ok := fieldType.(*graphql.NonNull); ok {
			fieldType = nonNull.OfType
		}
		if scalar, ok := fieldType.(*graphql.Scalar); ok && scalar.Name() == sqltype.IDScalar {
			return b.namer.ColumnName(field.Name)
		}
	}
	return defaultPrimaryKeyColumn
}
