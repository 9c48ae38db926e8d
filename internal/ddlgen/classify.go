package ddlgen

import (
	"fmt"

	"github.com/graphql-go/graphql"

	"graphql-ddl/internal/ddl"
	"graphql-ddl/internal/sqltype"
)

// Kind identifies how a field maps onto a column.
type Kind int

const (
	PrimaryKey Kind = iota + 1
	ScalarColumn
	EnumColumn
	ForeignKeyColumn
)

func (k Kind) String() string {
	switch k {
	case PrimaryKey:
		return "primary_key"
	case ScalarColumn:
		return "scalar_column"
	case EnumColumn:
		return "enum_column"
	case ForeignKeyColumn:
		return "foreign_key_column"
	default:
		return "unknown"
	}
}

// Category is the classification of one field.
// Type is set for ScalarColumn and EnumColumn; TargetType names the
// referenced object for ForeignKeyColumn.
type Category struct {
	Kind       Kind
	Type       ddl.ColumnType
	TargetType string
	Required   bool
}

const listFieldsUnsupported = "list fields are not supported"

// Classify unwraps one outer non-null wrapper and dispatches on the
// underlying type of the field.
func Classify(typeName string, field *graphql.FieldDefinition, registry sqltype.Registry) (Category, error) {
	underlying := field.Type
	required := false
	if nonNull, ok := underlying.(*graphql.NonNull); ok {
		underlying = nonNull.OfType
		required = true
	}

	switch t := underlying.(type) {
	case *graphql.Scalar:
		if t.Name() == sqltype.IDScalar {
			return Category{Kind: PrimaryKey, Type: registry.IDType(), Required: required}, nil
		}
		columnType, ok := registry.Lookup(t.Name())
		if !ok {
			return Category{}, &UnsupportedScalarTypeError{TypeName: typeName, FieldName: field.Name, Scalar: t.Name()}
		}
		return Category{Kind: ScalarColumn, Type: columnType, Required: required}, nil
	case *graphql.Enum:
		return Category{Kind: EnumColumn, Type: registry.TextType(), Required: required}, nil
	case *graphql.Object:
		return Category{Kind: ForeignKeyColumn, Type: registry.IDType(), TargetType: t.Name(), Required: required}, nil
	case *graphql.List:
		return Category{}, unsupported(typeName, field.Name, listFieldsUnsupported)
	case *graphql.Interface:
		return Category{}, unsupported(typeName, field.Name, fmt.Sprintf("interface type %q is not supported", t.Name()))
	case *graphql.Union:
		return Category{}, unsupported(typeName, field.Name, fmt.Sprintf("union type %q is not supported", t.Name()))
	case nil:
		return Category{}, unsupported(typeName, field.Name, "field has no type")
	default:
		return Category{}, unsupported(typeName, field.Name, fmt.Sprintf("type %q is not supported", t.Name()))
	}
}

func unsupported(typeName, fieldName, reason string) error {
	return &UnsupportedFeatureError{TypeName: typeName, FieldName: fieldName, Reason: reason}
}
