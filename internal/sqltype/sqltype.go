// Package sqltype maps GraphQL scalar types to SQL column types.
// The registry is an immutable value so callers can substitute alternate mappings.
package sqltype

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"graphql-ddl/internal/ddl"
)

// DefaultTextLength is the length bound applied to text columns.
const DefaultTextLength = 255

// Base SQL type names used by the default registry.
const (
	Boolean = "BOOLEAN"
	Int     = "INT"
	BigInt  = "BIGINT"
	Float   = "FLOAT"
	Varchar = "VARCHAR"
)

// IDScalar is the GraphQL scalar that marks a primary key field.
const IDScalar = "ID"

// Registry is a fixed mapping from GraphQL scalar name to column type.
type Registry struct {
	types      map[string]ddl.ColumnType
	textLength int
	idType     ddl.ColumnType
}

// NewRegistry builds a registry from the given mapping. The map is copied.
func NewRegistry(types map[string]ddl.ColumnType) Registry {
	return Registry{
		types:      maps.Clone(types),
		textLength: DefaultTextLength,
		idType:     ddl.ColumnType{Name: BigInt},
	}
}

// DefaultRegistry covers the built-in GraphQL scalars other than ID.
func DefaultRegistry() Registry {
	return NewRegistry(map[string]ddl.ColumnType{
		"Boolean": {Name: Boolean},
		"Int":     {Name: Int},
		"Float":   {Name: Float},
		"String":  TextType(DefaultTextLength),
	})
}

// TextType returns the variable-length text type with the given bound.
func TextType(length int) ddl.ColumnType {
	return ddl.ColumnType{Name: Varchar, Size: length}
}

// Lookup returns the column type for a scalar name.
func (r Registry) Lookup(scalar string) (ddl.ColumnType, bool) {
	t, ok := r.types[scalar]
	return t, ok
}

// TextType returns the text type at the registry's configured length.
// Enum columns always use this type.
func (r Registry) TextType() ddl.ColumnType {
	return TextType(r.textLength)
}

// IDType returns the type shared by primary key and foreign key columns.
func (r Registry) IDType() ddl.ColumnType {
	return r.idType
}

// Scalars returns the registered scalar names in sorted order.
func (r Registry) Scalars() []string {
	return slices.Sorted(maps.Keys(r.types))
}

// With returns a copy of the registry with the scalar mapped to t.
func (r Registry) With(scalar string, t ddl.ColumnType) Registry {
	out := r.clone()
	out.types[scalar] = t
	return out
}

// WithTextLength returns a copy whose text entries use the given length bound.
func (r Registry) WithTextLength(length int) Registry {
	out := r.clone()
	out.textLength = length
	for name, t := range out.types {
		if t.Name == Varchar {
			out.types[name] = TextType(length)
		}
	}
	return out
}

// WithIDType returns a copy using t for primary and foreign key columns.
func (r Registry) WithIDType(t ddl.ColumnType) Registry {
	out := r.clone()
	out.idType = t
	return out
}

func (r Registry) clone() Registry {
	out := r
	out.types = maps.Clone(r.types)
	if out.types == nil {
		out.types = make(map[string]ddl.ColumnType)
	}
	return out
}

// ParseColumnType parses a type spec such as "VARCHAR(64)" or "datetime".
// The name is upper-cased; a size specifier must be a positive integer.
func ParseColumnType(spec string) (ddl.ColumnType, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return ddl.ColumnType{}, fmt.Errorf("empty column type")
	}
	start := strings.Index(spec, "(")
	if start == -1 {
		return ddl.ColumnType{Name: strings.ToUpper(spec)}, nil
	}
	if !strings.HasSuffix(spec, ")") || start == 0 {
		return ddl.ColumnType{}, fmt.Errorf("invalid column type %q", spec)
	}
	size, err := strconv.Atoi(strings.TrimSpace(spec[start+1 : len(spec)-1]))
	if err != nil || size <= 0 {
		return ddl.ColumnType{}, fmt.Errorf("invalid size in column type %q", spec)
	}
	return ddl.ColumnType{Name: strings.ToUpper(strings.TrimSpace(spec[:start])), Size: size}, nil
}
