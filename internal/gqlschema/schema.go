// Package gqlschema wraps a graphql-go type system together with the order in
// which its types and fields were declared. graphql-go keeps types and fields
// in maps, so declaration order is carried alongside to make output reproducible.
package gqlschema

import (
	"slices"
	"sort"

	"github.com/graphql-go/graphql"
)

// Order records declaration order for types and object fields.
type Order struct {
	Types  []string
	Fields map[string][]string
}

// Schema is an immutable, validated GraphQL type system with declaration order.
type Schema struct {
	schema graphql.Schema
	order  Order
}

// FromGraphQL wraps an existing schema. Types and fields absent from order
// follow the declared ones in lexicographic order.
func FromGraphQL(schema graphql.Schema, order Order) *Schema {
	fields := make(map[string][]string, len(order.Fields))
	for name, names := range order.Fields {
		fields[name] = slices.Clone(names)
	}
	return &Schema{
		schema: schema,
		order: Order{
			Types:  slices.Clone(order.Types),
			Fields: fields,
		},
	}
}

// GraphQL returns the underlying graphql-go schema.
func (s *Schema) GraphQL() *graphql.Schema {
	return &s.schema
}

// QueryType returns the query root type, or nil.
func (s *Schema) QueryType() *graphql.Object {
	return s.schema.QueryType()
}

// MutationType returns the mutation root type, or nil.
func (s *Schema) MutationType() *graphql.Object {
	return s.schema.MutationType()
}

// SubscriptionType returns the subscription root type, or nil.
func (s *Schema) SubscriptionType() *graphql.Object {
	return s.schema.SubscriptionType()
}

// Types returns every named type in the schema in declaration order.
func (s *Schema) Types() []graphql.Type {
	typeMap := s.schema.TypeMap()
	names := orderedNames(s.order.Types, keys(typeMap))
	types := make([]graphql.Type, 0, len(names))
	for _, name := range names {
		types = append(types, typeMap[name])
	}
	return types
}

// Fields returns the object's field definitions in declaration order.
func (s *Schema) Fields(obj *graphql.Object) []*graphql.FieldDefinition {
	fieldMap := obj.Fields()
	names := orderedNames(s.order.Fields[obj.Name()], keys(fieldMap))
	fields := make([]*graphql.FieldDefinition, 0, len(names))
	for _, name := range names {
		fields = append(fields, fieldMap[name])
	}
	return fields
}

// orderedNames returns declared names that exist, followed by the remaining
// present names sorted lexicographically.
func orderedNames(declared []string, present map[string]struct{}) []string {
	out := make([]string, 0, len(present))
	used := make(map[string]struct{}, len(present))
	for _, name := range declared {
		if _, ok := present[name]; !ok {
			continue
		}
		if _, dup := used[name]; dup {
			continue
		}
		used[name] = struct{}{}
		out = append(out, name)
	}
	rest := make([]string, 0, len(present)-len(used))
	for name := range present {
		if _, ok := used[name]; !ok {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

func keys[V any](m map[string]V) map[string]struct{} {
	out := make(map[string]struct{}, len(m))
	for k := range m {
		out[k] = struct{}{}
	}
	return out
}
