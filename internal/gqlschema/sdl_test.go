package gqlschema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/graphql-go/graphql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const productSDL = `
type Product {
  id: ID!
  name: String!
  description: String
  category: ProductCategory!
}

type ProductCategory {
  id: ID!
  name: String!
}

type Query {
  products: [Product!]
}
`

func TestParseProductSchema(t *testing.T) {
	schema, err := Parse(productSDL)
	require.NoError(t, err)

	require.NotNil(t, schema.QueryType())
	assert.Equal(t, "Query", schema.QueryType().Name())
	assert.Nil(t, schema.MutationType())
	assert.Nil(t, schema.SubscriptionType())

	var names []string
	for _, typ := range schema.Types() {
		names = append(names, typ.Name())
	}
	require.GreaterOrEqual(t, len(names), 3)
	assert.Equal(t, []string{"Product", "ProductCategory", "Query"}, names[:3])
	assert.Contains(t, names, "__Schema")
	assert.Contains(t, names, "String")

	product, ok := schema.GraphQL().Type("Product").(*graphql.Object)
	require.True(t, ok)
	var fields []string
	for _, field := range schema.Fields(product) {
		fields = append(fields, field.Name)
	}
	assert.Equal(t, []string{"id", "name", "description", "category"}, fields)

	category := schema.Fields(product)[3]
	nonNull, ok := category.Type.(*graphql.NonNull)
	require.True(t, ok)
	assert.Equal(t, "ProductCategory", nonNull.OfType.Name())
}

func TestParseSchemaBlockRoots(t *testing.T) {
	schema, err := Parse(`
schema {
  query: RootQuery
  mutation: RootMutation
}

type RootQuery { ping: String }
type RootMutation { pong: String }
type Query { unused: String }
`)
	require.NoError(t, err)

	assert.Equal(t, "RootQuery", schema.QueryType().Name())
	assert.Equal(t, "RootMutation", schema.MutationType().Name())
	assert.NotNil(t, schema.GraphQL().Type("Query"))
}

func TestParseDefaultRootNames(t *testing.T) {
	schema, err := Parse(`
type Query { a: String }
type Mutation { b: String }
type Subscription { c: String }
`)
	require.NoError(t, err)

	require.NotNil(t, schema.MutationType())
	require.NotNil(t, schema.SubscriptionType())
	assert.Equal(t, "Query", schema.QueryType().Name())
	assert.Equal(t, "Mutation", schema.MutationType().Name())
	assert.Equal(t, "Subscription", schema.SubscriptionType().Name())
}

func TestParseSchemaBlockDisablesDefaultRootNames(t *testing.T) {
	schema, err := Parse(`
schema { query: Query }
type Query { a: String }
type Mutation { b: String }
`)
	require.NoError(t, err)

	assert.Nil(t, schema.MutationType())
}

func TestParseForwardReferencesAndKinds(t *testing.T) {
	schema, err := Parse(`
type Query {
  node(id: ID!): Node
  search(filter: SearchFilter): [SearchResult]
}

interface Node { id: ID! }

type Book implements Node {
  id: ID!
  status: Status
  published: Date
}

type Author implements Node { id: ID! }

union SearchResult = Book | Author

enum Status { DRAFT PUBLISHED }

scalar Date

input SearchFilter {
  text: String
  status: Status
}

extend type Book {
  pages: Int
}
`)
	require.NoError(t, err)

	gql := schema.GraphQL()
	assert.IsType(t, &graphql.Interface{}, gql.Type("Node"))
	assert.IsType(t, &graphql.Union{}, gql.Type("SearchResult"))
	assert.IsType(t, &graphql.Enum{}, gql.Type("Status"))
	assert.IsType(t, &graphql.Scalar{}, gql.Type("Date"))
	assert.IsType(t, &graphql.InputObject{}, gql.Type("SearchFilter"))

	book := gql.Type("Book").(*graphql.Object)
	var fields []string
	for _, field := range schema.Fields(book) {
		fields = append(fields, field.Name)
	}
	assert.Equal(t, []string{"id", "status", "published", "pages"}, fields)
	require.Len(t, book.Interfaces(), 1)
	assert.Equal(t, "Node", book.Interfaces()[0].Name())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		sdl     string
		message string
	}{
		{
			name:    "syntax",
			sdl:     `type Query {`,
			message: "failed to parse schema",
		},
		{
			name:    "unknown field type",
			sdl:     `type Query { a: Missing }`,
			message: `field Query.a references unknown type "Missing"`,
		},
		{
			name:    "missing query root",
			sdl:     `type Product { id: ID! }`,
			message: "query root type",
		},
		{
			name:    "duplicate type",
			sdl:     "type Query { a: String }\ntype Query { b: String }",
			message: `type "Query" is defined more than once`,
		},
		{
			name:    "unknown interface",
			sdl:     `type Query implements Missing { a: String }`,
			message: `unknown interface "Missing"`,
		},
		{
			name:    "union of scalar",
			sdl:     "type Query { a: U }\nunion U = String",
			message: `member "String" is not an object type`,
		},
		{
			name:    "extend undefined",
			sdl:     "type Query { a: String }\nextend type Missing { b: String }",
			message: `cannot extend type "Missing"`,
		},
		{
			name:    "input as output",
			sdl:     "type Query { a: In }\ninput In { x: Int }",
			message: "cannot use input type",
		},
		{
			name:    "schema root not object",
			sdl:     "schema { query: Q }\nscalar Q",
			message: `query root type "Q" is not a defined object type`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.sdl)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestFieldsFallsBackToLexicographicOrder(t *testing.T) {
	obj := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"zeta":  &graphql.Field{Type: graphql.String},
			"alpha": &graphql.Field{Type: graphql.String},
			"mid":   &graphql.Field{Type: graphql.String},
		},
	})
	gql, err := graphql.NewSchema(graphql.SchemaConfig{Query: obj})
	require.NoError(t, err)

	schema := FromGraphQL(gql, Order{Fields: map[string][]string{"Query": {"mid"}}})
	var fields []string
	for _, field := range schema.Fields(obj) {
		fields = append(fields, field.Name)
	}
	assert.Equal(t, []string{"mid", "alpha", "zeta"}, fields)
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.graphql")
	require.NoError(t, os.WriteFile(path, []byte(productSDL), 0o600))

	sdl, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, productSDL, sdl)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.graphql"))
	assert.Error(t, err)
}
