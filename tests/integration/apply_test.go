//go:build integration
// +build integration

package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graphql-ddl/internal/changelog"
	"graphql-ddl/internal/dbapply"
	"graphql-ddl/internal/ddl"
	"graphql-ddl/internal/ddlgen"
	"graphql-ddl/internal/gqlschema"
	"graphql-ddl/internal/introspection"
	"graphql-ddl/internal/testutil/testdb"
)

const productSDL = `
type Product {
  id: ID!
  name: String!
  description: String
  price: Float!
  inStock: Boolean!
  quantity: Int
  category: ProductCategory!
}

type ProductCategory {
  id: ID!
  name: String!
}

type Query {
  products: [Product]
}
`

func generate(t *testing.T, sdl string) ddl.ChangeSet {
	t.Helper()
	schema, err := gqlschema.Parse(sdl)
	require.NoError(t, err)
	cs, err := ddlgen.New(ddlgen.Options{}).ChangeSet(schema, "1", "ddlgen")
	require.NoError(t, err)
	return cs
}

func TestApplyAndVerify_ProductSchema(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	db := testdb.New(t)
	ctx := context.Background()

	cs := generate(t, productSDL)
	require.NoError(t, dbapply.Apply(ctx, db.DB, changelog.SQLSerializer{}.Statements(cs), nil))

	mismatches, err := introspection.Verify(ctx, db.DB, db.DatabaseName, cs.Tables)
	require.NoError(t, err)
	assert.Empty(t, mismatches)

	product, err := introspection.DescribeTable(ctx, db.DB, db.DatabaseName, "product")
	require.NoError(t, err)
	require.NotNil(t, product)
	require.Len(t, product.ForeignKeys, 1)
	assert.Equal(t, "product_category_id", product.ForeignKeys[0].ColumnName)
	assert.Equal(t, "product_category", product.ForeignKeys[0].ReferencedTable)
	assert.Equal(t, "fk_product_category_product", product.ForeignKeys[0].ConstraintName)

	id, ok := product.Column("id")
	require.True(t, ok)
	assert.True(t, id.IsPrimaryKey)
	assert.True(t, id.IsAutoIncrement)
}

func TestVerify_DetectsDrift(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	db := testdb.New(t)
	ctx := context.Background()

	cs := generate(t, productSDL)
	require.NoError(t, dbapply.Apply(ctx, db.DB, changelog.SQLSerializer{}.Statements(cs), nil))
	db.Exec(t,
		"ALTER TABLE `product` MODIFY `name` VARCHAR(255) NULL",
		"ALTER TABLE `product` DROP COLUMN `quantity`",
	)

	mismatches, err := introspection.Verify(ctx, db.DB, db.DatabaseName, cs.Tables)
	require.NoError(t, err)

	kinds := make(map[string]introspection.MismatchKind)
	for _, m := range mismatches {
		kinds[m.Column] = m.Kind
	}
	assert.Equal(t, introspection.NullabilityMismatch, kinds["name"])
	assert.Equal(t, introspection.MissingColumn, kinds["quantity"])
}

func TestApply_ExistingTableFailsAtFirstStatement(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	db := testdb.New(t)
	ctx := context.Background()

	statements := changelog.SQLSerializer{}.Statements(generate(t, productSDL))
	require.NoError(t, dbapply.Apply(ctx, db.DB, statements, nil))

	err := dbapply.Apply(ctx, db.DB, statements, nil)
	require.Error(t, err)
	var stmtErr *dbapply.StatementError
	require.ErrorAs(t, err, &stmtErr)
	assert.Equal(t, 0, stmtErr.Index)
}
