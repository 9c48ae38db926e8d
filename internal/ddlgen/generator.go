// Package ddlgen maps a GraphQL type system onto relational tables.
//
// Every object type other than the root operation types and introspection
// types becomes one table. Fields become columns in declaration order: the
// first ID field is an auto-increment primary key, scalars and enums are typed
// columns, and object references become foreign key columns. List fields and
// unmapped scalars abort generation.
package ddlgen

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/graphql-go/graphql"

	"graphql-ddl/internal/changelog"
	"graphql-ddl/internal/ddl"
	"graphql-ddl/internal/gqlschema"
	"graphql-ddl/internal/naming"
	"graphql-ddl/internal/schemafilter"
	"graphql-ddl/internal/sqltype"
)

const reservedPrefix = "__"

// DefaultSkip returns the introspection type names that never become tables.
func DefaultSkip() []string {
	return []string{"__Directive", "__EnumValue", "__Field", "__InputValue", "__Schema", "__Type"}
}

// Options configure a Generator. Zero values select the defaults.
type Options struct {
	Registry *sqltype.Registry
	Namer    *naming.Namer
	Skip     []string
	Filter   schemafilter.Config
	Logger   *slog.Logger
}

// Generator turns schemas into tables and changelogs. It holds no state
// between calls.
type Generator struct {
	registry sqltype.Registry
	namer    *naming.Namer
	skip     map[string]struct{}
	filter   schemafilter.Config
	logger   *slog.Logger
}

// New creates a Generator from options.
func New(opts Options) *Generator {
	registry := sqltype.DefaultRegistry()
	if opts.Registry != nil {
		registry = *opts.Registry
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	namer := opts.Namer
	if namer == nil {
		namer = naming.New(naming.DefaultConfig(), logger)
	}
	skipNames := opts.Skip
	if skipNames == nil {
		skipNames = DefaultSkip()
	}
	skip := make(map[string]struct{}, len(skipNames))
	for _, name := range skipNames {
		skip[name] = struct{}{}
	}
	return &Generator{
		registry: registry,
		namer:    namer,
		skip:     skip,
		filter:   opts.Filter,
		logger:   logger,
	}
}

// Tables maps every eligible object type to a table, in declaration order.
// The first failure aborts the walk and no tables are returned.
func (g *Generator) Tables(schema *gqlschema.Schema) ([]ddl.Table, error) {
	if schema == nil {
		return nil, fmt.Errorf("schema is required")
	}

	builder := &tableBuilder{
		schema:     schema,
		registry:   g.registry,
		namer:      g.namer,
		filter:     g.filter,
		collisions: naming.NewCollisionDetector(g.logger),
		logger:     g.logger,
	}

	roots := rootTypes(schema)
	tables := make([]ddl.Table, 0)
	for _, typ := range schema.Types() {
		obj, ok := typ.(*graphql.Object)
		if !ok {
			continue
		}
		if g.skipped(obj, roots) {
			continue
		}
		table, err := builder.buildTable(obj)
		if err != nil {
			return nil, err
		}
		if len(table.Columns) == 0 {
			g.logger.Warn("object type has no columns after filtering; skipping table",
				slog.String("type", obj.Name()),
			)
			continue
		}
		tables = append(tables, table)
	}

	g.logger.Debug("generated tables", slog.Int("count", len(tables)))
	return tables, nil
}

// ChangeSet wraps the generated tables in a single changeset.
func (g *Generator) ChangeSet(schema *gqlschema.Schema, changeID, author string) (ddl.ChangeSet, error) {
	tables, err := g.Tables(schema)
	if err != nil {
		return ddl.ChangeSet{}, err
	}
	return ddl.ChangeSet{ID: changeID, Author: author, Tables: tables}, nil
}

// Generate builds the changeset and writes its serialized form to w. Nothing
// is written unless generation and serialization succeed.
func (g *Generator) Generate(schema *gqlschema.Schema, changeID, author string, serializer changelog.Serializer, w io.Writer) error {
	cs, err := g.ChangeSet(schema, changeID, author)
	if err != nil {
		return err
	}
	return g.Write(cs, serializer, w)
}

// Write serializes an already generated changeset to w.
func (g *Generator) Write(cs ddl.ChangeSet, serializer changelog.Serializer, w io.Writer) error {
	data, err := serializer.Serialize(cs)
	if err != nil {
		return &SerializationError{Format: serializer.Format(), Err: err}
	}
	if _, err := w.Write(data); err != nil {
		return &SerializationError{Format: serializer.Format(), Err: err}
	}

	g.logger.Info("changelog written",
		slog.String("format", serializer.Format()),
		slog.String("change_id", cs.ID),
		slog.Int("tables", len(cs.Tables)),
	)
	return nil
}

func (g *Generator) skipped(obj *graphql.Object, roots []*graphql.Object) bool {
	name := obj.Name()
	if _, ok := g.skip[name]; ok {
		return true
	}
	if strings.HasPrefix(name, reservedPrefix) {
		return true
	}
	for _, root := range roots {
		if obj == root || name == root.Name() {
			return true
		}
	}
	if !schemafilter.TypeAllowed(name, g.filter) {
		g.logger.Debug("object type excluded by filter", slog.String("type", name))
		return true
	}
	return false
}

func rootTypes(schema *gqlschema.Schema) []*graphql.Object {
	var roots []*graphql.Object
	for _, root := range []*graphql.Object{schema.QueryType(), schema.MutationType(), schema.SubscriptionType()} {
		if root != nil {
			roots = append(roots, root)
		}
	}
	return roots
}
