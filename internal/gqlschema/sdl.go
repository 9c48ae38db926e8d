package gqlschema

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"
	"github.com/graphql-go/graphql/language/source"
)

// builtinScalars are the scalars every schema provides without declaring them.
var builtinScalars = map[string]*graphql.Scalar{
	"ID":      graphql.ID,
	"String":  graphql.String,
	"Int":     graphql.Int,
	"Float":   graphql.Float,
	"Boolean": graphql.Boolean,
}

// ReadFile reads SDL from a file path, or from stdin when path is "@-".
func ReadFile(path string) (string, error) {
	var data []byte
	var err error

	if path == "@-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Parse builds a schema from SDL text. Root operation types come from a
// schema block when present, otherwise from types named Query, Mutation,
// and Subscription. A query root is required because graphql-go cannot
// build a schema without one; use FromGraphQL for schemas built in code.
func Parse(sdl string) (*Schema, error) {
	return ParseNamed("schema.graphql", sdl)
}

// ParseNamed is Parse with a source name used in syntax error messages.
func ParseNamed(name, sdl string) (*Schema, error) {
	doc, err := parser.Parse(parser.ParseParams{
		Source: source.NewSource(&source.Source{Body: []byte(sdl), Name: name}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}

	b := newBuilder()
	if err := b.collect(doc); err != nil {
		return nil, err
	}
	if err := b.validateReferences(); err != nil {
		return nil, err
	}
	return b.build()
}

type builder struct {
	defs       map[string]ast.Node
	extensions map[string][]*ast.FieldDefinition
	roots      map[string]string
	types      map[string]graphql.Type
	order      Order
}

func newBuilder() *builder {
	return &builder{
		defs:       make(map[string]ast.Node),
		extensions: make(map[string][]*ast.FieldDefinition),
		roots:      make(map[string]string),
		types:      make(map[string]graphql.Type),
		order:      Order{Fields: make(map[string][]string)},
	}
}

func (b *builder) collect(doc *ast.Document) error {
	var schemaDefs int
	for _, node := range doc.Definitions {
		switch def := node.(type) {
		case *ast.SchemaDefinition:
			schemaDefs++
			if schemaDefs > 1 {
				return fmt.Errorf("schema must contain at most one schema definition")
			}
			for _, op := range def.OperationTypes {
				b.roots[op.Operation] = op.Type.Name.Value
			}
		case *ast.TypeExtensionDefinition:
			if def.Definition == nil {
				continue
			}
			name := def.Definition.Name.Value
			b.extensions[name] = append(b.extensions[name], def.Definition.Fields...)
		case *ast.ObjectDefinition:
			if err := b.declare(def.Name.Value, def); err != nil {
				return err
			}
			b.order.Fields[def.Name.Value] = fieldNames(def.Fields)
		case *ast.InterfaceDefinition:
			if err := b.declare(def.Name.Value, def); err != nil {
				return err
			}
		case *ast.UnionDefinition:
			if err := b.declare(def.Name.Value, def); err != nil {
				return err
			}
		case *ast.EnumDefinition:
			if err := b.declare(def.Name.Value, def); err != nil {
				return err
			}
		case *ast.ScalarDefinition:
			if _, ok := builtinScalars[def.Name.Value]; ok {
				continue
			}
			if err := b.declare(def.Name.Value, def); err != nil {
				return err
			}
		case *ast.InputObjectDefinition:
			if err := b.declare(def.Name.Value, def); err != nil {
				return err
			}
		case *ast.DirectiveDefinition:
			// directives do not affect the type system shape
		default:
			return fmt.Errorf("unsupported definition %q in schema document", node.GetKind())
		}
	}

	for name, fields := range b.extensions {
		if _, ok := b.defs[name].(*ast.ObjectDefinition); !ok {
			return fmt.Errorf("cannot extend type %q: object type not defined", name)
		}
		b.order.Fields[name] = append(b.order.Fields[name], fieldNames(fields)...)
	}

	if schemaDefs > 0 {
		return nil
	}
	for _, op := range []string{ast.OperationTypeQuery, ast.OperationTypeMutation, ast.OperationTypeSubscription} {
		defaultName := strings.ToUpper(op[:1]) + op[1:]
		if _, ok := b.defs[defaultName].(*ast.ObjectDefinition); ok {
			b.roots[op] = defaultName
		}
	}
	return nil
}

func (b *builder) declare(name string, node ast.Node) error {
	if _, exists := b.defs[name]; exists {
		return fmt.Errorf("type %q is defined more than once", name)
	}
	b.defs[name] = node
	b.order.Types = append(b.order.Types, name)
	return nil
}

// validateReferences checks every type reference up front so that lazily
// resolved fields cannot fail later.
func (b *builder) validateReferences() error {
	for _, name := range b.order.Types {
		switch def := b.defs[name].(type) {
		case *ast.ObjectDefinition:
			fields := append(append([]*ast.FieldDefinition{}, def.Fields...), b.extensions[name]...)
			if err := b.validateFields(name, fields); err != nil {
				return err
			}
			for _, iface := range def.Interfaces {
				if _, ok := b.defs[iface.Name.Value].(*ast.InterfaceDefinition); !ok {
					return fmt.Errorf("type %q implements unknown interface %q", name, iface.Name.Value)
				}
			}
		case *ast.InterfaceDefinition:
			if err := b.validateFields(name, def.Fields); err != nil {
				return err
			}
		case *ast.UnionDefinition:
			for _, member := range def.Types {
				if _, ok := b.defs[member.Name.Value].(*ast.ObjectDefinition); !ok {
					return fmt.Errorf("union %q member %q is not an object type", name, member.Name.Value)
				}
			}
		case *ast.InputObjectDefinition:
			for _, field := range def.Fields {
				if err := b.validateInput(name+"."+field.Name.Value, field.Type); err != nil {
					return err
				}
			}
		}
	}
	for op, name := range b.roots {
		if _, ok := b.defs[name].(*ast.ObjectDefinition); !ok {
			return fmt.Errorf("%s root type %q is not a defined object type", op, name)
		}
	}
	if _, ok := b.roots[ast.OperationTypeQuery]; !ok {
		return fmt.Errorf("schema must define a query root type")
	}
	return nil
}

func (b *builder) validateFields(owner string, fields []*ast.FieldDefinition) error {
	seen := make(map[string]bool, len(fields))
	for _, field := range fields {
		path := owner + "." + field.Name.Value
		if seen[field.Name.Value] {
			return fmt.Errorf("field %s is defined more than once", path)
		}
		seen[field.Name.Value] = true
		named := namedTypeName(field.Type)
		if !b.known(named) {
			return fmt.Errorf("field %s references unknown type %q", path, named)
		}
		if _, isInput := b.defs[named].(*ast.InputObjectDefinition); isInput {
			return fmt.Errorf("field %s cannot use input type %q as an output type", path, named)
		}
		for _, arg := range field.Arguments {
			if err := b.validateInput(path+"("+arg.Name.Value+":)", arg.Type); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *builder) validateInput(path string, t ast.Type) error {
	named := namedTypeName(t)
	if !b.known(named) {
		return fmt.Errorf("%s references unknown type %q", path, named)
	}
	switch b.defs[named].(type) {
	case *ast.ObjectDefinition, *ast.InterfaceDefinition, *ast.UnionDefinition:
		return fmt.Errorf("%s cannot use output type %q as an input type", path, named)
	}
	return nil
}

func (b *builder) known(name string) bool {
	if _, ok := builtinScalars[name]; ok {
		return true
	}
	_, ok := b.defs[name]
	return ok
}

func (b *builder) build() (*Schema, error) {
	types := make([]graphql.Type, 0, len(b.order.Types))
	for _, name := range b.order.Types {
		types = append(types, b.named(name))
	}

	cfg := graphql.SchemaConfig{
		Query: b.named(b.roots[ast.OperationTypeQuery]).(*graphql.Object),
		Types: types,
	}
	if name, ok := b.roots[ast.OperationTypeMutation]; ok {
		cfg.Mutation = b.named(name).(*graphql.Object)
	}
	if name, ok := b.roots[ast.OperationTypeSubscription]; ok {
		cfg.Subscription = b.named(name).(*graphql.Object)
	}

	schema, err := graphql.NewSchema(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build schema: %w", err)
	}
	return FromGraphQL(schema, b.order), nil
}

// named returns the graphql-go type for a declared or builtin name.
// References were validated, so every lookup succeeds.
func (b *builder) named(name string) graphql.Type {
	if scalar, ok := builtinScalars[name]; ok {
		return scalar
	}
	if t, ok := b.types[name]; ok {
		return t
	}

	var t graphql.Type
	switch def := b.defs[name].(type) {
	case *ast.ObjectDefinition:
		fields := append(append([]*ast.FieldDefinition{}, def.Fields...), b.extensions[name]...)
		ifaceNames := def.Interfaces
		t = graphql.NewObject(graphql.ObjectConfig{
			Name:        name,
			Description: description(def.Description),
			Fields:      b.fieldsThunk(fields),
			Interfaces: graphql.InterfacesThunk(func() []*graphql.Interface {
				ifaces := make([]*graphql.Interface, 0, len(ifaceNames))
				for _, iface := range ifaceNames {
					ifaces = append(ifaces, b.named(iface.Name.Value).(*graphql.Interface))
				}
				return ifaces
			}),
		})
	case *ast.InterfaceDefinition:
		t = graphql.NewInterface(graphql.InterfaceConfig{
			Name:        name,
			Description: description(def.Description),
			Fields:      b.fieldsThunk(def.Fields),
		})
	case *ast.UnionDefinition:
		members := def.Types
		t = graphql.NewUnion(graphql.UnionConfig{
			Name:        name,
			Description: description(def.Description),
			Types: graphql.UnionTypesThunk(func() []*graphql.Object {
				objects := make([]*graphql.Object, 0, len(members))
				for _, member := range members {
					objects = append(objects, b.named(member.Name.Value).(*graphql.Object))
				}
				return objects
			}),
			ResolveType: func(graphql.ResolveTypeParams) *graphql.Object { return nil },
		})
	case *ast.EnumDefinition:
		values := make(graphql.EnumValueConfigMap, len(def.Values))
		for _, value := range def.Values {
			values[value.Name.Value] = &graphql.EnumValueConfig{
				Value:       value.Name.Value,
				Description: description(value.Description),
			}
		}
		t = graphql.NewEnum(graphql.EnumConfig{
			Name:        name,
			Description: description(def.Description),
			Values:      values,
		})
	case *ast.ScalarDefinition:
		t = graphql.NewScalar(graphql.ScalarConfig{
			Name:        name,
			Description: description(def.Description),
			Serialize:   func(value interface{}) interface{} { return value },
		})
	case *ast.InputObjectDefinition:
		inputFields := def.Fields
		t = graphql.NewInputObject(graphql.InputObjectConfig{
			Name:        name,
			Description: description(def.Description),
			Fields: graphql.InputObjectConfigFieldMapThunk(func() graphql.InputObjectConfigFieldMap {
				out := make(graphql.InputObjectConfigFieldMap, len(inputFields))
				for _, field := range inputFields {
					out[field.Name.Value] = &graphql.InputObjectFieldConfig{
						Type:        b.wrap(field.Type),
						Description: description(field.Description),
					}
				}
				return out
			}),
		})
	}
	b.types[name] = t
	return t
}

func (b *builder) fieldsThunk(defs []*ast.FieldDefinition) graphql.FieldsThunk {
	return func() graphql.Fields {
		fields := make(graphql.Fields, len(defs))
		for _, def := range defs {
			var args graphql.FieldConfigArgument
			if len(def.Arguments) > 0 {
				args = make(graphql.FieldConfigArgument, len(def.Arguments))
				for _, arg := range def.Arguments {
					args[arg.Name.Value] = &graphql.ArgumentConfig{
						Type:        b.wrap(arg.Type),
						Description: description(arg.Description),
					}
				}
			}
			fields[def.Name.Value] = &graphql.Field{
				Name:        def.Name.Value,
				Type:        b.wrap(def.Type),
				Args:        args,
				Description: description(def.Description),
			}
		}
		return fields
	}
}

// wrap converts an AST type reference into wrapper chains around a named type.
func (b *builder) wrap(t ast.Type) graphql.Type {
	switch t := t.(type) {
	case *ast.NonNull:
		return graphql.NewNonNull(b.wrap(t.Type))
	case *ast.List:
		return graphql.NewList(b.wrap(t.Type))
	case *ast.Named:
		return b.named(t.Name.Value)
	}
	return nil
}

func namedTypeName(t ast.Type) string {
	for {
		switch wrapped := t.(type) {
		case *ast.NonNull:
			t = wrapped.Type
		case *ast.List:
			t = wrapped.Type
		case *ast.Named:
			return wrapped.Name.Value
		default:
			return ""
		}
	}
}

func fieldNames(fields []*ast.FieldDefinition) []string {
	names := make([]string, 0, len(fields))
	for _, field := range fields {
		names = append(names, field.Name.Value)
	}
	return names
}

func description(value *ast.StringValue) string {
	if value == nil {
		return ""
	}
	return value.Value
}
