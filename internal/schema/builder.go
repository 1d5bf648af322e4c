package schema

import (
	"context"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/hanpama/gqlengine/internal/language"
)

// Modifier adjusts a freshly built schema. Modifiers run in the order they
// were given, after resolvers and scalars are bound and before validation.
type Modifier func(s *Schema) error

// BuildOption configures BuildFromSDL.
type BuildOption func(c *buildConfig)

type buildConfig struct {
	scalars      map[string]ScalarCoercer
	resolvers    map[string]Resolver
	subscribers  map[string]SubscribeFunc
	isTypeOf     map[string]IsTypeOfFunc
	resolveTypes map[string]ResolveTypeFunc
	resolveType  ResolveTypeFunc
	modifiers    []Modifier
	sourceName   string
}

// WithScalar binds a coercer to a scalar declared in the SDL.
func WithScalar(name string, c ScalarCoercer) BuildOption {
	return func(cfg *buildConfig) { cfg.scalars[name] = c }
}

// WithResolver binds a resolver to the field at coordinate "Type.field".
func WithResolver(coordinate string, r Resolver) BuildOption {
	return func(cfg *buildConfig) { cfg.resolvers[coordinate] = r }
}

// WithSubscribe binds an event source to the subscription field at
// coordinate "Subscription.field".
func WithSubscribe(coordinate string, fn SubscribeFunc) BuildOption {
	return func(cfg *buildConfig) { cfg.subscribers[coordinate] = fn }
}

// WithIsTypeOf binds an IsTypeOf predicate to an object type.
func WithIsTypeOf(typeName string, fn IsTypeOfFunc) BuildOption {
	return func(cfg *buildConfig) { cfg.isTypeOf[typeName] = fn }
}

// WithTypeResolver binds a ResolveType function to an interface or union.
func WithTypeResolver(typeName string, fn ResolveTypeFunc) BuildOption {
	return func(cfg *buildConfig) { cfg.resolveTypes[typeName] = fn }
}

// WithResolveType replaces the schema-level abstract type resolver. The
// default reads the "__typename" key of map values.
func WithResolveType(fn ResolveTypeFunc) BuildOption {
	return func(cfg *buildConfig) { cfg.resolveType = fn }
}

// WithModifier appends a modifier to the build pipeline.
func WithModifier(m Modifier) BuildOption {
	return func(cfg *buildConfig) { cfg.modifiers = append(cfg.modifiers, m) }
}

// WithSourceName names the SDL source in error messages.
func WithSourceName(name string) BuildOption {
	return func(cfg *buildConfig) { cfg.sourceName = name }
}

// TypenameFromMap resolves abstract values that are maps carrying a
// "__typename" key.
func TypenameFromMap(_ context.Context, value any) (string, error) {
	if m, ok := value.(map[string]any); ok {
		if name, ok := m["__typename"].(string); ok {
			return name, nil
		}
	}
	return "", nil
}

// BuildFromSDL parses SDL and returns the corresponding Schema. Type
// extensions are merged into their base definitions. Scalars named like the
// extended scalars (DateTime, UUID, Long, ...) get their coercers unless
// WithScalar overrides them. The result has passed Validate.
func BuildFromSDL(sdl string, opts ...BuildOption) (*Schema, error) {
	cfg := &buildConfig{
		scalars:      map[string]ScalarCoercer{},
		resolvers:    map[string]Resolver{},
		subscribers:  map[string]SubscribeFunc{},
		isTypeOf:     map[string]IsTypeOfFunc{},
		resolveTypes: map[string]ResolveTypeFunc{},
		resolveType:  TypenameFromMap,
		sourceName:   "schema.graphql",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	doc, err := language.ParseSchema(cfg.sourceName, sdl)
	if err != nil {
		return nil, errors.Wrap(err, "parse schema")
	}
	loaded, err := gqlparser.LoadSchema(&ast.Source{Name: cfg.sourceName, Input: sdl})
	if err != nil {
		return nil, errors.Wrap(err, "load schema")
	}

	s := NewSchema("")
	if loaded.Query != nil {
		s.SetQueryType(loaded.Query.Name)
	}
	if loaded.Mutation != nil {
		s.SetMutationType(loaded.Mutation.Name)
	}
	if loaded.Subscription != nil {
		s.SetSubscriptionType(loaded.Subscription.Name)
	}
	s.SetResolveType(cfg.resolveType)

	extended := map[string]*Type{}
	for _, t := range ExtendedScalars() {
		extended[t.Name] = t
	}
	for _, name := range definitionOrder(doc, loaded) {
		def := loaded.Types[name]
		if def == nil || def.BuiltIn || strings.HasPrefix(name, "__") || IsSpecifiedScalar(name) {
			continue
		}
		t := buildDefinition(def)
		if t.Kind == TypeKindScalar {
			if ext, ok := extended[name]; ok {
				t.Scalar = ext.Scalar
				if t.SpecifiedByURL == nil {
					t.SpecifiedByURL = ext.SpecifiedByURL
				}
			}
		}
		s.AddType(t)
	}
	for _, name := range sortedKeys(loaded.Directives) {
		def := loaded.Directives[name]
		if builtinDirectives[name] || (def.Position != nil && def.Position.Src != nil && def.Position.Src.BuiltIn) {
			continue
		}
		s.AddDirective(buildDirective(def))
	}

	if err := bind(s, cfg); err != nil {
		return nil, err
	}
	for _, m := range cfg.modifiers {
		if err := m(s); err != nil {
			return nil, errors.Wrap(err, "schema modifier")
		}
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// definitionOrder lists type names in source order, extensions excluded,
// followed by anything only the loaded schema knows about.
func definitionOrder(doc *language.SchemaDocument, loaded *ast.Schema) []string {
	var names []string
	seen := map[string]bool{}
	for _, def := range doc.Definitions {
		if !seen[def.Name] {
			seen[def.Name] = true
			names = append(names, def.Name)
		}
	}
	var rest []string
	for name := range loaded.Types {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}

func bind(s *Schema, cfg *buildConfig) error {
	for name, c := range cfg.scalars {
		t := s.Types[name]
		if t == nil || t.Kind != TypeKindScalar {
			return errors.Errorf("scalar %q is not declared", name)
		}
		t.Scalar = c
	}
	for coordinate, r := range cfg.resolvers {
		f, err := fieldAt(s, coordinate)
		if err != nil {
			return err
		}
		f.Resolve = r
	}
	for coordinate, fn := range cfg.subscribers {
		f, err := fieldAt(s, coordinate)
		if err != nil {
			return err
		}
		f.Subscribe = fn
	}
	for name, fn := range cfg.isTypeOf {
		t := s.Types[name]
		if t == nil || t.Kind != TypeKindObject {
			return errors.Errorf("object type %q is not declared", name)
		}
		t.IsTypeOf = fn
	}
	for name, fn := range cfg.resolveTypes {
		t := s.Types[name]
		if t == nil || !t.IsAbstract() {
			return errors.Errorf("abstract type %q is not declared", name)
		}
		t.ResolveType = fn
	}
	return nil
}

func fieldAt(s *Schema, coordinate string) (*Field, error) {
	typeName, fieldName, ok := strings.Cut(coordinate, ".")
	if !ok {
		return nil, errors.Errorf("invalid field coordinate %q", coordinate)
	}
	f := s.Field(typeName, fieldName)
	if f == nil {
		return nil, errors.Errorf("field %q is not declared", coordinate)
	}
	return f, nil
}

func buildDefinition(def *ast.Definition) *Type {
	var t *Type
	switch def.Kind {
	case ast.Object, ast.Interface:
		kind := TypeKindObject
		if def.Kind == ast.Interface {
			kind = TypeKindInterface
		}
		t = NewType(def.Name, kind, def.Description)
		for _, name := range def.Interfaces {
			t.AddInterface(name)
		}
		for _, fd := range def.Fields {
			if strings.HasPrefix(fd.Name, "__") {
				continue
			}
			t.AddField(buildField(fd))
		}
	case ast.Union:
		t = NewType(def.Name, TypeKindUnion, def.Description)
		for _, name := range def.Types {
			t.AddPossibleType(name)
		}
	case ast.Enum:
		t = NewType(def.Name, TypeKindEnum, def.Description)
		for _, ev := range def.EnumValues {
			v := NewEnumValue(ev.Name, ev.Description)
			if deprecated, reason := deprecation(ev.Directives); deprecated {
				v.Deprecate(reason)
			}
			t.AddEnumValue(v)
		}
	case ast.InputObject:
		t = NewType(def.Name, TypeKindInputObject, def.Description).
			SetOneOf(def.Directives.ForName("oneOf") != nil)
		for _, fd := range def.Fields {
			t.AddInputField(buildInputValue(fd.Name, fd.Description, fd.Type, fd.DefaultValue, fd.Directives))
		}
	default:
		t = NewType(def.Name, TypeKindScalar, def.Description)
		if d := def.Directives.ForName("specifiedBy"); d != nil {
			if url := d.Arguments.ForName("url"); url != nil && url.Value != nil {
				t.SetSpecifiedByURL(url.Value.Raw)
			}
		}
	}
	t.Directives = appliedDirectives(def.Directives)
	return t
}

func buildField(fd *ast.FieldDefinition) *Field {
	f := NewField(fd.Name, fd.Description, buildTypeRef(fd.Type))
	if deprecated, reason := deprecation(fd.Directives); deprecated {
		f.Deprecate(reason)
	}
	for _, arg := range fd.Arguments {
		f.AddArgument(buildInputValue(arg.Name, arg.Description, arg.Type, arg.DefaultValue, arg.Directives))
	}
	f.Directives = appliedDirectives(fd.Directives)
	return f
}

func buildInputValue(name, description string, typ *ast.Type, def *ast.Value, directives ast.DirectiveList) *InputValue {
	in := NewInputValue(name, description, buildTypeRef(typ))
	if def != nil {
		if v, err := LiteralToAny(def); err == nil {
			in.SetDefault(v)
		}
	}
	if deprecated, reason := deprecation(directives); deprecated {
		in.Deprecate(reason)
	}
	in.Directives = appliedDirectives(directives)
	return in
}

func buildTypeRef(t *ast.Type) *TypeRef {
	var ref *TypeRef
	if t.Elem != nil {
		ref = ListType(buildTypeRef(t.Elem))
	} else {
		ref = NamedType(t.NamedType)
	}
	if t.NonNull {
		ref = NonNullType(ref)
	}
	return ref
}

func buildDirective(def *ast.DirectiveDefinition) *Directive {
	d := NewDirective(def.Name, def.Description).SetRepeatable(def.IsRepeatable)
	for _, loc := range def.Locations {
		d.AddLocation(string(loc))
	}
	for _, arg := range def.Arguments {
		d.AddArgument(buildInputValue(arg.Name, arg.Description, arg.Type, arg.DefaultValue, arg.Directives))
	}
	return d
}

func deprecation(list ast.DirectiveList) (bool, string) {
	d := list.ForName("deprecated")
	if d == nil {
		return false, ""
	}
	if reason := d.Arguments.ForName("reason"); reason != nil && reason.Value != nil {
		return true, reason.Value.Raw
	}
	return true, "No longer supported"
}

func appliedDirectives(list ast.DirectiveList) []*AppliedDirective {
	var out []*AppliedDirective
	for _, d := range list {
		if builtinDirectives[d.Name] {
			continue
		}
		applied := &AppliedDirective{Name: d.Name, Args: map[string]any{}}
		for _, arg := range d.Arguments {
			if v, err := LiteralToAny(arg.Value); err == nil {
				applied.Args[arg.Name] = v
			}
		}
		out = append(out, applied)
	}
	return out
}
