package schema

import (
	"context"
	"sort"
	"strings"
	"sync/atomic"
)

// Schema represents the complete GraphQL schema.
//
// A Schema is assembled once (NewSchema/AddType/...), checked with Validate and
// then treated as read-only; it is safe for concurrent use by any number of
// executions after that point.
type Schema struct {
	QueryType        string
	MutationType     string
	SubscriptionType string
	Types            map[string]*Type // All named types keyed by name
	Directives       map[string]*Directive
	Description      string

	// ResolveType is consulted for abstract types that do not carry their own
	// ResolveType function.
	ResolveType ResolveTypeFunc `json:"-"`

	order []string
	// implementations indexes interface name to implementing object types.
	implementations atomic.Pointer[map[string][]*Type]
}

// GetQueryType returns the root query type (may be nil if absent)
func (s *Schema) GetQueryType() *Type { return s.Types[s.QueryType] }

// GetMutationType returns the root mutation type (may be nil if absent)
func (s *Schema) GetMutationType() *Type { return s.Types[s.MutationType] }

// GetSubscriptionType returns the root subscription type (may be nil if absent)
func (s *Schema) GetSubscriptionType() *Type { return s.Types[s.SubscriptionType] }

// TypeNames returns every type name in registration order. Types placed in
// Types directly (without AddType) follow in lexical order.
func (s *Schema) TypeNames() []string {
	names := make([]string, 0, len(s.Types))
	seen := make(map[string]struct{}, len(s.Types))
	for _, name := range s.order {
		if _, ok := s.Types[name]; !ok {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	var rest []string
	for name := range s.Types {
		if _, ok := seen[name]; !ok {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}

// PossibleTypes returns the object types an abstract type may resolve to.
// Union members keep their declared order; interface implementations follow
// registration order. The returned slice is shared and must not be modified.
func (s *Schema) PossibleTypes(abstract *Type) []*Type {
	switch abstract.Kind {
	case TypeKindUnion:
		var out []*Type
		for _, name := range abstract.PossibleTypes {
			if t := s.Types[name]; t != nil && t.Kind == TypeKindObject {
				out = append(out, t)
			}
		}
		return out
	case TypeKindInterface:
		return s.interfaceImplementations()[abstract.Name]
	}
	return nil
}

// interfaceImplementations builds the interface index on first use. AddType
// and Validate drop it; concurrent first calls may each build it.
func (s *Schema) interfaceImplementations() map[string][]*Type {
	if idx := s.implementations.Load(); idx != nil {
		return *idx
	}
	idx := map[string][]*Type{}
	for _, name := range s.TypeNames() {
		t := s.Types[name]
		if t.Kind != TypeKindObject {
			continue
		}
		for _, iface := range t.Interfaces {
			if impls := idx[iface]; len(impls) > 0 && impls[len(impls)-1] == t {
				continue
			}
			idx[iface] = append(idx[iface], t)
		}
	}
	s.implementations.Store(&idx)
	return idx
}

// IsPossibleType reports whether object is a member of abstract.
func (s *Schema) IsPossibleType(abstract *Type, object *Type) bool {
	if abstract == nil || object == nil || object.Kind != TypeKindObject {
		return false
	}
	switch abstract.Kind {
	case TypeKindUnion:
		for _, name := range abstract.PossibleTypes {
			if name == object.Name {
				return true
			}
		}
	case TypeKindInterface:
		return object.Implements(abstract.Name)
	}
	return false
}

// Type is a named GraphQL type (object, interface, union, scalar, enum, input)
type Type struct {
	Name           string
	Kind           TypeKind
	Description    string
	Fields         []*Field      // For OBJECT and INTERFACE
	Interfaces     []string      // For OBJECT and INTERFACE (implemented/extended)
	PossibleTypes  []string      // For UNION
	EnumValues     []*EnumValue  // For ENUM
	InputFields    []*InputValue // For INPUT_OBJECT
	SpecifiedByURL *string
	OneOf          bool
	Directives     []*AppliedDirective

	// Scalar coerces values of a SCALAR type. Built-in scalars get one from
	// NewSchema; a nil Scalar on a custom scalar passes values through.
	Scalar ScalarCoercer `json:"-"`
	// IsTypeOf is probed for OBJECT types reached through an abstract type.
	IsTypeOf IsTypeOfFunc `json:"-"`
	// ResolveType picks the concrete object type for INTERFACE and UNION values.
	ResolveType ResolveTypeFunc `json:"-"`
}

// ResolveTypeFunc returns the name of the concrete object type for value.
type ResolveTypeFunc func(ctx context.Context, value any) (string, error)

// IsTypeOfFunc reports whether value belongs to the object type it is attached to.
type IsTypeOfFunc func(ctx context.Context, value any) bool

// Field represents a field on an object or interface
type Field struct {
	Name              string
	Description       string
	Type              *TypeRef
	Arguments         []*InputValue
	IsDeprecated      bool
	DeprecationReason string
	Directives        []*AppliedDirective
	Metadata          map[string]any `json:",omitempty"`

	// Resolve produces the field value. Fields without a resolver read the
	// matching property of the parent value.
	Resolve Resolver `json:"-"`
	// Subscribe opens the event source of a subscription root field.
	Subscribe SubscribeFunc `json:"-"`
}

// TypeKind represents the kind of GraphQL type
type TypeKind string

const (
	TypeKindScalar      TypeKind = "SCALAR"
	TypeKindObject      TypeKind = "OBJECT"
	TypeKindInterface   TypeKind = "INTERFACE"
	TypeKindUnion       TypeKind = "UNION"
	TypeKindEnum        TypeKind = "ENUM"
	TypeKindInputObject TypeKind = "INPUT_OBJECT"
)

// IsLeaf reports whether values of the type are serialized directly.
func (t *Type) IsLeaf() bool { return t.Kind == TypeKindScalar || t.Kind == TypeKindEnum }

// IsAbstract reports whether the type is an interface or a union.
func (t *Type) IsAbstract() bool { return t.Kind == TypeKindInterface || t.Kind == TypeKindUnion }

// IsInputType reports whether the type may appear in argument and variable positions.
func (t *Type) IsInputType() bool {
	return t.Kind == TypeKindScalar || t.Kind == TypeKindEnum || t.Kind == TypeKindInputObject
}

// IsOutputType reports whether the type may be the type of a field.
func (t *Type) IsOutputType() bool { return t.Kind != TypeKindInputObject }

// Implements reports whether the type lists iface among its interfaces.
func (t *Type) Implements(iface string) bool {
	for _, name := range t.Interfaces {
		if name == iface {
			return true
		}
	}
	return false
}

// TypeRef represents a reference to a type (can be wrapped)
type TypeRef struct {
	Kind   TypeRefKind
	OfType *TypeRef // For List and NonNull
	Named  string   // For named types
}

type TypeRefKind string

const (
	TypeRefKindNamed   TypeRefKind = "NAMED"
	TypeRefKindList    TypeRefKind = "LIST"
	TypeRefKindNonNull TypeRefKind = "NON_NULL"
)

// Helper functions for TypeRef
func (t *TypeRef) IsNonNull() bool {
	return t != nil && t.Kind == TypeRefKindNonNull
}

func (t *TypeRef) IsList() bool {
	if t.Kind == TypeRefKindList {
		return true
	}
	if t.Kind == TypeRefKindNonNull && t.OfType != nil {
		return t.OfType.Kind == TypeRefKindList
	}
	return false
}

func (t *TypeRef) Unwrap() *TypeRef {
	if t.Kind == TypeRefKindNonNull || t.Kind == TypeRefKindList {
		return t.OfType
	}
	return t
}

func (t *TypeRef) GetNamedType() string {
	current := t
	for current != nil {
		if current.Named != "" {
			return current.Named
		}
		current = current.OfType
	}
	return ""
}

// String renders the reference in SDL notation, e.g. "[Int!]!".
func (t *TypeRef) String() string {
	if t == nil {
		return ""
	}
	switch t.Kind {
	case TypeRefKindNonNull:
		return t.OfType.String() + "!"
	case TypeRefKindList:
		return "[" + t.OfType.String() + "]"
	default:
		return t.Named
	}
}

// Equal reports whether both references describe the same wrapped type.
func (t *TypeRef) Equal(o *TypeRef) bool {
	if t == nil || o == nil {
		return t == o
	}
	if t.Kind != o.Kind {
		return false
	}
	if t.Kind == TypeRefKindNamed {
		return t.Named == o.Named
	}
	return t.OfType.Equal(o.OfType)
}

type EnumValue struct {
	Name        string
	Description string
	// Value is the internal value the name stands for. Nil means the name
	// itself is the internal value.
	Value             any `json:"-"`
	IsDeprecated      bool
	DeprecationReason string
}

// InputValue is an argument (of a field or a directive) or an input object field.
type InputValue struct {
	Name              string
	Description       string
	Type              *TypeRef
	DefaultValue      any
	IsDeprecated      bool
	DeprecationReason string
	Directives        []*AppliedDirective

	// Parser runs after the default coercion and may replace its result.
	Parser ParserFunc `json:"-"`
	// Validator may reject a value after coercion and Parser.
	Validator ValidatorFunc `json:"-"`

	// defaultSet distinguishes a declared null default from no default.
	defaultSet bool
}

// HasDefault reports whether a default value was declared, including an
// explicit null.
func (v *InputValue) HasDefault() bool { return v.defaultSet || v.DefaultValue != nil }

// ParserFunc converts a coerced input value into the form a resolver expects.
type ParserFunc func(value any) (any, error)

// ValidatorFunc rejects a coerced value by returning an error.
type ValidatorFunc func(value any) error

type Directive struct {
	Name         string
	Description  string
	Locations    []string
	Arguments    []*InputValue
	IsRepeatable bool
}

// Argument returns the directive argument named name, or nil.
func (d *Directive) Argument(name string) *InputValue {
	for _, a := range d.Arguments {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// AppliedDirective is a directive use with concrete argument values, attached
// to a schema element or to a field/fragment occurrence in a document.
type AppliedDirective struct {
	Name string
	Args map[string]any
}

// DirectiveNamed returns the first applied directive named name, or nil.
func DirectiveNamed(list []*AppliedDirective, name string) *AppliedDirective {
	for _, d := range list {
		if d.Name == name {
			return d
		}
	}
	return nil
}

func NonNullType(t *TypeRef) *TypeRef { return &TypeRef{Kind: TypeRefKindNonNull, OfType: t} }
func ListType(t *TypeRef) *TypeRef    { return &TypeRef{Kind: TypeRefKindList, OfType: t} }
func NamedType(name string) *TypeRef  { return &TypeRef{Kind: TypeRefKindNamed, Named: name} }

// IsNonNull reports whether the type is wrapped with Non-Null.
func IsNonNull(t *TypeRef) bool { return t != nil && t.IsNonNull() }

// IsList reports whether the type is (or is wrapped by) a list type.
func IsList(t *TypeRef) bool { return t != nil && t.IsList() }

// Unwrap removes one layer of Non-Null or List wrapping and returns the inner type.
func Unwrap(t *TypeRef) *TypeRef { return t.Unwrap() }

// GetNamedType returns the innermost named type for the given reference.
func GetNamedType(t *TypeRef) string { return t.GetNamedType() }

// ParseTypeRef parses SDL type notation such as "[String!]!".
func ParseTypeRef(s string) *TypeRef {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "!") {
		return NonNullType(ParseTypeRef(s[:len(s)-1]))
	}
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		return ListType(ParseTypeRef(s[1 : len(s)-1]))
	}
	return NamedType(s)
}
