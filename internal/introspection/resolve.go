package introspection

import (
	"sort"

	"github.com/hanpama/gqlengine/internal/schema"
)

// resolvers answers introspection fields from the schema they were built
// for. A __Type value is a *schema.Type for named types and a
// *schema.TypeRef for LIST and NON_NULL wrappers.
type resolvers struct {
	schema *schema.Schema
}

func (r *resolvers) schemaRoot(schema.ResolveParams) (any, error) { return r.schema, nil }

func (r *resolvers) typeRoot(p schema.ResolveParams) (any, error) {
	name, _ := p.Args["name"].(string)
	if t := r.schema.Types[name]; t != nil {
		return t, nil
	}
	return nil, nil
}

// typeFor converts a field or argument type into a __Type value.
func (r *resolvers) typeFor(ref *schema.TypeRef) any {
	if ref == nil {
		return nil
	}
	if ref.Kind != schema.TypeRefKindNamed {
		return ref
	}
	if t := r.schema.Types[ref.Named]; t != nil {
		return t
	}
	return nil
}

func optional(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func includeDeprecated(p schema.ResolveParams) bool {
	v, _ := p.Args["includeDeprecated"].(bool)
	return v
}

// ----- __Schema -----

func (r *resolvers) schemaDescription(p schema.ResolveParams) (any, error) {
	return optional(p.Source.(*schema.Schema).Description), nil
}

func (r *resolvers) schemaTypes(p schema.ResolveParams) (any, error) {
	s := p.Source.(*schema.Schema)
	names := s.TypeNames()
	out := make([]*schema.Type, 0, len(names))
	for _, name := range names {
		out = append(out, s.Types[name])
	}
	return out, nil
}

func (r *resolvers) rootType(name func(*schema.Schema) string) schema.Resolver {
	return func(p schema.ResolveParams) (any, error) {
		s := p.Source.(*schema.Schema)
		if t := s.Types[name(s)]; t != nil {
			return t, nil
		}
		return nil, nil
	}
}

func (r *resolvers) schemaDirectives(p schema.ResolveParams) (any, error) {
	s := p.Source.(*schema.Schema)
	out := make([]*schema.Directive, 0, len(s.Directives))
	for _, name := range sortedDirectiveNames(s) {
		out = append(out, s.Directives[name])
	}
	return out, nil
}

func sortedDirectiveNames(s *schema.Schema) []string {
	names := make([]string, 0, len(s.Directives))
	for name := range s.Directives {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ----- __Type -----

func (r *resolvers) typeKind(p schema.ResolveParams) (any, error) {
	switch t := p.Source.(type) {
	case *schema.Type:
		return string(t.Kind), nil
	case *schema.TypeRef:
		return string(t.Kind), nil
	}
	return nil, nil
}

func named(p schema.ResolveParams) *schema.Type {
	t, _ := p.Source.(*schema.Type)
	return t
}

func (r *resolvers) typeName(p schema.ResolveParams) (any, error) {
	if t := named(p); t != nil {
		return t.Name, nil
	}
	return nil, nil
}

func (r *resolvers) typeDescription(p schema.ResolveParams) (any, error) {
	if t := named(p); t != nil {
		return optional(t.Description), nil
	}
	return nil, nil
}

func (r *resolvers) typeSpecifiedByURL(p schema.ResolveParams) (any, error) {
	if t := named(p); t != nil && t.Kind == schema.TypeKindScalar && t.SpecifiedByURL != nil {
		return *t.SpecifiedByURL, nil
	}
	return nil, nil
}

func (r *resolvers) typeFields(p schema.ResolveParams) (any, error) {
	t := named(p)
	if t == nil || (t.Kind != schema.TypeKindObject && t.Kind != schema.TypeKindInterface) {
		return nil, nil
	}
	out := []*schema.Field{}
	for _, f := range t.Fields {
		if IsIntrospectionField(f.Name) || (f.IsDeprecated && !includeDeprecated(p)) {
			continue
		}
		out = append(out, f)
	}
	return out, nil
}

func (r *resolvers) typeInterfaces(p schema.ResolveParams) (any, error) {
	t := named(p)
	if t == nil || (t.Kind != schema.TypeKindObject && t.Kind != schema.TypeKindInterface) {
		return nil, nil
	}
	out := []*schema.Type{}
	for _, name := range t.Interfaces {
		if iface := r.schema.Types[name]; iface != nil {
			out = append(out, iface)
		}
	}
	return out, nil
}

func (r *resolvers) typePossibleTypes(p schema.ResolveParams) (any, error) {
	t := named(p)
	if t == nil || !t.IsAbstract() {
		return nil, nil
	}
	return r.schema.PossibleTypes(t), nil
}

func (r *resolvers) typeEnumValues(p schema.ResolveParams) (any, error) {
	t := named(p)
	if t == nil || t.Kind != schema.TypeKindEnum {
		return nil, nil
	}
	out := []*schema.EnumValue{}
	for _, v := range t.EnumValues {
		if v.IsDeprecated && !includeDeprecated(p) {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func (r *resolvers) typeInputFields(p schema.ResolveParams) (any, error) {
	t := named(p)
	if t == nil || t.Kind != schema.TypeKindInputObject {
		return nil, nil
	}
	return filterInputValues(t.InputFields, includeDeprecated(p)), nil
}

func (r *resolvers) typeOfType(p schema.ResolveParams) (any, error) {
	if ref, ok := p.Source.(*schema.TypeRef); ok {
		return r.typeFor(ref.OfType), nil
	}
	return nil, nil
}

func (r *resolvers) typeIsOneOf(p schema.ResolveParams) (any, error) {
	if t := named(p); t != nil && t.Kind == schema.TypeKindInputObject {
		return t.OneOf, nil
	}
	return nil, nil
}

func filterInputValues(values []*schema.InputValue, withDeprecated bool) []*schema.InputValue {
	out := []*schema.InputValue{}
	for _, v := range values {
		if v.IsDeprecated && !withDeprecated {
			continue
		}
		out = append(out, v)
	}
	return out
}

// ----- __Field, __InputValue, __EnumValue -----

func (r *resolvers) fieldName(p schema.ResolveParams) (any, error) {
	return p.Source.(*schema.Field).Name, nil
}

func (r *resolvers) fieldDescription(p schema.ResolveParams) (any, error) {
	return optional(p.Source.(*schema.Field).Description), nil
}

func (r *resolvers) fieldArgs(p schema.ResolveParams) (any, error) {
	return filterInputValues(p.Source.(*schema.Field).Arguments, includeDeprecated(p)), nil
}

func (r *resolvers) fieldTypeRef(p schema.ResolveParams) (any, error) {
	return r.typeFor(p.Source.(*schema.Field).Type), nil
}

func (r *resolvers) inputValueName(p schema.ResolveParams) (any, error) {
	return p.Source.(*schema.InputValue).Name, nil
}

func (r *resolvers) inputValueDescription(p schema.ResolveParams) (any, error) {
	return optional(p.Source.(*schema.InputValue).Description), nil
}

func (r *resolvers) inputValueTypeRef(p schema.ResolveParams) (any, error) {
	return r.typeFor(p.Source.(*schema.InputValue).Type), nil
}

func (r *resolvers) inputValueDefault(p schema.ResolveParams) (any, error) {
	v := p.Source.(*schema.InputValue)
	if !v.HasDefault() {
		return nil, nil
	}
	return r.schema.ValueLiteral(v.DefaultValue, v.Type), nil
}

func (r *resolvers) enumValueName(p schema.ResolveParams) (any, error) {
	return p.Source.(*schema.EnumValue).Name, nil
}

func (r *resolvers) enumValueDescription(p schema.ResolveParams) (any, error) {
	return optional(p.Source.(*schema.EnumValue).Description), nil
}

func deprecation(source any) (bool, string) {
	switch v := source.(type) {
	case *schema.Field:
		return v.IsDeprecated, v.DeprecationReason
	case *schema.InputValue:
		return v.IsDeprecated, v.DeprecationReason
	case *schema.EnumValue:
		return v.IsDeprecated, v.DeprecationReason
	}
	return false, ""
}

func (r *resolvers) isDeprecated(p schema.ResolveParams) (any, error) {
	deprecated, _ := deprecation(p.Source)
	return deprecated, nil
}

func (r *resolvers) deprecationReason(p schema.ResolveParams) (any, error) {
	if deprecated, reason := deprecation(p.Source); deprecated {
		return reason, nil
	}
	return nil, nil
}

// ----- __Directive -----

func (r *resolvers) directiveName(p schema.ResolveParams) (any, error) {
	return p.Source.(*schema.Directive).Name, nil
}

func (r *resolvers) directiveDescription(p schema.ResolveParams) (any, error) {
	return optional(p.Source.(*schema.Directive).Description), nil
}

func (r *resolvers) directiveIsRepeatable(p schema.ResolveParams) (any, error) {
	return p.Source.(*schema.Directive).IsRepeatable, nil
}

func (r *resolvers) directiveLocations(p schema.ResolveParams) (any, error) {
	return p.Source.(*schema.Directive).Locations, nil
}

func (r *resolvers) directiveArgs(p schema.ResolveParams) (any, error) {
	return filterInputValues(p.Source.(*schema.Directive).Arguments, includeDeprecated(p)), nil
}
