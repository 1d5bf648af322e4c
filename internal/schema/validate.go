package schema

import (
	"fmt"
	"sort"
	"strings"
)

// Violation is a single schema-initialization fault.
type Violation struct {
	Message string `json:"message"`
	// Element names the offending schema coordinate, e.g. "Dog.name".
	Element string `json:"element,omitempty"`
}

type ValidationError []*Violation

func (e ValidationError) Error() string {
	msg := "violations found:\n"
	for _, v := range e {
		line := "- " + v.Message
		if v.Element != "" {
			line += " (" + v.Element + ")"
		}
		msg += line + "\n"
	}
	return msg
}

type checker struct {
	s          *Schema
	violations ValidationError
}

func (v *checker) addf(element, format string, args ...any) {
	v.violations = append(v.violations, &Violation{Message: fmt.Sprintf(format, args...), Element: element})
}

// Validate checks the schema the way it must hold before any execution:
// every referenced type exists and is used in a legal position, Non-Null
// never wraps Non-Null, root types are objects, union members are objects,
// and every object or interface fulfils the full field contract of each
// interface it implements, transitively. It returns a ValidationError listing
// every violation, or nil.
func (s *Schema) Validate() error {
	s.implementations.Store(nil)
	v := &checker{s: s}
	v.validateRoots()
	for _, name := range s.TypeNames() {
		t := s.Types[name]
		if t.Name != name {
			v.addf(name, "Type registered as %q is named %q", name, t.Name)
		}
		if strings.HasPrefix(t.Name, "__") {
			v.addf(t.Name, "Type name %q cannot start with '__' (reserved prefix)", t.Name)
		}
		switch t.Kind {
		case TypeKindObject, TypeKindInterface:
			v.validateFields(t)
			v.validateImplementations(t)
		case TypeKindUnion:
			v.validateUnion(t)
		case TypeKindEnum:
			v.validateEnum(t)
		case TypeKindInputObject:
			v.validateInputObject(t)
		case TypeKindScalar:
		default:
			v.addf(t.Name, "Type %q has unknown kind %q", t.Name, t.Kind)
		}
	}
	v.validateInterfaceCycles()
	for _, name := range sortedKeys(s.Directives) {
		d := s.Directives[name]
		v.validateArguments("@"+d.Name, d.Arguments)
	}
	if len(v.violations) > 0 {
		return v.violations
	}
	return nil
}

func (v *checker) validateRoots() {
	if v.s.QueryType == "" {
		v.addf("schema", "Query root type must be provided")
	}
	for _, root := range []struct{ op, name string }{
		{"query", v.s.QueryType},
		{"mutation", v.s.MutationType},
		{"subscription", v.s.SubscriptionType},
	} {
		if root.name == "" {
			continue
		}
		t := v.s.Types[root.name]
		if t == nil {
			v.addf("schema", "Root %s type %q is not defined", root.op, root.name)
		} else if t.Kind != TypeKindObject {
			v.addf("schema", "Root %s type %q must be an object type", root.op, root.name)
		}
	}
}

// checkRef reports unknown types and Non-Null of Non-Null and returns the
// named type, or nil when it does not exist.
func (v *checker) checkRef(element string, ref *TypeRef) *Type {
	if ref == nil {
		v.addf(element, "Missing type")
		return nil
	}
	for cur := ref; cur != nil; cur = cur.OfType {
		if cur.Kind == TypeRefKindNonNull && cur.OfType != nil && cur.OfType.Kind == TypeRefKindNonNull {
			v.addf(element, "Non-Null cannot wrap Non-Null type %s", cur.OfType.String())
		}
		if cur.Kind != TypeRefKindNamed && cur.OfType == nil {
			v.addf(element, "Wrapped type %s does not end in a named type", ref.String())
			return nil
		}
	}
	named := v.s.Types[ref.GetNamedType()]
	if named == nil {
		v.addf(element, "Unknown type %q", ref.GetNamedType())
	}
	return named
}

func (v *checker) validateFields(t *Type) {
	if len(t.Fields) == 0 {
		v.addf(t.Name, "%s %q must define one or more fields", kindLabel(t), t.Name)
	}
	seen := map[string]bool{}
	for _, f := range t.Fields {
		element := t.Name + "." + f.Name
		if seen[f.Name] {
			v.addf(element, "Duplicate field %q found in %s %q", f.Name, kindLabel(t), t.Name)
		}
		seen[f.Name] = true
		if strings.HasPrefix(f.Name, "__") {
			v.addf(element, "Field name %q cannot start with '__' (reserved prefix)", f.Name)
		}
		if named := v.checkRef(element, f.Type); named != nil && !named.IsOutputType() {
			v.addf(element, "Field %q must have an output type but %q is an input object", element, named.Name)
		}
		v.validateArguments(element, f.Arguments)
		if f.Subscribe != nil && t.Name != v.s.SubscriptionType {
			v.addf(element, "Only subscription root fields may declare an event source")
		}
	}
}

func (v *checker) validateArguments(owner string, args []*InputValue) {
	seen := map[string]bool{}
	for _, a := range args {
		element := owner + "(" + a.Name + ":)"
		if seen[a.Name] {
			v.addf(element, "Duplicate argument %q", a.Name)
		}
		seen[a.Name] = true
		v.validateInputValue(element, a)
	}
}

func (v *checker) validateInputValue(element string, iv *InputValue) {
	named := v.checkRef(element, iv.Type)
	if named == nil {
		return
	}
	if !named.IsInputType() {
		v.addf(element, "%q must have an input type but %q is an output type", element, named.Name)
		return
	}
	if iv.IsDeprecated && iv.Type.IsNonNull() && !iv.HasDefault() {
		v.addf(element, "Required input value %q cannot be deprecated", iv.Name)
	}
	if iv.HasDefault() && !v.canParseDefault(iv.DefaultValue, iv.Type) {
		v.addf(element, "Default value %s is not valid for type %s", renderValue(iv.DefaultValue), iv.Type.String())
	}
}

// canParseDefault reports whether a default value, given in external form,
// would coerce for typ.
func (v *checker) canParseDefault(value any, typ *TypeRef) bool {
	if value == nil {
		return !typ.IsNonNull()
	}
	if typ.Kind == TypeRefKindNonNull {
		return v.canParseDefault(value, typ.OfType)
	}
	if typ.Kind == TypeRefKindList {
		items, ok := value.([]any)
		if !ok {
			return v.canParseDefault(value, typ.OfType)
		}
		for _, item := range items {
			if !v.canParseDefault(item, typ.OfType) {
				return false
			}
		}
		return true
	}
	t := v.s.Types[typ.Named]
	if t == nil {
		return false
	}
	switch t.Kind {
	case TypeKindScalar:
		return ScalarOf(t).CanParseValue(value)
	case TypeKindEnum:
		_, err := ParseEnumValue(t, value)
		return err == nil
	case TypeKindInputObject:
		obj, ok := value.(map[string]any)
		if !ok {
			return false
		}
		for k := range obj {
			if t.InputField(k) == nil {
				return false
			}
		}
		for _, f := range t.InputFields {
			fv, present := obj[f.Name]
			if !present {
				if f.Type.IsNonNull() && !f.HasDefault() {
					return false
				}
				continue
			}
			if !v.canParseDefault(fv, f.Type) {
				return false
			}
		}
		return true
	}
	return false
}

func (v *checker) validateImplementations(t *Type) {
	seen := map[string]bool{}
	for _, name := range t.Interfaces {
		if seen[name] {
			v.addf(t.Name, "%s %q lists interface %q more than once", kindLabel(t), t.Name, name)
			continue
		}
		seen[name] = true
		iface := v.s.Types[name]
		if iface == nil {
			v.addf(t.Name, "%s %q implements unknown interface %q", kindLabel(t), t.Name, name)
			continue
		}
		if iface.Kind != TypeKindInterface {
			v.addf(t.Name, "%s %q can only implement interfaces, %q is %s", kindLabel(t), t.Name, name, iface.Kind)
			continue
		}
		if iface.Name == t.Name {
			v.addf(t.Name, "Interface %q cannot implement itself", t.Name)
			continue
		}
		v.validateInterfaceImplementation(t, iface)
	}
}

func (v *checker) validateInterfaceImplementation(t, iface *Type) {
	for _, transitive := range iface.Interfaces {
		if !t.Implements(transitive) {
			v.addf(t.Name, "%s %q must also implement interface %q (required by interface %q)",
				kindLabel(t), t.Name, transitive, iface.Name)
		}
	}
	for _, ifaceField := range iface.Fields {
		field := t.Field(ifaceField.Name)
		if field == nil {
			v.addf(t.Name, "%s %q is missing field %q required by interface %q",
				kindLabel(t), t.Name, ifaceField.Name, iface.Name)
			continue
		}
		v.validateFieldImplementation(t, field, ifaceField, iface.Name)
	}
}

func (v *checker) validateFieldImplementation(t *Type, field, ifaceField *Field, ifaceName string) {
	element := t.Name + "." + field.Name
	for _, ifaceArg := range ifaceField.Arguments {
		arg := field.Argument(ifaceArg.Name)
		if arg == nil {
			v.addf(element, "Field %q is missing argument %q required by interface %q", element, ifaceArg.Name, ifaceName)
			continue
		}
		if !arg.Type.Equal(ifaceArg.Type) {
			v.addf(element, "Argument %q of field %q has type %s but interface %q expects %s",
				arg.Name, element, arg.Type.String(), ifaceName, ifaceArg.Type.String())
		}
	}
	for _, arg := range field.Arguments {
		if ifaceField.Argument(arg.Name) == nil && arg.Type.IsNonNull() && !arg.HasDefault() {
			v.addf(element, "Additional argument %q of field %q must be nullable (interface %q doesn't have this argument)",
				arg.Name, element, ifaceName)
		}
	}
	if !v.isSubType(field.Type, ifaceField.Type) {
		v.addf(element, "Field %q has type %s but interface %q expects %s (or a subtype)",
			element, field.Type.String(), ifaceName, ifaceField.Type.String())
	}
}

// isSubType reports whether a field of type sub may implement an interface
// field of type super: equal, or covariant through Non-Null, lists, union
// membership and interface implementation.
func (v *checker) isSubType(sub, super *TypeRef) bool {
	if sub == nil || super == nil {
		return false
	}
	if sub.Kind == TypeRefKindNonNull {
		if super.Kind == TypeRefKindNonNull {
			return v.isSubType(sub.OfType, super.OfType)
		}
		return v.isSubType(sub.OfType, super)
	}
	if super.Kind == TypeRefKindNonNull {
		return false
	}
	if sub.Kind == TypeRefKindList || super.Kind == TypeRefKindList {
		return sub.Kind == super.Kind && v.isSubType(sub.OfType, super.OfType)
	}
	if sub.Named == super.Named {
		return true
	}
	subType, superType := v.s.Types[sub.Named], v.s.Types[super.Named]
	if subType == nil || superType == nil {
		return false
	}
	switch superType.Kind {
	case TypeKindUnion:
		return v.s.IsPossibleType(superType, subType)
	case TypeKindInterface:
		return (subType.Kind == TypeKindObject || subType.Kind == TypeKindInterface) && subType.Implements(superType.Name)
	}
	return false
}

// validateInterfaceCycles walks the interface-implements-interface graph.
func (v *checker) validateInterfaceCycles() {
	const (
		unvisited = iota
		visiting
		done
	)
	state := map[string]int{}
	var visit func(name string, trail []string)
	visit = func(name string, trail []string) {
		switch state[name] {
		case visiting:
			v.addf(name, "Interface cycle: %s", strings.Join(append(trail, name), " -> "))
			return
		case done:
			return
		}
		state[name] = visiting
		t := v.s.Types[name]
		for _, next := range t.Interfaces {
			if nt := v.s.Types[next]; nt != nil && nt.Kind == TypeKindInterface && next != name {
				visit(next, append(trail, name))
			}
		}
		state[name] = done
	}
	for _, name := range v.s.TypeNames() {
		if t := v.s.Types[name]; t.Kind == TypeKindInterface && state[name] == unvisited {
			visit(name, nil)
		}
	}
}

func (v *checker) validateUnion(t *Type) {
	if len(t.PossibleTypes) == 0 {
		v.addf(t.Name, "Union %q must define one or more member types", t.Name)
	}
	seen := map[string]bool{}
	for _, name := range t.PossibleTypes {
		if seen[name] {
			v.addf(t.Name, "Union %q can only include type %q once", t.Name, name)
		}
		seen[name] = true
		member := v.s.Types[name]
		if member == nil {
			v.addf(t.Name, "Union %q includes unknown type %q", t.Name, name)
		} else if member.Kind != TypeKindObject {
			v.addf(t.Name, "Union %q can only include object types, %q is %s", t.Name, name, member.Kind)
		}
	}
}

func (v *checker) validateEnum(t *Type) {
	if len(t.EnumValues) == 0 {
		v.addf(t.Name, "Enum %q must define one or more values", t.Name)
	}
	seen := map[string]bool{}
	for _, ev := range t.EnumValues {
		if seen[ev.Name] {
			v.addf(t.Name+"."+ev.Name, "Duplicate enum value %q found in enum %q", ev.Name, t.Name)
		}
		seen[ev.Name] = true
		if ev.Name == "true" || ev.Name == "false" || ev.Name == "null" {
			v.addf(t.Name+"."+ev.Name, "Enum %q cannot include value %q", t.Name, ev.Name)
		}
	}
}

func (v *checker) validateInputObject(t *Type) {
	if len(t.InputFields) == 0 {
		v.addf(t.Name, "Input object %q must define one or more fields", t.Name)
	}
	seen := map[string]bool{}
	for _, f := range t.InputFields {
		element := t.Name + "." + f.Name
		if seen[f.Name] {
			v.addf(element, "Duplicate input value %q found in input %q", f.Name, t.Name)
		}
		seen[f.Name] = true
		v.validateInputValue(element, f)
		if t.OneOf && (f.Type.IsNonNull() || f.HasDefault()) {
			v.addf(element, "OneOf input field %q must be nullable and have no default value", element)
		}
	}
}

func kindLabel(t *Type) string {
	if t.Kind == TypeKindInterface {
		return "Interface"
	}
	return "Object"
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
