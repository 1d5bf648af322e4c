package schema

import (
	"fmt"
	"strconv"
	"strings"
)

var builtinDirectives = map[string]bool{
	"include": true, "skip": true, "deprecated": true, "specifiedBy": true, "oneOf": true, "defer": true,
}

// Render produces SDL from the Schema. Types follow registration order;
// specified scalars, built-in directives and introspection members are
// omitted.
func Render(s *Schema) string {
	if s == nil {
		return ""
	}
	r := &renderer{s: s}
	b := &r.b

	if s.QueryType != "Query" && s.QueryType != "" ||
		s.MutationType != "" && s.MutationType != "Mutation" ||
		s.SubscriptionType != "" && s.SubscriptionType != "Subscription" {
		r.renderDescription(s.Description)
		b.WriteString("schema {\n")
		for _, root := range [][2]string{{"query", s.QueryType}, {"mutation", s.MutationType}, {"subscription", s.SubscriptionType}} {
			if root[1] != "" {
				b.WriteString("  " + root[0] + ": " + root[1] + "\n")
			}
		}
		b.WriteString("}\n\n")
	}

	for _, name := range s.TypeNames() {
		typ := s.Types[name]
		if typ.Kind == TypeKindScalar && IsSpecifiedScalar(name) || strings.HasPrefix(name, "__") {
			continue
		}
		switch typ.Kind {
		case TypeKindScalar:
			r.renderScalar(typ)
		case TypeKindEnum:
			r.renderEnum(typ)
		case TypeKindInputObject:
			r.renderInputObject(typ)
		case TypeKindObject:
			r.renderObject(typ)
		case TypeKindInterface:
			r.renderInterface(typ)
		case TypeKindUnion:
			r.renderUnion(typ)
		}
	}

	for _, name := range sortedKeys(s.Directives) {
		if builtinDirectives[name] {
			continue
		}
		r.renderDirective(s.Directives[name])
	}

	out := strings.TrimRight(b.String(), "\n") + "\n"
	return out
}

type renderer struct {
	s *Schema
	b strings.Builder
}

// ----- render helpers -----

func (r *renderer) renderDescription(desc string) {
	if desc == "" {
		return
	}
	r.b.WriteString("\"\"\"\n")
	// Escape quotes in description
	escaped := strings.ReplaceAll(desc, "\"", "\\\"")
	r.b.WriteString(escaped)
	r.b.WriteString("\n\"\"\"\n")
}

func (r *renderer) renderDeprecation(deprecated bool, reason string) {
	if !deprecated {
		return
	}
	r.b.WriteString(" @deprecated")
	if reason != "" {
		r.b.WriteString("(reason: ")
		r.b.WriteString(strconv.Quote(reason))
		r.b.WriteString(")")
	}
}

func (r *renderer) renderApplied(list []*AppliedDirective) {
	for _, d := range list {
		if d.Name == "deprecated" || d.Name == "specifiedBy" || d.Name == "oneOf" {
			continue
		}
		r.b.WriteString(" @")
		r.b.WriteString(d.Name)
		if len(d.Args) == 0 {
			continue
		}
		def := r.s.Directives[d.Name]
		var parts []string
		for _, name := range sortedKeys(d.Args) {
			var typ *TypeRef
			if def != nil {
				if arg := def.Argument(name); arg != nil {
					typ = arg.Type
				}
			}
			parts = append(parts, name+": "+r.renderDefault(d.Args[name], typ))
		}
		r.b.WriteString("(" + strings.Join(parts, ", ") + ")")
	}
}

func (r *renderer) renderScalar(typ *Type) {
	r.renderDescription(typ.Description)
	r.b.WriteString("scalar ")
	r.b.WriteString(typ.Name)
	if typ.SpecifiedByURL != nil {
		r.b.WriteString(" @specifiedBy(url: ")
		r.b.WriteString(strconv.Quote(*typ.SpecifiedByURL))
		r.b.WriteString(")")
	}
	r.renderApplied(typ.Directives)
	r.b.WriteString("\n\n")
}

func (r *renderer) renderEnum(typ *Type) {
	r.renderDescription(typ.Description)
	r.b.WriteString("enum ")
	r.b.WriteString(typ.Name)
	r.renderApplied(typ.Directives)
	r.b.WriteString(" {\n")
	for _, val := range typ.EnumValues {
		r.renderDescription(val.Description)
		r.b.WriteString("  ")
		r.b.WriteString(val.Name)
		r.renderDeprecation(val.IsDeprecated, val.DeprecationReason)
		r.b.WriteString("\n")
	}
	r.b.WriteString("}\n\n")
}

func (r *renderer) renderInputObject(typ *Type) {
	r.renderDescription(typ.Description)
	r.b.WriteString("input ")
	r.b.WriteString(typ.Name)
	if typ.OneOf {
		r.b.WriteString(" @oneOf")
	}
	r.renderApplied(typ.Directives)
	r.b.WriteString(" {\n")
	for _, field := range typ.InputFields {
		r.renderDescription(field.Description)
		r.b.WriteString("  ")
		r.renderInputValue(field)
		r.b.WriteString("\n")
	}
	r.b.WriteString("}\n\n")
}

func (r *renderer) renderInputValue(v *InputValue) {
	r.b.WriteString(v.Name)
	r.b.WriteString(": ")
	r.b.WriteString(v.Type.String())
	if v.HasDefault() {
		r.b.WriteString(" = ")
		r.b.WriteString(r.renderDefault(v.DefaultValue, v.Type))
	}
	r.renderDeprecation(v.IsDeprecated, v.DeprecationReason)
	r.renderApplied(v.Directives)
}

func (r *renderer) renderImplements(typ *Type) {
	if len(typ.Interfaces) > 0 {
		r.b.WriteString(" implements ")
		r.b.WriteString(strings.Join(typ.Interfaces, " & "))
	}
}

func (r *renderer) renderObject(typ *Type) {
	r.renderDescription(typ.Description)
	r.b.WriteString("type ")
	r.b.WriteString(typ.Name)
	r.renderImplements(typ)
	r.renderApplied(typ.Directives)
	r.b.WriteString(" {\n")
	for _, field := range typ.Fields {
		r.renderField(field)
	}
	r.b.WriteString("}\n\n")
}

func (r *renderer) renderInterface(typ *Type) {
	r.renderDescription(typ.Description)
	r.b.WriteString("interface ")
	r.b.WriteString(typ.Name)
	r.renderImplements(typ)
	r.renderApplied(typ.Directives)
	r.b.WriteString(" {\n")
	for _, field := range typ.Fields {
		r.renderField(field)
	}
	r.b.WriteString("}\n\n")
}

func (r *renderer) renderUnion(typ *Type) {
	r.renderDescription(typ.Description)
	r.b.WriteString("union ")
	r.b.WriteString(typ.Name)
	r.renderApplied(typ.Directives)
	r.b.WriteString(" = ")
	r.b.WriteString(strings.Join(typ.PossibleTypes, " | "))
	r.b.WriteString("\n\n")
}

func (r *renderer) renderField(field *Field) {
	if strings.HasPrefix(field.Name, "__") {
		return
	}
	r.renderDescription(field.Description)
	r.b.WriteString("  ")
	r.b.WriteString(field.Name)
	if len(field.Arguments) > 0 {
		r.b.WriteString("(")
		for i, arg := range field.Arguments {
			if i > 0 {
				r.b.WriteString(", ")
			}
			r.renderInputValue(arg)
		}
		r.b.WriteString(")")
	}
	r.b.WriteString(": ")
	r.b.WriteString(field.Type.String())
	r.renderDeprecation(field.IsDeprecated, field.DeprecationReason)
	r.renderApplied(field.Directives)
	r.b.WriteString("\n")
}

func (r *renderer) renderDirective(directive *Directive) {
	r.renderDescription(directive.Description)
	r.b.WriteString("directive @")
	r.b.WriteString(directive.Name)
	if len(directive.Arguments) > 0 {
		r.b.WriteString("(")
		for i, arg := range directive.Arguments {
			if i > 0 {
				r.b.WriteString(", ")
			}
			r.renderInputValue(arg)
		}
		r.b.WriteString(")")
	}
	if directive.IsRepeatable {
		r.b.WriteString(" repeatable")
	}
	r.b.WriteString(" on ")
	r.b.WriteString(strings.Join(directive.Locations, " | "))
	r.b.WriteString("\n\n")
}

// ValueLiteral renders an input value as a GraphQL literal of typ, as used
// for default values in SDL and introspection.
func (s *Schema) ValueLiteral(value any, typ *TypeRef) string {
	return (&renderer{s: s}).renderDefault(value, typ)
}

// renderDefault renders an external value as a literal of typ. Enum names
// are written unquoted; typ may be nil when unknown.
func (r *renderer) renderDefault(value any, typ *TypeRef) string {
	if value == nil {
		return "null"
	}
	var named *Type
	if typ != nil {
		if typ.Kind == TypeRefKindNonNull {
			return r.renderDefault(value, typ.OfType)
		}
		if typ.Kind == TypeRefKindList {
			items, ok := value.([]any)
			if !ok {
				return r.renderDefault(value, typ.OfType)
			}
			parts := make([]string, len(items))
			for i, item := range items {
				parts[i] = r.renderDefault(item, typ.OfType)
			}
			return "[" + strings.Join(parts, ", ") + "]"
		}
		named = r.s.Types[typ.Named]
	}
	if named != nil && named.Kind == TypeKindEnum {
		if name, err := SerializeEnum(named, value); err == nil {
			return name
		}
	}
	if obj, ok := value.(map[string]any); ok {
		parts := make([]string, 0, len(obj))
		for _, k := range sortedKeys(obj) {
			var fieldType *TypeRef
			if named != nil && named.Kind == TypeKindInputObject {
				if f := named.InputField(k); f != nil {
					fieldType = f.Type
				}
			}
			parts = append(parts, k+": "+r.renderDefault(obj[k], fieldType))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	if items, ok := value.([]any); ok {
		parts := make([]string, len(items))
		for i, item := range items {
			parts[i] = r.renderDefault(item, nil)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return renderValue(value)
}

// renderValue renders a plain Go value as a GraphQL literal.
func renderValue(value any) string {
	if value == nil {
		return "null"
	}

	switch v := value.(type) {
	case string:
		return strconv.Quote(v)
	case int:
		return strconv.Itoa(v)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case []any:
		var parts []string
		for _, item := range v {
			parts = append(parts, renderValue(item))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]any:
		var parts []string
		for _, k := range sortedKeys(v) {
			parts = append(parts, k+": "+renderValue(v[k]))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return fmt.Sprint(v)
	}
}
