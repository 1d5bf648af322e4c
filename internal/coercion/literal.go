package coercion

import (
	"github.com/hanpama/gqlengine/internal/language"
	"github.com/hanpama/gqlengine/internal/schema"
)

// CoerceLiteral coerces a document literal to typ, substituting variables
// from already coerced variable values. A reference to a variable that was
// not provided yields null.
func CoerceLiteral(sch *schema.Schema, value *language.Value, typ *schema.TypeRef, variables map[string]any) (any, error) {
	v, _, err := coerceLiteral(sch, value, typ, variables, nil)
	return v, err
}

// coerceLiteral reports present=false when value is a variable reference with
// no value, so callers can fall back to defaults.
func coerceLiteral(sch *schema.Schema, value *language.Value, typ *schema.TypeRef, variables map[string]any, path *inputPath) (any, bool, error) {
	if value == nil {
		return nil, false, nil
	}
	if value.Kind == language.Variable {
		v, ok := variables[value.Raw]
		if !ok {
			if typ.IsNonNull() {
				return nil, false, failf(path, "Variable \"$%s\" of required type %q was not provided", value.Raw, typ.String())
			}
			return nil, false, nil
		}
		if IsNil(v) {
			if typ.IsNonNull() {
				return nil, true, failf(path, "Variable \"$%s\" must not be null for type %q", value.Raw, typ.String())
			}
			return nil, true, nil
		}
		return wrapForList(v, typ), true, nil
	}
	if value.Kind == language.NullValue {
		if typ.IsNonNull() {
			return nil, true, failf(path, "Expected non-nullable type %q not to be null", typ.String())
		}
		return nil, true, nil
	}

	switch typ.Kind {
	case schema.TypeRefKindNonNull:
		v, _, err := coerceLiteral(sch, value, typ.OfType, variables, path)
		if err != nil {
			return nil, true, err
		}
		if v == nil {
			return nil, true, failf(path, "Expected non-nullable type %q not to be null", typ.String())
		}
		return v, true, nil
	case schema.TypeRefKindList:
		if value.Kind != language.ListValue {
			item, _, err := coerceLiteral(sch, value, typ.OfType, variables, path)
			if err != nil {
				return nil, true, err
			}
			return []any{item}, true, nil
		}
		out := make([]any, len(value.Children))
		for i, child := range value.Children {
			item, _, err := coerceLiteral(sch, child.Value, typ.OfType, variables, path.with(i))
			if err != nil {
				return nil, true, err
			}
			out[i] = item
		}
		return out, true, nil
	}

	t := sch.Types[typ.Named]
	if t == nil {
		return nil, true, failf(path, "Unknown type %q", typ.Named)
	}
	switch t.Kind {
	case schema.TypeKindScalar:
		v, err := schema.ScalarOf(t).ParseLiteral(value)
		if err != nil {
			return nil, true, fail(path, err)
		}
		return v, true, nil
	case schema.TypeKindEnum:
		v, err := schema.ParseEnumLiteral(t, value)
		if err != nil {
			return nil, true, fail(path, err)
		}
		return v, true, nil
	case schema.TypeKindInputObject:
		if value.Kind != language.ObjectValue {
			return nil, true, failf(path, "Expected type %q to be an object, got %s", t.Name, describeLiteral(value))
		}
		var unknown []string
		for _, child := range value.Children {
			if t.InputField(child.Name) == nil {
				unknown = append(unknown, child.Name)
			}
		}
		v, err := coerceInputObject(sch, t, path, func(f *schema.InputValue, p *inputPath) (any, bool, error) {
			child := value.Children.ForName(f.Name)
			if child == nil {
				return nil, false, nil
			}
			if child.Kind == language.Variable {
				if _, ok := variables[child.Raw]; !ok {
					return nil, false, nil
				}
			}
			return coerceLiteral(sch, child, f.Type, variables, p)
		}, unknown)
		return v, true, err
	}
	return nil, true, failf(path, "Type %q is not an input type", t.Name)
}

// wrapForList applies the single-value-as-list rule to a variable value used
// in a list position.
func wrapForList(v any, typ *schema.TypeRef) any {
	if typ.Kind == schema.TypeRefKindNonNull {
		typ = typ.OfType
	}
	if typ.Kind == schema.TypeRefKindList && !isSequence(v) {
		return []any{wrapForList(v, typ.OfType)}
	}
	return v
}
