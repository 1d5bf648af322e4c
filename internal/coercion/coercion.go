// Package coercion converts external input (runtime values and document
// literals) into the internal representation declared by a schema type.
//
// Every failure is an explicit error carrying an errcode.Code: FORMAT and
// OVERFLOW from scalars are preserved through wrapping, everything else is
// COERCION. Syntactic nulls short-circuit before any scalar is consulted; a
// null reaching a Non-Null position, or a value that coerces to null there, is
// always an error.
package coercion

import (
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/hanpama/gqlengine/internal/errcode"
	"github.com/hanpama/gqlengine/internal/language"
	"github.com/hanpama/gqlengine/internal/schema"
)

// CoerceInputValue coerces a runtime value (typically decoded from JSON
// variables) to typ.
func CoerceInputValue(sch *schema.Schema, value any, typ *schema.TypeRef) (any, error) {
	return coerceValue(sch, value, typ, nil)
}

// inputPath locates a failure inside a nested input value.
type inputPath struct {
	prev *inputPath
	key  any
}

func (p *inputPath) with(key any) *inputPath { return &inputPath{prev: p, key: key} }

func (p *inputPath) String() string {
	var segs []string
	for c := p; c != nil; c = c.prev {
		switch k := c.key.(type) {
		case int:
			segs = append(segs, "["+strconv.Itoa(k)+"]")
		case string:
			segs = append(segs, "."+k)
		}
	}
	var b strings.Builder
	b.WriteString("value")
	for i := len(segs) - 1; i >= 0; i-- {
		b.WriteString(segs[i])
	}
	return b.String()
}

// fail wraps err with the location it occurred at. Codes inside err survive.
func fail(path *inputPath, err error) error {
	if path == nil {
		return err
	}
	code := errcode.Of(err)
	if code == "" {
		code = errcode.Coercion
	}
	return errcode.Wrap(code, err, "at %s", path)
}

func failf(path *inputPath, format string, args ...any) error {
	return fail(path, errcode.Coercionf(format, args...))
}

func coerceValue(sch *schema.Schema, value any, typ *schema.TypeRef, path *inputPath) (any, error) {
	if typ.Kind == schema.TypeRefKindNonNull {
		if IsNil(value) {
			return nil, failf(path, "Expected non-nullable type %q not to be null", typ.String())
		}
		v, err := coerceValue(sch, value, typ.OfType, path)
		if err != nil {
			return nil, err
		}
		if v == nil {
			return nil, failf(path, "Expected non-nullable type %q not to be null", typ.String())
		}
		return v, nil
	}
	if IsNil(value) {
		return nil, nil
	}
	if typ.Kind == schema.TypeRefKindList {
		if !isSequence(value) {
			item, err := coerceValue(sch, value, typ.OfType, path)
			if err != nil {
				return nil, err
			}
			return []any{item}, nil
		}
		items := ToList(value)
		out := make([]any, len(items))
		for i, item := range items {
			v, err := coerceValue(sch, item, typ.OfType, path.with(i))
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}

	t := sch.Types[typ.Named]
	if t == nil {
		return nil, failf(path, "Unknown type %q", typ.Named)
	}
	switch t.Kind {
	case schema.TypeKindScalar:
		v, err := schema.ScalarOf(t).ParseValue(value)
		if err != nil {
			return nil, fail(path, err)
		}
		return v, nil
	case schema.TypeKindEnum:
		v, err := schema.ParseEnumValue(t, value)
		if err != nil {
			return nil, fail(path, err)
		}
		return v, nil
	case schema.TypeKindInputObject:
		obj, ok := value.(map[string]any)
		if !ok {
			return nil, failf(path, "Expected type %q to be an object", t.Name)
		}
		return coerceInputObject(sch, t, path, func(f *schema.InputValue, p *inputPath) (any, bool, error) {
			fv, present := obj[f.Name]
			if !present {
				return nil, false, nil
			}
			v, err := coerceValue(sch, fv, f.Type, p)
			return v, true, err
		}, unknownKeys(t, obj))
	}
	return nil, failf(path, "Type %q is not an input type", t.Name)
}

// fieldSource yields the coerced value of an input field and whether it
// was provided at all.
type fieldSource func(f *schema.InputValue, path *inputPath) (value any, present bool, err error)

func coerceInputObject(sch *schema.Schema, t *schema.Type, path *inputPath, source fieldSource, unknown []string) (any, error) {
	if len(unknown) > 0 {
		return nil, failf(path, "Field %q is not defined by type %q", unknown[0], t.Name)
	}
	out := make(map[string]any, len(t.InputFields))
	for _, f := range t.InputFields {
		fp := path.with(f.Name)
		v, present, err := source(f, fp)
		if err != nil {
			return nil, err
		}
		if !present {
			if f.HasDefault() {
				if v, err = coerceValue(sch, f.DefaultValue, f.Type, fp); err != nil {
					return nil, err
				}
			} else if f.Type.IsNonNull() {
				return nil, failf(path, "Field %q of required type %q was not provided", f.Name, f.Type.String())
			} else {
				continue
			}
		}
		v, err = ApplyHooks(f, v)
		if err != nil {
			return nil, fail(fp, err)
		}
		out[f.Name] = v
	}
	if t.OneOf {
		var set []string
		for k, v := range out {
			if v == nil {
				return nil, failf(path, "Field %q of OneOf type %q must be non-null", k, t.Name)
			}
			set = append(set, k)
		}
		if len(set) != 1 {
			return nil, failf(path, "OneOf input object %q must specify exactly one key", t.Name)
		}
	}
	return out, nil
}

func unknownKeys(t *schema.Type, obj map[string]any) []string {
	var unknown []string
	for k := range obj {
		if t.InputField(k) == nil {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	return unknown
}

// ApplyHooks runs an input value's Parser and then its Validator over an
// already coerced value.
func ApplyHooks(def *schema.InputValue, value any) (any, error) {
	if def.Parser != nil {
		v, err := def.Parser(value)
		if err != nil {
			return nil, asCoercion(err)
		}
		value = v
	}
	if def.Validator != nil {
		if err := def.Validator(value); err != nil {
			return nil, asCoercion(err)
		}
	}
	return value, nil
}

func asCoercion(err error) error {
	if errcode.Of(err) != "" {
		return err
	}
	return errcode.Wrap(errcode.Coercion, err, "")
}

// IsNil reports whether v is nil or a nil pointer, map, slice, channel,
// function or interface.
func IsNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func isSequence(v any) bool {
	switch v.(type) {
	case []any:
		return true
	case []byte, string:
		return false
	}
	k := reflect.ValueOf(v).Kind()
	return k == reflect.Slice || k == reflect.Array
}

// ToList returns the elements of a slice or array. Any other non-nil value
// is treated as a one-element list; nil yields nil.
func ToList(value any) []any {
	if value == nil {
		return nil
	}
	if items, ok := value.([]any); ok {
		return items
	}
	if !isSequence(value) {
		return []any{value}
	}
	rv := reflect.ValueOf(value)
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

// CanSerializeList reports whether a list value has a serializable shape:
// false exactly when nonNullElements is set and some element is null.
func CanSerializeList(list any, nonNullElements bool) bool {
	if !nonNullElements {
		return true
	}
	for _, item := range ToList(list) {
		if IsNil(item) {
			return false
		}
	}
	return true
}

// TypeRefFromAST converts a document type reference.
func TypeRefFromAST(t *language.Type) *schema.TypeRef {
	var ref *schema.TypeRef
	if t.Elem != nil {
		ref = schema.ListType(TypeRefFromAST(t.Elem))
	} else {
		ref = schema.NamedType(t.NamedType)
	}
	if t.NonNull {
		ref = schema.NonNullType(ref)
	}
	return ref
}

func describeLiteral(v *language.Value) string {
	if v == nil {
		return "<nil>"
	}
	return v.String()
}
