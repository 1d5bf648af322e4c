package schema

import (
	"github.com/hanpama/gqlengine/internal/language"
)

// ScalarCoercer converts scalar values between their external and internal
// representations.
//
// ParseValue and ParseLiteral must agree on equivalent inputs: the literal 123
// and the runtime value 123 coerce to the same internal value. CanParseValue
// and CanParseLiteral must report true exactly when the corresponding parse
// call succeeds. Syntactic nulls never reach a ScalarCoercer on input.
type ScalarCoercer interface {
	ParseValue(value any) (any, error)
	ParseLiteral(value *language.Value) (any, error)
	Serialize(value any) (any, error)
	CanParseValue(value any) bool
	CanParseLiteral(value *language.Value) bool
}

// NullSerializer is implemented by scalars that give null results a non-null
// external form. When HandlesNull reports true, a null result in a nullable
// position is passed to Serialize instead of being emitted as null.
type NullSerializer interface {
	HandlesNull() bool
}

// ScalarFuncs adapts plain functions to ScalarCoercer. Missing functions pass
// values through unchanged; the Can* predicates fall back to attempting the
// parse.
type ScalarFuncs struct {
	ParseValueFn   func(value any) (any, error)
	ParseLiteralFn func(value *language.Value) (any, error)
	SerializeFn    func(value any) (any, error)
	// SerializeNull opts the scalar into NullSerializer.
	SerializeNull bool
}

var _ ScalarCoercer = ScalarFuncs{}

func (s ScalarFuncs) ParseValue(value any) (any, error) {
	if s.ParseValueFn == nil {
		return value, nil
	}
	return s.ParseValueFn(value)
}

func (s ScalarFuncs) ParseLiteral(value *language.Value) (any, error) {
	if s.ParseLiteralFn == nil {
		return LiteralToAny(value)
	}
	return s.ParseLiteralFn(value)
}

func (s ScalarFuncs) Serialize(value any) (any, error) {
	if s.SerializeFn == nil {
		return value, nil
	}
	return s.SerializeFn(value)
}

func (s ScalarFuncs) CanParseValue(value any) bool {
	_, err := s.ParseValue(value)
	return err == nil
}

func (s ScalarFuncs) CanParseLiteral(value *language.Value) bool {
	_, err := s.ParseLiteral(value)
	return err == nil
}

func (s ScalarFuncs) HandlesNull() bool { return s.SerializeNull }

// ScalarOf returns the coercer of a scalar type, falling back to a
// pass-through coercer for custom scalars declared without one.
func ScalarOf(t *Type) ScalarCoercer {
	if t.Scalar != nil {
		return t.Scalar
	}
	return ScalarFuncs{}
}

// LiteralToAny converts a constant literal to plain Go values: objects become
// map[string]any, lists []any, enums their name. Variables are rejected.
func LiteralToAny(v *language.Value) (any, error) {
	if v == nil {
		return nil, nil
	}
	if v.Kind == language.Variable {
		return nil, errFormat("unexpected variable $%s in constant value", v.Raw)
	}
	return v.Value(nil)
}
