package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cast"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/hanpama/gqlengine/internal/errcode"
	"github.com/hanpama/gqlengine/internal/language"
)

const (
	stringDescription  = "The `String` scalar type represents textual data, represented as UTF-8 character sequences."
	intDescription     = "The `Int` scalar type represents non-fractional signed whole numeric values."
	floatDescription   = "The `Float` scalar type represents signed double-precision fractional values."
	booleanDescription = "The `Boolean` scalar type represents `true` or `false`."
	idDescription      = "The `ID` scalar type represents a unique identifier, often used to refetch an object or as a key for caching."
)

// Names of the scalars that every schema carries.
var specifiedScalars = map[string]bool{"String": true, "Int": true, "Float": true, "Boolean": true, "ID": true}

// IsSpecifiedScalar reports whether name is one of String, Int, Float, Boolean and ID.
func IsSpecifiedScalar(name string) bool { return specifiedScalars[name] }

// BuiltinScalars returns fresh String, Int, Float, Boolean and ID types.
func BuiltinScalars() []*Type {
	return []*Type{
		NewType("String", TypeKindScalar, stringDescription).SetScalar(StringScalar{}),
		NewType("Int", TypeKindScalar, intDescription).SetScalar(NewIntegerScalar[int32]("Int")),
		NewType("Float", TypeKindScalar, floatDescription).SetScalar(FloatScalar{}),
		NewType("Boolean", TypeKindScalar, booleanDescription).SetScalar(BooleanScalar{}),
		NewType("ID", TypeKindScalar, idDescription).SetScalar(IDScalar{}),
	}
}

// ExtendedScalars returns the fixed-width integer, DateTime and UUID scalars.
// They are not registered by NewSchema.
func ExtendedScalars() []*Type {
	return []*Type{
		NewType("Byte", TypeKindScalar, "Unsigned 8-bit integer.").SetScalar(NewIntegerScalar[uint8]("Byte")),
		NewType("Short", TypeKindScalar, "Signed 16-bit integer.").SetScalar(NewIntegerScalar[int16]("Short")),
		NewType("UInt", TypeKindScalar, "Unsigned 32-bit integer.").SetScalar(NewIntegerScalar[uint32]("UInt")),
		NewType("Long", TypeKindScalar, "Signed 64-bit integer.").SetScalar(NewIntegerScalar[int64]("Long")),
		NewType("ULong", TypeKindScalar, "Unsigned 64-bit integer.").SetScalar(NewIntegerScalar[uint64]("ULong")),
		NewType("DateTime", TypeKindScalar, "An RFC 3339 date-time string.").
			SetScalar(DateTimeScalar{}).
			SetSpecifiedByURL("https://scalars.graphql.org/andimarek/date-time"),
		NewType("UUID", TypeKindScalar, "A universally unique identifier in canonical text form.").
			SetScalar(UUIDScalar{}).
			SetSpecifiedByURL("https://tools.ietf.org/html/rfc4122"),
	}
}

func IncludeDirective() *Directive {
	return NewDirective("include", "Directs the executor to include this field or fragment only when the `if` argument is true.").
		AddArgument(NewInputValue("if", "Included when true.", NonNullType(NamedType("Boolean")))).
		AddLocation("FIELD", "FRAGMENT_SPREAD", "INLINE_FRAGMENT")
}

func SkipDirective() *Directive {
	return NewDirective("skip", "Directs the executor to skip this field or fragment when the `if` argument is true.").
		AddArgument(NewInputValue("if", "Skipped when true.", NonNullType(NamedType("Boolean")))).
		AddLocation("FIELD", "FRAGMENT_SPREAD", "INLINE_FRAGMENT")
}

func DeprecatedDirective() *Directive {
	return NewDirective("deprecated", "Marks an element of a GraphQL schema as no longer supported.").
		AddArgument(NewInputValue("reason", "", NamedType("String")).SetDefault("No longer supported")).
		AddLocation("FIELD_DEFINITION", "ARGUMENT_DEFINITION", "INPUT_FIELD_DEFINITION", "ENUM_VALUE")
}

func errFormat(format string, args ...any) error { return errcode.Formatf(format, args...) }

// ----- integers -----

type integer interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// IntegerScalar is a fixed-width integer scalar whose internal value is T.
//
// Input is accepted only as a Go integer, an integral json.Number or an
// integer literal. Numeric strings and floats fail with a FORMAT error;
// integers outside T's range fail with an OVERFLOW error.
type IntegerScalar[T integer] struct {
	Name string
}

func NewIntegerScalar[T integer](name string) IntegerScalar[T] { return IntegerScalar[T]{Name: name} }

func fitSigned[T integer](i int64) (T, bool) {
	t := T(i)
	return t, int64(t) == i && (t < 0) == (i < 0)
}

func fitUnsigned[T integer](u uint64) (T, bool) {
	t := T(u)
	return t, uint64(t) == u && t >= 0
}

func (s IntegerScalar[T]) overflow(v any) error {
	return errcode.Overflowf("%s cannot represent value out of range: %v", s.Name, v)
}

func (s IntegerScalar[T]) fromString(raw string) (T, error) {
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if t, ok := fitSigned[T](i); ok {
			return t, nil
		}
		return 0, s.overflow(raw)
	} else if ne, _ := err.(*strconv.NumError); ne != nil && ne.Err == strconv.ErrRange && raw[0] == '-' {
		return 0, s.overflow(raw)
	}
	u, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		if ne, _ := err.(*strconv.NumError); ne != nil && ne.Err == strconv.ErrRange {
			return 0, s.overflow(raw)
		}
		return 0, errFormat("%s cannot represent non-integer value: %s", s.Name, raw)
	}
	if t, ok := fitUnsigned[T](u); ok {
		return t, nil
	}
	return 0, s.overflow(raw)
}

// fromInteger converts Go integer kinds. ok is false when v is not an integer.
func (s IntegerScalar[T]) fromInteger(v any) (t T, ok bool, err error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if t, fits := fitSigned[T](rv.Int()); fits {
			return t, true, nil
		}
		return 0, true, s.overflow(v)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if t, fits := fitUnsigned[T](rv.Uint()); fits {
			return t, true, nil
		}
		return 0, true, s.overflow(v)
	}
	return 0, false, nil
}

func (s IntegerScalar[T]) ParseValue(value any) (any, error) {
	if n, ok := value.(json.Number); ok {
		return s.fromString(string(n))
	}
	t, ok, err := s.fromInteger(value)
	if !ok {
		return nil, errFormat("%s cannot represent non-integer value: %s", s.Name, describe(value))
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s IntegerScalar[T]) ParseLiteral(value *language.Value) (any, error) {
	if value.Kind != language.IntValue {
		return nil, errFormat("%s cannot represent non-integer value: %s", s.Name, value.String())
	}
	t, err := s.fromString(value.Raw)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s IntegerScalar[T]) Serialize(value any) (any, error) {
	switch v := value.(type) {
	case json.Number:
		return s.fromString(string(v))
	case float32:
		return s.Serialize(float64(v))
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return nil, errFormat("%s cannot represent non-integer value: %v", s.Name, v)
		}
		if v < 0 {
			if v < math.MinInt64 {
				return nil, s.overflow(v)
			}
			t, ok := fitSigned[T](int64(v))
			if !ok {
				return nil, s.overflow(v)
			}
			return t, nil
		}
		if v >= math.MaxUint64 {
			return nil, s.overflow(v)
		}
		t, ok := fitUnsigned[T](uint64(v))
		if !ok {
			return nil, s.overflow(v)
		}
		return t, nil
	}
	t, ok, err := s.fromInteger(value)
	if !ok {
		return nil, errFormat("%s cannot represent non-integer value: %s", s.Name, describe(value))
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s IntegerScalar[T]) CanParseValue(value any) bool {
	_, err := s.ParseValue(value)
	return err == nil
}

func (s IntegerScalar[T]) CanParseLiteral(value *language.Value) bool {
	_, err := s.ParseLiteral(value)
	return err == nil
}

// ----- Float -----

// FloatScalar holds float64 values. Integers widen; strings are rejected.
type FloatScalar struct{}

func toFloat(value any) (float64, bool) {
	if n, ok := value.(json.Number); ok {
		f, err := n.Float64()
		return f, err == nil
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

func (FloatScalar) ParseValue(value any) (any, error) {
	f, ok := toFloat(value)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, errFormat("Float cannot represent non numeric value: %s", describe(value))
	}
	return f, nil
}

func (FloatScalar) ParseLiteral(value *language.Value) (any, error) {
	if value.Kind != language.IntValue && value.Kind != language.FloatValue {
		return nil, errFormat("Float cannot represent non numeric value: %s", value.String())
	}
	f, err := strconv.ParseFloat(value.Raw, 64)
	if err != nil {
		return nil, errcode.Overflowf("Float cannot represent value: %s", value.Raw)
	}
	return f, nil
}

func (s FloatScalar) Serialize(value any) (any, error) { return s.ParseValue(value) }

func (s FloatScalar) CanParseValue(value any) bool {
	_, err := s.ParseValue(value)
	return err == nil
}

func (s FloatScalar) CanParseLiteral(value *language.Value) bool {
	_, err := s.ParseLiteral(value)
	return err == nil
}

// ----- String -----

type StringScalar struct{}

func (StringScalar) ParseValue(value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return nil, errFormat("String cannot represent a non string value: %s", describe(value))
	}
	return s, nil
}

func (StringScalar) ParseLiteral(value *language.Value) (any, error) {
	if value.Kind != language.StringValue && value.Kind != language.BlockValue {
		return nil, errFormat("String cannot represent a non string value: %s", value.String())
	}
	return value.Raw, nil
}

// Serialize also renders booleans, numbers and fmt.Stringer values.
func (StringScalar) Serialize(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case bool:
		return strconv.FormatBool(v), nil
	case fmt.Stringer:
		return v.String(), nil
	}
	if f, ok := toFloat(value); ok {
		return strconv.FormatFloat(f, 'f', -1, 64), nil
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.String {
		return rv.String(), nil
	}
	return nil, errFormat("String cannot represent value: %s", describe(value))
}

func (s StringScalar) CanParseValue(value any) bool {
	_, err := s.ParseValue(value)
	return err == nil
}

func (s StringScalar) CanParseLiteral(value *language.Value) bool {
	_, err := s.ParseLiteral(value)
	return err == nil
}

// ----- Boolean -----

// BooleanScalar accepts booleans and the string synonyms understood by
// cast.ToBoolE ("true", "false", "1", "0", "t", "f", ...).
type BooleanScalar struct{}

func (BooleanScalar) ParseValue(value any) (any, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		b, err := cast.ToBoolE(v)
		if err != nil {
			return nil, errFormat("Boolean cannot represent a non boolean value: %q", v)
		}
		return b, nil
	}
	return nil, errFormat("Boolean cannot represent a non boolean value: %s", describe(value))
}

func (s BooleanScalar) ParseLiteral(value *language.Value) (any, error) {
	switch value.Kind {
	case language.BooleanValue:
		return value.Raw == "true", nil
	case language.StringValue:
		return s.ParseValue(value.Raw)
	}
	return nil, errFormat("Boolean cannot represent a non boolean value: %s", value.String())
}

func (BooleanScalar) Serialize(value any) (any, error) {
	if b, ok := value.(bool); ok {
		return b, nil
	}
	b, err := cast.ToBoolE(value)
	if err != nil {
		return nil, errFormat("Boolean cannot represent a non boolean value: %s", describe(value))
	}
	return b, nil
}

func (s BooleanScalar) CanParseValue(value any) bool {
	_, err := s.ParseValue(value)
	return err == nil
}

func (s BooleanScalar) CanParseLiteral(value *language.Value) bool {
	_, err := s.ParseLiteral(value)
	return err == nil
}

// ----- ID -----

// IDScalar holds IDs as strings. Integers are accepted and rendered in base 10.
type IDScalar struct{}

func (IDScalar) ParseValue(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case json.Number:
		if _, err := v.Int64(); err != nil {
			return nil, errFormat("ID cannot represent value: %s", v)
		}
		return v.String(), nil
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	}
	return nil, errFormat("ID cannot represent value: %s", describe(value))
}

func (IDScalar) ParseLiteral(value *language.Value) (any, error) {
	if value.Kind != language.StringValue && value.Kind != language.IntValue {
		return nil, errFormat("ID cannot represent a non-string and non-integer value: %s", value.String())
	}
	return value.Raw, nil
}

func (s IDScalar) Serialize(value any) (any, error) {
	switch v := value.(type) {
	case uuid.UUID:
		return v.String(), nil
	case fmt.Stringer:
		return v.String(), nil
	}
	return s.ParseValue(value)
}

func (s IDScalar) CanParseValue(value any) bool {
	_, err := s.ParseValue(value)
	return err == nil
}

func (s IDScalar) CanParseLiteral(value *language.Value) bool {
	_, err := s.ParseLiteral(value)
	return err == nil
}

// ----- DateTime -----

// DateTimeScalar holds time.Time values and accepts RFC 3339 strings,
// time.Time and *timestamppb.Timestamp as runtime input.
type DateTimeScalar struct{}

func (DateTimeScalar) ParseValue(value any) (any, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case *time.Time:
		if v != nil {
			return *v, nil
		}
	case *timestamppb.Timestamp:
		if err := v.CheckValid(); err != nil {
			return nil, errFormat("DateTime cannot represent timestamp: %v", err)
		}
		return v.AsTime(), nil
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return nil, errFormat("DateTime cannot represent %q: %v", v, err)
		}
		return t, nil
	}
	return nil, errFormat("DateTime cannot represent value: %s", describe(value))
}

func (s DateTimeScalar) ParseLiteral(value *language.Value) (any, error) {
	if value.Kind != language.StringValue {
		return nil, errFormat("DateTime cannot represent a non string value: %s", value.String())
	}
	return s.ParseValue(value.Raw)
}

func (s DateTimeScalar) Serialize(value any) (any, error) {
	t, err := s.ParseValue(value)
	if err != nil {
		return nil, err
	}
	return t.(time.Time).Format(time.RFC3339Nano), nil
}

func (s DateTimeScalar) CanParseValue(value any) bool {
	_, err := s.ParseValue(value)
	return err == nil
}

func (s DateTimeScalar) CanParseLiteral(value *language.Value) bool {
	_, err := s.ParseLiteral(value)
	return err == nil
}

// ----- UUID -----

type UUIDScalar struct{}

func (UUIDScalar) ParseValue(value any) (any, error) {
	switch v := value.(type) {
	case uuid.UUID:
		return v, nil
	case [16]byte:
		return uuid.UUID(v), nil
	case string:
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, errFormat("UUID cannot represent %q: %v", v, err)
		}
		return id, nil
	}
	return nil, errFormat("UUID cannot represent value: %s", describe(value))
}

func (s UUIDScalar) ParseLiteral(value *language.Value) (any, error) {
	if value.Kind != language.StringValue {
		return nil, errFormat("UUID cannot represent a non string value: %s", value.String())
	}
	return s.ParseValue(value.Raw)
}

func (s UUIDScalar) Serialize(value any) (any, error) {
	id, err := s.ParseValue(value)
	if err != nil {
		return nil, err
	}
	return id.(uuid.UUID).String(), nil
}

func (s UUIDScalar) CanParseValue(value any) bool {
	_, err := s.ParseValue(value)
	return err == nil
}

func (s UUIDScalar) CanParseLiteral(value *language.Value) bool {
	_, err := s.ParseLiteral(value)
	return err == nil
}

func describe(v any) string {
	if s, ok := v.(string); ok {
		return strconv.Quote(s)
	}
	return fmt.Sprintf("%v (%T)", v, v)
}
