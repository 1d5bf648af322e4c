package schema

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/hanpama/gqlengine/internal/errcode"
	"github.com/hanpama/gqlengine/internal/language"
)

func allScalars() map[string]ScalarCoercer {
	out := map[string]ScalarCoercer{}
	for _, t := range append(BuiltinScalars(), ExtendedScalars()...) {
		out[t.Name] = t.Scalar
	}
	return out
}

func lit(kind language.ValueKind, raw string) *language.Value {
	return &language.Value{Kind: kind, Raw: raw}
}

var integerScalars = []string{"Int", "Byte", "Short", "UInt", "Long", "ULong"}

func TestIntegerScalarsRejectNumericStrings(t *testing.T) {
	scalars := allScalars()
	for _, name := range integerScalars {
		s := scalars[name]
		for _, in := range []any{"0", "12", "-1", "1.5"} {
			_, err := s.ParseValue(in)
			require.Error(t, err, "%s.ParseValue(%q)", name, in)
			require.Equal(t, errcode.Format, errcode.Of(err), name)
			require.False(t, s.CanParseValue(in))
		}
		_, err := s.ParseLiteral(lit(language.StringValue, "0"))
		require.Equal(t, errcode.Format, errcode.Of(err), name)
		require.False(t, s.CanParseLiteral(lit(language.StringValue, "0")))
	}
}

func TestIntegerScalarsFormatAndOverflow(t *testing.T) {
	scalars := allScalars()
	tests := []struct {
		scalar string
		in     any
		want   any
		code   errcode.Code
	}{
		{scalar: "Int", in: 7, want: int32(7)},
		{scalar: "Int", in: int64(math.MaxInt32), want: int32(math.MaxInt32)},
		{scalar: "Int", in: int64(math.MaxInt32) + 1, code: errcode.Overflow},
		{scalar: "Int", in: json.Number("-2147483648"), want: int32(math.MinInt32)},
		{scalar: "Int", in: json.Number("2147483648"), code: errcode.Overflow},
		{scalar: "Int", in: json.Number("1.5"), code: errcode.Format},
		{scalar: "Int", in: 1.0, code: errcode.Format},
		{scalar: "Int", in: true, code: errcode.Format},
		{scalar: "Byte", in: uint(255), want: uint8(255)},
		{scalar: "Byte", in: 256, code: errcode.Overflow},
		{scalar: "Byte", in: -1, code: errcode.Overflow},
		{scalar: "Short", in: int8(-3), want: int16(-3)},
		{scalar: "Short", in: 40000, code: errcode.Overflow},
		{scalar: "UInt", in: uint32(math.MaxUint32), want: uint32(math.MaxUint32)},
		{scalar: "UInt", in: -5, code: errcode.Overflow},
		{scalar: "Long", in: uint64(math.MaxInt64), want: int64(math.MaxInt64)},
		{scalar: "Long", in: uint64(math.MaxInt64) + 1, code: errcode.Overflow},
		{scalar: "Long", in: json.Number("9223372036854775808"), code: errcode.Overflow},
		{scalar: "ULong", in: json.Number("18446744073709551615"), want: uint64(math.MaxUint64)},
		{scalar: "ULong", in: json.Number("18446744073709551616"), code: errcode.Overflow},
		{scalar: "ULong", in: json.Number("-1"), code: errcode.Overflow},
	}
	for _, tt := range tests {
		s := scalars[tt.scalar]
		got, err := s.ParseValue(tt.in)
		if tt.code != "" {
			require.Error(t, err, "%s.ParseValue(%v)", tt.scalar, tt.in)
			require.Equal(t, tt.code, errcode.Of(err), "%s.ParseValue(%v): %v", tt.scalar, tt.in, err)
			require.False(t, s.CanParseValue(tt.in))
			continue
		}
		require.NoError(t, err, "%s.ParseValue(%v)", tt.scalar, tt.in)
		require.Equal(t, tt.want, got)
		require.True(t, s.CanParseValue(tt.in))
	}
}

func TestIntegerScalarLiterals(t *testing.T) {
	s := allScalars()["Int"]

	got, err := s.ParseLiteral(lit(language.IntValue, "123"))
	require.NoError(t, err)
	require.Equal(t, int32(123), got)

	fromValue, err := s.ParseValue(123)
	require.NoError(t, err)
	require.Equal(t, got, fromValue)

	_, err = s.ParseLiteral(lit(language.FloatValue, "1.0"))
	require.Equal(t, errcode.Format, errcode.Of(err))

	_, err = s.ParseLiteral(lit(language.IntValue, "2147483648"))
	require.Equal(t, errcode.Overflow, errcode.Of(err))

	_, err = s.ParseLiteral(lit(language.IntValue, "99999999999999999999"))
	require.Equal(t, errcode.Overflow, errcode.Of(err))
}

func TestIntegerScalarSerialize(t *testing.T) {
	s := allScalars()["Int"]
	got, err := s.Serialize(float64(42))
	require.NoError(t, err)
	require.Equal(t, int32(42), got)

	_, err = s.Serialize(4.5)
	require.Equal(t, errcode.Format, errcode.Of(err))
	_, err = s.Serialize(float64(1 << 40))
	require.Equal(t, errcode.Overflow, errcode.Of(err))

	type age uint16
	got, err = s.Serialize(age(30))
	require.NoError(t, err)
	require.Equal(t, int32(30), got)
}

func TestScalarRoundTrip(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 30, 0, 500, time.UTC)
	id := uuid.MustParse("7c9e6679-7425-40de-944b-e07fc1f90ae7")
	tests := []struct {
		scalar string
		value  any
	}{
		{"Int", int32(-12)},
		{"Byte", uint8(200)},
		{"Short", int16(-300)},
		{"UInt", uint32(4000000000)},
		{"Long", int64(math.MinInt64)},
		{"ULong", uint64(math.MaxUint64)},
		{"Float", 2.5},
		{"String", "héllo"},
		{"Boolean", true},
		{"ID", "abc"},
		{"DateTime", now},
		{"UUID", id},
	}
	scalars := allScalars()
	for _, tt := range tests {
		s := scalars[tt.scalar]
		out, err := s.Serialize(tt.value)
		require.NoError(t, err, tt.scalar)
		back, err := s.ParseValue(out)
		require.NoError(t, err, tt.scalar)
		if diff := cmp.Diff(tt.value, back); diff != "" {
			t.Errorf("%s round trip mismatch (-want +got):\n%s", tt.scalar, diff)
		}
	}
}

func TestFloatScalar(t *testing.T) {
	s := FloatScalar{}
	got, err := s.ParseValue(3)
	require.NoError(t, err)
	require.Equal(t, 3.0, got)

	got, err = s.ParseLiteral(lit(language.IntValue, "3"))
	require.NoError(t, err)
	require.Equal(t, 3.0, got)

	_, err = s.ParseValue("3.5")
	require.Equal(t, errcode.Format, errcode.Of(err))
	_, err = s.ParseValue(math.Inf(1))
	require.Equal(t, errcode.Format, errcode.Of(err))
	require.False(t, s.CanParseLiteral(lit(language.StringValue, "1")))
}

func TestBooleanScalarSynonyms(t *testing.T) {
	s := BooleanScalar{}
	for in, want := range map[any]bool{
		true: true, false: false, "true": true, "1": true, "false": false, "0": false,
	} {
		got, err := s.ParseValue(in)
		require.NoError(t, err, "%v", in)
		require.Equal(t, want, got, "%v", in)
		require.True(t, s.CanParseValue(in))
	}
	_, err := s.ParseValue("yes please")
	require.Equal(t, errcode.Format, errcode.Of(err))
	_, err = s.ParseValue(1)
	require.Error(t, err)

	got, err := s.ParseLiteral(lit(language.BooleanValue, "false"))
	require.NoError(t, err)
	require.Equal(t, false, got)
	got, err = s.ParseLiteral(lit(language.StringValue, "1"))
	require.NoError(t, err)
	require.Equal(t, true, got)
}

func TestStringAndIDScalars(t *testing.T) {
	_, err := StringScalar{}.ParseValue(12)
	require.Equal(t, errcode.Format, errcode.Of(err))
	out, err := StringScalar{}.Serialize(12)
	require.NoError(t, err)
	require.Equal(t, "12", out)

	id, err := IDScalar{}.ParseValue(10)
	require.NoError(t, err)
	require.Equal(t, "10", id)
	id, err = IDScalar{}.ParseLiteral(lit(language.IntValue, "10"))
	require.NoError(t, err)
	require.Equal(t, "10", id)
	_, err = IDScalar{}.ParseValue(1.5)
	require.Error(t, err)
}

func TestDateTimeScalarInputs(t *testing.T) {
	want := time.Date(2023, 7, 4, 9, 0, 0, 0, time.UTC)
	s := DateTimeScalar{}
	for _, in := range []any{want, &want, timestamppb.New(want), "2023-07-04T09:00:00Z"} {
		got, err := s.ParseValue(in)
		require.NoError(t, err, "%T", in)
		require.True(t, want.Equal(got.(time.Time)), "%T", in)
	}
	_, err := s.ParseValue("yesterday")
	require.Equal(t, errcode.Format, errcode.Of(err))
	require.False(t, s.CanParseLiteral(lit(language.IntValue, "1")))

	out, err := s.Serialize(want)
	require.NoError(t, err)
	require.Equal(t, "2023-07-04T09:00:00Z", out)
}

func TestUUIDScalar(t *testing.T) {
	s := UUIDScalar{}
	got, err := s.ParseLiteral(lit(language.StringValue, "7c9e6679-7425-40de-944b-e07fc1f90ae7"))
	require.NoError(t, err)
	require.Equal(t, uuid.MustParse("7c9e6679-7425-40de-944b-e07fc1f90ae7"), got)
	require.False(t, s.CanParseValue("not-a-uuid"))
}

// sentinelScalar maps null to "internalNull" and back.
func sentinelScalar() ScalarFuncs {
	return ScalarFuncs{
		SerializeNull: true,
		SerializeFn: func(v any) (any, error) {
			if v == nil {
				return "internalNull", nil
			}
			return v, nil
		},
		ParseValueFn: func(v any) (any, error) {
			if v == "internalNull" {
				return nil, nil
			}
			return v, nil
		},
	}
}

func TestCustomScalarNullMapping(t *testing.T) {
	s := sentinelScalar()
	require.True(t, s.HandlesNull())

	out, err := s.Serialize(nil)
	require.NoError(t, err)
	require.Equal(t, "internalNull", out)

	back, err := s.ParseValue(out)
	require.NoError(t, err)
	require.Nil(t, back)

	var plain ScalarCoercer = ScalarFuncs{}
	_, ok := plain.(NullSerializer)
	require.True(t, ok)
	require.False(t, plain.(NullSerializer).HandlesNull())

	got, err := plain.ParseLiteral(&language.Value{Kind: language.ObjectValue, Children: language.ChildValueList{
		{Name: "a", Value: lit(language.IntValue, "1")},
	}})
	require.NoError(t, err)
	require.Equal(t, map[string]any{"a": int64(1)}, got)
}

func TestEnumCoercion(t *testing.T) {
	kind := NewType("Kind", TypeKindEnum, "").
		AddEnumValue(NewEnumValue("CAT", "").SetValue(1)).
		AddEnumValue(NewEnumValue("DOG", "").SetValue(2)).
		AddEnumValue(NewEnumValue("BIRD", ""))

	got, err := ParseEnumValue(kind, "DOG")
	require.NoError(t, err)
	require.Equal(t, 2, got)
	got, err = ParseEnumValue(kind, "BIRD")
	require.NoError(t, err)
	require.Equal(t, "BIRD", got)

	_, err = ParseEnumValue(kind, "dog")
	require.Equal(t, errcode.Coercion, errcode.Of(err))
	_, err = ParseEnumValue(kind, 2)
	require.Error(t, err)

	got, err = ParseEnumLiteral(kind, lit(language.EnumValue, "CAT"))
	require.NoError(t, err)
	require.Equal(t, 1, got)
	_, err = ParseEnumLiteral(kind, lit(language.StringValue, "CAT"))
	require.Error(t, err)

	name, err := SerializeEnum(kind, 1)
	require.NoError(t, err)
	require.Equal(t, "CAT", name)
	name, err = SerializeEnum(kind, "DOG")
	require.NoError(t, err)
	require.Equal(t, "DOG", name)
	_, err = SerializeEnum(kind, "HORSE")
	require.Error(t, err)
	_, err = SerializeEnum(kind, 3)
	require.Error(t, err)
}

func TestValidateTag(t *testing.T) {
	v := ValidateTag("min=1,max=10")
	require.NoError(t, v(int32(5)))
	err := v(int32(11))
	require.Error(t, err)
	require.Equal(t, errcode.Coercion, errcode.Of(err))
}
