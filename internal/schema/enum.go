package schema

import (
	"reflect"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	xlanguage "golang.org/x/text/language"

	"github.com/hanpama/gqlengine/internal/errcode"
	"github.com/hanpama/gqlengine/internal/language"
)

var upper = cases.Upper(xlanguage.Und)

// ConstantCase converts an identifier to the enum wire convention:
// "darkBlue", "DarkBlue" and "dark-blue" all become "DARK_BLUE".
func ConstantCase(name string) string {
	var words []string
	var cur []rune
	runes := []rune(name)
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || r == ' ' || r == '.':
			flush()
			continue
		case unicode.IsUpper(r) && len(cur) > 0:
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()
	return upper.String(strings.Join(words, "_"))
}

// NewEnumType builds an enum whose names are the ConstantCase form of the
// given identifiers and whose internal values are values[i] when provided.
func NewEnumType(name string, identifiers []string, values ...any) *Type {
	t := NewType(name, TypeKindEnum, "")
	for i, id := range identifiers {
		v := NewEnumValue(ConstantCase(id), "")
		if i < len(values) {
			v.SetValue(values[i])
		}
		t.AddEnumValue(v)
	}
	return t
}

func (e *EnumValue) internal() any {
	if e.Value != nil {
		return e.Value
	}
	return e.Name
}

// ParseEnumValue coerces a runtime input to the internal value of the enum
// member it names. Only declared names are accepted.
func ParseEnumValue(t *Type, value any) (any, error) {
	name, ok := value.(string)
	if !ok {
		return nil, errcode.Coercionf("Enum %q cannot represent non-string value: %s", t.Name, describe(value))
	}
	ev := t.EnumValue(name)
	if ev == nil {
		return nil, errcode.Coercionf("Value %q does not exist in %q enum", name, t.Name)
	}
	return ev.internal(), nil
}

// ParseEnumLiteral accepts only enum literals; a string literal naming a
// member is rejected.
func ParseEnumLiteral(t *Type, value *language.Value) (any, error) {
	if value.Kind != language.EnumValue {
		return nil, errcode.Coercionf("Enum %q cannot represent non-enum value: %s", t.Name, value.String())
	}
	return ParseEnumValue(t, value.Raw)
}

// SerializeEnum renders an internal value as its member name. The value must
// be a member's internal value or a member's name.
func SerializeEnum(t *Type, value any) (string, error) {
	for _, ev := range t.EnumValues {
		if ev.Value != nil && reflect.DeepEqual(ev.Value, value) {
			return ev.Name, nil
		}
	}
	if name, ok := value.(string); ok {
		if ev := t.EnumValue(name); ev != nil {
			return ev.Name, nil
		}
	} else if rv := reflect.ValueOf(value); rv.Kind() == reflect.String {
		if ev := t.EnumValue(rv.String()); ev != nil {
			return ev.Name, nil
		}
	}
	return "", errcode.New(errcode.Resolver, "Enum %q cannot represent value: %s", t.Name, describe(value))
}
