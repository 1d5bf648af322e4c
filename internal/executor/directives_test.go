package executor

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/spf13/cast"
	"github.com/stretchr/testify/require"

	"github.com/hanpama/gqlengine/internal/errcode"
	"github.com/hanpama/gqlengine/internal/schema"
)

const directiveSDL = `
directive @upper on FIELD
directive @limit(n: Int!) on FIELD

type Query {
  a: String
  b: String
  words: [String]
  nested: Nested
}

type Nested {
  c: String
}
`

func directiveExecutor(t *testing.T, rec *recorder) *Executor {
	t.Helper()
	sch := mustBuild(t, directiveSDL, schema.WithModifier(func(s *schema.Schema) error {
		s.Directives["limit"].Arguments[0].SetValidator(schema.ValidateTag("max=3"))
		return nil
	}))
	rec.bind(t, sch, map[string]schema.Resolver{
		"Query.a":      valueResolver("a"),
		"Query.b":      valueResolver("b"),
		"Query.nested": valueResolver(map[string]any{"c": "c"}),
		"Query.words": func(p schema.ResolveParams) (any, error) {
			words := []string{"one", "two", "three", "four"}
			if d := p.Info.Directive("limit"); d != nil {
				words = words[:cast.ToInt(d.Args["n"])]
			}
			if p.Info.Directive("upper") != nil {
				for i, w := range words {
					words[i] = strings.ToUpper(w)
				}
			}
			return words, nil
		},
	})
	return NewExecutor(sch)
}

// TestDirectives_SkipInclude_Result verifies @skip and @include on fields,
// with @skip taking precedence when both apply.
// Pattern: Result comparison
func TestDirectives_SkipInclude_Result(t *testing.T) {
	rec := &recorder{}
	ex := directiveExecutor(t, rec)
	doc := mustParseQuery(t, `query Q($skip: Boolean!, $include: Boolean!) { a @skip(if: $skip) @include(if: $include) b }`)

	tests := []struct {
		skip, include bool
		want          string
	}{
		{false, true, `{"a":"a","b":"b"}`},
		{false, false, `{"b":"b"}`},
		{true, true, `{"b":"b"}`},
		{true, false, `{"b":"b"}`},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("skip=%v include=%v", tt.skip, tt.include), func(t *testing.T) {
			res := ex.ExecuteRequest(context.Background(), doc, "", map[string]any{"skip": tt.skip, "include": tt.include}, nil)
			require.Empty(t, res.Errors)
			require.Equal(t, tt.want, dataJSON(t, res))
		})
	}
	for _, c := range rec.Calls() {
		if c.Field == "a" {
			return
		}
	}
	t.Fatal("field a was never resolved")
}

// TestDirectives_OnFragments_Result verifies conditional directives on inline
// fragments and fragment spreads, and that an excluded occurrence does not
// hide another occurrence of the same field.
// Pattern: Result comparison
func TestDirectives_OnFragments_Result(t *testing.T) {
	rec := &recorder{}
	ex := directiveExecutor(t, rec)
	res := ex.ExecuteRequest(context.Background(), mustParseQuery(t, `
{
  ... @skip(if: true) { a }
  ... @include(if: true) { b }
  ...F @include(if: false)
  nested { c @skip(if: true) }
  nested { c }
}
fragment F on Query { a }
`), "", nil, nil)
	require.Empty(t, res.Errors)
	require.Equal(t, `{"b":"b","nested":{"c":"c"}}`, dataJSON(t, res))
	require.Equal(t, []string{"b", "nested"}, rec.Paths(true))
}

// TestDirectives_BadCondition_Result verifies that a condition that cannot
// be coerced is a document error and no resolver runs.
// Pattern: Result comparison
func TestDirectives_BadCondition_Result(t *testing.T) {
	rec := &recorder{}
	ex := directiveExecutor(t, rec)
	res := ex.ExecuteRequest(context.Background(), mustParseQuery(t, `{ a nested { c @include(if: "yes") } }`), "", nil, nil)
	require.False(t, res.HasData())
	require.Len(t, res.Errors, 1)
	require.Equal(t, errcode.Document, res.Errors[0].Code())
	require.Empty(t, rec.Calls())
}

// TestDirectives_CustomFieldDirectives_Result verifies that custom directives
// reach resolvers coerced, and that a directive argument rejected by its
// validator is a field error.
// Pattern: Result comparison
func TestDirectives_CustomFieldDirectives_Result(t *testing.T) {
	ex := directiveExecutor(t, &recorder{})

	res := ex.ExecuteRequest(context.Background(), mustParseQuery(t,
		`query Q($n: Int!) { words @limit(n: $n) @upper plain: words @limit(n: 1) }`), "", map[string]any{"n": 2}, nil)
	diffResult(t, `{"data":{"words":["ONE","TWO"],"plain":["one"]}}`, res)

	res = ex.ExecuteRequest(context.Background(), mustParseQuery(t, `{ a words @limit(n: 9) }`), "", nil, nil)
	require.Equal(t, `{"a":"a","words":null}`, dataJSON(t, res))
	require.Len(t, res.Errors, 1)
	require.Equal(t, []any{"words"}, res.Errors[0].Path)
	require.Equal(t, errcode.Coercion, res.Errors[0].Code())
}
