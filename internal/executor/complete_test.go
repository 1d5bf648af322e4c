package executor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hanpama/gqlengine/internal/errcode"
	"github.com/hanpama/gqlengine/internal/schema"
)

const nullabilitySDL = `
type Query {
  viewer: User
  strict: User!
  other: String
  items: [Item!]
  grid: [[Int!]]
  notAList: [Int]
  values: [Custom!]
  loose: [Custom]
  plain: Custom
  color: Color
  colors: [Color!]!
}

type User {
  id: ID!
  name: String!
  nick: String
  friend: User
  best: User!
}

type Item {
  id: ID!
}

scalar Custom

enum Color { RED GREEN }
`

func user(id, name string, friend map[string]any) map[string]any {
	u := map[string]any{"id": id, "nick": "n" + id}
	if name != "" {
		u["name"] = name
	}
	if friend != nil {
		u["friend"] = friend
		u["best"] = friend
	}
	return u
}

func nullabilitySchema(t *testing.T, resolvers map[string]schema.Resolver) *Executor {
	t.Helper()
	sch := mustBuild(t, nullabilitySDL,
		schema.WithScalar("Custom", schema.ScalarFuncs{
			SerializeFn: func(v any) (any, error) {
				if v == nil {
					return "NULL_SENTINEL", nil
				}
				s, ok := v.(string)
				if !ok {
					return nil, errors.New("Custom cannot represent a non-string value")
				}
				return strings.ToUpper(s), nil
			},
			SerializeNull: true,
		}),
		schema.WithModifier(func(s *schema.Schema) error {
			s.Types["Color"].EnumValue("RED").SetValue(1)
			s.Types["Color"].EnumValue("GREEN").SetValue(2)
			return nil
		}),
	)
	(&recorder{}).bind(t, sch, resolvers)
	return NewExecutor(sch)
}

// TestNonNull_Propagation_Result verifies that a null in a Non-Null position
// nulls the nearest nullable ancestor, records exactly one error at the
// originating path and leaves sibling values intact.
// Pattern: Result comparison
func TestNonNull_Propagation_Result(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{
			name:  "nullable parent absorbs",
			query: `{ viewer { nick friend { id name } } other }`,
			want: `{
  "data": {"viewer":{"nick":"n1","friend":null},"other":"sibling"},
  "errors": [{"message":"Cannot return null for non-nullable field User.name.","path":["viewer","friend","name"]}]
}`,
		},
		{
			name:  "grandparent absorbs",
			query: `{ viewer { nick best { id name } } other }`,
			want: `{
  "data": {"viewer":null,"other":"sibling"},
  "errors": [{"message":"Cannot return null for non-nullable field User.name.","path":["viewer","best","name"]}]
}`,
		},
		{
			name:  "root bubble",
			query: `{ other strict { id name } }`,
			want: `{
  "data": null,
  "errors": [{"message":"Cannot return null for non-nullable field User.name.","path":["strict","name"]}]
}`,
		},
	}
	ex := nullabilitySchema(t, map[string]schema.Resolver{
		"Query.viewer": valueResolver(user("1", "Ann", user("2", "", nil))),
		"Query.strict": valueResolver(user("3", "", nil)),
		"Query.other":  valueResolver("sibling"),
	})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ex.ExecuteRequest(context.Background(), mustParseQuery(t, tt.query), "", nil, nil)
			diffResult(t, tt.want, res)
			for _, e := range res.Errors {
				require.Equal(t, errcode.Resolver, e.Code())
			}
		})
	}
}

// TestNonNull_ResolverError_Result verifies that a resolver error on a
// Non-Null field is reported once and propagates like a null.
// Pattern: Result comparison
func TestNonNull_ResolverError_Result(t *testing.T) {
	sch := mustBuild(t, nullabilitySDL)
	rec := &recorder{}
	rec.bind(t, sch, map[string]schema.Resolver{
		"Query.viewer": valueResolver(user("1", "Ann", nil)),
		"User.name":    errorResolver(errors.New("boom")),
	})
	res := NewExecutor(sch).ExecuteRequest(context.Background(), mustParseQuery(t, `{ viewer { id name } }`), "", nil, nil)
	diffResult(t, `{
  "data": {"viewer": null},
  "errors": [{"message":"boom","path":["viewer","name"]}]
}`, res)
}

// TestList_Completion_Result verifies list completion: element errors carry
// indexes, a null element in a Non-Null element position nulls the list, and
// non-slice values are rejected.
// Pattern: Result comparison
func TestList_Completion_Result(t *testing.T) {
	ex := nullabilitySchema(t, map[string]schema.Resolver{
		"Query.items": func(p schema.ResolveParams) (any, error) {
			switch p.Info.ResponseName {
			case "withNull":
				return []any{map[string]any{"id": "1"}, nil}, nil
			case "innerNull":
				return []map[string]any{{"id": "1"}, {}}, nil
			case "array":
				return [2]map[string]any{{"id": "3"}, {"id": "4"}}, nil
			}
			return []map[string]any{{"id": "1"}, {"id": "2"}}, nil
		},
		"Query.grid":     valueResolver([][]any{{1, 2}, {3, nil}, {}}),
		"Query.notAList": valueResolver(map[string]any{"a": 1}),
	})

	res := ex.ExecuteRequest(context.Background(), mustParseQuery(t,
		`{ ok: items { id } withNull: items { id } innerNull: items { id } array: items { id } grid notAList }`), "", nil, nil)
	diffResult(t, `{
  "data": {"ok":[{"id":"1"},{"id":"2"}],"withNull":null,"innerNull":null,"array":[{"id":"3"},{"id":"4"}],"grid":[[1,2],null,[]],"notAList":null},
  "errors": [
    {"message":"Cannot return null for non-nullable field Query.grid.","path":["grid",1,1]},
    {"message":"Cannot return null for non-nullable field Item.id.","path":["innerNull",1,"id"]},
    {"message":"Expected Iterable, but did not find one for field Query.notAList.","path":["notAList"]},
    {"message":"Cannot return null for non-nullable field Query.items.","path":["withNull",1]}
  ]
}`, sortedByPath(res))
}

// TestLeaf_NullSerializingScalar_Result verifies that a scalar opting into
// null serialization replaces nulls in nullable positions only.
// Pattern: Result comparison
func TestLeaf_NullSerializingScalar_Result(t *testing.T) {
	values := []any{"hello", nil}
	ex := nullabilitySchema(t, map[string]schema.Resolver{
		"Query.values": valueResolver(values),
		"Query.loose":  valueResolver(values),
		"Query.plain":  valueResolver(nil),
	})

	res := ex.ExecuteRequest(context.Background(), mustParseQuery(t, `{ values }`), "", nil, nil)
	diffResult(t, `{
  "data": {"values": null},
  "errors": [{"message":"Cannot return null for non-nullable field Query.values.","path":["values",1]}]
}`, res)

	res = ex.ExecuteRequest(context.Background(), mustParseQuery(t, `{ loose plain }`), "", nil, nil)
	diffResult(t, `{"data":{"loose":["HELLO","NULL_SENTINEL"],"plain":"NULL_SENTINEL"}}`, res)
}

// TestLeaf_EnumSerialization_Result verifies that enums serialize internal
// values to member names and reject unknown values.
// Pattern: Result comparison
func TestLeaf_EnumSerialization_Result(t *testing.T) {
	ex := nullabilitySchema(t, map[string]schema.Resolver{
		"Query.color":  valueResolver(7),
		"Query.colors": valueResolver([]int{2, 1}),
	})
	res := ex.ExecuteRequest(context.Background(), mustParseQuery(t, `{ colors color }`), "", nil, nil)
	diffResult(t, `{
  "data": {"colors":["GREEN","RED"],"color":null},
  "errors": [{"message":"Enum \"Color\" cannot represent value: 7 (int)","path":["color"]}]
}`, res)
}

// sortedByPath orders errors by path so that results of concurrent fields
// compare deterministically.
func sortedByPath(res *ExecutionResult) *ExecutionResult {
	order := errorPaths(res)
	byPath := map[string]GraphQLError{}
	for _, e := range res.Errors {
		byPath[pathString(e.Path)] = e
	}
	out := *res
	out.Errors = make(Errors, 0, len(order))
	for _, p := range order {
		out.Errors = append(out.Errors, byPath[p])
	}
	return &out
}
