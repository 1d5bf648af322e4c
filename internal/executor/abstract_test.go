package executor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hanpama/gqlengine/internal/errcode"
	"github.com/hanpama/gqlengine/internal/schema"
)

const petSDL = `
enum PetType { CAT DOG }

interface Pet {
  id: ID!
  name: String
}

type Cat implements Pet {
  id: ID!
  name: String
  meows: Boolean
}

type Dog implements Pet {
  id: ID!
  name: String
  isLarge: Boolean
}

type Bird {
  id: ID!
}

union Animal = Cat | Dog

type Query {
  find(type: PetType!): Pet
  pets: [Pet]
  animal: Animal
  cat: Cat
  bird: Bird
}
`

type cat struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Meows bool   `json:"meows"`
}

type dog struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	IsLarge bool   `json:"isLarge"`
}

func isCat(_ context.Context, v any) bool { _, ok := v.(*cat); return ok }
func isDog(_ context.Context, v any) bool { _, ok := v.(*dog); return ok }

var (
	fluffy = &cat{ID: "10", Name: "Fluffy", Meows: true}
	rex    = &dog{ID: "20", Name: "Rex", IsLarge: true}
)

func petExecutor(t *testing.T, opts ...schema.BuildOption) *Executor {
	t.Helper()
	base := []schema.BuildOption{
		schema.WithResolver("Query.find", func(p schema.ResolveParams) (any, error) {
			if p.Args["type"] == "CAT" {
				return fluffy, nil
			}
			return rex, nil
		}),
	}
	return NewExecutor(mustBuild(t, petSDL, append(base, opts...)...))
}

// TestAbstract_IsTypeOfProbing_Result verifies that an interface value is
// resolved by probing IsTypeOf and that fragments for other types are
// skipped.
// Pattern: Result comparison
func TestAbstract_IsTypeOfProbing_Result(t *testing.T) {
	ex := petExecutor(t, schema.WithIsTypeOf("Cat", isCat), schema.WithIsTypeOf("Dog", isDog))

	res := ex.ExecuteRequest(context.Background(),
		mustParseQuery(t, `{ find(type: CAT) { id name ... on Dog { isLarge } } }`), "", nil, nil)
	require.Equal(t, `{"find":{"id":"10","name":"Fluffy"}}`, dataJSON(t, res))
	require.Empty(t, res.Errors)

	res = ex.ExecuteRequest(context.Background(),
		mustParseQuery(t, `{ find(type: DOG) { id name ... on Dog { isLarge } } }`), "", nil, nil)
	require.Equal(t, `{"find":{"id":"20","name":"Rex","isLarge":true}}`, dataJSON(t, res))
}

// TestAbstract_FragmentsOnInterfaceAndUnion_Result verifies type conditions
// on concrete, interface and union types within one list.
// Pattern: Result comparison
func TestAbstract_FragmentsOnInterfaceAndUnion_Result(t *testing.T) {
	ex := petExecutor(t,
		schema.WithIsTypeOf("Cat", isCat),
		schema.WithIsTypeOf("Dog", isDog),
		schema.WithResolver("Query.pets", valueResolver([]any{
			fluffy,
			rex,
			&cat{ID: "30", Name: "Tom"},
		})),
		schema.WithResolver("Query.animal", valueResolver(rex)),
	)

	res := ex.ExecuteRequest(context.Background(), mustParseQuery(t, `
{
  pets {
    __typename
    ... on Cat { meows }
    ... on Dog { isLarge }
    ...PetBits
  }
  animal {
    ... on Pet { name }
    ... on Animal { ... on Dog { id } }
  }
}
fragment PetBits on Pet { name }
`), "", nil, nil)

	require.Empty(t, res.Errors)
	require.Equal(t,
		`{"pets":[{"__typename":"Cat","meows":true,"name":"Fluffy"},{"__typename":"Dog","isLarge":true,"name":"Rex"},{"__typename":"Cat","meows":false,"name":"Tom"}],"animal":{"name":"Rex","id":"20"}}`,
		dataJSON(t, res))
}

// TestAbstract_ResolutionErrors_Result verifies the errors raised when no
// single object type can be chosen for an abstract value.
// Pattern: Result comparison
func TestAbstract_ResolutionErrors_Result(t *testing.T) {
	tests := []struct {
		name    string
		opts    []schema.BuildOption
		query   string
		message string
	}{
		{
			name:    "nothing matches",
			query:   `{ find(type: CAT) { id } }`,
			message: `Abstract type "Pet" must resolve to an Object type at runtime for field Query.find. Either the "Pet" type should provide a ResolveType function or each possible type should provide an IsTypeOf function.`,
		},
		{
			name:    "typename only still resolves",
			query:   `{ find(type: CAT) { __typename } }`,
			message: `Abstract type "Pet" must resolve to an Object type at runtime for field Query.find. Either the "Pet" type should provide a ResolveType function or each possible type should provide an IsTypeOf function.`,
		},
		{
			name: "unknown type",
			opts: []schema.BuildOption{schema.WithTypeResolver("Pet", func(context.Context, any) (string, error) {
				return "Fish", nil
			})},
			query:   `{ find(type: CAT) { id } }`,
			message: `Abstract type "Pet" must resolve to an Object type at runtime for field Query.find. Got: "Fish".`,
		},
		{
			name: "not a possible type",
			opts: []schema.BuildOption{schema.WithTypeResolver("Pet", func(context.Context, any) (string, error) {
				return "Bird", nil
			})},
			query:   `{ find(type: CAT) { id } }`,
			message: `Runtime Object type "Bird" is not a possible type for "Pet".`,
		},
		{
			name: "resolver and predicate disagree",
			opts: []schema.BuildOption{
				schema.WithIsTypeOf("Cat", isCat),
				schema.WithTypeResolver("Pet", func(context.Context, any) (string, error) { return "Cat", nil }),
			},
			query:   `{ find(type: DOG) { id } }`,
			message: `Type "Cat" was resolved for "Pet" but its IsTypeOf rejects the value *executor.dog.`,
		},
		{
			name: "resolver fails",
			opts: []schema.BuildOption{schema.WithTypeResolver("Pet", func(context.Context, any) (string, error) {
				return "", errors.New("no idea")
			})},
			query:   `{ find(type: DOG) { id } }`,
			message: `resolve type of "Pet": no idea`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex := petExecutor(t, tt.opts...)
			res := ex.ExecuteRequest(context.Background(), mustParseQuery(t, tt.query), "", nil, nil)
			require.Equal(t, `{"find":null}`, dataJSON(t, res))
			require.Len(t, res.Errors, 1)
			require.Equal(t, tt.message, res.Errors[0].Message)
			require.Equal(t, errcode.AbstractType, res.Errors[0].Code())
			require.Equal(t, []any{"find"}, res.Errors[0].Path)
		})
	}
}

// TestAbstract_SchemaResolveType_Result verifies the schema-level resolver is
// used when the abstract type has none, and that an empty answer falls back
// to IsTypeOf probing.
// Pattern: Result comparison
func TestAbstract_SchemaResolveType_Result(t *testing.T) {
	ex := petExecutor(t,
		schema.WithIsTypeOf("Dog", isDog),
		schema.WithResolveType(func(_ context.Context, v any) (string, error) {
			if _, ok := v.(*cat); ok {
				return "Cat", nil
			}
			return "", nil
		}),
	)
	res := ex.ExecuteRequest(context.Background(), mustParseQuery(t,
		`{ c: find(type: CAT) { __typename id } d: find(type: DOG) { __typename id } }`), "", nil, nil)
	require.Empty(t, res.Errors)
	require.Equal(t, `{"c":{"__typename":"Cat","id":"10"},"d":{"__typename":"Dog","id":"20"}}`, dataJSON(t, res))
}

// TestAbstract_TypenameFromMap_Result verifies the default schema resolver
// reading "__typename" from map values.
// Pattern: Result comparison
func TestAbstract_TypenameFromMap_Result(t *testing.T) {
	ex := petExecutor(t, schema.WithResolver("Query.animal", valueResolver(map[string]any{
		"__typename": "Dog", "id": "5", "isLarge": false,
	})))
	res := ex.ExecuteRequest(context.Background(), mustParseQuery(t,
		`{ animal { __typename ... on Dog { id isLarge } ... on Cat { meows } } }`), "", nil, nil)
	diffResult(t, `{"data":{"animal":{"__typename":"Dog","id":"5","isLarge":false}}}`, res)
}

// TestAbstract_ObjectIsTypeOf_Result verifies that an object type's IsTypeOf
// also guards values reached directly.
// Pattern: Result comparison
func TestAbstract_ObjectIsTypeOf_Result(t *testing.T) {
	ex := petExecutor(t,
		schema.WithIsTypeOf("Cat", isCat),
		schema.WithResolver("Query.cat", valueResolver(rex)),
	)
	res := ex.ExecuteRequest(context.Background(), mustParseQuery(t, `{ cat { id } }`), "", nil, nil)
	diffResult(t, `{
  "data": {"cat": null},
  "errors": [{"message":"Expected value of type \"Cat\" but got: *executor.dog.","path":["cat"]}]
}`, res)
	require.Equal(t, errcode.Resolver, res.Errors[0].Code())
}
