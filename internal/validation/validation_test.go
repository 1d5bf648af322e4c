package validation

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"

	"github.com/hanpama/gqlengine/internal/errcode"
	"github.com/hanpama/gqlengine/internal/executor"
	"github.com/hanpama/gqlengine/internal/introspection"
	"github.com/hanpama/gqlengine/internal/schema"
)

const testSDL = `
type Query {
  user(id: ID!): User
  search(term: String!): [Result!]!
}

type User {
  id: ID!
  name: String
}

type Bot {
  id: ID!
}

union Result = User | Bot

directive @trace(label: String) on FIELD
`

func newValidator(t *testing.T) (*Validator, *schema.Schema) {
	t.Helper()
	sch, err := schema.BuildFromSDL(testSDL)
	require.NoError(t, err)
	v, err := New(introspection.Extend(sch))
	require.NoError(t, err)
	return v, sch
}

// TestValidate_Rules_Result verifies valid documents pass and rule violations
// come back as located DOCUMENT errors.
// Pattern: Result comparison
func TestValidate_Rules_Result(t *testing.T) {
	v, _ := newValidator(t)
	tests := []struct {
		name  string
		query string
		want  []executor.GraphQLError
	}{
		{
			name:  "valid",
			query: `{ user(id: "1") { id name @trace(label: "n") } search(term: "x") { ... on Bot { id } } }`,
		},
		{
			name:  "introspection",
			query: `{ __schema { queryType { name } } __typename }`,
		},
		{
			name:  "unknown field",
			query: "{\n  user(id: 1) { nickname }\n}",
			want: []executor.GraphQLError{{
				Message:   `Cannot query field "nickname" on type "User".`,
				Locations: []executor.Location{{Line: 2, Column: 18}},
			}},
		},
		{
			name:  "missing argument",
			query: `{ user { id } }`,
			want: []executor.GraphQLError{{
				Message:   `Field "user" argument "id" of type "ID!" is required, but it was not provided.`,
				Locations: []executor.Location{{Line: 1, Column: 3}},
			}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, got := v.ParseAndValidate(tt.query)
			if tt.want == nil {
				require.True(t, got.Valid, "%v", got.Errors)
				return
			}
			require.False(t, got.Valid)
			for _, e := range got.Errors {
				require.Equal(t, errcode.Document, e.Code())
			}
			opt := cmp.Transformer("strip", func(e executor.GraphQLError) executor.GraphQLError {
				return executor.GraphQLError{Message: e.Message, Locations: e.Locations}
			})
			if diff := cmp.Diff(tt.want, []executor.GraphQLError(got.Errors), opt, cmpopts.IgnoreUnexported(executor.GraphQLError{})); diff != "" {
				t.Fatalf("errors mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// TestValidate_SyntaxError_Result verifies parse failures are reported as
// DOCUMENT errors without a document.
// Pattern: Result comparison
func TestValidate_SyntaxError_Result(t *testing.T) {
	v, _ := newValidator(t)
	doc, got := v.ParseAndValidate(`{ user(id: "1") { id }`)
	require.Nil(t, doc)
	require.False(t, got.Valid)
	require.Len(t, got.Errors, 1)
	require.Equal(t, errcode.Document, got.Errors[0].Code())
	require.NotEmpty(t, got.Errors[0].Locations)
}

// TestValidate_GatesExecution_Result verifies an invalid verdict handed to
// the executor is returned without running any resolver.
// Pattern: Result comparison
func TestValidate_GatesExecution_Result(t *testing.T) {
	v, sch := newValidator(t)
	doc, validity := v.ParseAndValidate(`{ user(id: "1") { nickname } }`)
	require.NotNil(t, doc)

	res := executor.NewExecutor(sch).Execute(context.Background(), executor.Params{
		Document: doc,
		Validity: validity,
	})
	require.False(t, res.HasData())
	require.Len(t, res.Errors, 1)
	require.Equal(t, errcode.Document, res.Errors[0].Code())
}
