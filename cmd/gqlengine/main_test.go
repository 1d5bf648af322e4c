package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const librarySDL = `
type Query {
  shelf: Shelf
  search(term: String!): [Item!]!
}

type Subscription {
  arrivals: Book
}

type Shelf {
  name: String!
  books: [Book!]!
}

interface Item { title: String! }

type Book implements Item {
  title: String!
  pages: Int
}

type Film implements Item {
  title: String!
  minutes: Int
}
`

const libraryData = `
shelf:
  name: Fiction
  books:
    - title: Dune
      pages: 412
    - title: Emma
search:
  - __typename: Book
    title: Dune
  - __typename: Film
    title: Alien
    minutes: 117
arrivals:
  - title: Ubik
  - title: Solaris
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func runCmd(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func fixtures(t *testing.T) (schemaPath, dataPath, dir string) {
	t.Helper()
	dir = t.TempDir()
	return writeFile(t, dir, "schema.graphql", librarySDL), writeFile(t, dir, "data.yaml", libraryData), dir
}

func TestExec(t *testing.T) {
	schemaPath, dataPath, dir := fixtures(t)
	tests := []struct {
		name  string
		query string
		vars  string
		want  string
	}{
		{
			name:  "projection",
			query: `{ shelf { name books { title pages } } }`,
			want:  `{"data":{"shelf":{"name":"Fiction","books":[{"title":"Dune","pages":412},{"title":"Emma","pages":null}]}}}`,
		},
		{
			name:  "abstract",
			query: `query($t: String!) { search(term: $t) { __typename title ... on Film { minutes } } }`,
			vars:  `{"t": "x"}`,
			want:  `{"data":{"search":[{"__typename":"Book","title":"Dune"},{"__typename":"Film","title":"Alien","minutes":117}]}}`,
		},
		{
			name:  "introspection",
			query: `{ __type(name: "Item") { possibleTypes { name } } }`,
			want:  `{"data":{"__type":{"possibleTypes":[{"name":"Book"},{"name":"Film"}]}}}`,
		},
		{
			name:  "invalid",
			query: `{ shelf { color } }`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := []string{"exec", "--schema", schemaPath, "--data", dataPath,
				"--query", writeFile(t, dir, "q.graphql", tt.query)}
			if tt.vars != "" {
				args = append(args, "--variables", writeFile(t, dir, "v.json", tt.vars))
			}
			out, err := runCmd(t, "", args...)
			require.NoError(t, err)
			if tt.want == "" {
				require.Contains(t, out, `"code":"DOCUMENT"`)
				require.NotContains(t, out, `"data"`)
				return
			}
			require.JSONEq(t, tt.want, out)
		})
	}
}

func TestExecSubscriptionFromStdin(t *testing.T) {
	schemaPath, dataPath, _ := fixtures(t)
	out, err := runCmd(t, `subscription { arrivals { title } }`,
		"exec", "--schema", schemaPath, "--data", dataPath, "--query", "-")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	require.JSONEq(t, `{"data":{"arrivals":{"title":"Ubik"}}}`, lines[0])
	require.JSONEq(t, `{"data":{"arrivals":{"title":"Solaris"}}}`, lines[1])
}

func TestExecConfigSources(t *testing.T) {
	schemaPath, dataPath, dir := fixtures(t)
	query := writeFile(t, dir, "q.graphql", `{ shelf { name } }`)

	t.Run("environment", func(t *testing.T) {
		t.Setenv("GQLENGINE_PRETTY", "true")
		out, err := runCmd(t, "", "exec", "--schema", schemaPath, "--data", dataPath, "--query", query)
		require.NoError(t, err)
		require.Contains(t, out, "\n  \"data\"")
	})

	t.Run("config file", func(t *testing.T) {
		cfg := writeFile(t, dir, "gqlengine.yaml", "schema: "+schemaPath+"\ndata: "+dataPath+"\nquery: "+query+"\n")
		out, err := runCmd(t, "", "exec", "--config", cfg)
		require.NoError(t, err)
		require.JSONEq(t, `{"data":{"shelf":{"name":"Fiction"}}}`, out)
	})
}

func TestExecErrors(t *testing.T) {
	schemaPath, _, dir := fixtures(t)
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing schema", []string{"exec", "--query", "-"}, "--schema is required"},
		{"missing query", []string{"exec", "--schema", schemaPath}, "--query is required"},
		{"bad schema", []string{"exec", "--schema", writeFile(t, dir, "bad.graphql", "type Query { a: Nope }"), "--query", "-"}, "Nope"},
		{"bad log level", []string{"exec", "--log-level", "loud"}, "log level"},
		{"unknown command", []string{"frobnicate"}, "unknown command"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCmd(t, "{ shelf { name } }", tt.args...)
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSDL(t *testing.T) {
	schemaPath, _, dir := fixtures(t)
	out, err := runCmd(t, "", "sdl", "--schema", schemaPath)
	require.NoError(t, err)
	require.Contains(t, out, "type Book implements Item {")

	target := filepath.Join(dir, "out.graphql")
	_, err = runCmd(t, "", "sdl", "--schema", schemaPath, "--out", target)
	require.NoError(t, err)
	written, err := os.ReadFile(target)
	require.NoError(t, err)
	require.Equal(t, out, string(written))

	// The rendered schema loads again unchanged.
	again, err := runCmd(t, "", "sdl", "--schema", target)
	require.NoError(t, err)
	require.Equal(t, out, again)
}

func TestServeStopsOnCancel(t *testing.T) {
	schemaPath, dataPath, _ := fixtures(t)
	cmd, _, err := newRootCmd().Find([]string{"serve"})
	require.NoError(t, err)
	require.NoError(t, cmd.ParseFlags([]string{"--schema", schemaPath, "--data", dataPath, "--addr", "127.0.0.1:0", "--log-level", "error"}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, runServe(ctx, cmd))
}

func TestSchemaDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a_query.graphql", "type Query { shelf: Shelf }")
	writeFile(t, dir, "b_shelf.graphqls", "type Shelf { name: String! }")
	data := writeFile(t, t.TempDir(), "data.json", `{"shelf":{"name":"Poetry"}}`)

	out, err := runCmd(t, "{ shelf { name } }", "exec", "--schema", dir, "--data", data, "--query", "-")
	require.NoError(t, err)
	require.JSONEq(t, `{"data":{"shelf":{"name":"Poetry"}}}`, out)
}
