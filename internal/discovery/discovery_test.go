package discovery

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/hanpama/gqlengine/internal/schema"
)

func TestLoadInMemory(t *testing.T) {
	sdl, err := Load(context.Background(), InMemory{
		"b.graphql": "extend type Query { b: Int }",
		"a.graphql": "type Query { a: String }\n",
	})
	require.NoError(t, err)
	require.Equal(t, "type Query { a: String }\nextend type Query { b: Int }\n", sdl)

	sch, err := schema.BuildFromSDL(sdl)
	require.NoError(t, err)
	require.NotNil(t, sch.Field("Query", "b"))

	_, err = Load(context.Background(), InMemory{})
	require.Error(t, err)
}

func TestFileSystem(t *testing.T) {
	root := t.TempDir()
	write := func(rel, content string) {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	write("query.graphql", "type Query { user: User }")
	write("users/user.graphqls", "type User { id: ID! }")
	write("users/README.md", "not sdl")

	d, err := NewFileSystem(root)
	require.NoError(t, err)
	names, err := d.List(context.Background())
	require.NoError(t, err)
	if diff := cmp.Diff([]string{"query.graphql", "users/user.graphqls"}, names); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}

	sdl, err := LoadPath(context.Background(), root)
	require.NoError(t, err)
	_, err = schema.BuildFromSDL(sdl)
	require.NoError(t, err)

	single, err := LoadPath(context.Background(), filepath.Join(root, "query.graphql"))
	require.NoError(t, err)
	require.Equal(t, "type Query { user: User }", single)

	_, err = d.Read(context.Background(), "missing.graphql")
	require.Error(t, err)
	_, err = LoadPath(context.Background(), filepath.Join(root, "nope"))
	require.Error(t, err)
}
