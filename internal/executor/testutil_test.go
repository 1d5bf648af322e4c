package executor

import (
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hanpama/gqlengine/internal/language"
	"github.com/hanpama/gqlengine/internal/schema"
)

// Call is one recorded resolver invocation.
type Call struct {
	ObjectType string
	Field      string
	Path       string
	Args       map[string]any
}

// recorder binds resolvers to a schema and logs every invocation in the
// order the resolvers were entered.
type recorder struct {
	mu    sync.Mutex
	calls []Call
}

// bind installs resolvers keyed "Type.field" on sch, wrapping each so that
// invocations are recorded.
func (r *recorder) bind(t *testing.T, sch *schema.Schema, resolvers map[string]schema.Resolver) {
	t.Helper()
	for key, res := range resolvers {
		typeName, fieldName, _ := strings.Cut(key, ".")
		f := sch.Field(typeName, fieldName)
		if f == nil {
			t.Fatalf("no field %s", key)
		}
		f.SetResolver(r.wrap(res))
	}
}

func (r *recorder) wrap(res schema.Resolver) schema.Resolver {
	return func(p schema.ResolveParams) (any, error) {
		r.mu.Lock()
		r.calls = append(r.calls, Call{
			ObjectType: p.Info.ParentType.Name,
			Field:      p.Info.FieldName,
			Path:       p.Info.Path.String(),
			Args:       p.Args,
		})
		r.mu.Unlock()
		return res(p)
	}
}

// Calls returns a copy of the recorded calls in order.
func (r *recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Paths returns the recorded paths, sorted when the invocation order is not
// deterministic.
func (r *recorder) Paths(sorted bool) []string {
	var out []string
	for _, c := range r.Calls() {
		out = append(out, c.Path)
	}
	if sorted {
		sort.Strings(out)
	}
	return out
}

func valueResolver(v any) schema.Resolver {
	return func(schema.ResolveParams) (any, error) { return v, nil }
}

func errorResolver(err error) schema.Resolver {
	return func(schema.ResolveParams) (any, error) { return nil, err }
}

// mustParseQuery parses a GraphQL query and fails the test on error.
func mustParseQuery(t *testing.T, q string) *language.QueryDocument {
	t.Helper()
	d, err := language.ParseQuery(q)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return d
}

func mustBuild(t *testing.T, sdl string, opts ...schema.BuildOption) *schema.Schema {
	t.Helper()
	sch, err := schema.BuildFromSDL(sdl, opts...)
	if err != nil {
		t.Fatalf("build schema: %v", err)
	}
	return sch
}

func newObjectType(name string, fields ...*schema.Field) *schema.Type {
	return schema.NewObject(name, fields...)
}

func newSchemaWithQueryType(query *schema.Type, additional ...*schema.Type) *schema.Schema {
	sch := schema.NewSchema("")
	if query != nil {
		sch.SetQueryType(query.Name)
		sch.AddType(query)
	}
	for _, t := range additional {
		sch.AddType(t)
	}
	return sch
}

// plain converts a result to the generic JSON form so that ordered maps
// and error values compare structurally.
func plain(t *testing.T, v any) any {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return out
}

// diffResult compares a result with its expected JSON rendering. Error
// locations and extensions are left out of the comparison.
func diffResult(t *testing.T, want string, got *ExecutionResult) {
	t.Helper()
	var w any
	if err := json.Unmarshal([]byte(want), &w); err != nil {
		t.Fatalf("bad expectation: %v", err)
	}
	g := plain(t, got).(map[string]any)
	if errs, ok := g["errors"].([]any); ok {
		for _, e := range errs {
			delete(e.(map[string]any), "locations")
			delete(e.(map[string]any), "extensions")
		}
	}
	if diff := cmp.Diff(w, any(g)); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
}

func mustMarshal(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

// dataJSON renders only the data of a result, keeping key order.
func dataJSON(t *testing.T, res *ExecutionResult) string {
	t.Helper()
	b, err := json.Marshal(res.Data)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(b)
}

// errorPaths lists the rendered path of every error, sorted.
func errorPaths(res *ExecutionResult) []string {
	var out []string
	for _, e := range res.Errors {
		out = append(out, pathString(e.Path))
	}
	sort.Strings(out)
	return out
}

func pathString(segments []any) string {
	var p *schema.Path
	for _, seg := range segments {
		switch k := seg.(type) {
		case string:
			p = p.WithField(k)
		case int:
			p = p.WithIndex(k)
		}
	}
	return p.String()
}
