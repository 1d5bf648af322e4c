package schema

import (
	"context"
	"strconv"
	"strings"

	"github.com/hanpama/gqlengine/internal/language"
)

// Resolver produces the value of a field.
type Resolver func(p ResolveParams) (any, error)

// SubscribeFunc opens the event source of a subscription root field. Each
// received value is executed as the root value of one response; a value that
// is an error yields a response carrying only that error. The channel is
// closed by the source when the stream ends.
type SubscribeFunc func(p ResolveParams) (<-chan any, error)

// ResolveParams is passed to every resolver invocation.
type ResolveParams struct {
	// Context carries the request's cancellation signal.
	Context context.Context
	// Source is the parent value (the root value for root fields).
	Source any
	// Args holds the coerced argument values, defaults applied.
	Args map[string]any
	Info *ResolveInfo
}

// Arg returns the coerced argument named name.
func (p ResolveParams) Arg(name string) any { return p.Args[name] }

type ResolveInfo struct {
	FieldName    string
	ResponseName string
	ParentType   *Type
	ReturnType   *TypeRef
	Path         *Path
	Operation    *language.OperationDefinition
	// Fields are the merged field occurrences sharing this response name.
	Fields    []*language.Field
	Variables map[string]any
	RootValue any
	Schema    *Schema
	// Directives are the coerced directives applied to the field occurrence
	// in the document, skip/include excluded.
	Directives      []*AppliedDirective
	FieldDefinition *Field
}

// Directive returns the document directive named name applied to this
// occurrence, or nil.
func (i *ResolveInfo) Directive(name string) *AppliedDirective {
	return DirectiveNamed(i.Directives, name)
}

// Path is an immutable response path. Each segment is a response name
// (string) or a list index (int).
type Path struct {
	Prev *Path
	Key  any
}

// WithField returns a path extended by a response name.
func (p *Path) WithField(name string) *Path { return &Path{Prev: p, Key: name} }

// WithIndex returns a path extended by a list index.
func (p *Path) WithIndex(i int) *Path { return &Path{Prev: p, Key: i} }

// AsList returns the segments from the root.
func (p *Path) AsList() []any {
	var n int
	for c := p; c != nil; c = c.Prev {
		n++
	}
	out := make([]any, n)
	for c := p; c != nil; c = c.Prev {
		n--
		out[n] = c.Key
	}
	return out
}

func (p *Path) String() string {
	var b strings.Builder
	for i, seg := range p.AsList() {
		switch k := seg.(type) {
		case int:
			b.WriteString("[" + strconv.Itoa(k) + "]")
		case string:
			if i > 0 {
				b.WriteByte('.')
			}
			b.WriteString(k)
		}
	}
	return b.String()
}
