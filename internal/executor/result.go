package executor

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"google.golang.org/grpc/status"

	"github.com/hanpama/gqlengine/internal/coercion"
	"github.com/hanpama/gqlengine/internal/errcode"
	"github.com/hanpama/gqlengine/internal/language"
	"github.com/hanpama/gqlengine/internal/schema"
)

// Location is a line/column position in the request document.
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// GraphQLError represents an error that occurred during execution
type GraphQLError struct {
	Message    string         `json:"message"`
	Locations  []Location     `json:"locations,omitempty"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`

	err error
}

func (e GraphQLError) Error() string {
	return e.Message
}

func (e GraphQLError) Unwrap() error { return e.err }

// Code returns the error kind recorded in the "code" extension.
func (e GraphQLError) Code() errcode.Code {
	code, _ := e.Extensions["code"].(errcode.Code)
	return code
}

// Errors is the error list of a response. It implements error so that a
// failed subscription can be returned as one.
type Errors []GraphQLError

func (es Errors) Error() string {
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

// AsErrors converts the list for consumers that deal in plain errors.
func (es Errors) AsErrors() []error {
	if len(es) == 0 {
		return nil
	}
	out := make([]error, len(es))
	for i, e := range es {
		out[i] = e
	}
	return out
}

// ExecutionResult represents the result of executing a GraphQL query
type ExecutionResult struct {
	// Data is nil or a *jsonmap.Ordered keyed by response name.
	Data       any            `json:"data"`
	Errors     Errors         `json:"errors,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`

	// notExecuted marks results of requests rejected before execution.
	notExecuted bool
}

// HasData reports whether execution started; only then is "data" part of the
// response.
func (r *ExecutionResult) HasData() bool { return !r.notExecuted }

func (r *ExecutionResult) MarshalJSON() ([]byte, error) {
	if r.notExecuted {
		return json.Marshal(struct {
			Errors     Errors         `json:"errors"`
			Extensions map[string]any `json:"extensions,omitempty"`
		}{r.Errors, r.Extensions})
	}
	return json.Marshal(struct {
		Data       any            `json:"data"`
		Errors     Errors         `json:"errors,omitempty"`
		Extensions map[string]any `json:"extensions,omitempty"`
	}{r.Data, r.Errors, r.Extensions})
}

// documentErrors builds the result of a request that never started executing.
func documentErrors(errs ...error) *ExecutionResult {
	out := make(Errors, 0, len(errs))
	for _, err := range errs {
		ge := toGraphQLError(err, nil, nil)
		if ge.Extensions == nil {
			ge.Extensions = map[string]any{}
		}
		if ge.Code() == "" || ge.Code() == errcode.Coercion {
			ge.Extensions["code"] = errcode.Document
		}
		out = append(out, ge)
	}
	return &ExecutionResult{Errors: out, notExecuted: true}
}

// extensionsProvider is implemented by resolver errors carrying extra
// response extensions.
type extensionsProvider interface {
	Extensions() map[string]any
}

// toGraphQLError converts err into a located response error. The "code"
// extension comes from the errcode chain, falling back to CANCELLED for
// context errors and RESOLVER otherwise.
func toGraphQLError(err error, path *schema.Path, fields []*language.Field) GraphQLError {
	var ge GraphQLError
	if errors.As(err, &ge) {
		if ge.Path == nil && path != nil {
			ge.Path = path.AsList()
		}
		return ge
	}

	ext := map[string]any{}
	var provider extensionsProvider
	if errors.As(err, &provider) {
		for k, v := range provider.Extensions() {
			ext[k] = v
		}
	}
	if st, ok := status.FromError(err); ok && st != nil {
		ext["grpcCode"] = st.Code().String()
	}

	var argErr *coercion.ArgumentError
	switch {
	case errors.As(err, &argErr):
		ext["code"] = argErr.Code()
		ext["argument"] = argErr.Argument
	case errcode.Of(err) != "":
		ext["code"] = errcode.Of(err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		ext["code"] = errcode.Cancelled
	default:
		if _, ok := ext["code"]; !ok {
			ext["code"] = errcode.Resolver
		}
	}

	ge = GraphQLError{Message: err.Error(), Extensions: ext, err: err}
	if path != nil {
		ge.Path = path.AsList()
	}
	for _, f := range fields {
		if f != nil && f.Position != nil {
			ge.Locations = append(ge.Locations, Location{Line: f.Position.Line, Column: f.Position.Column})
		}
	}
	return ge
}

// errorList is the per-request error sink shared by concurrent resolvers.
type errorList struct {
	mu   sync.Mutex
	errs Errors
}

func (l *errorList) add(e GraphQLError) {
	l.mu.Lock()
	l.errs = append(l.errs, e)
	l.mu.Unlock()
}

func (l *errorList) list() Errors {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.errs) == 0 {
		return nil
	}
	return append(Errors(nil), l.errs...)
}
