// Package validation checks request documents against a schema before they
// are executed. The schema is rendered to SDL and loaded into gqlparser once;
// every document is then run through gqlparser's validation rules.
package validation

import (
	"github.com/pkg/errors"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/vektah/gqlparser/v2/validator"

	"github.com/hanpama/gqlengine/internal/errcode"
	"github.com/hanpama/gqlengine/internal/executor"
	"github.com/hanpama/gqlengine/internal/language"
	"github.com/hanpama/gqlengine/internal/schema"
)

type Validator struct {
	schema *ast.Schema
}

// New loads sch for validation. Introspection members are implied by
// gqlparser, so sch may or may not have been extended with them.
func New(sch *schema.Schema) (*Validator, error) {
	loaded, err := gqlparser.LoadSchema(&ast.Source{Name: "schema.graphql", Input: schema.Render(sch), BuiltIn: false})
	if err != nil {
		return nil, errors.Wrap(err, "load schema for validation")
	}
	return &Validator{schema: loaded}, nil
}

// Validate runs the validation rules over doc.
func (v *Validator) Validate(doc *language.QueryDocument) *executor.Validity {
	return validity(validator.Validate(v.schema, doc))
}

// ParseAndValidate parses query and validates it. Syntax errors are reported
// the same way as rule violations.
func (v *Validator) ParseAndValidate(query string) (*language.QueryDocument, *executor.Validity) {
	doc, validity := Parse(query)
	if doc == nil {
		return nil, validity
	}
	return doc, v.Validate(doc)
}

// Parse parses query without running any rule. A syntax error yields a nil
// document and an invalid verdict.
func Parse(query string) (*language.QueryDocument, *executor.Validity) {
	doc, err := language.ParseQuery(query)
	if err == nil {
		return doc, &executor.Validity{Valid: true}
	}
	return nil, validity(language.Errors(err))
}

func validity(list gqlerror.List) *executor.Validity {
	if len(list) == 0 {
		return &executor.Validity{Valid: true}
	}
	out := make(executor.Errors, 0, len(list))
	for _, e := range list {
		ge := executor.GraphQLError{
			Message:    e.Message,
			Extensions: map[string]any{"code": errcode.Document},
		}
		for _, l := range e.Locations {
			ge.Locations = append(ge.Locations, executor.Location{Line: l.Line, Column: l.Column})
		}
		if e.Rule != "" {
			ge.Extensions["rule"] = e.Rule
		}
		out = append(out, ge)
	}
	return &executor.Validity{Errors: out}
}
