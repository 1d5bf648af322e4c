// Package language exposes the GraphQL document model the engine consumes.
// Parsing is done by gqlparser and the node types are aliases of its AST.
package language

import (
	"errors"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/vektah/gqlparser/v2/parser"
)

// ParseQuery parses an executable document.
func ParseQuery(source string) (*QueryDocument, error) {
	doc, err := parser.ParseQuery(&ast.Source{Input: source})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ParseSchema parses a type system document. name is reported in error
// locations.
func ParseSchema(name, source string) (*SchemaDocument, error) {
	doc, err := parser.ParseSchema(&ast.Source{Name: name, Input: source})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Errors flattens err into located errors. Parser and validator errors keep
// their locations; anything else becomes a single error without one.
func Errors(err error) List {
	if err == nil {
		return nil
	}
	var list gqlerror.List
	if errors.As(err, &list) {
		return list
	}
	var located *gqlerror.Error
	if errors.As(err, &located) {
		return List{located}
	}
	return List{gqlerror.Wrap(err)}
}
