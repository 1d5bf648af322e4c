package executor

import (
	"github.com/hanpama/gqlengine/internal/coercion"
	"github.com/hanpama/gqlengine/internal/errcode"
	"github.com/hanpama/gqlengine/internal/language"
	"github.com/hanpama/gqlengine/internal/schema"
)

// conditionIf coerces the "if" argument of a skip or include occurrence.
func (ex *execution) conditionIf(d *language.Directive) (bool, error) {
	def := ex.schema.Directives[d.Name]
	if def == nil {
		if d.Name == "skip" {
			def = schema.SkipDirective()
		} else {
			def = schema.IncludeDirective()
		}
	}
	args, err := coercion.CoerceArgumentValues(ex.schema, def.Arguments, d.Arguments, ex.variables)
	if err != nil {
		return false, errcode.Wrap(errcode.Document, err, "Directive @%s", d.Name)
	}
	v, _ := args["if"].(bool)
	return v, nil
}

// shouldIncludeNode evaluates @skip and @include on one occurrence. @skip
// wins when both are present. Arguments were checked before execution, so a
// coercion failure here keeps the node.
func (ex *execution) shouldIncludeNode(directives language.DirectiveList) bool {
	if skip := directives.ForName("skip"); skip != nil {
		if v, err := ex.conditionIf(skip); err == nil && v {
			return false
		}
	}
	if include := directives.ForName("include"); include != nil {
		if v, err := ex.conditionIf(include); err == nil && !v {
			return false
		}
	}
	return true
}

// checkConditionalDirectives coerces every skip/include argument reachable
// from the operation so that a bad argument is reported as a document error
// before any resolver runs.
func (ex *execution) checkConditionalDirectives() []error {
	var errs []error
	visited := map[string]bool{}
	var walk func(set language.SelectionSet)
	check := func(list language.DirectiveList) {
		for _, d := range list {
			if d.Name != "skip" && d.Name != "include" {
				continue
			}
			if _, err := ex.conditionIf(d); err != nil {
				errs = append(errs, err)
			}
		}
	}
	walk = func(set language.SelectionSet) {
		for _, selection := range set {
			switch sel := selection.(type) {
			case *language.Field:
				check(sel.Directives)
				walk(sel.SelectionSet)
			case *language.InlineFragment:
				check(sel.Directives)
				walk(sel.SelectionSet)
			case *language.FragmentSpread:
				check(sel.Directives)
				if visited[sel.Name] {
					continue
				}
				visited[sel.Name] = true
				if def := ex.document.Fragments.ForName(sel.Name); def != nil {
					walk(def.SelectionSet)
				}
			}
		}
	}
	walk(ex.operation.SelectionSet)
	return errs
}

// fieldDirectives coerces the document directives applied to a field
// occurrence, skip and include excluded. Directives unknown to the schema
// are ignored. Parser and Validator hooks on directive arguments run here,
// at the same point as the field's own arguments.
func (ex *execution) fieldDirectives(fields []*language.Field) ([]*schema.AppliedDirective, error) {
	var out []*schema.AppliedDirective
	for _, f := range fields {
		for _, d := range f.Directives {
			if d.Name == "skip" || d.Name == "include" {
				continue
			}
			def := ex.schema.Directives[d.Name]
			if def == nil {
				continue
			}
			args, err := coercion.CoerceArgumentValues(ex.schema, def.Arguments, d.Arguments, ex.variables)
			if err != nil {
				return nil, errcode.Wrap(errcode.Of(err), err, "Directive @%s", d.Name)
			}
			out = append(out, &schema.AppliedDirective{Name: d.Name, Args: args})
		}
	}
	return out, nil
}
