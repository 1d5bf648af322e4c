package executor

import (
	"github.com/hanpama/gqlengine/internal/language"
	"github.com/hanpama/gqlengine/internal/schema"
)

// collectedField is one response key with every field occurrence that
// feeds it, in document order.
type collectedField struct {
	ResponseName string
	Fields       []*language.Field
}

// fieldGroups accumulates collectedFields in first-seen order.
type fieldGroups struct {
	list []collectedField
	pos  map[string]int
}

func (g *fieldGroups) add(f *language.Field) {
	key := f.Alias
	if key == "" {
		key = f.Name
	}
	if i, ok := g.pos[key]; ok {
		g.list[i].Fields = append(g.list[i].Fields, f)
		return
	}
	g.pos[key] = len(g.list)
	g.list = append(g.list, collectedField{ResponseName: key, Fields: []*language.Field{f}})
}

// collectFields groups the selections that apply to objectType by response
// name, expanding fragments whose type condition matches. Each named
// fragment is expanded once per call.
func (ex *execution) collectFields(objectType *schema.Type, selectionSet language.SelectionSet) []collectedField {
	g := &fieldGroups{pos: make(map[string]int)}
	ex.collectInto(g, objectType, selectionSet, make(map[string]bool))
	return g.list
}

func (ex *execution) collectInto(g *fieldGroups, objectType *schema.Type, selectionSet language.SelectionSet, visited map[string]bool) {
	for _, selection := range selectionSet {
		switch sel := selection.(type) {
		case *language.Field:
			if ex.shouldIncludeNode(sel.Directives) {
				g.add(sel)
			}

		case *language.InlineFragment:
			if ex.shouldIncludeNode(sel.Directives) && ex.doesFragmentTypeApply(objectType, sel.TypeCondition) {
				ex.collectInto(g, objectType, sel.SelectionSet, visited)
			}

		case *language.FragmentSpread:
			if visited[sel.Name] || !ex.shouldIncludeNode(sel.Directives) {
				continue
			}
			def := ex.document.Fragments.ForName(sel.Name)
			if def == nil || !ex.doesFragmentTypeApply(objectType, def.TypeCondition) {
				continue
			}
			visited[sel.Name] = true
			ex.collectInto(g, objectType, def.SelectionSet, visited)
		}
	}
}

// doesFragmentTypeApply reports whether a fragment with the given type
// condition applies to objectType: the names are equal, objectType
// implements the interface, or it is a member of the union.
func (ex *execution) doesFragmentTypeApply(objectType *schema.Type, typeCondition string) bool {
	if typeCondition == "" || typeCondition == objectType.Name {
		return true
	}
	conditional := ex.schema.Types[typeCondition]
	if conditional == nil {
		return false
	}
	return ex.schema.IsPossibleType(conditional, objectType)
}

// subSelections merges the selection sets of every occurrence of a field.
func subSelections(fields []*language.Field) language.SelectionSet {
	if len(fields) == 1 {
		return fields[0].SelectionSet
	}
	var merged language.SelectionSet
	for _, f := range fields {
		merged = append(merged, f.SelectionSet...)
	}
	return merged
}
