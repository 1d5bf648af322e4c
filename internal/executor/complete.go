package executor

import (
	"context"
	"reflect"

	"github.com/dolmen-go/jsonmap"
	"golang.org/x/sync/errgroup"

	"github.com/hanpama/gqlengine/internal/coercion"
	"github.com/hanpama/gqlengine/internal/errcode"
	"github.com/hanpama/gqlengine/internal/language"
	"github.com/hanpama/gqlengine/internal/schema"
)

// executeSelectionSet resolves the fields of one object value. Fields backed
// by a resolver run concurrently unless serial is set; projections of the
// source value are resolved inline. Keys keep selection order. A nil result
// with false means a non-null field failed and the object itself is null.
func (ex *execution) executeSelectionSet(ctx context.Context, objectType *schema.Type, selectionSet language.SelectionSet, source any, path *schema.Path, serial bool) (*jsonmap.Ordered, bool) {
	grouped := ex.collectFields(objectType, selectionSet)
	values := make([]any, len(grouped))
	oks := make([]bool, len(grouped))
	known := make([]bool, len(grouped))

	var g errgroup.Group
	for i, cf := range grouped {
		name := cf.Fields[0].Name
		def := objectType.Field(name)
		known[i] = def != nil || name == "__typename"
		if !known[i] {
			continue
		}
		if !serial && def != nil && def.Resolve != nil {
			g.Go(func() error {
				values[i], oks[i] = ex.executeField(ctx, objectType, source, cf, path)
				return nil
			})
			continue
		}
		values[i], oks[i] = ex.executeField(ctx, objectType, source, cf, path)
	}
	_ = g.Wait()

	obj := &jsonmap.Ordered{
		Data:  make(map[string]any, len(grouped)),
		Order: make([]string, 0, len(grouped)),
	}
	for i, cf := range grouped {
		if !known[i] {
			continue
		}
		if !oks[i] {
			return nil, false
		}
		obj.Order = append(obj.Order, cf.ResponseName)
		obj.Data[cf.ResponseName] = values[i]
	}
	return obj, true
}

// completeValue shapes a resolved value according to typ. The boolean result
// is false when the position is Non-Null and its value could not be
// produced; exactly one error has then been recorded below this position.
func (ex *execution) completeValue(ctx context.Context, typ *schema.TypeRef, info *schema.ResolveInfo, fields []*language.Field, value any, path *schema.Path) (any, bool) {
	if typ.IsNonNull() {
		if coercion.IsNil(value) {
			ex.addError(nonNullViolation(info.ParentType, info.FieldName), path, fields)
			return nil, false
		}
		v, ok := ex.completeNullable(ctx, typ.OfType, info, fields, value, path)
		if !ok {
			return nil, false
		}
		if v == nil {
			ex.addError(nonNullViolation(info.ParentType, info.FieldName), path, fields)
			return nil, false
		}
		return v, true
	}
	v, ok := ex.completeNullable(ctx, typ, info, fields, value, path)
	if !ok {
		return nil, true
	}
	return v, true
}

// completeNullable completes a value for a nullable type. false means an
// error was recorded and the position is null.
func (ex *execution) completeNullable(ctx context.Context, typ *schema.TypeRef, info *schema.ResolveInfo, fields []*language.Field, value any, path *schema.Path) (any, bool) {
	if coercion.IsNil(value) {
		if t := ex.schema.Types[typ.Named]; t != nil && typ.Kind == schema.TypeRefKindNamed && t.Kind == schema.TypeKindScalar {
			if ns, ok := schema.ScalarOf(t).(schema.NullSerializer); ok && ns.HandlesNull() {
				return ex.completeLeaf(t, fields, nil, path)
			}
		}
		return nil, true
	}
	if typ.IsList() {
		return ex.completeList(ctx, typ, info, fields, value, path)
	}

	t := ex.schema.Types[typ.Named]
	if t == nil {
		ex.addError(errcode.New(errcode.Internal, "Unknown type %q", typ.Named), path, fields)
		return nil, false
	}
	switch t.Kind {
	case schema.TypeKindScalar, schema.TypeKindEnum:
		return ex.completeLeaf(t, fields, value, path)
	case schema.TypeKindObject:
		return ex.completeObject(ctx, t, fields, value, path, true)
	case schema.TypeKindInterface, schema.TypeKindUnion:
		objectType, err := ex.resolveAbstractType(ctx, t, value, info)
		if err != nil {
			ex.addError(err, path, fields)
			return nil, false
		}
		return ex.completeObject(ctx, objectType, fields, value, path, false)
	}
	ex.addError(errcode.New(errcode.Internal, "Cannot complete value of unexpected type %q", t.Name), path, fields)
	return nil, false
}

// completeList completes every element with an index-aware path. A null
// element in a Non-Null element position nulls the whole list; the shape is
// checked before any element is completed.
func (ex *execution) completeList(ctx context.Context, typ *schema.TypeRef, info *schema.ResolveInfo, fields []*language.Field, value any, path *schema.Path) (any, bool) {
	if k := reflect.ValueOf(value).Kind(); k != reflect.Slice && k != reflect.Array {
		ex.addError(errcode.New(errcode.Resolver,
			"Expected Iterable, but did not find one for field %s.%s.", info.ParentType.Name, info.FieldName), path, fields)
		return nil, false
	}
	items := coercion.ToList(value)
	elemType := typ.OfType

	if !coercion.CanSerializeList(items, elemType.IsNonNull()) {
		for i, item := range items {
			if coercion.IsNil(item) {
				ex.addError(nonNullViolation(info.ParentType, info.FieldName), path.WithIndex(i), fields)
				break
			}
		}
		return nil, false
	}

	completed := make([]any, len(items))
	oks := make([]bool, len(items))
	if ex.opt.Serial || len(items) < 2 || ex.isLeaf(elemType) {
		for i, item := range items {
			completed[i], oks[i] = ex.completeRecovering(ctx, elemType, info, fields, item, path.WithIndex(i))
		}
	} else {
		var g errgroup.Group
		for i, item := range items {
			g.Go(func() error {
				completed[i], oks[i] = ex.completeRecovering(ctx, elemType, info, fields, item, path.WithIndex(i))
				return nil
			})
		}
		_ = g.Wait()
	}
	for _, ok := range oks {
		if !ok {
			return nil, false
		}
	}
	return completed, true
}

// completeRecovering is completeValue for positions without an enclosing
// executeField (list elements, subscription events). A panic is recorded as
// an INTERNAL error at path.
func (ex *execution) completeRecovering(ctx context.Context, typ *schema.TypeRef, info *schema.ResolveInfo, fields []*language.Field, item any, path *schema.Path) (value any, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ex.recoverPanic(r, path, fields)
			value, ok = nil, !typ.IsNonNull()
		}
	}()
	return ex.completeValue(ctx, typ, info, fields, item, path)
}

func (ex *execution) isLeaf(typ *schema.TypeRef) bool {
	t := ex.schema.Types[typ.GetNamedType()]
	return t != nil && t.IsLeaf()
}

func (ex *execution) completeLeaf(t *schema.Type, fields []*language.Field, value any, path *schema.Path) (any, bool) {
	var (
		out any
		err error
	)
	if t.Kind == schema.TypeKindEnum {
		out, err = schema.SerializeEnum(t, value)
	} else {
		out, err = schema.ScalarOf(t).Serialize(value)
	}
	if err != nil {
		ex.addError(err, path, fields)
		return nil, false
	}
	return out, true
}

func (ex *execution) completeObject(ctx context.Context, objectType *schema.Type, fields []*language.Field, value any, path *schema.Path, checkIsTypeOf bool) (any, bool) {
	if checkIsTypeOf && objectType.IsTypeOf != nil && !objectType.IsTypeOf(ctx, value) {
		ex.addError(errcode.New(errcode.Resolver, "Expected value of type %q but got: %T.", objectType.Name, value), path, fields)
		return nil, false
	}
	obj, ok := ex.executeSelectionSet(ctx, objectType, subSelections(fields), value, path, ex.opt.Serial)
	if !ok {
		return nil, false
	}
	return obj, true
}
