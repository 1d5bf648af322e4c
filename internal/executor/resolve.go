package executor

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/pkg/errors"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/hanpama/gqlengine/internal/coercion"
	"github.com/hanpama/gqlengine/internal/errcode"
	"github.com/hanpama/gqlengine/internal/eventbus"
	"github.com/hanpama/gqlengine/internal/events"
	"github.com/hanpama/gqlengine/internal/language"
	"github.com/hanpama/gqlengine/internal/schema"
)

// executeField resolves and completes one response key of an object. The
// boolean result is false when a null must propagate to the parent. A panic
// raised anywhere below the resolver call (argument hooks, type resolution,
// leaf serialization) is recorded as an INTERNAL error at the field.
func (ex *execution) executeField(ctx context.Context, parentType *schema.Type, source any, cf collectedField, path *schema.Path) (value any, ok bool) {
	field := cf.Fields[0]
	fieldPath := path.WithField(cf.ResponseName)

	if field.Name == "__typename" {
		return parentType.Name, true
	}

	fieldDef := parentType.Field(field.Name)
	if fieldDef == nil {
		// Validation rejects unknown fields; the key is left out.
		return nil, true
	}
	returnType := fieldDef.Type
	defer func() {
		if r := recover(); r != nil {
			ex.recoverPanic(r, fieldPath, cf.Fields)
			value, ok = nil, !returnType.IsNonNull()
		}
	}()

	info := ex.resolveInfo(parentType, fieldDef, cf, fieldPath)

	resolved, err := ex.resolveField(ctx, fieldDef, source, info)
	if err != nil {
		ex.addError(err, fieldPath, cf.Fields)
		return nil, !returnType.IsNonNull()
	}
	return ex.completeValue(ctx, returnType, info, cf.Fields, resolved, fieldPath)
}

// resolveField coerces arguments and directives, then invokes the field's
// resolver. Resolver panics are recovered and returned as errors.
func (ex *execution) resolveField(ctx context.Context, fieldDef *schema.Field, source any, info *schema.ResolveInfo) (any, error) {
	field := info.Fields[0]
	args, err := coercion.CoerceArgumentValues(ex.schema, fieldDef.Arguments, field.Arguments, ex.variables)
	if err != nil {
		return nil, err
	}
	directives, err := ex.fieldDirectives(info.Fields)
	if err != nil {
		return nil, err
	}
	info.Directives = directives

	params := schema.ResolveParams{Context: ctx, Source: source, Args: args, Info: info}
	if fieldDef.Resolve == nil {
		return ex.invoke(ctx, DefaultResolver, params)
	}

	if err := ctx.Err(); err != nil {
		return nil, errcode.Wrap(errcode.Cancelled, err, "")
	}
	if ex.sem != nil {
		if err := ex.sem.Acquire(ctx, 1); err != nil {
			return nil, errcode.Wrap(errcode.Cancelled, err, "")
		}
		defer ex.sem.Release(1)
	}

	publish := eventbus.Enabled[events.FieldFinish](ex.opt.Events)
	var start time.Time
	if publish {
		start = time.Now()
		eventbus.Publish(ex.opt.Events, ctx, events.FieldStart{
			ObjectType: info.ParentType.Name, Field: info.FieldName, Path: info.Path.String(),
		})
	}
	value, err := ex.invoke(ctx, fieldDef.Resolve, params)
	if publish {
		code := codes.OK
		if err != nil {
			code = status.Code(err)
		}
		eventbus.Publish(ex.opt.Events, ctx, events.FieldFinish{
			ObjectType: info.ParentType.Name, Field: info.FieldName, Path: info.Path.String(),
			Err: err, Code: code, Duration: time.Since(start),
		})
	}
	return value, err
}

func (ex *execution) invoke(ctx context.Context, resolve schema.Resolver, p schema.ResolveParams) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r, "internal error in resolver")
			ex.recordPanic(r, err, p.Info.Path)
			value = nil
		}
	}()
	value, err = resolve(p)
	if err != nil && ctx.Err() != nil && errcode.Of(err) == "" {
		err = errcode.Wrap(errcode.Cancelled, err, "")
	}
	return value, err
}

func panicError(r any, message string) error {
	return errcode.Wrap(errcode.Internal, errors.WithStack(fmt.Errorf("%v", r)), "%s", message)
}

// recoverPanic records a panic raised by application code outside the
// resolver call as an INTERNAL error at path.
func (ex *execution) recoverPanic(r any, path *schema.Path, fields []*language.Field) {
	err := panicError(r, "internal error")
	ex.recordPanic(r, err, path)
	ex.addError(err, path, fields)
}

// DefaultResolver is used for fields without a resolver. It reads the field
// from the parent value: a map entry, an exported struct field (matched by
// name or json tag) or a method without arguments returning a value and
// optionally an error. Pointers are followed.
func DefaultResolver(p schema.ResolveParams) (any, error) {
	name := p.Info.FieldName
	source := p.Source
	if source == nil {
		return nil, nil
	}
	if m, ok := source.(map[string]any); ok {
		return m[name], nil
	}

	rv := reflect.ValueOf(source)
	if rv.Kind() == reflect.Ptr && rv.IsNil() {
		return nil, nil
	}
	if v, ok, err := callMethod(rv, name); ok {
		return v, err
	}
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, nil
		}
		v := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key()))
		if !v.IsValid() {
			return nil, nil
		}
		return v.Interface(), nil
	case reflect.Struct:
		if f, ok := structField(rv, name); ok {
			return f.Interface(), nil
		}
		if v, ok, err := callMethod(rv, name); ok {
			return v, err
		}
	}
	return nil, nil
}

func structField(rv reflect.Value, name string) (reflect.Value, bool) {
	rt := rv.Type()
	exported := exportedName(name)
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		if tag, ok := sf.Tag.Lookup("json"); ok {
			tagName, _, _ := strings.Cut(tag, ",")
			if tagName == name {
				return rv.Field(i), true
			}
			if tagName != "" {
				continue
			}
		}
		if sf.Name == name || sf.Name == exported {
			return rv.Field(i), true
		}
	}
	return reflect.Value{}, false
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

func callMethod(rv reflect.Value, name string) (any, bool, error) {
	if !rv.IsValid() {
		return nil, false, nil
	}
	m := rv.MethodByName(exportedName(name))
	if !m.IsValid() {
		return nil, false, nil
	}
	mt := m.Type()
	if mt.NumIn() != 0 {
		return nil, false, nil
	}
	switch mt.NumOut() {
	case 1:
		return m.Call(nil)[0].Interface(), true, nil
	case 2:
		if !mt.Out(1).Implements(errorType) {
			return nil, false, nil
		}
		out := m.Call(nil)
		err, _ := out[1].Interface().(error)
		return out[0].Interface(), true, err
	}
	return nil, false, nil
}

func exportedName(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return name
	}
	return string(unicode.ToUpper(r)) + name[size:]
}
