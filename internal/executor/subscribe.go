package executor

import (
	"context"
	"time"

	"github.com/dolmen-go/jsonmap"
	"go.uber.org/zap"

	"github.com/hanpama/gqlengine/internal/coercion"
	"github.com/hanpama/gqlengine/internal/errcode"
	"github.com/hanpama/gqlengine/internal/eventbus"
	"github.com/hanpama/gqlengine/internal/events"
	"github.com/hanpama/gqlengine/internal/language"
	"github.com/hanpama/gqlengine/internal/schema"
)

// Subscribe opens the event source of a subscription operation and returns a
// channel with one response per source event. Failing to open the source,
// and every pre-execution failure, is returned as Errors before any event
// is delivered. An event that is itself an error produces a response
// carrying only that error; the stream goes on until the source closes or
// ctx is done, after which the channel is closed.
//
// The root field's Resolve, if any, maps each event to the field value;
// without one the event is the field value.
func (e *Executor) Subscribe(ctx context.Context, p Params) (<-chan *ExecutionResult, error) {
	ex, res := e.prepare(p)
	if res != nil {
		return nil, res.Errors
	}
	if ex.operation.Operation != language.Subscription {
		return nil, documentErrors(errcode.New(errcode.Document, "operation %q is not a subscription", ex.operation.Name)).Errors
	}

	rootType := ex.rootType()
	grouped := ex.collectFields(rootType, ex.operation.SelectionSet)
	if len(grouped) != 1 {
		return nil, documentErrors(errcode.New(errcode.Document, "subscription must select exactly one top level field")).Errors
	}
	cf := grouped[0]
	fieldDef := rootType.Field(cf.Fields[0].Name)
	if fieldDef == nil || fieldDef.Subscribe == nil {
		return nil, documentErrors(errcode.New(errcode.Document,
			"field %s.%s is not a subscription source", rootType.Name, cf.Fields[0].Name)).Errors
	}

	path := (*schema.Path)(nil).WithField(cf.ResponseName)
	source, err := ex.openSource(ctx, rootType, fieldDef, cf, path)
	if err != nil {
		return nil, Errors{toGraphQLError(err, path, cf.Fields)}
	}

	log := e.opt.Logger.With(zap.String("operation", ex.operation.Name), zap.String("field", fieldDef.Name))
	log.Debug("subscription started")

	out := make(chan *ExecutionResult)
	go func() {
		defer close(out)
		defer log.Debug("subscription finished")
		for {
			var (
				event any
				ok    bool
			)
			select {
			case <-ctx.Done():
				return
			case event, ok = <-source:
			}
			if !ok {
				return
			}

			start := time.Now()
			result := ex.executeEvent(ctx, rootType, fieldDef, cf, path, event)
			eventbus.Publish(e.opt.Events, ctx, events.SubscriptionEvent{
				OperationName: ex.operation.Name,
				Field:         fieldDef.Name,
				Errors:        result.Errors.AsErrors(),
				Duration:      time.Since(start),
			})

			select {
			case out <- result:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (ex *execution) openSource(ctx context.Context, rootType *schema.Type, fieldDef *schema.Field, cf collectedField, path *schema.Path) (source <-chan any, err error) {
	defer func() {
		if r := recover(); r != nil {
			source = nil
			err = panicError(r, "internal error opening subscription")
			ex.recordPanic(r, err, path)
		}
	}()
	args, err := coercion.CoerceArgumentValues(ex.schema, fieldDef.Arguments, cf.Fields[0].Arguments, ex.variables)
	if err != nil {
		return nil, err
	}
	directives, err := ex.fieldDirectives(cf.Fields)
	if err != nil {
		return nil, err
	}
	info := ex.resolveInfo(rootType, fieldDef, cf, path)
	info.Directives = directives

	source, err = fieldDef.Subscribe(schema.ResolveParams{Context: ctx, Source: ex.rootValue, Args: args, Info: info})
	if err == nil && source == nil {
		err = errcode.New(errcode.Resolver, "subscription source for %s.%s is nil", rootType.Name, fieldDef.Name)
	}
	return source, err
}

// executeEvent builds the response for one source event. Each event gets its
// own error list.
func (ex *execution) executeEvent(ctx context.Context, rootType *schema.Type, fieldDef *schema.Field, cf collectedField, path *schema.Path, event any) *ExecutionResult {
	if err, ok := event.(error); ok {
		return &ExecutionResult{Errors: Errors{toGraphQLError(err, path, cf.Fields)}}
	}

	run := &execution{
		Executor:  ex.Executor,
		document:  ex.document,
		operation: ex.operation,
		variables: ex.variables,
		rootValue: event,
	}

	var (
		value any
		ok    bool
	)
	if fieldDef.Resolve != nil {
		value, ok = run.executeField(ctx, rootType, event, cf, nil)
	} else {
		info := run.resolveInfo(rootType, fieldDef, cf, path)
		value, ok = run.completeRecovering(ctx, fieldDef.Type, info, cf.Fields, event, path)
	}

	result := &ExecutionResult{Errors: run.errors.list()}
	if ok {
		result.Data = &jsonmap.Ordered{
			Data:  map[string]any{cf.ResponseName: value},
			Order: []string{cf.ResponseName},
		}
	}
	return result
}

func (ex *execution) resolveInfo(parentType *schema.Type, fieldDef *schema.Field, cf collectedField, path *schema.Path) *schema.ResolveInfo {
	return &schema.ResolveInfo{
		FieldName:       fieldDef.Name,
		ResponseName:    cf.ResponseName,
		ParentType:      parentType,
		ReturnType:      fieldDef.Type,
		Path:            path,
		Operation:       ex.operation,
		Fields:          cf.Fields,
		Variables:       ex.variables,
		RootValue:       ex.rootValue,
		Schema:          ex.schema,
		FieldDefinition: fieldDef,
	}
}
