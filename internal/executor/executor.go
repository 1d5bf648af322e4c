package executor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/hanpama/gqlengine/internal/coercion"
	"github.com/hanpama/gqlengine/internal/errcode"
	"github.com/hanpama/gqlengine/internal/eventbus"
	"github.com/hanpama/gqlengine/internal/events"
	"github.com/hanpama/gqlengine/internal/language"
	"github.com/hanpama/gqlengine/internal/schema"
)

type Executor struct {
	schema *schema.Schema
	opt    Options
	sem    *semaphore.Weighted
}

// NewExecutor returns an executor over sch. sch must have passed Validate
// and must not be modified afterwards.
func NewExecutor(sch *schema.Schema, opts ...Option) *Executor {
	opt := Options{Logger: zap.NewNop()}
	for _, f := range opts {
		f(&opt)
	}
	if opt.Logger == nil {
		opt.Logger = zap.NewNop()
	}
	return &Executor{schema: sch, opt: opt, sem: opt.semaphore()}
}

// Schema returns the schema the executor runs against.
func (e *Executor) Schema() *schema.Schema { return e.schema }

// Validity is the outcome of document validation performed by the caller.
type Validity struct {
	Valid  bool
	Errors Errors
}

// Params describes one request.
type Params struct {
	Document      *language.QueryDocument
	OperationName string
	// Variables holds the raw variable inputs, typically decoded JSON.
	Variables map[string]any
	RootValue any
	// Validity, when set and not valid, short-circuits execution with its
	// errors.
	Validity *Validity
	// Query is the request text; only reported in events.
	Query string
}

// execution holds the state of one operation.
type execution struct {
	*Executor
	document  *language.QueryDocument
	operation *language.OperationDefinition
	variables map[string]any
	rootValue any
	errors    errorList

	panicMu sync.Mutex
	panic   any
}

// ExecuteRequest runs the operation named operationName (or the only one)
// of document.
func (e *Executor) ExecuteRequest(
	ctx context.Context,
	document *language.QueryDocument,
	operationName string,
	variableValues map[string]any,
	initialValue any,
) *ExecutionResult {
	return e.Execute(ctx, Params{
		Document:      document,
		OperationName: operationName,
		Variables:     variableValues,
		RootValue:     initialValue,
	})
}

// Execute runs a query or mutation. Requests rejected before execution
// (invalid document, unknown operation, bad variables) produce a result
// without data; every later failure is recorded in the error list next to
// best-effort data.
func (e *Executor) Execute(ctx context.Context, p Params) *ExecutionResult {
	ex, res := e.prepare(p)
	if res != nil {
		return res
	}
	if ex.operation.Operation == language.Subscription {
		return documentErrors(errcode.New(errcode.Document, "subscription operations must be run with Subscribe"))
	}

	start := time.Now()
	opType := string(ex.operation.Operation)
	eventbus.Publish(e.opt.Events, ctx, events.GraphQLStart{
		Query: p.Query, OperationName: ex.operation.Name, OperationType: opType,
	})

	rootType := ex.rootType()
	serial := e.opt.Serial || ex.operation.Operation == language.Mutation
	data, _ := ex.executeSelectionSet(ctx, rootType, ex.operation.SelectionSet, ex.rootValue, nil, serial)

	result := &ExecutionResult{Errors: ex.errors.list()}
	if data != nil {
		result.Data = data
	}

	eventbus.Publish(e.opt.Events, ctx, events.GraphQLFinish{
		Query: p.Query, OperationName: ex.operation.Name, OperationType: opType,
		Errors: result.Errors.AsErrors(), Duration: time.Since(start),
	})

	if e.opt.PropagatePanics {
		ex.panicMu.Lock()
		v := ex.panic
		ex.panicMu.Unlock()
		if v != nil {
			panic(v)
		}
	}
	return result
}

// prepare runs the pre-execution steps shared by Execute and Subscribe:
// validity, operation selection, variable coercion and conditional directive
// arguments. A non-nil result means execution must not start.
func (e *Executor) prepare(p Params) (ex *execution, res *ExecutionResult) {
	// Variable and directive coercion run input value hooks.
	defer func() {
		if r := recover(); r != nil {
			if e.opt.PropagatePanics {
				panic(r)
			}
			err := panicError(r, "internal error coercing request values")
			e.opt.Logger.Error("recovered panic", zap.Error(err))
			ex, res = nil, documentErrors(err)
		}
	}()
	if p.Validity != nil && !p.Validity.Valid {
		errs := make([]error, len(p.Validity.Errors))
		for i, ve := range p.Validity.Errors {
			errs[i] = ve
		}
		if len(errs) == 0 {
			errs = append(errs, errcode.New(errcode.Document, "document is not valid"))
		}
		return nil, documentErrors(errs...)
	}
	if p.Document == nil {
		return nil, documentErrors(errcode.New(errcode.Document, "no document"))
	}

	operation, err := getOperation(p.Document, p.OperationName)
	if err != nil {
		return nil, documentErrors(err)
	}

	variables, errs := coercion.CoerceVariableValues(e.schema, operation, p.Variables)
	if len(errs) > 0 {
		return nil, documentErrors(errs...)
	}

	ex = &execution{
		Executor:  e,
		document:  p.Document,
		operation: operation,
		variables: variables,
		rootValue: p.RootValue,
	}
	if ex.rootType() == nil {
		return nil, documentErrors(errcode.New(errcode.Document, "schema does not support %s operations", operation.Operation))
	}
	if errs := ex.checkConditionalDirectives(); len(errs) > 0 {
		return nil, documentErrors(errs...)
	}
	return ex, nil
}

func (ex *execution) rootType() *schema.Type {
	switch ex.operation.Operation {
	case language.Query:
		return ex.schema.GetQueryType()
	case language.Mutation:
		return ex.schema.GetMutationType()
	case language.Subscription:
		return ex.schema.GetSubscriptionType()
	}
	return nil
}

// getOperation retrieves the operation from the document
func getOperation(document *language.QueryDocument, operationName string) (*language.OperationDefinition, error) {
	if operationName == "" {
		switch len(document.Operations) {
		case 0:
			return nil, errcode.New(errcode.Document, "document contains no operations")
		case 1:
			return document.Operations[0], nil
		default:
			return nil, errcode.New(errcode.Document, "operation name is required when the document contains multiple operations")
		}
	}
	if op := document.Operations.ForName(operationName); op != nil {
		return op, nil
	}
	return nil, errcode.New(errcode.Document, "unknown operation named %q", operationName)
}

func (ex *execution) addError(err error, path *schema.Path, fields []*language.Field) {
	ex.errors.add(toGraphQLError(err, path, fields))
}

// recordPanic logs a recovered panic and keeps the first one for
// PropagatePanics.
func (ex *execution) recordPanic(v any, err error, path *schema.Path) {
	ex.opt.Logger.Error("recovered panic",
		zap.String("operation", ex.operation.Name),
		zap.Stringer("path", path),
		zap.Error(err))
	ex.panicMu.Lock()
	if ex.panic == nil {
		ex.panic = v
	}
	ex.panicMu.Unlock()
}

func nonNullViolation(parent *schema.Type, fieldName string) error {
	return errcode.New(errcode.Resolver, "Cannot return null for non-nullable field %s.%s.", parent.Name, fieldName)
}
