// Package executor runs GraphQL operations against a schema.Schema whose
// fields carry resolver functions.
//
// # Preparation
//
// Before any resolver runs, the executor:
//  1. Honors the caller's validity signal (Params.Validity): an invalid
//     document is answered with its errors and no data.
//  2. Chooses the operation, by name or by uniqueness when unnamed.
//  3. Coerces the raw variables against the operation's variable
//     definitions (coercion.CoerceVariableValues).
//  4. Coerces every @skip/@include "if" argument reachable from the
//     operation.
//
// A failure in any of these steps is a DOCUMENT error; the result carries
// no "data" key at all.
//
// # Execution Model
//
// Execution is depth-first. For an object value the executor collects the
// fields of its selection set (expanding fragments whose type condition
// matches the object's concrete type and dropping occurrences excluded by
// @skip or @include, @skip winning when both are present), then resolves
// every response key:
//
//   - Fields without a resolver are projections of the parent value; they
//     are read inline by DefaultResolver.
//   - Fields with a resolver run concurrently with their siblings, each in
//     its own goroutine. WithMaxConcurrency bounds the number of resolvers
//     running at once.
//   - Mutation root fields run one after another in document order; a field
//     starts only once the previous field's subtree is complete.
//     WithSerialExecution applies that discipline everywhere.
//
// Elements of a list of composite values complete concurrently too.
// Responses are assembled in selection order regardless of completion
// order: objects are *jsonmap.Ordered values.
//
// # Value Completion
//
//   - Non-Null: a null value, or an inner completion that failed, records
//     one error at the originating path and makes the enclosing position
//     null. The null travels up to the nearest nullable ancestor; when none
//     exists the response data is null.
//   - List: the shape is checked first (coercion.CanSerializeList); a null
//     element in a Non-Null element position nulls the list with one error
//     at the element's index. Elements are then completed with index-aware
//     paths.
//   - Leaf: scalars serialize through their ScalarCoercer, enums through
//     schema.SerializeEnum. Scalars implementing schema.NullSerializer turn
//     null results in nullable positions into their own external form.
//   - Abstract: the concrete type comes from the abstract type's
//     ResolveType, then the schema's, then the first possible type whose
//     IsTypeOf accepts the value. Resolution always happens, even for
//     selections that only ask for __typename.
//   - Object: an IsTypeOf predicate, when present, must accept the value.
//
// # Errors and Partial Success
//
// Every runtime failure is caught at the field boundary: argument coercion
// errors, resolver errors, recovered panics, serialization and abstract type
// failures become located errors carrying an errcode in the "code"
// extension, and sibling fields continue. A cancelled context stops new
// resolver invocations; each field that did not get to run records a
// CANCELLED error and the values already produced are kept.
//
// # Subscriptions
//
// Subscribe opens the source of the subscription root field and executes
// the selection set once per event, delivering one ExecutionResult per
// event on the returned channel.
package executor
