package events

import "time"

// GraphQLStart is published before an operation's root selection set runs.
// Documents rejected before execution publish no start event.
type GraphQLStart struct {
	Query         string
	OperationName string
	// OperationType is "query", "mutation" or "subscription".
	OperationType string
}

// GraphQLFinish pairs with GraphQLStart. Errors are every error recorded in
// the response, field errors included.
type GraphQLFinish struct {
	Query         string
	OperationName string
	OperationType string
	Errors        []error
	Duration      time.Duration
}

// SubscriptionEvent is published for every source event executed by a
// subscription, after its response has been built.
type SubscriptionEvent struct {
	OperationName string
	Field         string
	Errors        []error
	Duration      time.Duration
}
