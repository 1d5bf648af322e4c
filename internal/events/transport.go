// Package events holds the payloads published on the event bus by the
// server and the executor. The context an event is published with carries
// the request ID of the HTTP request or websocket operation.
package events

import (
	"net/http"
	"time"
)

// HTTPStart is published when a plain HTTP request reaches the handler.
type HTTPStart struct {
	Request *http.Request
}

// HTTPFinish is published once the response has been written. Operations
// counts the GraphQL operations the body carried; it is 0 when the request
// was rejected before parsing.
type HTTPFinish struct {
	Request    *http.Request
	Status     int
	Operations int
	Duration   time.Duration
}

// WebSocketOpen is published after a connection was upgraded and a
// sub-protocol negotiated.
type WebSocketOpen struct {
	Protocol string
}

// WebSocketClose is published when the connection is gone and all of its
// operations have stopped.
type WebSocketClose struct {
	Protocol   string
	Operations int
	Duration   time.Duration
}
