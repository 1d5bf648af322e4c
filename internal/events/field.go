package events

import (
	"time"

	"google.golang.org/grpc/codes"
)

// FieldStart is emitted before a field resolver is invoked. Projections of
// the parent value that have no resolver are not reported.
type FieldStart struct {
	ObjectType string
	Field      string
	Path       string
}

// FieldFinish is emitted after a field resolver returns.
type FieldFinish struct {
	ObjectType string
	Field      string
	Path       string
	Err        error
	// Code is the gRPC status code carried by Err, codes.OK when Err is nil
	// and codes.Unknown for errors without a status.
	Code     codes.Code
	Duration time.Duration
}
