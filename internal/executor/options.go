package executor

import (
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/hanpama/gqlengine/internal/eventbus"
)

type Options struct {
	// Logger receives recovered panics and subscription lifecycle messages.
	Logger *zap.Logger

	// MaxConcurrency bounds the number of resolvers running at once within
	// one executor. 0 means unbounded.
	MaxConcurrency int64

	// Serial resolves every selection set in document order, one field at a
	// time. Mutation root fields are always serial.
	Serial bool

	// PropagatePanics re-raises the first panic recovered from a resolver or
	// another application hook from Execute once the response has been
	// assembled.
	PropagatePanics bool

	// Events receives operation and resolver events. nil disables them.
	Events *eventbus.Bus
}

type Option func(*Options)

func WithLogger(l *zap.Logger) Option     { return func(o *Options) { o.Logger = l } }
func WithMaxConcurrency(n int64) Option   { return func(o *Options) { o.MaxConcurrency = n } }
func WithSerialExecution() Option         { return func(o *Options) { o.Serial = true } }
func WithPanicPropagation() Option        { return func(o *Options) { o.PropagatePanics = true } }
func WithEventBus(b *eventbus.Bus) Option { return func(o *Options) { o.Events = b } }

func (o *Options) semaphore() *semaphore.Weighted {
	if o.MaxConcurrency <= 0 {
		return nil
	}
	return semaphore.NewWeighted(o.MaxConcurrency)
}
