package otel

import (
	"bytes"
	"context"
	"net/http/httptest"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/hanpama/gqlengine/internal/eventbus"
	"github.com/hanpama/gqlengine/internal/executor"
	"github.com/hanpama/gqlengine/internal/schema"
	"github.com/hanpama/gqlengine/internal/server"
)

func TestSpans(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	bus := eventbus.New()
	detach := Attach(bus, tp.Tracer(tracerName))
	defer detach()

	sch, err := schema.BuildFromSDL(`type Query { a: String b: String }`,
		schema.WithResolver("Query.a", func(schema.ResolveParams) (any, error) { return "a", nil }),
		schema.WithResolver("Query.b", func(schema.ResolveParams) (any, error) {
			return nil, status.Error(codes.Unavailable, "down")
		}),
	)
	require.NoError(t, err)
	h, err := server.New(executor.NewExecutor(sch, executor.WithEventBus(bus)), server.WithEventBus(bus))
	require.NoError(t, err)
	defer h.Close()

	req := httptest.NewRequest("POST", "/", bytes.NewBufferString(`{"query":"query Q { a b }"}`))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(httptest.NewRecorder(), req)

	spans := exp.GetSpans()
	byName := map[string][]tracetest.SpanStub{}
	for _, s := range spans {
		byName[s.Name] = append(byName[s.Name], s)
	}
	require.Len(t, byName["http.request"], 1)
	require.Len(t, byName["graphql.operation"], 1)
	require.Len(t, byName["graphql.resolve"], 2)

	httpSpan := byName["http.request"][0]
	op := byName["graphql.operation"][0]
	require.Equal(t, httpSpan.SpanContext.SpanID(), op.Parent.SpanID())
	require.Equal(t, httpSpan.SpanContext.TraceID(), op.SpanContext.TraceID())

	fields := byName["graphql.resolve"]
	sort.Slice(fields, func(i, j int) bool { return attr(fields[i], "graphql.field.path") < attr(fields[j], "graphql.field.path") })
	for _, f := range fields {
		require.Equal(t, op.SpanContext.SpanID(), f.Parent.SpanID())
	}
	require.Equal(t, "OK", attr(fields[0], "grpc.code"))
	require.Equal(t, "Unavailable", attr(fields[1], "grpc.code"))
	require.Len(t, fields[1].Events, 1)

	detach()
	exp.Reset()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/?query=%7Ba%7D", nil))
	require.Empty(t, exp.GetSpans())
}

func attr(s tracetest.SpanStub, key string) string {
	for _, kv := range s.Attributes {
		if string(kv.Key) == key {
			return kv.Value.Emit()
		}
	}
	return ""
}

func TestSetupDisabled(t *testing.T) {
	shutdown, err := Setup(eventbus.New(), "", "svc")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}
