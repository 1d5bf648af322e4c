package metrics

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"

	"github.com/hanpama/gqlengine/internal/eventbus"
	"github.com/hanpama/gqlengine/internal/events"
)

func TestAttach(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)
	bus := eventbus.New()
	detach := m.Attach(bus)

	ctx := context.Background()
	eventbus.Publish(bus, ctx, events.HTTPFinish{Status: 200, Operations: 3, Duration: time.Millisecond})
	eventbus.Publish(bus, ctx, events.HTTPFinish{Status: 400})
	eventbus.Publish(bus, ctx, events.GraphQLFinish{OperationType: "query"})
	eventbus.Publish(bus, ctx, events.GraphQLFinish{OperationType: "query", Errors: []error{errors.New("x")}})
	eventbus.Publish(bus, ctx, events.FieldFinish{ObjectType: "Query", Field: "a", Code: codes.NotFound})
	eventbus.Publish(bus, ctx, events.SubscriptionEvent{Field: "ticks"})
	eventbus.Publish(bus, ctx, events.WebSocketOpen{Protocol: "graphql-ws"})
	eventbus.Publish(bus, ctx, events.WebSocketOpen{Protocol: "graphql-ws"})
	eventbus.Publish(bus, ctx, events.WebSocketClose{Protocol: "graphql-ws"})

	require.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("200")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("400")))
	require.Equal(t, 3.0, testutil.ToFloat64(m.httpOperations))
	require.Equal(t, 1.0, testutil.ToFloat64(m.wsConnections.WithLabelValues("graphql-ws")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("query", "ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("query", "error")))
	require.Equal(t, 1, testutil.CollectAndCount(m.resolverDuration))
	require.Equal(t, 1.0, testutil.ToFloat64(m.subscriptionEvents.WithLabelValues("ticks", "ok")))

	detach()
	eventbus.Publish(bus, ctx, events.HTTPFinish{Status: 200})
	require.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("200")))

	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	require.Contains(t, w.Body.String(), "gqlengine_operations_total")
}

func TestNewRejectsDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)
	_, err = New(reg)
	require.Error(t, err)
}
