// Package metrics exports request, operation and resolver metrics in the
// Prometheus format. Metrics are fed from the event bus.
package metrics

import (
	"context"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hanpama/gqlengine/internal/eventbus"
	"github.com/hanpama/gqlengine/internal/events"
)

const namespace = "gqlengine"

type Metrics struct {
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
	httpOperations     prometheus.Counter
	wsConnections      *prometheus.GaugeVec
	operations         *prometheus.CounterVec
	operationDuration  *prometheus.HistogramVec
	resolverDuration   *prometheus.HistogramVec
	subscriptionEvents *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "http_requests_total",
			Help: "HTTP requests served, by status code.",
		}, []string{"status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"status"}),
		httpOperations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "http_operations_total",
			Help: "GraphQL operations carried by HTTP requests; a batch counts each member.",
		}),
		wsConnections: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "websocket_connections",
			Help: "Open websocket connections, by sub-protocol.",
		}, []string{"protocol"}),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "operations_total",
			Help: "Executed GraphQL operations, by type and outcome.",
		}, []string{"type", "result"}),
		operationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "operation_duration_seconds",
			Help:    "GraphQL operation latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"type"}),
		resolverDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "resolver_duration_seconds",
			Help:    "Field resolver latency, by field and gRPC code.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"field", "code"}),
		subscriptionEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "subscription_events_total",
			Help: "Source events executed by subscriptions, by root field and outcome.",
		}, []string{"field", "result"}),
	}
	for _, c := range []prometheus.Collector{
		m.httpRequests, m.httpDuration, m.httpOperations, m.wsConnections, m.operations,
		m.operationDuration, m.resolverDuration, m.subscriptionEvents,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func result(errs []error) string {
	if len(errs) > 0 {
		return "error"
	}
	return "ok"
}

// Attach feeds m from the events published on bus. The returned function
// detaches it.
func (m *Metrics) Attach(bus *eventbus.Bus) (detach func()) {
	unsubscribe := []func(){
		eventbus.Subscribe(bus, func(_ context.Context, e events.HTTPFinish) {
			status := strconv.Itoa(e.Status)
			m.httpRequests.WithLabelValues(status).Inc()
			m.httpDuration.WithLabelValues(status).Observe(e.Duration.Seconds())
			m.httpOperations.Add(float64(e.Operations))
		}),
		eventbus.Subscribe(bus, func(_ context.Context, e events.WebSocketOpen) {
			m.wsConnections.WithLabelValues(e.Protocol).Inc()
		}),
		eventbus.Subscribe(bus, func(_ context.Context, e events.WebSocketClose) {
			m.wsConnections.WithLabelValues(e.Protocol).Dec()
		}),
		eventbus.Subscribe(bus, func(_ context.Context, e events.GraphQLFinish) {
			m.operations.WithLabelValues(e.OperationType, result(e.Errors)).Inc()
			m.operationDuration.WithLabelValues(e.OperationType).Observe(e.Duration.Seconds())
		}),
		eventbus.Subscribe(bus, func(_ context.Context, e events.FieldFinish) {
			m.resolverDuration.WithLabelValues(e.ObjectType+"."+e.Field, e.Code.String()).Observe(e.Duration.Seconds())
		}),
		eventbus.Subscribe(bus, func(_ context.Context, e events.SubscriptionEvent) {
			m.subscriptionEvents.WithLabelValues(e.Field, result(e.Errors)).Inc()
		}),
	}
	return func() {
		for _, f := range unsubscribe {
			f()
		}
	}
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
