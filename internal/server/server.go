package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"google.golang.org/grpc/metadata"

	"github.com/hanpama/gqlengine/internal/eventbus"
	"github.com/hanpama/gqlengine/internal/events"
	"github.com/hanpama/gqlengine/internal/executor"
	"github.com/hanpama/gqlengine/internal/reqid"
	"github.com/hanpama/gqlengine/internal/validation"
)

// Handler is an http.Handler that serves a GraphQL endpoint.
// It parses requests, runs the executor, and writes GraphQL-over-HTTP responses.
// Websocket upgrades are served as subscription connections.
type Handler struct {
	exec      *executor.Executor
	validator *validation.Validator
	docs      *documentCache
	opt       Options
}

type Options struct {
	// Timeout sets a default timeout if the incoming request context has none.
	// 0 means no default timeout. Websocket connections are not affected.
	Timeout time.Duration

	// Pretty enables indented JSON responses (useful for dev).
	Pretty bool

	// MaxBodyBytes limits the size of the request body. 0 means unlimited.
	MaxBodyBytes int64

	// CORS configuration. If AllowedOrigins is empty, CORS is disabled.
	CORS CORSOptions

	// MetadataHeaders lists HTTP headers to forward into gRPC metadata.
	// Header names are case-insensitive. Default is none.
	MetadataHeaders []string

	// GraphiQL enables the in-browser IDE when true.
	GraphiQL bool

	// Validation runs the validation rules over every new document.
	Validation bool

	// DocumentCacheSize is the number of parsed documents kept. 0 disables
	// the cache.
	DocumentCacheSize int64

	// KeepAlive is the interval of "ka" messages on legacy graphql-ws
	// connections. 0 disables them.
	KeepAlive time.Duration

	// InitTimeout bounds the wait for connection_init on a new websocket.
	InitTimeout time.Duration

	Logger *zap.Logger

	// RootValue is the root value of every operation.
	RootValue any

	// Events receives HTTP request events. nil disables them.
	Events *eventbus.Bus
}

type Option func(*Options)

func WithTimeout(d time.Duration) Option { return func(o *Options) { o.Timeout = d } }
func WithPretty() Option                 { return func(o *Options) { o.Pretty = true } }
func WithMaxBodyBytes(n int64) Option    { return func(o *Options) { o.MaxBodyBytes = n } }
func WithCORS(origins ...string) Option {
	return func(o *Options) { o.CORS.AllowedOrigins = origins }
}
func WithMetadataHeaders(headers ...string) Option {
	return func(o *Options) { o.MetadataHeaders = headers }
}
func WithValidation(enable bool) Option      { return func(o *Options) { o.Validation = enable } }
func WithDocumentCache(size int64) Option    { return func(o *Options) { o.DocumentCacheSize = size } }
func WithKeepAlive(d time.Duration) Option   { return func(o *Options) { o.KeepAlive = d } }
func WithInitTimeout(d time.Duration) Option { return func(o *Options) { o.InitTimeout = d } }
func WithLogger(l *zap.Logger) Option        { return func(o *Options) { o.Logger = l } }
func WithEventBus(b *eventbus.Bus) Option    { return func(o *Options) { o.Events = b } }
func WithRootValue(v any) Option             { return func(o *Options) { o.RootValue = v } }

func WithGraphiQL(enable bool) Option { return func(o *Options) { o.GraphiQL = enable } }

// New creates a new GraphQL HTTP handler serving exec.
func New(exec *executor.Executor, opts ...Option) (*Handler, error) {
	op := Options{
		Timeout:           10 * time.Second,
		GraphiQL:          true,
		Validation:        true,
		DocumentCacheSize: 1000,
		KeepAlive:         25 * time.Second,
		InitTimeout:       10 * time.Second,
	}
	for _, f := range opts {
		f(&op)
	}
	if op.Logger == nil {
		op.Logger = zap.NewNop()
	}
	h := &Handler{exec: exec, opt: op}
	if op.Validation {
		v, err := validation.New(exec.Schema())
		if err != nil {
			return nil, err
		}
		h.validator = v
	}
	docs, err := newDocumentCache(op.DocumentCacheSize)
	if err != nil {
		return nil, err
	}
	h.docs = docs
	return h, nil
}

// Close releases the document cache.
func (h *Handler) Close() { h.docs.close() }

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, rid := reqid.WithID(r.Context(), r.Header.Get(reqid.Header))
	w.Header().Set(reqid.Header, rid)

	if websocket.IsWebSocketUpgrade(r) {
		h.serveWS(ctx, w, r)
		return
	}

	if _, ok := ctx.Deadline(); !ok && h.opt.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opt.Timeout)
		defer cancel()
	}

	status, operations := http.StatusOK, 0
	start := time.Now()
	eventbus.Publish(h.opt.Events, ctx, events.HTTPStart{Request: r})
	defer func() {
		eventbus.Publish(h.opt.Events, ctx, events.HTTPFinish{
			Request: r, Status: status, Operations: operations, Duration: time.Since(start),
		})
	}()

	if r.Method == http.MethodOptions {
		if len(h.opt.CORS.AllowedOrigins) > 0 {
			setCORSHeaders(w, r, h.opt.CORS)
		}
		status = http.StatusNoContent
		w.WriteHeader(status)
		return
	}

	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		status = http.StatusMethodNotAllowed
		writeJSON(w, status, errorResponse("method not allowed"), h.opt.Pretty)
		return
	}

	// Serve GraphiQL IDE when enabled and the client expects HTML.
	if r.Method == http.MethodGet && h.opt.GraphiQL && acceptsHTML(r.Header.Get("Accept")) && r.URL.Query().Get("query") == "" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(graphiqlPage)
		return
	}

	ctx = h.forwardHeaders(ctx, r.Header, rid)

	reqs, batched, rerr := readRequest(w, r, h.opt.MaxBodyBytes)
	if rerr != nil {
		status = rerr.status
		writeJSON(w, status, errorResponse(rerr.message), h.opt.Pretty)
		return
	}

	if len(h.opt.CORS.AllowedOrigins) > 0 {
		setCORSHeaders(w, r, h.opt.CORS)
	}

	operations = len(reqs)
	if batched {
		results := make([]*executor.ExecutionResult, len(reqs))
		for i := range reqs {
			results[i] = h.executeOne(ctx, reqs[i])
		}
		writeJSON(w, status, results, h.opt.Pretty)
		return
	}

	res := h.executeOne(ctx, reqs[0])
	writeJSON(w, status, res, h.opt.Pretty)
}

// forwardHeaders maps the configured headers and the request ID into
// outgoing gRPC metadata for resolvers that call gRPC services.
func (h *Handler) forwardHeaders(ctx context.Context, header http.Header, rid string) context.Context {
	md := metadata.MD{}
	if len(h.opt.MetadataHeaders) > 0 {
		allowed := make(map[string]struct{}, len(h.opt.MetadataHeaders))
		for _, hdr := range h.opt.MetadataHeaders {
			allowed[strings.ToLower(hdr)] = struct{}{}
		}
		for k, v := range header {
			if _, ok := allowed[strings.ToLower(k)]; ok {
				md[strings.ToLower(k)] = v
			}
		}
	}
	md["graphql-request-id"] = []string{rid}
	return metadata.NewOutgoingContext(ctx, md)
}

func (h *Handler) executeOne(ctx context.Context, req GraphQLRequest) *executor.ExecutionResult {
	return h.exec.Execute(ctx, h.params(req))
}

func (h *Handler) params(req GraphQLRequest) executor.Params {
	doc, validity := h.document(req.Query)
	return executor.Params{
		Document:      doc,
		OperationName: req.OperationName,
		Variables:     req.Variables,
		RootValue:     h.opt.RootValue,
		Validity:      validity,
		Query:         req.Query,
	}
}
