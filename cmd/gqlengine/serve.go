package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hanpama/gqlengine/internal/eventbus"
	"github.com/hanpama/gqlengine/internal/executor"
	"github.com/hanpama/gqlengine/internal/introspection"
	"github.com/hanpama/gqlengine/internal/metrics"
	"github.com/hanpama/gqlengine/internal/otel"
	"github.com/hanpama/gqlengine/internal/server"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and websocket GraphQL endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd)
		},
	}
	f := cmd.Flags()
	f.String("schema", "", "SDL schema file (required).")
	f.String("data", "", "JSON or YAML file holding the root value.")
	f.String("addr", ":8080", "HTTP listen address.")
	f.String("path", "/graphql", "Path of the GraphQL endpoint.")
	f.Bool("introspection", true, "Serve __schema and __type.")
	f.Bool("validation", true, "Run the validation rules over incoming documents.")
	f.Bool("graphiql", true, "Serve GraphiQL to browsers.")
	f.Bool("pretty", false, "Indent JSON responses.")
	f.Duration("timeout", 10*time.Second, "Per-request timeout.")
	f.Int64("max-body", 1<<20, "Maximum request body size in bytes.")
	f.Int64("max-concurrency", 0, "Maximum number of resolvers running at once. 0 means unbounded.")
	f.Int64("document-cache", 1000, "Number of parsed documents to keep.")
	f.StringSlice("cors", nil, "Allowed CORS origins.")
	f.StringSlice("metadata-header", nil, "HTTP headers forwarded to resolvers as gRPC metadata.")
	f.Duration("keepalive", 25*time.Second, "Interval of graphql-ws keep-alive messages.")
	f.String("metrics", "/metrics", "Path of the Prometheus endpoint. Empty disables it.")
	f.String("otel.endpoint", "", "OTLP collector endpoint.")
	f.String("otel.service", "gqlengine", "OpenTelemetry service name.")
	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command) error {
	conf, err := config(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(conf)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	sch, err := loadSchema(conf.GetString("schema"))
	if err != nil {
		return err
	}
	if conf.GetBool("introspection") {
		sch = introspection.Extend(sch)
	}
	root, err := loadData(conf.GetString("data"))
	if err != nil {
		return err
	}

	bus := eventbus.New()
	shutdown, err := otel.Setup(bus, conf.GetString("otel.endpoint"), conf.GetString("otel.service"))
	if err != nil {
		return errors.Wrap(err, "otel setup")
	}
	defer func() { _ = shutdown(context.Background()) }()

	exec := executor.NewExecutor(sch,
		executor.WithLogger(logger),
		executor.WithEventBus(bus),
		executor.WithMaxConcurrency(conf.GetInt64("max-concurrency")),
	)
	h, err := server.New(exec,
		server.WithLogger(logger),
		server.WithRootValue(root),
		server.WithEventBus(bus),
		server.WithTimeout(conf.GetDuration("timeout")),
		server.WithMaxBodyBytes(conf.GetInt64("max-body")),
		server.WithValidation(conf.GetBool("validation")),
		server.WithGraphiQL(conf.GetBool("graphiql")),
		server.WithDocumentCache(conf.GetInt64("document-cache")),
		server.WithCORS(conf.GetStringSlice("cors")...),
		server.WithMetadataHeaders(conf.GetStringSlice("metadata-header")...),
		server.WithKeepAlive(conf.GetDuration("keepalive")),
		prettyOption(conf.GetBool("pretty")),
	)
	if err != nil {
		return errors.Wrap(err, "server init")
	}
	defer h.Close()

	mux := http.NewServeMux()
	mux.Handle(conf.GetString("path"), h)
	if path := conf.GetString("metrics"); path != "" {
		reg := prometheus.NewRegistry()
		m, err := metrics.New(reg)
		if err != nil {
			return err
		}
		defer m.Attach(bus)()
		mux.Handle(path, metrics.Handler(reg))
	}

	srv := &http.Server{Addr: conf.GetString("addr"), Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	logger.Info("GraphQL server listening",
		zap.String("addr", srv.Addr), zap.String("path", conf.GetString("path")))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(sctx)
}

func prettyOption(pretty bool) server.Option {
	return func(o *server.Options) { o.Pretty = pretty }
}
