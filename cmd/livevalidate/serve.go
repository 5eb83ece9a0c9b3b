package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"

	"github.com/sigrams/livevalidate/internal/config"
	"github.com/sigrams/livevalidate/internal/errors"
	"github.com/sigrams/livevalidate/pkg/middleware"
	"github.com/sigrams/livevalidate/pkg/server"
)

func serveCmd(a *app) *cobra.Command {
	var (
		addr     string
		pagesDir string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the validation server",
		Long: `Serve pages and validate their forms over websockets.

Routes:
  GET  /pages/{name}           page with the thin client injected
  POST /pages/{name}/validate  validate posted values without JavaScript
  GET  /ws/{name}              websocket session for a page
  GET  /healthz                health check
  GET  /metrics                Prometheus metrics (when enabled)

With tracing.enabled, each websocket event becomes an OpenTelemetry span.
tracing.exporter "stdout" writes spans as JSON to stderr; "none" leaves
export to the global tracer provider.

Examples:
  livevalidate serve
  livevalidate serve --addr :9000 --pages ./site`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			if pagesDir != "" {
				a.cfg.Pages.Dir = pagesDir
				a.cfg.Pages.S3.Bucket = ""
			}

			var tp trace.TracerProvider
			if a.cfg.Tracing.Enabled && a.cfg.Tracing.Exporter == "stdout" {
				sdk, err := newTracerProvider(a.stderr, a.cfg.Tracing)
				if err != nil {
					return errors.New("E400").WithDetail("Starting the trace exporter failed").Wrap(err)
				}
				defer func() {
					if err := sdk.Shutdown(context.Background()); err != nil {
						a.logger.Warn("trace exporter shutdown failed", "error", err)
					}
				}()
				tp = sdk
			}

			srv := server.New(a.cfg.Store(), serverConfig(a.cfg, a, tp))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := srv.Run(ctx); err != nil {
				return errors.New("E400").Wrap(err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from config)")
	cmd.Flags().StringVarP(&pagesDir, "pages", "p", "", "Pages directory (overrides the config store)")

	return cmd
}

// serverConfig maps the file config onto the server's options. A nil tp
// traces through the global provider.
func serverConfig(cfg *config.Config, a *app, tp trace.TracerProvider) *server.ServerConfig {
	sc := &server.ServerConfig{
		Address:         cfg.Server.Addr,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		SessionConfig:   &server.SessionConfig{MaxMessageSize: cfg.Server.MaxMessageSize},
		UI:              cfg.UI(a.logger.With("component", "domui")),
		Messages:        cfg.Messages(),
		MetricsPath:     cfg.Metrics.Path,
		Logger:          a.logger,
	}
	if len(cfg.Server.AllowedOrigins) > 0 {
		sc.CheckOrigin = server.AllowOrigins(cfg.Server.AllowedOrigins)
	}

	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		sc.Metrics = middleware.NewMetrics(
			middleware.WithRegistry(reg),
			middleware.WithNamespace(cfg.Metrics.Namespace),
		)
		sc.Gatherer = reg
	}
	if cfg.Tracing.Enabled {
		opts := []middleware.OTelOption{middleware.WithTracerName(cfg.Tracing.TracerName)}
		if tp != nil {
			opts = append(opts, middleware.WithTracerProvider(tp))
		}
		sc.EventMiddleware = append(sc.EventMiddleware, middleware.OpenTelemetry(opts...))
	}
	return sc
}
