package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/aretw0/tapestry/internal/cli"
	"github.com/aretw0/tapestry/internal/telemetry"
	tapestryhttp "github.com/aretw0/tapestry/pkg/adapters/http"
	"github.com/aretw0/tapestry/pkg/observability"
)

const shutdownTimeout = 5 * time.Second

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve [bundle...]",
		Short: "Start the HTTP play server",
		Long: `Serves the installed Worlds over a JSON API, with Prometheus metrics at /metrics and
a websocket live link streaming state diffs at /worlds/{world}/live.
Bundles given as arguments are installed before the server starts.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := rootOpts.Config
			logger := rootOpts.Logger
			if cmd.Flags().Changed("addr") {
				cfg.HTTPAddr = addr
			}

			shutdownTracing, err := telemetry.Setup(ctx, "tapestry-http", cfg.OTelEndpoint, cfg.OTelEnabled)
			if err != nil {
				return fmt.Errorf("setup tracing: %w", err)
			}
			defer func() {
				if err := shutdownTracing(context.WithoutCancel(ctx)); err != nil {
					logger.Warn("tracing shutdown failed", "err", err)
				}
			}()

			backend, err := cli.OpenBackend(ctx, cfg)
			if err != nil {
				return err
			}
			defer backend.Close()

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			metrics, err := observability.NewMetrics(reg)
			if err != nil {
				return err
			}
			live := observability.NewAggregator()

			engine := cli.NewEngine(backend, cfg, logger, metrics.Hooks())
			engine.Subscribe(live.Observe)

			for _, path := range args {
				doc, err := cli.InstallFile(ctx, backend, engine, path, false)
				if err != nil {
					return err
				}
				logger.Info("bundle installed", "path", path, "world", doc.World.ID)
			}

			srv := &http.Server{
				Addr: cfg.HTTPAddr,
				Handler: tapestryhttp.NewHandler(engine,
					tapestryhttp.WithLogger(logger),
					tapestryhttp.WithLive(live),
					tapestryhttp.WithMetrics(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
				),
				ReadHeaderTimeout: 10 * time.Second,
			}

			serverErrors := make(chan error, 1)
			go func() {
				logger.Info("starting tapestry server", "addr", srv.Addr, "store", cfg.Store)
				fmt.Fprintf(cmd.OutOrStdout(), "Tapestry server listening on %s\n", srv.Addr)
				serverErrors <- srv.ListenAndServe()
			}()

			select {
			case err := <-serverErrors:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("server error: %w", err)

			case <-ctx.Done():
				logger.Info("shutting down", "reason", context.Cause(ctx))
				shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					logger.Error("graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
					return srv.Close()
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Tapestry server stopped gracefully")
				return nil
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Address to listen on (env TAPESTRY_HTTP_ADDR, default :8080)")
	return cmd
}
