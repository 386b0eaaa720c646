package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/mydos/internal/instrumentation"
	"github.com/teemow/mydos/internal/logging"
	"github.com/teemow/mydos/internal/server"
)

// MetricsConfig holds configuration for the metrics server
type MetricsConfig struct {
	// Enabled determines whether to start the metrics server (default: true)
	Enabled bool

	// Addr is the address for the metrics server (e.g., ":9090")
	Addr string
}

func newServeCmd() *cobra.Command {
	var (
		httpAddr       string
		maxBodyBytes   int64
		metricsEnabled bool
		metricsAddr    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the request handler behind a local HTTP server",
		Long: `Serve the myDo request handler over HTTP. Every path except the health
endpoints is handled like an API Gateway event: paths ending in /refresh-cache
rebuild the cache, everything else is the todos route.

Endpoints:
  GET    /todos[?raw_data=true]   list open myDos
  POST   /todos                   create a myDo ({"name": "..."})
  PATCH  /todos                   complete or reschedule myDos
  GET    /refresh-cache           rebuild the cache
  GET    /healthz, /readyz        liveness and readiness

Prometheus metrics are served on a dedicated port (--metrics-addr).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("metrics-addr") {
				if addr := os.Getenv("METRICS_ADDR"); addr != "" {
					metricsAddr = addr
				}
			}
			return runServe(cmd, httpAddr, maxBodyBytes, MetricsConfig{Enabled: metricsEnabled, Addr: metricsAddr})
		},
	}

	cmd.Flags().StringVar(&httpAddr, "http-addr", server.DefaultAddr, "HTTP server address")
	cmd.Flags().Int64Var(&maxBodyBytes, "max-body-bytes", server.DefaultMaxBodyBytes, "Maximum accepted request body size")
	cmd.Flags().BoolVar(&metricsEnabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

func runServe(cmd *cobra.Command, httpAddr string, maxBodyBytes int64, metricsConfig MetricsConfig) error {
	// Setup graceful shutdown
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, logger, err := loadConfig(ctx, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg, logger, instrumentation.DefaultConfig())
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.Close(shutdownCtx)
	}()

	srv, err := server.New(server.Config{
		Addr:         httpAddr,
		Handler:      a.handler,
		MaxBodyBytes: maxBodyBytes,
		Logger:       logger,
	})
	if err != nil {
		return err
	}
	for name, check := range a.checks {
		srv.Health().AddCheck(name, check)
	}

	// Start metrics server if enabled
	var metricsServer *server.MetricsServer
	if metricsConfig.Enabled && a.provider.Enabled() && a.provider.HasPrometheusExporter() {
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    metricsConfig.Addr,
			InstrumentationProvider: a.provider,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
		go func() {
			if err := metricsServer.Start(); err != nil {
				logger.Error("metrics server stopped", logging.Err(err))
			}
		}()
	}

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := srv.Start(); err != nil {
			serverDone <- err
		}
	}()
	srv.Health().SetReady(true)

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error shutting down HTTP server: %w", err)
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("error shutting down metrics server", logging.Err(err))
		}
	}

	logger.Info("HTTP server gracefully stopped")
	return nil
}
