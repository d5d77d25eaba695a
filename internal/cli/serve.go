package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/aretw0/seedbed/internal/config"
	"github.com/aretw0/seedbed/internal/logging"
	"github.com/aretw0/seedbed/internal/telemetry"
	httpadapter "github.com/aretw0/seedbed/pkg/adapters/http"
	"github.com/aretw0/seedbed/pkg/adapters/mcp"
	"github.com/aretw0/seedbed/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// ShutdownTimeout bounds the graceful shutdown of the servers.
const ShutdownTimeout = 5 * time.Second

// ServeOptions holds the flags of the serve and mcp commands.
type ServeOptions struct {
	// Port overrides cfg.Port when non-zero.
	Port      int
	Transport string
	Debug     bool
}

// serviceLogger writes to stderr in the configured format.
func serviceLogger(cfg config.Config, debug bool) *slog.Logger {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	if debug {
		level = slog.LevelDebug
	}
	if cfg.LogFormat == "json" {
		return logging.NewJSON(os.Stderr, level)
	}
	return logging.New(level)
}

// NewHTTPServer builds the HTTP API server and returns it with a cleanup
// function for the session storage.
func NewHTTPServer(cfg config.Config, opts ServeOptions, logger *slog.Logger) (*http.Server, func() error, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := observability.NewMetrics(reg)
	if err != nil {
		return nil, nil, err
	}

	storage, err := OpenStorage(cfg)
	if err != nil {
		return nil, nil, err
	}
	engine, err := createEngine(cfg, storage, EngineOptions{Debug: opts.Debug, Hooks: metrics.Hooks()}, logger)
	if err != nil {
		storage.Close()
		return nil, nil, err
	}

	handler, err := httpadapter.NewHandler(engine,
		httpadapter.WithLogger(logger),
		httpadapter.WithMetrics(reg),
	)
	if err != nil {
		storage.Close()
		return nil, nil, err
	}

	port := cfg.Port
	if opts.Port != 0 {
		port = opts.Port
	}
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Info("HTTP server configured", "address", srv.Addr, "storage", storage.Kind, "scope", engine.Scope())
	return srv, storage.Close, nil
}

// RunServe starts the HTTP API and blocks until ctx is done or the listener
// fails.
func RunServe(ctx context.Context, cfg config.Config, opts ServeOptions) error {
	logger := serviceLogger(cfg, opts.Debug)

	shutdownTracing, err := telemetry.Setup(ctx, "seedbed", cfg.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("telemetry setup: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("Tracer shutdown failed", "err", err)
		}
	}()

	srv, cleanup, err := NewHTTPServer(cfg, opts, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Starting seedbed server", "address", srv.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		logger.Info("Start shutdown")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Graceful shutdown did not complete", "timeout", ShutdownTimeout, "err", err)
			return srv.Close()
		}
		logger.Info("seedbed server stopped gracefully")
		return nil
	}
}

// RunMCP serves the MCP tools over stdio or SSE. Logs always go to stderr so
// they never corrupt the stdio JSON-RPC stream.
func RunMCP(ctx context.Context, cfg config.Config, opts ServeOptions) error {
	logger := serviceLogger(cfg, opts.Debug)

	storage, err := OpenStorage(cfg)
	if err != nil {
		return err
	}
	defer storage.Close()

	engine, err := createEngine(cfg, storage, EngineOptions{Debug: opts.Debug}, logger)
	if err != nil {
		return err
	}
	srv := mcp.NewServer(engine, mcp.WithLogger(logger))

	switch opts.Transport {
	case "", "stdio":
		logger.Info("Starting seedbed MCP server (stdio)")
		return srv.ServeStdio()
	case "sse":
		port := cfg.Port
		if opts.Port != 0 {
			port = opts.Port
		}
		logger.Info("Starting seedbed MCP server (SSE)", "port", port)
		return srv.ServeSSE(ctx, port)
	default:
		return fmt.Errorf("unknown transport %q (want stdio or sse)", opts.Transport)
	}
}
