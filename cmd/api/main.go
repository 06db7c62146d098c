package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ui-agent-backend/internal/bootstrap"
	"ui-agent-backend/internal/shared/config"
	"ui-agent-backend/internal/shared/server"
	"ui-agent-backend/internal/shared/telemetry"
)

const shutdownTimeout = 10 * time.Second

type buildFunc func(ctx context.Context, cfg config.Config) (*bootstrap.App, error)

func main() {
	cfg, err := config.Load()
	if err != nil {
		telemetry.Error("config.invalid", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	telemetry.SetLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, cfg, bootstrap.Build)
	stop()
	os.Exit(code)
}

// run serves until ctx is cancelled or the listener fails and returns the
// process exit code. Every exit path closes the app.
func run(ctx context.Context, cfg config.Config, build buildFunc) int {
	app, err := build(ctx, cfg)
	if err != nil {
		telemetry.Error("bootstrap.failed", map[string]any{"error": err.Error()})
		return 1
	}
	defer func() {
		if err := app.Close(); err != nil {
			telemetry.Warn("app.close_failed", map[string]any{"error": err.Error()})
		}
	}()

	srv := &http.Server{
		Addr:              server.Addr(cfg.Host, cfg.Port),
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		telemetry.Info("server.start", map[string]any{
			"addr":        srv.Addr,
			"environment": string(cfg.Profile),
			"database":    app.DB != nil,
			"login":       app.Login != nil,
		})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			telemetry.Error("server.failed", map[string]any{"error": err.Error()})
			return 1
		}
	case <-ctx.Done():
		telemetry.Info("server.shutdown", nil)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			telemetry.Error("server.shutdown_failed", map[string]any{"error": err.Error()})
			return 1
		}
	}
	return 0
}
