package app

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// WaitForShutdown blocks until a shutdown signal is received, then gracefully
// shuts down the application with the given timeout.
//
// It listens for:
// - SIGINT (Ctrl+C)
// - SIGTERM (container orchestration, systemd, etc.)
//
// The process exits with status 1 if shutdown reports errors.
func WaitForShutdown(ctx *AppContext, timeout time.Duration) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	signal.Stop(sigCh)

	ctx.Logger.Info("Shutdown signal received",
		slog.String("signal", sig.String()),
	)

	if err := ShutdownWithTimeout(ctx, timeout); err != nil {
		os.Exit(1)
	}
}

// ShutdownWithTimeout runs Shutdown bounded by timeout and logs the outcome.
func ShutdownWithTimeout(ctx *AppContext, timeout time.Duration) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := ctx.Shutdown(shutdownCtx); err != nil {
		ctx.Logger.Error("Shutdown completed with errors",
			slog.String("error", err.Error()),
		)
		return err
	}

	ctx.Logger.Info("Shutdown completed successfully")
	return nil
}
