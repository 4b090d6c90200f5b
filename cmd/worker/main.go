package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"questfund/internal/app/bootstrap"
)

// Worker process entrypoint: polls the outbox and relays events to the bus.
func main() {
	app, err := bootstrap.BuildWorker()
	if err != nil {
		slog.Error("worker bootstrap failed", "error", err.Error())
		os.Exit(1)
	}
	defer func() { _ = app.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("worker stopped", "error", err.Error())
		os.Exit(1)
	}
}
