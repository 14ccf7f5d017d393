package main

import (
	"context"
	"log"
	"log/slog"
	"os/signal"
	"syscall"

	"famledger/internal/infrastructure"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := infrastructure.Bootstrap(ctx)
	if err != nil {
		log.Fatalf("Bootstrap error: %v", err)
	}
	defer cleanup()

	slog.Info("famledger is running")

	if err := app.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("Run error: %v", err)
	}
}
