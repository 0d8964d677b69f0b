package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/nebari-dev/aks-provisioner/pkg/cli"
	"github.com/nebari-dev/aks-provisioner/pkg/telemetry"
)

func init() {
	// Load .env file if it exists (silently ignore if not found)
	_ = godotenv.Load()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, shutdown, err := telemetry.Setup(ctx, cli.Version)
	if err != nil {
		slog.Error("Failed to setup telemetry", "error", err)
		os.Exit(cli.ExitFailure)
	}

	code := cli.NewApp().RunCtl(ctx, os.Args[1:])

	if err := shutdown(context.Background()); err != nil {
		slog.Error("Failed to shutdown telemetry", "error", err)
	}
	os.Exit(code)
}
