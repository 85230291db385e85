package main

import (
	"context"
	"log/slog"
	"os"

	mcpadapter "github.com/kirillkom/grounded-qa/internal/adapters/mcp"
	"github.com/kirillkom/grounded-qa/internal/bootstrap"
	"github.com/kirillkom/grounded-qa/internal/config"
	"github.com/kirillkom/grounded-qa/internal/observability/logging"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_invalid", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logging.NewJSONLoggerTo(os.Stderr, "grounded-qa-mcp", cfg.LogLevel))

	ctx := context.Background()
	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	go app.WarmUp(ctx)

	if err := mcpadapter.ServeStdio(mcpadapter.NewServer(version, app.AnswerUC)); err != nil {
		slog.Error("mcp_serve_failed", "error", err)
		os.Exit(1)
	}
}
