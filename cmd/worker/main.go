package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/grounded-qa/internal/bootstrap"
	"github.com/kirillkom/grounded-qa/internal/config"
	"github.com/kirillkom/grounded-qa/internal/core/domain"
	natsqueue "github.com/kirillkom/grounded-qa/internal/infrastructure/queue/nats"
	"github.com/kirillkom/grounded-qa/internal/observability/logging"
	"github.com/kirillkom/grounded-qa/internal/observability/metrics"
)

const workerService = "worker"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_invalid", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logging.NewJSONLogger("grounded-qa-worker", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	transport, err := natsqueue.New(cfg.NATSURL, cfg.NATSSubject, natsqueue.Options{
		QueueGroup:         cfg.NATSQueueGroup,
		ResilienceExecutor: app.Executor,
	})
	if err != nil {
		slog.Error("nats_connect_failed", "error", err)
		os.Exit(1)
	}
	defer transport.Close()

	workerMetrics := metrics.NewWorkerMetrics(workerService)
	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           workerMetrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		slog.Info("worker_metrics_listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("worker_metrics_server_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	go app.WarmUp(ctx)

	handler := func(handlerCtx context.Context, req domain.AnswerRequest) (*domain.PipelineResponse, error) {
		workerMetrics.StartRequest()
		started := time.Now()
		resp, err := app.AnswerUC.AnswerQuery(handlerCtx, req.Query, req.TopK, req.MaxChunks)
		status := ""
		if resp != nil {
			status = string(resp.Status)
		}
		workerMetrics.FinishRequest(workerService, status, time.Since(started), err)
		return resp, err
	}

	if err := transport.Serve(ctx, handler); err != nil {
		slog.Error("worker_serve_failed", "error", err)
		os.Exit(1)
	}
	slog.Info("worker_stopped")
}
