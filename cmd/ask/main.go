// Command ask sends one question to the answer workers over NATS and prints
// the JSON response.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/kirillkom/grounded-qa/internal/config"
	"github.com/kirillkom/grounded-qa/internal/core/domain"
	natsqueue "github.com/kirillkom/grounded-qa/internal/infrastructure/queue/nats"
	"github.com/kirillkom/grounded-qa/internal/infrastructure/resilience"
	"github.com/kirillkom/grounded-qa/internal/observability/logging"
)

func main() {
	topK := flag.Int("top-k", 0, "retrieval top-k (0 uses the worker default)")
	maxChunks := flag.Int("max-chunks", 0, "context chunk limit (0 uses the worker default)")
	timeout := flag.Duration("timeout", 30*time.Second, "request timeout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_invalid", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logging.NewJSONLoggerTo(os.Stderr, "grounded-qa-ask", cfg.LogLevel))

	query := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if query == "" {
		slog.Error("empty_query")
		os.Exit(2)
	}

	retryOnFailedConnect := false
	transport, err := natsqueue.New(cfg.NATSURL, cfg.NATSSubject, natsqueue.Options{
		RetryOnFailedConnect: &retryOnFailedConnect,
		ResilienceExecutor:   resilience.NewExecutor(cfg.Resilience),
	})
	if err != nil {
		slog.Error("nats_connect_failed", "error", err)
		os.Exit(1)
	}
	defer transport.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	resp, err := transport.Ask(ctx, domain.AnswerRequest{Query: query, TopK: *topK, MaxChunks: *maxChunks})
	if err != nil {
		slog.Error("ask_failed", "error", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp); err != nil {
		slog.Error("encode_response_failed", "error", err)
		os.Exit(1)
	}
}
