package httpadapter

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/grounded-qa/internal/config"
	"github.com/kirillkom/grounded-qa/internal/core/ports"
	"github.com/kirillkom/grounded-qa/internal/observability/metrics"
)

const (
	serviceName  = "api"
	askEndpoint  = "/ask"
	maxBodyBytes = 64 << 10
)

type Router struct {
	answerUC ports.AnswerService
	corpus   ports.CorpusStatus
	metrics  *metrics.HTTPServerMetrics
	spec     *apiSpec

	rateLimitRPS     float64
	rateLimitBurst   int
	maxInFlight      int
	backpressureWait time.Duration
}

func NewRouter(
	cfg config.Config,
	answerUC ports.AnswerService,
	corpus ports.CorpusStatus,
	httpMetrics *metrics.HTTPServerMetrics,
) *Router {
	spec, err := loadAPISpec()
	if err != nil {
		// The document is compiled in; failing to load it is a programming error.
		panic(err)
	}
	if httpMetrics == nil {
		httpMetrics = metrics.NewHTTPServerMetrics(serviceName)
	}
	return &Router{
		answerUC:         answerUC,
		corpus:           corpus,
		metrics:          httpMetrics,
		spec:             spec,
		rateLimitRPS:     cfg.APIRateLimitRPS,
		rateLimitBurst:   cfg.APIRateLimitBurst,
		maxInFlight:      cfg.APIMaxInFlight,
		backpressureWait: time.Duration(cfg.APIBackpressureWaitMS) * time.Millisecond,
	}
}

func (rt *Router) Handler() http.Handler {
	var ask http.Handler = http.HandlerFunc(rt.ask)
	ask = backpressureMiddleware(ask, rt.maxInFlight, rt.backpressureWait)
	ask = rateLimitMiddleware(ask, rt.rateLimitRPS, rt.rateLimitBurst)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/readyz", rt.readyz)
	mux.Handle("/metrics", rt.metrics.Handler())
	mux.HandleFunc("/openapi.json", rt.openAPI)
	mux.HandleFunc("/{$}", rt.index)
	mux.Handle("/ui/", uiHandler())
	mux.Handle(askEndpoint, ask)

	return requestIDMiddleware(accessLogMiddleware(rt.metrics.Middleware(serviceName, mux)))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) readyz(w http.ResponseWriter, _ *http.Request) {
	chunks := rt.corpus.ChunkCount()
	rt.metrics.SetCorpusChunks(chunks)
	if !rt.corpus.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "building", "chunks": chunks})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready", "chunks": chunks})
}

func (rt *Router) openAPI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(rt.spec.raw)
}

type askRequest struct {
	Query     string `json:"query"`
	TopK      int    `json:"top_k"`
	MaxChunks int    `json:"max_chunks"`
}

func (rt *Router) ask(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := rt.spec.validateRequest(r); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Empty query"})
		return
	}

	start := time.Now()
	resp, err := rt.answerUC.AnswerQuery(r.Context(), query, req.TopK, req.MaxChunks)
	if err != nil {
		status := mapErrorToHTTPStatus(err)
		slog.Error("answer_query_failed",
			"request_id", requestIDFromContext(r.Context()),
			"status", status,
			"error", err,
		)
		writeJSON(w, status, map[string]string{"error": errorMessage(status)})
		return
	}

	elapsed := time.Since(start)
	rt.metrics.RecordAnswer(serviceName, askEndpoint, string(resp.Status), resp.Confidence, len(resp.Citations), elapsed)
	rt.metrics.SetCorpusChunks(rt.corpus.ChunkCount())
	slog.Info("answer_query",
		"request_id", requestIDFromContext(r.Context()),
		"status", string(resp.Status),
		"confidence", resp.Confidence,
		"citations", len(resp.Citations),
		"duration_ms", float64(elapsed.Microseconds())/1000.0,
	)

	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
