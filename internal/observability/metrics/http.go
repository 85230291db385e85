package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	answersTotal       *prometheus.CounterVec
	answerConfidence   *prometheus.HistogramVec
	answerDuration     *prometheus.HistogramVec
	retrievedCitations *prometheus.HistogramVec
	corpusChunks       prometheus.Gauge
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gqa",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gqa",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "gqa",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	answersTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gqa",
			Subsystem: "pipeline",
			Name:      "answers_total",
			Help:      "Total completed pipeline calls by outcome status.",
		},
		[]string{"service", "endpoint", "status"},
	)
	answerConfidence := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gqa",
			Subsystem: "pipeline",
			Name:      "confidence",
			Help:      "Distribution of reported confidence for grounded answers.",
			Buckets:   []float64{0.45, 0.5, 0.55, 0.6, 0.65, 0.7, 0.75, 0.8, 0.85, 0.9, 0.95, 1},
		},
		[]string{"service", "endpoint"},
	)
	answerDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gqa",
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "Pipeline execution duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "endpoint"},
	)
	retrievedCitations := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gqa",
			Subsystem: "pipeline",
			Name:      "citations",
			Help:      "Distribution of citations returned per pipeline call.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13},
		},
		[]string{"service", "endpoint"},
	)
	corpusChunks := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "gqa",
			Subsystem: "corpus",
			Name:      "chunks",
			Help:      "Number of chunks in the built corpus (0 until built).",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		answersTotal,
		answerConfidence,
		answerDuration,
		retrievedCitations,
		corpusChunks,
	)

	return &HTTPServerMetrics{
		registry:           registry,
		requestTotal:       requestTotal,
		requestDuration:    requestDuration,
		requestInFlight:    requestInFlight,
		answersTotal:       answersTotal,
		answerConfidence:   answerConfidence,
		answerDuration:     answerDuration,
		retrievedCitations: retrievedCitations,
		corpusChunks:       corpusChunks,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case path == "/", path == "/ask", path == "/healthz", path == "/readyz", path == "/metrics", path == "/openapi.json":
		return path
	case strings.HasPrefix(path, "/ui/"):
		return "/ui"
	default:
		return "other"
	}
}

// RecordAnswer observes one completed pipeline call.
func (m *HTTPServerMetrics) RecordAnswer(service, endpoint, status string, confidence float64, citations int, duration time.Duration) {
	if status == "" {
		status = "unknown"
	}
	m.answersTotal.WithLabelValues(service, endpoint, status).Inc()
	m.answerDuration.WithLabelValues(service, endpoint).Observe(duration.Seconds())
	m.retrievedCitations.WithLabelValues(service, endpoint).Observe(float64(citations))
	if citations > 0 {
		m.answerConfidence.WithLabelValues(service, endpoint).Observe(confidence)
	}
}

func (m *HTTPServerMetrics) SetCorpusChunks(n int) {
	m.corpusChunks.Set(float64(n))
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
