package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// WorkerMetrics covers the NATS answer worker.
type WorkerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gqa",
			Subsystem: "worker",
			Name:      "answer_requests_total",
			Help:      "Total answer requests handled by outcome.",
		},
		[]string{"service", "outcome"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gqa",
			Subsystem: "worker",
			Name:      "answer_request_duration_seconds",
			Help:      "Answer request handling duration in seconds by outcome.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "outcome"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "gqa",
			Subsystem: "worker",
			Name:      "answer_requests_in_flight",
			Help:      "Number of in-flight answer requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(requestTotal, requestDuration, requestInFlight)

	return &WorkerMetrics{
		registry:        registry,
		requestTotal:    requestTotal,
		requestDuration: requestDuration,
		requestInFlight: requestInFlight,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartRequest() {
	m.requestInFlight.Inc()
}

// FinishRequest records the pipeline status, or "error" when err is set.
func (m *WorkerMetrics) FinishRequest(service, status string, duration time.Duration, err error) {
	m.requestInFlight.Dec()

	outcome := status
	if err != nil {
		outcome = "error"
	}
	if outcome == "" {
		outcome = "unknown"
	}

	m.requestTotal.WithLabelValues(service, outcome).Inc()
	m.requestDuration.WithLabelValues(service, outcome).Observe(duration.Seconds())
}
