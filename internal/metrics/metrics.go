package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Inference outcomes
const (
	OutcomeOK           = "ok"
	OutcomeUnconfigured = "unconfigured"
	OutcomeCallFailed   = "call_failed"
	OutcomeParseFailed  = "parse_failed"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "codementor",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "codementor",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"method", "route"},
	)

	InferenceCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "codementor",
			Subsystem: "inference",
			Name:      "calls_total",
			Help:      "Inference requests by kind and outcome",
		},
		[]string{"provider", "kind", "outcome"},
	)

	InferenceDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "codementor",
			Subsystem: "inference",
			Name:      "duration_seconds",
			Help:      "Inference call duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"provider", "kind"},
	)

	StoreOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "codementor",
			Subsystem: "store",
			Name:      "operations_total",
			Help:      "Store operations by name and status",
		},
		[]string{"operation", "status"},
	)
)

// RecordRequest records an HTTP request
func RecordRequest(method, route, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, route, status).Inc()
	RequestDuration.WithLabelValues(method, route).Observe(durationSec)
}

// RecordInference records one inference attempt. durationSec is ignored for unconfigured calls.
func RecordInference(provider, kind, outcome string, durationSec float64) {
	InferenceCallsTotal.WithLabelValues(provider, kind, outcome).Inc()
	if outcome != OutcomeUnconfigured {
		InferenceDuration.WithLabelValues(provider, kind).Observe(durationSec)
	}
}

// RecordStoreOperation records a store call
func RecordStoreOperation(operation string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	StoreOperationsTotal.WithLabelValues(operation, status).Inc()
}
