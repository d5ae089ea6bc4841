package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Chat-API Metrics
var (
	// Request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "parley",
			Subsystem: "chat_api",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// Request duration histogram
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "parley",
			Subsystem: "chat_api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"method", "endpoint"},
	)

	// Turn outcome counter
	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "parley",
			Subsystem: "chat_api",
			Name:      "turns_total",
			Help:      "Completed turns by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	// Inference latency histogram
	InferenceDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "parley",
			Subsystem: "chat_api",
			Name:      "inference_duration_seconds",
			Help:      "Upstream completion duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"provider", "model"},
	)

	// Variant lifecycle counter
	VariantsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "parley",
			Subsystem: "chat_api",
			Name:      "variants_total",
			Help:      "Variant lifecycle events (generated, selected, discarded)",
		},
		[]string{"event"},
	)

	// Token usage counter
	TokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "parley",
			Subsystem: "chat_api",
			Name:      "tokens_total",
			Help:      "Tokens consumed by provider and direction",
		},
		[]string{"provider", "direction"},
	)
)

// RecordRequest records an HTTP request outcome.
func RecordRequest(method, endpoint, status string, duration time.Duration) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordTurn records one completed turn.
func RecordTurn(providerID, outcome string, tokensIn, tokensOut int) {
	TurnsTotal.WithLabelValues(providerID, outcome).Inc()
	TokensTotal.WithLabelValues(providerID, "in").Add(float64(tokensIn))
	TokensTotal.WithLabelValues(providerID, "out").Add(float64(tokensOut))
}

// RecordInference records an upstream completion duration.
func RecordInference(providerID, model string, duration time.Duration) {
	InferenceDuration.WithLabelValues(providerID, model).Observe(duration.Seconds())
}

// RecordVariantEvent records a variant lifecycle event.
func RecordVariantEvent(event string) {
	VariantsTotal.WithLabelValues(event).Inc()
}
