package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/talentrag/internal/domain"
)

// AI provider Prometheus metrics. The op label is one of embed, extract, generate, probe.
var (
	ProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "talentrag",
			Name:      "provider_requests_total",
			Help:      "Total number of AI provider requests",
		},
		[]string{"provider", "model", "op", "status"},
	)

	ProviderRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "talentrag",
			Name:      "provider_request_duration_seconds",
			Help:      "AI provider request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"provider", "model", "op"},
	)

	ProviderErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "talentrag",
			Name:      "provider_errors_total",
			Help:      "Total AI provider errors",
		},
		[]string{"provider", "model", "op", "error_type"},
	)

	EmbeddingTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "talentrag",
			Name:      "embedding_tokens_total",
			Help:      "Total embedding tokens consumed",
		},
		[]string{"provider", "model", "type"},
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "talentrag",
			Name:      "embedding_cache_total",
			Help:      "Embedding cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	EmbeddingDegraded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "talentrag",
			Name:      "embedding_degraded",
			Help:      "1 while the embedding provider is in its cool-down window",
		},
	)

	EmbeddingAbsorbedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "talentrag",
			Name:      "embedding_absorbed_total",
			Help:      "Embedding calls answered with an empty vector instead of an error",
		},
		[]string{"reason"}, // "error" / "quota" / "cooldown"
	)
)

var providerMetricsRegistered bool

// RegisterProviderMetrics registers Prometheus provider metrics. Must be called once from main.
func RegisterProviderMetrics() {
	if providerMetricsRegistered {
		return
	}
	prometheus.MustRegister(ProviderRequestsTotal)
	prometheus.MustRegister(ProviderRequestDuration)
	prometheus.MustRegister(ProviderErrorsTotal)
	prometheus.MustRegister(EmbeddingTokensTotal)
	prometheus.MustRegister(EmbeddingCacheTotal)
	prometheus.MustRegister(EmbeddingDegraded)
	prometheus.MustRegister(EmbeddingAbsorbedTotal)
	providerMetricsRegistered = true
}

// ObserveProviderCall records one provider round trip.
func ObserveProviderCall(provider, model, op string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
		ProviderErrorsTotal.WithLabelValues(provider, model, op, errorType(err)).Inc()
	}
	ProviderRequestsTotal.WithLabelValues(provider, model, op, status).Inc()
	ProviderRequestDuration.WithLabelValues(provider, model, op).Observe(time.Since(start).Seconds())
}

func errorType(err error) string {
	switch {
	case errors.Is(err, domain.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, domain.ErrProviderUnavailable):
		return "unavailable"
	case errors.Is(err, domain.ErrMalformedOutput):
		return "malformed_output"
	default:
		return "api_error"
	}
}
