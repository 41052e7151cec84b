package metrics

import "github.com/prometheus/client_golang/prometheus"

// Retrieval Prometheus metrics.
var (
	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "talentrag",
			Name:      "search_duration_seconds",
			Help:      "Similarity scan duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"kind"}, // "resume" / "match"
	)

	SearchCandidates = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "talentrag",
			Name:      "search_candidates",
			Help:      "Documents surviving the structural filter per query",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	SearchResultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "talentrag",
			Name:      "search_results_total",
			Help:      "Queries by result outcome",
		},
		[]string{"outcome"}, // "hits" / "empty" / "degraded"
	)

	AnalyticsEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "talentrag",
			Name:      "analytics_events_total",
			Help:      "Analytics counter events by outcome",
		},
		[]string{"kind", "outcome"}, // outcome: "applied" / "dropped" / "failed"
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers Prometheus retrieval metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(SearchCandidates)
	prometheus.MustRegister(SearchResultsTotal)
	prometheus.MustRegister(AnalyticsEventsTotal)
	searchMetricsRegistered = true
}
