// Package metrics defines Prometheus collectors for the search pipeline.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Collaborator and pipeline metrics.
var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tendersearch",
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding requests",
		},
		[]string{"model", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tendersearch",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"model"},
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tendersearch",
			Name:      "embedding_cache_total",
			Help:      "Embedding cache lookups by result",
		},
		[]string{"result"},
	)

	JudgmentRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tendersearch",
			Name:      "judgment_requests_total",
			Help:      "Total number of relevance judgment requests",
		},
		[]string{"model", "status"},
	)

	JudgmentRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tendersearch",
			Name:      "judgment_request_duration_seconds",
			Help:      "Relevance judgment request duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"model"},
	)

	SearchStageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tendersearch",
			Name:      "search_stage_duration_seconds",
			Help:      "Duration of each search pipeline stage in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"stage"},
	)

	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tendersearch",
			Name:      "searches_total",
			Help:      "Total searches by strategy, approach and terminal status",
		},
		[]string{"strategy", "approach", "status"},
	)
)

// Register registers all pipeline collectors explicitly (no init()).
func Register() {
	prometheus.MustRegister(
		EmbeddingRequestsTotal,
		EmbeddingRequestDuration,
		EmbeddingCacheTotal,
		JudgmentRequestsTotal,
		JudgmentRequestDuration,
		SearchStageDuration,
		SearchesTotal,
	)
}
