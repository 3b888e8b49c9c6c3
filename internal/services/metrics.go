// Package services – Prometheus domain metrics.
//
// HTTP-level metrics live in the middleware package; the collectors here
// track the business-level signals of the logging pipeline and the analytics
// cache. Label cardinality is bounded by the model/provider catalog, which
// is small and operator-controlled.
package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// interactionsTotal counts logged interactions by model, provider and outcome.
	interactionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_interactions_total",
			Help: "Total number of logged LLM interactions.",
		},
		[]string{"model", "provider", "status"},
	)

	// tokensTotal accumulates tokens consumed per model and provider.
	tokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_tokens_used_total",
			Help: "Total tokens consumed by LLM calls.",
		},
		[]string{"model", "provider"},
	)

	// costTotal accumulates derived cost (USD) per model and provider.
	costTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_cost_usd_total",
			Help: "Total derived cost of LLM calls in USD.",
		},
		[]string{"model", "provider"},
	)

	// providerLatency records completed-call latency per provider.
	providerLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_call_duration_seconds",
			Help:    "Duration of LLM provider calls in seconds.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"provider"},
	)

	// analyticsCacheHits / analyticsCacheMisses track default-view cache efficiency.
	analyticsCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "analytics_cache_hits_total",
			Help: "Number of analytics requests served from the default-view cache.",
		},
	)
	analyticsCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "analytics_cache_misses_total",
			Help: "Number of default-view analytics requests that recomputed.",
		},
	)
)
