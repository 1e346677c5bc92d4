package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Analysis metrics
var (
	// CommentsClassified counts scored comments by classification.
	CommentsClassified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodradar_comments_classified_total",
			Help: "Scored comments by classification (Positive/Negative/Ignored)",
		},
		[]string{"class"},
	)

	// RetrievalInterruptions counts store reads that ended early (lost cursor or timeout).
	RetrievalInterruptions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodradar_retrieval_interruptions_total",
			Help: "Store retrievals that returned a partial result",
		},
		[]string{"op"},
	)

	// AnalysisDuration tracks analysis latency in seconds by scope.
	AnalysisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "moodradar_analysis_duration_seconds",
			Help:    "Analysis duration in seconds by scope (submission/subreddit)",
			Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"scope"},
	)
)

// Store metrics
var (
	// MalformedRecords counts stored documents rejected at the retrieval boundary.
	MalformedRecords = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "moodradar_malformed_records_total",
			Help: "Comment documents skipped because required fields were missing or invalid",
		},
	)
)

// Collector metrics
var (
	// CollectorRequests counts upstream HTTP requests by collector and status.
	CollectorRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodradar_collector_requests_total",
			Help: "Upstream requests made by collectors by status (ok/error/rejected)",
		},
		[]string{"collector", "status"},
	)

	// CircuitBreakerState tracks breaker state per collector (0=closed, 1=half-open, 2=open).
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "moodradar_circuit_breaker_state",
			Help: "Current circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"collector"},
	)
)

// Server metrics
var (
	// CacheRequests counts response cache lookups by result (hit/miss).
	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodradar_cache_requests_total",
			Help: "Response cache lookups by result (hit/miss)",
		},
		[]string{"result"},
	)
)
