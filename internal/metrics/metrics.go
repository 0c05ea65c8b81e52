package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ranker"

// YouTube API Metrics
var (
	// YouTubeRequestsTotal tracks API calls by operation and outcome
	YouTubeRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "youtube_requests_total",
			Help:      "Total YouTube Data API calls by operation and status",
		},
		[]string{"operation", "status"},
	)

	// YouTubeQuotaUsed mirrors the locally tracked daily quota usage
	YouTubeQuotaUsed = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "youtube_quota_units_used",
			Help:      "YouTube Data API quota units consumed since the last daily reset",
		},
	)

	// SearchCacheLookups tracks search cache hits and misses
	SearchCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_cache_lookups_total",
			Help:      "Search result cache lookups by result (hit/miss)",
		},
		[]string{"result"},
	)

	// CircuitBreakerStateChanges tracks circuit breaker state transitions
	CircuitBreakerStateChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state_changes_total",
			Help:      "Circuit breaker state transitions by component and new state",
		},
		[]string{"component", "state"},
	)
)

// Ranking Metrics
var (
	RankingRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ranking_requests_total",
			Help:      "Total ranking pipeline runs by status",
		},
		[]string{"status"},
	)

	RankingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ranking_duration_seconds",
			Help:      "Duration of a full fetch, score and sort pipeline",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)

	CommentsScoredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "comments_scored_total",
			Help:      "Total comments scored for sentiment",
		},
	)

	VideosSkippedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "videos_skipped_total",
			Help:      "Candidate videos dropped because no comments were retrievable",
		},
	)
)
