package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialconnect_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "socialconnect_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// FeedRequests counts feed computations by feed kind.
	FeedRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialconnect_feed_requests_total",
		Help: "Total number of feeds computed by kind",
	}, []string{"feed"})

	// FeedSize records how many items each computed feed returned.
	FeedSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "socialconnect_feed_items",
		Help:    "Number of items returned per feed computation",
		Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 1000},
	}, []string{"feed"})

	// GraphMutations counts follow/unfollow attempts by outcome code.
	GraphMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialconnect_graph_mutations_total",
		Help: "Total follow graph mutations by operation and result",
	}, []string{"operation", "result"})

	// StoriesReaped counts stories physically deleted by the reaper.
	StoriesReaped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "socialconnect_stories_reaped_total",
		Help: "Total number of expired stories physically deleted",
	})

	// RateLimitDecisions counts rate-limited requests by policy and outcome.
	RateLimitDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialconnect_rate_limit_decisions_total",
		Help: "Rate limit decisions by policy and outcome (allowed, rejected, unavailable)",
	}, []string{"policy", "outcome"})

	// BlobOperations counts blob store operations by operation and result.
	BlobOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialconnect_blob_operations_total",
		Help: "Total blob store operations by operation and result",
	}, []string{"operation", "result"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// RecordFeed records one computed feed and its size.
func RecordFeed(feed string, items int) {
	FeedRequests.WithLabelValues(feed).Inc()
	FeedSize.WithLabelValues(feed).Observe(float64(items))
}

// Result maps an error to a metric label.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
