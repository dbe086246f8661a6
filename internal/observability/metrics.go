// Package observability holds Prometheus metrics and OpenTelemetry tracing setup.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by command.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chirp_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// DatabaseQueryLatency records repository query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chirp_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// TweetsTotal counts tweet lifecycle events (created, edited, deleted).
	TweetsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chirp_tweets_total",
		Help: "Tweet lifecycle events",
	}, []string{"event"})

	// LikeToggles counts toggle results (liked, unliked).
	LikeToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chirp_like_toggles_total",
		Help: "Like toggles by resulting state",
	}, []string{"result"})

	// CommentsTotal counts comment events (created, deleted).
	CommentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chirp_comments_total",
		Help: "Comment events",
	}, []string{"event"})

	// TextPipelineDuration records end-to-end pipeline latency by outcome.
	TextPipelineDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chirp_text_pipeline_duration_seconds",
		Help:    "Text pipeline latency in seconds",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
	}, []string{"outcome"})

	// TextPipelineFallbacks counts pipeline runs that fell back to the original content.
	TextPipelineFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chirp_text_pipeline_fallbacks_total",
		Help: "Text pipeline runs that fell back to undecorated content",
	}, []string{"reason"})

	// TextPipelineCache counts cache lookups (hit, miss).
	TextPipelineCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chirp_text_pipeline_cache_total",
		Help: "Text pipeline cache lookups",
	}, []string{"result"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
