package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Cache lookups by entity class
	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_cache_requests_total",
			Help: "Total number of catalog cache lookups",
		},
		[]string{"class"},
	)

	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_cache_hits_total",
			Help: "Total number of catalog cache hits, split by freshness",
		},
		[]string{"class", "state"}, // state: fresh | stale
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_cache_misses_total",
			Help: "Total number of catalog cache misses (absent or expired)",
		},
		[]string{"class"},
	)

	// Background refreshes triggered by stale hits
	CacheRevalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_cache_revalidations_total",
			Help: "Total number of background revalidations by outcome",
		},
		[]string{"outcome"}, // success | failure
	)

	CacheEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "catalog_cache_entries",
			Help: "Number of cache entries by freshness state",
		},
		[]string{"state"},
	)

	// Backend attempts made by the resilient executor
	BackendAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_backend_attempts_total",
			Help: "Total number of backend query attempts by error category",
		},
		[]string{"category"},
	)

	BackendRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_backend_retries_total",
			Help: "Total number of backend query retries",
		},
	)

	BackendQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_backend_query_duration_seconds",
			Help:    "Duration of logical backend queries including retries",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"}, // success | exhausted | cancelled
	)
)

// RecordCacheRequest records a cache lookup
func RecordCacheRequest(class string) {
	CacheRequests.WithLabelValues(class).Inc()
}

// RecordCacheHit records a cache hit with its freshness state
func RecordCacheHit(class, state string) {
	CacheHits.WithLabelValues(class, state).Inc()
}

// RecordCacheMiss records a cache miss
func RecordCacheMiss(class string) {
	CacheMisses.WithLabelValues(class).Inc()
}

// RecordRevalidation records the outcome of a background refresh
func RecordRevalidation(success bool) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	CacheRevalidations.WithLabelValues(outcome).Inc()
}

// UpdateCacheEntries publishes the per-state entry counts of the cache store
func UpdateCacheEntries(fresh, stale, expired int) {
	CacheEntries.WithLabelValues("fresh").Set(float64(fresh))
	CacheEntries.WithLabelValues("stale").Set(float64(stale))
	CacheEntries.WithLabelValues("expired").Set(float64(expired))
}

// RecordBackendAttempt records one backend attempt and how it ended
func RecordBackendAttempt(err error) {
	BackendAttempts.WithLabelValues(string(CategorizeError(err))).Inc()
}

// RecordBackendRetry records a retry scheduled after a failed attempt
func RecordBackendRetry() {
	BackendRetries.Inc()
}

// ObserveBackendQuery records the latency of a logical backend query
func ObserveBackendQuery(outcome string, elapsed time.Duration) {
	BackendQueryDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}
