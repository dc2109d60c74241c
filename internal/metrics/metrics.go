// Package metrics defines the Prometheus instruments exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Store
	StoreQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "beachatlas_store_query_duration_seconds",
			Help:    "Duration of catalog store queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	StoreQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beachatlas_store_query_errors_total",
			Help: "Total number of catalog store query errors",
		},
		[]string{"operation"},
	)

	// Catalog
	PagesServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beachatlas_pages_served_total",
			Help: "Catalog pages served, labelled by whether the restriction short-circuited",
		},
		[]string{"outcome"}, // "rows", "empty", "short_circuit"
	)

	HydrationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "beachatlas_hydration_duration_seconds",
			Help:    "Time spent hydrating a page of beaches",
			Buckets: prometheus.DefBuckets,
		},
	)

	FavoriteToggles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beachatlas_favorite_toggles_total",
			Help: "Favorite toggles by resulting state",
		},
		[]string{"state"}, // "added", "removed"
	)

	// Page cache
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beachatlas_cache_hits_total",
			Help: "Page cache hits by view kind",
		},
		[]string{"kind"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beachatlas_cache_misses_total",
			Help: "Page cache misses by view kind",
		},
		[]string{"kind"},
	)

	CacheInvalidations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "beachatlas_cache_invalidations_total",
			Help: "Per-session page cache invalidations",
		},
	)

	// External collaborators
	ExternalCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "beachatlas_external_call_duration_seconds",
			Help:    "Duration of calls to external services",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"service", "result"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "beachatlas_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beachatlas_circuit_breaker_requests_total",
			Help: "Requests through a circuit breaker",
		},
		[]string{"name", "result"}, // "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beachatlas_circuit_breaker_state_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// HTTP
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "beachatlas_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	RateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beachatlas_rate_limited_total",
			Help: "Requests rejected by the per-IP rate limiter",
		},
		[]string{"route"},
	)
)

// RecordStoreQuery observes a store query and counts it as an error when
// err is non-nil.
func RecordStoreQuery(operation string, start time.Time, err error) {
	StoreQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		StoreQueryErrors.WithLabelValues(operation).Inc()
	}
}

// RecordExternalCall observes a call to an external service.
func RecordExternalCall(service string, start time.Time, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	ExternalCallDuration.WithLabelValues(service, result).Observe(time.Since(start).Seconds())
}
