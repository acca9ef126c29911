package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Cache metrics
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shortlink_cache_hits_total",
			Help: "Total number of redirect cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shortlink_cache_misses_total",
			Help: "Total number of redirect cache misses",
		},
	)

	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortlink_cache_errors_total",
			Help: "Cache operations that failed and were absorbed",
		},
		[]string{"op"}, // "get", "set", "delete"
	)

	// Lifecycle metrics
	LinksCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortlink_links_created_total",
			Help: "Links created, by permanence",
		},
		[]string{"permanent"}, // "true" or "false"
	)

	Redirects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shortlink_redirects_total",
			Help: "Successful redirect resolutions",
		},
	)

	CodeCollisions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shortlink_code_collisions_total",
			Help: "Generated short codes that collided with existing records",
		},
	)

	// Sweeper metrics
	SweepDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shortlink_sweep_deleted_total",
			Help: "Links removed by expiration sweeps",
		},
	)

	SweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shortlink_sweep_duration_seconds",
			Help:    "Expiration sweep duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)

	// Request metrics
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shortlink_request_duration_seconds",
			Help:    "Request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "status"},
	)

	RequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortlink_requests_total",
			Help: "Total number of requests",
		},
		[]string{"method", "status"},
	)
)
