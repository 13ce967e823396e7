package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks page cache hits by resource.
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orderdesk_page_cache_hits_total",
			Help: "Total number of page cache hits",
		},
		[]string{"resource"},
	)

	// CacheMisses tracks page cache misses by resource.
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orderdesk_page_cache_misses_total",
			Help: "Total number of page cache misses",
		},
		[]string{"resource"},
	)

	// CacheInvalidations tracks resource-wide invalidations.
	CacheInvalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orderdesk_page_cache_invalidations_total",
			Help: "Total number of page cache invalidations",
		},
		[]string{"resource"},
	)

	// CacheErrors tracks cache operation errors.
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orderdesk_page_cache_errors_total",
			Help: "Total number of page cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "invalidate"
	)
)
