// Package metrics provides the centralized Prometheus registry reference for
// orderdesk. Metrics are defined in their owning packages (pagination, store,
// cache) via promauto to keep registration next to the instrumented code.
//
// This package documents every metric the service exposes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the service.
// All metrics are automatically registered via promauto in their packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Pagination Metrics (pkg/pagination):
//   - orderdesk_pages_served_total{resource} (Counter): Pages served per listing
//   - orderdesk_page_rows_returned{resource} (Histogram): Rows returned per page
//   - orderdesk_malformed_cursors_total{resource} (Counter): Requests rejected
//     for undecodable cursors
//
// Store Metrics (pkg/store):
//   - orderdesk_db_retries_total{operation} (Counter): Query retry attempts
//   - orderdesk_db_retry_backoff_seconds{operation} (Histogram): Backoff waits
//   - orderdesk_db_retry_exhausted_total{operation} (Counter): Queries that
//     exhausted all retry attempts
//
// Cache Metrics (pkg/cache):
//   - orderdesk_page_cache_hits_total{resource} (Counter): Page cache hits
//   - orderdesk_page_cache_misses_total{resource} (Counter): Page cache misses
//   - orderdesk_page_cache_invalidations_total{resource} (Counter): Resource
//     invalidations after writes
//   - orderdesk_page_cache_errors_total{operation} (Counter): Cache operation
//     errors (get, set, invalidate)
//
// Example Prometheus Queries:
//
//   # Page cache hit rate
//   sum(rate(orderdesk_page_cache_hits_total[5m])) /
//   (sum(rate(orderdesk_page_cache_hits_total[5m])) + sum(rate(orderdesk_page_cache_misses_total[5m])))
//
//   # Malformed cursor rate per resource
//   rate(orderdesk_malformed_cursors_total[5m])
//
//   # P95 page size
//   histogram_quantile(0.95, rate(orderdesk_page_rows_returned_bucket[5m]))
//
//   # Retry exhaustion (should stay at zero)
//   rate(orderdesk_db_retry_exhausted_total[5m])
