// Package metrics documents the Prometheus metrics exported by docfetch.
// All metrics are defined in their respective packages (ratelimit, pool,
// fetch, render, storage, cache, client) to keep the packages independent.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by docfetch.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Handler serves every registered metric in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Metrics Documentation
//
// Rate Limit Metrics (pkg/ratelimit):
//   - docfetch_rate_limit_admissions_total{policy} (Counter): Fetches admitted by policy
//   - docfetch_rate_limit_wait_seconds{policy} (Histogram): Time spent waiting for admission
//
// Pool Metrics (pkg/pool):
//   - docfetch_pool_busy_workers{pool} (Gauge): Workers currently processing a task
//   - docfetch_pool_tasks_total{pool, result} (Counter): Tasks finished or handed off per pool
//
// Fetch Metrics (pkg/fetch):
//   - docfetch_fetch_requests_total{status} (Counter): Fetches by HTTP status, network_error or cache
//   - docfetch_fetch_duration_seconds (Histogram): Fetch duration including retries
//   - docfetch_fetch_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network)
//   - docfetch_fetch_retries_total{error_class} (Counter): Retry attempts
//   - docfetch_fetch_retry_backoff_seconds{error_class} (Histogram): Backoff duration
//   - docfetch_fetch_retry_exhausted_total{error_class} (Counter): Fetches that exhausted their retries
//
// Cache Metrics (pkg/cache):
//   - docfetch_cache_hits_total (Counter): Cache hits
//   - docfetch_cache_misses_total (Counter): Cache misses
//   - docfetch_304_responses_total (Counter): 304 Not Modified responses
//   - docfetch_cache_errors_total{operation} (Counter): Cache operation errors
//
// Render Metrics (pkg/render):
//   - docfetch_render_duration_seconds (Histogram): Conversion duration
//   - docfetch_renders_total{result} (Counter): Conversions by result
//
// Storage Metrics (pkg/storage):
//   - docfetch_storage_writes_total{backend, result} (Counter): Destination writes
//   - docfetch_storage_bytes_written_total{backend} (Counter): Bytes committed
//
// Batch Metrics (pkg/client):
//   - docfetch_tasks_total{outcome} (Counter): Tasks by terminal outcome
//   - docfetch_batch_duration_seconds (Histogram): GetDocuments duration
//
// Example Prometheus Queries:
//
//   # Failure ratio
//   sum(rate(docfetch_tasks_total{outcome="failed"}[5m])) /
//   sum(rate(docfetch_tasks_total[5m]))
//
//   # Conversion pool saturation
//   docfetch_pool_busy_workers{pool="conversion"}
//
//   # P95 rate limit wait
//   histogram_quantile(0.95, rate(docfetch_rate_limit_wait_seconds_bucket[5m]))
//
//   # Cache hit rate
//   sum(rate(docfetch_cache_hits_total[5m])) /
//   (sum(rate(docfetch_cache_hits_total[5m])) + sum(rate(docfetch_cache_misses_total[5m])))
