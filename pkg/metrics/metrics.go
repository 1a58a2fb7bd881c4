// Package metrics provides the centralized Prometheus registry for the
// Aktiva client. Metrics are defined in their owning packages (client,
// cache, ratelimit) to maintain modularity and avoid circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the Aktiva client.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Rate Budget Metrics (pkg/ratelimit):
//   - aktiva_rate_budget_in_window (Gauge): Requests issued within the current rolling window
//   - aktiva_rate_budget_waits_total (Counter): Requests that had to wait for budget
//   - aktiva_rate_budget_wait_seconds (Histogram): Time spent waiting for budget
//
// Cache Metrics (pkg/cache):
//   - aktiva_cache_hits_total (Counter): Response cache hits
//   - aktiva_cache_misses_total (Counter): Response cache misses
//   - aktiva_cache_errors_total{operation} (Counter): Cache operation errors
//
// Request Metrics (pkg/client):
//   - aktiva_requests_total{endpoint, status} (Counter): Total requests by endpoint and HTTP status
//   - aktiva_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - aktiva_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network)
//
// Retry Metrics (pkg/client):
//   - aktiva_retries_total{error_class} (Counter): Retry attempts by error class
//   - aktiva_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - aktiva_retry_exhausted_total (Counter): Requests that exhausted max retries
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(aktiva_cache_hits_total[5m])) /
//   (sum(rate(aktiva_cache_hits_total[5m])) + sum(rate(aktiva_cache_misses_total[5m])))
//
//   # Rate Budget Saturation
//   aktiva_rate_budget_in_window / 60
//
//   # Request Error Rate
//   rate(aktiva_errors_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(aktiva_request_duration_seconds_bucket[5m]))
//
//   # Time Lost Waiting for Budget
//   rate(aktiva_rate_budget_wait_seconds_sum[5m])
