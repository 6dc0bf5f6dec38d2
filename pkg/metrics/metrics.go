// Package metrics provides the centralized Prometheus metrics registry for
// the speech exporter. All metrics are defined in their respective packages
// (client, pagination) to maintain modularity and avoid circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the exporter.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - kokkai_requests_total{status} (Counter): Total API requests by HTTP status
//     (or "network_error")
//   - kokkai_request_duration_seconds (Histogram): Logical fetch duration,
//     retries included
//   - kokkai_errors_total{class} (Counter): Fetch errors by class
//     (client, server, network, decode)
//
// Retry Metrics (pkg/client):
//   - kokkai_retries_total{error_class} (Counter): Retry attempts by error class
//   - kokkai_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - kokkai_retry_exhausted_total{error_class} (Counter): Fetches that exhausted max retries
//
// Pagination Metrics (pkg/pagination):
//   - kokkai_pages_fetched_total (Counter): Result pages fetched
//   - kokkai_records_fetched_total (Counter): Speech records accumulated
//   - kokkai_runs_aborted_total (Counter): Runs aborted by a fatal failure
//
// Example Prometheus Queries:
//
//   # Request Error Rate
//   rate(kokkai_errors_total[5m])
//
//   # Retry Exhaustion
//   increase(kokkai_retry_exhausted_total[1h])
//
//   # P95 Fetch Latency
//   histogram_quantile(0.95, rate(kokkai_request_duration_seconds_bucket[5m]))
