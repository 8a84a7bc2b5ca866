// Package metrics documents the Prometheus metrics of the admin table tools
// and dumps them for the CLI.
// All metrics are defined in their owning packages (client, cache, ratelimit,
// table) to avoid circular dependencies.
package metrics

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Prefix starts the name of every metric registered by this module.
const Prefix = "admin_"

// Registry is the Prometheus registry the metrics are registered with.
// All metrics are registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer reads the metrics back for Write.
var Gatherer prometheus.Gatherer = prometheus.DefaultGatherer

// Write gathers every metric whose name starts with Prefix and writes it in
// the Prometheus text format, sorted by name.
func Write(w io.Writer) error {
	families, err := Gatherer.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	sort.Slice(families, func(i, j int) bool {
		return families[i].GetName() < families[j].GetName()
	})

	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), Prefix) {
			continue
		}
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// Metrics Documentation
//
// Table Metrics (pkg/table):
//   - admin_table_fetches_total{trigger, outcome} (Counter): Fetches by trigger and outcome (applied, failed, stale, unmounted)
//   - admin_table_fetch_duration_seconds{trigger} (Histogram): Search duration by trigger
//   - admin_table_url_replaces_total (Counter): URL replacements after user-driven fetches
//
// Quota Metrics (pkg/ratelimit):
//   - admin_quota_remaining{scope} (Gauge): Backend calls remaining in the quota window
//   - admin_quota_blocks_total{scope} (Counter): Requests blocked due to critical quota
//   - admin_quota_throttles_total{scope} (Counter): Requests throttled due to warning quota
//
// Cache Metrics (pkg/cache):
//   - admin_cache_hits_total{layer="redis"} (Counter): Cache hits by layer
//   - admin_cache_misses_total (Counter): Cache misses
//   - admin_cache_size_bytes{layer="redis"} (Gauge): Bytes written to the cache
//   - admin_304_responses_total (Counter): 304 Not Modified responses
//   - admin_conditional_requests_total (Counter): Conditional requests sent
//   - admin_cache_errors_total{operation} (Counter): Cache operation errors
//
// Request Metrics (pkg/client):
//   - admin_requests_total{resource, status} (Counter): Requests by resource and status
//   - admin_request_duration_seconds{resource} (Histogram): Request duration by resource
//   - admin_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network)
//
// Retry Metrics (pkg/client):
//   - admin_retries_total{error_class} (Counter): Retry attempts by error class
//   - admin_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - admin_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Example Prometheus Queries:
//
//   # Share of table fetches dropped as stale
//   sum(rate(admin_table_fetches_total{outcome="stale"}[5m])) /
//   sum(rate(admin_table_fetches_total[5m]))
//
//   # Cache Hit Rate
//   sum(rate(admin_cache_hits_total[5m])) /
//   (sum(rate(admin_cache_hits_total[5m])) + sum(rate(admin_cache_misses_total[5m])))
//
//   # P95 page latency
//   histogram_quantile(0.95, rate(admin_table_fetch_duration_seconds_bucket[5m]))
