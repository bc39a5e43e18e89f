// Package metrics exposes the Prometheus registry shared by the resolver.
// All metrics are defined in their respective packages (ratelimit, gateway,
// gathercontent, enhancer) and registered via promauto.
//
// This package provides the HTTP handler and a catalogue of what is exported.
package metrics

import (
	"net/http"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by the resolver.
var Registry = prometheus.DefaultRegisterer

// Gatherer collects everything registered on Registry.
var Gatherer = prometheus.DefaultGatherer

// Prefix is shared by every resolver metric.
const Prefix = "gathercontent_"

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.InstrumentMetricHandler(Registry, promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{}))
}

// Families returns the sorted names of the gathered metric families that
// start with prefix. Vectors only appear once a label set was observed.
func Families(prefix string) ([]string, error) {
	mfs, err := Gatherer.Gather()
	if err != nil {
		return nil, err
	}

	var names []string
	for _, mf := range mfs {
		if strings.HasPrefix(mf.GetName(), prefix) {
			names = append(names, mf.GetName())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Metrics Documentation
//
// Throttle Metrics (pkg/ratelimit):
//   - gathercontent_throttle_waits_total (Counter): Calls that had to wait for window capacity
//   - gathercontent_throttle_wait_seconds (Histogram): Time spent queued before admission
//
// Request Metrics (pkg/gateway):
//   - gathercontent_requests_total{endpoint, status} (Counter): Attempts by endpoint and HTTP status
//   - gathercontent_request_duration_seconds{endpoint} (Histogram): Attempt duration by endpoint
//   - gathercontent_errors_total{class} (Counter): Failed attempts by class (client, server, rate_limit, network)
//
// Retry Metrics (pkg/gateway):
//   - gathercontent_retries_total{error_class} (Counter): Retry attempts by error class
//   - gathercontent_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - gathercontent_retry_exhausted_total{error_class} (Counter): Calls that exhausted their retries
//
// Client Metrics (pkg/gathercontent):
//   - gathercontent_item_fetch_failures_total (Counter): Per-item content fetches that failed
//
// Batch Metrics (pkg/enhancer):
//   - gathercontent_batch_tasks_total{outcome} (Counter): Settled tasks (resolved, null, rejected)
//   - gathercontent_batch_fetch_calls_total{source} (Counter): GetItems calls issued per source
//   - gathercontent_batch_failed_items_total{source} (Counter): Failed items reported per source
//
// Example Prometheus Queries:
//
//   # Throttle pressure
//   rate(gathercontent_throttle_waits_total[5m])
//
//   # Request Error Rate
//   rate(gathercontent_errors_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(gathercontent_request_duration_seconds_bucket[5m]))
//
//   # Rejected task ratio
//   sum(rate(gathercontent_batch_tasks_total{outcome="rejected"}[5m])) /
//   sum(rate(gathercontent_batch_tasks_total[5m]))
