// Package metric provides Prometheus metrics for kvsession.
//
// This package implements metrics collection and exposition:
//
//   - prometheus.go: the metric registry, recorder hooks and HTTP handler
//   - collector.go: a scrape-time collector counting live sessions
//
// Metrics include session operation counters, KV latency histograms,
// HTTP request counters and the number of in-flight detached renewals.
//
// Metrics are exposed at /metrics in Prometheus format.
package metric
