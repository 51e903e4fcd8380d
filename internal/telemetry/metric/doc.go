// Package metric provides Prometheus metrics for respkv.
//
//   - prometheus.go: the metrics Registry and the /metrics HTTP server
//   - collector.go: a collector exporting store size on every scrape
//
// All Registry methods are safe on a nil *Registry, so components can be
// built without metrics.
package metric
