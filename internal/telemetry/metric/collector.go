package metric

import "github.com/prometheus/client_golang/prometheus"

// StoreStats is the view of the key-value store the collector reads.
type StoreStats interface {
	Len() int
}

// StoreCollector exports the number of stored entries at scrape time.
// Entries that expired but were not overwritten yet are included.
type StoreCollector struct {
	store StoreStats
	keys  *prometheus.Desc
}

// NewStoreCollector creates a collector reading from store.
func NewStoreCollector(store StoreStats) *StoreCollector {
	return &StoreCollector{
		store: store,
		keys: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "keys"),
			"Entries physically held by the store, including lazily expired ones.",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *StoreCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.keys
}

// Collect implements prometheus.Collector.
func (c *StoreCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.keys, prometheus.GaugeValue, float64(c.store.Len()))
}
