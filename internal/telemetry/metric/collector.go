package metric

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/kvsession/internal/storage"
)

// StoreCollector reports the number of live session records at scrape
// time by enumerating the store.
type StoreCollector struct {
	lister  storage.Lister
	backend string
	timeout time.Duration

	live   *prometheus.Desc
	failed *prometheus.Desc
}

// NewStoreCollector creates a collector over lister. backend labels the
// series.
func NewStoreCollector(lister storage.Lister, backend string) *StoreCollector {
	return &StoreCollector{
		lister:  lister,
		backend: backend,
		timeout: 5 * time.Second,
		live: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "sessions_live"),
			"Live session records per host.",
			[]string{"backend", "host"}, nil,
		),
		failed: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "sessions_scan_failed"),
			"1 when the last scrape could not enumerate the store.",
			[]string{"backend"}, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *StoreCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.live
	ch <- c.failed
}

// Collect implements prometheus.Collector.
func (c *StoreCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	perHost := map[string]int{}
	err := c.lister.Scan(ctx, "", func(e storage.Entry) bool {
		perHost[e.Key.Host]++
		return true
	})

	failed := 0.0
	if err != nil {
		failed = 1
	}
	ch <- prometheus.MustNewConstMetric(c.failed, prometheus.GaugeValue, failed, c.backend)
	if err != nil {
		return
	}

	for host, n := range perHost {
		ch <- prometheus.MustNewConstMetric(c.live, prometheus.GaugeValue, float64(n), c.backend, host)
	}
}
