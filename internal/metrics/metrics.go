// Package metrics exposes prometheus metrics for reading list sync passes.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records sync pass metrics. It implements
// readinglists.MetricsRecorder.
type Collector struct {
	syncsInProgress prometheus.Gauge
	syncs           *prometheus.CounterVec
	syncDuration    prometheus.Histogram
	syncedLists     prometheus.Gauge
	syncedEntries   prometheus.Gauge
	pushFailures    *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		syncsInProgress: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "readinglists_syncs_in_progress",
			Help: "Number of sync passes currently executing",
		}),
		syncs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "readinglists_syncs_total",
			Help: "Finished sync passes by result",
		}, []string{"result"}),
		syncDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "readinglists_sync_duration_seconds",
			Help:    "Duration of sync passes in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		syncedLists: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "readinglists_synced_lists",
			Help: "Live lists bound to a remote list after the last pass",
		}),
		syncedEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "readinglists_synced_entries",
			Help: "Live entries bound to a remote entry after the last pass",
		}),
		pushFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "readinglists_push_failures_total",
			Help: "Local changes the server rejected, by kind",
		}, []string{"kind"}),
	}

	reg.MustRegister(
		c.syncsInProgress,
		c.syncs,
		c.syncDuration,
		c.syncedLists,
		c.syncedEntries,
		c.pushFailures,
	)

	return c
}

func (c *Collector) SyncStarted() {
	c.syncsInProgress.Inc()
}

func (c *Collector) SyncFinished(err error, duration time.Duration, syncedLists, syncedEntries int) {
	c.syncsInProgress.Dec()
	result := "success"
	if err != nil {
		result = "failure"
	}
	c.syncs.WithLabelValues(result).Inc()
	c.syncDuration.Observe(duration.Seconds())
	c.syncedLists.Set(float64(syncedLists))
	c.syncedEntries.Set(float64(syncedEntries))
}

func (c *Collector) PushFailed(kind string) {
	c.pushFailures.WithLabelValues(kind).Inc()
}

// Handler returns the prometheus scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
