package resolver

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"scraperhq/anchor/pkg/conferr"
	"scraperhq/anchor/pkg/schema"
)

// Metrics contains Prometheus metrics for the resolver.
type Metrics struct {
	resolutions       *prometheus.CounterVec
	violations        *prometheus.CounterVec
	resolveDuration   prometheus.Histogram
	snapshotTimestamp prometheus.Gauge
	watchEvents       prometheus.Counter
}

// NewMetrics creates a Metrics instance registered on the given registerer.
// A nil registerer uses the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		resolutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "anchor_config_resolutions_total",
				Help: "Total number of configuration resolution attempts",
			},
			[]string{"trigger", "outcome"},
		),

		violations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "anchor_config_violations_total",
				Help: "Total number of configuration violations by code",
			},
			[]string{"code"},
		),

		resolveDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "anchor_config_resolution_duration_seconds",
				Help:    "Duration of configuration resolutions in seconds",
				Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14), // 100µs to ~1.6s
			},
		),

		snapshotTimestamp: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "anchor_config_snapshot_timestamp_seconds",
				Help: "Unix time at which the current snapshot was resolved",
			},
		),

		watchEvents: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "anchor_config_watch_reloads_total",
				Help: "Total number of reloads triggered by file watching",
			},
		),
	}
}

// RecordResolution records one resolution attempt.
func (m *Metrics) RecordResolution(trigger string, success bool, duration time.Duration, errs *conferr.List) {
	if m == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.resolutions.WithLabelValues(trigger, outcome).Inc()
	m.resolveDuration.Observe(duration.Seconds())
	if errs != nil {
		for _, v := range errs.Violations {
			m.violations.WithLabelValues(string(v.Code)).Inc()
		}
	}
}

// RecordSnapshot records the publication of a new snapshot.
func (m *Metrics) RecordSnapshot(res *schema.Resolved) {
	if m == nil {
		return
	}
	m.snapshotTimestamp.Set(float64(res.CreatedAt().Unix()))
}

// RecordWatchReload records a reload triggered by the file watcher.
func (m *Metrics) RecordWatchReload() {
	if m == nil {
		return
	}
	m.watchEvents.Inc()
}
