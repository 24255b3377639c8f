// Package metrics holds the Prometheus collectors for sweeps.
//
// All recording methods are safe to call on a nil *Metrics, so components can
// run without metrics wired in.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "indexsweep"

// Metrics contains the collectors for index retention sweeps.
type Metrics struct {
	registry *prometheus.Registry

	indicesDeleted *prometheus.CounterVec
	indicesSkipped *prometheus.CounterVec
	deleteFailures *prometheus.CounterVec
	ruleRuns       *prometheus.CounterVec
	ruleDuration   *prometheus.HistogramVec
	lastSweep      prometheus.Gauge
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		indicesDeleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "indices_deleted_total",
				Help:      "Total number of indices deleted past their retention deadline",
			},
			[]string{"pattern"},
		),
		indicesSkipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "indices_skipped_total",
				Help:      "Total number of listed indices skipped because no date could be parsed",
			},
			[]string{"pattern", "reason"},
		),
		deleteFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "delete_failures_total",
				Help:      "Total number of failed index deletions",
			},
			[]string{"pattern"},
		),
		ruleRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rule_runs_total",
				Help:      "Total number of rule evaluations by outcome",
			},
			[]string{"pattern", "status"},
		),
		ruleDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "rule_duration_seconds",
				Help:      "Duration of a single rule evaluation",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"pattern"},
		),
		lastSweep: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_sweep_timestamp_seconds",
				Help:      "Unix time of the last completed sweep",
			},
		),
	}

	m.registry.MustRegister(
		m.indicesDeleted,
		m.indicesSkipped,
		m.deleteFailures,
		m.ruleRuns,
		m.ruleDuration,
		m.lastSweep,
	)
	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObservePool exposes the number of held pool guards as a gauge.
func (m *Metrics) ObservePool(inUse func() int) {
	if m == nil {
		return
	}
	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pool_guards_in_use",
			Help:      "Number of pool guards currently held",
		},
		func() float64 { return float64(inUse()) },
	))
}

// IndexDeleted records a deleted index.
func (m *Metrics) IndexDeleted(pattern string) {
	if m == nil {
		return
	}
	m.indicesDeleted.WithLabelValues(pattern).Inc()
}

// IndexSkipped records an index skipped for reason.
func (m *Metrics) IndexSkipped(pattern, reason string) {
	if m == nil {
		return
	}
	m.indicesSkipped.WithLabelValues(pattern, reason).Inc()
}

// DeleteFailed records a failed deletion.
func (m *Metrics) DeleteFailed(pattern string) {
	if m == nil {
		return
	}
	m.deleteFailures.WithLabelValues(pattern).Inc()
}

// RuleCompleted records one rule evaluation.
func (m *Metrics) RuleCompleted(pattern, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.ruleRuns.WithLabelValues(pattern, status).Inc()
	m.ruleDuration.WithLabelValues(pattern).Observe(d.Seconds())
}

// SweepCompleted stamps the time of the last finished sweep.
func (m *Metrics) SweepCompleted(at time.Time) {
	if m == nil {
		return
	}
	m.lastSweep.Set(float64(at.Unix()))
}

// Handler returns the HTTP handler serving the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}
