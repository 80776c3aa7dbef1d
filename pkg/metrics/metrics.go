// Package metrics collects Prometheus metrics about randomization runs.
// Runs are one-shot, so metrics are written to a node-exporter textfile
// instead of being served.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ssargent/aerobonkers/pkg/engine"
)

// Metrics holds all Prometheus metrics for a run and implements
// engine.Recorder
type Metrics struct {
	registry *prometheus.Registry

	runsTotal       *prometheus.CounterVec
	runDuration     prometheus.Histogram
	familiesTotal   *prometheus.CounterVec
	familyDuration  *prometheus.HistogramVec
	changesTotal    *prometheus.CounterVec
	lastRunUnixTime prometheus.Gauge
}

var _ engine.Recorder = (*Metrics)(nil)

// NewMetrics creates a registry and registers all metrics on it
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		runsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aerobonkers_runs_total",
				Help: "Total number of randomization runs",
			},
			[]string{"outcome"},
		),

		runDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "aerobonkers_run_duration_seconds",
				Help:    "Randomization run duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),

		familiesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aerobonkers_families_total",
				Help: "Total number of record families processed",
			},
			[]string{"family", "randomized"},
		),

		familyDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "aerobonkers_family_duration_seconds",
				Help:    "Time spent loading, randomizing and writing one family",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
			[]string{"family"},
		),

		changesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aerobonkers_attribute_changes_total",
				Help: "Total number of attribute values changed, by phase",
			},
			[]string{"family", "phase"},
		),

		lastRunUnixTime: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "aerobonkers_last_run_timestamp_seconds",
				Help: "Unix time of the last finished run",
			},
		),
	}
}

// ObserveFamily records one processed family
func (m *Metrics) ObserveFamily(family string, randomized bool, elapsed time.Duration) {
	m.familiesTotal.WithLabelValues(family, fmt.Sprint(randomized)).Inc()
	m.familyDuration.WithLabelValues(family).Observe(elapsed.Seconds())
}

// CountChanges records how many values a phase changed
func (m *Metrics) CountChanges(family, phase string, n int) {
	m.changesTotal.WithLabelValues(family, phase).Add(float64(n))
}

// ObserveRun records a finished run
func (m *Metrics) ObserveRun(outcome engine.Stage, elapsed time.Duration) {
	m.runsTotal.WithLabelValues(string(outcome)).Inc()
	m.runDuration.Observe(elapsed.Seconds())
	m.lastRunUnixTime.SetToCurrentTime()
}

// WriteTextfile writes every metric to path in the text exposition format
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
