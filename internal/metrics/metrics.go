// Package metrics provides Prometheus metrics collection for resolver runs.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/lokireturns/loki-jsonschema-resolver/pointer"
	"github.com/lokireturns/loki-jsonschema-resolver/referrors"
	"github.com/lokireturns/loki-jsonschema-resolver/resolver"
)

// Collector holds all Prometheus metrics for the resolver.
type Collector struct {
	// Run metrics
	RunsTotal     *prometheus.CounterVec
	RunDuration   prometheus.Histogram
	LastRunFinish prometheus.Gauge

	// Pass metrics
	PassesTotal   prometheus.Counter
	DeferredFiles prometheus.Gauge

	// Reference and file metrics
	ReferencesResolved *prometheus.CounterVec
	FileVisits         *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New creates a collector registered on a fresh registry, so runs in the
// same process never share series.
func New() *Collector {
	return NewWithRegistry(prometheus.NewRegistry())
}

// NewWithRegistry creates a collector registered on reg.
func NewWithRegistry(reg *prometheus.Registry) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "jsonschema_resolver",
				Name:      "runs_total",
				Help:      "Total number of resolver runs by outcome",
			},
			[]string{"outcome"},
		),
		RunDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "jsonschema_resolver",
				Name:      "run_duration_seconds",
				Help:      "Resolver run duration in seconds",
				Buckets:   []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
		),
		LastRunFinish: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "jsonschema_resolver",
				Name:      "last_run_timestamp_seconds",
				Help:      "Unix timestamp of the last finished run",
			},
		),
		PassesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "jsonschema_resolver",
				Name:      "passes_total",
				Help:      "Total number of fixpoint passes",
			},
		),
		DeferredFiles: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "jsonschema_resolver",
				Name:      "deferred_files",
				Help:      "Files still holding references after the last pass",
			},
		),
		ReferencesResolved: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "jsonschema_resolver",
				Name:      "references_resolved_total",
				Help:      "Total number of references bound, by kind",
			},
			[]string{"kind"},
		),
		FileVisits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "jsonschema_resolver",
				Name:      "file_visits_total",
				Help:      "Total number of file visits, by resulting state",
			},
			[]string{"state"},
		),
		gatherer: reg,
	}
}

// PassCompleted implements resolver.Recorder.
func (c *Collector) PassCompleted(_, deferred int) {
	c.PassesTotal.Inc()
	c.DeferredFiles.Set(float64(deferred))
}

// ReferenceResolved implements resolver.Recorder.
func (c *Collector) ReferenceResolved(kind pointer.Kind) {
	c.ReferencesResolved.WithLabelValues(kind.String()).Inc()
}

// FileFinished implements resolver.Recorder.
func (c *Collector) FileFinished(state resolver.FileState) {
	c.FileVisits.WithLabelValues(state.String()).Inc()
}

// RunFinished implements resolver.Recorder.
func (c *Collector) RunFinished(_ *resolver.Result, err error, elapsed time.Duration) {
	c.RunsTotal.WithLabelValues(Outcome(err)).Inc()
	c.RunDuration.Observe(elapsed.Seconds())
	c.LastRunFinish.SetToCurrentTime()
}

var _ resolver.Recorder = (*Collector)(nil)

// Outcome maps a run error to the outcome label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, referrors.ErrNoProgress):
		return "no_progress"
	default:
		return "error"
	}
}

// Gatherer returns the registry the collector is registered on.
func (c *Collector) Gatherer() prometheus.Gatherer {
	return c.gatherer
}

// WriteTextfile writes every metric to path in the Prometheus text format,
// for pickup by the node_exporter textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.gatherer)
}
