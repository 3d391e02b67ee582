// Package metrics exports the outcome of a run as a Prometheus textfile,
// for collection by node_exporter's textfile collector.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dmitrijs2005/raddo/internal/syncer"
)

const namespace = "raddo"

// Recorder holds the gauges of one run on a private registry.
type Recorder struct {
	registry *prometheus.Registry

	lastRun      prometheus.Gauge
	duration     prometheus.Gauge
	expected     prometheus.Gauge
	missing      prometheus.Gauge
	files        *prometheus.GaugeVec
	retrieved    *prometheus.GaugeVec
	bytes        prometheus.Gauge
	failAttempts prometheus.Gauge
	legacy       prometheus.Gauge
}

// NewRecorder creates the gauges.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Recorder{
		registry: reg,
		lastRun: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last synchronization finished",
		}),
		duration: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_duration_seconds",
			Help:      "Wall time of the last synchronization",
		}),
		expected: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "files_expected",
			Help:      "Day archives in the requested range",
		}),
		missing: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "files_missing",
			Help:      "Day archives that were neither present nor covered before the run",
		}),
		files: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "files",
			Help:      "Missing files by final state",
		}, []string{"state"}),
		retrieved: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "archives_retrieved",
			Help:      "Archives credited by the last synchronization by source",
		}, []string{"source"}),
		bytes: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "downloaded_bytes",
			Help:      "Bytes downloaded by the last synchronization",
		}),
		failAttempts: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "failed_attempts",
			Help:      "Failed download attempts in the last synchronization",
		}),
		legacy: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "legacy_data",
			Help:      "1 if a month archive satisfied at least one day",
		}),
	}
}

// Observe records rep.
func (r *Recorder) Observe(rep *syncer.Report) {
	r.lastRun.Set(float64(rep.FinishedAt.Unix()))
	r.duration.Set(rep.FinishedAt.Sub(rep.StartedAt).Seconds())
	r.expected.Set(float64(len(rep.Expected)))
	r.missing.Set(float64(len(rep.Missing)))
	for _, s := range []syncer.State{syncer.StateSucceeded, syncer.StateCovered, syncer.StateFailed} {
		r.files.WithLabelValues(string(s)).Set(float64(rep.Count(s)))
	}
	bySource := map[syncer.Source]int{}
	for _, f := range rep.Files {
		if f.State == syncer.StateSucceeded {
			bySource[f.Source]++
		}
	}
	for _, src := range []syncer.Source{syncer.SourcePrimary, syncer.SourceFallback, syncer.SourceLocal} {
		r.retrieved.WithLabelValues(string(src)).Set(float64(bySource[src]))
	}
	r.bytes.Set(float64(rep.Bytes()))
	r.failAttempts.Set(float64(rep.Attempts()))
	if rep.LegacyData {
		r.legacy.Set(1)
	} else {
		r.legacy.Set(0)
	}
}

// Gatherer exposes the registry.
func (r *Recorder) Gatherer() prometheus.Gatherer { return r.registry }

// WriteFile atomically writes the textfile to path.
func (r *Recorder) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("metrics dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
