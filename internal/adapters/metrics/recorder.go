// Package metrics records build metrics with Prometheus collectors.
//
// A build is a short-lived process, so nothing is scraped: the collected metrics are
// written to a text file after each build, ready for the node exporter textfile collector.
package metrics

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

const namespace = "kiln"

// Recorder implements ports.Metrics on a private registry.
type Recorder struct {
	registry *prometheus.Registry

	tasks        *prometheus.CounterVec
	taskDuration *prometheus.HistogramVec
	cacheLookups *prometheus.CounterVec
	cacheStores  *prometheus.CounterVec
	leases       prometheus.Gauge
}

// NewRecorder creates a Recorder with its collectors registered.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		tasks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_total",
			Help:      "Tasks that reached a terminal state, by outcome.",
		}, []string{"outcome"}),
		taskDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Time spent in the execution pipeline per task.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
		}, []string{"outcome"}),
		cacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Build cache lookups.",
		}, []string{"hit"}),
		cacheStores: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_stores_total",
			Help:      "Build cache writes.",
		}, []string{"success"}),
		leases: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "worker_leases_active",
			Help:      "Worker leases currently held.",
		}),
	}
}

// TaskFinished implements ports.Metrics.
func (r *Recorder) TaskFinished(outcome domain.Outcome, d time.Duration) {
	r.tasks.WithLabelValues(outcome.String()).Inc()
	r.taskDuration.WithLabelValues(outcome.String()).Observe(d.Seconds())
}

// CacheLookup implements ports.Metrics.
func (r *Recorder) CacheLookup(hit bool) {
	r.cacheLookups.WithLabelValues(strconv.FormatBool(hit)).Inc()
}

// CacheStored implements ports.Metrics.
func (r *Recorder) CacheStored(ok bool) {
	r.cacheStores.WithLabelValues(strconv.FormatBool(ok)).Inc()
}

// LeasesActive implements ports.Metrics.
func (r *Recorder) LeasesActive(n int) {
	r.leases.Set(float64(n))
}

// Gatherer exposes the registry.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteFile writes the metrics in the Prometheus text format, replacing path atomically.
func (r *Recorder) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create metrics directory"), "path", path)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write metrics file"), "path", path)
	}
	return nil
}
