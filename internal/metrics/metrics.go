// Package metrics exports harvest Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "harvest"

// Metrics holds the harvest metrics and the registry they live on.
type Metrics struct {
	registry *prometheus.Registry

	RunsTotal      *prometheus.CounterVec
	EntitiesTotal  *prometheus.CounterVec
	DeletedObjects prometheus.Counter
	RunDuration    prometheus.Histogram
	LastRunTime    prometheus.Gauge
}

// New registers the harvest metrics on a fresh registry, together with the
// Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Total harvest runs by outcome (success, partial, failed, aborted)",
		}, []string{"outcome"}),
		EntitiesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entities_total",
			Help:      "Total STAC entities processed by kind and outcome",
		}, []string{"kind", "outcome"}),
		DeletedObjects: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deleted_objects_total",
			Help:      "Total output objects deleted from prior runs and orphan sweeps",
		}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a harvest run",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200, 1800, 3600},
		}),
		LastRunTime: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last harvest run finished",
		}),
	}
}

// RunFinished records a completed run.
func (m *Metrics) RunFinished(outcome string, duration time.Duration) {
	m.RunsTotal.WithLabelValues(outcome).Inc()
	m.RunDuration.Observe(duration.Seconds())
	m.LastRunTime.SetToCurrentTime()
}

// EntityProcessed records one entity result.
func (m *Metrics) EntityProcessed(kind, outcome string) {
	m.EntitiesTotal.WithLabelValues(kind, outcome).Inc()
}

// ObjectsDeleted records deleted output objects.
func (m *Metrics) ObjectsDeleted(n int) {
	m.DeletedObjects.Add(float64(n))
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
