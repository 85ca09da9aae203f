// Package metrics exposes engine activity as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "wargames"

// #region metrics
// Metrics holds the engine's collectors, all registered on one registry.
type Metrics struct {
	registry *prometheus.Registry

	interventions   *prometheus.CounterVec
	interventionDur prometheus.Histogram
	visited         prometheus.Histogram
	dropped         prometheus.Counter
	rewrites        *prometheus.CounterVec
	imports         prometheus.Counter
	goalScore       *prometheus.GaugeVec
}

// New registers the engine collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		interventions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interventions_total",
			Help:      "Interventions by trigger, gate decision and title tag",
		}, []string{"trigger", "decision", "tag"}),
		interventionDur: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "intervention_duration_seconds",
			Help:      "Time from request to committed snapshot",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		visited: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "propagation",
			Name:      "visited_events",
			Help:      "Events that received a delta in one propagation",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		dropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "propagation",
			Name:      "dropped_contributions_total",
			Help:      "Contributions discarded because the target was already processed",
		}),
		rewrites: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rewriter",
			Name:      "requests_total",
			Help:      "Cascade rewrite calls by backend and status",
		}, []string{"backend", "status"}),
		imports: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "world_imports_total",
			Help:      "World files imported into the store",
		}),
		goalScore: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "goal_score",
			Help:      "Latest weighted score per goal",
		}, []string{"goal"}),
	}
}

// Registry returns the registry backing these collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// #endregion metrics

// #region observers
// ObserveIntervention records one intervention or propagation request.
func (m *Metrics) ObserveIntervention(trigger, decision, tag string, took time.Duration) {
	if tag == "" {
		tag = "none"
	}
	m.interventions.WithLabelValues(trigger, decision, tag).Inc()
	m.interventionDur.Observe(took.Seconds())
}

// ObservePropagation records the shape of one propagation pass.
func (m *Metrics) ObservePropagation(visited, dropped int) {
	m.visited.Observe(float64(visited))
	m.dropped.Add(float64(dropped))
}

// ObserveRewrite records a cascade rewrite call.
func (m *Metrics) ObserveRewrite(backend string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.rewrites.WithLabelValues(backend, status).Inc()
}

// ObserveImport records a world import.
func (m *Metrics) ObserveImport() { m.imports.Inc() }

// SetGoalScore publishes the latest score for a goal.
func (m *Metrics) SetGoalScore(goalID string, score float64) {
	m.goalScore.WithLabelValues(goalID).Set(score)
}

// #endregion observers
