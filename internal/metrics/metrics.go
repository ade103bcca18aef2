// Package metrics exposes prometheus collectors for the workout core.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics records workout events. It implements workout.Recorder.
//
// Collectors:
//   - workout_saves_total{outcome} counts save attempts reaching the service
//   - workout_save_duration_seconds{outcome} observes how long saves take
//   - workout_validation_violations_total counts validation errors reported
//   - workout_weights_lookups_total{variant} counts storage lookups of exercise weights
//   - workout_weights_lookup_names_total{variant} counts the names looked up
//   - workout_weights_cache_hits_total and workout_weights_cache_misses_total
type Metrics struct {
	registry *prometheus.Registry

	saves        *prometheus.CounterVec
	saveDuration *prometheus.HistogramVec
	violations   prometheus.Counter
	lookups      *prometheus.CounterVec
	lookupNames  *prometheus.CounterVec
	cacheHits    prometheus.Counter
	cacheMisses  prometheus.Counter
}

// New registers the collectors on a fresh registry together with the Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		saves: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "workout_saves_total",
			Help: "Total number of workout save attempts by outcome",
		}, []string{"outcome"}), // "saved", "rejected" or "failed"
		saveDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "workout_save_duration_seconds",
			Help:    "Duration of workout saves in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), //nolint:mnd // 1ms to ~4s
		}, []string{"outcome"}),
		violations: factory.NewCounter(prometheus.CounterOpts{
			Name: "workout_validation_violations_total",
			Help: "Total number of validation errors reported",
		}),
		lookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "workout_weights_lookups_total",
			Help: "Total number of exercise weight lookups reaching storage",
		}, []string{"variant"}), // "batch" or "single"
		lookupNames: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "workout_weights_lookup_names_total",
			Help: "Total number of exercise names looked up in storage",
		}, []string{"variant"}),
		cacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "workout_weights_cache_hits_total",
			Help: "Total number of exercise weights served from the cache",
		}),
		cacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "workout_weights_cache_misses_total",
			Help: "Total number of exercise weights not found in the cache",
		}),
	}
}

func (m *Metrics) WorkoutSaved(outcome string, elapsed time.Duration) {
	m.saves.WithLabelValues(outcome).Inc()
	m.saveDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

func (m *Metrics) ValidationFailed(violations int) {
	m.violations.Add(float64(violations))
}

func (m *Metrics) WeightsLookedUp(variant string, names int) {
	m.lookups.WithLabelValues(variant).Inc()
	m.lookupNames.WithLabelValues(variant).Add(float64(names))
}

func (m *Metrics) WeightsCacheLookup(hits, misses int) {
	m.cacheHits.Add(float64(hits))
	m.cacheMisses.Add(float64(misses))
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
