// Package metrics exposes Prometheus metrics for the propagation and search engines.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the reactive handlers.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Handler runs by handler and outcome ("ok", "noop", "retry", "failed")
	HandlerRuns *prometheus.CounterVec

	// Handler run latency including commit, by handler
	HandlerLatency *prometheus.HistogramVec

	// Documents whose cached boat name was corrected
	DocumentsPropagated prometheus.Counter

	// Result rows materialized per search build
	SearchResults prometheus.Histogram

	// Result pages written
	SearchPages prometheus.Counter

	// Expired searches removed by the sweeper
	SearchesSwept prometheus.Counter

	// Changes waiting in the dispatcher queue
	QueueDepth prometheus.Gauge
}

// New creates a Metrics instance registered on reg.
// A nil reg gets a fresh registry, so tests can create as many as they like.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		HandlerRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "trophies_handler_runs_total",
			Help: "Reactive handler runs by handler and outcome",
		}, []string{"handler", "outcome"}),

		HandlerLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "trophies_handler_duration_seconds",
			Help:    "Duration of one handler attempt including the batch commit",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"handler"}),

		DocumentsPropagated: factory.NewCounter(prometheus.CounterOpts{
			Name: "trophies_propagated_documents_total",
			Help: "Trophy and winner documents whose boat name was re-synchronized",
		}),

		SearchResults: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "trophies_search_results",
			Help:    "Visible result rows per search build",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),

		SearchPages: factory.NewCounter(prometheus.CounterOpts{
			Name: "trophies_search_pages_total",
			Help: "Search result pages written",
		}),

		SearchesSwept: factory.NewCounter(prometheus.CounterOpts{
			Name: "trophies_searches_swept_total",
			Help: "Expired searches deleted by the sweeper",
		}),

		QueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "trophies_dispatch_queue_depth",
			Help: "Document changes waiting to be dispatched",
		}),
	}
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// IncrementRun records a handler run outcome.
func (m *Metrics) IncrementRun(handler, outcome string) {
	if m != nil {
		m.HandlerRuns.WithLabelValues(handler, outcome).Inc()
	}
}

// ObserveLatency records the duration of one handler attempt.
func (m *Metrics) ObserveLatency(handler string, d time.Duration) {
	if m != nil {
		m.HandlerLatency.WithLabelValues(handler).Observe(d.Seconds())
	}
}

// AddPropagated records documents corrected by a propagation.
func (m *Metrics) AddPropagated(n int) {
	if m != nil && n > 0 {
		m.DocumentsPropagated.Add(float64(n))
	}
}

// ObserveSearch records the size of a built search.
func (m *Metrics) ObserveSearch(results, pages int) {
	if m != nil {
		m.SearchResults.Observe(float64(results))
		m.SearchPages.Add(float64(pages))
	}
}

// AddSwept records searches removed by the sweeper.
func (m *Metrics) AddSwept(n int) {
	if m != nil && n > 0 {
		m.SearchesSwept.Add(float64(n))
	}
}

// SetQueueDepth records the dispatcher backlog.
func (m *Metrics) SetQueueDepth(n int) {
	if m != nil {
		m.QueueDepth.Set(float64(n))
	}
}
