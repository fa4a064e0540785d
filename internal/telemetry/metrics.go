package telemetry

import (
	"strconv"

	"github.com/nulzo/model-selector/internal/core/ports"
	"github.com/nulzo/model-selector/pkg/schema"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the selector service. It
// implements ports.Recorder so the registry and selector report through it.
type Metrics struct {
	FetchTotal        *prometheus.CounterVec
	CacheLookupTotal  *prometheus.CounterVec
	SnapshotModels    prometheus.Gauge
	SelectionTotal    *prometheus.CounterVec
	RequestTotal      *prometheus.CounterVec
	RequestDurationMs *prometheus.HistogramVec
}

var _ ports.Recorder = (*Metrics)(nil)

// NewMetrics creates the collectors and registers them with reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		FetchTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "model_selector_registry_fetch_total",
			Help: "Remote model metadata fetches by outcome.",
		}, []string{"outcome"}),

		CacheLookupTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "model_selector_registry_cache_lookup_total",
			Help: "Snapshot cache lookups by result.",
		}, []string{"result"}),

		SnapshotModels: factory.NewGauge(prometheus.GaugeOpts{
			Name: "model_selector_registry_models",
			Help: "Number of models in the active snapshot.",
		}),

		SelectionTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "model_selector_selection_total",
			Help: "Selection resolutions by strategy and outcome.",
		}, []string{"strategy", "outcome"}),

		RequestTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "model_selector_http_request_total",
			Help: "HTTP requests served.",
		}, []string{"method", "route", "status"}),

		RequestDurationMs: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "model_selector_http_request_duration_ms",
			Help:    "HTTP request duration in milliseconds.",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 1000, 5000},
		}, []string{"method", "route"}),
	}
}

func (m *Metrics) FetchCompleted(success bool) {
	m.FetchTotal.WithLabelValues(outcome(success, "success", "error")).Inc()
}

func (m *Metrics) CacheLookup(hit bool) {
	m.CacheLookupTotal.WithLabelValues(outcome(hit, "hit", "miss")).Inc()
}

func (m *Metrics) SnapshotLoaded(models int) {
	m.SnapshotModels.Set(float64(models))
}

func (m *Metrics) SelectionResolved(strategy schema.Strategy, matched bool) {
	m.SelectionTotal.WithLabelValues(string(strategy), outcome(matched, "matched", "no_match")).Inc()
}

// RecordRequest records one served HTTP request.
func (m *Metrics) RecordRequest(method, route string, status int, durationMs float64) {
	m.RequestTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.RequestDurationMs.WithLabelValues(method, route).Observe(durationMs)
}

func outcome(ok bool, yes, no string) string {
	if ok {
		return yes
	}
	return no
}
