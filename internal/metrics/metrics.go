// Package metrics provides Prometheus metrics for the chat client
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the client's collectors on a private registry
type Metrics struct {
	registry *prometheus.Registry

	// Exchange metrics
	ExchangesTotal    *prometheus.CounterVec
	ExchangeDuration  prometheus.Histogram
	ExchangesInFlight prometheus.Gauge
	StaleResolutions  prometheus.Counter

	// Storage metrics
	SessionsEvictedTotal prometheus.Counter

	// Upload metrics
	UploadsTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all collectors
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{registry: reg}

	m.ExchangesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tusty_exchanges_total",
			Help: "Total number of question/answer exchanges by outcome",
		},
		[]string{"outcome"},
	)

	m.ExchangeDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tusty_exchange_duration_seconds",
			Help:    "Time from pending placeholder to resolution",
			Buckets: prometheus.DefBuckets,
		},
	)

	m.ExchangesInFlight = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "tusty_exchanges_in_flight",
			Help: "Number of exchanges awaiting an answer",
		},
	)

	m.StaleResolutions = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "tusty_stale_resolutions_total",
			Help: "Resolutions whose placeholder was no longer present",
		},
	)

	m.SessionsEvictedTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "tusty_sessions_evicted_total",
			Help: "Sessions dropped by the collection cap",
		},
	)

	m.UploadsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tusty_uploads_total",
			Help: "Total number of document uploads by status",
		},
		[]string{"status"},
	)

	return m
}

// Registry returns the registry holding the collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the collectors in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordEviction counts sessions dropped by the cap
func (m *Metrics) RecordEviction(n int) {
	m.SessionsEvictedTotal.Add(float64(n))
}

// RecordUpload counts an upload attempt
func (m *Metrics) RecordUpload(status string) {
	m.UploadsTotal.WithLabelValues(status).Inc()
}
