// Package metrics exposes the student server's counters in the Prometheus
// exposition format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lockdown"

// Request results.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics is safe to use as a nil pointer, every method is then a no-op.
type Metrics struct {
	registry *prometheus.Registry

	requests          *prometheus.CounterVec
	activeConnections prometheus.Gauge
	sessionActive     prometheus.Gauge
	sessionUpdates    *prometheus.CounterVec
	droppedEvents     prometheus.Counter
}

// New registers the metrics in a dedicated registry so they do not
// interfere with the default global registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Requests handled by message type and result.",
		}, []string{"type", "result"}),
		activeConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_connections",
			Help:      "Connections currently being handled.",
		}),
		sessionActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "session_active",
			Help:      "1 while a lockdown session is active.",
		}),
		sessionUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_updates_total",
			Help:      "Session state writes by resulting state.",
		}, []string{"active"}),
		droppedEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_events_total",
			Help:      "Observer events dropped because the queue was full.",
		}),
	}

	reg.MustRegister(
		m.requests,
		m.activeConnections,
		m.sessionActive,
		m.sessionUpdates,
		m.droppedEvents,
	)

	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry over HTTP.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordRequest counts one handled request. kind is "invalid" for requests
// that never decoded.
func (m *Metrics) RecordRequest(kind, result string) {
	if m == nil {
		return
	}

	m.requests.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) ConnOpened() {
	if m == nil {
		return
	}

	m.activeConnections.Inc()
}

func (m *Metrics) ConnClosed() {
	if m == nil {
		return
	}

	m.activeConnections.Dec()
}

func (m *Metrics) SetSessionActive(active bool) {
	if m == nil {
		return
	}

	label, value := "false", 0.0
	if active {
		label, value = "true", 1.0
	}

	m.sessionActive.Set(value)
	m.sessionUpdates.WithLabelValues(label).Inc()
}

func (m *Metrics) EventDropped() {
	if m == nil {
		return
	}

	m.droppedEvents.Inc()
}
