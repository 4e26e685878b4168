package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for one Server instance. Each
// Server gets its own registry so tests can build servers independently
// without duplicate-registration panics.
type Metrics struct {
	registry *prometheus.Registry

	MessagesDelivered prometheus.Counter
	MessagesDropped   prometheus.Counter
	ActiveSessions    prometheus.Gauge
}

// NewMetrics creates and registers the service collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		MessagesDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "perch_messages_delivered_total",
			Help: "Messages successfully written to client sockets.",
		}),
		MessagesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "perch_messages_dropped_total",
			Help: "Inbound messages discarded by validation or rate limiting.",
		}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "perch_active_sessions",
			Help: "Currently open chat sessions.",
		}),
	}
	registry.MustRegister(m.MessagesDelivered, m.MessagesDropped, m.ActiveSessions)
	return m
}

// ObserveRooms adds a gauge that reports how many rooms exist in reg.
func (m *Metrics) ObserveRooms(reg *Registry) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "perch_rooms",
		Help: "Rooms created since startup.",
	}, func() float64 {
		return float64(reg.RoomCount())
	}))
}

// Handler exposes the collectors for scraping at /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
