package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"marketsignal/shared"
)

// Metrics holds the service instrumentation.
type Metrics struct {
	registry *prometheus.Registry

	// TicksDelivered counts ticks fanned out to listeners.
	TicksDelivered prometheus.Counter
	// ActiveSubscriptions tracks the number of live upstream streams.
	ActiveSubscriptions prometheus.Gauge
	// Reconnects counts broker session reconnect attempts.
	Reconnects prometheus.Counter
	// Signals counts emitted signals by kind and direction.
	Signals *prometheus.CounterVec
}

// NewMetrics registers and returns the service metrics on a dedicated
// registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		TicksDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marketsignal_ticks_delivered_total",
			Help: "Total ticks delivered to subscription listeners",
		}),
		ActiveSubscriptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "marketsignal_active_subscriptions",
			Help: "Number of live upstream market data streams",
		}),
		Reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marketsignal_broker_reconnects_total",
			Help: "Total broker session reconnect attempts",
		}),
		Signals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketsignal_signals_total",
			Help: "Total emitted signals by kind and direction",
		}, []string{"kind", "direction"}),
	}

	m.registry.MustRegister(
		m.TicksDelivered,
		m.ActiveSubscriptions,
		m.Reconnects,
		m.Signals,
	)

	return m
}

// RecordEntrySignal counts one emitted entry signal.
func (m *Metrics) RecordEntrySignal(direction shared.Direction) {
	m.Signals.WithLabelValues("entry", direction.String()).Inc()
}

// RecordExitSignal counts one emitted exit signal.
func (m *Metrics) RecordExitSignal(direction shared.Direction) {
	m.Signals.WithLabelValues("exit", direction.String()).Inc()
}

// Handler exposes the registry over http.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
