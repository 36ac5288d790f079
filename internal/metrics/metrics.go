// Package metrics exposes Prometheus counters for the selection flow.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors registered by the service.  A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	Toggles        *prometheus.CounterVec
	Checkouts      *prometheus.CounterVec
	OrdersTotal    prometheus.Counter
	OrderCents     prometheus.Counter
	PublishFailure prometheus.Counter
}

// New registers the service collectors, plus the Go and process
// collectors, on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		Toggles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "seating",
			Name:      "toggles_total",
			Help:      "Selection toggles by category and outcome.",
		}, []string{"category", "outcome"}),
		Checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "seating",
			Name:      "checkout_gate_total",
			Help:      "Checkout gate attempts by result.",
		}, []string{"result"}),
		OrdersTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "seating",
			Name:      "orders_confirmed_total",
			Help:      "Confirmed orders.",
		}),
		OrderCents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "seating",
			Name:      "orders_confirmed_cents_total",
			Help:      "Sum of confirmed order totals in cents.",
		}),
		PublishFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "seating",
			Name:      "order_publish_failures_total",
			Help:      "Order events that could not be published.",
		}),
	}
	reg.MustRegister(
		m.Toggles, m.Checkouts, m.OrdersTotal, m.OrderCents, m.PublishFailure,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Toggle records one toggle attempt.  outcome is "added", "removed" or an
// error code.
func (m *Metrics) Toggle(category, outcome string) {
	if m == nil {
		return
	}
	m.Toggles.WithLabelValues(category, outcome).Inc()
}

// Checkout records a gate result: "ok", "empty" or "incomplete".
func (m *Metrics) Checkout(result string) {
	if m == nil {
		return
	}
	m.Checkouts.WithLabelValues(result).Inc()
}

// OrderConfirmed records a confirmed order of totalCents.
func (m *Metrics) OrderConfirmed(totalCents int64) {
	if m == nil {
		return
	}
	m.OrdersTotal.Inc()
	m.OrderCents.Add(float64(totalCents))
}

// PublishFailed records an order event that did not reach the broker.
func (m *Metrics) PublishFailed() {
	if m == nil {
		return
	}
	m.PublishFailure.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
