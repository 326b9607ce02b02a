// Package metrics registers the prometheus collectors for billing and generation.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	WebhookEventsTotal      *prometheus.CounterVec
	ReconcileFailuresTotal  *prometheus.CounterVec
	BillingSessionsTotal    *prometheus.CounterVec
	GenerationRequestsTotal *prometheus.CounterVec
	GenerationDuration      prometheus.Histogram

	registry *prometheus.Registry
}

// New creates the collectors and registers them on registry.
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		WebhookEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sellable_webhook_events_total",
				Help: "Billing webhook deliveries by event kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		ReconcileFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sellable_reconcile_failures_total",
				Help: "Tolerated reconciliation failures by stage",
			},
			[]string{"stage"},
		),
		BillingSessionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sellable_billing_sessions_total",
				Help: "Hosted checkout and portal sessions issued",
			},
			[]string{"kind", "outcome"},
		),
		GenerationRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sellable_generation_requests_total",
				Help: "Generation dispatches by transport and outcome",
			},
			[]string{"transport", "outcome"},
		),
		GenerationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sellable_generation_duration_seconds",
				Help:    "Time spent waiting on the generation function",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 120},
			},
		),
		registry: registry,
	}

	registry.MustRegister(
		m.WebhookEventsTotal,
		m.ReconcileFailuresTotal,
		m.BillingSessionsTotal,
		m.GenerationRequestsTotal,
		m.GenerationDuration,
	)
	return m
}

// NewNop returns collectors attached to a private registry, for tests and tools.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}

// Handler exposes the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
