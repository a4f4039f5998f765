package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics tracks lifecycle transitions. A nil receiver is a no-op so
// tests can wire services without a registry.
type OrderMetrics struct {
	Transitions *prometheus.CounterVec
	LatencyMS   *prometheus.HistogramVec
}

func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kantinku",
		Subsystem: "orders",
		Name:      "transitions_total",
		Help:      "Total number of requested order transitions.",
	}, []string{"target", "outcome"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "kantinku",
		Subsystem: "orders",
		Name:      "transition_duration_ms",
		Help:      "Order transition latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	}, []string{"target"})

	reg.MustRegister(transitions, latency)

	return &OrderMetrics{
		Transitions: transitions,
		LatencyMS:   latency,
	}
}

func (m *OrderMetrics) ObserveTransition(target, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(target, outcome).Inc()
	m.LatencyMS.WithLabelValues(target).Observe(float64(d.Milliseconds()))
}
