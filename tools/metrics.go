package tools

import (
	"github.com/ChristopherRabotin/lambert"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the Prometheus collectors of batch solves.
type Metrics struct {
	Solves     *prometheus.CounterVec
	Iterations prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg, if not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Solves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lambert_solves_total",
				Help: "Total number of Lambert solves, by outcome.",
			},
			[]string{"outcome"},
		),
		Iterations: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "lambert_iterations",
				Help:    "Root finding iterations of the successful solves.",
				Buckets: prometheus.LinearBuckets(1, 2, 18),
			},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Solves, m.Iterations)
	}
	return m
}

func (m *Metrics) observe(outcome string, tr lambert.Transfer) {
	m.Solves.WithLabelValues(outcome).Inc()
	if outcome == "ok" {
		m.Iterations.Observe(float64(tr.Iterations))
	}
}
