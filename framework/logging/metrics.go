package logging

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeDelivered = "delivered"
	outcomeDropped   = "dropped"
	outcomeFailed    = "failed"
)

// Metrics counts pipeline records by overflow policy and outcome. A nil *Metrics counts nothing.
type Metrics struct {
	records *prometheus.CounterVec
}

// NewMetrics creates the log pipeline counters and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "driver",
			Subsystem: "log_pipeline",
			Name:      "records_total",
			Help:      "Log records handled by the pipelines, by overflow policy and outcome.",
		}, []string{"policy", "outcome"}),
	}
	reg.MustRegister(m.records)
	return m
}

func (m *Metrics) observe(policy OverflowPolicy, outcome string) {
	if m == nil {
		return
	}
	m.records.WithLabelValues(policy.String(), outcome).Inc()
}
