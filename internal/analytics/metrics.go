package analytics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics mirrors analytics events into Prometheus counters.
type Metrics struct {
	records prometheus.Counter
	fields  *prometheus.CounterVec
}

// NewMetrics registers the analytics collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		records: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "johar",
			Subsystem: "analytics",
			Name:      "records_total",
			Help:      "Analytics events merged into the store.",
		}),
		fields: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "johar",
			Subsystem: "analytics",
			Name:      "events_total",
			Help:      "Sum of positive numeric deltas recorded per field.",
		}, []string{"field"}),
	}
	reg.MustRegister(m.records, m.fields)
	return m
}

func (m *Metrics) observe(ev Event) {
	m.records.Inc()
	for k, v := range ev {
		// counters only move forward
		if n, ok := toNumber(v); ok && n > 0 {
			m.fields.WithLabelValues(k).Add(n)
		}
	}
}
