package engine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the engine.
// Tracks operation outcomes, records created and derivation latency.
type Metrics struct {
	Operations     *prometheus.CounterVec
	RecordsCreated prometheus.Counter
	DeriveDuration prometheus.Histogram
}

// NewMetrics registers engine metrics with reg.
// A nil reg registers with prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		Operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "userstats_operations_total",
			Help: "Total number of engine operations by op and outcome",
		}, []string{"op", "outcome"}),
		RecordsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "userstats_records_created_total",
			Help: "Total number of UserStats records created",
		}),
		DeriveDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "userstats_derive_duration_seconds",
			Help:    "Duration of address derivations",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		}),
	}
}

// ObserveOperation counts one operation attempt.
func (m *Metrics) ObserveOperation(op Op, outcome string) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(string(op), outcome).Inc()
	if op == OpCreate && outcome == OutcomeOK {
		m.RecordsCreated.Inc()
	}
}

// ObserveDerive records the duration of a derivation.
// Call with time.Now() at the start of the derivation.
func (m *Metrics) ObserveDerive(start time.Time) {
	if m == nil {
		return
	}
	m.DeriveDuration.Observe(time.Since(start).Seconds())
}
