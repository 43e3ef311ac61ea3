package tracker

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records operation outcomes.
type Metrics struct {
	Outcomes   *prometheus.HistogramVec
	InFlight   prometheus.Gauge
	Reconnects prometheus.Counter
}

func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Outcomes: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dossier_operation_duration_seconds",
			Help:    "Duration of tracked operations by final state",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"state"}),
		InFlight: f.NewGauge(prometheus.GaugeOpts{
			Name: "dossier_operations_in_flight",
			Help: "Operations currently registered with the tracker",
		}),
		Reconnects: f.NewCounter(prometheus.CounterOpts{
			Name: "dossier_reconnects_total",
			Help: "Periodic reconnect cycles",
		}),
	}
}

func (m *Metrics) ObserveOperation(state State, d time.Duration) {
	if m != nil {
		m.Outcomes.WithLabelValues(string(state)).Observe(d.Seconds())
	}
}

func (m *Metrics) SetInFlight(n int) {
	if m != nil {
		m.InFlight.Set(float64(n))
	}
}

func (m *Metrics) IncReconnect() {
	if m != nil {
		m.Reconnects.Inc()
	}
}
