package pool

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics covers connection lifecycle per store.
type Metrics struct {
	AcquireWait *prometheus.HistogramVec
	Dials       *prometheus.CounterVec
	DialErrors  *prometheus.CounterVec
	Discards    *prometheus.CounterVec // failed liveness probe
	Exhausted   *prometheus.CounterVec
	InUse       *prometheus.GaugeVec
}

// NewMetrics registers pool metrics with the default registry.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith registers pool metrics with reg.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		AcquireWait: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dossier_pool_acquire_wait_seconds",
			Help:    "Time spent waiting for a pooled connection",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"store"}),
		Dials: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dossier_pool_dials_total",
			Help: "Connections opened per store",
		}, []string{"store"}),
		DialErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dossier_pool_dial_errors_total",
			Help: "Failed connection attempts per store",
		}, []string{"store"}),
		Discards: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dossier_pool_discards_total",
			Help: "Connections closed after failing the release probe",
		}, []string{"store"}),
		Exhausted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dossier_pool_exhausted_total",
			Help: "Acquire calls that timed out waiting for capacity",
		}, []string{"store"}),
		InUse: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dossier_pool_connections_in_use",
			Help: "Connections currently lent out",
		}, []string{"store"}),
	}
}

func (m *Metrics) ObserveAcquireWait(store string, d time.Duration) {
	if m != nil {
		m.AcquireWait.WithLabelValues(store).Observe(d.Seconds())
	}
}

func (m *Metrics) IncDial(store string) {
	if m != nil {
		m.Dials.WithLabelValues(store).Inc()
	}
}

func (m *Metrics) IncDialError(store string) {
	if m != nil {
		m.DialErrors.WithLabelValues(store).Inc()
	}
}

func (m *Metrics) IncDiscard(store string) {
	if m != nil {
		m.Discards.WithLabelValues(store).Inc()
	}
}

func (m *Metrics) IncExhausted(store string) {
	if m != nil {
		m.Exhausted.WithLabelValues(store).Inc()
	}
}

func (m *Metrics) SetInUse(store string, n int) {
	if m != nil {
		m.InUse.WithLabelValues(store).Set(float64(n))
	}
}
