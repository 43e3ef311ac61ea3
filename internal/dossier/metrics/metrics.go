package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for dossier resolution.
type Metrics struct {
	// Branch latency by branch and outcome ("ok", "unavailable")
	BranchLatency *prometheus.HistogramVec

	// Resolve outcomes by error code, "ok" on success
	ResolveOutcome *prometheus.CounterVec

	ResolveLatency prometheus.Histogram

	CacheLookups *prometheus.CounterVec
}

// New registers dossier metrics with the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

func NewWith(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		BranchLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dossier_branch_duration_seconds",
			Help:    "Duration of each auxiliary store lookup",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"branch", "outcome"}),

		ResolveOutcome: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dossier_resolve_total",
			Help: "Resolve calls by outcome",
		}, []string{"outcome"}),

		ResolveLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "dossier_resolve_duration_seconds",
			Help:    "Duration of a full resolve including fan-out",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),

		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dossier_cache_lookups_total",
			Help: "Composite record cache lookups by result",
		}, []string{"result"}), // hit, miss, error
	}
}

func (m *Metrics) ObserveBranch(branch, outcome string, d time.Duration) {
	if m != nil {
		m.BranchLatency.WithLabelValues(branch, outcome).Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementOutcome(outcome string) {
	if m != nil {
		m.ResolveOutcome.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) ObserveResolveLatency(d time.Duration) {
	if m != nil {
		m.ResolveLatency.Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementCache(result string) {
	if m != nil {
		m.CacheLookups.WithLabelValues(result).Inc()
	}
}
