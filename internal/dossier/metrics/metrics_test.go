package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveBranch("phones", "ok", time.Millisecond)
		m.IncrementOutcome("ok")
		m.ObserveResolveLatency(time.Millisecond)
		m.IncrementCache("hit")
	})
}

func TestCountersByLabel(t *testing.T) {
	m := NewWith(prometheus.NewRegistry())
	m.IncrementOutcome("ok")
	m.IncrementOutcome("ok")
	m.IncrementOutcome("not_found")
	m.IncrementCache("miss")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ResolveOutcome.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ResolveOutcome.WithLabelValues("not_found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("miss")))
}
