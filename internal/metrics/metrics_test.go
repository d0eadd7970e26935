package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/oobayly/club-trophies-webapp-sub000/internal/metrics"
)

func TestMetrics_Record(t *testing.T) {
	m := metrics.New(nil)

	m.IncrementRun("propagate", "ok")
	m.IncrementRun("propagate", "ok")
	m.IncrementRun("search", "failed")
	m.AddPropagated(6)
	m.AddPropagated(0)
	m.ObserveSearch(250, 3)
	m.AddSwept(2)
	m.SetQueueDepth(4)
	m.ObserveLatency("search", 10*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HandlerRuns.WithLabelValues("propagate", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HandlerRuns.WithLabelValues("search", "failed")))
	assert.Equal(t, 6.0, testutil.ToFloat64(m.DocumentsPropagated))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.SearchPages))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SearchesSwept))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.QueueDepth))
}

func TestMetrics_SeparateRegistries(t *testing.T) {
	// Two instances must not collide on registration.
	a := metrics.New(nil)
	b := metrics.New(nil)

	a.AddSwept(1)
	assert.Equal(t, 0.0, testutil.ToFloat64(b.SearchesSwept))
	assert.NotSame(t, a.Registry(), b.Registry())
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *metrics.Metrics

	assert.NotPanics(t, func() {
		m.IncrementRun("propagate", "ok")
		m.ObserveLatency("propagate", time.Second)
		m.AddPropagated(1)
		m.ObserveSearch(1, 1)
		m.AddSwept(1)
		m.SetQueueDepth(1)
	})
	assert.Nil(t, m.Registry())
}
