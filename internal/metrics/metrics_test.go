package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderMetrics_Record(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewOrderMetrics(registry)

	m.ObserveOperation("create", ResultOK, 10*time.Millisecond)
	m.ObserveOperation("create", ResultNotFound, time.Millisecond)
	m.ObserveOperation("create", ResultOK, time.Millisecond)
	m.RecordLines(3, 1)
	m.RecordEventEnqueued("order.created")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.operations.WithLabelValues("create", ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("create", ResultNotFound)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.linesResolved))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.priceAdjustments))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.eventsEnqueued.WithLabelValues("order.created")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))
}

func TestOrderMetrics_ReuseRegistered(t *testing.T) {
	registry := prometheus.NewRegistry()
	first := NewOrderMetrics(registry)
	second := NewOrderMetrics(registry)

	first.RecordLines(1, 1)
	second.RecordLines(1, 0)

	assert.Same(t, first.priceAdjustments, second.priceAdjustments)
	assert.Equal(t, 2.0, testutil.ToFloat64(second.linesResolved))
}

func TestRegister_TypeMismatchPanics(t *testing.T) {
	registry := prometheus.NewRegistry()
	counter(registry, prometheus.CounterOpts{Name: "ordersvc_test_metric", Help: "test"})

	require.Panics(t, func() {
		gauge(registry, prometheus.GaugeOpts{Name: "ordersvc_test_metric", Help: "test"})
	})
}

func TestNilMetricsAreNoop(t *testing.T) {
	var orders *OrderMetrics
	var http *HTTPMetrics

	require.NotPanics(t, func() {
		orders.ObserveOperation("get", ResultOK, time.Millisecond)
		orders.RecordLines(1, 1)
		orders.RecordEventEnqueued("order.deleted")
		http.Started()
		http.Finished("GET", "/orders/{id}", 200, time.Millisecond)
		http.RecordReplay()
	})
}

func TestHTTPMetrics_Finished(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewHTTPMetrics(registry)

	m.Started()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.inFlight))
	m.Finished("GET", "/orders/{id}", 404, 5*time.Millisecond)
	m.RecordReplay()

	assert.Equal(t, 0.0, testutil.ToFloat64(m.inFlight))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/orders/{id}", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.replays))
}

func TestOutboxMetrics_Backlog(t *testing.T) {
	m := NewOutboxMetrics(prometheus.NewRegistry())
	now := time.Date(2024, 1, 1, 0, 1, 0, 0, time.UTC)

	m.SetBacklog(3, now.Add(-30*time.Second), now)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.pending))
	assert.Equal(t, 30.0, testutil.ToFloat64(m.oldestAge))

	m.SetBacklog(0, time.Time{}, now)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.oldestAge))

	m.SetBacklog(1, now.Add(time.Second), now)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.oldestAge), "clock skew must not produce negative age")

	m.RecordAttempt("sent")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.attempts.WithLabelValues("sent")))
}

func TestCleanupMetrics_Runs(t *testing.T) {
	m := NewCleanupMetrics(prometheus.NewRegistry())

	m.RecordDeleted(5)
	m.RecordDeleted(0)
	m.RecordRun(nil, 5)
	m.RecordRun(assert.AnError, 0)

	assert.Equal(t, 5.0, testutil.ToFloat64(m.deleted))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.lastDeleted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues(ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues(ResultError)))
}
