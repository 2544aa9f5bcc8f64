package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Значения label result.
const (
	ResultOK         = "ok"
	ResultNotFound   = "not_found"
	ResultConstraint = "constraint"
	ResultInvalid    = "invalid"
	ResultError      = "error"
)

// OrderMetrics — метрики workflow заказов.
type OrderMetrics struct {
	operations       *prometheus.CounterVec
	duration         *prometheus.HistogramVec
	priceAdjustments prometheus.Counter
	linesResolved    prometheus.Counter
	eventsEnqueued   *prometheus.CounterVec
}

// NewOrderMetrics регистрирует метрики в registerer (nil — DefaultRegisterer).
func NewOrderMetrics(registerer prometheus.Registerer) *OrderMetrics {
	return &OrderMetrics{
		operations: counterVec(registerer, prometheus.CounterOpts{
			Name: "ordersvc_order_operations_total",
			Help: "Total number of order workflow operations grouped by operation and result.",
		}, "operation", "result"),
		duration: histogramVec(registerer, prometheus.HistogramOpts{
			Name:    "ordersvc_order_operation_duration_seconds",
			Help:    "Duration of order workflow operations in seconds.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		}, "operation"),
		priceAdjustments: counter(registerer, prometheus.CounterOpts{
			Name: "ordersvc_order_price_adjustments_total",
			Help: "Total number of submitted line prices replaced with the catalog price.",
		}),
		linesResolved: counter(registerer, prometheus.CounterOpts{
			Name: "ordersvc_order_lines_resolved_total",
			Help: "Total number of order lines resolved against the catalog.",
		}),
		eventsEnqueued: counterVec(registerer, prometheus.CounterOpts{
			Name: "ordersvc_order_events_enqueued_total",
			Help: "Total number of order events written to the transactional outbox.",
		}, "event_type"),
	}
}

// ObserveOperation записывает результат и длительность операции.
func (m *OrderMetrics) ObserveOperation(operation, result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, result).Inc()
	m.duration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordLines учитывает число разрешённых строк и корректировок цены.
func (m *OrderMetrics) RecordLines(resolved, adjusted int) {
	if m == nil {
		return
	}
	m.linesResolved.Add(float64(resolved))
	m.priceAdjustments.Add(float64(adjusted))
}

// RecordEventEnqueued учитывает событие, записанное в outbox.
func (m *OrderMetrics) RecordEventEnqueued(eventType string) {
	if m == nil {
		return
	}
	m.eventsEnqueued.WithLabelValues(eventType).Inc()
}
