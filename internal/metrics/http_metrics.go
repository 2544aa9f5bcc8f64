package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics — метрики HTTP API.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight prometheus.Gauge
	replays  prometheus.Counter
}

// NewHTTPMetrics регистрирует метрики в registerer (nil — DefaultRegisterer).
func NewHTTPMetrics(registerer prometheus.Registerer) *HTTPMetrics {
	return &HTTPMetrics{
		requests: counterVec(registerer, prometheus.CounterOpts{
			Name: "ordersvc_http_requests_total",
			Help: "Total number of HTTP requests grouped by method, route and status.",
		}, "method", "route", "status"),
		duration: histogramVec(registerer, prometheus.HistogramOpts{
			Name:    "ordersvc_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		}, "method", "route"),
		inFlight: gauge(registerer, prometheus.GaugeOpts{
			Name: "ordersvc_http_requests_in_flight",
			Help: "Number of HTTP requests currently being served.",
		}),
		replays: counter(registerer, prometheus.CounterOpts{
			Name: "ordersvc_http_idempotent_replays_total",
			Help: "Total number of responses replayed for a repeated Idempotency-Key.",
		}),
	}
}

// Started отмечает начало обработки запроса.
func (m *HTTPMetrics) Started() {
	if m == nil {
		return
	}
	m.inFlight.Inc()
}

// Finished записывает завершённый запрос. route — шаблон chi, а не сырой путь.
func (m *HTTPMetrics) Finished(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.inFlight.Dec()
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordReplay учитывает ответ, отданный из кэша идемпотентности.
func (m *HTTPMetrics) RecordReplay() {
	if m == nil {
		return
	}
	m.replays.Inc()
}
