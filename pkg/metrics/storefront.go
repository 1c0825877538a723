package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderNumberMetrics counts order number allocations by outcome.
type OrderNumberMetrics struct {
	allocations *prometheus.CounterVec
}

// NewOrderNumberMetrics registers the allocation counter on the provided registerer.
func NewOrderNumberMetrics(reg prometheus.Registerer) *OrderNumberMetrics {
	if reg == nil {
		return &OrderNumberMetrics{}
	}
	allocations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gearhub_order_number_allocations_total",
		Help: "Order number allocations by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(allocations)
	return &OrderNumberMetrics{allocations: allocations}
}

// IncAllocation increments the counter for outcome (allocated, exhausted, race).
func (m *OrderNumberMetrics) IncAllocation(outcome string) {
	if m == nil || m.allocations == nil {
		return
	}
	m.allocations.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// DispatchMetrics counts best-effort notification deliveries.
type DispatchMetrics struct {
	dispatches *prometheus.CounterVec
}

// NewDispatchMetrics registers the dispatch counter on the provided registerer.
func NewDispatchMetrics(reg prometheus.Registerer) *DispatchMetrics {
	if reg == nil {
		return &DispatchMetrics{}
	}
	dispatches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gearhub_notification_dispatch_total",
		Help: "Notification deliveries by channel and outcome.",
	}, []string{"channel", "outcome"})
	reg.MustRegister(dispatches)
	return &DispatchMetrics{dispatches: dispatches}
}

// IncDispatch records a delivery attempt on channel with outcome (sent, failed, skipped).
func (m *DispatchMetrics) IncDispatch(channel, outcome string) {
	if m == nil || m.dispatches == nil {
		return
	}
	m.dispatches.WithLabelValues(normalizeLabel(channel), normalizeLabel(outcome)).Inc()
}

// HTTPMetrics tracks request latency per route pattern.
type HTTPMetrics struct {
	duration *prometheus.HistogramVec
}

// NewHTTPMetrics registers the request histogram on the provided registerer.
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		return &HTTPMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gearhub_http_request_duration_seconds",
		Help:    "HTTP request latency by route and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
	reg.MustRegister(duration)
	return &HTTPMetrics{duration: duration}
}

// Observe records one request.
func (m *HTTPMetrics) Observe(method, route, status string, seconds float64) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(method, normalizeLabel(route), status).Observe(seconds)
}

// OutboxMetrics tracks the relay from outbox_events to Pub/Sub.
type OutboxMetrics struct {
	published *prometheus.CounterVec
	lag       prometheus.Gauge
}

// NewOutboxMetrics registers the relay collectors on reg; a nil reg yields
// a no-op value.
func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	m := &OutboxMetrics{
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gearhub_outbox_publish_total",
			Help: "Outbox publish attempts by topic and outcome.",
		}, []string{"topic", "outcome"}),
		lag: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gearhub_outbox_oldest_pending_seconds",
			Help: "Age of the oldest event in the last claimed batch.",
		}),
	}
	reg.MustRegister(m.published, m.lag)
	return m
}

// IncPublish records outcome (published, retry, dead_letter) for topic.
func (m *OutboxMetrics) IncPublish(topic, outcome string) {
	if m == nil || m.published == nil {
		return
	}
	m.published.WithLabelValues(normalizeLabel(topic), normalizeLabel(outcome)).Inc()
}

// SetLag reports how far behind the relay is; zero when the table is drained.
func (m *OutboxMetrics) SetLag(age time.Duration) {
	if m == nil || m.lag == nil {
		return
	}
	if age < 0 {
		age = 0
	}
	m.lag.Set(age.Seconds())
}
