package metrics

import "github.com/prometheus/client_golang/prometheus"

// ConsumerMetrics counts subscriber message outcomes.
type ConsumerMetrics struct {
	messages *prometheus.CounterVec
}

func NewConsumerMetrics(reg prometheus.Registerer) *ConsumerMetrics {
	if reg == nil {
		return &ConsumerMetrics{}
	}
	messages := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gearhub_consumer_messages_total",
		Help: "Pub/Sub messages by consumer, event type and outcome.",
	}, []string{"consumer", "event_type", "outcome"})
	reg.MustRegister(messages)
	return &ConsumerMetrics{messages: messages}
}

// IncMessage records outcome (handled, duplicate, skipped, retry) for one
// delivery. An unparseable message has no event type and is counted as "unknown".
func (m *ConsumerMetrics) IncMessage(consumer, eventType, outcome string) {
	if m == nil || m.messages == nil {
		return
	}
	m.messages.WithLabelValues(consumer, normalizeLabel(eventType), normalizeLabel(outcome)).Inc()
}
