package metrics

import "github.com/prometheus/client_golang/prometheus"

// Outbox publish outcomes.
const (
	PublishResultPublished = "published"
	PublishResultRetry     = "retry"
	PublishResultDLQ       = "dlq"
)

// PublisherMetrics counts outbox relay outcomes per event type.
type PublisherMetrics struct {
	events *prometheus.CounterVec
}

func NewPublisherMetrics(reg prometheus.Registerer) *PublisherMetrics {
	if reg == nil {
		return &PublisherMetrics{}
	}
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "outbox",
		Name:      "events_total",
		Help:      "Outbox events handled by the publisher, by type and result.",
	}, []string{"event_type", "result"})
	reg.MustRegister(events)
	return &PublisherMetrics{events: events}
}

func (m *PublisherMetrics) Inc(eventType, result string) {
	if m == nil || m.events == nil {
		return
	}
	m.events.WithLabelValues(normalizeLabel(eventType), result).Inc()
}
