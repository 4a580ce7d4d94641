package kafka

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds producer and consumer instrumentation. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	published       *prometheus.CounterVec
	publishErrors   *prometheus.CounterVec
	publishDuration *prometheus.HistogramVec

	received   *prometheus.CounterVec
	processed  *prometheus.CounterVec
	failed     *prometheus.CounterVec
	deadLetter *prometheus.CounterVec
	handleTime *prometheus.HistogramVec
}

// NewMetrics registers the kafka metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	consumerLabels := []string{"topic", "consumer_group"}
	return &Metrics{
		published: f.NewCounterVec(prometheus.CounterOpts{
			Name: "kafka_producer_messages_published_total",
			Help: "Total number of Kafka messages published",
		}, []string{"topic"}),
		publishErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "kafka_producer_publish_errors_total",
			Help: "Total number of Kafka publish errors",
		}, []string{"topic"}),
		publishDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kafka_producer_publish_duration_seconds",
			Help:    "Duration of Kafka publish operations in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"topic"}),
		received: f.NewCounterVec(prometheus.CounterOpts{
			Name: "kafka_consumer_messages_received_total",
			Help: "Total number of Kafka messages fetched from the broker",
		}, consumerLabels),
		processed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "kafka_consumer_messages_processed_total",
			Help: "Total number of successfully processed Kafka messages",
		}, consumerLabels),
		failed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "kafka_consumer_messages_failed_total",
			Help: "Total number of Kafka messages that failed all retries",
		}, consumerLabels),
		deadLetter: f.NewCounterVec(prometheus.CounterOpts{
			Name: "kafka_consumer_dlq_published_total",
			Help: "Total number of messages published to the dead-letter queue",
		}, consumerLabels),
		handleTime: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kafka_consumer_processing_duration_seconds",
			Help:    "Duration of Kafka message processing in seconds",
			Buckets: prometheus.DefBuckets,
		}, consumerLabels),
	}
}

func (m *Metrics) observePublish(topic string, seconds float64, err error) {
	if m == nil {
		return
	}
	m.publishDuration.WithLabelValues(topic).Observe(seconds)
	if err != nil {
		m.publishErrors.WithLabelValues(topic).Inc()
		return
	}
	m.published.WithLabelValues(topic).Inc()
}

// Consumer outcomes.
const (
	outcomeReceived   = "received"
	outcomeProcessed  = "processed"
	outcomeFailed     = "failed"
	outcomeDeadLetter = "dead_letter"
)

func (m *Metrics) recordConsumed(topic, group, outcome string) {
	if m == nil {
		return
	}
	var vec *prometheus.CounterVec
	switch outcome {
	case outcomeReceived:
		vec = m.received
	case outcomeProcessed:
		vec = m.processed
	case outcomeFailed:
		vec = m.failed
	case outcomeDeadLetter:
		vec = m.deadLetter
	default:
		return
	}
	vec.WithLabelValues(topic, group).Inc()
}

func (m *Metrics) observeHandle(topic, group string, seconds float64) {
	if m == nil {
		return
	}
	m.handleTime.WithLabelValues(topic, group).Observe(seconds)
}
