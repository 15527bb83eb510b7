package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	KafkaMessagesProcessed *prometheus.CounterVec
	KafkaMessagesFailed    *prometheus.CounterVec
	HTTPRequestDuration    *prometheus.HistogramVec
	UnreadCountsPublished  prometheus.Counter
	HendelserOpened        prometheus.Counter
	HendelserFerdigstilt   prometheus.Counter
}

// New creates all metrics on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith creates all metrics on the given registerer. Tests pass a fresh
// registry so suites do not collide on duplicate registration.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		KafkaMessagesProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "minesykmeldte_kafka_messages_processed_total",
			Help: "Total number of Kafka messages processed, by topic",
		}, []string{"topic"}),
		KafkaMessagesFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "minesykmeldte_kafka_messages_failed_total",
			Help: "Total number of Kafka messages whose handler returned an error, by topic",
		}, []string{"topic"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "minesykmeldte_http_request_duration_seconds",
			Help:    "HTTP request latency by route and method",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		UnreadCountsPublished: factory.NewCounter(prometheus.CounterOpts{
			Name: "minesykmeldte_unread_counts_published_total",
			Help: "Total number of unread-count messages published downstream",
		}),
		HendelserOpened: factory.NewCounter(prometheus.CounterOpts{
			Name: "minesykmeldte_hendelser_opened_total",
			Help: "Total number of hendelse rows created",
		}),
		HendelserFerdigstilt: factory.NewCounter(prometheus.CounterOpts{
			Name: "minesykmeldte_hendelser_ferdigstilt_total",
			Help: "Total number of hendelse rows completed",
		}),
	}
}
