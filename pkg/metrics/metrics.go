package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	ConsumeDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "consume_decisions_total",
			Help: "Total number of per-message consumption decisions (count)",
		},
		[]string{"consumer", "outcome", "rule"},
	)

	ProcessingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "message_processing_duration_ms",
			Help:    "Duration of accepted message processing in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		},
		[]string{"consumer"},
	)

	MessagesPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_published_total",
			Help: "Total number of messages published to the fan-out surface (count)",
		},
		[]string{"topic", "routing_key"},
	)

	PublishFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "publish_failures_total",
			Help: "Total number of failed publishes surfaced to callers (count)",
		},
		[]string{"topic"},
	)

	RegistryRefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registry_refresh_total",
			Help: "Total number of sandbox registry refresh attempts (count)",
		},
		[]string{"status"},
	)

	RegistryStalenessSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "registry_staleness_seconds",
			Help: "Age of the cached sandbox registry snapshot in seconds",
		},
	)

	RegistryActiveSandboxes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "registry_active_sandboxes",
			Help: "Number of active sandbox routing keys in the cached snapshot (count)",
		},
	)

	RetryAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retry_attempts_total",
			Help: "Total number of retry attempts (count)",
		},
		[]string{"service", "topic"},
	)

	BrokerMessagesReadTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broker_messages_read_total",
			Help: "Total number of messages read from the broker (count)",
		},
		[]string{"service", "topic"},
	)

	BrokerMessagesWrittenTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broker_messages_written_total",
			Help: "Total number of messages written to the broker (count)",
		},
		[]string{"service", "topic"},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open) (state code)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker (count)",
		},
		[]string{"name", "state"},
	)

	CircuitBreakerFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_failures_total",
			Help: "Total number of failures through circuit breaker (count)",
		},
		[]string{"name"},
	)

	RateLimitRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_requests_total",
			Help: "Total number of requests checked against rate limit (count)",
		},
		[]string{"status"},
	)

	EventLogWritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_log_writes_total",
			Help: "Total number of event log write attempts (count)",
		},
		[]string{"status"},
	)
)

func RegisterConsumerMetrics() {
	prometheus.MustRegister(ConsumeDecisionsTotal)
	prometheus.MustRegister(ProcessingDuration)
}

func RegisterPublisherMetrics() {
	prometheus.MustRegister(MessagesPublishedTotal)
	prometheus.MustRegister(PublishFailuresTotal)
	prometheus.MustRegister(RateLimitRequestsTotal)
	prometheus.MustRegister(EventLogWritesTotal)
}

func RegisterRegistryMetrics() {
	prometheus.MustRegister(RegistryRefreshTotal)
	prometheus.MustRegister(RegistryStalenessSeconds)
	prometheus.MustRegister(RegistryActiveSandboxes)
}

func RegisterBrokerMetrics() {
	prometheus.MustRegister(RetryAttemptsTotal)
	prometheus.MustRegister(BrokerMessagesReadTotal)
	prometheus.MustRegister(BrokerMessagesWrittenTotal)
}

func RegisterCircuitBreakerMetrics() {
	prometheus.MustRegister(CircuitBreakerState)
	prometheus.MustRegister(CircuitBreakerRequests)
	prometheus.MustRegister(CircuitBreakerFailures)
}

func IncConsumeDecision(consumer, outcome, rule string) {
	ConsumeDecisionsTotal.WithLabelValues(consumer, outcome, rule).Inc()
}

func ObserveProcessingDuration(consumer string, duration time.Duration) {
	ProcessingDuration.WithLabelValues(consumer).Observe(float64(duration.Milliseconds()))
}

func IncMessagePublished(topic, routingKey string) {
	if routingKey == "" {
		routingKey = "baseline"
	}
	MessagesPublishedTotal.WithLabelValues(topic, routingKey).Inc()
}

func IncPublishFailure(topic string) {
	PublishFailuresTotal.WithLabelValues(topic).Inc()
}

func IncRegistryRefresh(status string) {
	RegistryRefreshTotal.WithLabelValues(status).Inc()
}

func SetRegistryStaleness(age time.Duration) {
	RegistryStalenessSeconds.Set(age.Seconds())
}

func SetRegistryActiveSandboxes(count int) {
	RegistryActiveSandboxes.Set(float64(count))
}

func IncBrokerMessagesRead(service, topic string) {
	BrokerMessagesReadTotal.WithLabelValues(service, topic).Inc()
}

func IncBrokerMessagesWritten(service, topic string) {
	BrokerMessagesWrittenTotal.WithLabelValues(service, topic).Inc()
}
