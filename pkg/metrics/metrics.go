package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	WebhooksReceivedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhooks_received_total",
			Help: "Total number of inbound webhook requests (count)",
		},
		[]string{"provider", "status"},
	)

	EventsNormalizedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_normalized_total",
			Help: "Total number of webhooks normalized into canonical events (count)",
		},
		[]string{"provider", "event"},
	)

	EventsUnmappedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_unmapped_total",
			Help: "Total number of webhooks with no canonical event mapping (count)",
		},
		[]string{"provider"},
	)

	OrchestrationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "orchestration_duration_ms",
			Help:    "End-to-end processing duration for one webhook in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		},
		[]string{"provider", "status"},
	)

	RuleEvaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rule_evaluations_total",
			Help: "Total number of automation rule evaluations (count)",
		},
		[]string{"event", "result"},
	)

	GuardRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guard_rejections_total",
			Help: "Total number of rule executions blocked by a guard (count)",
		},
		[]string{"guard"},
	)

	DispatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_total",
			Help: "Total number of dispatched rule actions (count)",
		},
		[]string{"action", "result"},
	)

	DispatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dispatch_duration_ms",
			Help:    "Duration of action dispatch in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		},
		[]string{"action"},
	)

	CreditsConsumedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credits_consumed_total",
			Help: "Total message credits consumed by real executions (count)",
		},
		[]string{"action"},
	)

	IntegrationCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "integration_cache_total",
			Help: "Integration record cache lookups (count)",
		},
		[]string{"result"},
	)

	RateLimitRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_requests_total",
			Help: "Total number of requests checked against rate limit (count)",
		},
		[]string{"status"},
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

	KafkaMessagesWrittenTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_written_total",
			Help: "Total number of messages written to Kafka (count)",
		},
		[]string{"service", "topic"},
	)

	KafkaWriteDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kafka_write_duration_ms",
			Help:    "Duration of writing messages to Kafka in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"service", "topic"},
	)

	RetryAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retry_attempts_total",
			Help: "Total number of retry attempts (count)",
		},
		[]string{"service", "topic"},
	)
)

func RegisterOrchestratorMetrics() {
	prometheus.MustRegister(WebhooksReceivedTotal)
	prometheus.MustRegister(EventsNormalizedTotal)
	prometheus.MustRegister(EventsUnmappedTotal)
	prometheus.MustRegister(OrchestrationDuration)
	prometheus.MustRegister(RuleEvaluationsTotal)
	prometheus.MustRegister(GuardRejectionsTotal)
	prometheus.MustRegister(DispatchTotal)
	prometheus.MustRegister(DispatchDuration)
	prometheus.MustRegister(CreditsConsumedTotal)
	prometheus.MustRegister(IntegrationCacheTotal)
	prometheus.MustRegister(RateLimitRequestsTotal)
}

func RegisterBrokerMetrics() {
	prometheus.MustRegister(KafkaMessagesWrittenTotal)
	prometheus.MustRegister(KafkaWriteDuration)
	prometheus.MustRegister(RetryAttemptsTotal)
}

func RegisterCircuitBreakerMetrics() {
	prometheus.MustRegister(CircuitBreakerState)
	prometheus.MustRegister(CircuitBreakerRequests)
	prometheus.MustRegister(CircuitBreakerFailures)
}

func ObserveOrchestrationDuration(provider, status string, duration time.Duration) {
	OrchestrationDuration.WithLabelValues(provider, status).Observe(float64(duration.Milliseconds()))
}

func ObserveDispatchDuration(action string, duration time.Duration) {
	DispatchDuration.WithLabelValues(action).Observe(float64(duration.Milliseconds()))
}

func IncKafkaMessagesWritten(service, topic string) {
	KafkaMessagesWrittenTotal.WithLabelValues(service, topic).Inc()
}

func ObserveKafkaWriteDuration(service, topic string, duration time.Duration) {
	KafkaWriteDuration.WithLabelValues(service, topic).Observe(float64(duration.Milliseconds()))
}
