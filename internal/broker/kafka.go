package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"switchboard/internal/config"
	"switchboard/internal/constants"
	"switchboard/internal/logger"
	"switchboard/pkg/metrics"
	"switchboard/pkg/models"
	"switchboard/pkg/retry"
	"switchboard/pkg/tracing"
)

type KafkaPublisher struct {
	writer *kafka.Writer
	policy retry.Policy
	logger logger.Logger
}

func NewKafkaPublisher(cfg config.KafkaConfig, log logger.Logger) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: constants.KafkaBatchTimeout,
		WriteTimeout: constants.KafkaWriteTimeout,
		Async:        false,
	}

	policy := retry.DefaultPolicy()
	if cfg.Retry.MaxAttempts > 0 {
		policy.MaxAttempts = cfg.Retry.MaxAttempts
	}
	if cfg.Retry.InitialInterval > 0 {
		policy.InitialInterval = cfg.Retry.InitialInterval
	}
	if cfg.Retry.MaxInterval > 0 {
		policy.MaxInterval = cfg.Retry.MaxInterval
	}
	if cfg.Retry.Multiplier > 0 {
		policy.Multiplier = cfg.Retry.Multiplier
	}
	if cfg.Retry.MaxElapsedTime > 0 {
		policy.MaxElapsedTime = cfg.Retry.MaxElapsedTime
	}

	return &KafkaPublisher{writer: w, policy: policy, logger: log}
}

func (p *KafkaPublisher) PublishEvent(ctx context.Context, topic string, event *models.NormalizedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	headers := tracing.InjectTraceContext(ctx, []kafka.Header{})

	msg := kafka.Message{
		Topic:   topic,
		Key:     []byte(event.TenantInstanceID),
		Value:   body,
		Headers: headers,
		Time:    time.Now(),
	}

	start := time.Now()
	err = retry.RetryWithCallback(ctx, p.policy, func() error {
		return p.writer.WriteMessages(ctx, msg)
	}, func(attempt int, err error, nextDelay time.Duration) {
		metrics.RetryAttemptsTotal.WithLabelValues("orchestrator", topic).Inc()
		p.logger.WarnwCtx(ctx, "Retrying kafka publish",
			"attempt", attempt,
			"next_delay", nextDelay,
			"error", err,
			"topic", topic,
		)
	})
	if err != nil {
		return fmt.Errorf("failed to write kafka message: %w", err)
	}

	metrics.IncKafkaMessagesWritten("orchestrator", topic)
	metrics.ObserveKafkaWriteDuration("orchestrator", topic, time.Since(start))

	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
