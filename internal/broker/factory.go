package broker

import (
	"context"
	"fmt"

	"switchboard/internal/config"
	"switchboard/internal/logger"
	"switchboard/pkg/models"
)

// NewPublisher builds a publisher for the configured broker type. An empty
// type disables publishing entirely.
func NewPublisher(cfg config.BrokerConfig, log logger.Logger) (Publisher, error) {
	switch cfg.Type {
	case "":
		return NopPublisher{}, nil
	case "kafka":
		return NewKafkaPublisher(cfg.Kafka, log), nil
	default:
		return nil, fmt.Errorf("unknown broker type: %s", cfg.Type)
	}
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishEvent(ctx context.Context, topic string, event *models.NormalizedEvent) error {
	return nil
}

func (NopPublisher) Close() error { return nil }
