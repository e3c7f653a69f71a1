package broker

import (
	"context"

	"switchboard/pkg/models"
)

// Publisher fans normalized events out to downstream consumers after they
// are persisted. Publishing is best effort from the orchestrator's point
// of view; a failed publish never fails the inbound request.
type Publisher interface {
	PublishEvent(ctx context.Context, topic string, event *models.NormalizedEvent) error
	Close() error
}
