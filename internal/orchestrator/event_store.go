package orchestrator

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"switchboard/internal/constants"
	"switchboard/pkg/models"
)

// EventStore persists every normalized event. Each inbound request writes
// its own record; replays produce independent documents on purpose, there
// is no cross-request de-duplication here.
type EventStore interface {
	Insert(ctx context.Context, event *models.NormalizedEvent) error
}

type MongoEventStore struct {
	collection *mongo.Collection
}

func NewMongoEventStore(db *mongo.Database) *MongoEventStore {
	return &MongoEventStore{collection: db.Collection(constants.EventsCollection)}
}

func (s *MongoEventStore) Insert(ctx context.Context, event *models.NormalizedEvent) error {
	if _, err := s.collection.InsertOne(ctx, event); err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// EnsureIndexes creates the lookup indexes the event history is queried
// by. Safe to call on every startup.
func (s *MongoEventStore) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "tenant_instance_id", Value: 1}, {Key: "event", Value: 1}}},
		{Keys: bson.D{{Key: "received_at", Value: -1}}},
		{Keys: bson.D{{Key: "provider", Value: 1}, {Key: "external_id", Value: 1}}},
	}

	if _, err := s.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create event indexes: %w", err)
	}
	return nil
}
