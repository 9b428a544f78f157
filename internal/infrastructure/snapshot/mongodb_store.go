// Package snapshot persists aggregate state snapshots. Snapshots are an
// optimization of the load path only; losing one costs a longer replay and
// nothing else.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/lllypuk/orderflow/internal/application/appcore"
)

// CollectionName is the MongoDB collection holding aggregate snapshots.
const CollectionName = "snapshots"

var _ appcore.SnapshotStore = (*MongoSnapshotStore)(nil)

// SnapshotDocument is the persisted shape of a snapshot. One document per
// aggregate; newer snapshots replace older ones.
type SnapshotDocument struct {
	AggregateID string    `bson:"aggregate_id"`
	Version     int       `bson:"version"`
	State       []byte    `bson:"state"`
	CreatedAt   time.Time `bson:"created_at"`
}

// MongoSnapshotStore implements appcore.SnapshotStore on MongoDB.
type MongoSnapshotStore struct {
	collection *mongo.Collection
	logger     *slog.Logger
}

// Option configures MongoSnapshotStore.
type Option func(*MongoSnapshotStore)

// WithLogger sets the logger for the snapshot store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *MongoSnapshotStore) {
		s.logger = logger
	}
}

// NewMongoSnapshotStore creates a MongoDB-backed snapshot store.
func NewMongoSnapshotStore(client *mongo.Client, databaseName string, opts ...Option) *MongoSnapshotStore {
	s := &MongoSnapshotStore{
		collection: client.Database(databaseName).Collection(CollectionName),
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Save upserts the snapshot for an aggregate, keeping only the newest one. A
// concurrent older writer is ignored via the version guard in the filter.
func (s *MongoSnapshotStore) Save(
	ctx context.Context,
	aggregateID string,
	version int,
	state json.RawMessage,
) error {
	filter := bson.M{
		"aggregate_id": aggregateID,
		"version":      bson.M{"$lt": version},
	}
	update := bson.M{
		"$set": SnapshotDocument{
			AggregateID: aggregateID,
			Version:     version,
			State:       state,
			CreatedAt:   time.Now(),
		},
	}

	_, err := s.collection.UpdateOne(ctx, filter, update, options.UpdateOne().SetUpsert(true))
	if err != nil {
		// The upsert races with itself when two writers snapshot the same
		// aggregate; the loser's duplicate key is not a failure.
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		s.logger.ErrorContext(ctx, "failed to save snapshot",
			slog.String("aggregate_id", aggregateID),
			slog.Int("version", version),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	return nil
}

// LoadLatest returns the newest snapshot for an aggregate.
func (s *MongoSnapshotStore) LoadLatest(
	ctx context.Context,
	aggregateID string,
) (json.RawMessage, int, error) {
	var doc SnapshotDocument
	err := s.collection.FindOne(ctx, bson.M{"aggregate_id": aggregateID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, 0, appcore.ErrSnapshotNotFound
		}
		return nil, 0, fmt.Errorf("failed to load snapshot: %w", err)
	}

	return doc.State, doc.Version, nil
}
