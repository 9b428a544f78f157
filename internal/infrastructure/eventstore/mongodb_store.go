// Package eventstore persists domain events as append-only per-aggregate
// streams in MongoDB with optimistic concurrency control.
package eventstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/lllypuk/orderflow/internal/application/appcore"
	"github.com/lllypuk/orderflow/internal/domain/event"
)

// CollectionName is the MongoDB collection holding the event streams.
const CollectionName = "events"

var _ appcore.EventStore = (*MongoEventStore)(nil)

// MongoEventStore implements appcore.EventStore on MongoDB.
type MongoEventStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	serializer *EventSerializer
	logger     *slog.Logger
}

// Option configures MongoEventStore.
type Option func(*MongoEventStore)

// WithLogger sets the logger for the event store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *MongoEventStore) {
		s.logger = logger
	}
}

// NewMongoEventStore creates a MongoDB-backed event store.
func NewMongoEventStore(client *mongo.Client, databaseName string, opts ...Option) *MongoEventStore {
	s := &MongoEventStore{
		client:     client,
		collection: client.Database(databaseName).Collection(CollectionName),
		serializer: NewEventSerializer(),
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// SaveEvents appends events to the aggregate's stream. The expectedVersion
// check runs inside a transaction; a mismatch or a duplicate (aggregate_id,
// version) key both surface as appcore.ErrConcurrencyConflict with nothing
// written.
func (s *MongoEventStore) SaveEvents(
	ctx context.Context,
	aggregateID string,
	events []event.DomainEvent,
	expectedVersion int,
) error {
	if len(events) == 0 {
		return nil
	}

	session, err := s.client.StartSession()
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to start MongoDB session for event store",
			slog.String("aggregate_id", aggregateID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(txCtx context.Context) (any, error) {
		currentVersion, errVersion := s.GetVersion(txCtx, aggregateID)
		if errVersion != nil {
			return nil, errVersion
		}

		if currentVersion != expectedVersion {
			s.logger.WarnContext(ctx, "concurrency conflict in event store",
				slog.String("aggregate_id", aggregateID),
				slog.Int("expected_version", expectedVersion),
				slog.Int("current_version", currentVersion),
			)
			return nil, appcore.ErrConcurrencyConflict
		}

		documents, errSerialize := s.serializer.SerializeMany(events)
		if errSerialize != nil {
			return nil, errSerialize
		}

		docs := make([]any, len(documents))
		for i, doc := range documents {
			docs[i] = doc
		}

		if _, errInsert := s.collection.InsertMany(txCtx, docs); errInsert != nil {
			if mongo.IsDuplicateKeyError(errInsert) {
				s.logger.WarnContext(ctx, "duplicate stream version in event store",
					slog.String("aggregate_id", aggregateID),
					slog.Int("events_count", len(events)),
				)
				return nil, appcore.ErrConcurrencyConflict
			}
			return nil, fmt.Errorf("failed to insert events: %w", errInsert)
		}

		return nil, nil //nolint:nilnil // transaction success returns nil for both values
	})

	if err != nil && !errors.Is(err, appcore.ErrConcurrencyConflict) {
		s.logger.ErrorContext(ctx, "event store transaction failed",
			slog.String("aggregate_id", aggregateID),
			slog.Int("events_count", len(events)),
			slog.String("error", err.Error()),
		)
	}

	return err
}

// LoadEvents loads the aggregate's full stream in version order.
func (s *MongoEventStore) LoadEvents(ctx context.Context, aggregateID string) ([]event.DomainEvent, error) {
	return s.load(ctx, bson.M{"aggregate_id": aggregateID}, aggregateID)
}

// LoadEventsFrom loads events with version strictly greater than fromVersion,
// in version order. Used for the snapshot-plus-tail load path.
func (s *MongoEventStore) LoadEventsFrom(
	ctx context.Context,
	aggregateID string,
	fromVersion int,
) ([]event.DomainEvent, error) {
	filter := bson.M{
		"aggregate_id": aggregateID,
		"version":      bson.M{"$gt": fromVersion},
	}
	return s.load(ctx, filter, aggregateID)
}

// GetVersion returns the highest stored version for the aggregate, 0 when the
// stream does not exist.
func (s *MongoEventStore) GetVersion(ctx context.Context, aggregateID string) (int, error) {
	filter := bson.M{"aggregate_id": aggregateID}
	opts := options.FindOne().SetSort(bson.D{{Key: "version", Value: -1}})

	var doc EventDocument
	err := s.collection.FindOne(ctx, filter, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get current version: %w", err)
	}

	return doc.Version, nil
}

func (s *MongoEventStore) load(
	ctx context.Context,
	filter bson.M,
	aggregateID string,
) ([]event.DomainEvent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "version", Value: 1}})

	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to find events in event store",
			slog.String("aggregate_id", aggregateID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to find events: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []*EventDocument
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode events: %w", err)
	}

	if len(docs) == 0 {
		return nil, appcore.ErrAggregateNotFound
	}

	events, err := s.serializer.DeserializeMany(docs)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to deserialize events from event store",
			slog.String("aggregate_id", aggregateID),
			slog.Int("docs_count", len(docs)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	return events, nil
}
