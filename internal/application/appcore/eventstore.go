// Package appcore provides the shared application-layer contracts of the
// coordination core: store interfaces, the command router and the
// event-sourced repository. Interfaces are declared here, on the consumer
// side, not in infrastructure.
package appcore

import (
	"context"
	"encoding/json"

	"github.com/lllypuk/orderflow/internal/domain/event"
)

// EventStore is the append-only per-aggregate event log with optimistic
// concurrency. No cross-stream ordering or atomicity is provided.
type EventStore interface {
	// SaveEvents appends events to an aggregate's stream. expectedVersion is
	// the stream version the caller loaded (0 for a new aggregate). The
	// append is all-or-nothing and fails with ErrConcurrencyConflict when the
	// persisted version differs from expectedVersion.
	SaveEvents(ctx context.Context, aggregateID string, events []event.DomainEvent, expectedVersion int) error

	// LoadEvents loads all events of an aggregate in version order.
	// Returns ErrAggregateNotFound for an unknown aggregate.
	LoadEvents(ctx context.Context, aggregateID string) ([]event.DomainEvent, error)

	// LoadEventsFrom loads events with version > fromVersion in version
	// order. Used to replay the tail on top of a snapshot.
	LoadEventsFrom(ctx context.Context, aggregateID string, fromVersion int) ([]event.DomainEvent, error)

	// GetVersion returns the current stream version (0 when no events exist).
	GetVersion(ctx context.Context, aggregateID string) (int, error)
}

// SnapshotStore persists point-in-time aggregate state keyed to a stream
// version. Snapshots bound replay cost; they are never a second source of
// truth.
type SnapshotStore interface {
	// Save stores a snapshot of an aggregate at version, replacing any
	// previous snapshot for the same aggregate.
	Save(ctx context.Context, aggregateID string, version int, state json.RawMessage) error

	// LoadLatest returns the most recent snapshot for an aggregate, or
	// ErrSnapshotNotFound.
	LoadLatest(ctx context.Context, aggregateID string) (json.RawMessage, int, error)
}
