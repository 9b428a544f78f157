// Package event defines the domain event contract shared by all aggregates.
package event

import (
	"context"
	"time"
)

// DomainEvent represents an immutable domain fact. Ordering is defined only
// within a single aggregate's stream.
type DomainEvent interface {
	// EventID returns the unique identifier of this event instance.
	EventID() string

	// EventType returns the event type tag (e.g. "checkout.initiated").
	EventType() string

	// AggregateID returns the ID of the aggregate the event belongs to.
	AggregateID() string

	// AggregateType returns the owning bounded context / aggregate kind.
	AggregateType() string

	// SchemaVersion returns the payload schema version.
	SchemaVersion() int

	// OccurredAt returns the time the event occurred.
	OccurredAt() time.Time

	// Version returns the aggregate stream version assigned to this event.
	Version() int

	// Metadata returns the event metadata.
	Metadata() Metadata
}

// Publisher fans committed events out to the broadcast topic of their
// bounded context. Publishing is fire-and-forget once the originating append
// has succeeded; there is no transactional coupling with the event log.
type Publisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}
