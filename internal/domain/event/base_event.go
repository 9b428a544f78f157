package event

import (
	"time"

	"github.com/lllypuk/orderflow/internal/domain/uuid"
)

// BaseEvent is the common implementation of DomainEvent. Concrete events
// embed it and add their typed payload fields.
type BaseEvent struct {
	ID            string    `json:"event_id"       bson:"event_id"`
	Type          string    `json:"event_type"     bson:"event_type"`
	Aggregate     string    `json:"aggregate_id"   bson:"aggregate_id"`
	AggregateKind string    `json:"aggregate_type" bson:"aggregate_type"`
	Schema        int       `json:"schema_version" bson:"schema_version"`
	Occurred      time.Time `json:"occurred_at"    bson:"occurred_at"`
	StreamVersion int       `json:"version"        bson:"version"`
	Meta          Metadata  `json:"metadata"       bson:"metadata"`
}

// NewBaseEvent creates a base event with a fresh event ID and schema version 1.
func NewBaseEvent(eventType, aggregateID, aggregateType string, version int, metadata Metadata) BaseEvent {
	return BaseEvent{
		ID:            uuid.NewUUID().String(),
		Type:          eventType,
		Aggregate:     aggregateID,
		AggregateKind: aggregateType,
		Schema:        1,
		Occurred:      time.Now(),
		StreamVersion: version,
		Meta:          metadata,
	}
}

// EventID returns the unique event identifier.
func (e BaseEvent) EventID() string { return e.ID }

// EventType returns the event type tag.
func (e BaseEvent) EventType() string { return e.Type }

// AggregateID returns the aggregate identifier.
func (e BaseEvent) AggregateID() string { return e.Aggregate }

// AggregateType returns the aggregate kind.
func (e BaseEvent) AggregateType() string { return e.AggregateKind }

// SchemaVersion returns the payload schema version.
func (e BaseEvent) SchemaVersion() int { return e.Schema }

// OccurredAt returns the time the event occurred.
func (e BaseEvent) OccurredAt() time.Time { return e.Occurred }

// Version returns the aggregate stream version of the event.
func (e BaseEvent) Version() int { return e.StreamVersion }

// Metadata returns the event metadata.
func (e BaseEvent) Metadata() Metadata { return e.Meta }
