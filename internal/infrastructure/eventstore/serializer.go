package eventstore

import (
	"encoding/json"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/lllypuk/orderflow/internal/domain/checkout"
	"github.com/lllypuk/orderflow/internal/domain/event"
)

// EventDocument is the persisted shape of a domain event in MongoDB.
type EventDocument struct {
	ID bson.ObjectID `bson:"_id,omitempty"`

	EventID       string                `bson:"event_id"`
	AggregateID   string                `bson:"aggregate_id"`
	AggregateType string                `bson:"aggregate_type"`
	EventType     string                `bson:"event_type"`
	SchemaVersion int                   `bson:"schema_version"`
	Version       int                   `bson:"version"`
	Data          bson.M                `bson:"data"`
	Metadata      EventMetadataDocument `bson:"metadata"`
	OccurredAt    time.Time             `bson:"occurred_at"`
	CreatedAt     time.Time             `bson:"created_at"`
}

// EventMetadataDocument is the persisted event metadata.
type EventMetadataDocument struct {
	Timestamp     time.Time `bson:"timestamp"`
	CorrelationID string    `bson:"correlation_id"`
	CausationID   string    `bson:"causation_id,omitempty"`
	TenantID      string    `bson:"tenant_id,omitempty"`
}

// EventSerializer converts domain events to and from event documents. The
// payload travels as JSON both ways so the events' json tags stay the single
// naming authority.
type EventSerializer struct{}

// NewEventSerializer creates a serializer.
func NewEventSerializer() *EventSerializer {
	return &EventSerializer{}
}

// Serialize converts a domain event into a MongoDB document.
func (s *EventSerializer) Serialize(e event.DomainEvent) (*EventDocument, error) {
	jsonData, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event to JSON: %w", err)
	}

	var dataMap bson.M
	if err2 := json.Unmarshal(jsonData, &dataMap); err2 != nil {
		return nil, fmt.Errorf("failed to unmarshal event to map: %w", err2)
	}

	metadata := e.Metadata()

	return &EventDocument{
		EventID:       e.EventID(),
		AggregateID:   e.AggregateID(),
		AggregateType: e.AggregateType(),
		EventType:     e.EventType(),
		SchemaVersion: e.SchemaVersion(),
		Version:       e.Version(),
		Data:          dataMap,
		Metadata: EventMetadataDocument{
			Timestamp:     metadata.Timestamp,
			CorrelationID: metadata.CorrelationID,
			CausationID:   metadata.CausationID,
			TenantID:      metadata.TenantID,
		},
		OccurredAt: e.OccurredAt(),
		CreatedAt:  time.Now(),
	}, nil
}

// SerializeMany serializes a batch of events.
func (s *EventSerializer) SerializeMany(events []event.DomainEvent) ([]*EventDocument, error) {
	documents := make([]*EventDocument, 0, len(events))

	for i, e := range events {
		doc, err := s.Serialize(e)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize event at index %d: %w", i, err)
		}
		documents = append(documents, doc)
	}

	return documents, nil
}

// createEventByType creates an empty typed event instance for a stored event
// type tag. The switch is the closed set of events this store understands;
// an unknown tag is a hard error, never a silently skipped document.
func createEventByType(eventType string) (event.DomainEvent, error) {
	switch eventType {
	case checkout.EventTypeInitiated:
		return &checkout.Initiated{}, nil
	case checkout.EventTypeCartSnapshotReceived:
		return &checkout.CartSnapshotReceived{}, nil
	case checkout.EventTypeProductSnapshotsReceived:
		return &checkout.ProductSnapshotsReceived{}, nil
	case checkout.EventTypeStockValidated:
		return &checkout.StockValidated{}, nil
	case checkout.EventTypeStockDeducted:
		return &checkout.StockDeducted{}, nil
	case checkout.EventTypeOrderCreated:
		return &checkout.OrderCreated{}, nil
	case checkout.EventTypeCartCleared:
		return &checkout.CartCleared{}, nil
	case checkout.EventTypeOrderFinalized:
		return &checkout.OrderFinalized{}, nil
	case checkout.EventTypeCompleted:
		return &checkout.Completed{}, nil
	case checkout.EventTypeFailed:
		return &checkout.Failed{}, nil
	default:
		return nil, fmt.Errorf("unknown event type: %s", eventType)
	}
}

// Deserialize converts a stored document back into its typed domain event.
func (s *EventSerializer) Deserialize(doc *EventDocument) (event.DomainEvent, error) {
	jsonData, err := bson.MarshalExtJSON(doc.Data, false, false)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event data to JSON: %w", err)
	}

	evt, err := createEventByType(doc.EventType)
	if err != nil {
		return nil, err
	}

	if unmarshalErr := json.Unmarshal(jsonData, evt); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal %s event: %w", doc.EventType, unmarshalErr)
	}

	return evt, nil
}

// DeserializeMany deserializes a batch of documents preserving order.
func (s *EventSerializer) DeserializeMany(docs []*EventDocument) ([]event.DomainEvent, error) {
	events := make([]event.DomainEvent, 0, len(docs))

	for i, doc := range docs {
		evt, err := s.Deserialize(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to deserialize event at index %d: %w", i, err)
		}
		events = append(events, evt)
	}

	return events, nil
}
