package broker

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/lllypuk/orderflow/internal/domain/command"
	"github.com/lllypuk/orderflow/internal/domain/event"
)

// CommandEnvelope is the wire shape of a queued command. The payload is the
// typed command serialized as JSON; the envelope fields are what the worker
// needs before decoding it.
type CommandEnvelope struct {
	CommandID     string          `json:"command_id"`
	CommandName   string          `json:"command_name"`
	Payload       json.RawMessage `json:"payload"`
	CorrelationID string          `json:"correlation_id"`
	CausationID   string          `json:"causation_id,omitempty"`
	TenantID      string          `json:"tenant_id,omitempty"`
	EnqueuedAt    time.Time       `json:"enqueued_at"`
}

// NewCommandEnvelope wraps a command for transport.
func NewCommandEnvelope(cmd command.Command) (*CommandEnvelope, error) {
	payload, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal command %s: %w", cmd.CommandName(), err)
	}

	return &CommandEnvelope{
		CommandID:     cmd.CommandID(),
		CommandName:   cmd.CommandName(),
		Payload:       payload,
		CorrelationID: cmd.CorrelationID(),
		EnqueuedAt:    time.Now(),
	}, nil
}

// EventEnvelope is the wire shape of a published event. Subscribers decode
// the payload through their own closed event set keyed on EventType.
type EventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	SchemaVersion int             `json:"schema_version"`
	Payload       json.RawMessage `json:"payload"`
	CorrelationID string          `json:"correlation_id"`
	CausationID   string          `json:"causation_id,omitempty"`
	TenantID      string          `json:"tenant_id,omitempty"`
	PublishedAt   time.Time       `json:"published_at"`
}

// NewEventEnvelope wraps a committed event for transport.
func NewEventEnvelope(evt event.DomainEvent) (*EventEnvelope, error) {
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event %s: %w", evt.EventType(), err)
	}

	meta := evt.Metadata()

	return &EventEnvelope{
		EventID:       evt.EventID(),
		EventType:     evt.EventType(),
		AggregateID:   evt.AggregateID(),
		AggregateType: evt.AggregateType(),
		SchemaVersion: evt.SchemaVersion(),
		Payload:       payload,
		CorrelationID: meta.CorrelationID,
		CausationID:   meta.CausationID,
		TenantID:      meta.TenantID,
		PublishedAt:   time.Now(),
	}, nil
}
