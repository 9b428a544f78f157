package appcore

import (
	"context"
	"encoding/json"
	"time"
)

// CommandRecord is the cached outcome of an already-processed command,
// returned to a retried client request instead of re-executing side effects.
type CommandRecord struct {
	AggregateID string          `json:"aggregate_id"`
	Result      json.RawMessage `json:"result,omitempty"`
	ProcessedAt time.Time       `json:"processed_at"`
}

// IdempotencyStore holds two independent dedup namespaces. Command dedup
// protects against client-side retries of a single logical operation; event
// dedup protects against broker-side redelivery of a fact that may be handled
// by several independent consumers.
type IdempotencyStore interface {
	// CheckCommand returns the record for a client-supplied idempotency key,
	// or nil when the key has not been seen.
	CheckCommand(ctx context.Context, key string) (*CommandRecord, error)

	// MarkCommandProcessed stores the outcome of a command under its
	// idempotency key. The record expires after the store's command TTL.
	MarkCommandProcessed(ctx context.Context, key, aggregateID string, result json.RawMessage) error

	// IsEventProcessed reports whether handlerName has already completed for
	// the given event (or command message) ID.
	IsEventProcessed(ctx context.Context, eventID, handlerName string) (bool, error)

	// MarkEventProcessed records completion of handlerName for an event ID.
	// The record expires after the store's event TTL.
	MarkEventProcessed(ctx context.Context, eventID, handlerName string) error
}
