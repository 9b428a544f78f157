// Package aggregate provides the shared base for event-sourced aggregates.
package aggregate

import (
	"encoding/json"

	"github.com/lllypuk/orderflow/internal/domain/event"
)

// Root is the contract the event-sourced repository operates on. State is
// derived solely by replaying the aggregate's own ordered events.
type Root interface {
	// AggregateID returns the stream identifier.
	AggregateID() string

	// AggregateType returns the aggregate kind (bounded context name).
	AggregateType() string

	// Version returns the persisted stream version the aggregate was loaded at.
	Version() int

	// SetVersion records the persisted stream version after load or save.
	SetVersion(version int)

	// UncommittedEvents returns events raised since the last save.
	UncommittedEvents() []event.DomainEvent

	// ClearUncommittedEvents drops the uncommitted event list after a save.
	ClearUncommittedEvents()

	// Apply mutates state from a single event. It must be a pure function of
	// (state, event) with no I/O so that snapshot-based and full-replay
	// reconstruction are identical.
	Apply(evt event.DomainEvent) error

	// SnapshotState serializes the current state for the snapshot store.
	SnapshotState() (json.RawMessage, error)

	// RestoreSnapshot rebuilds state from a snapshot taken at version.
	RestoreSnapshot(state json.RawMessage, version int) error
}

// Base carries the identity, version and uncommitted-event bookkeeping common
// to all aggregates.
type Base struct {
	id            string
	aggregateType string
	version       int
	uncommitted   []event.DomainEvent
}

// NewBase creates an aggregate base.
func NewBase(id, aggregateType string) Base {
	return Base{
		id:            id,
		aggregateType: aggregateType,
	}
}

// AggregateID returns the stream identifier.
func (b *Base) AggregateID() string { return b.id }

// AggregateType returns the aggregate kind.
func (b *Base) AggregateType() string { return b.aggregateType }

// Version returns the persisted stream version.
func (b *Base) Version() int { return b.version }

// SetVersion records the persisted stream version.
func (b *Base) SetVersion(version int) { b.version = version }

// UncommittedEvents returns events raised since the last save.
func (b *Base) UncommittedEvents() []event.DomainEvent { return b.uncommitted }

// ClearUncommittedEvents drops the uncommitted event list.
func (b *Base) ClearUncommittedEvents() { b.uncommitted = nil }

// NextVersion returns the stream version the next raised event will carry.
func (b *Base) NextVersion() int {
	return b.version + len(b.uncommitted) + 1
}

// Record appends a raised event to the uncommitted list. The caller is
// responsible for having applied it to state already.
func (b *Base) Record(evt event.DomainEvent) {
	b.uncommitted = append(b.uncommitted, evt)
}

// Restore resets identity and version during snapshot restore.
func (b *Base) Restore(id string, version int) {
	b.id = id
	b.version = version
	b.uncommitted = nil
}
