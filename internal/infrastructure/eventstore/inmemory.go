package eventstore

import (
	"context"
	"sync"

	"github.com/lllypuk/orderflow/internal/application/appcore"
	"github.com/lllypuk/orderflow/internal/domain/event"
)

var _ appcore.EventStore = (*InMemoryEventStore)(nil)

// InMemoryEventStore implements appcore.EventStore in memory for tests.
type InMemoryEventStore struct {
	mu     sync.RWMutex
	events map[string][]event.DomainEvent
}

// NewInMemoryEventStore creates an in-memory event store.
func NewInMemoryEventStore() *InMemoryEventStore {
	return &InMemoryEventStore{
		events: make(map[string][]event.DomainEvent),
	}
}

// SaveEvents appends events under the optimistic concurrency check.
func (s *InMemoryEventStore) SaveEvents(
	_ context.Context,
	aggregateID string,
	events []event.DomainEvent,
	expectedVersion int,
) error {
	if len(events) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	currentVersion := len(s.events[aggregateID])
	if currentVersion != expectedVersion {
		return appcore.ErrConcurrencyConflict
	}

	s.events[aggregateID] = append(s.events[aggregateID], events...)

	return nil
}

// LoadEvents returns the aggregate's full stream.
func (s *InMemoryEventStore) LoadEvents(
	_ context.Context,
	aggregateID string,
) ([]event.DomainEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events, exists := s.events[aggregateID]
	if !exists {
		return nil, appcore.ErrAggregateNotFound
	}

	result := make([]event.DomainEvent, len(events))
	copy(result, events)

	return result, nil
}

// LoadEventsFrom returns events with version above fromVersion.
func (s *InMemoryEventStore) LoadEventsFrom(
	_ context.Context,
	aggregateID string,
	fromVersion int,
) ([]event.DomainEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events, exists := s.events[aggregateID]
	if !exists || fromVersion >= len(events) {
		return nil, appcore.ErrAggregateNotFound
	}

	tail := events[fromVersion:]
	result := make([]event.DomainEvent, len(tail))
	copy(result, tail)

	return result, nil
}

// GetVersion returns the stream length, 0 for an unknown aggregate.
func (s *InMemoryEventStore) GetVersion(
	_ context.Context,
	aggregateID string,
) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.events[aggregateID]), nil
}

// Clear drops all streams.
func (s *InMemoryEventStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = make(map[string][]event.DomainEvent)
}
