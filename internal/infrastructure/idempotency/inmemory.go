package idempotency

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/lllypuk/orderflow/internal/application/appcore"
)

var _ appcore.IdempotencyStore = (*InMemoryStore)(nil)

type commandEntry struct {
	record    appcore.CommandRecord
	expiresAt time.Time
}

// InMemoryStore implements appcore.IdempotencyStore in memory for tests.
// Expired entries are dropped lazily on read.
type InMemoryStore struct {
	mu         sync.RWMutex
	commands   map[string]commandEntry
	events     map[string]time.Time
	commandTTL time.Duration
	eventTTL   time.Duration
	now        func() time.Time
}

// NewInMemoryStore creates an in-memory idempotency store with the default
// TTLs.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		commands:   make(map[string]commandEntry),
		events:     make(map[string]time.Time),
		commandTTL: DefaultCommandTTL,
		eventTTL:   DefaultEventTTL,
		now:        time.Now,
	}
}

// SetClock overrides the time source, for expiry tests.
func (s *InMemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// CheckCommand returns the stored record for a key, nil on miss or expiry.
func (s *InMemoryStore) CheckCommand(_ context.Context, key string) (*appcore.CommandRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.commands[key]
	if !ok {
		return nil, nil //nolint:nilnil // absence of a record is the expected miss case
	}
	if s.now().After(entry.expiresAt) {
		delete(s.commands, key)
		return nil, nil //nolint:nilnil // expired records count as misses
	}

	record := entry.record
	return &record, nil
}

// MarkCommandProcessed stores the command outcome under its key.
func (s *InMemoryStore) MarkCommandProcessed(
	_ context.Context,
	key, aggregateID string,
	result json.RawMessage,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.commands[key] = commandEntry{
		record: appcore.CommandRecord{
			AggregateID: aggregateID,
			Result:      result,
			ProcessedAt: s.now(),
		},
		expiresAt: s.now().Add(s.commandTTL),
	}

	return nil
}

// IsEventProcessed reports whether the (event, handler) pair has a live marker.
func (s *InMemoryStore) IsEventProcessed(_ context.Context, eventID, handlerName string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := eventID + ":" + handlerName
	expiresAt, ok := s.events[key]
	if !ok {
		return false, nil
	}
	if s.now().After(expiresAt) {
		delete(s.events, key)
		return false, nil
	}

	return true, nil
}

// MarkEventProcessed records handler completion for an event.
func (s *InMemoryStore) MarkEventProcessed(_ context.Context, eventID, handlerName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events[eventID+":"+handlerName] = s.now().Add(s.eventTTL)

	return nil
}
