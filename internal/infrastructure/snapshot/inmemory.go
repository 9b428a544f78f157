package snapshot

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/lllypuk/orderflow/internal/application/appcore"
)

var _ appcore.SnapshotStore = (*InMemorySnapshotStore)(nil)

type inMemorySnapshot struct {
	version int
	state   json.RawMessage
}

// InMemorySnapshotStore implements appcore.SnapshotStore in memory for tests.
type InMemorySnapshotStore struct {
	mu        sync.RWMutex
	snapshots map[string]inMemorySnapshot
}

// NewInMemorySnapshotStore creates an in-memory snapshot store.
func NewInMemorySnapshotStore() *InMemorySnapshotStore {
	return &InMemorySnapshotStore{
		snapshots: make(map[string]inMemorySnapshot),
	}
}

// Save keeps the snapshot when it is newer than the stored one.
func (s *InMemorySnapshotStore) Save(
	_ context.Context,
	aggregateID string,
	version int,
	state json.RawMessage,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.snapshots[aggregateID]; ok && existing.version >= version {
		return nil
	}

	stored := make(json.RawMessage, len(state))
	copy(stored, state)
	s.snapshots[aggregateID] = inMemorySnapshot{version: version, state: stored}

	return nil
}

// LoadLatest returns the stored snapshot for an aggregate.
func (s *InMemorySnapshotStore) LoadLatest(
	_ context.Context,
	aggregateID string,
) (json.RawMessage, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.snapshots[aggregateID]
	if !ok {
		return nil, 0, appcore.ErrSnapshotNotFound
	}

	return snap.state, snap.version, nil
}

// Versions returns the stored snapshot version per aggregate, for tests.
func (s *InMemorySnapshotStore) Versions() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	versions := make(map[string]int, len(s.snapshots))
	for id, snap := range s.snapshots {
		versions[id] = snap.version
	}

	return versions
}
