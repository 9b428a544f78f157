package appcore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lllypuk/orderflow/internal/domain/aggregate"
)

// DefaultSnapshotEvery is how many appended events trigger a new snapshot.
const DefaultSnapshotEvery = 5

// Repository implements the generic load (snapshot + replay) / mutate /
// append cycle shared by all event-sourced aggregates, including the saga.
type Repository[T aggregate.Root] struct {
	store         EventStore
	snapshots     SnapshotStore
	factory       func(id string) T
	snapshotEvery int
	logger        *slog.Logger
}

// RepositoryOption configures a Repository.
type RepositoryOption[T aggregate.Root] func(*Repository[T])

// WithSnapshotEvery overrides the snapshot cadence.
func WithSnapshotEvery[T aggregate.Root](n int) RepositoryOption[T] {
	return func(r *Repository[T]) {
		if n > 0 {
			r.snapshotEvery = n
		}
	}
}

// WithRepositoryLogger sets the repository logger.
func WithRepositoryLogger[T aggregate.Root](logger *slog.Logger) RepositoryOption[T] {
	return func(r *Repository[T]) {
		r.logger = logger
	}
}

// NewRepository creates a repository for one aggregate kind. factory returns
// the zero-state aggregate for a stream ID.
func NewRepository[T aggregate.Root](
	store EventStore,
	snapshots SnapshotStore,
	factory func(id string) T,
	opts ...RepositoryOption[T],
) *Repository[T] {
	r := &Repository[T]{
		store:         store,
		snapshots:     snapshots,
		factory:       factory,
		snapshotEvery: DefaultSnapshotEvery,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load rehydrates an aggregate: latest snapshot if any, then replay of the
// events past the snapshot version.
func (r *Repository[T]) Load(ctx context.Context, id string) (T, error) {
	agg := r.factory(id)

	fromVersion := 0
	state, version, err := r.snapshots.LoadLatest(ctx, id)
	switch {
	case err == nil:
		if restoreErr := agg.RestoreSnapshot(state, version); restoreErr != nil {
			return agg, fmt.Errorf("failed to restore snapshot for %s: %w", id, restoreErr)
		}
		fromVersion = version
	case errors.Is(err, ErrSnapshotNotFound):
		// full replay
	default:
		return agg, fmt.Errorf("failed to load snapshot for %s: %w", id, err)
	}

	events, err := r.store.LoadEventsFrom(ctx, id, fromVersion)
	if err != nil {
		if errors.Is(err, ErrAggregateNotFound) && fromVersion > 0 {
			// Snapshot is current; no tail to replay.
			agg.SetVersion(fromVersion)
			return agg, nil
		}
		return agg, err
	}

	for _, evt := range events {
		if applyErr := agg.Apply(evt); applyErr != nil {
			return agg, fmt.Errorf("failed to apply event %s at version %d: %w",
				evt.EventType(), evt.Version(), applyErr)
		}
	}
	agg.SetVersion(fromVersion + len(events))

	return agg, nil
}

// Save appends the aggregate's uncommitted events at its loaded version and
// snapshots the state every snapshotEvery events. A concurrent writer that
// lost the race receives ErrConcurrencyConflict and must reload and retry;
// the repository does not retry on its own.
func (r *Repository[T]) Save(ctx context.Context, agg T) error {
	events := agg.UncommittedEvents()
	if len(events) == 0 {
		return nil
	}

	expected := agg.Version()
	if err := r.store.SaveEvents(ctx, agg.AggregateID(), events, expected); err != nil {
		return err
	}

	newVersion := expected + len(events)
	agg.SetVersion(newVersion)
	agg.ClearUncommittedEvents()

	if r.crossedSnapshotBoundary(expected, newVersion) {
		if err := r.saveSnapshot(ctx, agg, newVersion); err != nil {
			// Snapshots are an optimization; the append already succeeded.
			r.logger.WarnContext(ctx, "failed to save snapshot",
				slog.String("aggregate_id", agg.AggregateID()),
				slog.Int("version", newVersion),
				slog.String("error", err.Error()),
			)
		}
	}

	return nil
}

func (r *Repository[T]) crossedSnapshotBoundary(oldVersion, newVersion int) bool {
	return newVersion/r.snapshotEvery > oldVersion/r.snapshotEvery
}

func (r *Repository[T]) saveSnapshot(ctx context.Context, agg T, version int) error {
	state, err := agg.SnapshotState()
	if err != nil {
		return fmt.Errorf("failed to serialize snapshot state: %w", err)
	}
	return r.snapshots.Save(ctx, agg.AggregateID(), version, state)
}
