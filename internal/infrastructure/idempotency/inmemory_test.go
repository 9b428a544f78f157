package idempotency_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lllypuk/orderflow/internal/infrastructure/idempotency"
)

func TestInMemoryStore_CommandDedup(t *testing.T) {
	store := idempotency.NewInMemoryStore()
	ctx := context.Background()

	record, err := store.CheckCommand(ctx, "key-1")
	require.NoError(t, err)
	assert.Nil(t, record, "unseen key must miss")

	result := json.RawMessage(`{"checkout_id":"c1"}`)
	require.NoError(t, store.MarkCommandProcessed(ctx, "key-1", "agg-1", result))

	record, err = store.CheckCommand(ctx, "key-1")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "agg-1", record.AggregateID)
	assert.JSONEq(t, `{"checkout_id":"c1"}`, string(record.Result))
	assert.False(t, record.ProcessedAt.IsZero())
}

func TestInMemoryStore_CommandExpiry(t *testing.T) {
	store := idempotency.NewInMemoryStore()
	ctx := context.Background()

	now := time.Now()
	store.SetClock(func() time.Time { return now })

	require.NoError(t, store.MarkCommandProcessed(ctx, "key-1", "agg-1", nil))

	// One minute past the command TTL the key behaves as never seen.
	store.SetClock(func() time.Time { return now.Add(idempotency.DefaultCommandTTL + time.Minute) })

	record, err := store.CheckCommand(ctx, "key-1")
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestInMemoryStore_EventDedupPerHandler(t *testing.T) {
	store := idempotency.NewInMemoryStore()
	ctx := context.Background()

	processed, err := store.IsEventProcessed(ctx, "evt-1", "inventory.validate_stock")
	require.NoError(t, err)
	assert.False(t, processed)

	require.NoError(t, store.MarkEventProcessed(ctx, "evt-1", "inventory.validate_stock"))

	processed, err = store.IsEventProcessed(ctx, "evt-1", "inventory.validate_stock")
	require.NoError(t, err)
	assert.True(t, processed)

	// A different handler for the same event is tracked independently.
	processed, err = store.IsEventProcessed(ctx, "evt-1", "checkout.advance")
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestInMemoryStore_EventExpiry(t *testing.T) {
	store := idempotency.NewInMemoryStore()
	ctx := context.Background()

	now := time.Now()
	store.SetClock(func() time.Time { return now })

	require.NoError(t, store.MarkEventProcessed(ctx, "evt-1", "handler"))

	store.SetClock(func() time.Time { return now.Add(idempotency.DefaultEventTTL + time.Minute) })

	processed, err := store.IsEventProcessed(ctx, "evt-1", "handler")
	require.NoError(t, err)
	assert.False(t, processed)
}
