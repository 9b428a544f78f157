package eventstore_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lllypuk/orderflow/internal/application/appcore"
	"github.com/lllypuk/orderflow/internal/domain/cart"
	"github.com/lllypuk/orderflow/internal/domain/checkout"
	"github.com/lllypuk/orderflow/internal/domain/event"
	"github.com/lllypuk/orderflow/internal/domain/inventory"
	"github.com/lllypuk/orderflow/internal/domain/uuid"
	"github.com/lllypuk/orderflow/internal/infrastructure/eventstore"
)

func newStockValidated(t *testing.T) *checkout.StockValidated {
	t.Helper()

	checkoutID := uuid.NewUUID()
	meta := event.NewMetadata(checkoutID.String(), "cmd-1")

	return &checkout.StockValidated{
		BaseEvent: event.NewBaseEvent(
			checkout.EventTypeStockValidated, checkoutID.String(), checkout.Context, 4, meta),
		Results: []inventory.ValidationResult{
			{ProductID: uuid.NewUUID(), Requested: 2, Available: 10},
		},
		AllAvailable: true,
	}
}

func TestSerializer_RoundTrip(t *testing.T) {
	serializer := eventstore.NewEventSerializer()
	original := newStockValidated(t)

	doc, err := serializer.Serialize(original)
	require.NoError(t, err)

	assert.Equal(t, original.EventID(), doc.EventID)
	assert.Equal(t, original.AggregateID(), doc.AggregateID)
	assert.Equal(t, checkout.Context, doc.AggregateType)
	assert.Equal(t, checkout.EventTypeStockValidated, doc.EventType)
	assert.Equal(t, 1, doc.SchemaVersion)
	assert.Equal(t, 4, doc.Version)
	assert.Equal(t, original.Metadata().CorrelationID, doc.Metadata.CorrelationID)
	assert.Equal(t, "cmd-1", doc.Metadata.CausationID)

	restored, err := serializer.Deserialize(doc)
	require.NoError(t, err)

	typed, ok := restored.(*checkout.StockValidated)
	require.True(t, ok, "deserialization must return the concrete event type")
	assert.Equal(t, original.EventID(), typed.EventID())
	assert.Equal(t, original.Version(), typed.Version())
	assert.True(t, typed.AllAvailable)
	require.Len(t, typed.Results, 1)
	assert.Equal(t, original.Results[0].ProductID, typed.Results[0].ProductID)
	assert.Equal(t, 2, typed.Results[0].Requested)
	assert.True(t, typed.Results[0].Sufficient())
}

func TestSerializer_DecimalPayload(t *testing.T) {
	serializer := eventstore.NewEventSerializer()
	checkoutID := uuid.NewUUID()
	meta := event.NewMetadata(checkoutID.String(), "cmd-1")

	original := &checkout.CartSnapshotReceived{
		BaseEvent: event.NewBaseEvent(
			checkout.EventTypeCartSnapshotReceived, checkoutID.String(), checkout.Context, 2, meta),
		Items: []cart.Item{
			{
				ProductID:   uuid.NewUUID(),
				ProductName: "Coffee Beans",
				Quantity:    3,
				UnitPrice:   decimal.RequireFromString("12.50"),
			},
		},
	}

	doc, err := serializer.Serialize(original)
	require.NoError(t, err)

	restored, err := serializer.Deserialize(doc)
	require.NoError(t, err)

	typed, ok := restored.(*checkout.CartSnapshotReceived)
	require.True(t, ok)
	require.Len(t, typed.Items, 1)
	assert.True(t, typed.Items[0].UnitPrice.Equal(original.Items[0].UnitPrice),
		"price must survive the store without drift")
}

func TestSerializer_UnknownEventType(t *testing.T) {
	serializer := eventstore.NewEventSerializer()

	_, err := serializer.Deserialize(&eventstore.EventDocument{
		EventType: "checkout.never_heard_of_it",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown event type")
}

func TestInMemoryEventStore_OptimisticLocking(t *testing.T) {
	store := eventstore.NewInMemoryEventStore()
	ctx := context.Background()
	aggregateID := uuid.NewUUID().String()

	first := newStockValidated(t)

	require.NoError(t, store.SaveEvents(ctx, aggregateID, []event.DomainEvent{first}, 0))

	// A stale writer with the same expected version must be rejected.
	err := store.SaveEvents(ctx, aggregateID, []event.DomainEvent{newStockValidated(t)}, 0)
	assert.ErrorIs(t, err, appcore.ErrConcurrencyConflict)

	version, err := store.GetVersion(ctx, aggregateID)
	require.NoError(t, err)
	assert.Equal(t, 1, version, "rejected save must leave the stream untouched")

	require.NoError(t, store.SaveEvents(ctx, aggregateID, []event.DomainEvent{newStockValidated(t)}, 1))
}

func TestInMemoryEventStore_LoadEventsFrom(t *testing.T) {
	store := eventstore.NewInMemoryEventStore()
	ctx := context.Background()
	aggregateID := uuid.NewUUID().String()

	batch := []event.DomainEvent{newStockValidated(t), newStockValidated(t), newStockValidated(t)}
	require.NoError(t, store.SaveEvents(ctx, aggregateID, batch, 0))

	tail, err := store.LoadEventsFrom(ctx, aggregateID, 2)
	require.NoError(t, err)
	assert.Len(t, tail, 1)

	_, err = store.LoadEventsFrom(ctx, aggregateID, 3)
	assert.ErrorIs(t, err, appcore.ErrAggregateNotFound)

	_, err = store.LoadEvents(ctx, "missing")
	assert.ErrorIs(t, err, appcore.ErrAggregateNotFound)
}
