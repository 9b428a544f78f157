package order_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apporder "github.com/lllypuk/orderflow/internal/application/order"
	"github.com/lllypuk/orderflow/internal/domain/cart"
	"github.com/lllypuk/orderflow/internal/domain/catalog"
	"github.com/lllypuk/orderflow/internal/domain/checkout"
	"github.com/lllypuk/orderflow/internal/domain/order"
	"github.com/lllypuk/orderflow/internal/domain/uuid"
	"github.com/lllypuk/orderflow/internal/infrastructure/broker"
	"github.com/lllypuk/orderflow/internal/infrastructure/idempotency"
	"github.com/lllypuk/orderflow/internal/infrastructure/repository/inmemory"
)

func placeCommand(t *testing.T) *order.Place {
	t.Helper()

	mugID := uuid.NewUUID()
	standID := uuid.NewUUID()

	items := []cart.Item{
		{ProductID: mugID, ProductName: "Ceramic Mug", Quantity: 2, UnitPrice: decimal.RequireFromString("19.99")},
		{ProductID: standID, ProductName: "Desk Stand", Quantity: 1, UnitPrice: decimal.RequireFromString("5.00")},
	}
	products := []catalog.ProductSnapshot{
		{ProductID: mugID, Name: "Ceramic Mug", SKU: "MUG-1", Price: decimal.RequireFromString("19.99"), Active: true},
		{ProductID: standID, Name: "Desk Stand", SKU: "STD-1", Price: decimal.RequireFromString("5.00"), Active: true},
	}

	cmd := order.NewPlace(
		uuid.NewUUID(),
		uuid.NewUUID(),
		order.CustomerInfo{Name: "Jordan Miles", Email: "jordan@example.com"},
		order.ShippingAddress{Line1: "1 Harbor Way", City: "Rotterdam", PostalCode: "3011", Country: "NL"},
		items,
		products,
	)
	return &cmd
}

func newPlaceHandler(orders order.Repository) (*apporder.PlaceHandler, *broker.InMemoryPublisher) {
	publisher := broker.NewInMemoryPublisher()
	handler := apporder.NewPlaceHandler(orders, publisher, idempotency.NewInMemoryStore(), slog.Default())
	return handler, publisher
}

func TestPlaceHandler_PricesFromSnapshotsAndPublishes(t *testing.T) {
	orders := inmemory.NewOrderRepository()
	handler, publisher := newPlaceHandler(orders)
	cmd := placeCommand(t)

	require.NoError(t, handler.Execute(context.Background(), cmd))

	stored, err := orders.ByID(context.Background(), cmd.OrderID)
	require.NoError(t, err)

	// 2 x 19.99 + 1 x 5.00
	assert.True(t, stored.Total.Equal(decimal.RequireFromString("44.98")),
		"total = %s", stored.Total)
	assert.Equal(t, order.StatusPending, stored.Status)
	assert.Equal(t, cmd.CheckoutID, stored.CheckoutID)
	require.Len(t, stored.Lines, 2)
	assert.True(t, stored.Lines[0].Total.Equal(decimal.RequireFromString("39.98")))

	events := publisher.Events()
	require.Len(t, events, 1)
	placed, ok := events[0].(*order.Placed)
	require.True(t, ok)
	assert.Equal(t, stored.OrderNumber, placed.OrderNumber)
	assert.Equal(t, cmd.CheckoutID, placed.CheckoutID)
}

func TestPlaceHandler_RedeliveryConfirmsExistingOrder(t *testing.T) {
	orders := inmemory.NewOrderRepository()
	handler, publisher := newPlaceHandler(orders)
	cmd := placeCommand(t)

	require.NoError(t, handler.Execute(context.Background(), cmd))
	first := publisher.Events()[0].(*order.Placed)

	// Fresh handler state models a crash before the dedup mark: the insert
	// hits the existing document and the stored number is re-announced.
	retry, retryPublisher := newPlaceHandler(orders)
	require.NoError(t, retry.Execute(context.Background(), cmd))

	events := retryPublisher.Events()
	require.Len(t, events, 1)
	assert.Equal(t, first.OrderNumber, events[0].(*order.Placed).OrderNumber)
}

func TestPlaceHandler_MissingSnapshotFailsStep(t *testing.T) {
	orders := inmemory.NewOrderRepository()
	handler, publisher := newPlaceHandler(orders)
	cmd := placeCommand(t)
	cmd.Products = cmd.Products[:1]

	require.NoError(t, handler.Execute(context.Background(), cmd))

	events := publisher.Events()
	require.Len(t, events, 1)
	failure, ok := events[0].(*checkout.StepFailed)
	require.True(t, ok)
	assert.Equal(t, checkout.StageOrderCreation, failure.Stage)

	_, err := orders.ByID(context.Background(), cmd.OrderID)
	require.Error(t, err)
}

func TestOrderNumber_DeterministicPerOrder(t *testing.T) {
	id := uuid.MustParseUUID("3f2c8a1e-9b4d-4e6f-8a2b-1c5d7e9f0a3b")
	at := time.Date(2026, time.August, 31, 12, 0, 0, 0, time.UTC)

	first := apporder.OrderNumber(id, at)
	second := apporder.OrderNumber(id, at)

	assert.Equal(t, first, second)
	assert.Equal(t, "ORD-2026-3F2C8A1E", first)
}

func TestFinalizeHandler_UpdatesStatusAndPublishes(t *testing.T) {
	orders := inmemory.NewOrderRepository()
	placeHandler, _ := newPlaceHandler(orders)
	cmd := placeCommand(t)
	require.NoError(t, placeHandler.Execute(context.Background(), cmd))

	publisher := broker.NewInMemoryPublisher()
	handler := apporder.NewFinalizeHandler(orders, publisher, idempotency.NewInMemoryStore(), slog.Default())

	finalize := order.NewFinalize(cmd.CheckoutID, cmd.OrderID)
	require.NoError(t, handler.Execute(context.Background(), &finalize))

	stored, err := orders.ByID(context.Background(), cmd.OrderID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusFinalized, stored.Status)
	require.NotNil(t, stored.FinalizedAt)

	events := publisher.Events()
	require.Len(t, events, 1)
	assert.Equal(t, order.EventTypeFinalized, events[0].EventType())
}

func TestFinalizeHandler_MissingOrderFailsStep(t *testing.T) {
	publisher := broker.NewInMemoryPublisher()
	handler := apporder.NewFinalizeHandler(
		inmemory.NewOrderRepository(), publisher, idempotency.NewInMemoryStore(), slog.Default())

	finalize := order.NewFinalize(uuid.NewUUID(), uuid.NewUUID())
	require.NoError(t, handler.Execute(context.Background(), &finalize))

	events := publisher.Events()
	require.Len(t, events, 1)
	failure, ok := events[0].(*checkout.StepFailed)
	require.True(t, ok)
	assert.Equal(t, checkout.StageOrderFinalize, failure.Stage)
}
