package inventory_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appinventory "github.com/lllypuk/orderflow/internal/application/inventory"
	"github.com/lllypuk/orderflow/internal/domain/checkout"
	"github.com/lllypuk/orderflow/internal/domain/inventory"
	"github.com/lllypuk/orderflow/internal/domain/uuid"
	"github.com/lllypuk/orderflow/internal/infrastructure/broker"
	"github.com/lllypuk/orderflow/internal/infrastructure/idempotency"
	"github.com/lllypuk/orderflow/internal/infrastructure/repository/inmemory"
)

func TestValidateStockHandler_ReportsPerLineAvailability(t *testing.T) {
	inStock := uuid.NewUUID()
	reserved := uuid.NewUUID()
	unknown := uuid.NewUUID()

	stock := inmemory.NewStockRepository(
		inventory.StockLevel{ProductID: inStock, Quantity: 10},
		inventory.StockLevel{ProductID: reserved, Quantity: 5, Reserved: 4},
	)
	publisher := broker.NewInMemoryPublisher()
	handler := appinventory.NewValidateStockHandler(
		stock, publisher, idempotency.NewInMemoryStore(), slog.Default())

	cmd := inventory.NewValidateStock(uuid.NewUUID(), []inventory.Line{
		{ProductID: inStock, Quantity: 3},
		{ProductID: reserved, Quantity: 2},
		{ProductID: unknown, Quantity: 1},
	})
	require.NoError(t, handler.Execute(context.Background(), &cmd))

	events := publisher.Events()
	require.Len(t, events, 1)
	completed, ok := events[0].(*inventory.StockValidationCompleted)
	require.True(t, ok)

	// Unavailability is data, not an error.
	assert.False(t, completed.AllAvailable)
	require.Len(t, completed.Results, 3)
	assert.Equal(t, 10, completed.Results[0].Available)
	assert.True(t, completed.Results[0].Sufficient())
	assert.Equal(t, 1, completed.Results[1].Available)
	assert.False(t, completed.Results[1].Sufficient())
	// A product without a stock record has zero available.
	assert.Equal(t, 0, completed.Results[2].Available)
}

func TestValidateStockHandler_AllAvailable(t *testing.T) {
	productID := uuid.NewUUID()
	stock := inmemory.NewStockRepository(inventory.StockLevel{ProductID: productID, Quantity: 10})
	publisher := broker.NewInMemoryPublisher()
	handler := appinventory.NewValidateStockHandler(
		stock, publisher, idempotency.NewInMemoryStore(), slog.Default())

	cmd := inventory.NewValidateStock(uuid.NewUUID(), []inventory.Line{{ProductID: productID, Quantity: 10}})
	require.NoError(t, handler.Execute(context.Background(), &cmd))

	completed := publisher.Events()[0].(*inventory.StockValidationCompleted)
	assert.True(t, completed.AllAvailable)
}

func TestValidateStockHandler_DuplicateCommandIsSkipped(t *testing.T) {
	productID := uuid.NewUUID()
	stock := inmemory.NewStockRepository(inventory.StockLevel{ProductID: productID, Quantity: 10})
	publisher := broker.NewInMemoryPublisher()
	handler := appinventory.NewValidateStockHandler(
		stock, publisher, idempotency.NewInMemoryStore(), slog.Default())

	cmd := inventory.NewValidateStock(uuid.NewUUID(), []inventory.Line{{ProductID: productID, Quantity: 1}})
	require.NoError(t, handler.Execute(context.Background(), &cmd))
	require.NoError(t, handler.Execute(context.Background(), &cmd))

	assert.Len(t, publisher.Events(), 1)
}

func TestDeductStockHandler_DecrementsAndPublishes(t *testing.T) {
	productID := uuid.NewUUID()
	stock := inmemory.NewStockRepository(inventory.StockLevel{ProductID: productID, Quantity: 10})
	publisher := broker.NewInMemoryPublisher()
	handler := appinventory.NewDeductStockHandler(
		stock, publisher, idempotency.NewInMemoryStore(), slog.Default())

	cmd := inventory.NewDeductStock(uuid.NewUUID(), []inventory.Line{{ProductID: productID, Quantity: 4}})
	require.NoError(t, handler.Execute(context.Background(), &cmd))

	levels, err := stock.Levels(context.Background(), []uuid.UUID{productID})
	require.NoError(t, err)
	require.Len(t, levels, 1)
	assert.Equal(t, 6, levels[0].Quantity)

	events := publisher.Events()
	require.Len(t, events, 1)
	assert.Equal(t, inventory.EventTypeStockDeducted, events[0].EventType())
}

func TestDeductStockHandler_ShortfallFailsStepWithoutPartialEffect(t *testing.T) {
	covered := uuid.NewUUID()
	short := uuid.NewUUID()
	stock := inmemory.NewStockRepository(
		inventory.StockLevel{ProductID: covered, Quantity: 10},
		inventory.StockLevel{ProductID: short, Quantity: 1},
	)
	publisher := broker.NewInMemoryPublisher()
	handler := appinventory.NewDeductStockHandler(
		stock, publisher, idempotency.NewInMemoryStore(), slog.Default())

	cmd := inventory.NewDeductStock(uuid.NewUUID(), []inventory.Line{
		{ProductID: covered, Quantity: 2},
		{ProductID: short, Quantity: 5},
	})
	require.NoError(t, handler.Execute(context.Background(), &cmd))

	events := publisher.Events()
	require.Len(t, events, 1)
	failure, ok := events[0].(*checkout.StepFailed)
	require.True(t, ok)
	assert.Equal(t, checkout.StageStockDeduction, failure.Stage)
	assert.Equal(t, checkout.FailureReasonInsufficientStock, failure.Reason)

	// The covered line was not decremented either.
	levels, err := stock.Levels(context.Background(), []uuid.UUID{covered})
	require.NoError(t, err)
	assert.Equal(t, 10, levels[0].Quantity)
}
