package checkout_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lllypuk/orderflow/internal/domain/cart"
	"github.com/lllypuk/orderflow/internal/domain/catalog"
	"github.com/lllypuk/orderflow/internal/domain/checkout"
	"github.com/lllypuk/orderflow/internal/domain/command"
	"github.com/lllypuk/orderflow/internal/domain/event"
	"github.com/lllypuk/orderflow/internal/domain/inventory"
	"github.com/lllypuk/orderflow/internal/domain/order"
	"github.com/lllypuk/orderflow/internal/domain/uuid"
)

func testCustomer() order.CustomerInfo {
	return order.CustomerInfo{Name: "Jamie Doe", Email: "jamie@example.com"}
}

func testShipping() order.ShippingAddress {
	return order.ShippingAddress{
		Line1:      "1 Main St",
		City:       "Springfield",
		PostalCode: "12345",
		Country:    "US",
	}
}

func testItems() []cart.Item {
	return []cart.Item{
		{
			ProductID:   uuid.NewUUID(),
			ProductName: "Coffee Beans",
			Quantity:    2,
			UnitPrice:   decimal.NewFromFloat(12.50),
		},
		{
			ProductID:   uuid.NewUUID(),
			ProductName: "Grinder",
			Quantity:    1,
			UnitPrice:   decimal.NewFromFloat(79.00),
		},
	}
}

func testProducts(items []cart.Item) []catalog.ProductSnapshot {
	products := make([]catalog.ProductSnapshot, 0, len(items))
	for _, item := range items {
		products = append(products, catalog.ProductSnapshot{
			ProductID: item.ProductID,
			Name:      item.ProductName,
			Price:     item.UnitPrice,
			Active:    true,
		})
	}
	return products
}

func testResults(items []cart.Item, available bool) []inventory.ValidationResult {
	results := make([]inventory.ValidationResult, 0, len(items))
	for _, item := range items {
		avail := item.Quantity
		if !available {
			avail = 0
		}
		results = append(results, inventory.ValidationResult{
			ProductID: item.ProductID,
			Requested: item.Quantity,
			Available: avail,
		})
	}
	return results
}

func initiated(t *testing.T) *checkout.Checkout {
	t.Helper()

	c, err := checkout.Initiate(uuid.NewUUID(), "guest-token", testCustomer(), testShipping(), "cmd-1")
	require.NoError(t, err)
	return c
}

func TestInitiate(t *testing.T) {
	cartID := uuid.NewUUID()

	c, err := checkout.Initiate(cartID, "guest-token", testCustomer(), testShipping(), "cmd-1")
	require.NoError(t, err)

	assert.Equal(t, checkout.StatusInitiated, c.Status())
	assert.False(t, c.CheckoutID().IsZero())
	assert.False(t, c.OrderID().IsZero())
	require.Len(t, c.UncommittedEvents(), 1)
	assert.Equal(t, checkout.EventTypeInitiated, c.UncommittedEvents()[0].EventType())
	assert.Equal(t, 1, c.UncommittedEvents()[0].Version())

	cmd, ok := c.NextCommand()
	require.True(t, ok)
	assert.Equal(t, cart.CommandNameTakeSnapshot, cmd.CommandName())
	assert.Equal(t, cart.Context, cmd.Destination())
	assert.Equal(t, c.CheckoutID().String(), cmd.CorrelationID())
}

func TestInitiate_Validation(t *testing.T) {
	_, err := checkout.Initiate(uuid.UUID(""), "", testCustomer(), testShipping(), "cmd-1")
	require.Error(t, err)

	_, err = checkout.Initiate(uuid.NewUUID(), "", order.CustomerInfo{}, testShipping(), "cmd-1")
	require.Error(t, err)

	_, err = checkout.Initiate(uuid.NewUUID(), "", testCustomer(), order.ShippingAddress{}, "cmd-1")
	require.Error(t, err)
}

// TestCheckout_HappyPath feeds the seven success events in table order and
// checks the final state plus the command derived after every non-terminal
// transition.
func TestCheckout_HappyPath(t *testing.T) {
	c := initiated(t)
	items := testItems()

	steps := []struct {
		advance     func() error
		wantStatus  checkout.Status
		wantCommand string
	}{
		{
			advance:     func() error { return c.ReceiveCartSnapshot(items, "evt-1") },
			wantStatus:  checkout.StatusCartSnapshotReceived,
			wantCommand: catalog.CommandNameTakeProductSnapshots,
		},
		{
			advance:     func() error { return c.ReceiveProductSnapshots(testProducts(items), "evt-2") },
			wantStatus:  checkout.StatusProductSnapshotsReceived,
			wantCommand: inventory.CommandNameValidateStock,
		},
		{
			advance:     func() error { return c.RecordStockValidation(testResults(items, true), true, "evt-3") },
			wantStatus:  checkout.StatusStockValidated,
			wantCommand: inventory.CommandNameDeductStock,
		},
		{
			advance:     func() error { return c.RecordStockDeduction("evt-4") },
			wantStatus:  checkout.StatusStockDeducted,
			wantCommand: order.CommandNamePlace,
		},
		{
			advance:     func() error { return c.RecordOrderCreated("ORD-2026-0001", "evt-5") },
			wantStatus:  checkout.StatusOrderCreated,
			wantCommand: cart.CommandNameClear,
		},
		{
			advance:     func() error { return c.RecordCartCleared("evt-6") },
			wantStatus:  checkout.StatusCartCleared,
			wantCommand: order.CommandNameFinalize,
		},
	}

	var emitted []command.Command
	for _, step := range steps {
		require.NoError(t, step.advance())
		assert.Equal(t, step.wantStatus, c.Status())

		cmd, ok := c.NextCommand()
		require.True(t, ok)
		assert.Equal(t, step.wantCommand, cmd.CommandName())
		emitted = append(emitted, cmd)
	}

	require.NoError(t, c.RecordOrderFinalized("evt-7"))

	assert.Equal(t, checkout.StatusCompleted, c.Status())
	require.NotNil(t, c.CompletedAt())
	assert.Equal(t, "ORD-2026-0001", c.OrderNumber())
	assert.Len(t, emitted, 6)

	_, ok := c.NextCommand()
	assert.False(t, ok, "terminal state must not derive a command")

	// 1 initiated + 6 progress + finalized + completed chained pair.
	assert.Len(t, c.UncommittedEvents(), 9)
}

func TestCheckout_FailFast_InsufficientStock(t *testing.T) {
	c := initiated(t)
	items := testItems()

	require.NoError(t, c.ReceiveCartSnapshot(items, "evt-1"))
	require.NoError(t, c.ReceiveProductSnapshots(testProducts(items), "evt-2"))

	require.NoError(t, c.RecordStockValidation(testResults(items, false), false, "evt-3"))

	assert.Equal(t, checkout.StatusFailed, c.Status())
	assert.Equal(t, checkout.FailureReasonInsufficientStock, c.FailureReason())
	assert.Equal(t, checkout.StageStockValidation, c.FailedStage())

	_, ok := c.NextCommand()
	assert.False(t, ok, "no deduction command for an unavailable batch")
}

func TestCheckout_IllegalTransition(t *testing.T) {
	c := initiated(t)
	before := c.Status()
	pending := len(c.UncommittedEvents())

	err := c.RecordStockDeduction("evt-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, checkout.ErrInvalidTransition)

	var transitionErr *checkout.TransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, checkout.StatusInitiated, transitionErr.Current)

	assert.Equal(t, before, c.Status(), "state must be unchanged after rejection")
	assert.Len(t, c.UncommittedEvents(), pending)
}

func TestCheckout_FailFromAnyNonTerminalState(t *testing.T) {
	c := initiated(t)

	require.NoError(t, c.Fail(checkout.StageCartSnapshot, "cart not found", "evt-1"))
	assert.Equal(t, checkout.StatusFailed, c.Status())
	assert.Equal(t, "cart not found", c.FailureReason())

	err := c.Fail(checkout.StageCartSnapshot, "again", "evt-2")
	assert.ErrorIs(t, err, checkout.ErrCheckoutTerminal)
}

func TestCheckout_TerminalIsImmutable(t *testing.T) {
	c := initiated(t)
	require.NoError(t, c.Fail(checkout.StageStockDeduction, "deduction failed", "evt-1"))

	err := c.ReceiveCartSnapshot(testItems(), "evt-2")
	assert.ErrorIs(t, err, checkout.ErrInvalidTransition)
	assert.Equal(t, checkout.StatusFailed, c.Status())
}

// TestCheckout_ReplayDeterminism rebuilds the saga from its own event stream
// and expects state identical to the live instance.
func TestCheckout_ReplayDeterminism(t *testing.T) {
	c := initiated(t)
	items := testItems()
	require.NoError(t, c.ReceiveCartSnapshot(items, "evt-1"))
	require.NoError(t, c.ReceiveProductSnapshots(testProducts(items), "evt-2"))
	require.NoError(t, c.RecordStockValidation(testResults(items, true), true, "evt-3"))
	require.NoError(t, c.RecordStockDeduction("evt-4"))

	replayed := checkout.New(c.AggregateID())
	for _, evt := range c.UncommittedEvents() {
		require.NoError(t, replayed.Apply(evt))
	}

	assert.Equal(t, c.CurrentState(), replayed.CurrentState())
}

func TestCheckout_SnapshotRoundTrip(t *testing.T) {
	c := initiated(t)
	items := testItems()
	require.NoError(t, c.ReceiveCartSnapshot(items, "evt-1"))

	state, err := c.SnapshotState()
	require.NoError(t, err)

	restored := checkout.New(c.AggregateID())
	require.NoError(t, restored.RestoreSnapshot(state, 2))

	assert.Equal(t, c.CurrentState(), restored.CurrentState())
	assert.Equal(t, 2, restored.Version())
	assert.Empty(t, restored.UncommittedEvents())

	// The restored saga accepts the next transition.
	require.NoError(t, restored.ReceiveProductSnapshots(testProducts(items), "evt-2"))
}

func TestTransitionFor(t *testing.T) {
	tr, ok := checkout.TransitionFor(cart.EventTypeSnapshotTaken)
	require.True(t, ok)
	assert.Equal(t, checkout.StatusInitiated, tr.From)
	assert.Equal(t, checkout.StatusCartSnapshotReceived, tr.To)

	_, ok = checkout.TransitionFor("cart.some_unknown_event")
	assert.False(t, ok)
}

func TestStepFailed(t *testing.T) {
	checkoutID := uuid.NewUUID()
	evt := checkout.NewStepFailed(inventory.Context, checkoutID, checkout.StageStockDeduction,
		"stock row missing", event.NewMetadata(checkoutID.String(), "cmd-1"))

	assert.Equal(t, "inventory.step_failed", evt.EventType())
	assert.True(t, checkout.IsStepFailed(evt.EventType()))
	assert.False(t, checkout.IsStepFailed(cart.EventTypeSnapshotTaken))
}

func TestStatus_Ordering(t *testing.T) {
	assert.True(t, checkout.StatusStockDeducted.After(checkout.StatusInitiated))
	assert.False(t, checkout.StatusInitiated.After(checkout.StatusStockDeducted))
	assert.True(t, checkout.StatusCompleted.Terminal())
	assert.True(t, checkout.StatusFailed.Terminal())
	assert.False(t, checkout.StatusCartCleared.Terminal())
}

func TestErrorsUnwrap(t *testing.T) {
	err := &checkout.TransitionError{CheckoutID: "c1", EventType: "x", Current: checkout.StatusInitiated}
	assert.True(t, errors.Is(err, checkout.ErrInvalidTransition))
}
