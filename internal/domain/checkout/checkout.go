// Package checkout implements the checkout saga: an event-sourced aggregate
// whose apply function is the workflow state machine. It consumes inbound
// progress events from the other bounded contexts and derives the next
// outbound command from its own persisted state.
package checkout

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lllypuk/orderflow/internal/domain/aggregate"
	"github.com/lllypuk/orderflow/internal/domain/cart"
	"github.com/lllypuk/orderflow/internal/domain/catalog"
	"github.com/lllypuk/orderflow/internal/domain/command"
	"github.com/lllypuk/orderflow/internal/domain/event"
	"github.com/lllypuk/orderflow/internal/domain/inventory"
	"github.com/lllypuk/orderflow/internal/domain/order"
	"github.com/lllypuk/orderflow/internal/domain/uuid"
)

// Context is the saga's own bounded context name; its stream lives in the
// event log under this aggregate type and its worker group derives from it.
const Context = "checkout"

// Workflow stage names recorded on failures.
const (
	StageCartSnapshot     = "cart_snapshot"
	StageProductSnapshots = "product_snapshots"
	StageStockValidation  = "stock_validation"
	StageStockDeduction   = "stock_deduction"
	StageOrderCreation    = "order_creation"
	StageCartClear        = "cart_clear"
	StageOrderFinalize    = "order_finalize"
)

// FailureReasonInsufficientStock is recorded when validation reports
// unavailability.
const FailureReasonInsufficientStock = "Insufficient stock available"

// ErrInvalidTransition marks an event that is illegal for the saga's current
// state. An ordering bug, not an infrastructure failure.
var ErrInvalidTransition = errors.New("invalid state transition")

// ErrCheckoutTerminal is returned when mutating a completed or failed saga.
var ErrCheckoutTerminal = errors.New("checkout is in a terminal state")

// TransitionError reports the event and state that clashed. It wraps
// ErrInvalidTransition.
type TransitionError struct {
	CheckoutID string
	EventType  string
	Current    Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("event %q is not valid for checkout %s in state %q",
		e.EventType, e.CheckoutID, e.Current)
}

// Unwrap makes the error match ErrInvalidTransition.
func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// State is the saga's serializable state. Mutated exclusively by Apply.
type State struct {
	CheckoutID       uuid.UUID                    `json:"checkout_id"`
	OrderID          uuid.UUID                    `json:"order_id"`
	CartID           uuid.UUID                    `json:"cart_id"`
	GuestToken       string                       `json:"guest_token,omitempty"`
	Customer         order.CustomerInfo           `json:"customer"`
	Shipping         order.ShippingAddress        `json:"shipping"`
	CartItems        []cart.Item                  `json:"cart_items,omitempty"`
	ProductSnapshots []catalog.ProductSnapshot    `json:"product_snapshots,omitempty"`
	StockResults     []inventory.ValidationResult `json:"stock_results,omitempty"`
	OrderNumber      string                       `json:"order_number,omitempty"`
	Status           Status                       `json:"status"`
	FailureReason    string                       `json:"failure_reason,omitempty"`
	FailedStage      string                       `json:"failed_stage,omitempty"`
	InitiatedAt      time.Time                    `json:"initiated_at"`
	CompletedAt      *time.Time                   `json:"completed_at,omitempty"`
}

// Checkout is the saga aggregate.
type Checkout struct {
	aggregate.Base

	state State
}

// New returns the zero-state saga for a stream ID. Used by the repository as
// the replay target.
func New(id string) *Checkout {
	return &Checkout{
		Base: aggregate.NewBase(id, Context),
	}
}

// Initiate creates a new saga and raises the Initiated event. causationID is
// the initiating command's ID.
func Initiate(
	cartID uuid.UUID,
	guestToken string,
	customer order.CustomerInfo,
	shipping order.ShippingAddress,
	causationID string,
) (*Checkout, error) {
	if cartID.IsZero() {
		return nil, errors.New("cart ID is required")
	}
	if customer.Name == "" || customer.Email == "" {
		return nil, errors.New("customer name and email are required")
	}
	if shipping.Line1 == "" || shipping.City == "" || shipping.Country == "" {
		return nil, errors.New("shipping address is incomplete")
	}

	checkoutID := uuid.NewUUID()
	c := New(checkoutID.String())

	evt := &Initiated{
		BaseEvent:  c.newEvent(EventTypeInitiated, causationID),
		OrderID:    uuid.NewUUID(),
		CartID:     cartID,
		GuestToken: guestToken,
		Customer:   customer,
		Shipping:   shipping,
	}
	if err := c.raise(evt); err != nil {
		return nil, err
	}
	return c, nil
}

// CheckoutID returns the saga identifier.
func (c *Checkout) CheckoutID() uuid.UUID { return c.state.CheckoutID }

// OrderID returns the order identifier reserved at initiation.
func (c *Checkout) OrderID() uuid.UUID { return c.state.OrderID }

// Status returns the current workflow state.
func (c *Checkout) Status() Status { return c.state.Status }

// FailureReason returns the recorded failure reason, if any.
func (c *Checkout) FailureReason() string { return c.state.FailureReason }

// FailedStage returns the workflow stage that failed, if any.
func (c *Checkout) FailedStage() string { return c.state.FailedStage }

// OrderNumber returns the order number assigned by the order context.
func (c *Checkout) OrderNumber() string { return c.state.OrderNumber }

// CompletedAt returns when the saga completed, or nil.
func (c *Checkout) CompletedAt() *time.Time { return c.state.CompletedAt }

// CartItems returns the saga's copy of the cart items.
func (c *Checkout) CartItems() []cart.Item { return c.state.CartItems }

// CurrentState returns a copy of the full saga state for status queries.
func (c *Checkout) CurrentState() State { return c.state }

// ReceiveCartSnapshot accepts the cart context's snapshot.
func (c *Checkout) ReceiveCartSnapshot(items []cart.Item, causationID string) error {
	if err := c.ensure(StatusInitiated, EventTypeCartSnapshotReceived); err != nil {
		return err
	}
	if len(items) == 0 {
		return errors.New("cart snapshot has no items")
	}
	return c.raise(&CartSnapshotReceived{
		BaseEvent: c.newEvent(EventTypeCartSnapshotReceived, causationID),
		Items:     items,
	})
}

// ReceiveProductSnapshots accepts the catalog context's product copies.
func (c *Checkout) ReceiveProductSnapshots(products []catalog.ProductSnapshot, causationID string) error {
	if err := c.ensure(StatusCartSnapshotReceived, EventTypeProductSnapshotsReceived); err != nil {
		return err
	}
	if len(products) == 0 {
		return errors.New("no product snapshots received")
	}
	return c.raise(&ProductSnapshotsReceived{
		BaseEvent: c.newEvent(EventTypeProductSnapshotsReceived, causationID),
		Products:  products,
	})
}

// RecordStockValidation accepts the inventory validation outcome. When
// availability is not confirmed the saga fails fast: no deduction command is
// ever derived for an unavailable batch.
func (c *Checkout) RecordStockValidation(
	results []inventory.ValidationResult,
	allAvailable bool,
	causationID string,
) error {
	if err := c.ensure(StatusProductSnapshotsReceived, EventTypeStockValidated); err != nil {
		return err
	}
	if err := c.raise(&StockValidated{
		BaseEvent:    c.newEvent(EventTypeStockValidated, causationID),
		Results:      results,
		AllAvailable: allAvailable,
	}); err != nil {
		return err
	}
	if !allAvailable {
		return c.raise(&Failed{
			BaseEvent: c.newEvent(EventTypeFailed, causationID),
			Stage:     StageStockValidation,
			Reason:    FailureReasonInsufficientStock,
		})
	}
	return nil
}

// RecordStockDeduction accepts the inventory deduction confirmation.
func (c *Checkout) RecordStockDeduction(causationID string) error {
	if err := c.ensure(StatusStockValidated, EventTypeStockDeducted); err != nil {
		return err
	}
	return c.raise(&StockDeducted{
		BaseEvent: c.newEvent(EventTypeStockDeducted, causationID),
	})
}

// RecordOrderCreated accepts the order context's confirmation.
func (c *Checkout) RecordOrderCreated(orderNumber, causationID string) error {
	if err := c.ensure(StatusStockDeducted, EventTypeOrderCreated); err != nil {
		return err
	}
	if orderNumber == "" {
		return errors.New("order number is required")
	}
	return c.raise(&OrderCreated{
		BaseEvent:   c.newEvent(EventTypeOrderCreated, causationID),
		OrderNumber: orderNumber,
	})
}

// RecordCartCleared accepts the cart context's clear confirmation.
func (c *Checkout) RecordCartCleared(causationID string) error {
	if err := c.ensure(StatusOrderCreated, EventTypeCartCleared); err != nil {
		return err
	}
	return c.raise(&CartCleared{
		BaseEvent: c.newEvent(EventTypeCartCleared, causationID),
	})
}

// RecordOrderFinalized accepts the order finalization and completes the saga
// via two chained events.
func (c *Checkout) RecordOrderFinalized(causationID string) error {
	if err := c.ensure(StatusCartCleared, EventTypeOrderFinalized); err != nil {
		return err
	}
	if err := c.raise(&OrderFinalized{
		BaseEvent: c.newEvent(EventTypeOrderFinalized, causationID),
	}); err != nil {
		return err
	}
	return c.raise(&Completed{
		BaseEvent:   c.newEvent(EventTypeCompleted, causationID),
		CompletedAt: time.Now(),
	})
}

// Fail records an explicit failure from any non-terminal state.
func (c *Checkout) Fail(stage, reason, causationID string) error {
	if c.state.Status.Terminal() {
		return ErrCheckoutTerminal
	}
	return c.raise(&Failed{
		BaseEvent: c.newEvent(EventTypeFailed, causationID),
		Stage:     stage,
		Reason:    reason,
	})
}

// NextCommand derives the outbound command for the current state. It is a
// pure function of persisted state, so a crash between the append and the
// enqueue is recovered by re-deriving after reload. ok is false in terminal
// states.
func (c *Checkout) NextCommand() (command.Command, bool) {
	s := &c.state
	switch s.Status {
	case StatusInitiated:
		return cart.NewTakeSnapshot(s.CheckoutID, s.CartID, s.GuestToken), true
	case StatusCartSnapshotReceived:
		return catalog.NewTakeProductSnapshots(s.CheckoutID, productIDs(s.CartItems)), true
	case StatusProductSnapshotsReceived:
		return inventory.NewValidateStock(s.CheckoutID, stockLines(s.CartItems)), true
	case StatusStockValidated:
		return inventory.NewDeductStock(s.CheckoutID, stockLines(s.CartItems)), true
	case StatusStockDeducted:
		return order.NewPlace(s.CheckoutID, s.OrderID, s.Customer, s.Shipping, s.CartItems, s.ProductSnapshots), true
	case StatusOrderCreated:
		return cart.NewClear(s.CheckoutID, s.CartID), true
	case StatusCartCleared:
		return order.NewFinalize(s.CheckoutID, s.OrderID), true
	default:
		return nil, false
	}
}

// Apply mutates state from a single event. Pure: no I/O, no side effects, so
// snapshot-based and full-replay reconstruction are identical.
func (c *Checkout) Apply(evt event.DomainEvent) error {
	switch e := evt.(type) {
	case *Initiated:
		c.state.CheckoutID = uuid.UUID(e.AggregateID())
		c.state.OrderID = e.OrderID
		c.state.CartID = e.CartID
		c.state.GuestToken = e.GuestToken
		c.state.Customer = e.Customer
		c.state.Shipping = e.Shipping
		c.state.Status = StatusInitiated
		c.state.InitiatedAt = e.OccurredAt()
	case *CartSnapshotReceived:
		c.state.CartItems = e.Items
		c.state.Status = StatusCartSnapshotReceived
	case *ProductSnapshotsReceived:
		c.state.ProductSnapshots = e.Products
		c.state.Status = StatusProductSnapshotsReceived
	case *StockValidated:
		c.state.StockResults = e.Results
		c.state.Status = StatusStockValidated
	case *StockDeducted:
		c.state.Status = StatusStockDeducted
	case *OrderCreated:
		c.state.OrderNumber = e.OrderNumber
		c.state.Status = StatusOrderCreated
	case *CartCleared:
		c.state.Status = StatusCartCleared
	case *OrderFinalized:
		// Completed follows in the same batch; no state change of its own.
	case *Completed:
		completedAt := e.CompletedAt
		c.state.CompletedAt = &completedAt
		c.state.Status = StatusCompleted
	case *Failed:
		c.state.FailedStage = e.Stage
		c.state.FailureReason = e.Reason
		c.state.Status = StatusFailed
	default:
		return fmt.Errorf("unknown checkout event type %q", evt.EventType())
	}
	return nil
}

// SnapshotState serializes the saga state for the snapshot store.
func (c *Checkout) SnapshotState() (json.RawMessage, error) {
	return json.Marshal(c.state)
}

// RestoreSnapshot rebuilds the saga from a snapshot taken at version.
func (c *Checkout) RestoreSnapshot(state json.RawMessage, version int) error {
	var s State
	if err := json.Unmarshal(state, &s); err != nil {
		return fmt.Errorf("failed to decode checkout snapshot: %w", err)
	}
	c.state = s
	c.Restore(s.CheckoutID.String(), version)
	return nil
}

func (c *Checkout) ensure(from Status, eventType string) error {
	if c.state.Status != from {
		return &TransitionError{
			CheckoutID: c.AggregateID(),
			EventType:  eventType,
			Current:    c.state.Status,
		}
	}
	return nil
}

func (c *Checkout) newEvent(eventType, causationID string) event.BaseEvent {
	meta := event.NewMetadata(c.AggregateID(), causationID)
	return event.NewBaseEvent(eventType, c.AggregateID(), Context, c.NextVersion(), meta)
}

func (c *Checkout) raise(evt event.DomainEvent) error {
	if err := c.Apply(evt); err != nil {
		return err
	}
	c.Record(evt)
	return nil
}

func productIDs(items []cart.Item) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(items))
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	return ids
}

func stockLines(items []cart.Item) []inventory.Line {
	lines := make([]inventory.Line, 0, len(items))
	for _, item := range items {
		lines = append(lines, inventory.Line{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}
	return lines
}
