package order

import (
	"github.com/lllypuk/orderflow/internal/domain/event"
	"github.com/lllypuk/orderflow/internal/domain/uuid"
)

// Event types published on the order context's broadcast topic.
const (
	EventTypePlaced    = "order.placed"
	EventTypeFinalized = "order.finalized"
)

// Placed reports that the order document was created for a checkout.
type Placed struct {
	event.BaseEvent

	CheckoutID  uuid.UUID `json:"checkout_id"`
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
}

// NewPlaced creates a Placed event.
func NewPlaced(checkoutID, orderID uuid.UUID, orderNumber string, meta event.Metadata) *Placed {
	return &Placed{
		BaseEvent:   event.NewBaseEvent(EventTypePlaced, orderID.String(), Context, 0, meta),
		CheckoutID:  checkoutID,
		OrderID:     orderID,
		OrderNumber: orderNumber,
	}
}

// Finalized reports that the order was finalized.
type Finalized struct {
	event.BaseEvent

	CheckoutID uuid.UUID `json:"checkout_id"`
	OrderID    uuid.UUID `json:"order_id"`
}

// NewFinalized creates a Finalized event.
func NewFinalized(checkoutID, orderID uuid.UUID, meta event.Metadata) *Finalized {
	return &Finalized{
		BaseEvent:  event.NewBaseEvent(EventTypeFinalized, orderID.String(), Context, 0, meta),
		CheckoutID: checkoutID,
		OrderID:    orderID,
	}
}
