package cart

import (
	"github.com/lllypuk/orderflow/internal/domain/event"
	"github.com/lllypuk/orderflow/internal/domain/uuid"
)

// Event types published on the cart context's broadcast topic.
const (
	EventTypeSnapshotTaken = "cart.snapshot_taken"
	EventTypeCleared       = "cart.cleared"
)

// SnapshotTaken reports that the cart's items were captured for a checkout.
type SnapshotTaken struct {
	event.BaseEvent

	CheckoutID uuid.UUID `json:"checkout_id"`
	CartID     uuid.UUID `json:"cart_id"`
	Items      []Item    `json:"items"`
}

// NewSnapshotTaken creates a SnapshotTaken event.
func NewSnapshotTaken(checkoutID, cartID uuid.UUID, items []Item, meta event.Metadata) *SnapshotTaken {
	return &SnapshotTaken{
		BaseEvent:  event.NewBaseEvent(EventTypeSnapshotTaken, cartID.String(), Context, 0, meta),
		CheckoutID: checkoutID,
		CartID:     cartID,
		Items:      items,
	}
}

// Cleared reports that the cart was emptied for a checkout.
type Cleared struct {
	event.BaseEvent

	CheckoutID uuid.UUID `json:"checkout_id"`
	CartID     uuid.UUID `json:"cart_id"`
}

// NewCleared creates a Cleared event.
func NewCleared(checkoutID, cartID uuid.UUID, meta event.Metadata) *Cleared {
	return &Cleared{
		BaseEvent:  event.NewBaseEvent(EventTypeCleared, cartID.String(), Context, 0, meta),
		CheckoutID: checkoutID,
		CartID:     cartID,
	}
}
