package catalog

import (
	"github.com/lllypuk/orderflow/internal/domain/event"
	"github.com/lllypuk/orderflow/internal/domain/uuid"
)

// Event types published on the catalog context's broadcast topic.
const (
	EventTypeProductSnapshotsTaken = "catalog.product_snapshots_taken"
)

// ProductSnapshotsTaken reports that product state was captured for a checkout.
type ProductSnapshotsTaken struct {
	event.BaseEvent

	CheckoutID uuid.UUID         `json:"checkout_id"`
	Products   []ProductSnapshot `json:"products"`
}

// NewProductSnapshotsTaken creates a ProductSnapshotsTaken event.
func NewProductSnapshotsTaken(checkoutID uuid.UUID, products []ProductSnapshot, meta event.Metadata) *ProductSnapshotsTaken {
	return &ProductSnapshotsTaken{
		BaseEvent:  event.NewBaseEvent(EventTypeProductSnapshotsTaken, checkoutID.String(), Context, 0, meta),
		CheckoutID: checkoutID,
		Products:   products,
	}
}
