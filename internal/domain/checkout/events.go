package checkout

import (
	"time"

	"github.com/lllypuk/orderflow/internal/domain/cart"
	"github.com/lllypuk/orderflow/internal/domain/catalog"
	"github.com/lllypuk/orderflow/internal/domain/event"
	"github.com/lllypuk/orderflow/internal/domain/inventory"
	"github.com/lllypuk/orderflow/internal/domain/order"
	"github.com/lllypuk/orderflow/internal/domain/uuid"
)

// Event types of the saga's own stream. This is the closed set the event
// store serializer dispatches on.
const (
	EventTypeInitiated                = "checkout.initiated"
	EventTypeCartSnapshotReceived     = "checkout.cart_snapshot_received"
	EventTypeProductSnapshotsReceived = "checkout.product_snapshots_received"
	EventTypeStockValidated           = "checkout.stock_validated"
	EventTypeStockDeducted            = "checkout.stock_deducted"
	EventTypeOrderCreated             = "checkout.order_created"
	EventTypeCartCleared              = "checkout.cart_cleared"
	EventTypeOrderFinalized           = "checkout.order_finalized"
	EventTypeCompleted                = "checkout.completed"
	EventTypeFailed                   = "checkout.failed"
)

// Initiated starts a checkout. It carries everything the saga copies from
// the initiation request.
type Initiated struct {
	event.BaseEvent

	OrderID    uuid.UUID             `json:"order_id"`
	CartID     uuid.UUID             `json:"cart_id"`
	GuestToken string                `json:"guest_token,omitempty"`
	Customer   order.CustomerInfo    `json:"customer"`
	Shipping   order.ShippingAddress `json:"shipping"`
}

// CartSnapshotReceived stores the saga's copy of the cart items.
type CartSnapshotReceived struct {
	event.BaseEvent

	Items []cart.Item `json:"items"`
}

// ProductSnapshotsReceived stores the saga's copy of product state.
type ProductSnapshotsReceived struct {
	event.BaseEvent

	Products []catalog.ProductSnapshot `json:"products"`
}

// StockValidated records the availability check outcome.
type StockValidated struct {
	event.BaseEvent

	Results      []inventory.ValidationResult `json:"results"`
	AllAvailable bool                         `json:"all_available"`
}

// StockDeducted records that inventory was decremented.
type StockDeducted struct {
	event.BaseEvent
}

// OrderCreated records the order number assigned by the order context.
type OrderCreated struct {
	event.BaseEvent

	OrderNumber string `json:"order_number"`
}

// CartCleared records that the cart context emptied the cart.
type CartCleared struct {
	event.BaseEvent
}

// OrderFinalized records that the order context finalized the order.
type OrderFinalized struct {
	event.BaseEvent
}

// Completed terminates the saga successfully.
type Completed struct {
	event.BaseEvent

	CompletedAt time.Time `json:"completed_at"`
}

// Failed terminates the saga with the failing stage and reason recorded.
type Failed struct {
	event.BaseEvent

	Stage  string `json:"stage"`
	Reason string `json:"reason"`
}
