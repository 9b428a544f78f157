// Package order holds the order bounded context's model, commands and events.
package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lllypuk/orderflow/internal/domain/uuid"
)

// Context is the bounded context name.
const Context = "order"

// Status of an order document.
const (
	StatusPending   = "pending"
	StatusFinalized = "finalized"
)

// CustomerInfo identifies the buyer. Collected at checkout initiation and
// copied into the order.
type CustomerInfo struct {
	Name  string `json:"name"  bson:"name"`
	Email string `json:"email" bson:"email"`
	Phone string `json:"phone,omitempty" bson:"phone,omitempty"`
}

// ShippingAddress is the delivery address of an order.
type ShippingAddress struct {
	Line1      string `json:"line1"            bson:"line1"`
	Line2      string `json:"line2,omitempty"  bson:"line2,omitempty"`
	City       string `json:"city"             bson:"city"`
	PostalCode string `json:"postal_code"      bson:"postal_code"`
	Country    string `json:"country"          bson:"country"`
}

// Line is one priced order line.
type Line struct {
	ProductID   uuid.UUID       `json:"product_id"   bson:"product_id"`
	ProductName string          `json:"product_name" bson:"product_name"`
	Quantity    int             `json:"quantity"     bson:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"   bson:"unit_price"`
	Total       decimal.Decimal `json:"total"        bson:"total"`
}

// Order is the order context's own aggregate document.
type Order struct {
	ID          uuid.UUID       `json:"id"           bson:"_id"`
	OrderNumber string          `json:"order_number" bson:"order_number"`
	CheckoutID  uuid.UUID       `json:"checkout_id"  bson:"checkout_id"`
	Customer    CustomerInfo    `json:"customer"     bson:"customer"`
	Shipping    ShippingAddress `json:"shipping"     bson:"shipping"`
	Lines       []Line          `json:"lines"        bson:"lines"`
	Total       decimal.Decimal `json:"total"        bson:"total"`
	Status      string          `json:"status"       bson:"status"`
	CreatedAt   time.Time       `json:"created_at"   bson:"created_at"`
	FinalizedAt *time.Time      `json:"finalized_at,omitempty" bson:"finalized_at,omitempty"`
}

// Finalize marks the order finalized.
func (o *Order) Finalize() {
	now := time.Now()
	o.Status = StatusFinalized
	o.FinalizedAt = &now
}

// Repository is the order context's own storage boundary.
type Repository interface {
	ByID(ctx context.Context, id uuid.UUID) (*Order, error)
	Insert(ctx context.Context, order *Order) error
	Update(ctx context.Context, order *Order) error
}
