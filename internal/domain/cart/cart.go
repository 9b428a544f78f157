// Package cart holds the cart bounded context's model, commands and events.
package cart

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lllypuk/orderflow/internal/domain/uuid"
)

// Context is the bounded context name. Queue and topic names derive from it.
const Context = "cart"

// Item is one cart line. The saga stores copies of these in its own stream;
// it never reaches back into cart storage.
type Item struct {
	ProductID   uuid.UUID       `json:"product_id"   bson:"product_id"`
	ProductName string          `json:"product_name" bson:"product_name"`
	Quantity    int             `json:"quantity"     bson:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"   bson:"unit_price"`
}

// Cart is the cart context's own aggregate document.
type Cart struct {
	ID         uuid.UUID `json:"id"          bson:"_id"`
	GuestToken string    `json:"guest_token" bson:"guest_token"`
	Items      []Item    `json:"items"       bson:"items"`
	UpdatedAt  time.Time `json:"updated_at"  bson:"updated_at"`
}

// IsEmpty reports whether the cart has no items.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// ProductIDs returns the distinct product IDs referenced by the cart.
func (c *Cart) ProductIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(c.Items))
	ids := make([]uuid.UUID, 0, len(c.Items))
	for _, item := range c.Items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	return ids
}

// Clear removes all items.
func (c *Cart) Clear() {
	c.Items = nil
	c.UpdatedAt = time.Now()
}

// Repository is the cart context's own storage boundary.
type Repository interface {
	ByID(ctx context.Context, id uuid.UUID) (*Cart, error)
	Save(ctx context.Context, cart *Cart) error
}
