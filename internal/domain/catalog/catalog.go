// Package catalog holds the catalog bounded context's model, commands and events.
package catalog

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/lllypuk/orderflow/internal/domain/uuid"
)

// Context is the bounded context name.
const Context = "catalog"

// Product is the catalog context's own aggregate document.
type Product struct {
	ID     uuid.UUID       `json:"id"     bson:"_id"`
	Name   string          `json:"name"   bson:"name"`
	SKU    string          `json:"sku"    bson:"sku"`
	Price  decimal.Decimal `json:"price"  bson:"price"`
	Active bool            `json:"active" bson:"active"`
}

// ProductSnapshot is the point-in-time copy of a product that the saga stores
// in its own stream for pricing the order.
type ProductSnapshot struct {
	ProductID uuid.UUID       `json:"product_id" bson:"product_id"`
	Name      string          `json:"name"       bson:"name"`
	SKU       string          `json:"sku"        bson:"sku"`
	Price     decimal.Decimal `json:"price"      bson:"price"`
	Active    bool            `json:"active"     bson:"active"`
}

// Snapshot captures the product's current state.
func (p *Product) Snapshot() ProductSnapshot {
	return ProductSnapshot{
		ProductID: p.ID,
		Name:      p.Name,
		SKU:       p.SKU,
		Price:     p.Price,
		Active:    p.Active,
	}
}

// Repository is the catalog context's own storage boundary.
type Repository interface {
	ByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error)
}
