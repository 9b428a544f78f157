// Package inventory holds the inventory bounded context's model, commands and events.
package inventory

import (
	"context"

	"github.com/lllypuk/orderflow/internal/domain/uuid"
)

// Context is the bounded context name.
const Context = "inventory"

// StockLevel is the inventory context's own aggregate document.
type StockLevel struct {
	ProductID uuid.UUID `json:"product_id" bson:"_id"`
	Quantity  int       `json:"quantity"   bson:"quantity"`
	Reserved  int       `json:"reserved"   bson:"reserved"`
}

// Available returns the quantity available for deduction.
func (s StockLevel) Available() int {
	return s.Quantity - s.Reserved
}

// Line is one product/quantity pair of a validation or deduction request.
type Line struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// ValidationResult is the outcome of a stock check for one line.
type ValidationResult struct {
	ProductID uuid.UUID `json:"product_id"`
	Requested int       `json:"requested"`
	Available int       `json:"available"`
}

// Sufficient reports whether the requested quantity is available.
func (r ValidationResult) Sufficient() bool {
	return r.Available >= r.Requested
}

// Repository is the inventory context's own storage boundary. Deduct must be
// a guarded decrement: it fails, without partial effect, when any line lacks
// sufficient stock.
type Repository interface {
	Levels(ctx context.Context, productIDs []uuid.UUID) ([]StockLevel, error)
	Deduct(ctx context.Context, lines []Line) error
}
