package inventory

import (
	"github.com/lllypuk/orderflow/internal/domain/event"
	"github.com/lllypuk/orderflow/internal/domain/uuid"
)

// Event types published on the inventory context's broadcast topic.
const (
	EventTypeStockValidationCompleted = "inventory.stock_validation_completed"
	EventTypeStockDeducted            = "inventory.stock_deducted"
)

// StockValidationCompleted reports the availability check outcome for a
// checkout. AllAvailable false means at least one line lacks stock.
type StockValidationCompleted struct {
	event.BaseEvent

	CheckoutID   uuid.UUID          `json:"checkout_id"`
	Results      []ValidationResult `json:"results"`
	AllAvailable bool               `json:"all_available"`
}

// NewStockValidationCompleted creates a StockValidationCompleted event.
func NewStockValidationCompleted(
	checkoutID uuid.UUID,
	results []ValidationResult,
	allAvailable bool,
	meta event.Metadata,
) *StockValidationCompleted {
	return &StockValidationCompleted{
		BaseEvent:    event.NewBaseEvent(EventTypeStockValidationCompleted, checkoutID.String(), Context, 0, meta),
		CheckoutID:   checkoutID,
		Results:      results,
		AllAvailable: allAvailable,
	}
}

// StockDeducted reports that stock was decremented for a checkout.
type StockDeducted struct {
	event.BaseEvent

	CheckoutID uuid.UUID `json:"checkout_id"`
	Lines      []Line    `json:"lines"`
}

// NewStockDeducted creates a StockDeducted event.
func NewStockDeducted(checkoutID uuid.UUID, lines []Line, meta event.Metadata) *StockDeducted {
	return &StockDeducted{
		BaseEvent:  event.NewBaseEvent(EventTypeStockDeducted, checkoutID.String(), Context, 0, meta),
		CheckoutID: checkoutID,
		Lines:      lines,
	}
}
