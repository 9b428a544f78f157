package inventory

import (
	"github.com/lllypuk/orderflow/internal/domain/command"
	"github.com/lllypuk/orderflow/internal/domain/uuid"
)

// Command names of the inventory context.
const (
	CommandNameValidateStock = "inventory.validate_stock"
	CommandNameDeductStock   = "inventory.deduct_stock"
)

// ValidateStock asks the inventory context to check availability for a
// checkout's cart lines. Unavailability is reported as data, not as an error.
type ValidateStock struct {
	command.Base

	CheckoutID uuid.UUID `json:"checkout_id"`
	Lines      []Line    `json:"lines"`
}

// NewValidateStock creates a ValidateStock command.
func NewValidateStock(checkoutID uuid.UUID, lines []Line) ValidateStock {
	return ValidateStock{
		Base:       command.NewBase(CommandNameValidateStock, checkoutID.String()),
		CheckoutID: checkoutID,
		Lines:      lines,
	}
}

// CommandName returns the command's type tag.
func (ValidateStock) CommandName() string { return CommandNameValidateStock }

// Destination returns the consuming bounded context.
func (ValidateStock) Destination() string { return Context }

// DeductStock asks the inventory context to decrement stock for a checkout.
// Emitted only after validation reported availability.
type DeductStock struct {
	command.Base

	CheckoutID uuid.UUID `json:"checkout_id"`
	Lines      []Line    `json:"lines"`
}

// NewDeductStock creates a DeductStock command.
func NewDeductStock(checkoutID uuid.UUID, lines []Line) DeductStock {
	return DeductStock{
		Base:       command.NewBase(CommandNameDeductStock, checkoutID.String()),
		CheckoutID: checkoutID,
		Lines:      lines,
	}
}

// CommandName returns the command's type tag.
func (DeductStock) CommandName() string { return CommandNameDeductStock }

// Destination returns the consuming bounded context.
func (DeductStock) Destination() string { return Context }
