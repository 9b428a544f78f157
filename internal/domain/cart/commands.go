package cart

import (
	"github.com/lllypuk/orderflow/internal/domain/command"
	"github.com/lllypuk/orderflow/internal/domain/uuid"
)

// Command names of the cart context.
const (
	CommandNameTakeSnapshot = "cart.take_snapshot"
	CommandNameClear        = "cart.clear"
)

// TakeSnapshot asks the cart context to capture the cart's current items for
// a checkout.
type TakeSnapshot struct {
	command.Base

	CheckoutID uuid.UUID `json:"checkout_id"`
	CartID     uuid.UUID `json:"cart_id"`
	GuestToken string    `json:"guest_token,omitempty"`
}

// NewTakeSnapshot creates a TakeSnapshot command.
func NewTakeSnapshot(checkoutID, cartID uuid.UUID, guestToken string) TakeSnapshot {
	return TakeSnapshot{
		Base:       command.NewBase(CommandNameTakeSnapshot, checkoutID.String()),
		CheckoutID: checkoutID,
		CartID:     cartID,
		GuestToken: guestToken,
	}
}

// CommandName returns the command's type tag.
func (TakeSnapshot) CommandName() string { return CommandNameTakeSnapshot }

// Destination returns the consuming bounded context.
func (TakeSnapshot) Destination() string { return Context }

// Clear asks the cart context to empty the cart after the order was created.
type Clear struct {
	command.Base

	CheckoutID uuid.UUID `json:"checkout_id"`
	CartID     uuid.UUID `json:"cart_id"`
}

// NewClear creates a Clear command.
func NewClear(checkoutID, cartID uuid.UUID) Clear {
	return Clear{
		Base:       command.NewBase(CommandNameClear, checkoutID.String()),
		CheckoutID: checkoutID,
		CartID:     cartID,
	}
}

// CommandName returns the command's type tag.
func (Clear) CommandName() string { return CommandNameClear }

// Destination returns the consuming bounded context.
func (Clear) Destination() string { return Context }
