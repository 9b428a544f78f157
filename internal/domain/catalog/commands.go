package catalog

import (
	"github.com/lllypuk/orderflow/internal/domain/command"
	"github.com/lllypuk/orderflow/internal/domain/uuid"
)

// Command names of the catalog context.
const (
	CommandNameTakeProductSnapshots = "catalog.take_product_snapshots"
)

// TakeProductSnapshots asks the catalog context to capture the current state
// of the products referenced by a checkout's cart.
type TakeProductSnapshots struct {
	command.Base

	CheckoutID uuid.UUID   `json:"checkout_id"`
	ProductIDs []uuid.UUID `json:"product_ids"`
}

// NewTakeProductSnapshots creates a TakeProductSnapshots command.
func NewTakeProductSnapshots(checkoutID uuid.UUID, productIDs []uuid.UUID) TakeProductSnapshots {
	return TakeProductSnapshots{
		Base:       command.NewBase(CommandNameTakeProductSnapshots, checkoutID.String()),
		CheckoutID: checkoutID,
		ProductIDs: productIDs,
	}
}

// CommandName returns the command's type tag.
func (TakeProductSnapshots) CommandName() string { return CommandNameTakeProductSnapshots }

// Destination returns the consuming bounded context.
func (TakeProductSnapshots) Destination() string { return Context }
