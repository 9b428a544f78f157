package order

import (
	"github.com/lllypuk/orderflow/internal/domain/cart"
	"github.com/lllypuk/orderflow/internal/domain/catalog"
	"github.com/lllypuk/orderflow/internal/domain/command"
	"github.com/lllypuk/orderflow/internal/domain/uuid"
)

// Command names of the order context.
const (
	CommandNamePlace    = "order.place"
	CommandNameFinalize = "order.finalize"
)

// Place asks the order context to create the order for a checkout. Prices
// come from the saga's product snapshots, not from live catalog state.
type Place struct {
	command.Base

	CheckoutID uuid.UUID                 `json:"checkout_id"`
	OrderID    uuid.UUID                 `json:"order_id"`
	Customer   CustomerInfo              `json:"customer"`
	Shipping   ShippingAddress           `json:"shipping"`
	Items      []cart.Item               `json:"items"`
	Products   []catalog.ProductSnapshot `json:"products"`
}

// NewPlace creates a Place command.
func NewPlace(
	checkoutID, orderID uuid.UUID,
	customer CustomerInfo,
	shipping ShippingAddress,
	items []cart.Item,
	products []catalog.ProductSnapshot,
) Place {
	return Place{
		Base:       command.NewBase(CommandNamePlace, checkoutID.String()),
		CheckoutID: checkoutID,
		OrderID:    orderID,
		Customer:   customer,
		Shipping:   shipping,
		Items:      items,
		Products:   products,
	}
}

// CommandName returns the command's type tag.
func (Place) CommandName() string { return CommandNamePlace }

// Destination returns the consuming bounded context.
func (Place) Destination() string { return Context }

// Finalize asks the order context to finalize an order after the cart was
// cleared.
type Finalize struct {
	command.Base

	CheckoutID uuid.UUID `json:"checkout_id"`
	OrderID    uuid.UUID `json:"order_id"`
}

// NewFinalize creates a Finalize command.
func NewFinalize(checkoutID, orderID uuid.UUID) Finalize {
	return Finalize{
		Base:       command.NewBase(CommandNameFinalize, checkoutID.String()),
		CheckoutID: checkoutID,
		OrderID:    orderID,
	}
}

// CommandName returns the command's type tag.
func (Finalize) CommandName() string { return CommandNameFinalize }

// Destination returns the consuming bounded context.
func (Finalize) Destination() string { return Context }
