package checkout

import (
	"encoding/json"

	"github.com/lllypuk/orderflow/internal/domain/command"
	"github.com/lllypuk/orderflow/internal/domain/order"
	"github.com/lllypuk/orderflow/internal/domain/uuid"
)

// Command names of the checkout context.
const (
	CommandNameInitiate = "checkout.initiate"
	CommandNameAdvance  = "checkout.advance"
)

// InitiateCommand starts a checkout for a cart. The idempotency key is
// client-supplied; a retried key returns the first attempt's result instead
// of starting a second checkout.
type InitiateCommand struct {
	command.Base

	IdempotencyKey string                `json:"idempotency_key"`
	CartID         uuid.UUID             `json:"cart_id"`
	GuestToken     string                `json:"guest_token,omitempty"`
	Customer       order.CustomerInfo    `json:"customer"`
	Shipping       order.ShippingAddress `json:"shipping"`
}

// NewInitiateCommand creates an InitiateCommand. The idempotency key doubles
// as the correlation until the checkout ID exists.
func NewInitiateCommand(
	idempotencyKey string,
	cartID uuid.UUID,
	guestToken string,
	customer order.CustomerInfo,
	shipping order.ShippingAddress,
) InitiateCommand {
	return InitiateCommand{
		Base:           command.NewBase(CommandNameInitiate, idempotencyKey),
		IdempotencyKey: idempotencyKey,
		CartID:         cartID,
		GuestToken:     guestToken,
		Customer:       customer,
		Shipping:       shipping,
	}
}

// CommandName returns the command's type tag.
func (InitiateCommand) CommandName() string { return CommandNameInitiate }

// Destination returns the consuming bounded context.
func (InitiateCommand) Destination() string { return Context }

// AdvanceCommand feeds one inbound context event into the saga. It is built
// by the saga worker from the event envelope; the payload stays raw until the
// handler decodes it through the closed inbound event set.
type AdvanceCommand struct {
	command.Base

	CheckoutID uuid.UUID       `json:"checkout_id"`
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	Payload    json.RawMessage `json:"payload"`
}

// NewAdvanceCommand creates an AdvanceCommand for an inbound event. The
// command ID is derived from the event ID, so a redelivered event produces
// the same logical command.
func NewAdvanceCommand(checkoutID uuid.UUID, eventID, eventType string, payload json.RawMessage) AdvanceCommand {
	return AdvanceCommand{
		Base: command.Base{
			ID:          CommandNameAdvance + ":" + eventID,
			Correlation: checkoutID.String(),
		},
		CheckoutID: checkoutID,
		EventID:    eventID,
		EventType:  eventType,
		Payload:    payload,
	}
}

// CommandName returns the command's type tag.
func (AdvanceCommand) CommandName() string { return CommandNameAdvance }

// Destination returns the consuming bounded context.
func (AdvanceCommand) Destination() string { return Context }
