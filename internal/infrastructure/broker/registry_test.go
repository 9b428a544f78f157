package broker_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lllypuk/orderflow/internal/domain/cart"
	"github.com/lllypuk/orderflow/internal/domain/checkout"
	"github.com/lllypuk/orderflow/internal/domain/command"
	"github.com/lllypuk/orderflow/internal/domain/inventory"
	"github.com/lllypuk/orderflow/internal/domain/uuid"
	"github.com/lllypuk/orderflow/internal/infrastructure/broker"
)

func TestCommandEnvelope_DecodeRoundTrip(t *testing.T) {
	registry := broker.NewDefaultRegistry()

	checkoutID := uuid.NewUUID()
	cartID := uuid.NewUUID()
	original := cart.NewTakeSnapshot(checkoutID, cartID, "guest-1")

	envelope, err := broker.NewCommandEnvelope(original)
	require.NoError(t, err)

	assert.Equal(t, original.CommandID(), envelope.CommandID)
	assert.Equal(t, cart.CommandNameTakeSnapshot, envelope.CommandName)
	assert.Equal(t, checkoutID.String(), envelope.CorrelationID)
	assert.False(t, envelope.EnqueuedAt.IsZero())

	decoded, err := registry.Decode(envelope)
	require.NoError(t, err)

	typed, ok := decoded.(*cart.TakeSnapshot)
	require.True(t, ok, "decode must return the concrete command type")
	assert.Equal(t, checkoutID, typed.CheckoutID)
	assert.Equal(t, cartID, typed.CartID)
	assert.Equal(t, "guest-1", typed.GuestToken)
	assert.Equal(t, original.CommandID(), typed.CommandID())
}

func TestRegistry_UnknownCommand(t *testing.T) {
	registry := broker.NewDefaultRegistry()

	_, err := registry.Decode(&broker.CommandEnvelope{
		CommandName: "cart.no_such_command",
		Payload:     []byte(`{}`),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command name")
}

func TestRegistry_DuplicateRegistration(t *testing.T) {
	registry := broker.NewCommandRegistry()
	factory := func() command.Command { return &cart.Clear{} }

	require.NoError(t, registry.Register(cart.CommandNameClear, factory))

	err := registry.Register(cart.CommandNameClear, factory)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestDefaultRegistry_CoversWorkflowCommands(t *testing.T) {
	registry := broker.NewDefaultRegistry()

	for _, name := range []string{
		checkout.CommandNameInitiate,
		checkout.CommandNameAdvance,
		cart.CommandNameTakeSnapshot,
		cart.CommandNameClear,
		inventory.CommandNameValidateStock,
		inventory.CommandNameDeductStock,
	} {
		assert.True(t, registry.Known(name), name)
	}
}

func TestNaming(t *testing.T) {
	assert.Equal(t, "inventory.commands", broker.QueueName(inventory.Context))
	assert.Equal(t, "checkout.events", broker.TopicName(checkout.Context))
}
