package appcore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lllypuk/orderflow/internal/application/appcore"
	"github.com/lllypuk/orderflow/internal/domain/cart"
	"github.com/lllypuk/orderflow/internal/domain/uuid"
)

func TestRouter_DispatchesToRegisteredHandler(t *testing.T) {
	router := appcore.NewRouter()

	var received *cart.TakeSnapshot
	handler := appcore.NewHandler(func(_ context.Context, cmd *cart.TakeSnapshot) (any, error) {
		received = cmd
		return "done", nil
	})
	require.NoError(t, router.Register(cart.CommandNameTakeSnapshot, handler))

	cmd := cart.NewTakeSnapshot(uuid.NewUUID(), uuid.NewUUID(), "guest")
	result, err := router.Dispatch(context.Background(), &cmd)

	require.NoError(t, err)
	assert.Equal(t, "done", result)
	require.NotNil(t, received)
	assert.Equal(t, cmd.CartID, received.CartID)
}

func TestRouter_UnknownCommand(t *testing.T) {
	router := appcore.NewRouter()

	cmd := cart.NewClear(uuid.NewUUID(), uuid.NewUUID())
	_, err := router.Dispatch(context.Background(), &cmd)

	require.ErrorIs(t, err, appcore.ErrHandlerNotFound)
}

func TestRouter_DuplicateRegistration(t *testing.T) {
	router := appcore.NewRouter()
	handler := func(_ context.Context, _ appcore.Command) (any, error) { return nil, nil }

	require.NoError(t, router.Register(cart.CommandNameClear, handler))
	require.Error(t, router.Register(cart.CommandNameClear, handler))
}

func TestRouter_Handles(t *testing.T) {
	router := appcore.NewRouter()
	handler := func(_ context.Context, _ appcore.Command) (any, error) { return nil, nil }
	require.NoError(t, router.Register(cart.CommandNameClear, handler))

	assert.True(t, router.Handles(cart.CommandNameClear))
	assert.False(t, router.Handles(cart.CommandNameTakeSnapshot))
}

func TestNewHandler_RejectsWrongCommandType(t *testing.T) {
	handler := appcore.NewHandler(func(_ context.Context, _ *cart.TakeSnapshot) (any, error) {
		return nil, nil
	})

	cmd := cart.NewClear(uuid.NewUUID(), uuid.NewUUID())
	_, err := handler(context.Background(), &cmd)

	require.Error(t, err)
}
