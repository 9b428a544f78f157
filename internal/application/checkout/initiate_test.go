package checkout_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appcheckout "github.com/lllypuk/orderflow/internal/application/checkout"
	"github.com/lllypuk/orderflow/internal/domain/cart"
	"github.com/lllypuk/orderflow/internal/domain/checkout"
	"github.com/lllypuk/orderflow/internal/domain/order"
	"github.com/lllypuk/orderflow/internal/domain/uuid"
	"github.com/lllypuk/orderflow/internal/infrastructure/broker"
	"github.com/lllypuk/orderflow/internal/infrastructure/idempotency"
)

func testCustomer() order.CustomerInfo {
	return order.CustomerInfo{Name: "Jordan Miles", Email: "jordan@example.com"}
}

func testShipping() order.ShippingAddress {
	return order.ShippingAddress{
		Line1:      "1 Harbor Way",
		City:       "Rotterdam",
		PostalCode: "3011",
		Country:    "NL",
	}
}

func testItems() []cart.Item {
	return []cart.Item{
		{
			ProductID:   uuid.NewUUID(),
			ProductName: "Ceramic Mug",
			Quantity:    2,
			UnitPrice:   decimal.RequireFromString("19.99"),
		},
	}
}

func TestInitiateUseCase_CreatesSagaAndEnqueuesFirstCommand(t *testing.T) {
	env := newTestEnv(t)

	cmd := checkout.NewInitiateCommand("key-1", uuid.NewUUID(), "guest-token", testCustomer(), testShipping())

	result, err := env.initiate.Execute(context.Background(), &cmd)
	require.NoError(t, err)

	assert.False(t, result.CheckoutID.IsZero())
	assert.False(t, result.OrderID.IsZero())
	assert.Equal(t, checkout.StatusInitiated, result.Status)

	require.Len(t, env.enqueuer.Commands(), 1)
	assert.Equal(t, cart.CommandNameTakeSnapshot, env.enqueuer.Last().CommandName())

	saga, err := env.repo.Load(context.Background(), result.CheckoutID.String())
	require.NoError(t, err)
	assert.Equal(t, checkout.StatusInitiated, saga.Status())
	assert.Equal(t, 1, saga.Version())
}

func TestInitiateUseCase_DuplicateKeyReturnsCachedResult(t *testing.T) {
	env := newTestEnv(t)

	cmd := checkout.NewInitiateCommand("key-dup", uuid.NewUUID(), "", testCustomer(), testShipping())

	first, err := env.initiate.Execute(context.Background(), &cmd)
	require.NoError(t, err)

	second, err := env.initiate.Execute(context.Background(), &cmd)
	require.NoError(t, err)

	// Same result, no second saga, no second command.
	assert.Equal(t, first, second)
	assert.Len(t, env.enqueuer.Commands(), 1)

	record, err := env.idem.CheckCommand(context.Background(), "key-dup")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, first.CheckoutID.String(), record.AggregateID)

	var cached appcheckout.InitiateResult
	require.NoError(t, json.Unmarshal(record.Result, &cached))
	assert.Equal(t, first, cached)
}

func TestInitiateUseCase_RejectsInvalidCommand(t *testing.T) {
	env := newTestEnv(t)

	cmd := checkout.NewInitiateCommand("key-2", "", "", testCustomer(), testShipping())

	_, err := env.initiate.Execute(context.Background(), &cmd)

	require.Error(t, err)
	assert.Empty(t, env.enqueuer.Commands())
}

func TestInitiateUseCase_RequiresIdempotencyKey(t *testing.T) {
	env := newTestEnv(t)

	cmd := checkout.NewInitiateCommand("", uuid.NewUUID(), "", testCustomer(), testShipping())

	_, err := env.initiate.Execute(context.Background(), &cmd)

	require.Error(t, err)
}

type testEnv struct {
	repo     *repoAlias
	initiate *appcheckout.InitiateUseCase
	advance  *appcheckout.AdvanceUseCase
	status   *appcheckout.StatusUseCase
	enqueuer *broker.InMemoryEnqueuer
	idem     *idempotency.InMemoryStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithStores(t, newCheckoutRepo())
}
