package appcore_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lllypuk/orderflow/internal/application/appcore"
	"github.com/lllypuk/orderflow/internal/domain/cart"
	"github.com/lllypuk/orderflow/internal/domain/catalog"
	"github.com/lllypuk/orderflow/internal/domain/checkout"
	"github.com/lllypuk/orderflow/internal/domain/inventory"
	"github.com/lllypuk/orderflow/internal/domain/order"
	"github.com/lllypuk/orderflow/internal/domain/uuid"
	"github.com/lllypuk/orderflow/internal/infrastructure/eventstore"
	"github.com/lllypuk/orderflow/internal/infrastructure/snapshot"
)

type fixtures struct {
	store     *eventstore.InMemoryEventStore
	snapshots *snapshot.InMemorySnapshotStore
	repo      *appcore.Repository[*checkout.Checkout]
}

func newFixtures() *fixtures {
	store := eventstore.NewInMemoryEventStore()
	snapshots := snapshot.NewInMemorySnapshotStore()
	return &fixtures{
		store:     store,
		snapshots: snapshots,
		repo:      appcore.NewRepository(store, snapshots, checkout.New),
	}
}

// runToCompletion drives a saga through the whole happy path with one save
// per transition, the way the advance use case does.
func runToCompletion(t *testing.T, f *fixtures) *checkout.Checkout {
	t.Helper()
	ctx := context.Background()

	productID := uuid.NewUUID()
	items := []cart.Item{{
		ProductID:   productID,
		ProductName: "Ceramic Mug",
		Quantity:    2,
		UnitPrice:   decimal.RequireFromString("19.99"),
	}}
	snapshots := []catalog.ProductSnapshot{{
		ProductID: productID, Name: "Ceramic Mug", SKU: "MUG-1",
		Price: decimal.RequireFromString("19.99"), Active: true,
	}}
	results := []inventory.ValidationResult{{ProductID: productID, Requested: 2, Available: 10}}

	saga, err := checkout.Initiate(uuid.NewUUID(), "", order.CustomerInfo{
		Name: "Jordan Miles", Email: "jordan@example.com",
	}, order.ShippingAddress{Line1: "1 Harbor Way", City: "Rotterdam", Country: "NL"}, "cmd-1")
	require.NoError(t, err)
	require.NoError(t, f.repo.Save(ctx, saga))

	steps := []func(*checkout.Checkout) error{
		func(c *checkout.Checkout) error { return c.ReceiveCartSnapshot(items, "e1") },
		func(c *checkout.Checkout) error { return c.ReceiveProductSnapshots(snapshots, "e2") },
		func(c *checkout.Checkout) error { return c.RecordStockValidation(results, true, "e3") },
		func(c *checkout.Checkout) error { return c.RecordStockDeduction("e4") },
		func(c *checkout.Checkout) error { return c.RecordOrderCreated("ORD-2026-AB12CD34", "e5") },
		func(c *checkout.Checkout) error { return c.RecordCartCleared("e6") },
		func(c *checkout.Checkout) error { return c.RecordOrderFinalized("e7") },
	}
	for _, step := range steps {
		loaded, loadErr := f.repo.Load(ctx, saga.AggregateID())
		require.NoError(t, loadErr)
		require.NoError(t, step(loaded))
		require.NoError(t, f.repo.Save(ctx, loaded))
	}

	return saga
}

func TestRepository_SnapshotCadenceAndTailReplay(t *testing.T) {
	f := newFixtures()
	saga := runToCompletion(t, f)

	// The happy path appends nine events; the snapshot is taken when the
	// stream crosses a multiple of five.
	assert.Equal(t, 5, f.snapshots.Versions()[saga.AggregateID()])

	loaded, err := f.repo.Load(context.Background(), saga.AggregateID())
	require.NoError(t, err)
	assert.Equal(t, 9, loaded.Version())
	assert.Equal(t, checkout.StatusCompleted, loaded.Status())
	assert.Equal(t, "ORD-2026-AB12CD34", loaded.OrderNumber())
	require.NotNil(t, loaded.CompletedAt())
}

func TestRepository_SnapshotAndFullReplayAgree(t *testing.T) {
	f := newFixtures()
	saga := runToCompletion(t, f)
	ctx := context.Background()

	viaSnapshot, err := f.repo.Load(ctx, saga.AggregateID())
	require.NoError(t, err)

	// A repository without the snapshot store's state replays everything.
	bare := appcore.NewRepository(f.store, snapshot.NewInMemorySnapshotStore(), checkout.New)
	viaReplay, err := bare.Load(ctx, saga.AggregateID())
	require.NoError(t, err)

	assert.Equal(t, viaReplay.CurrentState(), viaSnapshot.CurrentState())
	assert.Equal(t, viaReplay.Version(), viaSnapshot.Version())
}

func TestRepository_ConcurrentSaveConflict(t *testing.T) {
	f := newFixtures()
	ctx := context.Background()

	saga, err := checkout.Initiate(uuid.NewUUID(), "", order.CustomerInfo{
		Name: "Jordan Miles", Email: "jordan@example.com",
	}, order.ShippingAddress{Line1: "1 Harbor Way", City: "Rotterdam", Country: "NL"}, "cmd-1")
	require.NoError(t, err)
	require.NoError(t, f.repo.Save(ctx, saga))

	items := []cart.Item{{ProductID: uuid.NewUUID(), ProductName: "Mug", Quantity: 1}}

	first, err := f.repo.Load(ctx, saga.AggregateID())
	require.NoError(t, err)
	second, err := f.repo.Load(ctx, saga.AggregateID())
	require.NoError(t, err)

	require.NoError(t, first.ReceiveCartSnapshot(items, "e1"))
	require.NoError(t, f.repo.Save(ctx, first))

	require.NoError(t, second.ReceiveCartSnapshot(items, "e1-race"))
	err = f.repo.Save(ctx, second)

	require.ErrorIs(t, err, appcore.ErrConcurrencyConflict)

	// The loser's append left no partial state.
	reloaded, err := f.repo.Load(ctx, saga.AggregateID())
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.Version())
}

func TestRepository_SaveWithoutEventsIsNoop(t *testing.T) {
	f := newFixtures()
	ctx := context.Background()

	saga := runToCompletion(t, f)
	loaded, err := f.repo.Load(ctx, saga.AggregateID())
	require.NoError(t, err)

	require.NoError(t, f.repo.Save(ctx, loaded))
	assert.Equal(t, 9, loaded.Version())
}

func TestRepository_LoadUnknownAggregate(t *testing.T) {
	f := newFixtures()

	_, err := f.repo.Load(context.Background(), uuid.NewUUID().String())

	require.ErrorIs(t, err, appcore.ErrAggregateNotFound)
}
