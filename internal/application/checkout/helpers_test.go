package checkout_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lllypuk/orderflow/internal/application/appcore"
	appcheckout "github.com/lllypuk/orderflow/internal/application/checkout"
	"github.com/lllypuk/orderflow/internal/domain/checkout"
	"github.com/lllypuk/orderflow/internal/domain/event"
	"github.com/lllypuk/orderflow/internal/domain/uuid"
	"github.com/lllypuk/orderflow/internal/infrastructure/broker"
	"github.com/lllypuk/orderflow/internal/infrastructure/eventstore"
	"github.com/lllypuk/orderflow/internal/infrastructure/idempotency"
	"github.com/lllypuk/orderflow/internal/infrastructure/snapshot"
)

type repoAlias = appcore.Repository[*checkout.Checkout]

func newCheckoutRepo() *repoAlias {
	return appcore.NewRepository(
		eventstore.NewInMemoryEventStore(),
		snapshot.NewInMemorySnapshotStore(),
		checkout.New,
	)
}

func newTestEnvWithStores(t *testing.T, repo *repoAlias) *testEnv {
	t.Helper()

	enqueuer := broker.NewInMemoryEnqueuer()
	idem := idempotency.NewInMemoryStore()

	return &testEnv{
		repo:     repo,
		enqueuer: enqueuer,
		idem:     idem,
		initiate: appcheckout.NewInitiateUseCase(repo, idem, enqueuer),
		advance:  appcheckout.NewAdvanceUseCase(repo, idem, enqueuer),
		status:   appcheckout.NewStatusUseCase(repo),
	}
}

// advanceWith wraps a domain event into the command the saga worker would
// build from its envelope.
func advanceWith(t *testing.T, checkoutID string, evt event.DomainEvent) *checkout.AdvanceCommand {
	t.Helper()

	payload, err := json.Marshal(evt)
	require.NoError(t, err)

	cmd := checkout.NewAdvanceCommand(
		uuid.MustParseUUID(checkoutID), evt.EventID(), evt.EventType(), payload)
	return &cmd
}
