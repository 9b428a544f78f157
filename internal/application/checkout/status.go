package checkout

import (
	"context"
	"fmt"

	"github.com/lllypuk/orderflow/internal/application/appcore"
	"github.com/lllypuk/orderflow/internal/domain/checkout"
	"github.com/lllypuk/orderflow/internal/domain/uuid"
)

// StatusUseCase answers status queries by rehydrating the saga from its
// stream. Read-only; never appends.
type StatusUseCase struct {
	repo *appcore.Repository[*checkout.Checkout]
}

// NewStatusUseCase creates a StatusUseCase.
func NewStatusUseCase(repo *appcore.Repository[*checkout.Checkout]) *StatusUseCase {
	return &StatusUseCase{repo: repo}
}

// Execute returns the saga's current state. ErrAggregateNotFound is passed
// through for the transport layer to map.
func (uc *StatusUseCase) Execute(ctx context.Context, checkoutID string) (*checkout.State, error) {
	id, err := uuid.ParseUUID(checkoutID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid checkout ID %q", appcore.ErrAggregateNotFound, checkoutID)
	}

	saga, err := uc.repo.Load(ctx, id.String())
	if err != nil {
		return nil, err
	}

	state := saga.CurrentState()
	return &state, nil
}
