// Package checkout contains the saga's use cases: initiating a checkout and
// advancing it with inbound context events.
package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/lllypuk/orderflow/internal/application/appcore"
	"github.com/lllypuk/orderflow/internal/domain/checkout"
	"github.com/lllypuk/orderflow/internal/domain/uuid"
)

// InitiateResult is the outcome returned to the initiating client. The same
// value is cached under the idempotency key and replayed on a retried request.
type InitiateResult struct {
	CheckoutID uuid.UUID       `json:"checkout_id"`
	OrderID    uuid.UUID       `json:"order_id"`
	Status     checkout.Status `json:"status"`
}

// InitiateUseCase starts a new checkout saga. A retried idempotency key
// returns the first attempt's result; no second saga is created.
type InitiateUseCase struct {
	repo        *appcore.Repository[*checkout.Checkout]
	idempotency appcore.IdempotencyStore
	enqueuer    appcore.CommandEnqueuer
	logger      *slog.Logger
}

// InitiateOption configures an InitiateUseCase.
type InitiateOption func(*InitiateUseCase)

// WithInitiateLogger sets the use case logger.
func WithInitiateLogger(logger *slog.Logger) InitiateOption {
	return func(uc *InitiateUseCase) {
		uc.logger = logger
	}
}

// NewInitiateUseCase creates an InitiateUseCase.
func NewInitiateUseCase(
	repo *appcore.Repository[*checkout.Checkout],
	idempotency appcore.IdempotencyStore,
	enqueuer appcore.CommandEnqueuer,
	opts ...InitiateOption,
) *InitiateUseCase {
	uc := &InitiateUseCase{
		repo:        repo,
		idempotency: idempotency,
		enqueuer:    enqueuer,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Execute starts a checkout for a cart.
func (uc *InitiateUseCase) Execute(ctx context.Context, cmd *checkout.InitiateCommand) (InitiateResult, error) {
	if cmd.IdempotencyKey == "" {
		return InitiateResult{}, fmt.Errorf("idempotency key is required")
	}

	record, err := uc.idempotency.CheckCommand(ctx, cmd.IdempotencyKey)
	if err != nil {
		return InitiateResult{}, fmt.Errorf("failed to check idempotency key: %w", err)
	}
	if record != nil {
		var cached InitiateResult
		if unmarshalErr := json.Unmarshal(record.Result, &cached); unmarshalErr != nil {
			return InitiateResult{}, fmt.Errorf("failed to decode cached result: %w", unmarshalErr)
		}
		uc.logger.InfoContext(ctx, "duplicate initiate request, returning cached result",
			slog.String("idempotency_key", cmd.IdempotencyKey),
			slog.String("checkout_id", cached.CheckoutID.String()),
		)
		return cached, nil
	}

	saga, err := checkout.Initiate(cmd.CartID, cmd.GuestToken, cmd.Customer, cmd.Shipping, cmd.CommandID())
	if err != nil {
		return InitiateResult{}, fmt.Errorf("failed to initiate checkout: %w", err)
	}

	if saveErr := uc.repo.Save(ctx, saga); saveErr != nil {
		return InitiateResult{}, fmt.Errorf("failed to save checkout stream: %w", saveErr)
	}

	// The stream is durable at this point. An enqueue failure leaves a saga
	// whose next command can be re-derived from saved state.
	next, ok := saga.NextCommand()
	if ok {
		if enqErr := uc.enqueuer.Enqueue(ctx, next); enqErr != nil {
			uc.logger.ErrorContext(ctx, "failed to enqueue first saga command",
				slog.String("checkout_id", saga.AggregateID()),
				slog.String("command_name", next.CommandName()),
				slog.String("error", enqErr.Error()),
			)
			return InitiateResult{}, enqErr
		}
	}

	result := InitiateResult{
		CheckoutID: saga.CheckoutID(),
		OrderID:    saga.OrderID(),
		Status:     saga.Status(),
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return InitiateResult{}, fmt.Errorf("failed to serialize initiate result: %w", err)
	}
	if markErr := uc.idempotency.MarkCommandProcessed(ctx, cmd.IdempotencyKey, saga.AggregateID(), payload); markErr != nil {
		// The saga exists and its first command is on the queue. A failed mark
		// means a retried key may start a second checkout for the same cart.
		uc.logger.ErrorContext(ctx, "failed to mark initiate command processed",
			slog.String("idempotency_key", cmd.IdempotencyKey),
			slog.String("checkout_id", saga.AggregateID()),
			slog.String("error", markErr.Error()),
		)
	}

	uc.logger.InfoContext(ctx, "checkout initiated",
		slog.String("checkout_id", saga.AggregateID()),
		slog.String("cart_id", cmd.CartID.String()),
		slog.String("order_id", saga.OrderID().String()),
	)

	return result, nil
}
