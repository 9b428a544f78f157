package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lllypuk/orderflow/internal/application/appcore"
	"github.com/lllypuk/orderflow/internal/domain/cart"
	"github.com/lllypuk/orderflow/internal/domain/catalog"
	"github.com/lllypuk/orderflow/internal/domain/checkout"
	"github.com/lllypuk/orderflow/internal/domain/inventory"
	"github.com/lllypuk/orderflow/internal/domain/order"
)

// AdvanceHandlerName is the dedup namespace of the saga's event handler.
const AdvanceHandlerName = "checkout.advance"

// AdvanceUseCase feeds one inbound context event into the saga. It is the
// only writer of the saga's stream; a concurrent writer that lost the
// optimistic-concurrency race gets ErrConcurrencyConflict, which the worker
// surfaces as a requeue. There is no in-process retry.
type AdvanceUseCase struct {
	repo        *appcore.Repository[*checkout.Checkout]
	idempotency appcore.IdempotencyStore
	enqueuer    appcore.CommandEnqueuer
	logger      *slog.Logger
}

// AdvanceOption configures an AdvanceUseCase.
type AdvanceOption func(*AdvanceUseCase)

// WithAdvanceLogger sets the use case logger.
func WithAdvanceLogger(logger *slog.Logger) AdvanceOption {
	return func(uc *AdvanceUseCase) {
		uc.logger = logger
	}
}

// NewAdvanceUseCase creates an AdvanceUseCase.
func NewAdvanceUseCase(
	repo *appcore.Repository[*checkout.Checkout],
	idempotency appcore.IdempotencyStore,
	enqueuer appcore.CommandEnqueuer,
	opts ...AdvanceOption,
) *AdvanceUseCase {
	uc := &AdvanceUseCase{
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

// Execute advances the saga with one inbound event. A nil return acks the
// message; an error return makes the worker requeue it.
func (uc *AdvanceUseCase) Execute(ctx context.Context, cmd *checkout.AdvanceCommand) error {
	processed, err := uc.idempotency.IsEventProcessed(ctx, cmd.EventID, AdvanceHandlerName)
	if err != nil {
		return fmt.Errorf("failed to check event dedup: %w", err)
	}
	if processed {
		uc.logger.DebugContext(ctx, "event already processed, skipping",
			slog.String("event_id", cmd.EventID),
			slog.String("event_type", cmd.EventType),
		)
		return nil
	}

	saga, err := uc.repo.Load(ctx, cmd.CheckoutID.String())
	if err != nil {
		if errors.Is(err, appcore.ErrAggregateNotFound) {
			// An event for a checkout that was never initiated here. Nothing
			// to advance; ack so the group does not loop on it.
			uc.logger.WarnContext(ctx, "event references unknown checkout",
				slog.String("checkout_id", cmd.CheckoutID.String()),
				slog.String("event_type", cmd.EventType),
			)
			return uc.markProcessed(ctx, cmd)
		}
		return fmt.Errorf("failed to load checkout %s: %w", cmd.CheckoutID, err)
	}

	if err := uc.advance(ctx, saga, cmd); err != nil {
		return err
	}

	return uc.markProcessed(ctx, cmd)
}

// advance applies the event according to the saga's workflow position. The
// state machine, not message arrival order, decides what is legal.
func (uc *AdvanceUseCase) advance(ctx context.Context, saga *checkout.Checkout, cmd *checkout.AdvanceCommand) error {
	if checkout.IsStepFailed(cmd.EventType) {
		return uc.applyStepFailure(ctx, saga, cmd)
	}

	transition, known := checkout.TransitionFor(cmd.EventType)
	if !known {
		uc.logger.WarnContext(ctx, "inbound event type has no workflow transition",
			slog.String("event_type", cmd.EventType),
			slog.String("checkout_id", saga.AggregateID()),
		)
		return nil
	}

	current := saga.Status()
	switch {
	case current == transition.From:
		return uc.applyAndContinue(ctx, saga, cmd)

	case current == transition.To:
		// Duplicate delivered after the append but possibly before the
		// follow-up command was enqueued. Re-derive and re-enqueue only.
		uc.logger.InfoContext(ctx, "duplicate event in target state, re-enqueueing next command",
			slog.String("checkout_id", saga.AggregateID()),
			slog.String("event_type", cmd.EventType),
		)
		return uc.enqueueNext(ctx, saga)

	case current.After(transition.To) || current.Terminal():
		uc.logger.DebugContext(ctx, "stale duplicate event, skipping",
			slog.String("checkout_id", saga.AggregateID()),
			slog.String("event_type", cmd.EventType),
			slog.String("status", string(current)),
		)
		return nil

	default:
		// Out-of-order arrival beyond what duplication explains. A logic or
		// ordering bug: logged and acked, never crashes the worker.
		uc.logger.ErrorContext(ctx, "illegal saga transition",
			slog.String("checkout_id", saga.AggregateID()),
			slog.String("event_type", cmd.EventType),
			slog.String("status", string(current)),
		)
		return nil
	}
}

func (uc *AdvanceUseCase) applyAndContinue(ctx context.Context, saga *checkout.Checkout, cmd *checkout.AdvanceCommand) error {
	if err := uc.applyInbound(saga, cmd); err != nil {
		var transitionErr *checkout.TransitionError
		if errors.As(err, &transitionErr) {
			uc.logger.ErrorContext(ctx, "illegal saga transition",
				slog.String("checkout_id", saga.AggregateID()),
				slog.String("event_type", cmd.EventType),
				slog.String("status", string(transitionErr.Current)),
			)
			return nil
		}
		return err
	}

	if err := uc.repo.Save(ctx, saga); err != nil {
		return fmt.Errorf("failed to save checkout %s: %w", saga.AggregateID(), err)
	}

	return uc.enqueueNext(ctx, saga)
}

func (uc *AdvanceUseCase) applyStepFailure(ctx context.Context, saga *checkout.Checkout, cmd *checkout.AdvanceCommand) error {
	if saga.Status().Terminal() {
		uc.logger.DebugContext(ctx, "step failure for terminal checkout, skipping",
			slog.String("checkout_id", saga.AggregateID()),
			slog.String("event_type", cmd.EventType),
		)
		return nil
	}

	var evt checkout.StepFailed
	if err := json.Unmarshal(cmd.Payload, &evt); err != nil {
		return fmt.Errorf("failed to decode step failure payload: %w", err)
	}

	if err := saga.Fail(evt.Stage, evt.Reason, cmd.EventID); err != nil {
		if errors.Is(err, checkout.ErrCheckoutTerminal) {
			return nil
		}
		return err
	}

	if err := uc.repo.Save(ctx, saga); err != nil {
		return fmt.Errorf("failed to save checkout %s: %w", saga.AggregateID(), err)
	}

	uc.logger.WarnContext(ctx, "checkout failed",
		slog.String("checkout_id", saga.AggregateID()),
		slog.String("stage", evt.Stage),
		slog.String("reason", evt.Reason),
	)
	return nil
}

// applyInbound decodes the payload through the closed inbound event set and
// invokes the matching saga operation.
func (uc *AdvanceUseCase) applyInbound(saga *checkout.Checkout, cmd *checkout.AdvanceCommand) error {
	causationID := cmd.EventID

	switch cmd.EventType {
	case cart.EventTypeSnapshotTaken:
		var evt cart.SnapshotTaken
		if err := json.Unmarshal(cmd.Payload, &evt); err != nil {
			return fmt.Errorf("failed to decode %s payload: %w", cmd.EventType, err)
		}
		return saga.ReceiveCartSnapshot(evt.Items, causationID)

	case catalog.EventTypeProductSnapshotsTaken:
		var evt catalog.ProductSnapshotsTaken
		if err := json.Unmarshal(cmd.Payload, &evt); err != nil {
			return fmt.Errorf("failed to decode %s payload: %w", cmd.EventType, err)
		}
		return saga.ReceiveProductSnapshots(evt.Products, causationID)

	case inventory.EventTypeStockValidationCompleted:
		var evt inventory.StockValidationCompleted
		if err := json.Unmarshal(cmd.Payload, &evt); err != nil {
			return fmt.Errorf("failed to decode %s payload: %w", cmd.EventType, err)
		}
		return saga.RecordStockValidation(evt.Results, evt.AllAvailable, causationID)

	case inventory.EventTypeStockDeducted:
		return saga.RecordStockDeduction(causationID)

	case order.EventTypePlaced:
		var evt order.Placed
		if err := json.Unmarshal(cmd.Payload, &evt); err != nil {
			return fmt.Errorf("failed to decode %s payload: %w", cmd.EventType, err)
		}
		return saga.RecordOrderCreated(evt.OrderNumber, causationID)

	case cart.EventTypeCleared:
		return saga.RecordCartCleared(causationID)

	case order.EventTypeFinalized:
		return saga.RecordOrderFinalized(causationID)

	default:
		return fmt.Errorf("no saga operation for event type %q", cmd.EventType)
	}
}

func (uc *AdvanceUseCase) enqueueNext(ctx context.Context, saga *checkout.Checkout) error {
	next, ok := saga.NextCommand()
	if !ok {
		return nil
	}
	if err := uc.enqueuer.Enqueue(ctx, next); err != nil {
		return fmt.Errorf("failed to enqueue %s: %w", next.CommandName(), err)
	}
	return nil
}

func (uc *AdvanceUseCase) markProcessed(ctx context.Context, cmd *checkout.AdvanceCommand) error {
	if err := uc.idempotency.MarkEventProcessed(ctx, cmd.EventID, AdvanceHandlerName); err != nil {
		// The advance itself went through; a redelivery will be caught again
		// by the state machine's duplicate handling.
		uc.logger.WarnContext(ctx, "failed to mark event processed",
			slog.String("event_id", cmd.EventID),
			slog.String("error", err.Error()),
		)
	}
	return nil
}
