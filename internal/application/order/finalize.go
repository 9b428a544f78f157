package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lllypuk/orderflow/internal/application/appcore"
	"github.com/lllypuk/orderflow/internal/domain/checkout"
	"github.com/lllypuk/orderflow/internal/domain/errs"
	"github.com/lllypuk/orderflow/internal/domain/event"
	"github.com/lllypuk/orderflow/internal/domain/order"
)

// FinalizeHandlerName is the dedup namespace of the finalize handler.
const FinalizeHandlerName = "order.finalize"

// FinalizeHandler marks an order finalized after the cart was cleared. An
// already-finalized order still confirms; only a missing order is a failure.
type FinalizeHandler struct {
	orders      order.Repository
	publisher   event.Publisher
	idempotency appcore.IdempotencyStore
	logger      *slog.Logger
}

// NewFinalizeHandler creates a FinalizeHandler.
func NewFinalizeHandler(
	orders order.Repository,
	publisher event.Publisher,
	idempotency appcore.IdempotencyStore,
	logger *slog.Logger,
) *FinalizeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &FinalizeHandler{
		orders:      orders,
		publisher:   publisher,
		idempotency: idempotency,
		logger:      logger,
	}
}

// Execute handles a Finalize command.
func (h *FinalizeHandler) Execute(ctx context.Context, cmd *order.Finalize) error {
	processed, err := h.idempotency.IsEventProcessed(ctx, cmd.CommandID(), FinalizeHandlerName)
	if err != nil {
		return fmt.Errorf("failed to check command dedup: %w", err)
	}
	if processed {
		return nil
	}

	meta := event.NewMetadata(cmd.CorrelationID(), cmd.CommandID())

	existing, err := h.orders.ByID(ctx, cmd.OrderID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			evt := checkout.NewStepFailed(
				order.Context, cmd.CheckoutID, checkout.StageOrderFinalize, "order not found", meta)
			if pubErr := h.publisher.Publish(ctx, evt); pubErr != nil {
				return fmt.Errorf("failed to publish step failure: %w", pubErr)
			}
			return h.markProcessed(ctx, cmd.CommandID())
		}
		return fmt.Errorf("failed to load order %s: %w", cmd.OrderID, err)
	}

	if existing.Status != order.StatusFinalized {
		existing.Finalize()
		if updateErr := h.orders.Update(ctx, existing); updateErr != nil {
			return fmt.Errorf("failed to update order %s: %w", cmd.OrderID, updateErr)
		}
	}

	evt := order.NewFinalized(cmd.CheckoutID, cmd.OrderID, meta)
	if pubErr := h.publisher.Publish(ctx, evt); pubErr != nil {
		return fmt.Errorf("failed to publish order finalized: %w", pubErr)
	}

	h.logger.InfoContext(ctx, "order finalized",
		slog.String("checkout_id", cmd.CheckoutID.String()),
		slog.String("order_id", cmd.OrderID.String()),
	)

	return h.markProcessed(ctx, cmd.CommandID())
}

func (h *FinalizeHandler) markProcessed(ctx context.Context, commandID string) error {
	if err := h.idempotency.MarkEventProcessed(ctx, commandID, FinalizeHandlerName); err != nil {
		h.logger.WarnContext(ctx, "failed to mark command processed",
			slog.String("command_id", commandID),
			slog.String("error", err.Error()),
		)
	}
	return nil
}
