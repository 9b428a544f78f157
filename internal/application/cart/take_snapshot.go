// Package cart contains the cart context's command handlers.
package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lllypuk/orderflow/internal/application/appcore"
	"github.com/lllypuk/orderflow/internal/domain/cart"
	"github.com/lllypuk/orderflow/internal/domain/checkout"
	"github.com/lllypuk/orderflow/internal/domain/errs"
	"github.com/lllypuk/orderflow/internal/domain/event"
)

// TakeSnapshotHandlerName is the dedup namespace of the snapshot handler.
const TakeSnapshotHandlerName = "cart.take_snapshot"

// TakeSnapshotHandler captures a cart's items for a checkout. A missing or
// empty cart is a business-rule violation reported as a step failure, not a
// handler error.
type TakeSnapshotHandler struct {
	carts       cart.Repository
	publisher   event.Publisher
	idempotency appcore.IdempotencyStore
	logger      *slog.Logger
}

// NewTakeSnapshotHandler creates a TakeSnapshotHandler.
func NewTakeSnapshotHandler(
	carts cart.Repository,
	publisher event.Publisher,
	idempotency appcore.IdempotencyStore,
	logger *slog.Logger,
) *TakeSnapshotHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TakeSnapshotHandler{
		carts:       carts,
		publisher:   publisher,
		idempotency: idempotency,
		logger:      logger,
	}
}

// Execute handles a TakeSnapshot command.
func (h *TakeSnapshotHandler) Execute(ctx context.Context, cmd *cart.TakeSnapshot) error {
	processed, err := h.idempotency.IsEventProcessed(ctx, cmd.CommandID(), TakeSnapshotHandlerName)
	if err != nil {
		return fmt.Errorf("failed to check command dedup: %w", err)
	}
	if processed {
		return nil
	}

	meta := event.NewMetadata(cmd.CorrelationID(), cmd.CommandID())

	loaded, err := h.carts.ByID(ctx, cmd.CartID)
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return h.fail(ctx, cmd, "cart not found", meta)
	case err != nil:
		return fmt.Errorf("failed to load cart %s: %w", cmd.CartID, err)
	case loaded.IsEmpty():
		return h.fail(ctx, cmd, "cart is empty", meta)
	}

	evt := cart.NewSnapshotTaken(cmd.CheckoutID, cmd.CartID, loaded.Items, meta)
	if pubErr := h.publisher.Publish(ctx, evt); pubErr != nil {
		return fmt.Errorf("failed to publish cart snapshot: %w", pubErr)
	}

	h.logger.InfoContext(ctx, "cart snapshot taken",
		slog.String("checkout_id", cmd.CheckoutID.String()),
		slog.String("cart_id", cmd.CartID.String()),
		slog.Int("items", len(loaded.Items)),
	)

	return h.markProcessed(ctx, cmd.CommandID())
}

func (h *TakeSnapshotHandler) fail(ctx context.Context, cmd *cart.TakeSnapshot, reason string, meta event.Metadata) error {
	evt := checkout.NewStepFailed(cart.Context, cmd.CheckoutID, checkout.StageCartSnapshot, reason, meta)
	if err := h.publisher.Publish(ctx, evt); err != nil {
		return fmt.Errorf("failed to publish step failure: %w", err)
	}
	h.logger.WarnContext(ctx, "cart snapshot step failed",
		slog.String("checkout_id", cmd.CheckoutID.String()),
		slog.String("cart_id", cmd.CartID.String()),
		slog.String("reason", reason),
	)
	return h.markProcessed(ctx, cmd.CommandID())
}

func (h *TakeSnapshotHandler) markProcessed(ctx context.Context, commandID string) error {
	if err := h.idempotency.MarkEventProcessed(ctx, commandID, TakeSnapshotHandlerName); err != nil {
		h.logger.WarnContext(ctx, "failed to mark command processed",
			slog.String("command_id", commandID),
			slog.String("error", err.Error()),
		)
	}
	return nil
}
