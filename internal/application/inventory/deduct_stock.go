package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lllypuk/orderflow/internal/application/appcore"
	"github.com/lllypuk/orderflow/internal/domain/checkout"
	"github.com/lllypuk/orderflow/internal/domain/errs"
	"github.com/lllypuk/orderflow/internal/domain/event"
	"github.com/lllypuk/orderflow/internal/domain/inventory"
)

// DeductStockHandlerName is the dedup namespace of the deduction handler.
const DeductStockHandlerName = "inventory.deduct_stock"

// DeductStockHandler decrements stock for a checkout. The repository's
// deduction is guarded and all-or-nothing; a shortfall between validation
// and deduction surfaces here as a step failure.
type DeductStockHandler struct {
	stock       inventory.Repository
	publisher   event.Publisher
	idempotency appcore.IdempotencyStore
	logger      *slog.Logger
}

// NewDeductStockHandler creates a DeductStockHandler.
func NewDeductStockHandler(
	stock inventory.Repository,
	publisher event.Publisher,
	idempotency appcore.IdempotencyStore,
	logger *slog.Logger,
) *DeductStockHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DeductStockHandler{
		stock:       stock,
		publisher:   publisher,
		idempotency: idempotency,
		logger:      logger,
	}
}

// Execute handles a DeductStock command.
func (h *DeductStockHandler) Execute(ctx context.Context, cmd *inventory.DeductStock) error {
	processed, err := h.idempotency.IsEventProcessed(ctx, cmd.CommandID(), DeductStockHandlerName)
	if err != nil {
		return fmt.Errorf("failed to check command dedup: %w", err)
	}
	if processed {
		return nil
	}

	meta := event.NewMetadata(cmd.CorrelationID(), cmd.CommandID())

	if deductErr := h.stock.Deduct(ctx, cmd.Lines); deductErr != nil {
		if errors.Is(deductErr, errs.ErrInsufficientStock) {
			evt := checkout.NewStepFailed(
				inventory.Context,
				cmd.CheckoutID,
				checkout.StageStockDeduction,
				checkout.FailureReasonInsufficientStock,
				meta,
			)
			if pubErr := h.publisher.Publish(ctx, evt); pubErr != nil {
				return fmt.Errorf("failed to publish step failure: %w", pubErr)
			}
			h.logger.WarnContext(ctx, "stock deduction step failed",
				slog.String("checkout_id", cmd.CheckoutID.String()),
			)
			return h.markProcessed(ctx, cmd.CommandID())
		}
		return fmt.Errorf("failed to deduct stock: %w", deductErr)
	}

	evt := inventory.NewStockDeducted(cmd.CheckoutID, cmd.Lines, meta)
	if pubErr := h.publisher.Publish(ctx, evt); pubErr != nil {
		return fmt.Errorf("failed to publish stock deducted: %w", pubErr)
	}

	h.logger.InfoContext(ctx, "stock deducted",
		slog.String("checkout_id", cmd.CheckoutID.String()),
		slog.Int("lines", len(cmd.Lines)),
	)

	return h.markProcessed(ctx, cmd.CommandID())
}

func (h *DeductStockHandler) markProcessed(ctx context.Context, commandID string) error {
	if err := h.idempotency.MarkEventProcessed(ctx, commandID, DeductStockHandlerName); err != nil {
		h.logger.WarnContext(ctx, "failed to mark command processed",
			slog.String("command_id", commandID),
			slog.String("error", err.Error()),
		)
	}
	return nil
}
