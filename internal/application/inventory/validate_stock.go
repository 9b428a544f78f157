// Package inventory contains the inventory context's command handlers.
package inventory

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lllypuk/orderflow/internal/application/appcore"
	"github.com/lllypuk/orderflow/internal/domain/event"
	"github.com/lllypuk/orderflow/internal/domain/inventory"
	"github.com/lllypuk/orderflow/internal/domain/uuid"
)

// ValidateStockHandlerName is the dedup namespace of the validation handler.
const ValidateStockHandlerName = "inventory.validate_stock"

// ValidateStockHandler checks availability for a checkout's lines.
// Unavailability is data in the completion event, never a handler error: the
// saga decides what an unavailable batch means.
type ValidateStockHandler struct {
	stock       inventory.Repository
	publisher   event.Publisher
	idempotency appcore.IdempotencyStore
	logger      *slog.Logger
}

// NewValidateStockHandler creates a ValidateStockHandler.
func NewValidateStockHandler(
	stock inventory.Repository,
	publisher event.Publisher,
	idempotency appcore.IdempotencyStore,
	logger *slog.Logger,
) *ValidateStockHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ValidateStockHandler{
		stock:       stock,
		publisher:   publisher,
		idempotency: idempotency,
		logger:      logger,
	}
}

// Execute handles a ValidateStock command.
func (h *ValidateStockHandler) Execute(ctx context.Context, cmd *inventory.ValidateStock) error {
	processed, err := h.idempotency.IsEventProcessed(ctx, cmd.CommandID(), ValidateStockHandlerName)
	if err != nil {
		return fmt.Errorf("failed to check command dedup: %w", err)
	}
	if processed {
		return nil
	}

	productIDs := make([]uuid.UUID, 0, len(cmd.Lines))
	for _, line := range cmd.Lines {
		productIDs = append(productIDs, line.ProductID)
	}

	levels, err := h.stock.Levels(ctx, productIDs)
	if err != nil {
		return fmt.Errorf("failed to load stock levels: %w", err)
	}

	available := make(map[uuid.UUID]int, len(levels))
	for _, level := range levels {
		available[level.ProductID] = level.Available()
	}

	// A product without a stock record has zero available.
	results := make([]inventory.ValidationResult, 0, len(cmd.Lines))
	allAvailable := true
	for _, line := range cmd.Lines {
		result := inventory.ValidationResult{
			ProductID: line.ProductID,
			Requested: line.Quantity,
			Available: available[line.ProductID],
		}
		if !result.Sufficient() {
			allAvailable = false
		}
		results = append(results, result)
	}

	meta := event.NewMetadata(cmd.CorrelationID(), cmd.CommandID())
	evt := inventory.NewStockValidationCompleted(cmd.CheckoutID, results, allAvailable, meta)
	if pubErr := h.publisher.Publish(ctx, evt); pubErr != nil {
		return fmt.Errorf("failed to publish stock validation: %w", pubErr)
	}

	h.logger.InfoContext(ctx, "stock validated",
		slog.String("checkout_id", cmd.CheckoutID.String()),
		slog.Bool("all_available", allAvailable),
	)

	if markErr := h.idempotency.MarkEventProcessed(ctx, cmd.CommandID(), ValidateStockHandlerName); markErr != nil {
		h.logger.WarnContext(ctx, "failed to mark command processed",
			slog.String("command_id", cmd.CommandID()),
			slog.String("error", markErr.Error()),
		)
	}
	return nil
}
