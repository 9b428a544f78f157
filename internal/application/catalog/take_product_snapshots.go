// Package catalog contains the catalog context's command handlers.
package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lllypuk/orderflow/internal/application/appcore"
	"github.com/lllypuk/orderflow/internal/domain/catalog"
	"github.com/lllypuk/orderflow/internal/domain/checkout"
	"github.com/lllypuk/orderflow/internal/domain/event"
	"github.com/lllypuk/orderflow/internal/domain/uuid"
)

// TakeProductSnapshotsHandlerName is the dedup namespace of the handler.
const TakeProductSnapshotsHandlerName = "catalog.take_product_snapshots"

// TakeProductSnapshotsHandler captures the current state of the products a
// checkout references. A missing or inactive product is a business-rule
// violation reported as a step failure.
type TakeProductSnapshotsHandler struct {
	products    catalog.Repository
	publisher   event.Publisher
	idempotency appcore.IdempotencyStore
	logger      *slog.Logger
}

// NewTakeProductSnapshotsHandler creates a TakeProductSnapshotsHandler.
func NewTakeProductSnapshotsHandler(
	products catalog.Repository,
	publisher event.Publisher,
	idempotency appcore.IdempotencyStore,
	logger *slog.Logger,
) *TakeProductSnapshotsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TakeProductSnapshotsHandler{
		products:    products,
		publisher:   publisher,
		idempotency: idempotency,
		logger:      logger,
	}
}

// Execute handles a TakeProductSnapshots command.
func (h *TakeProductSnapshotsHandler) Execute(ctx context.Context, cmd *catalog.TakeProductSnapshots) error {
	processed, err := h.idempotency.IsEventProcessed(ctx, cmd.CommandID(), TakeProductSnapshotsHandlerName)
	if err != nil {
		return fmt.Errorf("failed to check command dedup: %w", err)
	}
	if processed {
		return nil
	}

	meta := event.NewMetadata(cmd.CorrelationID(), cmd.CommandID())

	products, err := h.products.ByIDs(ctx, cmd.ProductIDs)
	if err != nil {
		return fmt.Errorf("failed to load products: %w", err)
	}

	byID := make(map[uuid.UUID]catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	snapshots := make([]catalog.ProductSnapshot, 0, len(cmd.ProductIDs))
	for _, id := range cmd.ProductIDs {
		p, found := byID[id]
		switch {
		case !found:
			return h.fail(ctx, cmd, fmt.Sprintf("product %s not found", id), meta)
		case !p.Active:
			return h.fail(ctx, cmd, fmt.Sprintf("product %s is inactive", id), meta)
		}
		snapshots = append(snapshots, p.Snapshot())
	}

	evt := catalog.NewProductSnapshotsTaken(cmd.CheckoutID, snapshots, meta)
	if pubErr := h.publisher.Publish(ctx, evt); pubErr != nil {
		return fmt.Errorf("failed to publish product snapshots: %w", pubErr)
	}

	h.logger.InfoContext(ctx, "product snapshots taken",
		slog.String("checkout_id", cmd.CheckoutID.String()),
		slog.Int("products", len(snapshots)),
	)

	return h.markProcessed(ctx, cmd.CommandID())
}

func (h *TakeProductSnapshotsHandler) fail(
	ctx context.Context,
	cmd *catalog.TakeProductSnapshots,
	reason string,
	meta event.Metadata,
) error {
	evt := checkout.NewStepFailed(catalog.Context, cmd.CheckoutID, checkout.StageProductSnapshots, reason, meta)
	if err := h.publisher.Publish(ctx, evt); err != nil {
		return fmt.Errorf("failed to publish step failure: %w", err)
	}
	h.logger.WarnContext(ctx, "product snapshot step failed",
		slog.String("checkout_id", cmd.CheckoutID.String()),
		slog.String("reason", reason),
	)
	return h.markProcessed(ctx, cmd.CommandID())
}

func (h *TakeProductSnapshotsHandler) markProcessed(ctx context.Context, commandID string) error {
	if err := h.idempotency.MarkEventProcessed(ctx, commandID, TakeProductSnapshotsHandlerName); err != nil {
		h.logger.WarnContext(ctx, "failed to mark command processed",
			slog.String("command_id", commandID),
			slog.String("error", err.Error()),
		)
	}
	return nil
}
