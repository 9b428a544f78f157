package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lllypuk/orderflow/internal/application/appcore"
	"github.com/lllypuk/orderflow/internal/domain/cart"
	"github.com/lllypuk/orderflow/internal/domain/errs"
	"github.com/lllypuk/orderflow/internal/domain/event"
)

// ClearHandlerName is the dedup namespace of the clear handler.
const ClearHandlerName = "cart.clear"

// ClearHandler empties a cart after its order was created. Clearing an
// already-empty or missing cart still confirms: the outcome the saga needs
// is "the cart holds nothing", which is then true either way.
type ClearHandler struct {
	carts       cart.Repository
	publisher   event.Publisher
	idempotency appcore.IdempotencyStore
	logger      *slog.Logger
}

// NewClearHandler creates a ClearHandler.
func NewClearHandler(
	carts cart.Repository,
	publisher event.Publisher,
	idempotency appcore.IdempotencyStore,
	logger *slog.Logger,
) *ClearHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ClearHandler{
		carts:       carts,
		publisher:   publisher,
		idempotency: idempotency,
		logger:      logger,
	}
}

// Execute handles a Clear command.
func (h *ClearHandler) Execute(ctx context.Context, cmd *cart.Clear) error {
	processed, err := h.idempotency.IsEventProcessed(ctx, cmd.CommandID(), ClearHandlerName)
	if err != nil {
		return fmt.Errorf("failed to check command dedup: %w", err)
	}
	if processed {
		return nil
	}

	loaded, err := h.carts.ByID(ctx, cmd.CartID)
	switch {
	case errors.Is(err, errs.ErrNotFound):
		// Nothing to clear.
	case err != nil:
		return fmt.Errorf("failed to load cart %s: %w", cmd.CartID, err)
	case !loaded.IsEmpty():
		loaded.Clear()
		if saveErr := h.carts.Save(ctx, loaded); saveErr != nil {
			return fmt.Errorf("failed to save cleared cart %s: %w", cmd.CartID, saveErr)
		}
	}

	meta := event.NewMetadata(cmd.CorrelationID(), cmd.CommandID())
	evt := cart.NewCleared(cmd.CheckoutID, cmd.CartID, meta)
	if pubErr := h.publisher.Publish(ctx, evt); pubErr != nil {
		return fmt.Errorf("failed to publish cart cleared: %w", pubErr)
	}

	h.logger.InfoContext(ctx, "cart cleared",
		slog.String("checkout_id", cmd.CheckoutID.String()),
		slog.String("cart_id", cmd.CartID.String()),
	)

	if markErr := h.idempotency.MarkEventProcessed(ctx, cmd.CommandID(), ClearHandlerName); markErr != nil {
		h.logger.WarnContext(ctx, "failed to mark command processed",
			slog.String("command_id", cmd.CommandID()),
			slog.String("error", markErr.Error()),
		)
	}
	return nil
}
