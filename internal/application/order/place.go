// Package order contains the order context's command handlers.
package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lllypuk/orderflow/internal/application/appcore"
	"github.com/lllypuk/orderflow/internal/domain/catalog"
	"github.com/lllypuk/orderflow/internal/domain/checkout"
	"github.com/lllypuk/orderflow/internal/domain/errs"
	"github.com/lllypuk/orderflow/internal/domain/event"
	"github.com/lllypuk/orderflow/internal/domain/order"
	"github.com/lllypuk/orderflow/internal/domain/uuid"
)

// PlaceHandlerName is the dedup namespace of the place handler.
const PlaceHandlerName = "order.place"

// PlaceHandler creates the order document for a checkout. Prices come from
// the saga's product snapshots, never from live catalog state, so a price
// change mid-checkout cannot reprice the order.
type PlaceHandler struct {
	orders      order.Repository
	publisher   event.Publisher
	idempotency appcore.IdempotencyStore
	logger      *slog.Logger
}

// NewPlaceHandler creates a PlaceHandler.
func NewPlaceHandler(
	orders order.Repository,
	publisher event.Publisher,
	idempotency appcore.IdempotencyStore,
	logger *slog.Logger,
) *PlaceHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PlaceHandler{
		orders:      orders,
		publisher:   publisher,
		idempotency: idempotency,
		logger:      logger,
	}
}

// Execute handles a Place command.
func (h *PlaceHandler) Execute(ctx context.Context, cmd *order.Place) error {
	processed, err := h.idempotency.IsEventProcessed(ctx, cmd.CommandID(), PlaceHandlerName)
	if err != nil {
		return fmt.Errorf("failed to check command dedup: %w", err)
	}
	if processed {
		return nil
	}

	meta := event.NewMetadata(cmd.CorrelationID(), cmd.CommandID())

	doc, buildErr := BuildOrder(cmd)
	if buildErr != nil {
		evt := checkout.NewStepFailed(
			order.Context, cmd.CheckoutID, checkout.StageOrderCreation, buildErr.Error(), meta)
		if pubErr := h.publisher.Publish(ctx, evt); pubErr != nil {
			return fmt.Errorf("failed to publish step failure: %w", pubErr)
		}
		h.logger.WarnContext(ctx, "order creation step failed",
			slog.String("checkout_id", cmd.CheckoutID.String()),
			slog.String("reason", buildErr.Error()),
		)
		return h.markProcessed(ctx, cmd.CommandID())
	}

	orderNumber := doc.OrderNumber
	if insertErr := h.orders.Insert(ctx, doc); insertErr != nil {
		if !errors.Is(insertErr, errs.ErrAlreadyExists) {
			return fmt.Errorf("failed to insert order %s: %w", cmd.OrderID, insertErr)
		}
		// Redelivered command; the order exists from a prior attempt. Confirm
		// with the stored number.
		existing, loadErr := h.orders.ByID(ctx, cmd.OrderID)
		if loadErr != nil {
			return fmt.Errorf("failed to load existing order %s: %w", cmd.OrderID, loadErr)
		}
		orderNumber = existing.OrderNumber
	}

	evt := order.NewPlaced(cmd.CheckoutID, cmd.OrderID, orderNumber, meta)
	if pubErr := h.publisher.Publish(ctx, evt); pubErr != nil {
		return fmt.Errorf("failed to publish order placed: %w", pubErr)
	}

	h.logger.InfoContext(ctx, "order placed",
		slog.String("checkout_id", cmd.CheckoutID.String()),
		slog.String("order_id", cmd.OrderID.String()),
		slog.String("order_number", orderNumber),
	)

	return h.markProcessed(ctx, cmd.CommandID())
}

// BuildOrder prices the cart items from the product snapshots and assembles
// the order document. A cart item without a matching snapshot is a
// business-rule violation.
func BuildOrder(cmd *order.Place) (*order.Order, error) {
	if len(cmd.Items) == 0 {
		return nil, errors.New("order has no items")
	}

	prices := make(map[uuid.UUID]catalog.ProductSnapshot, len(cmd.Products))
	for _, p := range cmd.Products {
		prices[p.ProductID] = p
	}

	now := time.Now()
	lines := make([]order.Line, 0, len(cmd.Items))
	total := decimal.Zero
	for _, item := range cmd.Items {
		snapshot, ok := prices[item.ProductID]
		if !ok {
			return nil, fmt.Errorf("no product snapshot for %s", item.ProductID)
		}
		lineTotal := snapshot.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		lines = append(lines, order.Line{
			ProductID:   item.ProductID,
			ProductName: snapshot.Name,
			Quantity:    item.Quantity,
			UnitPrice:   snapshot.Price,
			Total:       lineTotal,
		})
		total = total.Add(lineTotal)
	}

	return &order.Order{
		ID:          cmd.OrderID,
		OrderNumber: OrderNumber(cmd.OrderID, now),
		CheckoutID:  cmd.CheckoutID,
		Customer:    cmd.Customer,
		Shipping:    cmd.Shipping,
		Lines:       lines,
		Total:       total,
		Status:      order.StatusPending,
		CreatedAt:   now,
	}, nil
}

// OrderNumber derives a human-readable order number. Deterministic per order
// ID, so a redelivered place command produces the same number.
func OrderNumber(orderID uuid.UUID, at time.Time) string {
	short := strings.ToUpper(strings.ReplaceAll(orderID.String(), "-", ""))
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("ORD-%d-%s", at.Year(), short)
}

func (h *PlaceHandler) markProcessed(ctx context.Context, commandID string) error {
	if err := h.idempotency.MarkEventProcessed(ctx, commandID, PlaceHandlerName); err != nil {
		h.logger.WarnContext(ctx, "failed to mark command processed",
			slog.String("command_id", commandID),
			slog.String("error", err.Error()),
		)
	}
	return nil
}
