package mongodb

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/lllypuk/orderflow/internal/domain/errs"
	orderdomain "github.com/lllypuk/orderflow/internal/domain/order"
	"github.com/lllypuk/orderflow/internal/domain/uuid"
)

var _ orderdomain.Repository = (*MongoOrderRepository)(nil)

type orderLineDocument struct {
	ProductID   string `bson:"product_id"`
	ProductName string `bson:"product_name"`
	Quantity    int    `bson:"quantity"`
	UnitPrice   string `bson:"unit_price"`
	Total       string `bson:"total"`
}

type orderDocument struct {
	ID          string                `bson:"_id"`
	OrderNumber string                `bson:"order_number"`
	CheckoutID  string                `bson:"checkout_id"`
	Customer    orderdomain.CustomerInfo    `bson:"customer"`
	Shipping    orderdomain.ShippingAddress `bson:"shipping"`
	Lines       []orderLineDocument   `bson:"lines"`
	Total       string                `bson:"total"`
	Status      string                `bson:"status"`
	CreatedAt   time.Time             `bson:"created_at"`
	FinalizedAt *time.Time            `bson:"finalized_at,omitempty"`
}

// MongoOrderRepository implements order.Repository.
type MongoOrderRepository struct {
	collection *mongo.Collection
	logger     *slog.Logger
}

// OrderRepoOption configures MongoOrderRepository.
type OrderRepoOption func(*MongoOrderRepository)

// WithOrderRepoLogger sets the logger for the order repository.
func WithOrderRepoLogger(logger *slog.Logger) OrderRepoOption {
	return func(r *MongoOrderRepository) {
		r.logger = logger
	}
}

// NewMongoOrderRepository creates a MongoDB order repository.
func NewMongoOrderRepository(collection *mongo.Collection, opts ...OrderRepoOption) *MongoOrderRepository {
	r := &MongoOrderRepository{
		collection: collection,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// ByID loads an order by its identifier.
func (r *MongoOrderRepository) ByID(ctx context.Context, id uuid.UUID) (*orderdomain.Order, error) {
	if id.IsZero() {
		return nil, errs.ErrInvalidInput
	}

	var doc orderDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			r.logger.ErrorContext(ctx, "failed to find order",
				slog.String("order_id", id.String()),
				slog.String("error", err.Error()),
			)
		}
		return nil, HandleMongoError(err, "order")
	}

	return documentToOrder(&doc)
}

// Insert stores a new order. A repeated insert with the same ID maps onto
// errs.ErrAlreadyExists, which handlers treat as a duplicate delivery.
func (r *MongoOrderRepository) Insert(ctx context.Context, order *orderdomain.Order) error {
	if order == nil || order.ID.IsZero() {
		return errs.ErrInvalidInput
	}

	_, err := r.collection.InsertOne(ctx, orderToDocument(order))
	if err != nil {
		if !mongo.IsDuplicateKeyError(err) {
			r.logger.ErrorContext(ctx, "failed to insert order",
				slog.String("order_id", order.ID.String()),
				slog.String("error", err.Error()),
			)
		}
		return HandleMongoError(err, "order")
	}

	return nil
}

// Update replaces an existing order document.
func (r *MongoOrderRepository) Update(ctx context.Context, order *orderdomain.Order) error {
	if order == nil || order.ID.IsZero() {
		return errs.ErrInvalidInput
	}

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": order.ID.String()}, orderToDocument(order))
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to update order",
			slog.String("order_id", order.ID.String()),
			slog.String("error", err.Error()),
		)
		return HandleMongoError(err, "order")
	}

	if result.MatchedCount == 0 {
		return errs.ErrNotFound
	}

	return nil
}

func orderToDocument(order *orderdomain.Order) *orderDocument {
	lines := make([]orderLineDocument, 0, len(order.Lines))
	for _, line := range order.Lines {
		lines = append(lines, orderLineDocument{
			ProductID:   line.ProductID.String(),
			ProductName: line.ProductName,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice.String(),
			Total:       line.Total.String(),
		})
	}

	return &orderDocument{
		ID:          order.ID.String(),
		OrderNumber: order.OrderNumber,
		CheckoutID:  order.CheckoutID.String(),
		Customer:    order.Customer,
		Shipping:    order.Shipping,
		Lines:       lines,
		Total:       order.Total.String(),
		Status:      order.Status,
		CreatedAt:   order.CreatedAt,
		FinalizedAt: order.FinalizedAt,
	}
}

func documentToOrder(doc *orderDocument) (*orderdomain.Order, error) {
	lines := make([]orderdomain.Line, 0, len(doc.Lines))
	for _, line := range doc.Lines {
		unitPrice, err := parseDecimal(line.UnitPrice, "order line unit_price")
		if err != nil {
			return nil, err
		}
		lineTotal, err := parseDecimal(line.Total, "order line total")
		if err != nil {
			return nil, err
		}

		lines = append(lines, orderdomain.Line{
			ProductID:   uuid.UUID(line.ProductID),
			ProductName: line.ProductName,
			Quantity:    line.Quantity,
			UnitPrice:   unitPrice,
			Total:       lineTotal,
		})
	}

	total, err := parseDecimal(doc.Total, "order total")
	if err != nil {
		return nil, err
	}

	return &orderdomain.Order{
		ID:          uuid.UUID(doc.ID),
		OrderNumber: doc.OrderNumber,
		CheckoutID:  uuid.UUID(doc.CheckoutID),
		Customer:    doc.Customer,
		Shipping:    doc.Shipping,
		Lines:       lines,
		Total:       total,
		Status:      doc.Status,
		CreatedAt:   doc.CreatedAt,
		FinalizedAt: doc.FinalizedAt,
	}, nil
}
