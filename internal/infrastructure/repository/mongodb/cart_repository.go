package mongodb

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	cartdomain "github.com/lllypuk/orderflow/internal/domain/cart"
	"github.com/lllypuk/orderflow/internal/domain/errs"
	"github.com/lllypuk/orderflow/internal/domain/uuid"
)

var _ cartdomain.Repository = (*MongoCartRepository)(nil)

type cartItemDocument struct {
	ProductID   string `bson:"product_id"`
	ProductName string `bson:"product_name"`
	Quantity    int    `bson:"quantity"`
	UnitPrice   string `bson:"unit_price"`
}

type cartDocument struct {
	ID         string             `bson:"_id"`
	GuestToken string             `bson:"guest_token,omitempty"`
	Items      []cartItemDocument `bson:"items"`
	UpdatedAt  time.Time          `bson:"updated_at"`
}

// MongoCartRepository implements cart.Repository.
type MongoCartRepository struct {
	collection *mongo.Collection
	logger     *slog.Logger
}

// CartRepoOption configures MongoCartRepository.
type CartRepoOption func(*MongoCartRepository)

// WithCartRepoLogger sets the logger for the cart repository.
func WithCartRepoLogger(logger *slog.Logger) CartRepoOption {
	return func(r *MongoCartRepository) {
		r.logger = logger
	}
}

// NewMongoCartRepository creates a MongoDB cart repository.
func NewMongoCartRepository(collection *mongo.Collection, opts ...CartRepoOption) *MongoCartRepository {
	r := &MongoCartRepository{
		collection: collection,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// ByID loads a cart by its identifier.
func (r *MongoCartRepository) ByID(ctx context.Context, id uuid.UUID) (*cartdomain.Cart, error) {
	if id.IsZero() {
		return nil, errs.ErrInvalidInput
	}

	var doc cartDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			r.logger.ErrorContext(ctx, "failed to find cart",
				slog.String("cart_id", id.String()),
				slog.String("error", err.Error()),
			)
		}
		return nil, HandleMongoError(err, "cart")
	}

	return documentToCart(&doc)
}

// Save upserts the cart document.
func (r *MongoCartRepository) Save(ctx context.Context, cart *cartdomain.Cart) error {
	if cart == nil || cart.ID.IsZero() {
		return errs.ErrInvalidInput
	}

	doc := cartToDocument(cart)

	_, err := r.collection.ReplaceOne(ctx,
		bson.M{"_id": doc.ID},
		doc,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to save cart",
			slog.String("cart_id", doc.ID),
			slog.String("error", err.Error()),
		)
		return HandleMongoError(err, "cart")
	}

	return nil
}

func cartToDocument(cart *cartdomain.Cart) *cartDocument {
	items := make([]cartItemDocument, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, cartItemDocument{
			ProductID:   item.ProductID.String(),
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice.String(),
		})
	}

	return &cartDocument{
		ID:         cart.ID.String(),
		GuestToken: cart.GuestToken,
		Items:      items,
		UpdatedAt:  cart.UpdatedAt,
	}
}

func documentToCart(doc *cartDocument) (*cartdomain.Cart, error) {
	items := make([]cartdomain.Item, 0, len(doc.Items))
	for _, item := range doc.Items {
		price, err := parseDecimal(item.UnitPrice, "cart item unit_price")
		if err != nil {
			return nil, err
		}

		items = append(items, cartdomain.Item{
			ProductID:   uuid.UUID(item.ProductID),
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   price,
		})
	}

	return &cartdomain.Cart{
		ID:         uuid.UUID(doc.ID),
		GuestToken: doc.GuestToken,
		Items:      items,
		UpdatedAt:  doc.UpdatedAt,
	}, nil
}
