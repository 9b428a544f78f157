package mongodb

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	catalogdomain "github.com/lllypuk/orderflow/internal/domain/catalog"
	"github.com/lllypuk/orderflow/internal/domain/errs"
	"github.com/lllypuk/orderflow/internal/domain/uuid"
)

var _ catalogdomain.Repository = (*MongoProductRepository)(nil)

type productDocument struct {
	ID     string `bson:"_id"`
	Name   string `bson:"name"`
	SKU    string `bson:"sku"`
	Price  string `bson:"price"`
	Active bool   `bson:"active"`
}

// MongoProductRepository implements catalog.Repository.
type MongoProductRepository struct {
	collection *mongo.Collection
	logger     *slog.Logger
}

// ProductRepoOption configures MongoProductRepository.
type ProductRepoOption func(*MongoProductRepository)

// WithProductRepoLogger sets the logger for the product repository.
func WithProductRepoLogger(logger *slog.Logger) ProductRepoOption {
	return func(r *MongoProductRepository) {
		r.logger = logger
	}
}

// NewMongoProductRepository creates a MongoDB product repository.
func NewMongoProductRepository(collection *mongo.Collection, opts ...ProductRepoOption) *MongoProductRepository {
	r := &MongoProductRepository{
		collection: collection,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// ByIDs loads products by their identifiers. Callers decide how to treat
// missing IDs; the result simply omits them.
func (r *MongoProductRepository) ByIDs(ctx context.Context, ids []uuid.UUID) ([]catalogdomain.Product, error) {
	if len(ids) == 0 {
		return nil, errs.ErrInvalidInput
	}

	rawIDs := make([]string, 0, len(ids))
	for _, id := range ids {
		rawIDs = append(rawIDs, id.String())
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": rawIDs}})
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to find products",
			slog.Int("ids_count", len(ids)),
			slog.String("error", err.Error()),
		)
		return nil, HandleMongoError(err, "product")
	}
	defer cursor.Close(ctx)

	var docs []productDocument
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}

	products := make([]catalogdomain.Product, 0, len(docs))
	for i := range docs {
		product, convErr := documentToProduct(&docs[i])
		if convErr != nil {
			return nil, convErr
		}
		products = append(products, *product)
	}

	return products, nil
}

func documentToProduct(doc *productDocument) (*catalogdomain.Product, error) {
	price, err := parseDecimal(doc.Price, "product price")
	if err != nil {
		return nil, err
	}

	return &catalogdomain.Product{
		ID:     uuid.UUID(doc.ID),
		Name:   doc.Name,
		SKU:    doc.SKU,
		Price:  price,
		Active: doc.Active,
	}, nil
}
