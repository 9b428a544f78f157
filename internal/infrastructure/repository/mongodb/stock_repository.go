package mongodb

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/lllypuk/orderflow/internal/domain/errs"
	inventorydomain "github.com/lllypuk/orderflow/internal/domain/inventory"
	"github.com/lllypuk/orderflow/internal/domain/uuid"
)

var _ inventorydomain.Repository = (*MongoStockRepository)(nil)

type stockDocument struct {
	ID       string `bson:"_id"`
	Quantity int    `bson:"quantity"`
	Reserved int    `bson:"reserved"`
}

// MongoStockRepository implements inventory.Repository.
type MongoStockRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
	logger     *slog.Logger
}

// StockRepoOption configures MongoStockRepository.
type StockRepoOption func(*MongoStockRepository)

// WithStockRepoLogger sets the logger for the stock repository.
func WithStockRepoLogger(logger *slog.Logger) StockRepoOption {
	return func(r *MongoStockRepository) {
		r.logger = logger
	}
}

// NewMongoStockRepository creates a MongoDB stock repository. The client is
// needed for the transactional deduction.
func NewMongoStockRepository(
	client *mongo.Client,
	collection *mongo.Collection,
	opts ...StockRepoOption,
) *MongoStockRepository {
	r := &MongoStockRepository{
		client:     client,
		collection: collection,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Levels returns the stock levels for the given products. Products without a
// stock document are simply absent from the result; callers treat absence as
// zero availability.
func (r *MongoStockRepository) Levels(
	ctx context.Context,
	productIDs []uuid.UUID,
) ([]inventorydomain.StockLevel, error) {
	if len(productIDs) == 0 {
		return nil, errs.ErrInvalidInput
	}

	rawIDs := make([]string, 0, len(productIDs))
	for _, id := range productIDs {
		rawIDs = append(rawIDs, id.String())
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": rawIDs}})
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to find stock levels",
			slog.Int("ids_count", len(productIDs)),
			slog.String("error", err.Error()),
		)
		return nil, HandleMongoError(err, "stock level")
	}
	defer cursor.Close(ctx)

	var docs []stockDocument
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode stock levels: %w", err)
	}

	levels := make([]inventorydomain.StockLevel, 0, len(docs))
	for _, doc := range docs {
		levels = append(levels, inventorydomain.StockLevel{
			ProductID: uuid.UUID(doc.ID),
			Quantity:  doc.Quantity,
			Reserved:  doc.Reserved,
		})
	}

	return levels, nil
}

// Deduct decrements stock for every line inside one transaction. Each update
// is guarded by a quantity filter; any line that cannot be satisfied aborts
// the transaction, leaving no partial effect, and surfaces
// errs.ErrInsufficientStock.
func (r *MongoStockRepository) Deduct(ctx context.Context, lines []inventorydomain.Line) error {
	if len(lines) == 0 {
		return errs.ErrInvalidInput
	}

	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(txCtx context.Context) (any, error) {
		for _, line := range lines {
			filter := bson.M{
				"_id":      line.ProductID.String(),
				"quantity": bson.M{"$gte": line.Quantity},
			}
			update := bson.M{"$inc": bson.M{"quantity": -line.Quantity}}

			result, updateErr := r.collection.UpdateOne(txCtx, filter, update)
			if updateErr != nil {
				return nil, HandleMongoError(updateErr, "stock level")
			}

			if result.MatchedCount == 0 {
				r.logger.WarnContext(ctx, "stock deduction rejected",
					slog.String("product_id", line.ProductID.String()),
					slog.Int("requested", line.Quantity),
				)
				return nil, errs.ErrInsufficientStock
			}
		}

		return nil, nil //nolint:nilnil // transaction success returns nil for both values
	})

	return err
}
