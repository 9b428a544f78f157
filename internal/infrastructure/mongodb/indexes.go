// Package mongodb provides MongoDB infrastructure components including index management.
package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Collection names as constants for consistency.
const (
	CollectionEvents    = "events"
	CollectionSnapshots = "snapshots"
	CollectionCarts     = "carts"
	CollectionProducts  = "products"
	CollectionStock     = "stock_levels"
	CollectionOrders    = "orders"
)

// IndexDefinition describes a MongoDB index to be created.
type IndexDefinition struct {
	Collection string
	Keys       bson.D
	Options    *options.IndexOptionsBuilder
}

// CreateAllIndexes creates all necessary indexes for the application.
// Idempotent: calling it multiple times is safe.
func CreateAllIndexes(ctx context.Context, db *mongo.Database) error {
	for _, idx := range GetAllIndexDefinitions() {
		model := mongo.IndexModel{
			Keys:    idx.Keys,
			Options: idx.Options,
		}

		if _, err := db.Collection(idx.Collection).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("failed to create index on collection %s: %w", idx.Collection, err)
		}
	}

	return nil
}

// GetAllIndexDefinitions returns all index definitions for all collections.
func GetAllIndexDefinitions() []IndexDefinition {
	var indexes []IndexDefinition

	indexes = append(indexes, GetEventIndexes()...)
	indexes = append(indexes, GetSnapshotIndexes()...)
	indexes = append(indexes, GetCartIndexes()...)
	indexes = append(indexes, GetProductIndexes()...)
	indexes = append(indexes, GetOrderIndexes()...)

	return indexes
}

// GetEventIndexes returns index definitions for the events collection.
func GetEventIndexes() []IndexDefinition {
	return []IndexDefinition{
		{
			// Unique index for optimistic locking: one event per aggregate+version.
			Collection: CollectionEvents,
			Keys:       bson.D{{Key: "aggregate_id", Value: 1}, {Key: "version", Value: 1}},
			Options:    options.Index().SetUnique(true).SetName("idx_events_aggregate_version_unique"),
		},
		{
			Collection: CollectionEvents,
			Keys:       bson.D{{Key: "event_id", Value: 1}},
			Options:    options.Index().SetUnique(true).SetName("idx_events_event_id_unique"),
		},
		{
			Collection: CollectionEvents,
			Keys:       bson.D{{Key: "event_type", Value: 1}, {Key: "occurred_at", Value: -1}},
			Options:    options.Index().SetName("idx_events_type_time"),
		},
		{
			Collection: CollectionEvents,
			Keys:       bson.D{{Key: "aggregate_type", Value: 1}, {Key: "occurred_at", Value: -1}},
			Options:    options.Index().SetName("idx_events_aggregate_type_time"),
		},
	}
}

// GetSnapshotIndexes returns index definitions for the snapshots collection.
func GetSnapshotIndexes() []IndexDefinition {
	return []IndexDefinition{
		{
			// One snapshot document per aggregate; Save upserts in place.
			Collection: CollectionSnapshots,
			Keys:       bson.D{{Key: "aggregate_id", Value: 1}},
			Options:    options.Index().SetUnique(true).SetName("idx_snapshots_aggregate_unique"),
		},
	}
}

// GetCartIndexes returns index definitions for the carts collection.
func GetCartIndexes() []IndexDefinition {
	return []IndexDefinition{
		{
			Collection: CollectionCarts,
			Keys:       bson.D{{Key: "guest_token", Value: 1}},
			Options:    options.Index().SetSparse(true).SetName("idx_carts_guest_token"),
		},
	}
}

// GetProductIndexes returns index definitions for the products collection.
func GetProductIndexes() []IndexDefinition {
	return []IndexDefinition{
		{
			Collection: CollectionProducts,
			Keys:       bson.D{{Key: "sku", Value: 1}},
			Options:    options.Index().SetUnique(true).SetName("idx_products_sku_unique"),
		},
		{
			Collection: CollectionProducts,
			Keys:       bson.D{{Key: "active", Value: 1}},
			Options:    options.Index().SetName("idx_products_active"),
		},
	}
}

// GetOrderIndexes returns index definitions for the orders collection.
func GetOrderIndexes() []IndexDefinition {
	return []IndexDefinition{
		{
			Collection: CollectionOrders,
			Keys:       bson.D{{Key: "order_number", Value: 1}},
			Options:    options.Index().SetUnique(true).SetName("idx_orders_number_unique"),
		},
		{
			// One order per checkout.
			Collection: CollectionOrders,
			Keys:       bson.D{{Key: "checkout_id", Value: 1}},
			Options:    options.Index().SetUnique(true).SetName("idx_orders_checkout_unique"),
		},
		{
			Collection: CollectionOrders,
			Keys:       bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
			Options:    options.Index().SetName("idx_orders_status_time"),
		},
	}
}

// EnsureIndexes is an alias for CreateAllIndexes for semantic clarity.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	return CreateAllIndexes(ctx, db)
}
