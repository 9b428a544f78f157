// Package mongodb implements the bounded contexts' document repositories.
// Each repository maps between domain types and its own document structs;
// money travels as decimal strings in storage.
package mongodb

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/lllypuk/orderflow/internal/domain/errs"
)

// Collection names used by the context repositories.
const (
	CartsCollection    = "carts"
	ProductsCollection = "products"
	StockCollection    = "stock_levels"
	OrdersCollection   = "orders"
)

// HandleMongoError maps driver errors onto the domain error vocabulary.
func HandleMongoError(err error, resourceType string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, mongo.ErrNoDocuments) {
		return errs.ErrNotFound
	}

	if mongo.IsDuplicateKeyError(err) {
		return errs.ErrAlreadyExists
	}

	return fmt.Errorf("failed to operate on %s: %w", resourceType, err)
}

// parseDecimal converts a stored decimal string back into a decimal value.
// An empty string is zero; anything unparseable is a corrupt document.
func parseDecimal(value, field string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}

	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid decimal in %s: %w", field, err)
	}

	return d, nil
}
