// Package inmemory provides in-memory twins of the context repositories for
// tests.
package inmemory

import (
	"context"
	"sync"

	cartdomain "github.com/lllypuk/orderflow/internal/domain/cart"
	catalogdomain "github.com/lllypuk/orderflow/internal/domain/catalog"
	"github.com/lllypuk/orderflow/internal/domain/errs"
	inventorydomain "github.com/lllypuk/orderflow/internal/domain/inventory"
	orderdomain "github.com/lllypuk/orderflow/internal/domain/order"
	"github.com/lllypuk/orderflow/internal/domain/uuid"
)

var (
	_ cartdomain.Repository      = (*CartRepository)(nil)
	_ catalogdomain.Repository   = (*ProductRepository)(nil)
	_ inventorydomain.Repository = (*StockRepository)(nil)
	_ orderdomain.Repository     = (*OrderRepository)(nil)
)

// CartRepository implements cart.Repository in memory.
type CartRepository struct {
	mu    sync.RWMutex
	carts map[uuid.UUID]cartdomain.Cart
}

// NewCartRepository creates an in-memory cart repository.
func NewCartRepository() *CartRepository {
	return &CartRepository{carts: make(map[uuid.UUID]cartdomain.Cart)}
}

// ByID loads a cart by identifier.
func (r *CartRepository) ByID(_ context.Context, id uuid.UUID) (*cartdomain.Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cart, ok := r.carts[id]
	if !ok {
		return nil, errs.ErrNotFound
	}

	copied := cart
	copied.Items = append([]cartdomain.Item(nil), cart.Items...)
	return &copied, nil
}

// Save upserts the cart.
func (r *CartRepository) Save(_ context.Context, cart *cartdomain.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *cart
	copied.Items = append([]cartdomain.Item(nil), cart.Items...)
	r.carts[cart.ID] = copied
	return nil
}

// ProductRepository implements catalog.Repository in memory.
type ProductRepository struct {
	mu       sync.RWMutex
	products map[uuid.UUID]catalogdomain.Product
}

// NewProductRepository creates an in-memory product repository.
func NewProductRepository(products ...catalogdomain.Product) *ProductRepository {
	r := &ProductRepository{products: make(map[uuid.UUID]catalogdomain.Product)}
	for _, p := range products {
		r.products[p.ID] = p
	}
	return r
}

// Add stores a product.
func (r *ProductRepository) Add(product catalogdomain.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[product.ID] = product
}

// ByIDs returns the products found for the given IDs; missing IDs are omitted.
func (r *ProductRepository) ByIDs(_ context.Context, ids []uuid.UUID) ([]catalogdomain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]catalogdomain.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			result = append(result, p)
		}
	}
	return result, nil
}

// StockRepository implements inventory.Repository in memory.
type StockRepository struct {
	mu     sync.Mutex
	levels map[uuid.UUID]inventorydomain.StockLevel
}

// NewStockRepository creates an in-memory stock repository.
func NewStockRepository(levels ...inventorydomain.StockLevel) *StockRepository {
	r := &StockRepository{levels: make(map[uuid.UUID]inventorydomain.StockLevel)}
	for _, l := range levels {
		r.levels[l.ProductID] = l
	}
	return r
}

// SetLevel stores a stock level.
func (r *StockRepository) SetLevel(level inventorydomain.StockLevel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.levels[level.ProductID] = level
}

// Levels returns the stock levels found for the given products.
func (r *StockRepository) Levels(
	_ context.Context,
	productIDs []uuid.UUID,
) ([]inventorydomain.StockLevel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]inventorydomain.StockLevel, 0, len(productIDs))
	for _, id := range productIDs {
		if l, ok := r.levels[id]; ok {
			result = append(result, l)
		}
	}
	return result, nil
}

// Deduct decrements every line or none: the guard runs over all lines before
// any level is touched.
func (r *StockRepository) Deduct(_ context.Context, lines []inventorydomain.Line) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, line := range lines {
		level, ok := r.levels[line.ProductID]
		if !ok || level.Quantity < line.Quantity {
			return errs.ErrInsufficientStock
		}
	}

	for _, line := range lines {
		level := r.levels[line.ProductID]
		level.Quantity -= line.Quantity
		r.levels[line.ProductID] = level
	}

	return nil
}

// OrderRepository implements order.Repository in memory.
type OrderRepository struct {
	mu     sync.RWMutex
	orders map[uuid.UUID]orderdomain.Order
}

// NewOrderRepository creates an in-memory order repository.
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{orders: make(map[uuid.UUID]orderdomain.Order)}
}

// ByID loads an order by identifier.
func (r *OrderRepository) ByID(_ context.Context, id uuid.UUID) (*orderdomain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, errs.ErrNotFound
	}

	copied := order
	copied.Lines = append([]orderdomain.Line(nil), order.Lines...)
	return &copied, nil
}

// Insert stores a new order, rejecting duplicates by ID.
func (r *OrderRepository) Insert(_ context.Context, order *orderdomain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[order.ID]; exists {
		return errs.ErrAlreadyExists
	}

	r.orders[order.ID] = *order
	return nil
}

// Update replaces an existing order.
func (r *OrderRepository) Update(_ context.Context, order *orderdomain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[order.ID]; !exists {
		return errs.ErrNotFound
	}

	r.orders[order.ID] = *order
	return nil
}
