// Package memory implements the order repository contract over the in-memory
// catalog and cart stores. The stock writes use the same compare-and-decrement
// primitive as the SQL conditional UPDATE, with compensation standing in for
// transaction rollback, so checkout tests exercise the race semantics for
// real.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	cartmem "github.com/shopmono/storefront/internal/cart/infrastructure/memory"
	catalogmem "github.com/shopmono/storefront/internal/catalog/infrastructure/memory"
	"github.com/shopmono/storefront/internal/order/application"
	"github.com/shopmono/storefront/internal/order/domain"
)

type Repository struct {
	mu      sync.Mutex
	orders  map[uuid.UUID]domain.Order
	catalog *catalogmem.Store
	carts   *cartmem.Repository
}

func NewRepository(catalog *catalogmem.Store, carts *cartmem.Repository) *Repository {
	return &Repository{
		orders:  make(map[uuid.UUID]domain.Order),
		catalog: catalog,
		carts:   carts,
	}
}

func (r *Repository) CreateFromCart(ctx context.Context, o domain.Order) error {
	for i, it := range o.Items {
		if !r.catalog.DecrementStock(it.ProductID, it.Qty) {
			// Undo the decrements that already matched; the batch is
			// all-or-nothing.
			for _, done := range o.Items[:i] {
				r.catalog.AddStock(done.ProductID, done.Qty)
			}
			return application.ErrStockChanged
		}
	}

	r.mu.Lock()
	r.orders[o.ID] = o
	r.mu.Unlock()

	r.carts.Clear(o.UserID)
	return nil
}

func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.Order
	for _, o := range r.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *Repository) Get(ctx context.Context, userID, orderID uuid.UUID) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[orderID]
	if !ok || o.UserID != userID {
		return domain.Order{}, domain.ErrNotFound
	}
	return o, nil
}

// Count reports how many orders exist in total, for atomicity assertions.
func (r *Repository) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.orders)
}
