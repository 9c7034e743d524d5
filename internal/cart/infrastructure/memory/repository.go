// Package memory is the in-memory counterpart of the postgres cart store,
// used by unit tests. Save replaces the whole aggregate under one lock, the
// same last-writer-wins contract the SQL store provides per transaction.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/shopmono/storefront/internal/cart/domain"
)

type Repository struct {
	mu    sync.Mutex
	carts map[uuid.UUID]domain.Cart
}

func NewRepository() *Repository {
	return &Repository{carts: make(map[uuid.UUID]domain.Cart)}
}

func (r *Repository) Get(ctx context.Context, userID uuid.UUID) (domain.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cart, ok := r.carts[userID]
	if !ok {
		return domain.Cart{}, domain.ErrNotFound
	}
	return copyCart(cart), nil
}

func (r *Repository) Save(ctx context.Context, cart domain.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.carts[cart.UserID] = copyCart(cart)
	return nil
}

// Clear empties a stored cart in place, as the checkout transaction does.
func (r *Repository) Clear(userID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cart, ok := r.carts[userID]
	if !ok {
		return
	}
	cart.Clear()
	r.carts[userID] = cart
}

func copyCart(c domain.Cart) domain.Cart {
	out := c
	out.Lines = append([]domain.Line(nil), c.Lines...)
	return out
}
