package application

import (
	"context"

	"github.com/google/uuid"

	"github.com/shopmono/storefront/internal/cart/domain"
	catalogdomain "github.com/shopmono/storefront/internal/catalog/domain"
)

type CartRepository interface {
	// Get returns the user's cart, or ErrNotFound when none was created yet.
	Get(ctx context.Context, userID uuid.UUID) (domain.Cart, error)
	// Save replaces the whole aggregate (lines and total) atomically.
	Save(ctx context.Context, cart domain.Cart) error
}

// ProductReader is the slice of the catalog the cart needs: price and stock
// at add time, and display data when rendering the cart.
type ProductReader interface {
	Get(ctx context.Context, id uuid.UUID) (catalogdomain.Product, error)
	GetBatch(ctx context.Context, ids []uuid.UUID) ([]catalogdomain.Product, error)
}
