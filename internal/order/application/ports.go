package application

import (
	"context"

	"github.com/google/uuid"

	cartdomain "github.com/shopmono/storefront/internal/cart/domain"
	catalogdomain "github.com/shopmono/storefront/internal/catalog/domain"
	"github.com/shopmono/storefront/internal/order/domain"
)

type OrderRepository interface {
	// CreateFromCart commits the checkout as one atomic unit: a conditional
	// stock decrement for every order item, the order insert, the cart clear
	// and the outbox event all become visible together or not at all. When
	// any product's stock is below the ordered quantity at write time the
	// whole unit is rolled back and ErrStockChanged returned.
	CreateFromCart(ctx context.Context, o domain.Order) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Order, error)
	Get(ctx context.Context, userID, orderID uuid.UUID) (domain.Order, error)
}

type CartReader interface {
	Get(ctx context.Context, userID uuid.UUID) (cartdomain.Cart, error)
}

type ProductReader interface {
	GetBatch(ctx context.Context, ids []uuid.UUID) ([]catalogdomain.Product, error)
}
