package application

import (
	"context"

	"github.com/google/uuid"

	"github.com/shopmono/storefront/internal/catalog/domain"
)

type SortOrder string

const (
	SortNewest    SortOrder = "newest"
	SortPriceAsc  SortOrder = "price-asc"
	SortPriceDesc SortOrder = "price-desc"
)

// ProductFilter narrows and pages a product listing. Category accepts either
// a category ID or a slug.
type ProductFilter struct {
	Query      string
	CategoryID uuid.UUID
	Sort       SortOrder
	Page       int
	Limit      int
}

type ProductRepository interface {
	List(ctx context.Context, f ProductFilter) ([]domain.Product, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Product, error)
	GetBySlug(ctx context.Context, slug string) (domain.Product, error)
	GetBatch(ctx context.Context, ids []uuid.UUID) ([]domain.Product, error)
}

type CategoryRepository interface {
	List(ctx context.Context) ([]domain.Category, error)
	GetByIDOrSlug(ctx context.Context, key string) (domain.Category, error)
}
