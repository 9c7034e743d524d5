package application

import (
	"context"
	"errors"

	"github.com/shopmono/storefront/internal/catalog/domain"
)

type Service struct {
	products   ProductRepository
	categories CategoryRepository
}

func NewService(products ProductRepository, categories CategoryRepository) *Service {
	return &Service{products: products, categories: categories}
}

type ListQuery struct {
	Query    string
	Category string // id or slug, optional
	Sort     string
	Page     int
	Limit    int
}

func (s *Service) ListProducts(ctx context.Context, q ListQuery) ([]domain.Product, error) {
	f := ProductFilter{
		Query: q.Query,
		Sort:  SortNewest,
		Page:  q.Page,
		Limit: q.Limit,
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}
	switch SortOrder(q.Sort) {
	case SortPriceAsc, SortPriceDesc:
		f.Sort = SortOrder(q.Sort)
	}

	if q.Category != "" {
		cat, err := s.categories.GetByIDOrSlug(ctx, q.Category)
		if errors.Is(err, domain.ErrNotFound) {
			// Unknown category filters everything out rather than erroring.
			return []domain.Product{}, nil
		}
		if err != nil {
			return nil, err
		}
		f.CategoryID = cat.ID
	}

	return s.products.List(ctx, f)
}

func (s *Service) GetProductBySlug(ctx context.Context, slug string) (domain.Product, error) {
	return s.products.GetBySlug(ctx, slug)
}

func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.categories.List(ctx)
}
