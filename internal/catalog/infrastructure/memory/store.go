// Package memory holds mutex-guarded in-memory stores that honor the same
// contracts as the postgres repositories. They back the unit tests and make
// the conditional-decrement semantics checkable without a database.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/shopmono/storefront/internal/catalog/application"
	"github.com/shopmono/storefront/internal/catalog/domain"
)

type Store struct {
	mu         sync.Mutex
	products   map[uuid.UUID]domain.Product
	categories map[uuid.UUID]domain.Category
}

func NewStore() *Store {
	return &Store{
		products:   make(map[uuid.UUID]domain.Product),
		categories: make(map[uuid.UUID]domain.Category),
	}
}

func (s *Store) PutProduct(p domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

func (s *Store) PutCategory(c domain.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[c.ID] = c
}

// SetPrice changes a product's catalog price in place.
func (s *Store) SetPrice(id uuid.UUID, priceCents int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return
	}
	p.PriceCents = priceCents
	s.products[id] = p
}

// Stock reports the current stock counter for a product.
func (s *Store) Stock(id uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[id].Stock
}

// DecrementStock applies stock -= qty only when stock >= qty, reporting
// whether the write matched. The check and the write happen under one lock,
// mirroring the single conditional UPDATE used by the postgres store.
func (s *Store) DecrementStock(id uuid.UUID, qty int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok || p.Stock < qty {
		return false
	}
	p.Stock -= qty
	s.products[id] = p
	return true
}

// AddStock restores stock, compensating a decrement that must be undone.
func (s *Store) AddStock(id uuid.UUID, qty int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return
	}
	p.Stock += qty
	s.products[id] = p
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return domain.Product{}, domain.ErrNotFound
	}
	return p, nil
}

func (s *Store) GetBySlug(ctx context.Context, slug string) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.products {
		if p.Slug == slug {
			return p, nil
		}
	}
	return domain.Product{}, domain.ErrNotFound
}

func (s *Store) GetBatch(ctx context.Context, ids []uuid.UUID) ([]domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	products := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			products = append(products, p)
		}
	}
	return products, nil
}

func (s *Store) List(ctx context.Context, f application.ProductFilter) ([]domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Product
	for _, p := range s.products {
		if f.CategoryID != uuid.Nil && p.CategoryID != f.CategoryID {
			continue
		}
		if f.Query != "" && !matches(p, f.Query) {
			continue
		}
		out = append(out, p)
	}

	switch f.Sort {
	case application.SortPriceAsc:
		sort.Slice(out, func(i, j int) bool { return out[i].PriceCents < out[j].PriceCents })
	case application.SortPriceDesc:
		sort.Slice(out, func(i, j int) bool { return out[i].PriceCents > out[j].PriceCents })
	default:
		sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	}

	start := (f.Page - 1) * f.Limit
	if start >= len(out) {
		return []domain.Product{}, nil
	}
	end := start + f.Limit
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], nil
}

func matches(p domain.Product, q string) bool {
	q = strings.ToLower(q)
	if strings.Contains(strings.ToLower(p.Title), q) || strings.Contains(strings.ToLower(p.Description), q) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.EqualFold(tag, q) {
			return true
		}
	}
	return false
}

// Categories exposes the category side of the store as its own repository.
func (s *Store) Categories() *CategoryView {
	return &CategoryView{s: s}
}

type CategoryView struct {
	s *Store
}

func (v *CategoryView) List(ctx context.Context) ([]domain.Category, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	cats := make([]domain.Category, 0, len(v.s.categories))
	for _, c := range v.s.categories {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i].Name < cats[j].Name })
	return cats, nil
}

func (v *CategoryView) GetByIDOrSlug(ctx context.Context, key string) (domain.Category, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	for _, c := range v.s.categories {
		if c.Slug == key || c.ID.String() == key {
			return c, nil
		}
	}
	return domain.Category{}, domain.ErrNotFound
}
