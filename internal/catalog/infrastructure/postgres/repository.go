package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shopmono/storefront/internal/catalog/application"
	"github.com/shopmono/storefront/internal/catalog/domain"
)

const productColumns = `id, title, slug, description, price_cents, stock, category_id, images, tags, created_at, updated_at`

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) List(ctx context.Context, f application.ProductFilter) ([]domain.Product, error) {
	var (
		where []string
		args  []any
	)
	if f.CategoryID != uuid.Nil {
		args = append(args, f.CategoryID)
		where = append(where, fmt.Sprintf("category_id = $%d", len(args)))
	}
	if f.Query != "" {
		args = append(args, "%"+f.Query+"%")
		n := len(args)
		where = append(where, fmt.Sprintf(
			"(title ILIKE $%d OR description ILIKE $%d OR EXISTS (SELECT 1 FROM unnest(tags) t WHERE t ILIKE $%d))", n, n, n))
	}

	order := "created_at DESC"
	switch f.Sort {
	case application.SortPriceAsc:
		order = "price_cents ASC"
	case application.SortPriceDesc:
		order = "price_cents DESC"
	}

	q := "SELECT " + productColumns + " FROM products"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, f.Limit, (f.Page-1)*f.Limit)
	q += fmt.Sprintf(" ORDER BY %s LIMIT $%d OFFSET $%d", order, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (domain.Product, error) {
	return r.getWhere(ctx, "id = $1", id)
}

func (r *Repository) GetBySlug(ctx context.Context, slug string) (domain.Product, error) {
	return r.getWhere(ctx, "slug = $1", slug)
}

func (r *Repository) getWhere(ctx context.Context, cond string, arg any) (domain.Product, error) {
	rows, err := r.pool.Query(ctx, "SELECT "+productColumns+" FROM products WHERE "+cond, arg)
	if err != nil {
		return domain.Product{}, err
	}
	defer rows.Close()

	products, err := scanProducts(rows)
	if err != nil {
		return domain.Product{}, err
	}
	if len(products) == 0 {
		return domain.Product{}, domain.ErrNotFound
	}
	return products[0], nil
}

func (r *Repository) GetBatch(ctx context.Context, ids []uuid.UUID) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx, "SELECT "+productColumns+" FROM products WHERE id = ANY($1)", ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}

func scanProducts(rows pgx.Rows) ([]domain.Product, error) {
	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Title, &p.Slug, &p.Description, &p.PriceCents, &p.Stock,
			&p.CategoryID, &p.Images, &p.Tags, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

type CategoryRepository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewCategoryRepository(log *slog.Logger, pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{log: log, pool: pool}
}

func (r *CategoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, slug, created_at FROM categories ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cats []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

func (r *CategoryRepository) GetByIDOrSlug(ctx context.Context, key string) (domain.Category, error) {
	var c domain.Category
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, slug, created_at FROM categories WHERE slug = $1 OR id::text = $1`, key).
		Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Category{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Category{}, err
	}
	return c, nil
}
