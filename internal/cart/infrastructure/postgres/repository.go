package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shopmono/storefront/internal/cart/domain"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) Get(ctx context.Context, userID uuid.UUID) (domain.Cart, error) {
	var cart domain.Cart
	err := r.pool.QueryRow(ctx,
		`SELECT user_id, total_cents, updated_at FROM carts WHERE user_id = $1`, userID).
		Scan(&cart.UserID, &cart.TotalCents, &cart.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Cart{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Cart{}, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT product_id, qty, price_at_add_cents FROM cart_items WHERE user_id = $1`, userID)
	if err != nil {
		return domain.Cart{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var l domain.Line
		if err := rows.Scan(&l.ProductID, &l.Qty, &l.PriceAtAddCents); err != nil {
			return domain.Cart{}, err
		}
		cart.Lines = append(cart.Lines, l)
	}
	return cart, rows.Err()
}

// Save replaces the whole aggregate in one transaction: the carts row is
// upserted, every line row is rewritten. PK (user_id, product_id) makes
// duplicate lines unrepresentable.
func (r *Repository) Save(ctx context.Context, cart domain.Cart) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	_, err = tx.Exec(ctx, `INSERT INTO carts (user_id, total_cents, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET total_cents = $2, updated_at = $3`,
		cart.UserID, cart.TotalCents, cart.UpdatedAt)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, cart.UserID)
	if err != nil {
		return err
	}

	if len(cart.Lines) > 0 {
		batch := &pgx.Batch{}
		for _, l := range cart.Lines {
			batch.Queue(`INSERT INTO cart_items (user_id, product_id, qty, price_at_add_cents)
				VALUES ($1, $2, $3, $4)`,
				cart.UserID, l.ProductID, l.Qty, l.PriceAtAddCents)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}
