package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/shopmono/storefront/internal/order/application"
	"github.com/shopmono/storefront/internal/order/domain"
	"github.com/shopmono/storefront/pkg/outbox"
	"github.com/shopmono/storefront/pkg/tracing"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

// CreateFromCart runs the checkout as one transaction. The stock writes are
// conditional UPDATEs, not read-check-write: each statement only matches
// while stock >= qty, so two concurrent checkouts can never drive a counter
// negative. One missed match rolls the whole transaction back.
func (r *Repository) CreateFromCart(ctx context.Context, o domain.Order) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	decrements := &pgx.Batch{}
	for _, it := range o.Items {
		decrements.Queue(`UPDATE products SET stock = stock - $2, updated_at = now()
			WHERE id = $1 AND stock >= $2`, it.ProductID, it.Qty)
	}
	br := tx.SendBatch(ctx, decrements)
	matched := 0
	for range o.Items {
		ct, err := br.Exec()
		if err != nil {
			_ = br.Close()
			return fmt.Errorf("stock decrement: %w", err)
		}
		matched += int(ct.RowsAffected())
	}
	if err := br.Close(); err != nil {
		return err
	}
	if matched != len(o.Items) {
		// Someone else bought meanwhile; the deferred rollback undoes the
		// decrements that did match.
		return application.ErrStockChanged
	}

	_, err = tx.Exec(ctx, `INSERT INTO orders
		(id, user_id, subtotal_cents, address_line1, address_city, address_pin,
		 payment_method, payment_status, status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		o.ID, o.UserID, o.SubtotalCents, o.Address.Line1, o.Address.City, o.Address.Pin,
		o.Payment.Method, o.Payment.Status, o.Status, o.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	items := &pgx.Batch{}
	for _, it := range o.Items {
		items.Queue(`INSERT INTO order_items (order_id, product_id, qty, price_at_add_cents)
			VALUES ($1,$2,$3,$4)`, o.ID, it.ProductID, it.Qty, it.PriceAtAddCents)
	}
	if err := tx.SendBatch(ctx, items).Close(); err != nil {
		return fmt.Errorf("insert order items: %w", err)
	}

	_, err = tx.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, o.UserID)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	_, err = tx.Exec(ctx, `UPDATE carts SET total_cents = 0, updated_at = now() WHERE user_id = $1`, o.UserID)
	if err != nil {
		return fmt.Errorf("clear cart total: %w", err)
	}

	payload, err := json.Marshal(domain.OrderPlaced{
		OrderID:       o.ID,
		UserID:        o.UserID,
		SubtotalCents: o.SubtotalCents,
		Items:         o.Items,
	})
	if err != nil {
		return err
	}
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	_, err = tx.Exec(ctx, `INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, traceparent, status)
		VALUES ($1,$2,$3,$4,$5,'pending')`,
		"order", o.ID.String(), "OrderPlaced", payload, carrier[tracing.TraceparentHeader])
	if err != nil {
		return fmt.Errorf("insert outbox: %w", err)
	}

	return tx.Commit(ctx)
}

const orderColumns = `id, user_id, subtotal_cents, address_line1, address_city, address_pin,
	payment_method, payment_status, status, created_at`

func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		index[o.ID] = len(orders)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]uuid.UUID, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	itemRows, err := r.pool.Query(ctx,
		`SELECT order_id, product_id, qty, price_at_add_cents FROM order_items WHERE order_id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer itemRows.Close()
	for itemRows.Next() {
		var orderID uuid.UUID
		var it domain.Item
		if err := itemRows.Scan(&orderID, &it.ProductID, &it.Qty, &it.PriceAtAddCents); err != nil {
			return nil, err
		}
		i := index[orderID]
		orders[i].Items = append(orders[i].Items, it)
	}
	return orders, itemRows.Err()
}

func (r *Repository) Get(ctx context.Context, userID, orderID uuid.UUID) (domain.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1 AND user_id = $2`, orderID, userID)
	if err != nil {
		return domain.Order{}, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return domain.Order{}, err
		}
		return domain.Order{}, domain.ErrNotFound
	}
	o, err := scanOrder(rows)
	if err != nil {
		return domain.Order{}, err
	}
	rows.Close()

	itemRows, err := r.pool.Query(ctx,
		`SELECT product_id, qty, price_at_add_cents FROM order_items WHERE order_id = $1`, o.ID)
	if err != nil {
		return domain.Order{}, err
	}
	defer itemRows.Close()
	for itemRows.Next() {
		var it domain.Item
		if err := itemRows.Scan(&it.ProductID, &it.Qty, &it.PriceAtAddCents); err != nil {
			return domain.Order{}, err
		}
		o.Items = append(o.Items, it)
	}
	return o, itemRows.Err()
}

func scanOrder(rows pgx.Rows) (domain.Order, error) {
	var o domain.Order
	err := rows.Scan(&o.ID, &o.UserID, &o.SubtotalCents, &o.Address.Line1, &o.Address.City,
		&o.Address.Pin, &o.Payment.Method, &o.Payment.Status, &o.Status, &o.CreatedAt)
	return o, err
}

// OutboxStore leases and settles outbox rows for the relay.
type OutboxStore struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewOutboxStore(log *slog.Logger, pool *pgxpool.Pool) *OutboxStore {
	return &OutboxStore{log: log, pool: pool}
}

func (s *OutboxStore) LockBatch(ctx context.Context, relayID string, batchSize int, lease time.Duration) ([]outbox.Event, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	rows, err := tx.Query(ctx, `
		SELECT id, aggregate_type, aggregate_id, type, payload, traceparent, created_at
		FROM outbox
		WHERE status = 'pending' OR (status = 'in_progress' AND lease_until < now())
		ORDER BY id
		FOR UPDATE SKIP LOCKED
		LIMIT $1`, batchSize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []outbox.Event
	for rows.Next() {
		var ev outbox.Event
		if err := rows.Scan(&ev.ID, &ev.AggregateType, &ev.AggregateID, &ev.Type,
			&ev.Payload, &ev.Traceparent, &ev.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, tx.Commit(ctx)
	}

	ids := make([]int64, 0, len(events))
	for _, ev := range events {
		ids = append(ids, ev.ID)
	}
	_, err = tx.Exec(ctx, `UPDATE outbox SET status = 'in_progress', relay_id = $1,
		lease_until = now() + $2::interval WHERE id = ANY($3)`, relayID, lease.String(), ids)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return events, nil
}

func (s *OutboxStore) MarkSent(ctx context.Context, ids []int64) error {
	ct, err := s.pool.Exec(ctx, `UPDATE outbox SET status = 'sent' WHERE id = ANY($1)`, ids)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return errors.New("no outbox rows updated")
	}
	return nil
}

func (s *OutboxStore) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	_, err := s.pool.Exec(ctx, `UPDATE outbox SET status = 'failed', last_error = $2,
		retry_count = retry_count + 1 WHERE id = $1`, id, errMsg)
	return err
}
