// Package postgres owns the database schema. Migrate runs idempotent DDL at
// service startup; the CHECK on products.stock is the database-level backstop
// for the conditional-decrement invariant.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

var statements = []string{
	`CREATE TABLE IF NOT EXISTS categories (
		id         UUID PRIMARY KEY,
		name       TEXT NOT NULL UNIQUE,
		slug       TEXT NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id          UUID PRIMARY KEY,
		title       TEXT NOT NULL,
		slug        TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		price_cents BIGINT NOT NULL CHECK (price_cents >= 0),
		stock       INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
		category_id UUID NOT NULL REFERENCES categories(id),
		images      TEXT[] NOT NULL DEFAULT '{}',
		tags        TEXT[] NOT NULL DEFAULT '{}',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_products_category ON products (category_id)`,
	`CREATE INDEX IF NOT EXISTS idx_products_created ON products (created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS users (
		id            UUID PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		name          TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS carts (
		user_id     UUID PRIMARY KEY,
		total_cents BIGINT NOT NULL DEFAULT 0,
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS cart_items (
		user_id            UUID NOT NULL REFERENCES carts(user_id),
		product_id         UUID NOT NULL,
		qty                INTEGER NOT NULL CHECK (qty >= 1),
		price_at_add_cents BIGINT NOT NULL,
		PRIMARY KEY (user_id, product_id)
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id             UUID PRIMARY KEY,
		user_id        UUID NOT NULL,
		subtotal_cents BIGINT NOT NULL CHECK (subtotal_cents >= 0),
		address_line1  TEXT NOT NULL,
		address_city   TEXT NOT NULL,
		address_pin    TEXT NOT NULL,
		payment_method TEXT NOT NULL,
		payment_status TEXT NOT NULL,
		status         TEXT NOT NULL,
		created_at     TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_user ON orders (user_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		order_id           UUID NOT NULL REFERENCES orders(id),
		product_id         UUID NOT NULL,
		qty                INTEGER NOT NULL CHECK (qty >= 1),
		price_at_add_cents BIGINT NOT NULL,
		PRIMARY KEY (order_id, product_id)
	)`,
	`CREATE TABLE IF NOT EXISTS outbox (
		id             BIGSERIAL PRIMARY KEY,
		aggregate_type TEXT NOT NULL,
		aggregate_id   TEXT NOT NULL,
		type           TEXT NOT NULL,
		payload        JSONB NOT NULL,
		traceparent    TEXT NOT NULL DEFAULT '',
		status         TEXT NOT NULL DEFAULT 'pending',
		relay_id       TEXT,
		lease_until    TIMESTAMPTZ,
		retry_count    INTEGER NOT NULL DEFAULT 0,
		last_error     TEXT,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_outbox_pending ON outbox (status, id)`,
}

func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
