package integration

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	cartapp "github.com/shopmono/storefront/internal/cart/application"
	cartpg "github.com/shopmono/storefront/internal/cart/infrastructure/postgres"
	catalogpg "github.com/shopmono/storefront/internal/catalog/infrastructure/postgres"
	orderapp "github.com/shopmono/storefront/internal/order/application"
	orderdomain "github.com/shopmono/storefront/internal/order/domain"
	orderpg "github.com/shopmono/storefront/internal/order/infrastructure/postgres"
	storagepg "github.com/shopmono/storefront/internal/storage/postgres"
)

// TestCheckout runs the cart-to-order path against a real postgres instance.
// Requires docker; skipped in -short mode.
func TestCheckout(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	env, err := Setup(ctx)
	if err != nil {
		t.Skipf("container setup failed (docker unavailable?): %v", err)
	}
	defer env.Teardown(ctx)

	pool, err := pgxpool.New(ctx, env.PGURL)
	require.NoError(t, err)
	defer pool.Close()

	require.NoError(t, storagepg.Migrate(ctx, pool))

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	catID := uuid.New()
	_, err = pool.Exec(ctx,
		`INSERT INTO categories (id, name, slug) VALUES ($1, $2, $3)`,
		catID, "Electronics", "electronics")
	require.NoError(t, err)

	productID := uuid.New()
	_, err = pool.Exec(ctx,
		`INSERT INTO products (id, title, slug, description, price_cents, stock, category_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		productID, "Wireless Mouse", "wireless-mouse", "ergonomic mouse", int64(59900), 1, catID)
	require.NoError(t, err)

	products := catalogpg.NewRepository(log, pool)
	carts := cartpg.NewRepository(log, pool)
	orders := orderpg.NewRepository(log, pool)

	cartSvc := cartapp.NewService(carts, products)
	orderSvc := orderapp.NewService(orders, carts, products)

	addr := orderdomain.Address{Line1: "12 High St", City: "Pune", Pin: "411001"}

	alice, bob := uuid.New(), uuid.New()
	_, err = cartSvc.AddItem(ctx, alice, productID, 1)
	require.NoError(t, err)
	_, err = cartSvc.AddItem(ctx, bob, productID, 1)
	require.NoError(t, err)

	// Only one of the two carts can win the last unit.
	placed, err := orderSvc.PlaceOrder(ctx, alice, addr)
	require.NoError(t, err)
	require.Equal(t, int64(59900), placed.Order.SubtotalCents)
	require.Equal(t, orderdomain.StatusPlaced, placed.Order.Status)

	_, err = orderSvc.PlaceOrder(ctx, bob, addr)
	require.ErrorIs(t, err, orderapp.ErrStockChanged)

	var stock int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT stock FROM products WHERE id = $1`, productID).Scan(&stock))
	require.Equal(t, 0, stock)

	// Winner's cart is cleared in the same transaction.
	view, err := cartSvc.GetCart(ctx, alice)
	require.NoError(t, err)
	require.Empty(t, view.Items)

	// Loser's cart survives intact for a retry.
	view, err = cartSvc.GetCart(ctx, bob)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)

	// The order placement left exactly one pending outbox row.
	store := orderpg.NewOutboxStore(log, pool)
	events, err := store.LockBatch(ctx, "it-relay", 10, time.Minute)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "OrderPlaced", events[0].Type)
	require.Equal(t, placed.Order.ID.String(), events[0].AggregateID)
}
