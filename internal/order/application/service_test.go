package application_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartdomain "github.com/shopmono/storefront/internal/cart/domain"
	cartmem "github.com/shopmono/storefront/internal/cart/infrastructure/memory"
	catalogdomain "github.com/shopmono/storefront/internal/catalog/domain"
	catalogmem "github.com/shopmono/storefront/internal/catalog/infrastructure/memory"
	"github.com/shopmono/storefront/internal/order/application"
	"github.com/shopmono/storefront/internal/order/domain"
	ordermem "github.com/shopmono/storefront/internal/order/infrastructure/memory"
)

type fixture struct {
	svc     *application.Service
	catalog *catalogmem.Store
	carts   *cartmem.Repository
	orders  *ordermem.Repository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	catalog := catalogmem.NewStore()
	carts := cartmem.NewRepository()
	orders := ordermem.NewRepository(catalog, carts)
	return &fixture{
		svc:     application.NewService(orders, carts, catalog),
		catalog: catalog,
		carts:   carts,
		orders:  orders,
	}
}

func (f *fixture) seedProduct(t *testing.T, title string, priceCents int64, stock int) catalogdomain.Product {
	t.Helper()
	p := catalogdomain.NewProduct(title, "", priceCents, stock, uuid.New())
	f.catalog.PutProduct(p)
	return p
}

func (f *fixture) seedCart(t *testing.T, userID uuid.UUID, lines ...cartdomain.Line) {
	t.Helper()
	cart := cartdomain.New(userID)
	for _, l := range lines {
		cart.Add(l.ProductID, l.Qty, l.PriceAtAddCents)
	}
	require.NoError(t, f.carts.Save(context.Background(), cart))
}

var validAddress = domain.Address{Line1: "12 MG Road", City: "Pune", Pin: "411001"}

func TestPlaceOrderHappyPath(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	p := f.seedProduct(t, "Wireless Mouse", 10000, 3)
	f.seedCart(t, userID, cartdomain.Line{ProductID: p.ID, Qty: 3, PriceAtAddCents: 10000})

	view, err := f.svc.PlaceOrder(context.Background(), userID, validAddress)
	require.NoError(t, err)

	assert.Equal(t, int64(30000), view.Order.SubtotalCents)
	assert.Equal(t, domain.StatusPlaced, view.Order.Status)
	assert.Equal(t, domain.PaymentMethodCOD, view.Order.Payment.Method)
	assert.Equal(t, domain.PaymentStatusPendingCollection, view.Order.Payment.Status)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 3, view.Items[0].Qty)

	// Stock consumed to zero, cart cleared.
	assert.Equal(t, 0, f.catalog.Stock(p.ID))
	cart, err := f.carts.Get(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
	assert.Equal(t, int64(0), cart.TotalCents)
}

func TestPlaceOrderRejectsInvalidAddress(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	p := f.seedProduct(t, "Yoga Mat", 89900, 5)
	f.seedCart(t, userID, cartdomain.Line{ProductID: p.ID, Qty: 1, PriceAtAddCents: 89900})

	_, err := f.svc.PlaceOrder(context.Background(), userID, domain.Address{Line1: " ", City: "Pune", Pin: "411001"})

	assert.ErrorIs(t, err, domain.ErrInvalidAddress)
	// No side effects.
	assert.Equal(t, 5, f.catalog.Stock(p.ID))
	assert.Equal(t, 0, f.orders.Count())
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()

	// No cart at all.
	_, err := f.svc.PlaceOrder(context.Background(), userID, validAddress)
	assert.ErrorIs(t, err, application.ErrEmptyCart)

	// Cart exists but has no lines.
	f.seedCart(t, userID)
	_, err = f.svc.PlaceOrder(context.Background(), userID, validAddress)
	assert.ErrorIs(t, err, application.ErrEmptyCart)
}

func TestPlaceOrderStockChangedRollsBackEverything(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	plenty := f.seedProduct(t, "Steel Bottle", 79900, 100)
	scarce := f.seedProduct(t, "Face Serum", 79900, 1)
	f.seedCart(t, userID,
		cartdomain.Line{ProductID: plenty.ID, Qty: 2, PriceAtAddCents: 79900},
		cartdomain.Line{ProductID: scarce.ID, Qty: 5, PriceAtAddCents: 79900},
	)

	_, err := f.svc.PlaceOrder(context.Background(), userID, validAddress)
	assert.ErrorIs(t, err, application.ErrStockChanged)

	// The matching decrement on the first product must have been undone.
	assert.Equal(t, 100, f.catalog.Stock(plenty.ID))
	assert.Equal(t, 1, f.catalog.Stock(scarce.ID))
	// No order, cart untouched.
	assert.Equal(t, 0, f.orders.Count())
	cart, err := f.carts.Get(context.Background(), userID)
	require.NoError(t, err)
	assert.Len(t, cart.Lines, 2)
	assert.Equal(t, int64(7*79900), cart.TotalCents)
}

func TestPlaceOrderFreezesPrices(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	p := f.seedProduct(t, "Bluetooth Headphones", 199900, 10)
	f.seedCart(t, userID, cartdomain.Line{ProductID: p.ID, Qty: 1, PriceAtAddCents: 199900})

	view, err := f.svc.PlaceOrder(context.Background(), userID, validAddress)
	require.NoError(t, err)

	f.catalog.SetPrice(p.ID, 259900)

	got, err := f.svc.GetOrder(context.Background(), userID, view.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(199900), got.Items[0].PriceAtAddCents)
	assert.Equal(t, int64(199900), got.Order.SubtotalCents)
}

func TestTwoConcurrentCheckoutsOneWins(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t, "Smartwatch", 349900, 5)
	alice, bob := uuid.New(), uuid.New()
	f.seedCart(t, alice, cartdomain.Line{ProductID: p.ID, Qty: 5, PriceAtAddCents: 349900})
	f.seedCart(t, bob, cartdomain.Line{ProductID: p.ID, Qty: 5, PriceAtAddCents: 349900})

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i, userID := range []uuid.UUID{alice, bob} {
		i, userID := i, userID
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.svc.PlaceOrder(context.Background(), userID, validAddress)
		}()
	}
	wg.Wait()

	var won, lost int
	for _, err := range errs {
		if err == nil {
			won++
		} else {
			assert.ErrorIs(t, err, application.ErrStockChanged)
			lost++
		}
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, 1, lost)
	assert.Equal(t, 0, f.catalog.Stock(p.ID))
	assert.Equal(t, 1, f.orders.Count())

	// The loser's cart is unchanged and retryable.
	for _, userID := range []uuid.UUID{alice, bob} {
		cart, err := f.carts.Get(context.Background(), userID)
		require.NoError(t, err)
		if f.mustOrderCount(t, userID) == 0 {
			assert.Len(t, cart.Lines, 1)
			assert.Equal(t, int64(5*349900), cart.TotalCents)
		} else {
			assert.True(t, cart.IsEmpty())
		}
	}
}

func (f *fixture) mustOrderCount(t *testing.T, userID uuid.UUID) int {
	t.Helper()
	orders, err := f.svc.ListOrders(context.Background(), userID)
	require.NoError(t, err)
	return len(orders)
}

func TestStockNeverNegativeUnderContention(t *testing.T) {
	f := newFixture(t)
	const (
		stock    = 7
		qty      = 2
		shoppers = 20
	)
	p := f.seedProduct(t, "Dumbbells", 249900, stock)

	users := make([]uuid.UUID, shoppers)
	for i := range users {
		users[i] = uuid.New()
		f.seedCart(t, users[i], cartdomain.Line{ProductID: p.ID, Qty: qty, PriceAtAddCents: 249900})
	}

	errs := make([]error, shoppers)
	var wg sync.WaitGroup
	for i, userID := range users {
		i, userID := i, userID
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.svc.PlaceOrder(context.Background(), userID, validAddress)
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, application.ErrStockChanged)
		}
	}

	// Exactly floor(stock/qty) checkouts can be satisfied.
	assert.Equal(t, stock/qty, succeeded)
	assert.Equal(t, stock-succeeded*qty, f.catalog.Stock(p.ID))
	assert.GreaterOrEqual(t, f.catalog.Stock(p.ID), 0)
	assert.Equal(t, succeeded, f.orders.Count())
}

func TestListOrdersNewestFirst(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	p := f.seedProduct(t, "T-Shirt", 49900, 100)

	var placed []uuid.UUID
	for i := 0; i < 3; i++ {
		f.seedCart(t, userID, cartdomain.Line{ProductID: p.ID, Qty: 1, PriceAtAddCents: 49900})
		view, err := f.svc.PlaceOrder(context.Background(), userID, validAddress)
		require.NoError(t, err)
		placed = append(placed, view.Order.ID)
		time.Sleep(time.Millisecond)
	}

	views, err := f.svc.ListOrders(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, views, 3)
	assert.Equal(t, placed[2], views[0].Order.ID)
	assert.Equal(t, placed[1], views[1].Order.ID)
	assert.Equal(t, placed[0], views[2].Order.ID)
	for _, v := range views {
		require.Len(t, v.Items, 1)
		require.NotNil(t, v.Items[0].Product)
		assert.Equal(t, "T-Shirt", v.Items[0].Product.Title)
	}
}

func TestGetOrderScopedToOwner(t *testing.T) {
	f := newFixture(t)
	owner, stranger := uuid.New(), uuid.New()
	p := f.seedProduct(t, "Frying Pan", 129900, 10)
	f.seedCart(t, owner, cartdomain.Line{ProductID: p.ID, Qty: 1, PriceAtAddCents: 129900})

	view, err := f.svc.PlaceOrder(context.Background(), owner, validAddress)
	require.NoError(t, err)

	_, err = f.svc.GetOrder(context.Background(), stranger, view.Order.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
