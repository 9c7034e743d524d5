package application

import (
	"context"
	"errors"

	"github.com/google/uuid"

	cartdomain "github.com/shopmono/storefront/internal/cart/domain"
	catalogdomain "github.com/shopmono/storefront/internal/catalog/domain"
	"github.com/shopmono/storefront/internal/order/domain"
)

var (
	// ErrEmptyCart rejects a checkout with nothing in the cart.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrStockChanged means a concurrent checkout won the stock race. The
	// caller may re-validate the cart and retry; nothing was mutated.
	ErrStockChanged = errors.New("stock changed while ordering")
)

type Service struct {
	orders   OrderRepository
	carts    CartReader
	products ProductReader
}

func NewService(orders OrderRepository, carts CartReader, products ProductReader) *Service {
	return &Service{orders: orders, carts: carts, products: products}
}

// View is an order with product references resolved for display.
type View struct {
	Order domain.Order
	Items []ItemView
}

type ItemView struct {
	ProductID       uuid.UUID
	Qty             int
	PriceAtAddCents int64
	Product         *catalogdomain.Product
}

// PlaceOrder converts the user's cart into an immutable order. All
// validation runs before any write; the write itself is a single atomic
// unit in the order repository. On ErrStockChanged the system is exactly in
// its pre-call state.
func (s *Service) PlaceOrder(ctx context.Context, userID uuid.UUID, address domain.Address) (View, error) {
	addr, err := address.Normalize()
	if err != nil {
		return View{}, err
	}

	cart, err := s.carts.Get(ctx, userID)
	if errors.Is(err, cartdomain.ErrNotFound) {
		return View{}, ErrEmptyCart
	}
	if err != nil {
		return View{}, err
	}
	if cart.IsEmpty() {
		return View{}, ErrEmptyCart
	}

	// Snapshot: the order is built from the lines and total read here;
	// concurrent edits to the cart during this call are not observed.
	items := make([]domain.Item, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		items = append(items, domain.Item{
			ProductID:       l.ProductID,
			Qty:             l.Qty,
			PriceAtAddCents: l.PriceAtAddCents,
		})
	}
	order := domain.New(userID, items, cart.TotalCents, addr)

	if err := s.orders.CreateFromCart(ctx, order); err != nil {
		return View{}, err
	}
	return s.resolve(ctx, order)
}

// ListOrders returns the user's orders newest-first.
func (s *Service) ListOrders(ctx context.Context, userID uuid.UUID) ([]View, error) {
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	views := make([]View, 0, len(orders))
	for _, o := range orders {
		v, err := s.resolve(ctx, o)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

func (s *Service) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (View, error) {
	o, err := s.orders.Get(ctx, userID, orderID)
	if err != nil {
		return View{}, err
	}
	return s.resolve(ctx, o)
}

func (s *Service) resolve(ctx context.Context, o domain.Order) (View, error) {
	ids := make([]uuid.UUID, 0, len(o.Items))
	for _, it := range o.Items {
		ids = append(ids, it.ProductID)
	}
	products, err := s.products.GetBatch(ctx, ids)
	if err != nil {
		return View{}, err
	}
	byID := make(map[uuid.UUID]catalogdomain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	view := View{Order: o, Items: make([]ItemView, 0, len(o.Items))}
	for _, it := range o.Items {
		item := ItemView{ProductID: it.ProductID, Qty: it.Qty, PriceAtAddCents: it.PriceAtAddCents}
		if p, ok := byID[it.ProductID]; ok {
			item.Product = &p
		}
		view.Items = append(view.Items, item)
	}
	return view, nil
}
