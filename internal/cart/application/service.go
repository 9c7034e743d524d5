package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/shopmono/storefront/internal/cart/domain"
	catalogdomain "github.com/shopmono/storefront/internal/catalog/domain"
)

var (
	ErrInvalidQty        = errors.New("invalid quantity")
	ErrInsufficientStock = errors.New("insufficient stock")
)

type Service struct {
	carts    CartRepository
	products ProductReader
}

func NewService(carts CartRepository, products ProductReader) *Service {
	return &Service{carts: carts, products: products}
}

// View is a cart with its lines resolved against the catalog for display.
type View struct {
	UserID     uuid.UUID
	Items      []ItemView
	TotalCents int64
}

// ItemView carries the resolved product when it still exists in the catalog;
// the line itself survives on its captured price either way.
type ItemView struct {
	ProductID       uuid.UUID
	Qty             int
	PriceAtAddCents int64
	Product         *catalogdomain.Product
}

// AddItem accumulates qty onto the user's cart line for the product, lazily
// creating the cart. The combined quantity may not exceed current stock; on
// violation the cart is left untouched. New lines capture the catalog price
// at this instant.
func (s *Service) AddItem(ctx context.Context, userID, productID uuid.UUID, qty int) (View, error) {
	if qty < 1 {
		return View{}, fmt.Errorf("%w: qty must be at least 1", ErrInvalidQty)
	}

	product, err := s.products.Get(ctx, productID)
	if err != nil {
		return View{}, err
	}

	cart, err := s.load(ctx, userID)
	if err != nil {
		return View{}, err
	}

	combined := qty
	if line, ok := cart.Line(productID); ok {
		combined += line.Qty
	}
	if combined > product.Stock {
		return View{}, fmt.Errorf("%w: %s", ErrInsufficientStock, product.Title)
	}

	cart.Add(productID, qty, product.PriceCents)
	if err := s.carts.Save(ctx, cart); err != nil {
		return View{}, err
	}
	return s.resolve(ctx, cart)
}

// UpdateQty replaces the quantity of the product's line; zero removes it.
// Updating a product that is not in the cart is an idempotent no-op that
// still persists the recomputed cart.
func (s *Service) UpdateQty(ctx context.Context, userID, productID uuid.UUID, qty int) (View, error) {
	if qty < 0 {
		return View{}, fmt.Errorf("%w: qty must be 0 or greater", ErrInvalidQty)
	}

	if qty > 0 {
		product, err := s.products.Get(ctx, productID)
		if err != nil {
			return View{}, err
		}
		if qty > product.Stock {
			return View{}, fmt.Errorf("%w: %s", ErrInsufficientStock, product.Title)
		}
	}

	cart, err := s.load(ctx, userID)
	if err != nil {
		return View{}, err
	}

	cart.SetQty(productID, qty)
	if err := s.carts.Save(ctx, cart); err != nil {
		return View{}, err
	}
	return s.resolve(ctx, cart)
}

// GetCart returns the user's cart resolved for display. A user without a
// cart observes the same thing as a user with an empty one.
func (s *Service) GetCart(ctx context.Context, userID uuid.UUID) (View, error) {
	cart, err := s.load(ctx, userID)
	if err != nil {
		return View{}, err
	}
	return s.resolve(ctx, cart)
}

func (s *Service) load(ctx context.Context, userID uuid.UUID) (domain.Cart, error) {
	cart, err := s.carts.Get(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.New(userID), nil
	}
	return cart, err
}

func (s *Service) resolve(ctx context.Context, cart domain.Cart) (View, error) {
	view := View{UserID: cart.UserID, TotalCents: cart.TotalCents, Items: make([]ItemView, 0, len(cart.Lines))}
	if cart.IsEmpty() {
		return view, nil
	}

	ids := make([]uuid.UUID, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		ids = append(ids, l.ProductID)
	}
	products, err := s.products.GetBatch(ctx, ids)
	if err != nil {
		return View{}, err
	}
	byID := make(map[uuid.UUID]catalogdomain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	for _, l := range cart.Lines {
		item := ItemView{ProductID: l.ProductID, Qty: l.Qty, PriceAtAddCents: l.PriceAtAddCents}
		if p, ok := byID[l.ProductID]; ok {
			item.Product = &p
		}
		view.Items = append(view.Items, item)
	}
	return view, nil
}
