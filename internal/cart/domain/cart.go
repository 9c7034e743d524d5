package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by stores when a user has no cart row yet. Callers
// treat it as an empty cart, never as a user-visible error.
var ErrNotFound = errors.New("cart not found")

// Line is one (product, quantity, captured price) entry. PriceAtAddCents is
// fixed when the line is first added; catalog price changes never touch it.
type Line struct {
	ProductID       uuid.UUID
	Qty             int
	PriceAtAddCents int64
}

// Cart is the per-user mutable aggregate. Lines are keyed by product: Add and
// SetQty keep at most one line per product, and TotalCents is recomputed on
// every mutation so it always equals the sum over the lines.
type Cart struct {
	UserID     uuid.UUID
	Lines      []Line
	TotalCents int64
	UpdatedAt  time.Time
}

func New(userID uuid.UUID) Cart {
	return Cart{UserID: userID, UpdatedAt: time.Now().UTC()}
}

// Line returns the line for a product, if present.
func (c *Cart) Line(productID uuid.UUID) (Line, bool) {
	for _, l := range c.Lines {
		if l.ProductID == productID {
			return l, true
		}
	}
	return Line{}, false
}

// Add accumulates qty onto an existing line or appends a new one with the
// given captured price.
func (c *Cart) Add(productID uuid.UUID, qty int, priceAtAddCents int64) {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			c.Lines[i].Qty += qty
			c.recompute()
			return
		}
	}
	c.Lines = append(c.Lines, Line{ProductID: productID, Qty: qty, PriceAtAddCents: priceAtAddCents})
	c.recompute()
}

// SetQty replaces a line's quantity; zero removes the line. Unknown products
// are a no-op.
func (c *Cart) SetQty(productID uuid.UUID, qty int) {
	for i := range c.Lines {
		if c.Lines[i].ProductID != productID {
			continue
		}
		if qty == 0 {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
		} else {
			c.Lines[i].Qty = qty
		}
		break
	}
	c.recompute()
}

// Clear empties the cart without deleting it.
func (c *Cart) Clear() {
	c.Lines = nil
	c.recompute()
}

func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

func (c *Cart) recompute() {
	var total int64
	for _, l := range c.Lines {
		total += int64(l.Qty) * l.PriceAtAddCents
	}
	c.TotalCents = total
	c.UpdatedAt = time.Now().UTC()
}
