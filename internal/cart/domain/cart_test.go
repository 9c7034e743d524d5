package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestAddAccumulatesInsteadOfDuplicating(t *testing.T) {
	c := New(uuid.New())
	productID := uuid.New()

	c.Add(productID, 2, 500)
	c.Add(productID, 3, 500)

	assert.Len(t, c.Lines, 1)
	assert.Equal(t, 5, c.Lines[0].Qty)
	assert.Equal(t, int64(2500), c.TotalCents)
}

func TestAddKeepsPriceOfFirstAdd(t *testing.T) {
	c := New(uuid.New())
	productID := uuid.New()

	c.Add(productID, 1, 500)
	// Second add passes a different catalog price; the captured one wins.
	c.Add(productID, 1, 900)

	line, ok := c.Line(productID)
	assert.True(t, ok)
	assert.Equal(t, int64(500), line.PriceAtAddCents)
	assert.Equal(t, int64(1000), c.TotalCents)
}

func TestSetQtyZeroRemovesLine(t *testing.T) {
	c := New(uuid.New())
	keep := uuid.New()
	drop := uuid.New()
	c.Add(keep, 1, 1000)
	c.Add(drop, 2, 300)

	c.SetQty(drop, 0)

	assert.Len(t, c.Lines, 1)
	_, ok := c.Line(drop)
	assert.False(t, ok)
	assert.Equal(t, int64(1000), c.TotalCents)
}

func TestSetQtyUnknownProductIsNoOp(t *testing.T) {
	c := New(uuid.New())
	c.Add(uuid.New(), 2, 700)

	c.SetQty(uuid.New(), 5)

	assert.Len(t, c.Lines, 1)
	assert.Equal(t, int64(1400), c.TotalCents)
}

func TestTotalAlwaysMatchesLines(t *testing.T) {
	c := New(uuid.New())
	a, b := uuid.New(), uuid.New()

	c.Add(a, 3, 100)
	c.Add(b, 1, 250)
	c.SetQty(a, 2)
	c.Add(b, 4, 250)
	c.SetQty(b, 1)

	var want int64
	for _, l := range c.Lines {
		want += int64(l.Qty) * l.PriceAtAddCents
	}
	assert.Equal(t, want, c.TotalCents)
	assert.Equal(t, int64(2*100+1*250), c.TotalCents)
}

func TestClearEmptiesAndZeroesTotal(t *testing.T) {
	c := New(uuid.New())
	c.Add(uuid.New(), 3, 10000)

	c.Clear()

	assert.True(t, c.IsEmpty())
	assert.Equal(t, int64(0), c.TotalCents)
}
