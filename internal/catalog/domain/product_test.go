package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Wireless Mouse", "wireless-mouse"},
		{"USB-C Charger 25W", "usb-c-charger-25w"},
		{"  Home & Kitchen  ", "home-kitchen"},
		{"Yoga Mat (6mm)", "yoga-mat-6mm"},
		{"---", ""},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, Slugify(tc.in))
		})
	}
}

func TestNewProductDerivesSlug(t *testing.T) {
	p := NewProduct("Bluetooth Headphones", "over-ear", 199900, 50, uuid.New())

	assert.Equal(t, "bluetooth-headphones", p.Slug)
	assert.NotEqual(t, uuid.Nil, p.ID)
	assert.Equal(t, p.CreatedAt, p.UpdatedAt)
}
