package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when an order does not exist or belongs to a
	// different user.
	ErrNotFound = errors.New("order not found")
	// ErrInvalidAddress is returned when a shipping address field is blank.
	ErrInvalidAddress = errors.New("invalid address")
)

type Status string

// Fulfillment lifecycle is monotonic; checkout only ever produces
// StatusPlaced, later transitions belong to fulfillment tooling.
const (
	StatusPlaced    Status = "PLACED"
	StatusPacked    Status = "PACKED"
	StatusShipped   Status = "SHIPPED"
	StatusDelivered Status = "DELIVERED"
)

const (
	PaymentMethodCOD               = "cod"
	PaymentStatusPendingCollection = "PENDING_COLLECTION"
)

type Address struct {
	Line1 string
	City  string
	Pin   string
}

// Normalize trims all fields and fails if any of the three is empty.
func (a Address) Normalize() (Address, error) {
	out := Address{
		Line1: strings.TrimSpace(a.Line1),
		City:  strings.TrimSpace(a.City),
		Pin:   strings.TrimSpace(a.Pin),
	}
	if out.Line1 == "" || out.City == "" || out.Pin == "" {
		return Address{}, ErrInvalidAddress
	}
	return out, nil
}

type Payment struct {
	Method string
	Status string
}

// Item is a frozen copy of a cart line. Once the order exists, nothing
// updates these values.
type Item struct {
	ProductID       uuid.UUID
	Qty             int
	PriceAtAddCents int64
}

// Order is immutable once created and append-only in storage.
type Order struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	Items         []Item
	SubtotalCents int64
	Address       Address
	Payment       Payment
	Status        Status
	CreatedAt     time.Time
}

// New snapshots the given items and subtotal into a freshly placed
// cash-on-delivery order.
func New(userID uuid.UUID, items []Item, subtotalCents int64, address Address) Order {
	return Order{
		ID:            uuid.New(),
		UserID:        userID,
		Items:         append([]Item(nil), items...),
		SubtotalCents: subtotalCents,
		Address:       address,
		Payment:       Payment{Method: PaymentMethodCOD, Status: PaymentStatusPendingCollection},
		Status:        StatusPlaced,
		CreatedAt:     time.Now().UTC(),
	}
}
