package domain

import "github.com/google/uuid"

// OrderPlaced is emitted through the outbox when a checkout commits.
type OrderPlaced struct {
	OrderID       uuid.UUID `json:"order_id"`
	UserID        uuid.UUID `json:"user_id"`
	SubtotalCents int64     `json:"subtotal_cents"`
	Items         []Item    `json:"items"`
}
