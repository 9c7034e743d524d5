package application

import (
	"context"
	"log/slog"

	"github.com/shopmono/storefront/internal/order/domain"
)

// Service turns OrderPlaced events into customer-facing confirmations.
// Delivery is a log entry for now; the consumer plumbing (dedupe, tracing,
// commit discipline) is what matters here.
type Service struct {
	log *slog.Logger
}

func NewService(log *slog.Logger) *Service {
	return &Service{log: log}
}

func (s *Service) OrderPlaced(ctx context.Context, ev domain.OrderPlaced) error {
	s.log.InfoContext(ctx, "order confirmation",
		"order_id", ev.OrderID,
		"user_id", ev.UserID,
		"subtotal_cents", ev.SubtotalCents,
		"items", len(ev.Items),
	)
	return nil
}
