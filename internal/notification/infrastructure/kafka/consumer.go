package kafka

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/shopmono/storefront/internal/notification/application"
	orderdomain "github.com/shopmono/storefront/internal/order/domain"
	"github.com/shopmono/storefront/pkg/idempotency"
	"github.com/shopmono/storefront/pkg/tracing"
)

type Consumer struct {
	log    *slog.Logger
	reader *kafka.Reader
	svc    *application.Service
	idem   *idempotency.Store
	tracer trace.Tracer
}

func NewConsumer(log *slog.Logger, brokers []string, topic, group string, svc *application.Service, idem *idempotency.Store) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: group,
	})
	return &Consumer{
		log:    log,
		reader: r,
		svc:    svc,
		idem:   idem,
		tracer: otel.Tracer("notification-consumer"),
	}
}

func (c *Consumer) Run(ctx context.Context) error {
	defer c.reader.Close()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			return err
		}

		key := c.idem.MessageKey(msg.Topic, msg.Partition, msg.Offset)
		seen, err := c.idem.Seen(ctx, key)
		if err != nil {
			c.log.Error("idempotency check failed", "err", err)
			continue
		}
		if seen {
			c.log.Info("duplicate message skipped", "key", key)
			_ = c.reader.CommitMessages(ctx, msg)
			continue
		}

		msgCtx := tracing.ExtractKafkaHeaders(ctx, msg.Headers)
		msgCtx, span := c.tracer.Start(msgCtx, "HandleOrderPlaced")

		if eventType(msg.Headers) != "OrderPlaced" {
			span.End()
			_ = c.reader.CommitMessages(ctx, msg)
			continue
		}

		var ev orderdomain.OrderPlaced
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			c.log.Error("bad event payload", "err", err, "offset", msg.Offset)
			span.End()
			_ = c.reader.CommitMessages(ctx, msg)
			continue
		}

		if err := c.svc.OrderPlaced(msgCtx, ev); err != nil {
			c.log.Error("notification failed", "err", err, "order_id", ev.OrderID)
			span.End()
			continue
		}
		span.End()

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.log.Error("commit failed", "err", err)
		}
	}
}

func eventType(headers []kafka.Header) string {
	for _, h := range headers {
		if h.Key == "event_type" {
			return string(h.Value)
		}
	}
	return ""
}
