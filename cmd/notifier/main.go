package main

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	notifyapp "github.com/shopmono/storefront/internal/notification/application"
	notifykafka "github.com/shopmono/storefront/internal/notification/infrastructure/kafka"
	"github.com/shopmono/storefront/pkg/idempotency"
	"github.com/shopmono/storefront/pkg/logging"
	"github.com/shopmono/storefront/pkg/shutdown"
	"github.com/shopmono/storefront/pkg/tracing"
)

func main() {
	log := logging.New("notifier")

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	kafkaBrokers := strings.Split(env("KAFKA_ADDR", "localhost:9092"), ",")
	redisAddr := env("REDIS_ADDR", "localhost:6379")
	otlpAddr := env("OTLP_ADDR", "localhost:4317")
	topic := env("OUTBOX_TOPIC", "order.events")
	group := env("CONSUMER_GROUP", "notifier")

	tp, err := tracing.Init(ctx, "notifier", otlpAddr, log)
	if err != nil {
		log.Error("otel init failed", "err", err)
		os.Exit(1)
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer rdb.Close()
	idem := idempotency.NewStore(rdb, 24*time.Hour)

	svc := notifyapp.NewService(log)
	consumer := notifykafka.NewConsumer(log, kafkaBrokers, topic, group, svc, idem)

	log.Info("notifier consuming", "topic", topic, "group", group)
	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("consumer stopped with error", "err", err)
		os.Exit(1)
	}
	log.Info("notifier shutdown complete")
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
