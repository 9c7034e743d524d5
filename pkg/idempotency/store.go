package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store remembers request and message keys for a TTL window so duplicate
// submissions (double-clicked checkouts, re-delivered kafka messages) can be
// detected with a single SETNX round trip.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

// RequestKey namespaces a client-supplied Idempotency-Key per user.
func (s *Store) RequestKey(userID, key string) string {
	return fmt.Sprintf("idem:req:%s:%s", userID, key)
}

// MessageKey identifies a kafka message by its position in the log.
func (s *Store) MessageKey(topic string, partition int, offset int64) string {
	return fmt.Sprintf("idem:msg:%s:%d:%d", topic, partition, offset)
}

// Seen records key and reports whether it had been recorded before.
func (s *Store) Seen(ctx context.Context, key string) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, key, "1", s.ttl).Result()
	if err != nil {
		return false, err
	}
	return !ok, nil
}
