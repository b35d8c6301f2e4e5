// Package eventledger remembers which webhook events were already
// reconciled so Stripe redeliveries can be acknowledged without work.
package eventledger

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Ledger interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Mark(ctx context.Context, eventID string) error
}

// Noop never reports an event as seen. Reconciliation is idempotent, so
// running without a ledger only costs repeated work.
type Noop struct{}

func (Noop) Seen(context.Context, string) (bool, error) { return false, nil }
func (Noop) Mark(context.Context, string) error         { return nil }

const keyPrefix = "stripe:event:"

type RedisLedger struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLedger(client *redis.Client, ttl time.Duration) *RedisLedger {
	return &RedisLedger{client: client, ttl: ttl}
}

func key(eventID string) string { return keyPrefix + eventID }

func (l *RedisLedger) Seen(ctx context.Context, eventID string) (bool, error) {
	n, err := l.client.Exists(ctx, key(eventID)).Result()
	if err != nil {
		return false, fmt.Errorf("event ledger lookup: %w", err)
	}
	return n > 0, nil
}

func (l *RedisLedger) Mark(ctx context.Context, eventID string) error {
	if err := l.client.SetNX(ctx, key(eventID), time.Now().UTC().Format(time.RFC3339), l.ttl).Err(); err != nil {
		return fmt.Errorf("event ledger mark: %w", err)
	}
	return nil
}

// NewRedisClient parses url and checks the connection.
func NewRedisClient(url string, log *zap.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Info("connected to redis", zap.String("addr", opts.Addr))
	return client, nil
}
