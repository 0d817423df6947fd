package redis

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/oakmart/storefront/internal/domain/order"
)

var _ order.IdempotencyStore = (*IdempotencyStore)(nil)

// IdempotencyStore reserves checkout attempts via SET NX, so exactly one of
// any set of concurrent retries creates the order.
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdempotencyStore creates a store whose claims expire after ttl.
func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{client: client, ttl: ttl}
}

func idemKey(key string) string { return "idem:checkout:" + key }

// Reserve claims the key for orderID. When the key is already held, the
// holding order's ID is returned instead.
func (s *IdempotencyStore) Reserve(ctx context.Context, key, orderID string) (string, bool, error) {
	ok, err := s.client.SetNX(ctx, idemKey(key), orderID, s.ttl).Result()
	if err != nil {
		return "", false, errors.Wrap(err, "reserve idempotency key")
	}
	if ok {
		return "", true, nil
	}

	existing, err := s.client.Get(ctx, idemKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		// Claim expired between SetNX and Get; treat as a fresh reserve.
		return s.Reserve(ctx, key, orderID)
	}
	if err != nil {
		return "", false, errors.Wrap(err, "read idempotency claim")
	}
	return existing, false, nil
}

// Release frees a claim after a failed checkout so the client can retry.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, idemKey(key)).Err(); err != nil {
		return errors.Wrap(err, "release idempotency key")
	}
	return nil
}
