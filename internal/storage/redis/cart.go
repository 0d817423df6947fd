package redis

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/oakmart/storefront/internal/domain/cart"
)

var _ cart.Snapshots = (*CartStore)(nil)

// CartStore persists cart snapshots under a fixed key per session, with a
// TTL so abandoned carts eventually expire.
type CartStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCartStore creates a snapshot store with the given expiry.
func NewCartStore(client *redis.Client, ttl time.Duration) *CartStore {
	return &CartStore{client: client, ttl: ttl}
}

func cartKey(key string) string { return "cart:session:" + key }

// Load returns the stored snapshot bytes, or (nil, nil) when none exists.
func (s *CartStore) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, cartKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "load cart snapshot")
	}
	return data, nil
}

// Save stores the snapshot bytes and refreshes the TTL.
func (s *CartStore) Save(ctx context.Context, key string, data []byte) error {
	if err := s.client.Set(ctx, cartKey(key), data, s.ttl).Err(); err != nil {
		return errors.Wrap(err, "save cart snapshot")
	}
	return nil
}

// Delete drops the snapshot. Deleting an absent key is not an error.
func (s *CartStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, cartKey(key)).Err(); err != nil {
		return errors.Wrap(err, "delete cart snapshot")
	}
	return nil
}
