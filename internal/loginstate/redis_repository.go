package loginstate

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRepository implements Repository using Redis as the backing store.
// Nonces are stored under key "oauthstate:<state>" with the issue TTL, so
// abandoned login attempts clean themselves up.
type RedisRepository struct {
	client *redis.Client
	prefix string
}

// NewRedisRepository creates a Redis-based state repository. Prefix may be empty.
func NewRedisRepository(client *redis.Client, prefix string) *RedisRepository {
	if prefix == "" {
		prefix = "oauthstate:"
	}
	return &RedisRepository{client: client, prefix: prefix}
}

func (r *RedisRepository) key(state string) string {
	return r.prefix + state
}

func (r *RedisRepository) Put(ctx context.Context, state string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = time.Second
	}
	return r.client.Set(ctx, r.key(state), "1", ttl).Err()
}

func (r *RedisRepository) Take(ctx context.Context, state string) (bool, error) {
	n, err := r.client.Del(ctx, r.key(state)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
