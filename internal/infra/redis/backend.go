package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"mechedu-quiz-service/internal/kvstore"
)

// Backend persists ledger values as plain Redis strings without expiry.
type Backend struct {
	client *redis.Client
}

func NewBackend(client *redis.Client) *Backend {
	return &Backend{client: client}
}

func (b *Backend) Get(ctx context.Context, key string) (string, error) {
	v, err := b.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", kvstore.ErrNotFound
	}
	return v, err
}

func (b *Backend) Set(ctx context.Context, key, value string) error {
	return b.client.Set(ctx, key, value, 0).Err()
}

func (b *Backend) Remove(ctx context.Context, key string) error {
	return b.client.Del(ctx, key).Err()
}
