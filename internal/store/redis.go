package store

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists snapshots as plain string values under a key prefix.
// Snapshots have no TTL: the document lives until explicitly deleted.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a Redis-backed snapshot store. Prefix may be empty.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "doc:"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(id string) string { return s.prefix + id }

func (s *RedisStore) Put(ctx context.Context, id, content string) error {
	return s.client.Set(ctx, s.key(id), content, 0).Err()
}

func (s *RedisStore) Get(ctx context.Context, id string) (string, error) {
	v, err := s.client.Get(ctx, s.key(id)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", ErrNotFound
		}
		return "", err
	}
	return v, nil
}

// Delete removes a persisted snapshot. DEL on a missing key is a no-op.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.key(id)).Err()
}
