package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements SessionStore on Redis. Keys are namespaced with a
// prefix so several clients can share one instance.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedis creates a Redis-backed store. An empty prefix defaults to
// "coachfinder:".
func NewRedis(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "coachfinder:"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (r *RedisStore) key(name string) string {
	return r.prefix + name
}

func (r *RedisStore) keys() []string {
	return []string{r.key(KeyToken), r.key(KeyUserID), r.key(KeyTokenExpiration)}
}

// Ping checks the connection.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Load reads the persisted session keys.
func (r *RedisStore) Load(ctx context.Context) (Persisted, error) {
	vals, err := r.client.MGet(ctx, r.keys()...).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return Persisted{}, fmt.Errorf("session: failed to load: %w", err)
	}

	values := make(map[string]string, 3)
	for i, name := range []string{KeyToken, KeyUserID, KeyTokenExpiration} {
		if i >= len(vals) {
			break
		}
		if s, ok := vals[i].(string); ok {
			values[name] = s
		}
	}
	return fromValues(values), nil
}

// Save writes all three keys in a MULTI/EXEC block.
func (r *RedisStore) Save(ctx context.Context, p Persisted) error {
	values := toValues(p)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for name, value := range values {
			pipe.Set(ctx, r.key(name), value, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("session: failed to save: %w", err)
	}
	return nil
}

// Clear removes all three keys.
func (r *RedisStore) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.keys()...).Err(); err != nil {
		return fmt.Errorf("session: failed to clear: %w", err)
	}
	return nil
}

// Close closes the Redis client.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
