package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"github.com/nerrad567/graywire/internal/infrastructure/config"
	"github.com/nerrad567/graywire/internal/infrastructure/redis"
)

// RedisCommands is the subset of go-redis commands the cache uses.
// goredis.Cmdable satisfies it.
type RedisCommands interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.StatusCmd
	Del(ctx context.Context, keys ...string) *goredis.IntCmd
}

// Redis stores entries in a Redis server. Expiry is left to Redis.
type Redis struct {
	cmds      RedisCommands
	namespace string

	// owned is closed by Close when the cache dialled its own connection.
	owned io.Closer
}

// NewRedis wraps an existing connection.
func NewRedis(cmds RedisCommands, namespace string) *Redis {
	return &Redis{cmds: cmds, namespace: namespace}
}

// DialRedis connects to a dedicated Redis server for the cache.
// Close releases the connection.
func DialRedis(ctx context.Context, cfg config.RedisConfig, namespace string) (*Redis, error) {
	client, err := redis.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	r := NewRedis(client.Commands(), namespace)
	r.owned = client
	return r, nil
}

// Close closes the connection if the cache dialled it.
func (r *Redis) Close() error {
	if r.owned == nil {
		return nil
	}
	owned := r.owned
	r.owned = nil
	return owned.Close()
}

// Fetch returns the payload stored under key, if present.
func (r *Redis) Fetch(ctx context.Context, key string) (string, bool, error) {
	payload, err := r.cmds.Get(ctx, namespaced(r.namespace, key)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("fetching %s: %w", key, err)
	}
	return payload, true, nil
}

// Store saves payload under key. A lifetime of zero or less never expires.
func (r *Redis) Store(ctx context.Context, key, payload string, lifetime time.Duration) error {
	if lifetime < 0 {
		lifetime = 0
	}
	if err := r.cmds.Set(ctx, namespaced(r.namespace, key), payload, lifetime).Err(); err != nil {
		return fmt.Errorf("storing %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.cmds.Del(ctx, namespaced(r.namespace, key)).Err(); err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

// Purge is a no-op: Redis evicts expired keys itself.
func (r *Redis) Purge(context.Context) (int, error) {
	return 0, nil
}
