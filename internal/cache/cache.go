package cache

import (
	"context"
	"time"

	goredis "github.com/go-redis/redis/v8"
)

// Store is the full cache contract implemented by Memory, SQLite, and Redis.
// The loader only needs Fetch and Store.
type Store interface {
	Fetch(ctx context.Context, key string) (string, bool, error)
	Store(ctx context.Context, key, payload string, lifetime time.Duration) error
	Delete(ctx context.Context, key string) error
	Purge(ctx context.Context) (int, error)
}

var (
	_ Store = (*Memory)(nil)
	_ Store = (*SQLite)(nil)
	_ Store = (*Redis)(nil)

	_ RedisCommands = (goredis.Cmdable)(nil)
)

func namespaced(namespace, key string) string {
	if namespace == "" {
		return key
	}
	return namespace + ":" + key
}
