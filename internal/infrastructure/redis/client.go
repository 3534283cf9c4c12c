package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"github.com/nerrad567/graywire/internal/infrastructure/config"
)

const (
	defaultDialTimeout = 5 * time.Second
	defaultPingTimeout = 5 * time.Second
)

// Client wraps a go-redis client with the lifecycle used by the other
// infrastructure connections.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Client struct {
	rdb *goredis.Client
	cfg config.RedisConfig

	connected bool
	mu        sync.RWMutex
}

// clientOptions maps the configuration onto go-redis options.
func clientOptions(cfg config.RedisConfig) *goredis.Options {
	dialTimeout := time.Duration(cfg.DialTimeout) * time.Second
	if dialTimeout <= 0 {
		dialTimeout = defaultDialTimeout
	}
	return &goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: dialTimeout,
	}
}

// Connect dials the server and verifies it with PING.
//
// Returns:
//   - *Client: Connected client ready for use
//   - error: A wrapped ErrConnectionFailed if the server does not answer
func Connect(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	rdb := goredis.NewClient(clientOptions(cfg))

	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("%w: %s: %w", ErrConnectionFailed, cfg.Addr, err)
	}

	return &Client{rdb: rdb, cfg: cfg, connected: true}, nil
}

// Commands returns the command interface for cache operations.
func (c *Client) Commands() goredis.Cmdable {
	return c.rdb
}

// Addr returns the configured server address.
func (c *Client) Addr() string {
	return c.cfg.Addr
}

// Close closes the connection pool. Safe to call more than once.
func (c *Client) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}

	c.mu.Lock()
	wasConnected := c.connected
	c.connected = false
	c.mu.Unlock()

	if !wasConnected {
		return nil
	}
	if err := c.rdb.Close(); err != nil {
		return fmt.Errorf("closing redis: %w", err)
	}
	return nil
}

// HealthCheck pings the server.
func (c *Client) HealthCheck(ctx context.Context) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	checkCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()

	if err := c.rdb.Ping(checkCtx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}

// IsConnected returns false once Close has been called.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}
