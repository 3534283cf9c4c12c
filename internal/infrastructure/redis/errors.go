package redis

import "errors"

// Sentinel errors for Redis operations. Check with errors.Is().
var (
	// ErrNotConnected indicates the client is closed.
	ErrNotConnected = errors.New("redis: not connected")

	// ErrConnectionFailed indicates the initial PING failed.
	ErrConnectionFailed = errors.New("redis: connection failed")
)
