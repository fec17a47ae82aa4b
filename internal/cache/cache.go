// Package cache provides the time-bounded response cache injected into
// every upstream fetcher.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque payloads with a per-entry expiry.
type Cache interface {
	// Get returns the payload for key and false when it is missing or expired.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Put stores value under key for ttl. A non-positive ttl is a no-op.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error

	Close() error
}

// Key builds a cache key scoped to an upstream source.
func Key(source, id string) string {
	return "dashboard:" + source + ":" + id
}
