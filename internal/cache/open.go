package cache

import (
	"context"
	"log/slog"
	"time"
)

// Purger is implemented by backends that need expired entries removed
// explicitly.
type Purger interface {
	Purge(ctx context.Context) (int64, error)
}

// Options selects and configures a backend.
type Options struct {
	RedisURL      string
	RedisPassword string
	DatabaseURL   string

	// Attempts bounds how many times a remote backend is dialed before
	// giving up. Secrets synced by an operator may lag pod start.
	Attempts int
	Backoff  time.Duration
}

// Open returns a Redis cache when RedisURL is set, a Postgres cache when
// DatabaseURL is set and an in-process cache otherwise. The returned name
// identifies the chosen backend.
func Open(ctx context.Context, opts Options, logger *slog.Logger) (Cache, string, error) {
	if opts.Attempts <= 0 {
		opts.Attempts = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	switch {
	case opts.RedisURL != "":
		c, err := retry(ctx, opts, logger, "redis", func() (Cache, error) {
			return NewRedis(opts.RedisURL, opts.RedisPassword)
		})
		return c, "redis", err
	case opts.DatabaseURL != "":
		c, err := retry(ctx, opts, logger, "postgres", func() (Cache, error) {
			return NewPostgres(ctx, opts.DatabaseURL)
		})
		return c, "postgres", err
	default:
		return NewMemory(), "memory", nil
	}
}

func retry(ctx context.Context, opts Options, logger *slog.Logger, backend string, dial func() (Cache, error)) (Cache, error) {
	var err error
	for i := 0; i < opts.Attempts; i++ {
		var c Cache
		c, err = dial()
		if err == nil {
			return c, nil
		}
		logger.Warn("cache backend not ready, retrying...", "backend", backend, "attempt", i+1, "error", err)
		if i == opts.Attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(opts.Backoff):
		}
	}
	return nil, err
}
