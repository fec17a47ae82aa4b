// Package sources fetches indicator data from the third-party APIs behind
// the dashboard and normalizes it into series and snapshot rows.
package sources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/web3-frozen/liquidity-dashboard/internal/cache"
	"github.com/web3-frozen/liquidity-dashboard/internal/metrics"
)

const (
	defaultTimeout = 15 * time.Second
	maxBodyBytes   = 32 << 20
)

// Options configures one upstream client.
type Options struct {
	BaseURL string
	APIKey  string

	// Timeout bounds every request. Zero selects a 15s default.
	Timeout time.Duration

	// TTL is how long successful responses are cached. Zero disables caching.
	TTL   time.Duration
	Cache cache.Cache

	// RatePerSecond limits outgoing requests; zero means unlimited.
	RatePerSecond float64
	Burst         int

	// Client overrides the HTTP client, mainly for tests.
	Client *http.Client
}

// upstream carries the plumbing shared by every fetcher: cache lookup, rate
// limiting, status checks and outcome metrics.
type upstream struct {
	name    string
	client  *http.Client
	limiter *rate.Limiter
	cache   cache.Cache
	ttl     time.Duration
}

func newUpstream(name string, opts Options) upstream {
	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}

	c := opts.Cache
	if c == nil {
		c = cache.NewMemory()
	}

	return upstream{
		name:    name,
		client:  client,
		limiter: rate.NewLimiter(limit, burst),
		cache:   c,
		ttl:     opts.TTL,
	}
}

// fetch serves id from cache when a decodable entry exists and otherwise
// performs the request built by build. decode must fully validate the body;
// only bodies it accepts are cached.
func (u *upstream) fetch(ctx context.Context, id string, build func(context.Context) (*http.Request, error), decode func([]byte) error) error {
	key := cache.Key(u.name, id)
	if body, ok := u.cache.Get(ctx, key); ok {
		if err := decode(body); err == nil {
			metrics.CacheHits.WithLabelValues(u.name).Inc()
			metrics.FetchTotal.WithLabelValues(u.name, "cached").Inc()
			return nil
		}
	}
	metrics.CacheMisses.WithLabelValues(u.name).Inc()

	body, err := u.do(ctx, build)
	if err != nil {
		metrics.FetchTotal.WithLabelValues(u.name, "unavailable").Inc()
		return err
	}

	if err := decode(body); err != nil {
		var fe *FetchError
		if errors.As(err, &fe) {
			metrics.FetchTotal.WithLabelValues(u.name, statusLabel(err)).Inc()
			return err
		}
		metrics.FetchTotal.WithLabelValues(u.name, "malformed").Inc()
		return malformed(u.name, err)
	}

	metrics.FetchTotal.WithLabelValues(u.name, "ok").Inc()
	_ = u.cache.Put(ctx, key, body, u.ttl)
	return nil
}

func (u *upstream) do(ctx context.Context, build func(context.Context) (*http.Request, error)) ([]byte, error) {
	if err := u.limiter.Wait(ctx); err != nil {
		return nil, unavailable(u.name, fmt.Errorf("rate limit wait: %w", err))
	}

	req, err := build(ctx)
	if err != nil {
		return nil, unavailable(u.name, fmt.Errorf("build request: %w", err))
	}

	start := time.Now()
	resp, err := u.client.Do(req)
	metrics.FetchDuration.WithLabelValues(u.name).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, unavailable(u.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, unavailable(u.name, fmt.Errorf("status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, unavailable(u.name, fmt.Errorf("read body: %w", err))
	}
	return body, nil
}

func statusLabel(err error) string {
	if errors.Is(err, ErrSourceUnavailable) {
		return "unavailable"
	}
	return "malformed"
}
