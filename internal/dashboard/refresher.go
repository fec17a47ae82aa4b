package dashboard

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/web3-frozen/liquidity-dashboard/internal/cache"
	"github.com/web3-frozen/liquidity-dashboard/internal/metrics"
	"github.com/web3-frozen/liquidity-dashboard/internal/series"
)

const defaultRefreshInterval = 5 * time.Minute

// Refresher re-renders the default window on a fixed interval so requests
// can be served from the last page and upstream caches stay warm.
type Refresher struct {
	svc      *Service
	logger   *slog.Logger
	interval time.Duration
	window   series.Bucket
	purger   cache.Purger

	mu   sync.RWMutex
	last *Page
}

// NewRefresher builds a refresher for window. c may be nil; when it
// implements cache.Purger expired rows are removed after each refresh.
func NewRefresher(svc *Service, c cache.Cache, window series.Bucket, interval time.Duration, logger *slog.Logger) *Refresher {
	if interval <= 0 {
		interval = defaultRefreshInterval
	}
	r := &Refresher{svc: svc, logger: logger, interval: interval, window: window}
	if p, ok := c.(cache.Purger); ok {
		r.purger = p
	}
	return r
}

// Window is the bucket the refresher renders.
func (r *Refresher) Window() series.Bucket { return r.window }

// Latest returns the most recent page, or nil before the first refresh.
func (r *Refresher) Latest() *Page {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last
}

// Run refreshes immediately and then on every tick until ctx is done.
func (r *Refresher) Run(ctx context.Context) {
	r.Refresh(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Refresh(ctx)
		}
	}
}

// Refresh renders one page, stores it and updates the gauges.
func (r *Refresher) Refresh(ctx context.Context) *Page {
	start := time.Now()
	page := r.svc.Render(ctx, r.window)

	r.mu.Lock()
	r.last = page
	r.mu.Unlock()

	counts := page.StatusCounts()
	for status, n := range counts {
		metrics.RenderPanels.WithLabelValues(string(status)).Set(float64(n))
	}
	for _, p := range page.Series {
		if p.Latest != nil {
			metrics.IndicatorValue.WithLabelValues(p.ID).Set(p.Latest.Value)
		}
	}
	for _, p := range page.Snapshots {
		if p.Status == StatusOK {
			metrics.SnapshotTotal.WithLabelValues(p.ID).Set(p.Total)
		}
	}
	if counts[StatusOK] > 0 {
		metrics.RenderLastSuccess.SetToCurrentTime()
	}

	r.logger.Info("dashboard refreshed",
		"window", r.window,
		"ok", counts[StatusOK],
		"degraded", counts[StatusUnavailable]+counts[StatusMalformed],
		"empty", counts[StatusEmpty],
		"duration", time.Since(start).Round(time.Millisecond),
	)

	if r.purger != nil {
		n, err := r.purger.Purge(ctx)
		if err != nil {
			r.logger.Warn("cache purge failed", "error", err)
		} else if n > 0 {
			r.logger.Debug("cache purged", "rows", n)
		}
	}
	return page
}
