package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/web3-frozen/liquidity-dashboard/internal/series"
	"github.com/web3-frozen/liquidity-dashboard/internal/snapshot"
	"github.com/web3-frozen/liquidity-dashboard/internal/sources"
)

// SeriesFetcher returns a macro time series by upstream id.
type SeriesFetcher interface {
	FetchSeries(ctx context.Context, seriesID, label string) (series.Series, error)
}

// MarketFetcher returns current market caps for a set of assets.
type MarketFetcher interface {
	FetchMarkets(ctx context.Context, ids []string) ([]snapshot.Row, error)
}

// StablecoinFetcher returns per-asset supply and the aggregate supply history.
type StablecoinFetcher interface {
	FetchStablecoins(ctx context.Context) ([]snapshot.Row, error)
	FetchTotalCirculating(ctx context.Context, id, label string) (series.Series, error)
}

// ProtocolFetcher returns current protocol TVLs.
type ProtocolFetcher interface {
	FetchProtocols(ctx context.Context) ([]snapshot.Row, error)
}

// Sources bundles the upstreams a Service reads. A nil member makes its
// panels render as unavailable.
type Sources struct {
	FRED      SeriesFetcher
	CoinGecko MarketFetcher
	DefiLlama StablecoinFetcher
	RWA       ProtocolFetcher
	FearGreed SeriesFetcher
}

var errNotConfigured = &sources.FetchError{
	Source: "dashboard",
	Kind:   sources.ErrSourceUnavailable,
	Err:    errors.New("source not configured"),
}

// Service renders dashboard panels from a catalog.
type Service struct {
	catalog Catalog
	src     Sources
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(catalog Catalog, src Sources, logger *slog.Logger) *Service {
	return &Service{catalog: catalog, src: src, logger: logger, now: time.Now}
}

// Catalog returns the panel definitions the service renders.
func (s *Service) Catalog() Catalog { return s.catalog }

// Render builds every panel for the given window. Panels are fetched in
// catalog order; a failing panel degrades to a status and warning without
// affecting the others.
func (s *Service) Render(ctx context.Context, window series.Bucket) *Page {
	page := &Page{
		Window:      window,
		GeneratedAt: s.now().UTC(),
		Series:      make([]SeriesPanel, 0, len(s.catalog.Series)),
		Snapshots:   make([]SnapshotPanel, 0, len(s.catalog.Snapshots)),
	}
	for _, spec := range s.catalog.Series {
		page.Series = append(page.Series, s.seriesPanel(ctx, spec, window))
	}
	for _, spec := range s.catalog.Snapshots {
		page.Snapshots = append(page.Snapshots, s.snapshotPanel(ctx, spec))
	}
	return page
}

// Indicator renders a single series panel. The bool is false for unknown ids.
func (s *Service) Indicator(ctx context.Context, id string, window series.Bucket) (SeriesPanel, bool) {
	for _, spec := range s.catalog.Series {
		if spec.ID == id {
			return s.seriesPanel(ctx, spec, window), true
		}
	}
	return SeriesPanel{}, false
}

// Snapshot renders a single snapshot panel. The bool is false for unknown ids.
func (s *Service) Snapshot(ctx context.Context, id string) (SnapshotPanel, bool) {
	for _, spec := range s.catalog.Snapshots {
		if spec.ID == id {
			return s.snapshotPanel(ctx, spec), true
		}
	}
	return SnapshotPanel{}, false
}

func (s *Service) seriesPanel(ctx context.Context, spec SeriesSpec, window series.Bucket) SeriesPanel {
	dir := series.ParseDirection(spec.Direction)
	panel := SeriesPanel{
		ID:           spec.ID,
		Label:        spec.Label,
		Title:        spec.Label,
		Unit:         series.Resolve(spec.Unit, spec.Label),
		Direction:    dir,
		Window:       window,
		Annotations:  []series.Annotation{},
		Observations: []series.Observation{},
	}

	full, err := s.fetchSeries(ctx, spec)
	if err != nil {
		panel.Status, panel.Warning = statusFor(spec.Label, err)
		s.logger.Warn("series panel degraded", "panel", spec.ID, "source", spec.Source, "status", panel.Status, "error", err)
		return panel
	}
	full = s.prepare(full, spec)
	panel.Unit = full.Unit

	if full.Empty() {
		panel.Status = StatusEmpty
		panel.Warning = spec.Label + ": no data"
		return panel
	}

	// Deltas use the whole history so a short window still shows 1y change.
	annots := series.AnnotateAll(full, spec.Lookbacks, dir)
	latest, _ := full.Latest()

	panel.Status = StatusOK
	panel.Annotations = annots
	panel.Title = series.Title(spec.Label, annots)
	panel.Latest = &latest
	panel.Observations = series.Window(full, window).Observations
	s.logger.Debug("series panel rendered", "panel", spec.ID, "observations", full.Len(), "windowed", len(panel.Observations))
	return panel
}

func (s *Service) fetchSeries(ctx context.Context, spec SeriesSpec) (series.Series, error) {
	switch spec.Source {
	case SourceFRED:
		if s.src.FRED == nil {
			return series.Series{}, errNotConfigured
		}
		return s.src.FRED.FetchSeries(ctx, spec.SeriesID, spec.Label)
	case SourceDefiLlama:
		if s.src.DefiLlama == nil {
			return series.Series{}, errNotConfigured
		}
		return s.src.DefiLlama.FetchTotalCirculating(ctx, spec.ID, spec.Label)
	case SourceFearGreed:
		if s.src.FearGreed == nil {
			return series.Series{}, errNotConfigured
		}
		return s.src.FearGreed.FetchSeries(ctx, spec.SeriesID, spec.Label)
	}
	return series.Series{}, errNotConfigured
}

// prepare applies scaling, transforms and the unit override, in that order.
func (s *Service) prepare(raw series.Series, spec SeriesSpec) series.Series {
	out := raw
	out.ID = spec.ID
	out.Label = spec.Label
	out.Unit = series.Resolve(spec.Unit, spec.Label)
	if spec.Scale != 0 {
		out = series.Scale(out, spec.Scale)
	}
	if spec.Transform == TransformYoY {
		out = series.YoY(out, spec.Periods)
		if spec.Unit != "" {
			out.Unit = series.ParseUnit(spec.Unit)
		}
	}
	return out
}

func (s *Service) snapshotPanel(ctx context.Context, spec SnapshotSpec) SnapshotPanel {
	panel := SnapshotPanel{
		ID:        spec.ID,
		Label:     spec.Label,
		Rows:      []snapshot.Row{},
		Breakdown: []snapshot.Slice{},
	}

	rows, err := s.fetchRows(ctx, spec)
	if err != nil {
		panel.Status, panel.Warning = statusFor(spec.Label, err)
		s.logger.Warn("snapshot panel degraded", "panel", spec.ID, "source", spec.Source, "status", panel.Status, "error", err)
		return panel
	}

	kept := snapshot.Rank(rows, spec.Floor, 0)
	if len(kept) == 0 {
		panel.Status = StatusEmpty
		panel.Warning = spec.Label + ": no data"
		return panel
	}

	panel.Status = StatusOK
	panel.Total = snapshot.Total(kept)
	panel.Breakdown = snapshot.Breakdown(kept, spec.TopK)
	if spec.TopK > 0 && len(kept) > spec.TopK {
		kept = kept[:spec.TopK]
	}
	panel.Rows = kept
	return panel
}

func (s *Service) fetchRows(ctx context.Context, spec SnapshotSpec) ([]snapshot.Row, error) {
	switch spec.Source {
	case SourceCoinGecko:
		if s.src.CoinGecko == nil {
			return nil, errNotConfigured
		}
		return s.src.CoinGecko.FetchMarkets(ctx, spec.Assets)
	case SourceDefiLlama:
		if s.src.DefiLlama == nil {
			return nil, errNotConfigured
		}
		return s.src.DefiLlama.FetchStablecoins(ctx)
	case SourceRWA:
		if s.src.RWA == nil {
			return nil, errNotConfigured
		}
		return s.src.RWA.FetchProtocols(ctx)
	}
	return nil, errNotConfigured
}
