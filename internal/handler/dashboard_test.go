package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/web3-frozen/liquidity-dashboard/internal/dashboard"
	"github.com/web3-frozen/liquidity-dashboard/internal/series"
	"github.com/web3-frozen/liquidity-dashboard/internal/snapshot"
	"github.com/web3-frozen/liquidity-dashboard/internal/summary"
)

type mockFRED struct{ calls int }

func (m *mockFRED) FetchSeries(_ context.Context, id, label string) (series.Series, error) {
	m.calls++
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	obs := make([]series.Observation, 400)
	for i := range obs {
		obs[i] = series.Observation{Time: start.AddDate(0, 0, i), Value: 100 + float64(i)}
	}
	return series.New(id, label, series.UnitFromLabel(label), obs), nil
}

type mockMarkets struct{}

func (mockMarkets) FetchMarkets(context.Context, []string) ([]snapshot.Row, error) {
	return []snapshot.Row{{Name: "Tether", Symbol: "USDT", Value: 110e9}, {Name: "USDC", Symbol: "USDC", Value: 35e9}}, nil
}

type mockPinger struct{ err error }

func (m mockPinger) Ping(context.Context) error { return m.err }

func testService(fred *mockFRED) *dashboard.Service {
	cat := dashboard.Catalog{
		Series: []dashboard.SeriesSpec{
			{ID: "m2", Source: dashboard.SourceFRED, SeriesID: "M2SL", Label: "M2 (B)", Direction: "normal", Lookbacks: []int{30}},
		},
		Snapshots: []dashboard.SnapshotSpec{
			{ID: "mcap", Source: dashboard.SourceCoinGecko, Label: "Market Cap", Assets: []string{"tether"}, Floor: 1e6, TopK: 5},
		},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return dashboard.NewService(cat, dashboard.Sources{FRED: fred, CoinGecko: mockMarkets{}}, logger)
}

func newRouter(svc *dashboard.Service, ref *dashboard.Refresher) http.Handler {
	r := chi.NewRouter()
	r.Get("/api/dashboard", Dashboard(svc, ref, series.Bucket1Y))
	r.Get("/api/indicators", Indicators(svc, series.Bucket1Y, 5*time.Minute))
	r.Get("/api/series/{id}", Series(svc, series.Bucket1Y))
	r.Get("/api/snapshots/{id}", Snapshot(svc))
	r.Get("/api/summary", Summary(svc, ref, summary.New(nil, slog.New(slog.NewTextHandler(io.Discard, nil))), series.Bucket1Y))
	return r
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestDashboardHandler(t *testing.T) {
	h := newRouter(testService(&mockFRED{}), nil)

	rec := get(t, h, "/api/dashboard?window=6m")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var page dashboard.Page
	if err := json.NewDecoder(rec.Body).Decode(&page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if page.Window != series.Bucket6M || len(page.Series) != 1 || len(page.Snapshots) != 1 {
		t.Errorf("page = %+v", page)
	}
	if page.Series[0].Status != dashboard.StatusOK || len(page.Series[0].Observations) != 181 {
		t.Errorf("series panel = %s with %d observations", page.Series[0].Status, len(page.Series[0].Observations))
	}

	rec = get(t, h, "/api/dashboard?window=2w")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid window: status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestDashboardServesRefreshedPage(t *testing.T) {
	fred := &mockFRED{}
	svc := testService(fred)
	ref := dashboard.NewRefresher(svc, nil, series.Bucket1Y, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ref.Refresh(context.Background())
	h := newRouter(svc, ref)

	if rec := get(t, h, "/api/dashboard"); rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if fred.calls != 1 {
		t.Errorf("default window re-fetched: calls = %d, want 1", fred.calls)
	}
	get(t, h, "/api/dashboard?window=all")
	if fred.calls != 2 {
		t.Errorf("other window not rendered: calls = %d, want 2", fred.calls)
	}
}

func TestIndicatorsHandler(t *testing.T) {
	rec := get(t, newRouter(testService(&mockFRED{}), nil), "/api/indicators")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var meta struct {
		Indicators []struct {
			ID   string `json:"id"`
			Unit string `json:"unit"`
		} `json:"indicators"`
		Windows         []string `json:"windows"`
		DefaultWindow   string   `json:"default_window"`
		RefreshInterval string   `json:"refresh_interval"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&meta); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(meta.Indicators) != 1 || meta.Indicators[0].Unit != "B" {
		t.Errorf("indicators = %+v", meta.Indicators)
	}
	if len(meta.Windows) != 4 || meta.DefaultWindow != "1y" || meta.RefreshInterval != "5m0s" {
		t.Errorf("meta = %+v", meta)
	}
}

func TestSeriesHandler(t *testing.T) {
	h := newRouter(testService(&mockFRED{}), nil)

	rec := get(t, h, "/api/series/m2?window=all")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var panel dashboard.SeriesPanel
	if err := json.NewDecoder(rec.Body).Decode(&panel); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(panel.Observations) != 400 || panel.Title != "M2 (B)  ▲30.0B (1m)" {
		t.Errorf("panel = %d observations, title %q", len(panel.Observations), panel.Title)
	}

	if rec := get(t, h, "/api/series/nope"); rec.Code != http.StatusNotFound {
		t.Errorf("unknown id: status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if rec := get(t, h, "/api/series/m2?window=x"); rec.Code != http.StatusBadRequest {
		t.Errorf("bad window: status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestSnapshotHandler(t *testing.T) {
	h := newRouter(testService(&mockFRED{}), nil)

	rec := get(t, h, "/api/snapshots/mcap")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var panel dashboard.SnapshotPanel
	if err := json.NewDecoder(rec.Body).Decode(&panel); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if panel.Total != 145e9 || len(panel.Rows) != 2 || panel.Rows[0].Symbol != "USDT" {
		t.Errorf("panel = %+v", panel)
	}

	if rec := get(t, h, "/api/snapshots/nope"); rec.Code != http.StatusNotFound {
		t.Errorf("unknown id: status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestSummaryHandlerWithoutModel(t *testing.T) {
	rec := get(t, newRouter(testService(&mockFRED{}), nil), "/api/summary")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var b summary.Brief
	if err := json.NewDecoder(rec.Body).Decode(&b); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b.Status != dashboard.StatusUnavailable || len(b.Lines) != 2 {
		t.Errorf("brief = %+v", b)
	}
}

func TestHealthAndReady(t *testing.T) {
	rec := httptest.NewRecorder()
	Health().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("health = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	Ready(mockPinger{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("ready = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	Ready(mockPinger{err: errors.New("down")}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("not ready = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}
