package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/web3-frozen/liquidity-dashboard/internal/dashboard"
	"github.com/web3-frozen/liquidity-dashboard/internal/series"
	"github.com/web3-frozen/liquidity-dashboard/internal/summary"
)

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// windowParam reads ?window=, falling back to def when absent.
func windowParam(w http.ResponseWriter, r *http.Request, def series.Bucket) (series.Bucket, bool) {
	b, err := series.ParseBucket(r.URL.Query().Get("window"), def)
	if err != nil {
		http.Error(w, `{"error":"invalid window, use 6m, 1y, 5y or all"}`, http.StatusBadRequest)
		return "", false
	}
	return b, true
}

// currentPage serves the refresher's last page when it covers window and
// renders a fresh one otherwise.
func currentPage(r *http.Request, svc *dashboard.Service, ref *dashboard.Refresher, window series.Bucket) *dashboard.Page {
	if ref != nil && ref.Window() == window {
		if p := ref.Latest(); p != nil {
			return p
		}
	}
	return svc.Render(r.Context(), window)
}

// Dashboard returns every panel for the requested window.
func Dashboard(svc *dashboard.Service, ref *dashboard.Refresher, def series.Bucket) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		window, ok := windowParam(w, r, def)
		if !ok {
			return
		}
		writeJSON(w, currentPage(r, svc, ref, window))
	}
}

type indicatorMeta struct {
	ID        string      `json:"id"`
	Label     string      `json:"label"`
	Unit      series.Unit `json:"unit"`
	Direction string      `json:"direction"`
	Source    string      `json:"source"`
	Lookbacks []int       `json:"lookbacks"`
}

type snapshotMeta struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Source string `json:"source"`
	TopK   int    `json:"top_k"`
}

// Indicators describes the catalog so the frontend can lay out panels
// before data arrives.
func Indicators(svc *dashboard.Service, def series.Bucket, refresh time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		cat := svc.Catalog()
		ind := make([]indicatorMeta, 0, len(cat.Series))
		for _, s := range cat.Series {
			ind = append(ind, indicatorMeta{
				ID:        s.ID,
				Label:     s.Label,
				Unit:      series.Resolve(s.Unit, s.Label),
				Direction: string(series.ParseDirection(s.Direction)),
				Source:    s.Source,
				Lookbacks: s.Lookbacks,
			})
		}
		snaps := make([]snapshotMeta, 0, len(cat.Snapshots))
		for _, s := range cat.Snapshots {
			snaps = append(snaps, snapshotMeta{ID: s.ID, Label: s.Label, Source: s.Source, TopK: s.TopK})
		}
		writeJSON(w, map[string]interface{}{
			"indicators":       ind,
			"snapshots":        snaps,
			"windows":          series.Buckets(),
			"default_window":   def,
			"refresh_interval": refresh.String(),
		})
	}
}

// Series returns one indicator panel.
func Series(svc *dashboard.Service, def series.Bucket) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		window, ok := windowParam(w, r, def)
		if !ok {
			return
		}
		panel, found := svc.Indicator(r.Context(), chi.URLParam(r, "id"), window)
		if !found {
			http.Error(w, `{"error":"unknown indicator"}`, http.StatusNotFound)
			return
		}
		writeJSON(w, panel)
	}
}

// Snapshot returns one cross-sectional panel.
func Snapshot(svc *dashboard.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		panel, found := svc.Snapshot(r.Context(), chi.URLParam(r, "id"))
		if !found {
			http.Error(w, `{"error":"unknown snapshot"}`, http.StatusNotFound)
			return
		}
		writeJSON(w, panel)
	}
}

// Summary returns the market brief for the default window.
func Summary(svc *dashboard.Service, ref *dashboard.Refresher, sum *summary.Summarizer, def series.Bucket) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := currentPage(r, svc, ref, def)
		writeJSON(w, sum.Brief(r.Context(), page))
	}
}
