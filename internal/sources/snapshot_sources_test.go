package sources

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/web3-frozen/liquidity-dashboard/internal/cache"
)

func TestCoinGeckoFetchMarkets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/coins/markets" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("ids"); got != "dai,tether" {
			t.Errorf("ids = %q, want sorted %q", got, "dai,tether")
		}
		if r.URL.Query().Get("vs_currency") != "usd" {
			t.Errorf("vs_currency = %q", r.URL.Query().Get("vs_currency"))
		}
		_, _ = w.Write([]byte(`[
			{"id":"tether","symbol":"usdt","name":"Tether","market_cap":110000000000,"current_price":1.0},
			{"id":"dai","symbol":"dai","name":"Dai","market_cap":null,"current_price":0.999}
		]`))
	}))
	defer srv.Close()

	c := NewCoinGecko(Options{BaseURL: srv.URL, TTL: time.Minute, Cache: cache.NewMemory()})
	rows, err := c.FetchMarkets(context.Background(), []string{"tether", "dai"})
	if err != nil {
		t.Fatalf("FetchMarkets error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	if rows[0].Name != "Tether" || rows[0].Symbol != "USDT" || rows[0].Value != 1.1e11 || rows[0].Price != 1 {
		t.Errorf("rows[0] = %+v", rows[0])
	}
	if rows[1].Value != 0 {
		t.Errorf("null market cap = %v, want 0", rows[1].Value)
	}
}

func TestCoinGeckoMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":{"error_code":429}}`))
	}))
	defer srv.Close()

	c := NewCoinGecko(Options{BaseURL: srv.URL})
	if _, err := c.FetchMarkets(context.Background(), nil); !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("err = %v, want ErrMalformedResponse", err)
	}
}

func TestDefiLlamaFetchStablecoins(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/stablecoins" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"peggedAssets":[
			{"name":"Tether","symbol":"usdt","circulating":{"peggedUSD":112000000000}},
			{"name":"Euro Coin","symbol":"eurc","circulating":{"peggedEUR":90000000}},
			{"name":"USD Coin","symbol":"USDC","circulating":{"peggedUSD":"33000000000"}}
		]}`))
	}))
	defer srv.Close()

	d := NewDefiLlama(Options{BaseURL: srv.URL})
	rows, err := d.FetchStablecoins(context.Background())
	if err != nil {
		t.Fatalf("FetchStablecoins error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2 (EUR peg skipped)", len(rows))
	}
	if rows[1].Name != "USD Coin" || rows[1].Value != 3.3e10 {
		t.Errorf("rows[1] = %+v", rows[1])
	}
}

func TestDefiLlamaFetchTotalCirculating(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/stablecoincharts/all" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`[
			{"date":"1704153600","totalCirculatingUSD":{"peggedUSD":140000000000}},
			{"date":1704067200,"totalCirculatingUSD":{"peggedUSD":139000000000}}
		]`))
	}))
	defer srv.Close()

	d := NewDefiLlama(Options{BaseURL: srv.URL})
	s, err := d.FetchTotalCirculating(context.Background(), "stablecoin_total", "Stablecoin Supply (B)")
	if err != nil {
		t.Fatalf("FetchTotalCirculating error: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("len = %d, want 2", s.Len())
	}
	first := s.Observations[0]
	if !first.Time.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) || first.Value != 1.39e11 {
		t.Errorf("first = %+v", first)
	}
}

func TestDefiLlamaMissingField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"chains":[]}`))
	}))
	defer srv.Close()

	d := NewDefiLlama(Options{BaseURL: srv.URL})
	if _, err := d.FetchStablecoins(context.Background()); !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("err = %v, want ErrMalformedResponse", err)
	}
}

func TestRWAFetchProtocols(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		body, _ := io.ReadAll(r.Body)
		var req struct {
			Query string `json:"query"`
		}
		if err := json.Unmarshal(body, &req); err != nil || req.Query != rwaProtocolsQuery {
			t.Errorf("query = %q, err = %v", req.Query, err)
		}
		_, _ = w.Write([]byte(`{"data":{"protocols":[
			{"name":"Ondo","tvlUsd":"650000000"},
			{"name":"Centrifuge","tvlUsd":250000000},
			{"name":"Dormant","tvlUsd":null}
		]}}`))
	}))
	defer srv.Close()

	r := NewRWA(Options{BaseURL: srv.URL})
	rows, err := r.FetchProtocols(context.Background())
	if err != nil {
		t.Fatalf("FetchProtocols error: %v", err)
	}
	if len(rows) != 2 || rows[0].Value != 6.5e8 || rows[1].Name != "Centrifuge" {
		t.Errorf("rows = %+v", rows)
	}
}

func TestRWAGraphQLErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errors":[{"message":"indexer down"}]}`))
	}))
	defer srv.Close()

	c := cache.NewMemory()
	r := NewRWA(Options{BaseURL: srv.URL, TTL: time.Hour, Cache: c})
	_, err := r.FetchProtocols(context.Background())
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("err = %v, want ErrSourceUnavailable", err)
	}
	if c.Len() != 0 {
		t.Error("graphql error response was cached")
	}

	if _, err := NewRWA(Options{}).FetchProtocols(context.Background()); !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("no endpoint: err = %v, want ErrSourceUnavailable", err)
	}
}

func TestRWAMissingData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{}}`))
	}))
	defer srv.Close()

	if _, err := NewRWA(Options{BaseURL: srv.URL}).FetchProtocols(context.Background()); !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("err = %v, want ErrMalformedResponse", err)
	}
}
