package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/web3-frozen/liquidity-dashboard/internal/series"
	"github.com/web3-frozen/liquidity-dashboard/internal/snapshot"
)

const defiLlamaStablecoinsAPI = "https://stablecoins.llama.fi"

// DefiLlama fetches aggregated stablecoin supply data.
type DefiLlama struct {
	up      upstream
	baseURL string
}

func NewDefiLlama(opts Options) *DefiLlama {
	base := opts.BaseURL
	if base == "" {
		base = defiLlamaStablecoinsAPI
	}
	return &DefiLlama{up: newUpstream("defillama", opts), baseURL: base}
}

func (d *DefiLlama) Name() string { return "defillama" }

type peggedAmount struct {
	PeggedUSD *flexFloat `json:"peggedUSD"`
}

func (p peggedAmount) usd() (float64, bool) {
	if p.PeggedUSD == nil || p.PeggedUSD.missing() {
		return 0, false
	}
	return float64(*p.PeggedUSD), true
}

type stablecoinsResponse struct {
	PeggedAssets *[]struct {
		Name        string       `json:"name"`
		Symbol      string       `json:"symbol"`
		Circulating peggedAmount `json:"circulating"`
	} `json:"peggedAssets"`
}

// FetchStablecoins returns each USD-pegged asset's circulating supply.
// Assets without a USD figure are skipped.
func (d *DefiLlama) FetchStablecoins(ctx context.Context) ([]snapshot.Row, error) {
	var rows []snapshot.Row
	decode := func(body []byte) error {
		var resp stablecoinsResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return fmt.Errorf("decode stablecoins: %w", err)
		}
		if resp.PeggedAssets == nil {
			return errors.New("peggedAssets field missing")
		}
		rows = make([]snapshot.Row, 0, len(*resp.PeggedAssets))
		for _, a := range *resp.PeggedAssets {
			v, ok := a.Circulating.usd()
			if !ok {
				continue
			}
			rows = append(rows, snapshot.Row{Name: a.Name, Symbol: strings.ToUpper(a.Symbol), Value: v})
		}
		return nil
	}

	if err := d.up.fetch(ctx, "stablecoins", d.get("/stablecoins?includePrices=false"), decode); err != nil {
		return nil, err
	}
	return rows, nil
}

// FetchTotalCirculating returns the daily total circulating USD value of
// all stablecoins, in dollars.
func (d *DefiLlama) FetchTotalCirculating(ctx context.Context, id, label string) (series.Series, error) {
	var obs []series.Observation
	decode := func(body []byte) error {
		var points []struct {
			Date                *flexInt      `json:"date"`
			TotalCirculatingUSD *peggedAmount `json:"totalCirculatingUSD"`
		}
		if err := json.Unmarshal(body, &points); err != nil {
			return fmt.Errorf("decode stablecoin chart: %w", err)
		}
		obs = make([]series.Observation, 0, len(points))
		for _, p := range points {
			if p.Date == nil || p.TotalCirculatingUSD == nil {
				return errors.New("chart point missing date or totalCirculatingUSD")
			}
			v, ok := p.TotalCirculatingUSD.usd()
			if !ok {
				continue
			}
			obs = append(obs, series.Observation{Time: time.Unix(int64(*p.Date), 0).UTC(), Value: v})
		}
		return nil
	}

	if err := d.up.fetch(ctx, "stablecoincharts:all", d.get("/stablecoincharts/all"), decode); err != nil {
		return series.Series{}, err
	}
	return series.New(id, label, series.UnitFromLabel(label), obs), nil
}

func (d *DefiLlama) get(path string) func(context.Context) (*http.Request, error) {
	return func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+path, nil)
	}
}
