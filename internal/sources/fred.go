package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/web3-frozen/liquidity-dashboard/internal/series"
)

const fredAPI = "https://api.stlouisfed.org/fred"

// FRED fetches economic time series from the St. Louis Fed.
type FRED struct {
	up      upstream
	baseURL string
	apiKey  string
}

func NewFRED(opts Options) *FRED {
	base := opts.BaseURL
	if base == "" {
		base = fredAPI
	}
	return &FRED{up: newUpstream("fred", opts), baseURL: base, apiKey: opts.APIKey}
}

func (f *FRED) Name() string { return "fred" }

type fredResponse struct {
	Observations *[]struct {
		Date  string     `json:"date"`
		Value *flexFloat `json:"value"`
	} `json:"observations"`
}

// FetchSeries returns the cleaned observations of seriesID. Missing values
// (".", null) are dropped. The unit is inferred from label.
func (f *FRED) FetchSeries(ctx context.Context, seriesID, label string) (series.Series, error) {
	if f.apiKey == "" {
		return series.Series{}, unavailable(f.Name(), errors.New("no API key configured"))
	}

	var obs []series.Observation
	build := func(ctx context.Context) (*http.Request, error) {
		q := url.Values{}
		q.Set("series_id", seriesID)
		q.Set("api_key", f.apiKey)
		q.Set("file_type", "json")
		return http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"/series/observations?"+q.Encode(), nil)
	}
	decode := func(body []byte) error {
		var resp fredResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return fmt.Errorf("decode fred: %w", err)
		}
		if resp.Observations == nil {
			return errors.New("observations field missing")
		}
		obs = make([]series.Observation, 0, len(*resp.Observations))
		for _, o := range *resp.Observations {
			t, err := time.Parse("2006-01-02", o.Date)
			if err != nil {
				return fmt.Errorf("parse date %q: %w", o.Date, err)
			}
			if o.Value == nil || o.Value.missing() {
				continue
			}
			obs = append(obs, series.Observation{Time: t, Value: float64(*o.Value)})
		}
		return nil
	}

	if err := f.up.fetch(ctx, seriesID, build, decode); err != nil {
		return series.Series{}, err
	}
	return series.New(seriesID, label, series.UnitFromLabel(label), obs), nil
}
