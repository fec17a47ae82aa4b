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
)

const fngAPI = "https://api.alternative.me/fng/"

// FearGreed fetches the Alternative.me crypto Fear & Greed index history.
type FearGreed struct {
	up      upstream
	baseURL string
}

func NewFearGreed(opts Options) *FearGreed {
	base := opts.BaseURL
	if base == "" {
		base = fngAPI
	}
	return &FearGreed{up: newUpstream("feargreed", opts), baseURL: strings.TrimRight(base, "/") + "/"}
}

func (f *FearGreed) Name() string { return "feargreed" }

type fngResponse struct {
	Data *[]struct {
		Value     flexFloat `json:"value"`
		Timestamp flexInt   `json:"timestamp"`
	} `json:"data"`
}

// FetchSeries returns the full daily index history. The index is unitless
// (0 to 100); seriesID is ignored since the API serves a single index.
func (f *FearGreed) FetchSeries(ctx context.Context, _ string, label string) (series.Series, error) {
	var obs []series.Observation
	build := func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"?limit=0&format=json", nil)
	}
	decode := func(body []byte) error {
		var resp fngResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return fmt.Errorf("decode fear & greed: %w", err)
		}
		if resp.Data == nil {
			return errors.New("data field missing")
		}
		obs = make([]series.Observation, 0, len(*resp.Data))
		for _, d := range *resp.Data {
			if d.Value.missing() || d.Timestamp <= 0 {
				continue
			}
			obs = append(obs, series.Observation{Time: time.Unix(int64(d.Timestamp), 0).UTC(), Value: float64(d.Value)})
		}
		return nil
	}

	if err := f.up.fetch(ctx, "history", build, decode); err != nil {
		return series.Series{}, err
	}
	return series.New("fear_greed", label, series.UnitFromLabel(label), obs), nil
}
