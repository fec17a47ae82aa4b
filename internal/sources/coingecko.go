package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/web3-frozen/liquidity-dashboard/internal/snapshot"
)

const coinGeckoAPI = "https://api.coingecko.com/api/v3"

// CoinGecko fetches current market data for coins.
type CoinGecko struct {
	up      upstream
	baseURL string
	apiKey  string
}

func NewCoinGecko(opts Options) *CoinGecko {
	base := opts.BaseURL
	if base == "" {
		base = coinGeckoAPI
	}
	return &CoinGecko{up: newUpstream("coingecko", opts), baseURL: base, apiKey: opts.APIKey}
}

func (c *CoinGecko) Name() string { return "coingecko" }

type coinGeckoMarket struct {
	ID           string     `json:"id"`
	Symbol       string     `json:"symbol"`
	Name         string     `json:"name"`
	MarketCap    *flexFloat `json:"market_cap"`
	CurrentPrice *flexFloat `json:"current_price"`
}

// FetchMarkets returns one row per coin valued at its USD market cap. With
// no ids the top coins by market cap are returned.
func (c *CoinGecko) FetchMarkets(ctx context.Context, ids []string) ([]snapshot.Row, error) {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	joined := strings.Join(sorted, ",")

	cacheID := "markets:all"
	if joined != "" {
		cacheID = "markets:" + joined
	}

	var rows []snapshot.Row
	build := func(ctx context.Context) (*http.Request, error) {
		q := url.Values{}
		q.Set("vs_currency", "usd")
		q.Set("order", "market_cap_desc")
		if joined != "" {
			q.Set("ids", joined)
		} else {
			q.Set("per_page", "100")
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/coins/markets?"+q.Encode(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if c.apiKey != "" {
			req.Header.Set("x-cg-demo-api-key", c.apiKey)
		}
		return req, nil
	}
	decode := func(body []byte) error {
		var markets []coinGeckoMarket
		if err := json.Unmarshal(body, &markets); err != nil {
			return fmt.Errorf("decode coingecko markets: %w", err)
		}
		rows = make([]snapshot.Row, 0, len(markets))
		for _, m := range markets {
			if m.ID == "" || m.Name == "" {
				return errors.New("market entry missing id or name")
			}
			var v float64
			if m.MarketCap != nil && !m.MarketCap.missing() {
				v = float64(*m.MarketCap)
			}
			row := snapshot.Row{Name: m.Name, Symbol: strings.ToUpper(m.Symbol), Value: v}
			if m.CurrentPrice != nil && !m.CurrentPrice.missing() {
				row.Price = float64(*m.CurrentPrice)
			}
			rows = append(rows, row)
		}
		return nil
	}

	if err := c.up.fetch(ctx, cacheID, build, decode); err != nil {
		return nil, err
	}
	return rows, nil
}
