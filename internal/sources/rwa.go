package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/web3-frozen/liquidity-dashboard/internal/snapshot"
)

const rwaProtocolsQuery = `{ protocols { name tvlUsd } }`

// RWA fetches real-world-asset protocol TVLs from a GraphQL endpoint.
type RWA struct {
	up       upstream
	endpoint string
	apiKey   string
}

func NewRWA(opts Options) *RWA {
	return &RWA{up: newUpstream("rwa", opts), endpoint: opts.BaseURL, apiKey: opts.APIKey}
}

func (r *RWA) Name() string { return "rwa" }

type protocolsResponse struct {
	Data *struct {
		Protocols *[]struct {
			Name   string     `json:"name"`
			TVLUsd *flexFloat `json:"tvlUsd"`
		} `json:"protocols"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// FetchProtocols returns one row per protocol valued at its USD TVL.
func (r *RWA) FetchProtocols(ctx context.Context) ([]snapshot.Row, error) {
	if r.endpoint == "" {
		return nil, unavailable(r.Name(), errors.New("no endpoint configured"))
	}

	var rows []snapshot.Row
	build := func(ctx context.Context) (*http.Request, error) {
		body, err := json.Marshal(map[string]string{"query": rwaProtocolsQuery})
		if err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		if r.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+r.apiKey)
		}
		return req, nil
	}
	decode := func(body []byte) error {
		var resp protocolsResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return fmt.Errorf("decode protocols: %w", err)
		}
		if len(resp.Errors) > 0 {
			msgs := make([]string, len(resp.Errors))
			for i, e := range resp.Errors {
				msgs[i] = e.Message
			}
			return unavailable(r.Name(), fmt.Errorf("graphql: %s", strings.Join(msgs, "; ")))
		}
		if resp.Data == nil || resp.Data.Protocols == nil {
			return errors.New("data.protocols missing")
		}
		rows = make([]snapshot.Row, 0, len(*resp.Data.Protocols))
		for _, p := range *resp.Data.Protocols {
			if p.Name == "" {
				return errors.New("protocol entry missing name")
			}
			if p.TVLUsd == nil || p.TVLUsd.missing() {
				continue
			}
			rows = append(rows, snapshot.Row{Name: p.Name, Value: float64(*p.TVLUsd)})
		}
		return nil
	}

	if err := r.up.fetch(ctx, "protocols", build, decode); err != nil {
		return nil, err
	}
	return rows, nil
}
