package dashboard

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Upstream names referenced by catalog entries.
const (
	SourceFRED      = "fred"
	SourceCoinGecko = "coingecko"
	SourceDefiLlama = "defillama"
	SourceRWA       = "rwa"
	SourceFearGreed = "feargreed"
)

// TransformYoY converts a level series into its trailing percent change.
const TransformYoY = "yoy"

// Catalog lists every panel the dashboard renders, in display order.
type Catalog struct {
	Series    []SeriesSpec   `yaml:"series" json:"series"`
	Snapshots []SnapshotSpec `yaml:"snapshots" json:"snapshots"`
}

// SeriesSpec describes one time-series panel.
type SeriesSpec struct {
	ID       string `yaml:"id" json:"id"`
	Source   string `yaml:"source" json:"source"`
	SeriesID string `yaml:"series_id" json:"series_id,omitempty"`
	Label    string `yaml:"label" json:"label"`

	// Unit overrides the unit inferred from Label.
	Unit      string `yaml:"unit" json:"unit,omitempty"`
	Direction string `yaml:"direction" json:"direction"`

	Transform string `yaml:"transform" json:"transform,omitempty"`
	Periods   int    `yaml:"periods" json:"periods,omitempty"`

	// Scale multiplies raw values, e.g. 1e-9 for dollars to billions.
	Scale     float64 `yaml:"scale" json:"scale,omitempty"`
	Lookbacks []int   `yaml:"lookbacks" json:"lookbacks"`
}

// SnapshotSpec describes one cross-sectional panel.
type SnapshotSpec struct {
	ID     string   `yaml:"id" json:"id"`
	Source string   `yaml:"source" json:"source"`
	Label  string   `yaml:"label" json:"label"`
	Assets []string `yaml:"assets" json:"assets,omitempty"`

	// Floor drops rows valued below it; rows exactly at Floor are kept.
	Floor float64 `yaml:"floor" json:"floor"`
	TopK  int     `yaml:"top_k" json:"top_k"`
}

// DefaultCatalog is the built-in panel set.
func DefaultCatalog() Catalog {
	return Catalog{
		Series: []SeriesSpec{
			{ID: "ffr", Source: SourceFRED, SeriesID: "FEDFUNDS", Label: "Fed Funds Rate (%)",
				Direction: "normal", Lookbacks: []int{30, 365}},
			{ID: "m2", Source: SourceFRED, SeriesID: "M2SL", Label: "M2 Money Supply (B)",
				Direction: "normal", Lookbacks: []int{30, 365}},
			{ID: "hy_spread", Source: SourceFRED, SeriesID: "BAMLH0A0HYM2", Label: "US High Yield Spread (%)",
				Direction: "inverse", Lookbacks: []int{7, 30}},
			{ID: "cpi_yoy", Source: SourceFRED, SeriesID: "CPIAUCSL", Label: "CPI YoY (%)",
				Direction: "inverse", Transform: TransformYoY, Periods: 12, Lookbacks: []int{30, 365}},
			{ID: "stablecoin_supply", Source: SourceDefiLlama, Label: "Stablecoin Supply (B)",
				Direction: "normal", Scale: 1e-9, Lookbacks: []int{7, 30}},
			{ID: "fear_greed", Source: SourceFearGreed, Label: "Crypto Fear & Greed",
				Direction: "normal", Lookbacks: []int{7, 30}},
		},
		Snapshots: []SnapshotSpec{
			{ID: "stablecoin_mcap", Source: SourceCoinGecko, Label: "Stablecoin Market Cap",
				Assets: []string{"tether", "usd-coin", "dai", "ethena-usde", "first-digital-usd", "paypal-usd", "usds"},
				Floor:  1_000_000, TopK: 10},
			{ID: "stablecoin_share", Source: SourceDefiLlama, Label: "Stablecoin Circulating Share",
				Floor: 1_000_000, TopK: 8},
			{ID: "rwa_tvl", Source: SourceRWA, Label: "RWA Protocol TVL",
				Floor: 1_000_000, TopK: 10},
		},
	}
}

// LoadCatalog reads a YAML catalog from path. An empty path yields the
// default catalog.
func LoadCatalog(path string) (Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read catalog: %w", err)
	}
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Catalog{}, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Catalog{}, err
	}
	return c, nil
}

// Validate checks ids are unique and every entry names a known source.
func (c Catalog) Validate() error {
	if len(c.Series) == 0 && len(c.Snapshots) == 0 {
		return errors.New("catalog is empty")
	}
	seen := make(map[string]bool)
	for _, s := range c.Series {
		if s.ID == "" || seen[s.ID] {
			return fmt.Errorf("series %q: missing or duplicate id", s.ID)
		}
		seen[s.ID] = true
		switch s.Source {
		case SourceFRED:
			if s.SeriesID == "" {
				return fmt.Errorf("series %q: series_id required for fred", s.ID)
			}
		case SourceDefiLlama, SourceFearGreed:
		default:
			return fmt.Errorf("series %q: unknown source %q", s.ID, s.Source)
		}
		if s.Transform != "" && s.Transform != TransformYoY {
			return fmt.Errorf("series %q: unknown transform %q", s.ID, s.Transform)
		}
		if s.Transform == TransformYoY && s.Periods <= 0 {
			return fmt.Errorf("series %q: yoy needs periods > 0", s.ID)
		}
	}
	for _, s := range c.Snapshots {
		if s.ID == "" || seen[s.ID] {
			return fmt.Errorf("snapshot %q: missing or duplicate id", s.ID)
		}
		seen[s.ID] = true
		switch s.Source {
		case SourceCoinGecko, SourceDefiLlama, SourceRWA:
		default:
			return fmt.Errorf("snapshot %q: unknown source %q", s.ID, s.Source)
		}
	}
	return nil
}
