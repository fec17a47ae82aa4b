package dashboard

import (
	"errors"
	"time"

	"github.com/web3-frozen/liquidity-dashboard/internal/series"
	"github.com/web3-frozen/liquidity-dashboard/internal/snapshot"
	"github.com/web3-frozen/liquidity-dashboard/internal/sources"
)

// Status tells the frontend whether a panel has data and, if not, why.
type Status string

const (
	StatusOK          Status = "ok"
	StatusEmpty       Status = "empty"
	StatusUnavailable Status = "unavailable"
	StatusMalformed   Status = "malformed"
)

// SeriesPanel is a rendered time-series chart.
type SeriesPanel struct {
	ID           string               `json:"id"`
	Label        string               `json:"label"`
	Title        string               `json:"title"`
	Unit         series.Unit          `json:"unit"`
	Direction    series.Direction     `json:"direction"`
	Window       series.Bucket        `json:"window"`
	Status       Status               `json:"status"`
	Warning      string               `json:"warning,omitempty"`
	Latest       *series.Observation  `json:"latest,omitempty"`
	Annotations  []series.Annotation  `json:"annotations"`
	Observations []series.Observation `json:"observations"`
}

// SnapshotPanel is a rendered bar/pie chart of current values.
type SnapshotPanel struct {
	ID        string           `json:"id"`
	Label     string           `json:"label"`
	Status    Status           `json:"status"`
	Warning   string           `json:"warning,omitempty"`
	Total     float64          `json:"total"`
	Rows      []snapshot.Row   `json:"rows"`
	Breakdown []snapshot.Slice `json:"breakdown"`
}

// Page is everything the frontend needs for one render.
type Page struct {
	Window      series.Bucket   `json:"window"`
	GeneratedAt time.Time       `json:"generated_at"`
	Series      []SeriesPanel   `json:"series"`
	Snapshots   []SnapshotPanel `json:"snapshots"`
}

// Warnings collects the warnings of every degraded panel.
func (p *Page) Warnings() []string {
	var out []string
	for _, s := range p.Series {
		if s.Warning != "" {
			out = append(out, s.Warning)
		}
	}
	for _, s := range p.Snapshots {
		if s.Warning != "" {
			out = append(out, s.Warning)
		}
	}
	return out
}

// StatusCounts tallies panels by status.
func (p *Page) StatusCounts() map[Status]int {
	counts := map[Status]int{StatusOK: 0, StatusEmpty: 0, StatusUnavailable: 0, StatusMalformed: 0}
	for _, s := range p.Series {
		counts[s.Status]++
	}
	for _, s := range p.Snapshots {
		counts[s.Status]++
	}
	return counts
}

// statusFor maps a fetch error onto a panel status and user-facing warning.
func statusFor(label string, err error) (Status, string) {
	switch {
	case err == nil:
		return StatusOK, ""
	case errors.Is(err, sources.ErrMalformedResponse):
		return StatusMalformed, label + ": unexpected response from data source"
	default:
		return StatusUnavailable, label + ": data source unavailable"
	}
}
