package series

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Direction decides whether a rise in an indicator is good news.
type Direction string

const (
	DirectionNormal  Direction = "normal"
	DirectionInverse Direction = "inverse"
)

// ParseDirection defaults unknown or empty values to DirectionNormal.
func ParseDirection(s string) Direction {
	if Direction(strings.ToLower(strings.TrimSpace(s))) == DirectionInverse {
		return DirectionInverse
	}
	return DirectionNormal
}

const (
	GlyphUp   = "▲"
	GlyphDown = "▼"

	ColorFavorable   = "green"
	ColorUnfavorable = "red"
)

// Annotation describes the change of a series over one lookback period.
type Annotation struct {
	LookbackDays int       `json:"lookback_days"`
	From         time.Time `json:"from"`
	To           time.Time `json:"to"`
	Delta        float64   `json:"delta"`
	Magnitude    string    `json:"magnitude"`
	Unit         Unit      `json:"unit"`
	Glyph        string    `json:"glyph"`
	Color        string    `json:"color"`
	Favorable    bool      `json:"favorable"`
}

// Text renders the annotation inline, e.g. "▲10.0B (1m)".
func (a Annotation) Text() string {
	return fmt.Sprintf("%s%s%s (%s)", a.Glyph, a.Magnitude, a.Unit, lookbackLabel(a.LookbackDays))
}

func lookbackLabel(days int) string {
	switch {
	case days > 0 && days%365 == 0:
		return fmt.Sprintf("%dy", days/365)
	case days == 30 || days == 90 || days == 180:
		return fmt.Sprintf("%dm", days/30)
	default:
		return fmt.Sprintf("%dd", days)
	}
}

// Annotate compares the latest observation of s against the latest
// observation at least lookbackDays older. It returns false when the series
// is too short, when no comparator exists or when the change is exactly zero.
// s must be the full, unwindowed series.
func Annotate(s Series, lookbackDays int, dir Direction) (Annotation, bool) {
	if len(s.Observations) < 2 || lookbackDays < 0 {
		return Annotation{}, false
	}
	latest := s.Observations[len(s.Observations)-1]
	target := latest.Time.Add(-time.Duration(lookbackDays) * 24 * time.Hour)

	idx := -1
	for i := len(s.Observations) - 2; i >= 0; i-- {
		if !s.Observations[i].Time.After(target) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Annotation{}, false
	}
	comparator := s.Observations[idx]

	delta := decimal.NewFromFloat(latest.Value).Sub(decimal.NewFromFloat(comparator.Value))
	if delta.IsZero() {
		return Annotation{}, false
	}

	up := delta.IsPositive()
	favorable := up
	if dir == DirectionInverse {
		favorable = !up
	}
	a := Annotation{
		LookbackDays: lookbackDays,
		From:         comparator.Time,
		To:           latest.Time,
		Delta:        delta.InexactFloat64(),
		Magnitude:    delta.Abs().StringFixed(s.Unit.decimals()),
		Unit:         s.Unit,
		Glyph:        GlyphDown,
		Color:        ColorUnfavorable,
		Favorable:    favorable,
	}
	if up {
		a.Glyph = GlyphUp
	}
	if favorable {
		a.Color = ColorFavorable
	}
	return a, true
}

// AnnotateAll annotates s for each lookback, keeping the requested order and
// skipping periods that produce no annotation.
func AnnotateAll(s Series, lookbacks []int, dir Direction) []Annotation {
	out := make([]Annotation, 0, len(lookbacks))
	for _, lb := range lookbacks {
		if a, ok := Annotate(s, lb, dir); ok {
			out = append(out, a)
		}
	}
	return out
}

// Title appends the rendered annotations to label.
func Title(label string, annots []Annotation) string {
	if len(annots) == 0 {
		return label
	}
	parts := make([]string, 0, len(annots)+1)
	parts = append(parts, label)
	for _, a := range annots {
		parts = append(parts, a.Text())
	}
	return strings.Join(parts, "  ")
}
