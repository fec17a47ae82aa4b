// Package snapshot ranks current-value datasets such as stablecoin market
// caps or protocol TVLs for bar and pie displays.
package snapshot

import (
	"math"
	"sort"
)

// OthersName labels the aggregated remainder in a Breakdown.
const OthersName = "Others"

// Row is one entity's current value.
type Row struct {
	Name   string  `json:"name"`
	Symbol string  `json:"symbol,omitempty"`
	Value  float64 `json:"value"`

	// Price is the unit price where the upstream reports one.
	Price float64 `json:"price,omitempty"`
}

// Slice is a Row with its share of the total, in percent.
type Slice struct {
	Row
	SharePct float64 `json:"share_pct"`
}

// Rank drops rows below floor and rows with negative or non-finite values,
// then sorts descending by value with ties ordered by name. The floor is
// inclusive: a row exactly at floor is kept. topK <= 0 keeps every remaining row.
func Rank(rows []Row, floor float64, topK int) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if math.IsNaN(r.Value) || math.IsInf(r.Value, 0) || r.Value < 0 || r.Value < floor {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Name < out[j].Name
	})
	if topK > 0 && len(out) > topK {
		out = out[:topK]
	}
	return out
}

// Total sums the row values.
func Total(rows []Row) float64 {
	var sum float64
	for _, r := range rows {
		sum += r.Value
	}
	return sum
}

// Breakdown turns ranked rows into pie slices: the first topK rows as-is and
// everything after folded into a single Others slice. rows must already be
// ranked.
func Breakdown(rows []Row, topK int) []Slice {
	total := Total(rows)
	head := rows
	var rest []Row
	if topK > 0 && len(rows) > topK {
		head, rest = rows[:topK], rows[topK:]
	}

	out := make([]Slice, 0, len(head)+1)
	for _, r := range head {
		out = append(out, Slice{Row: r, SharePct: share(r.Value, total)})
	}
	if len(rest) > 0 {
		other := Total(rest)
		out = append(out, Slice{Row: Row{Name: OthersName, Value: other}, SharePct: share(other, total)})
	}
	return out
}

func share(v, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return v / total * 100
}
