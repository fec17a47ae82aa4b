package snapshot

import (
	"math"
	"testing"
)

func names(rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Name
	}
	return out
}

func TestRankFloorBoundary(t *testing.T) {
	rows := []Row{
		{Name: "obscure-coin", Value: 500_000},
		{Name: "dai", Value: 5e9},
		{Name: "boundary-coin", Value: 1_000_000},
		{Name: "tether", Value: 1e11},
	}
	got := names(Rank(rows, 1_000_000, 0))
	want := []string{"tether", "dai", "boundary-coin"}
	if len(got) != len(want) {
		t.Fatalf("Rank = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Rank[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRankDropsNegativeAndTruncates(t *testing.T) {
	rows := []Row{
		{Name: "b", Value: 10},
		{Name: "neg", Value: -5},
		{Name: "a", Value: 10},
		{Name: "c", Value: 30},
		{Name: "d", Value: 1},
	}
	got := names(Rank(rows, 0, 3))
	want := []string{"c", "a", "b"}
	if len(got) != 3 {
		t.Fatalf("Rank = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Rank[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if n := len(Rank(nil, 0, 5)); n != 0 {
		t.Errorf("Rank(nil) len = %d, want 0", n)
	}
}

func TestRankDropsNonFinite(t *testing.T) {
	rows := []Row{
		{Name: "inf", Value: math.Inf(1)},
		{Name: "ok", Value: 5e6},
		{Name: "nan", Value: math.NaN()},
		{Name: "neg-inf", Value: math.Inf(-1)},
	}
	got := Rank(rows, 1e6, 0)
	if len(got) != 1 || got[0].Name != "ok" {
		t.Fatalf("Rank = %v, want [ok]", names(got))
	}
	if total := Total(got); total != 5e6 {
		t.Errorf("Total = %v, want 5e6", total)
	}
}

func TestBreakdown(t *testing.T) {
	rows := Rank([]Row{
		{Name: "usdt", Value: 60},
		{Name: "usdc", Value: 25},
		{Name: "dai", Value: 10},
		{Name: "fdusd", Value: 5},
	}, 0, 0)

	got := Breakdown(rows, 2)
	if len(got) != 3 {
		t.Fatalf("len(Breakdown) = %d, want 3", len(got))
	}
	if got[2].Name != OthersName || got[2].Value != 15 {
		t.Errorf("others = %+v, want {Others 15}", got[2].Row)
	}
	wantShares := []float64{60, 25, 15}
	for i, w := range wantShares {
		if math.Abs(got[i].SharePct-w) > 1e-9 {
			t.Errorf("share[%d] = %v, want %v", i, got[i].SharePct, w)
		}
	}

	if all := Breakdown(rows, 0); len(all) != 4 {
		t.Errorf("Breakdown(topK=0) len = %d, want 4", len(all))
	}
	if zero := Breakdown([]Row{{Name: "x", Value: 0}}, 1); zero[0].SharePct != 0 {
		t.Errorf("share of zero total = %v, want 0", zero[0].SharePct)
	}
}
