package series

import (
	"math"
	"testing"
	"time"
)

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func day(n int) time.Time { return day0.AddDate(0, 0, n) }

func monthly(values ...float64) []Observation {
	obs := make([]Observation, len(values))
	for i, v := range values {
		obs[i] = Observation{Time: day0.AddDate(0, i, 0), Value: v}
	}
	return obs
}

func TestClean(t *testing.T) {
	in := []Observation{
		{Time: day(2), Value: 3},
		{Time: day(0), Value: 1},
		{Time: day(1), Value: math.NaN()},
		{Time: day(2), Value: 4},
		{Time: time.Time{}, Value: 9},
		{Time: day(1), Value: 2},
	}
	got := Clean(in)

	want := []Observation{{Time: day(0), Value: 1}, {Time: day(1), Value: 2}, {Time: day(2), Value: 4}}
	if len(got) != len(want) {
		t.Fatalf("len(Clean) = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if !got[i].Time.Equal(want[i].Time) || got[i].Value != want[i].Value {
			t.Errorf("Clean[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
	if len(in) != 6 || !in[0].Time.Equal(day(2)) {
		t.Error("Clean modified its input")
	}
}

func TestLatest(t *testing.T) {
	if _, ok := (Series{}).Latest(); ok {
		t.Error("Latest on empty series should report false")
	}
	s := New("x", "X", UnitNone, monthly(1, 2, 3))
	o, ok := s.Latest()
	if !ok || o.Value != 3 {
		t.Errorf("Latest = %+v, %v; want value 3", o, ok)
	}
}

func TestScale(t *testing.T) {
	s := New("x", "X", UnitNone, monthly(2_000_000_000, 3_500_000_000))
	got := Scale(s, 1e-9)
	if got.Observations[0].Value != 2 || got.Observations[1].Value != 3.5 {
		t.Errorf("Scale = %+v, want [2 3.5]", got.Observations)
	}
	if s.Observations[0].Value != 2_000_000_000 {
		t.Error("Scale modified its input")
	}
}

func TestUnitFromLabel(t *testing.T) {
	tests := []struct {
		label string
		want  Unit
	}{
		{"Fed Funds Rate (%)", UnitPercentPoint},
		{"HY Spread (%p)", UnitPercentPoint},
		{"M2 (B)", UnitBillions},
		{"M2 ($B)", UnitBillions},
		{"Stablecoin Supply (bn)", UnitBillions},
		{"RWA TVL (M)", UnitMillions},
		{"Index", UnitNone},
		{"Index (pts)", UnitNone},
		{"Broken (B", UnitNone},
		{"", UnitNone},
	}
	for _, tt := range tests {
		if got := UnitFromLabel(tt.label); got != tt.want {
			t.Errorf("UnitFromLabel(%q) = %q, want %q", tt.label, got, tt.want)
		}
	}
}

func TestResolvePrefersExplicitUnit(t *testing.T) {
	if got := Resolve("M", "Supply (B)"); got != UnitMillions {
		t.Errorf("Resolve explicit = %q, want %q", got, UnitMillions)
	}
	if got := Resolve("", "Supply (B)"); got != UnitBillions {
		t.Errorf("Resolve fallback = %q, want %q", got, UnitBillions)
	}
}

func TestYoYDropsLeadingPeriods(t *testing.T) {
	values := make([]float64, 15)
	for i := range values {
		values[i] = 100 + float64(i)
	}
	s := New("cpi", "CPI", UnitNone, monthly(values...))
	got := YoY(s, 12)

	if got.Len() != 3 {
		t.Fatalf("len(YoY) = %d, want 3", got.Len())
	}
	for _, o := range got.Observations {
		for _, first := range s.Observations[:12] {
			if o.Time.Equal(first.Time) {
				t.Errorf("YoY contains %v which has no 12-period comparator", o.Time)
			}
		}
	}
	if want := 12.0; math.Abs(got.Observations[0].Value-want) > 1e-9 {
		t.Errorf("YoY[0] = %v, want %v", got.Observations[0].Value, want)
	}
	if got.Unit != UnitPercentPoint {
		t.Errorf("YoY unit = %q, want %q", got.Unit, UnitPercentPoint)
	}
}

func TestYoYShortAndZeroComparator(t *testing.T) {
	if got := YoY(New("a", "A", UnitNone, monthly(1, 2, 3)), 12); !got.Empty() {
		t.Errorf("YoY of short series = %d obs, want 0", got.Len())
	}
	got := YoY(New("a", "A", UnitNone, monthly(0, 5, 10, 10)), 2)
	if got.Len() != 1 || got.Observations[0].Value != 100 {
		t.Errorf("YoY with zero comparator = %+v, want single 100", got.Observations)
	}
}

func TestParseBucket(t *testing.T) {
	for _, b := range Buckets() {
		got, err := ParseBucket(string(b), Bucket1Y)
		if err != nil || got != b {
			t.Errorf("ParseBucket(%q) = %q, %v", b, got, err)
		}
	}
	if got, _ := ParseBucket("", Bucket1Y); got != Bucket1Y {
		t.Errorf("ParseBucket empty = %q, want default", got)
	}
	if _, err := ParseBucket("3m", Bucket1Y); err == nil {
		t.Error("ParseBucket(3m) expected error")
	}
}

func TestWindowAllUnchanged(t *testing.T) {
	s := New("x", "X", UnitNone, monthly(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14))
	got := Window(s, BucketAll)
	if got.Len() != s.Len() {
		t.Errorf("Window(all) len = %d, want %d", got.Len(), s.Len())
	}
}

func TestWindowSixMonths(t *testing.T) {
	obs := make([]Observation, 0, 400)
	for i := 0; i < 400; i++ {
		obs = append(obs, Observation{Time: day(i), Value: float64(i)})
	}
	s := New("x", "X", UnitNone, obs)
	got := Window(s, Bucket6M)

	latest, _ := s.Latest()
	cutoff := latest.Time.AddDate(0, 0, -180)
	if got.Observations[0].Time.Before(cutoff) {
		t.Errorf("Window(6m) earliest = %v, before cutoff %v", got.Observations[0].Time, cutoff)
	}
	if got.Len() != 181 {
		t.Errorf("Window(6m) len = %d, want 181", got.Len())
	}
}

func TestWindowUsesSeriesLatestNotNow(t *testing.T) {
	old := []Observation{
		{Time: time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC), Value: 1},
		{Time: time.Date(2001, 3, 1, 0, 0, 0, 0, time.UTC), Value: 2},
	}
	got := Window(New("x", "X", UnitNone, old), Bucket6M)
	if got.Len() != 2 {
		t.Errorf("Window(6m) of old series len = %d, want 2", got.Len())
	}
	if empty := Window(Series{}, Bucket6M); !empty.Empty() {
		t.Error("Window of empty series should be empty")
	}
}
