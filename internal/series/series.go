// Package series holds the time-series model shared by every dashboard
// panel along with the transforms applied before rendering: year-over-year
// conversion, lookback windows and delta annotations.
package series

import (
	"math"
	"sort"
	"time"
)

// Observation is a single dated reading of an indicator.
type Observation struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// Series is an ordered run of observations for one named indicator.
// Timestamps are strictly increasing once a series has gone through Clean.
type Series struct {
	ID           string        `json:"id"`
	Label        string        `json:"label"`
	Unit         Unit          `json:"unit"`
	Observations []Observation `json:"observations"`
}

// Len returns the number of observations.
func (s Series) Len() int { return len(s.Observations) }

// Empty reports whether the series has no observations.
func (s Series) Empty() bool { return len(s.Observations) == 0 }

// Latest returns the last observation and false if the series is empty.
func (s Series) Latest() (Observation, bool) {
	if len(s.Observations) == 0 {
		return Observation{}, false
	}
	return s.Observations[len(s.Observations)-1], true
}

// withObservations returns a copy of s carrying obs.
func (s Series) withObservations(obs []Observation) Series {
	s.Observations = obs
	return s
}

// Clean sorts observations by time, drops missing (NaN or infinite) values
// and collapses duplicate timestamps to the last value seen. The input slice
// is not modified.
func Clean(obs []Observation) []Observation {
	out := make([]Observation, 0, len(obs))
	for _, o := range obs {
		if math.IsNaN(o.Value) || math.IsInf(o.Value, 0) || o.Time.IsZero() {
			continue
		}
		out = append(out, o)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })

	deduped := out[:0]
	for _, o := range out {
		if n := len(deduped); n > 0 && deduped[n-1].Time.Equal(o.Time) {
			deduped[n-1] = o
			continue
		}
		deduped = append(deduped, o)
	}
	return deduped
}

// New builds a cleaned series.
func New(id, label string, unit Unit, obs []Observation) Series {
	return Series{ID: id, Label: label, Unit: unit, Observations: Clean(obs)}
}

// Scale multiplies every value by factor. Used to convert raw dollar amounts
// into the billions or millions a panel is labelled in.
func Scale(s Series, factor float64) Series {
	out := make([]Observation, len(s.Observations))
	for i, o := range s.Observations {
		out[i] = Observation{Time: o.Time, Value: o.Value * factor}
	}
	return s.withObservations(out)
}
