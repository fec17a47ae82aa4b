package series

import (
	"fmt"
	"time"
)

// Bucket is a named lookback range used to trim a series for display.
type Bucket string

const (
	Bucket6M  Bucket = "6m"
	Bucket1Y  Bucket = "1y"
	Bucket5Y  Bucket = "5y"
	BucketAll Bucket = "all"
)

var bucketDays = map[Bucket]int{
	Bucket6M:  180,
	Bucket1Y:  365,
	Bucket5Y:  1825,
	BucketAll: 0,
}

// Buckets lists the supported buckets, shortest first.
func Buckets() []Bucket {
	return []Bucket{Bucket6M, Bucket1Y, Bucket5Y, BucketAll}
}

// ParseBucket validates a bucket name. An empty name selects def.
func ParseBucket(name string, def Bucket) (Bucket, error) {
	if name == "" {
		return def, nil
	}
	b := Bucket(name)
	if _, ok := bucketDays[b]; !ok {
		return "", fmt.Errorf("unknown window %q", name)
	}
	return b, nil
}

// Days returns the bucket length in days; 0 means unbounded.
func (b Bucket) Days() int { return bucketDays[b] }

// Window trims s to the observations at or after latest-minus-bucket, where
// latest is the series' own last timestamp rather than the current time.
// BucketAll and unknown buckets return s unchanged.
func Window(s Series, b Bucket) Series {
	days := b.Days()
	latest, ok := s.Latest()
	if days == 0 || !ok {
		return s
	}
	cutoff := latest.Time.Add(-time.Duration(days) * 24 * time.Hour)
	start := len(s.Observations)
	for i, o := range s.Observations {
		if !o.Time.Before(cutoff) {
			start = i
			break
		}
	}
	return s.withObservations(s.Observations[start:])
}
