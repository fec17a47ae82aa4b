package series

import (
	"strings"
)

// Unit controls how a delta magnitude is suffixed and rounded.
type Unit string

const (
	UnitNone         Unit = ""
	UnitPercentPoint Unit = "%p"
	UnitBillions     Unit = "B"
	UnitMillions     Unit = "M"
)

// unitTokens maps unit tokens, as written in catalog entries or in the
// parenthesized suffix of a label, to a unit. Keys are lower-cased. A series
// quoted in percent moves in percentage points, so "%" maps there too.
var unitTokens = map[string]Unit{
	"%p":    UnitPercentPoint,
	"pp":    UnitPercentPoint,
	"%":     UnitPercentPoint,
	"b":     UnitBillions,
	"$b":    UnitBillions,
	"bn":    UnitBillions,
	"usd b": UnitBillions,
	"m":     UnitMillions,
	"$m":    UnitMillions,
	"mm":    UnitMillions,
	"usd m": UnitMillions,
}

// ParseUnit resolves a unit token. Unknown tokens yield UnitNone.
func ParseUnit(token string) Unit {
	return unitTokens[strings.ToLower(strings.TrimSpace(token))]
}

// UnitFromLabel infers a unit from a trailing parenthesized suffix such as
// "M2 (B)" or "Fed Funds Rate (%)".
func UnitFromLabel(label string) Unit {
	label = strings.TrimSpace(label)
	if !strings.HasSuffix(label, ")") {
		return UnitNone
	}
	open := strings.LastIndex(label, "(")
	if open < 0 {
		return UnitNone
	}
	return ParseUnit(label[open+1 : len(label)-1])
}

// Resolve returns the explicit unit when one is given and falls back to
// inferring it from the label.
func Resolve(explicit, label string) Unit {
	if strings.TrimSpace(explicit) != "" {
		return ParseUnit(explicit)
	}
	return UnitFromLabel(label)
}

// decimals is the number of places a magnitude in u is rounded to.
func (u Unit) decimals() int32 {
	if u == UnitPercentPoint {
		return 2
	}
	return 1
}
