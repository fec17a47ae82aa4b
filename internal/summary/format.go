package summary

import (
	"fmt"
	"math"
	"strings"

	"github.com/web3-frozen/liquidity-dashboard/internal/series"
)

// formatNum renders a dollar amount compactly: billions and millions get a
// suffix, thousands get separators.
func formatNum(v float64) string {
	a := math.Abs(v)
	switch {
	case a >= 1_000_000_000:
		return fmt.Sprintf("%.2fB", v/1_000_000_000)
	case a >= 1_000_000:
		return fmt.Sprintf("%.2fM", v/1_000_000)
	case a >= 1_000:
		return addCommas(fmt.Sprintf("%.2f", math.Round(v*100)/100))
	}
	return fmt.Sprintf("%.2f", v)
}

func addCommas(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	parts := strings.SplitN(s, ".", 2)
	intPart := parts[0]
	n := len(intPart)
	var result []byte
	for i, c := range intPart {
		if i > 0 && (n-i)%3 == 0 {
			result = append(result, ',')
		}
		result = append(result, byte(c))
	}
	if len(parts) == 2 {
		return sign + string(result) + "." + parts[1]
	}
	return sign + string(result)
}

// formatLevel renders an indicator reading in its display unit.
func formatLevel(v float64, u series.Unit) string {
	switch u {
	case series.UnitPercentPoint:
		return fmt.Sprintf("%.2f%%", v)
	case series.UnitBillions:
		return addCommas(fmt.Sprintf("%.1f", v)) + "B"
	case series.UnitMillions:
		return addCommas(fmt.Sprintf("%.1f", v)) + "M"
	}
	return addCommas(fmt.Sprintf("%.2f", v))
}
