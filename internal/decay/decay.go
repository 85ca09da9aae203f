// Package decay attenuates an effect by the time that separates cause and
// consequence.
package decay

import (
	"math"
	"time"
)

// Lambda is the default decay rate per year.
const Lambda = 0.25

const yearLength = 365 * 24 * time.Hour

// Factor returns exp(-lambda * years). Negative spans count as zero, so the
// factor never exceeds 1.
func Factor(lambda, years float64) float64 {
	if years < 0 {
		years = 0
	}
	return math.Exp(-lambda * years)
}

// Default applies Factor with Lambda.
func Default(years float64) float64 {
	return Factor(Lambda, years)
}

// YearsBetween is the fractional number of 365-day years from a to b,
// floored at zero.
func YearsBetween(a, b time.Time) float64 {
	return math.Max(0, float64(b.Sub(a))/float64(yearLength))
}
