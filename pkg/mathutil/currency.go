// Package mathutil provides common mathematical utility functions.
package mathutil

import (
	"math"

	"github.com/iwvelando/finance-valuation/pkg/constants"
)

// Round rounds a value to two decimals, i.e. to represent real currency.
// Used for making logical comparisons.
func Round(val float64) float64 {
	return math.Round(val*constants.DecimalPrecision) / constants.DecimalPrecision
}

// RoundTo rounds a value to the given number of decimal places.
func RoundTo(val float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(val*factor) / factor
}

// IsZero checks if a value is effectively zero (within tolerance)
func IsZero(val float64) bool {
	return math.Abs(val) <= constants.CurrencyTolerance
}

// WithinTolerance checks if two values are within a specified tolerance
func WithinTolerance(val1, val2, tolerance float64) bool {
	return math.Abs(val1-val2) <= tolerance
}

// IsFinite reports whether a value is neither NaN nor infinite.
func IsFinite(val float64) bool {
	return !math.IsNaN(val) && !math.IsInf(val, 0)
}

// SafeDivide divides numerator by denominator. The second return value is
// false when the denominator is zero or the result is not finite.
func SafeDivide(numerator, denominator float64) (float64, bool) {
	if denominator == 0 {
		return 0, false
	}
	result := numerator / denominator
	if !IsFinite(result) {
		return 0, false
	}
	return result, true
}

// CalculatePercentage calculates what percentage value is of total
func CalculatePercentage(value, total float64) (float64, bool) {
	ratio, ok := SafeDivide(value, total)
	if !ok {
		return 0, false
	}
	return ratio * constants.PercentageMultiplier, true
}

// PercentChange returns the change from previous to current as a percentage
// of previous.
func PercentChange(previous, current float64) (float64, bool) {
	return CalculatePercentage(current-previous, previous)
}

// CompoundFactor returns (1+rate)^periods.
func CompoundFactor(rate float64, periods int) float64 {
	return math.Pow(1+rate, float64(periods))
}
