// Package format renders monetary amounts and percentages for display.
package format

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var compactUnits = []struct {
	threshold float64
	suffix    string
}{
	{1e12, "T"},
	{1e9, "B"},
	{1e6, "M"},
	{1e3, "K"},
}

// Currency returns a currency string with a dollar sign and thousands separators (e.g., "-$1,234.56").
func Currency(amount float64) string {
	formatted := formatPositiveCurrency(math.Abs(amount))
	if amount < 0 {
		return "-$" + formatted
	}
	return "$" + formatted
}

// NumericCurrency returns a currency string without a currency symbol but with separators (e.g., "-1,234.56").
func NumericCurrency(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
	}
	formatted := formatPositiveCurrency(math.Abs(amount))
	return sign + formatted
}

// CompactCurrency scales large amounts to a unit suffix (e.g., "$1.39B").
func CompactCurrency(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
	}
	abs := math.Abs(amount)
	for _, unit := range compactUnits {
		if abs >= unit.threshold {
			return fmt.Sprintf("%s$%.2f%s", sign, abs/unit.threshold, unit.suffix)
		}
	}
	return sign + "$" + fmt.Sprintf("%.2f", abs)
}

// Percent renders a fraction as a percentage with two decimals (0.3 → "30.00%").
func Percent(fraction float64) string {
	return decimal.NewFromFloat(fraction).Shift(2).StringFixed(2) + "%"
}

// PercentPoints renders a value that is already expressed in percent
// (57.142857 → "57.14%").
func PercentPoints(value float64) string {
	return decimal.NewFromFloat(value).StringFixed(2) + "%"
}

// Multiple renders a ratio as a multiple (42.5 → "42.50x").
func Multiple(value float64) string {
	return decimal.NewFromFloat(value).StringFixed(2) + "x"
}

func formatPositiveCurrency(value float64) string {
	formatted := fmt.Sprintf("%.2f", value)
	parts := strings.SplitN(formatted, ".", 2)
	intPart := parts[0]
	decPart := "00"
	if len(parts) == 2 {
		decPart = parts[1]
	}

	if len(intPart) > 3 {
		var builder strings.Builder
		for i, digit := range intPart {
			if i > 0 && (len(intPart)-i)%3 == 0 {
				builder.WriteByte(',')
			}
			builder.WriteRune(digit)
		}
		intPart = builder.String()
	}

	return intPart + "." + decPart
}
