// Package datetime provides fiscal-year label utilities.
package datetime

import (
	"fmt"
	"time"

	"github.com/iwvelando/finance-valuation/pkg/constants"
)

const (
	// FiscalYearLayout is the format expected for year labels in datasets and
	// is also the output label format for projected years.
	FiscalYearLayout = constants.FiscalYearLayout
)

// ParseFiscalYear parses a four-digit year label and returns the year.
func ParseFiscalYear(label string) (int, error) {
	if len(label) != 4 {
		return 0, fmt.Errorf("invalid fiscal year %q: expected four digits", label)
	}
	t, err := time.Parse(FiscalYearLayout, label)
	if err != nil {
		return 0, fmt.Errorf("invalid fiscal year %q: %w", label, err)
	}
	return t.Year(), nil
}

// NextFiscalYear returns the label offset by the given number of years
// relative to the given label.
func NextFiscalYear(label string, offset int) (string, error) {
	t, err := time.Parse(FiscalYearLayout, label)
	if err != nil {
		return label, err
	}
	return t.AddDate(offset, 0, 0).Format(FiscalYearLayout), nil
}

// YearBeforeYear returns true if firstYear is strictly before secondYear.
func YearBeforeYear(firstYear string, secondYear string) (bool, error) {
	first, err := ParseFiscalYear(firstYear)
	if err != nil {
		return false, err
	}
	second, err := ParseFiscalYear(secondYear)
	if err != nil {
		return false, err
	}
	return first < second, nil
}

// ValidateYears checks that every label is a valid fiscal year and that the
// labels are strictly ascending.
func ValidateYears(years []string) error {
	for i, label := range years {
		if _, err := ParseFiscalYear(label); err != nil {
			return err
		}
		if i == 0 {
			continue
		}
		before, err := YearBeforeYear(years[i-1], label)
		if err != nil {
			return err
		}
		if !before {
			return fmt.Errorf("fiscal years must be strictly ascending: %s follows %s", label, years[i-1])
		}
	}
	return nil
}
