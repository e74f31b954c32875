package financial

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrNoData indicates that a metric has no usable value for a year. Empty
// cells, missing years and unparsable strings all resolve to it.
var ErrNoData = errors.New("no data")

// ParseError records a raw metric value that is neither empty, numeric nor a
// percentage. It unwraps to ErrNoData.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse metric value %q: %v", e.Raw, e.Err)
}

// Unwrap reports ErrNoData so callers treat parse failures as missing data.
func (e *ParseError) Unwrap() error {
	return ErrNoData
}

// ParseDecimal parses a raw metric value. Thousands separators and
// surrounding whitespace are ignored, accounting negatives such as
// "(1,200)" are accepted, and a trailing "%" divides the value by 100.
func ParseDecimal(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, ErrNoData
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	percent := false
	if strings.HasSuffix(s, "%") {
		percent = true
		s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	}

	s = strings.NewReplacer(",", "", " ", "", "_", "").Replace(s)
	if s == "" {
		return decimal.Zero, &ParseError{Raw: raw, Err: errors.New("no digits")}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &ParseError{Raw: raw, Err: err}
	}
	if percent {
		d = d.Shift(-2)
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// ParseValue parses a raw metric value into a float64. See ParseDecimal.
func ParseValue(raw string) (float64, error) {
	d, err := ParseDecimal(raw)
	if err != nil {
		return 0, err
	}
	return d.InexactFloat64(), nil
}
