package dcf

import (
	"errors"
	"fmt"

	"github.com/iwvelando/finance-valuation/pkg/financial"
)

// Sentinel errors for a DCF run. Use errors.Is against the structured errors
// below.
var (
	ErrInsufficientData   = errors.New("insufficient data")
	ErrInvalidAssumptions = errors.New("invalid assumptions")
	ErrInvalidShareCount  = errors.New("invalid share count")
)

// AssumptionError reports an assumption that makes the projection undefined.
type AssumptionError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *AssumptionError) Error() string {
	return fmt.Sprintf("invalid assumption %s=%g: %s", e.Field, e.Value, e.Reason)
}

func (e *AssumptionError) Unwrap() error {
	return ErrInvalidAssumptions
}

// DataError reports a metric required to seed the projection that has no
// value in the base year.
type DataError struct {
	Kind financial.Kind
	Year string
}

func (e *DataError) Error() string {
	if e.Year == "" {
		return fmt.Sprintf("no %s data to seed projection", e.Kind)
	}
	return fmt.Sprintf("no %s data for %s to seed projection", e.Kind, e.Year)
}

func (e *DataError) Unwrap() error {
	return ErrInsufficientData
}

// ShareCountError reports a missing or non-positive share count.
type ShareCountError struct {
	Shares    float64
	Available bool
}

func (e *ShareCountError) Error() string {
	if !e.Available {
		return "no share count in dataset and no fallback supplied"
	}
	return fmt.Sprintf("share count %g must be positive", e.Shares)
}

func (e *ShareCountError) Unwrap() error {
	return ErrInvalidShareCount
}

// ErrorCode classifies an error from a DCF run for reporting.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInsufficientData):
		return "insufficient_data"
	case errors.Is(err, ErrInvalidAssumptions):
		return "invalid_assumptions"
	case errors.Is(err, ErrInvalidShareCount):
		return "invalid_share_count"
	default:
		return "internal"
	}
}
