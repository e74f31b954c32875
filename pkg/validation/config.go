package validation

import (
	"fmt"

	"github.com/iwvelando/finance-valuation/pkg/constants"
	"github.com/iwvelando/finance-valuation/pkg/dcf"
	"github.com/iwvelando/finance-valuation/pkg/financial"
)

// dcfKinds are the metrics a projection cannot start without.
var dcfKinds = []financial.Kind{financial.Revenue, financial.EBIT, financial.Capex}

// ValidateAssumptions returns warnings for resolved assumptions that are
// computable but implausible. Hard failures are left to Params.Validate.
func ValidateAssumptions(label string, p dcf.Params) []string {
	var warnings []string

	if p.RevenueGrowthRate > constants.MaxPlausibleGrowthRate {
		warnings = append(warnings, fmt.Sprintf("%s: revenue growth rate %.2f%% exceeds %.0f%%",
			label, p.RevenueGrowthRate*100, constants.MaxPlausibleGrowthRate*100))
	}
	if p.WACC > constants.MaxPlausibleWACC {
		warnings = append(warnings, fmt.Sprintf("%s: WACC %.2f%% exceeds %.0f%%",
			label, p.WACC*100, constants.MaxPlausibleWACC*100))
	}
	if p.TerminalGrowthRate > p.RevenueGrowthRate {
		warnings = append(warnings, fmt.Sprintf("%s: terminal growth rate %.2f%% exceeds revenue growth rate %.2f%%",
			label, p.TerminalGrowthRate*100, p.RevenueGrowthRate*100))
	}
	return warnings
}

// ValidateStatement returns warnings for unparsable cells and for metrics
// the projection needs but the dataset does not carry.
func ValidateStatement(s *financial.Statement) []string {
	var warnings []string

	for _, issue := range s.Issues() {
		warnings = append(warnings, fmt.Sprintf("Metric '%s' has unparsable value for %s, treated as no data: %v",
			issue.Metric, issue.Year, issue.Err))
	}

	last := ""
	if n := len(s.Years); n > 0 {
		last = s.Years[n-1]
	}
	for _, kind := range dcfKinds {
		if !s.Has(kind) {
			warnings = append(warnings, fmt.Sprintf("No %s metric found, DCF projection unavailable", kind))
			continue
		}
		if _, ok := s.Value(kind, last); !ok {
			warnings = append(warnings, fmt.Sprintf("No %s value for %s, DCF projection unavailable", kind, last))
		}
	}
	if !s.Has(financial.IssuedShares) {
		warnings = append(warnings, "No issued shares metric found, fair value per share requires sharesOutstanding")
	} else if _, ok := s.Value(financial.IssuedShares, last); !ok {
		warnings = append(warnings, fmt.Sprintf("No issued shares value for %s, fair value per share requires sharesOutstanding", last))
	}
	if s.Market.SharePrice == nil {
		warnings = append(warnings, "No share price in market data, premium and status unavailable")
	}
	return warnings
}

// ValuationValidator collects warnings across a dataset and every set of
// assumptions it will be valued under.
type ValuationValidator struct {
	Statement *financial.Statement
	Base      dcf.Assumptions
	Scenarios []NamedAssumptions
}

// NamedAssumptions labels scenario overrides for warning messages.
type NamedAssumptions struct {
	Name        string
	Assumptions dcf.Assumptions
}

// ValidateAll runs every check and returns the combined warnings.
func (v *ValuationValidator) ValidateAll() []string {
	warnings := ValidateStatement(v.Statement)

	var baseYear string
	if n := len(v.Statement.Years); n > 0 {
		baseYear = v.Statement.Years[n-1]
	}
	base := v.Base.Resolve(v.Statement, baseYear)
	if base.TaxRateSource == dcf.TaxSourceDefault {
		warnings = append(warnings, fmt.Sprintf("No tax rate for %s in dataset, using default %.0f%%",
			baseYear, base.TaxRate*100))
	}
	warnings = append(warnings, ValidateAssumptions("base", base)...)

	for _, sc := range v.Scenarios {
		p := v.Base.With(sc.Assumptions).Resolve(v.Statement, baseYear)
		warnings = append(warnings, ValidateAssumptions("scenario '"+sc.Name+"'", p)...)
	}
	return warnings
}
