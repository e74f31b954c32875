// Package dcf projects free cash flows from a company's latest actuals and
// discounts them to an enterprise value and fair value per share.
package dcf

import (
	"math"

	"github.com/iwvelando/finance-valuation/pkg/constants"
	"github.com/iwvelando/finance-valuation/pkg/datetime"
	"github.com/iwvelando/finance-valuation/pkg/financial"
	"github.com/iwvelando/finance-valuation/pkg/mathutil"
)

// ProjectionYear is one projected year.
type ProjectionYear struct {
	Year           int      `json:"year"`
	Revenue        float64  `json:"revenue"`
	EBIT           float64  `json:"ebit"`
	EBITDA         *float64 `json:"ebitda,omitempty"`
	NOPAT          float64  `json:"nopat"`
	Capex          float64  `json:"capex"`
	Depreciation   float64  `json:"depreciation,omitempty"`
	ChangeInNWC    float64  `json:"changeInNwc,omitempty"`
	FreeCashFlow   float64  `json:"freeCashFlow"`
	DiscountFactor float64  `json:"discountFactor"`
	PresentValue   float64  `json:"presentValue"`
}

// Result is the output of one DCF run.
type Result struct {
	BaseYear string           `json:"baseYear"`
	Params   Params           `json:"params"`
	Years    []ProjectionYear `json:"years"`

	// TerminalValue is the undiscounted terminal value of the selected method.
	TerminalValue             float64  `json:"terminalValue"`
	PerpetuityTerminalValue   *float64 `json:"perpetuityTerminalValue,omitempty"`
	ExitMultipleTerminalValue *float64 `json:"exitMultipleTerminalValue,omitempty"`

	PresentValueOfTerminalValue float64 `json:"presentValueOfTerminalValue"`
	SumOfPresentValuesOfFCF     float64 `json:"sumOfPresentValuesOfFcf"`
	EnterpriseValue             float64 `json:"enterpriseValue"`

	SharesOutstanding *float64 `json:"sharesOutstanding,omitempty"`
	FairValuePerShare *float64 `json:"fairValuePerShare,omitempty"`
	ImpliedPremiumPct *float64 `json:"impliedPremiumPct,omitempty"`
}

// TerminalValueWeight returns the share of enterprise value contributed by
// the discounted terminal value, in percent.
func (r *Result) TerminalValueWeight() (float64, bool) {
	return mathutil.CalculatePercentage(r.PresentValueOfTerminalValue, r.EnterpriseValue)
}

var seedKinds = []financial.Kind{financial.Revenue, financial.EBIT, financial.Capex}

type seed struct {
	year    string
	revenue float64
	ebit    float64
	capex   float64
	ebitda  *float64
}

// Project runs the DCF for a resolved statement. It never mutates its inputs
// and returns identical results for identical inputs.
//
// Missing seed data and undefined assumptions return a nil Result. A
// missing or non-positive share count returns the Result with enterprise
// value populated, no per-share figures, and an error wrapping
// ErrInvalidShareCount.
func Project(s *financial.Statement, a Assumptions) (*Result, error) {
	base, err := seedFrom(s)
	if err != nil {
		return nil, err
	}

	p := a.Resolve(s, base.year)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.TerminalMethod == constants.TerminalMethodExitMultiple && base.ebitda == nil {
		return nil, &DataError{Kind: financial.EBITDA, Year: base.year}
	}

	baseYear, err := datetime.ParseFiscalYear(base.year)
	if err != nil {
		return nil, &DataError{Kind: financial.Revenue, Year: base.year}
	}

	r := &Result{BaseYear: base.year, Params: p, Years: make([]ProjectionYear, 0, p.ProjectionYears)}

	ebitGrowth := p.RevenueGrowthRate * p.EBITGrowthDamping
	capexGrowth := p.RevenueGrowthRate * p.CapexGrowthDamping

	revenue, ebit, capex := base.revenue, base.ebit, base.capex
	var ebitda float64
	if base.ebitda != nil {
		ebitda = *base.ebitda
	}
	prevNWC := nwc(p, revenue)

	for i := 1; i <= p.ProjectionYears; i++ {
		revenue *= 1 + p.RevenueGrowthRate
		ebit *= 1 + ebitGrowth
		capex *= 1 + capexGrowth

		y := ProjectionYear{
			Year:    baseYear + i,
			Revenue: revenue,
			EBIT:    ebit,
			NOPAT:   ebit * (1 - p.TaxRate),
			Capex:   capex,
		}
		if base.ebitda != nil {
			ebitda *= 1 + ebitGrowth
			y.EBITDA = Float(ebitda)
		}

		y.FreeCashFlow = y.NOPAT - y.Capex
		if p.DepreciationPctRevenue != nil {
			y.Depreciation = revenue * *p.DepreciationPctRevenue
			y.FreeCashFlow += y.Depreciation
		}
		if p.NWCPctRevenue != nil {
			current := nwc(p, revenue)
			y.ChangeInNWC = current - prevNWC
			y.FreeCashFlow -= y.ChangeInNWC
			prevNWC = current
		}

		y.DiscountFactor = 1 / mathutil.CompoundFactor(p.WACC, i)
		y.PresentValue = y.FreeCashFlow * y.DiscountFactor
		r.SumOfPresentValuesOfFCF += y.PresentValue
		r.Years = append(r.Years, y)
	}

	last := r.Years[len(r.Years)-1]
	perpetuity := last.FreeCashFlow * (1 + p.TerminalGrowthRate) / (p.WACC - p.TerminalGrowthRate)
	r.PerpetuityTerminalValue = Float(perpetuity)
	if last.EBITDA != nil && p.ExitMultiple > 0 {
		r.ExitMultipleTerminalValue = Float(*last.EBITDA * p.ExitMultiple)
	}

	r.TerminalValue = perpetuity
	if p.TerminalMethod == constants.TerminalMethodExitMultiple {
		r.TerminalValue = *r.ExitMultipleTerminalValue
	}
	r.PresentValueOfTerminalValue = r.TerminalValue * last.DiscountFactor
	r.EnterpriseValue = r.SumOfPresentValuesOfFCF + r.PresentValueOfTerminalValue

	if !mathutil.IsFinite(r.EnterpriseValue) {
		return nil, &AssumptionError{Field: "wacc", Value: p.WACC, Reason: "enterprise value is not finite"}
	}

	shares, err := shareCount(s, base.year, p)
	if err != nil {
		return r, err
	}
	r.SharesOutstanding = Float(shares)
	r.FairValuePerShare = Float(r.EnterpriseValue / shares)
	if s.Market.SharePrice != nil {
		if premium, ok := Premium(*r.FairValuePerShare, *s.Market.SharePrice); ok {
			r.ImpliedPremiumPct = Float(premium)
		}
	}
	return r, nil
}

// ProjectDataset resolves the dataset and runs Project.
func ProjectDataset(d financial.Dataset, a Assumptions) (*Result, error) {
	return Project(financial.Resolve(d), a)
}

// Premium returns (fairValue − price) / price × 100. It is unavailable when
// the price is not positive.
func Premium(fairValue, price float64) (float64, bool) {
	if price <= 0 {
		return 0, false
	}
	return mathutil.PercentChange(price, fairValue)
}

// seedFrom reads revenue, EBIT and capex from the last fiscal year. A gap in
// that year is reported rather than filled from an earlier year.
func seedFrom(s *financial.Statement) (seed, error) {
	if len(s.Years) == 0 {
		return seed{}, &DataError{Kind: financial.Revenue}
	}
	year := s.Years[len(s.Years)-1]
	for _, k := range seedKinds {
		if _, ok := s.Value(k, year); !ok {
			return seed{}, &DataError{Kind: k, Year: year}
		}
	}

	b := seed{year: year}
	b.revenue, _ = s.Value(financial.Revenue, year)
	b.ebit, _ = s.Value(financial.EBIT, year)
	capex, _ := s.Value(financial.Capex, year)
	b.capex = math.Abs(capex)
	if v, ok := s.Value(financial.EBITDA, year); ok {
		b.ebitda = Float(v)
	} else if dep, ok := s.Value(financial.Depreciation, year); ok {
		b.ebitda = Float(b.ebit + math.Abs(dep))
	}
	return b, nil
}

func nwc(p Params, revenue float64) float64 {
	if p.NWCPctRevenue == nil {
		return 0
	}
	return revenue * *p.NWCPctRevenue
}

// shareCount prefers the dataset's share count for the base year over the
// fallback.
func shareCount(s *financial.Statement, year string, p Params) (float64, error) {
	if v, ok := s.Value(financial.IssuedShares, year); ok {
		if v <= 0 {
			return 0, &ShareCountError{Shares: v, Available: true}
		}
		return v, nil
	}
	if p.SharesFallback != nil {
		if *p.SharesFallback <= 0 {
			return 0, &ShareCountError{Shares: *p.SharesFallback, Available: true}
		}
		return *p.SharesFallback, nil
	}
	return 0, &ShareCountError{}
}
