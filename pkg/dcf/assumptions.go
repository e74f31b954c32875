package dcf

import (
	"strconv"

	"github.com/iwvelando/finance-valuation/pkg/constants"
	"github.com/iwvelando/finance-valuation/pkg/financial"
)

// Assumptions are the caller-supplied valuation inputs. Every field is
// optional; nil fields take the documented defaults when resolved.
type Assumptions struct {
	RevenueGrowthRate  *float64 `json:"revenueGrowthRate,omitempty" yaml:"revenueGrowthRate,omitempty" mapstructure:"revenueGrowthRate"`
	TerminalGrowthRate *float64 `json:"terminalGrowthRate,omitempty" yaml:"terminalGrowthRate,omitempty" mapstructure:"terminalGrowthRate"`
	WACC               *float64 `json:"wacc,omitempty" yaml:"wacc,omitempty" mapstructure:"wacc"`
	TaxRate            *float64 `json:"taxRate,omitempty" yaml:"taxRate,omitempty" mapstructure:"taxRate"`
	ProjectionYears    *int     `json:"projectionYears,omitempty" yaml:"projectionYears,omitempty" mapstructure:"projectionYears" validate:"omitempty,gte=1,lte=50"`
	EBITGrowthDamping  *float64 `json:"ebitGrowthDamping,omitempty" yaml:"ebitGrowthDamping,omitempty" mapstructure:"ebitGrowthDamping"`
	CapexGrowthDamping *float64 `json:"capexGrowthDamping,omitempty" yaml:"capexGrowthDamping,omitempty" mapstructure:"capexGrowthDamping"`

	// TerminalMethod selects the terminal value that drives enterprise value.
	TerminalMethod string   `json:"terminalMethod,omitempty" yaml:"terminalMethod,omitempty" mapstructure:"terminalMethod"`
	ExitMultiple   *float64 `json:"exitMultiple,omitempty" yaml:"exitMultiple,omitempty" mapstructure:"exitMultiple"`

	// Optional FCF refinements, as fractions of projected revenue.
	DepreciationPctRevenue *float64 `json:"depreciationPctRevenue,omitempty" yaml:"depreciationPctRevenue,omitempty" mapstructure:"depreciationPctRevenue"`
	NWCPctRevenue          *float64 `json:"nwcPctRevenue,omitempty" yaml:"nwcPctRevenue,omitempty" mapstructure:"nwcPctRevenue"`

	// SharesOutstanding is used only when the dataset has no share count.
	SharesOutstanding *float64 `json:"sharesOutstanding,omitempty" yaml:"sharesOutstanding,omitempty" mapstructure:"sharesOutstanding"`
}

// Params are fully resolved assumptions.
type Params struct {
	RevenueGrowthRate      float64  `json:"revenueGrowthRate"`
	TerminalGrowthRate     float64  `json:"terminalGrowthRate"`
	WACC                   float64  `json:"wacc"`
	TaxRate                float64  `json:"taxRate"`
	TaxRateSource          string   `json:"taxRateSource"`
	ProjectionYears        int      `json:"projectionYears"`
	EBITGrowthDamping      float64  `json:"ebitGrowthDamping"`
	CapexGrowthDamping     float64  `json:"capexGrowthDamping"`
	TerminalMethod         string   `json:"terminalMethod"`
	ExitMultiple           float64  `json:"exitMultiple"`
	DepreciationPctRevenue *float64 `json:"depreciationPctRevenue,omitempty"`
	NWCPctRevenue          *float64 `json:"nwcPctRevenue,omitempty"`
	SharesFallback         *float64 `json:"sharesFallback,omitempty"`
}

// Tax rate sources recorded in Params.
const (
	TaxSourceAssumption = "assumption"
	TaxSourceDataset    = "dataset"
	TaxSourceDefault    = "default"
)

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

// Int returns a pointer to v.
func Int(v int) *int {
	return &v
}

// With returns a copy of a with every non-nil field of override applied.
func (a Assumptions) With(override Assumptions) Assumptions {
	out := a
	setFloat(&out.RevenueGrowthRate, override.RevenueGrowthRate)
	setFloat(&out.TerminalGrowthRate, override.TerminalGrowthRate)
	setFloat(&out.WACC, override.WACC)
	setFloat(&out.TaxRate, override.TaxRate)
	setFloat(&out.EBITGrowthDamping, override.EBITGrowthDamping)
	setFloat(&out.CapexGrowthDamping, override.CapexGrowthDamping)
	setFloat(&out.ExitMultiple, override.ExitMultiple)
	setFloat(&out.DepreciationPctRevenue, override.DepreciationPctRevenue)
	setFloat(&out.NWCPctRevenue, override.NWCPctRevenue)
	setFloat(&out.SharesOutstanding, override.SharesOutstanding)
	if override.ProjectionYears != nil {
		out.ProjectionYears = Int(*override.ProjectionYears)
	}
	if override.TerminalMethod != "" {
		out.TerminalMethod = override.TerminalMethod
	}
	return out
}

func setFloat(dst **float64, src *float64) {
	if src != nil {
		*dst = Float(*src)
	}
}

// Resolve applies defaults to every unset assumption. The tax rate falls
// back to the statement's tax rate for baseYear, then to the default rate.
// Dataset tax rates above 1 are read as whole percentages.
func (a Assumptions) Resolve(s *financial.Statement, baseYear string) Params {
	p := Params{
		RevenueGrowthRate:      floatOr(a.RevenueGrowthRate, constants.DefaultRevenueGrowthRate),
		TerminalGrowthRate:     floatOr(a.TerminalGrowthRate, constants.DefaultTerminalGrowthRate),
		WACC:                   floatOr(a.WACC, constants.DefaultWACC),
		ProjectionYears:        constants.DefaultProjectionYears,
		EBITGrowthDamping:      floatOr(a.EBITGrowthDamping, constants.DefaultEBITGrowthDamping),
		CapexGrowthDamping:     floatOr(a.CapexGrowthDamping, constants.DefaultCapexGrowthDamping),
		TerminalMethod:         a.TerminalMethod,
		ExitMultiple:           floatOr(a.ExitMultiple, constants.DefaultExitMultiple),
		DepreciationPctRevenue: a.DepreciationPctRevenue,
		NWCPctRevenue:          a.NWCPctRevenue,
		SharesFallback:         a.SharesOutstanding,
	}
	if a.ProjectionYears != nil {
		p.ProjectionYears = *a.ProjectionYears
	}
	if p.TerminalMethod == "" {
		p.TerminalMethod = constants.TerminalMethodPerpetuity
	}

	p.TaxRate, p.TaxRateSource = constants.DefaultTaxRate, TaxSourceDefault
	if a.TaxRate != nil {
		p.TaxRate, p.TaxRateSource = *a.TaxRate, TaxSourceAssumption
	} else if s != nil {
		if v, ok := s.Value(financial.TaxRate, baseYear); ok {
			if v > 1 {
				v /= 100
			}
			p.TaxRate, p.TaxRateSource = v, TaxSourceDataset
		}
	}
	return p
}

func floatOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

// Validate reports the first assumption that makes a projection undefined.
func (p Params) Validate() error {
	switch {
	case p.ProjectionYears < 1:
		return &AssumptionError{Field: "projectionYears", Value: float64(p.ProjectionYears), Reason: "must be at least 1"}
	case p.ProjectionYears > constants.MaxProjectionYears:
		return &AssumptionError{Field: "projectionYears", Value: float64(p.ProjectionYears), Reason: "must not exceed " + strconv.Itoa(constants.MaxProjectionYears)}
	case p.WACC <= 0:
		return &AssumptionError{Field: "wacc", Value: p.WACC, Reason: "must be positive"}
	case p.WACC <= p.TerminalGrowthRate:
		return &AssumptionError{Field: "wacc", Value: p.WACC, Reason: "must exceed terminal growth rate"}
	case p.RevenueGrowthRate < constants.MinPlausibleGrowthRate:
		return &AssumptionError{Field: "revenueGrowthRate", Value: p.RevenueGrowthRate, Reason: "below plausible bound"}
	case p.TaxRate < 0 || p.TaxRate >= 1:
		return &AssumptionError{Field: "taxRate", Value: p.TaxRate, Reason: "must be in [0, 1)"}
	case p.EBITGrowthDamping < 0:
		return &AssumptionError{Field: "ebitGrowthDamping", Value: p.EBITGrowthDamping, Reason: "must not be negative"}
	case p.CapexGrowthDamping < 0:
		return &AssumptionError{Field: "capexGrowthDamping", Value: p.CapexGrowthDamping, Reason: "must not be negative"}
	}

	switch p.TerminalMethod {
	case constants.TerminalMethodPerpetuity:
	case constants.TerminalMethodExitMultiple:
		if p.ExitMultiple <= 0 {
			return &AssumptionError{Field: "exitMultiple", Value: p.ExitMultiple, Reason: "must be positive"}
		}
	default:
		return &AssumptionError{Field: "terminalMethod", Reason: "unknown method " + p.TerminalMethod}
	}

	if p.DepreciationPctRevenue != nil && *p.DepreciationPctRevenue < 0 {
		return &AssumptionError{Field: "depreciationPctRevenue", Value: *p.DepreciationPctRevenue, Reason: "must not be negative"}
	}
	if p.NWCPctRevenue != nil && *p.NWCPctRevenue < 0 {
		return &AssumptionError{Field: "nwcPctRevenue", Value: *p.NWCPctRevenue, Reason: "must not be negative"}
	}
	return nil
}
