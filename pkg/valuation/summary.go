package valuation

import (
	"context"

	"go.uber.org/zap"

	"github.com/iwvelando/finance-valuation/pkg/constants"
	"github.com/iwvelando/finance-valuation/pkg/dcf"
	"github.com/iwvelando/finance-valuation/pkg/financial"
)

// Status labels a fair value against the market price.
type Status string

// Valuation statuses.
const (
	StatusUndervalued Status = "undervalued"
	StatusOvervalued  Status = "overvalued"
	StatusFair        Status = "fair"
	StatusUnknown     Status = "unknown"
)

// Premium returns (fairValue − price) / price × 100, or nil when either input
// is unavailable or the price is not positive.
func Premium(fairValue, price *float64) *float64 {
	if fairValue == nil || price == nil {
		return nil
	}
	p, ok := dcf.Premium(*fairValue, *price)
	if !ok {
		return nil
	}
	return &p
}

// Classify labels a premium. Premiums within the fair band either side of
// zero are fair.
func Classify(premium *float64) Status {
	switch {
	case premium == nil:
		return StatusUnknown
	case *premium > constants.FairValueBandPct:
		return StatusUndervalued
	case *premium < -constants.FairValueBandPct:
		return StatusOvervalued
	default:
		return StatusFair
	}
}

// Summary is the complete valuation of one company.
type Summary struct {
	Base              *dcf.Result      `json:"base,omitempty"`
	BaseError         string           `json:"baseError,omitempty"`
	BaseErrorCode     string           `json:"baseErrorCode,omitempty"`
	SharePrice        *float64         `json:"sharePrice,omitempty"`
	FairValuePerShare *float64         `json:"fairValuePerShare,omitempty"`
	PremiumPct        *float64         `json:"premiumPct,omitempty"`
	Status            Status           `json:"status"`
	Scenarios         []ScenarioResult `json:"scenarios,omitempty"`
	Sensitivity       *Matrix          `json:"sensitivity,omitempty"`
}

// Summarize runs the base case, every scenario and the sensitivity grid. A
// failed base case is recorded in the summary; scenarios and the grid are
// still computed. An empty grid skips the sensitivity analysis.
func (r *Runner) Summarize(ctx context.Context, s *financial.Statement, base dcf.Assumptions, scenarios []Scenario, grid Grid) (*Summary, error) {
	sum := &Summary{SharePrice: s.Market.SharePrice}

	res, err := r.Base(s, base)
	sum.Base = res
	if err != nil {
		sum.BaseError = err.Error()
		sum.BaseErrorCode = dcf.ErrorCode(err)
	}
	if res != nil {
		sum.FairValuePerShare = res.FairValuePerShare
	}
	sum.PremiumPct = Premium(sum.FairValuePerShare, sum.SharePrice)
	sum.Status = Classify(sum.PremiumPct)

	if len(scenarios) > 0 {
		sum.Scenarios, err = r.Scenarios(ctx, s, base, scenarios)
		if err != nil {
			return nil, err
		}
	}

	if len(grid.WACC) > 0 && len(grid.Growth) > 0 {
		sum.Sensitivity, err = r.Sensitivity(ctx, s, base, grid)
		if err != nil {
			return nil, err
		}
	}

	r.logger.Info("valuation complete",
		zap.String("op", "valuation.Runner.Summarize"),
		zap.String("status", string(sum.Status)),
		zap.Int("scenarios", len(sum.Scenarios)),
	)
	return sum, nil
}
