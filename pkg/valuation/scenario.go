package valuation

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/iwvelando/finance-valuation/pkg/dcf"
	"github.com/iwvelando/finance-valuation/pkg/financial"
)

// Scenario is a named bundle of assumption overrides applied on top of the
// base assumptions.
type Scenario struct {
	Name        string          `json:"name" yaml:"name" mapstructure:"name"`
	Assumptions dcf.Assumptions `json:"assumptions" yaml:"assumptions" mapstructure:",squash"`
}

// ScenarioResult is the outcome of one scenario run. Err is set when the run
// failed; Result may still be populated for share-count failures.
type ScenarioResult struct {
	Name        string          `json:"name"`
	Assumptions dcf.Assumptions `json:"assumptions"`
	Result      *dcf.Result     `json:"result,omitempty"`
	Err         error           `json:"-"`
	Error       string          `json:"error,omitempty"`
	ErrorCode   string          `json:"errorCode,omitempty"`
}

// DefaultScenarios returns the bull, base and bear cases.
func DefaultScenarios() []Scenario {
	return []Scenario{
		{Name: "bull", Assumptions: dcf.Assumptions{RevenueGrowthRate: dcf.Float(0.07), WACC: dcf.Float(0.095)}},
		{Name: "base", Assumptions: dcf.Assumptions{RevenueGrowthRate: dcf.Float(0.05), WACC: dcf.Float(0.10)}},
		{Name: "bear", Assumptions: dcf.Assumptions{RevenueGrowthRate: dcf.Float(0.03), WACC: dcf.Float(0.105)}},
	}
}

// Scenarios runs every scenario independently and concurrently. Results are
// returned in input order. A failed scenario is recorded in its result and
// never affects its siblings; the returned error is only set when ctx is
// cancelled.
func (r *Runner) Scenarios(ctx context.Context, s *financial.Statement, base dcf.Assumptions, scenarios []Scenario) ([]ScenarioResult, error) {
	results := make([]ScenarioResult, len(scenarios))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i, sc := range scenarios {
		i, sc := i, sc
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			a := base.With(sc.Assumptions)
			res, err := r.project(KindScenario, s, a)
			results[i] = ScenarioResult{Name: sc.Name, Assumptions: a, Result: res}
			if err != nil {
				results[i].Err = err
				results[i].Error = err.Error()
				results[i].ErrorCode = dcf.ErrorCode(err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, res := range results {
		if res.Err != nil {
			r.logger.Warn("scenario failed",
				zap.String("op", "valuation.Runner.Scenarios"),
				zap.String("scenario", res.Name),
				zap.String("code", res.ErrorCode),
				zap.Error(res.Err),
			)
			continue
		}
		r.logger.Debug("scenario valued",
			zap.String("op", "valuation.Runner.Scenarios"),
			zap.String("scenario", res.Name),
			zap.Float64("enterpriseValue", res.Result.EnterpriseValue),
		)
	}
	return results, nil
}
