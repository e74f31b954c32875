// Package optimizer solves for the market-implied value of a single DCF
// assumption: the value at which the base-case fair value per share equals
// the quoted share price.
package optimizer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/iwvelando/finance-valuation/internal/config"
	"github.com/iwvelando/finance-valuation/pkg/constants"
	"github.com/iwvelando/finance-valuation/pkg/dcf"
	"github.com/iwvelando/finance-valuation/pkg/financial"
	"github.com/iwvelando/finance-valuation/pkg/format"
	"github.com/iwvelando/finance-valuation/pkg/mathutil"
	"github.com/iwvelando/finance-valuation/pkg/optimization"
	"github.com/iwvelando/finance-valuation/pkg/valuation"
)

// KindImplied labels solver evaluations reported to an Observer.
const KindImplied = "implied"

// rateGap keeps WACC and terminal growth default bounds apart so the
// perpetuity formula stays defined.
const rateGap = 0.001

// ErrNoSharePrice is returned when the statement carries no usable share price.
var ErrNoSharePrice = errors.New("no positive share price in market data")

// Runner evaluates the DCF while varying one assumption at a time.
type Runner struct {
	logger    *zap.Logger
	statement *financial.Statement
	base      dcf.Assumptions
	params    dcf.Params
	price     float64
	observer  valuation.Observer
}

// Option configures a Runner.
type Option func(*Runner)

// WithObserver reports every DCF evaluation to o.
func WithObserver(o valuation.Observer) Option {
	return func(r *Runner) {
		r.observer = o
	}
}

type evaluation struct {
	value     float64
	fairValue float64
	price     float64
}

func (e evaluation) gap() float64 {
	return e.fairValue - e.price
}

// NewRunner constructs a Runner. The base assumptions must produce a fair
// value per share and the statement must carry a positive share price.
func NewRunner(logger *zap.Logger, s *financial.Statement, base dcf.Assumptions, opts ...Option) (*Runner, error) {
	if s == nil {
		return nil, fmt.Errorf("statement cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if s.Market.SharePrice == nil || *s.Market.SharePrice <= 0 {
		return nil, ErrNoSharePrice
	}

	res, err := dcf.Project(s, base)
	if err != nil {
		return nil, fmt.Errorf("optimizer baseline valuation failed: %w", err)
	}

	r := &Runner{
		logger:    logger,
		statement: s,
		base:      base,
		params:    res.Params,
		price:     *s.Market.SharePrice,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run solves every target in order. Targets that cannot reach the share
// price within their bounds are reported with Converged unset and a note;
// only a cancelled context or an unsupported field returns an error.
func (r *Runner) Run(ctx context.Context, targets []config.OptimizerConfig) ([]optimization.Summary, error) {
	summaries := make([]optimization.Summary, 0, len(targets))
	for i := range targets {
		target := targets[i]
		if err := target.Validate(); err != nil {
			return nil, err
		}

		summary, err := r.solve(ctx, target)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)

		r.logger.Info("solved market-implied assumption",
			zap.String("op", "optimizer.Runner.Run"),
			zap.String("field", summary.Field),
			zap.Float64("original", summary.Original),
			zap.Float64("implied", summary.Value),
			zap.Float64("sharePrice", summary.SharePrice),
			zap.Float64("fairValue", summary.FairValue),
			zap.Int("iterations", summary.Iterations),
			zap.Bool("converged", summary.Converged),
		)
	}
	return summaries, nil
}

func (r *Runner) solve(ctx context.Context, cfg config.OptimizerConfig) (optimization.Summary, error) {
	original, err := r.original(cfg.Field)
	if err != nil {
		return optimization.Summary{}, err
	}
	minVal, maxVal := r.bounds(cfg)

	summary := optimization.Summary{
		Field:           cfg.Field,
		Original:        original,
		OriginalDisplay: format.Percent(original),
		Min:             minVal,
		Max:             maxVal,
		SharePrice:      r.price,
	}
	finish := func(e evaluation, iterations int) optimization.Summary {
		summary.Value = e.value
		summary.ValueDisplay = format.Percent(e.value)
		summary.FairValue = e.fairValue
		summary.Gap = e.gap()
		summary.Iterations = iterations
		summary.Converged = mathutil.IsZero(e.gap())
		return summary
	}

	if minVal >= maxVal {
		summary.Notes = []string{fmt.Sprintf("empty search range %s to %s", format.Percent(minVal), format.Percent(maxVal))}
		return summary, nil
	}

	lowerEval, err := r.evaluate(cfg.Field, minVal)
	if err != nil {
		summary.Notes = []string{fmt.Sprintf("evaluation at %s failed: %v", format.Percent(minVal), err)}
		return summary, nil
	}
	upperEval, err := r.evaluate(cfg.Field, maxVal)
	if err != nil {
		summary.Notes = []string{fmt.Sprintf("evaluation at %s failed: %v", format.Percent(maxVal), err)}
		return summary, nil
	}

	if sameSign(lowerEval.gap(), upperEval.gap()) {
		chased := upperEval
		if math.Abs(lowerEval.gap()) < math.Abs(upperEval.gap()) {
			chased = lowerEval
		}
		out := finish(chased, 0)
		if !out.Converged {
			out.Notes = []string{fmt.Sprintf(
				"share price %s not reachable within bounds %s to %s",
				format.Currency(r.price),
				format.Percent(minVal),
				format.Percent(maxVal),
			)}
		}
		return out, nil
	}

	iterations := 0
	best := lowerEval
	if math.Abs(upperEval.gap()) < math.Abs(lowerEval.gap()) {
		best = upperEval
	}
	lower, upper := lowerEval, upperEval
	for iterations < cfg.MaxIterations && math.Abs(upper.value-lower.value) > cfg.Tolerance {
		if err := ctx.Err(); err != nil {
			return optimization.Summary{}, err
		}
		mid := lower.value + (upper.value-lower.value)/2
		evalMid, err := r.evaluate(cfg.Field, mid)
		if err != nil {
			summary.Notes = []string{fmt.Sprintf("evaluation at %s failed: %v", format.Percent(mid), err)}
			break
		}
		iterations++
		if math.Abs(evalMid.gap()) < math.Abs(best.gap()) {
			best = evalMid
		}
		if evalMid.gap() == 0 {
			break
		}
		if sameSign(evalMid.gap(), lower.gap()) {
			lower = evalMid
		} else {
			upper = evalMid
		}
	}

	notes := summary.Notes
	out := finish(best, iterations)
	out.Notes = notes
	if !out.Converged && len(out.Notes) == 0 {
		out.Notes = []string{fmt.Sprintf("search stopped after %d iterations", iterations)}
	}
	return out, nil
}

func (r *Runner) original(field string) (float64, error) {
	switch field {
	case config.OptimizerFieldRevenueGrowth:
		return r.params.RevenueGrowthRate, nil
	case config.OptimizerFieldWACC:
		return r.params.WACC, nil
	case config.OptimizerFieldTerminalGrowth:
		return r.params.TerminalGrowthRate, nil
	default:
		return 0, fmt.Errorf("optimizer field %q is not supported", field)
	}
}

// bounds applies configured limits over field defaults derived from the
// resolved base assumptions.
func (r *Runner) bounds(cfg config.OptimizerConfig) (float64, float64) {
	var minVal, maxVal float64
	switch cfg.Field {
	case config.OptimizerFieldRevenueGrowth:
		minVal, maxVal = constants.MinPlausibleGrowthRate, constants.MaxPlausibleGrowthRate
	case config.OptimizerFieldWACC:
		minVal, maxVal = math.Max(r.params.TerminalGrowthRate, 0)+rateGap, constants.MaxPlausibleWACC
	case config.OptimizerFieldTerminalGrowth:
		minVal, maxVal = constants.MinPlausibleGrowthRate, r.params.WACC-rateGap
	}
	if cfg.Min != nil {
		minVal = *cfg.Min
	}
	if cfg.Max != nil {
		maxVal = *cfg.Max
	}
	return minVal, maxVal
}

func (r *Runner) evaluate(field string, value float64) (evaluation, error) {
	override := dcf.Assumptions{}
	switch field {
	case config.OptimizerFieldRevenueGrowth:
		override.RevenueGrowthRate = dcf.Float(value)
	case config.OptimizerFieldWACC:
		override.WACC = dcf.Float(value)
	case config.OptimizerFieldTerminalGrowth:
		override.TerminalGrowthRate = dcf.Float(value)
	}

	start := time.Now()
	res, err := dcf.Project(r.statement, r.base.With(override))
	if r.observer != nil {
		r.observer.ObserveRun(KindImplied, time.Since(start), err)
	}
	if err != nil {
		return evaluation{}, err
	}
	if res.FairValuePerShare == nil {
		return evaluation{}, dcf.ErrInvalidShareCount
	}
	return evaluation{value: value, fairValue: *res.FairValuePerShare, price: r.price}, nil
}

func sameSign(a, b float64) bool {
	return (a > 0 && b > 0) || (a < 0 && b < 0)
}
