// Package report defines the complete valuation report of a company and
// the orchestration that computes it from a configuration.
package report

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/iwvelando/finance-valuation/internal/config"
	"github.com/iwvelando/finance-valuation/internal/optimizer"
	"github.com/iwvelando/finance-valuation/internal/telemetry"
	"github.com/iwvelando/finance-valuation/pkg/financial"
	"github.com/iwvelando/finance-valuation/pkg/optimization"
	"github.com/iwvelando/finance-valuation/pkg/ratios"
	"github.com/iwvelando/finance-valuation/pkg/validation"
	"github.com/iwvelando/finance-valuation/pkg/valuation"
)

// Report holds the ratio analysis and valuation of one company.
type Report struct {
	Company   string                         `json:"company"`
	Ticker    string                         `json:"ticker,omitempty"`
	Years     []string                       `json:"years"`
	Ratios    ratios.RatioSet                `json:"ratios"`
	Trends    map[ratios.Name][]ratios.Point `json:"trends"`
	Valuation *valuation.Summary             `json:"valuation"`
	Implied   []optimization.Summary         `json:"implied,omitempty"`
	Warnings  []string                       `json:"warnings,omitempty"`
}

// GetValuation resolves the configured dataset, computes every ratio and
// trend, runs the base case, scenarios and sensitivity grid, and solves the
// market-implied assumptions when the base case has a premium. Failed
// valuation runs are recorded in the report rather than returned; an error
// is returned only for an unusable configuration or a cancelled context.
// A nil metrics disables instrumentation.
func GetValuation(ctx context.Context, logger *zap.Logger, conf *config.Configuration, metrics *telemetry.Metrics) (*Report, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	thresholds, err := conf.RatioThresholds()
	if err != nil {
		return nil, err
	}

	statement := financial.Resolve(conf.Dataset())
	scenarios := conf.ValuationScenarios()

	validator := &validation.ValuationValidator{
		Statement: statement,
		Base:      conf.Assumptions,
	}
	for _, sc := range scenarios {
		validator.Scenarios = append(validator.Scenarios, validation.NamedAssumptions{Name: sc.Name, Assumptions: sc.Assumptions})
	}
	warnings := validator.ValidateAll()
	for _, w := range warnings {
		logger.Warn(w, zap.String("op", "report.GetValuation"))
	}

	rep := &Report{
		Company:  conf.Company.Name,
		Ticker:   conf.Company.Ticker,
		Years:    statement.Years,
		Ratios:   ratios.Compute(statement, thresholds),
		Trends:   make(map[ratios.Name][]ratios.Point),
		Warnings: warnings,
	}
	for _, name := range ratios.Names() {
		rep.Trends[name] = ratios.Trend(statement, name, thresholds)
	}

	var opts []valuation.Option
	if metrics != nil {
		metrics.ObserveRatios(rep.Ratios)
		opts = append(opts, valuation.WithObserver(metrics))
	}
	runner := valuation.NewRunner(logger, conf.Workers, opts...)

	rep.Valuation, err = runner.Summarize(ctx, statement, conf.Assumptions, scenarios, conf.SensitivityGrid())
	if err != nil {
		return nil, fmt.Errorf("valuation of %s interrupted: %w", conf.Company.Name, err)
	}

	if targets := conf.ImpliedTargets(); len(targets) > 0 && rep.Valuation.PremiumPct != nil {
		var solverOpts []optimizer.Option
		if metrics != nil {
			solverOpts = append(solverOpts, optimizer.WithObserver(metrics))
		}
		solver, err := optimizer.NewRunner(logger, statement, conf.Assumptions, solverOpts...)
		if err != nil {
			warning := fmt.Sprintf("Market-implied assumptions unavailable: %v", err)
			logger.Warn(warning, zap.String("op", "report.GetValuation"))
			rep.Warnings = append(rep.Warnings, warning)
		} else {
			rep.Implied, err = solver.Run(ctx, targets)
			if err != nil {
				return nil, fmt.Errorf("valuation of %s interrupted: %w", conf.Company.Name, err)
			}
		}
	}

	logger.Debug(fmt.Sprintf("computed valuation report for %s", conf.Company.Name),
		zap.String("op", "report.GetValuation"),
		zap.Int("unavailableRatios", len(rep.Ratios.Unavailable())),
		zap.Int("implied", len(rep.Implied)),
		zap.Int("warnings", len(rep.Warnings)),
	)
	return rep, nil
}
