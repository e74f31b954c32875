package config

import (
	"fmt"
	"strings"

	"github.com/iwvelando/finance-valuation/pkg/constants"
	"github.com/iwvelando/finance-valuation/pkg/financial"
	"github.com/iwvelando/finance-valuation/pkg/ratios"
	"github.com/iwvelando/finance-valuation/pkg/valuation"
)

// Dataset converts the company section into a financial dataset.
func (conf *Configuration) Dataset() financial.Dataset {
	return financial.Dataset{
		Name:    conf.Company.Name,
		Ticker:  conf.Company.Ticker,
		Years:   conf.Company.Years,
		Metrics: conf.Company.Metrics,
		Market:  conf.Company.MarketData,
	}
}

// ValuationScenarios returns the configured scenarios, or the bull, base and
// bear defaults when none are configured.
func (conf *Configuration) ValuationScenarios() []valuation.Scenario {
	if len(conf.Scenarios) == 0 {
		return valuation.DefaultScenarios()
	}
	out := make([]valuation.Scenario, len(conf.Scenarios))
	for i, s := range conf.Scenarios {
		out[i] = valuation.Scenario{Name: s.Name, Assumptions: s.Assumptions}
	}
	return out
}

// SensitivityGrid returns the configured grid, filling an empty axis with
// the default range. A disabled grid is empty.
func (conf *Configuration) SensitivityGrid() valuation.Grid {
	if conf.Sensitivity.Disabled {
		return valuation.Grid{}
	}
	grid := valuation.DefaultGrid()
	if len(conf.Sensitivity.WACCRange) > 0 {
		grid.WACC = append([]float64(nil), conf.Sensitivity.WACCRange...)
	}
	if len(conf.Sensitivity.GrowthRange) > 0 {
		grid.Growth = append([]float64(nil), conf.Sensitivity.GrowthRange...)
	}
	return grid
}

// RatioThresholds merges configured thresholds over the defaults. Keys are
// matched to ratio names case-insensitively since viper lower-cases them.
func (conf *Configuration) RatioThresholds() (ratios.Thresholds, error) {
	names := make(map[string]ratios.Name)
	for _, n := range ratios.Names() {
		names[strings.ToLower(string(n))] = n
	}

	overrides := make(ratios.Thresholds, len(conf.Thresholds))
	for key, t := range conf.Thresholds {
		name, ok := names[strings.ToLower(key)]
		if !ok {
			return nil, fmt.Errorf("unknown ratio %q in thresholds", key)
		}
		if !t.Inverted && t.Good < t.OK {
			return nil, fmt.Errorf("threshold %s: good (%g) must not be below ok (%g)", name, t.Good, t.OK)
		}
		if t.Inverted && t.Good > t.OK {
			return nil, fmt.Errorf("inverted threshold %s: good (%g) must not exceed ok (%g)", name, t.Good, t.OK)
		}
		overrides[name] = ratios.Threshold{Good: t.Good, OK: t.OK, Inverted: t.Inverted}
	}
	return ratios.DefaultThresholds().Merge(overrides), nil
}

// OutputFormat returns the configured output format or the default.
func (conf *Configuration) OutputFormat() string {
	if conf.Output.Format == "" {
		return constants.OutputFormatPretty
	}
	return conf.Output.Format
}
