package config

import (
	"fmt"
	"strings"
)

const (
	OptimizerFieldRevenueGrowth  = "revenueGrowthRate"
	OptimizerFieldWACC           = "wacc"
	OptimizerFieldTerminalGrowth = "terminalGrowthRate"

	defaultOptimizerTolerance = 1e-6
	defaultMaxIterations      = 100
	maxIterationsLimit        = 1000
)

// ImpliedConfig controls the market-implied assumption solver. With no
// targets configured the revenue growth rate and WACC are solved.
type ImpliedConfig struct {
	Disabled bool              `mapstructure:"disabled" yaml:"disabled,omitempty" json:"disabled,omitempty"`
	Targets  []OptimizerConfig `mapstructure:"targets" yaml:"targets,omitempty" json:"targets,omitempty"`
}

// OptimizerConfig defines a single-assumption search: the field to vary,
// optional bounds and the search tolerance on the field value.
type OptimizerConfig struct {
	Field         string   `yaml:"field" mapstructure:"field" json:"field"`
	Min           *float64 `yaml:"min,omitempty" mapstructure:"min" json:"min,omitempty"`
	Max           *float64 `yaml:"max,omitempty" mapstructure:"max" json:"max,omitempty"`
	Tolerance     float64  `yaml:"tolerance,omitempty" mapstructure:"tolerance" json:"tolerance,omitempty"`
	MaxIterations int      `yaml:"maxIterations,omitempty" mapstructure:"maxIterations" json:"maxIterations,omitempty"`
}

// CanonicalOptimizerField returns the canonical identifier for an optimizer field.
func CanonicalOptimizerField(value string) string {
	trimmed := strings.TrimSpace(value)
	switch strings.ToLower(trimmed) {
	case "revenuegrowthrate", "revenue_growth_rate", "revenue-growth-rate", "growth":
		return OptimizerFieldRevenueGrowth
	case "wacc", "discountrate", "discount_rate":
		return OptimizerFieldWACC
	case "terminalgrowthrate", "terminal_growth_rate", "terminal-growth-rate":
		return OptimizerFieldTerminalGrowth
	default:
		return trimmed
	}
}

// Normalize ensures defaults and canonical values are applied before validation.
func (o *OptimizerConfig) Normalize() {
	if o == nil {
		return
	}
	o.Field = CanonicalOptimizerField(o.Field)
	if o.Tolerance <= 0 {
		o.Tolerance = defaultOptimizerTolerance
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = defaultMaxIterations
	}
}

// Validate returns an error when the optimizer configuration is unsupported.
func (o *OptimizerConfig) Validate() error {
	if o == nil {
		return fmt.Errorf("optimizer configuration cannot be nil")
	}

	o.Normalize()

	switch o.Field {
	case OptimizerFieldRevenueGrowth, OptimizerFieldWACC, OptimizerFieldTerminalGrowth:
	case "":
		return fmt.Errorf("optimizer field is required")
	default:
		return fmt.Errorf("optimizer field %q is not supported", o.Field)
	}
	if o.Min != nil && o.Max != nil && *o.Min >= *o.Max {
		return fmt.Errorf("optimizer %s minimum %.4f must be less than maximum %.4f", o.Field, *o.Min, *o.Max)
	}
	if o.MaxIterations > maxIterationsLimit {
		return fmt.Errorf("optimizer %s maxIterations %d exceeds %d", o.Field, o.MaxIterations, maxIterationsLimit)
	}
	return nil
}

// Validate checks every target and rejects a field solved twice.
func (c *ImpliedConfig) Validate() error {
	seen := make(map[string]struct{}, len(c.Targets))
	for i := range c.Targets {
		if err := c.Targets[i].Validate(); err != nil {
			return fmt.Errorf("implied target %d: %w", i, err)
		}
		field := c.Targets[i].Field
		if _, dup := seen[field]; dup {
			return fmt.Errorf("implied target %s listed more than once", field)
		}
		seen[field] = struct{}{}
	}
	return nil
}

// ImpliedTargets returns the normalized solver targets, the defaults when
// none are configured, or nil when the solver is disabled.
func (conf *Configuration) ImpliedTargets() []OptimizerConfig {
	if conf.Implied.Disabled {
		return nil
	}
	targets := conf.Implied.Targets
	if len(targets) == 0 {
		targets = []OptimizerConfig{
			{Field: OptimizerFieldRevenueGrowth},
			{Field: OptimizerFieldWACC},
		}
	}
	out := make([]OptimizerConfig, len(targets))
	for i, t := range targets {
		t.Normalize()
		out[i] = t
	}
	return out
}
