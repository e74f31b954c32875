// Package config defines the data structures related to configuration and
// includes functions for loading, validating and converting the config.
package config

import (
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/iwvelando/finance-valuation/pkg/constants"
	"github.com/iwvelando/finance-valuation/pkg/dcf"
	"github.com/iwvelando/finance-valuation/pkg/financial"
	"github.com/iwvelando/finance-valuation/pkg/validation"
)

// FiscalYearLayout is the format expected for year labels in config files.
const FiscalYearLayout = constants.FiscalYearLayout

// Configuration holds all configuration for finance-valuation.
type Configuration struct {
	Company     Company                    `mapstructure:"company" yaml:"company" json:"company" validate:"required"`
	Assumptions dcf.Assumptions            `mapstructure:"assumptions" yaml:"assumptions,omitempty" json:"assumptions,omitempty"`
	Scenarios   []Scenario                 `mapstructure:"scenarios" yaml:"scenarios,omitempty" json:"scenarios,omitempty" validate:"dive"`
	Sensitivity Sensitivity                `mapstructure:"sensitivity" yaml:"sensitivity,omitempty" json:"sensitivity,omitempty"`
	Thresholds  map[string]ThresholdConfig `mapstructure:"thresholds" yaml:"thresholds,omitempty" json:"thresholds,omitempty" validate:"dive"`
	Implied     ImpliedConfig              `mapstructure:"implied" yaml:"implied,omitempty" json:"implied,omitempty"`
	Workers     int                        `mapstructure:"workers" yaml:"workers,omitempty" json:"workers,omitempty" validate:"gte=0,lte=256"`
	Logging     LoggingConfig              `mapstructure:"logging" yaml:"logging,omitempty" json:"logging,omitempty"`
	Output      OutputConfig               `mapstructure:"output" yaml:"output,omitempty" json:"output,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level,omitempty" json:"level,omitempty" validate:"omitempty,oneof=debug info warn error"`
	Format     string `mapstructure:"format" yaml:"format,omitempty" json:"format,omitempty" validate:"omitempty,oneof=json console"`
	OutputFile string `mapstructure:"outputFile" yaml:"outputFile,omitempty" json:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format,omitempty" json:"format,omitempty"`
}

// Company holds the financial-statement time series and market data.
type Company struct {
	Name       string               `mapstructure:"name" yaml:"name" json:"name" validate:"required"`
	Ticker     string               `mapstructure:"ticker" yaml:"ticker,omitempty" json:"ticker,omitempty"`
	Years      []string             `mapstructure:"years" yaml:"years" json:"years" validate:"required,min=1,dive,len=4,numeric"`
	Metrics    []financial.Metric   `mapstructure:"metrics" yaml:"metrics" json:"metrics" validate:"required,min=1"`
	MarketData financial.MarketData `mapstructure:"marketData" yaml:"marketData,omitempty" json:"marketData,omitempty"`
}

// Scenario is a named set of assumption overrides.
type Scenario struct {
	Name            string `mapstructure:"name" yaml:"name" json:"name" validate:"required"`
	dcf.Assumptions `mapstructure:",squash" yaml:",inline"`
}

// Sensitivity configures the WACC × growth grid. Empty ranges use the
// default grid unless Disabled is set.
type Sensitivity struct {
	Disabled    bool      `mapstructure:"disabled" yaml:"disabled,omitempty" json:"disabled,omitempty"`
	WACCRange   []float64 `mapstructure:"waccRange" yaml:"waccRange,omitempty" json:"waccRange,omitempty" validate:"dive,gt=0,lt=1"`
	GrowthRange []float64 `mapstructure:"growthRange" yaml:"growthRange,omitempty" json:"growthRange,omitempty" validate:"dive,gt=-1,lt=1"`
}

// ThresholdConfig is a {good, ok} scoring pair for one ratio.
type ThresholdConfig struct {
	Good     float64 `mapstructure:"good" yaml:"good" json:"good"`
	OK       float64 `mapstructure:"ok" yaml:"ok" json:"ok"`
	Inverted bool    `mapstructure:"inverted" yaml:"inverted,omitempty" json:"inverted,omitempty"`
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.AutomaticEnv()

	v.SetConfigType("yml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}

	return decode(v)
}

// LoadConfigurationFromReader loads a YAML-formatted configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := viper.New()
	v.SetConfigType("yml")

	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config, %s", err)
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	if err := configuration.Validate(); err != nil {
		return nil, err
	}

	return &configuration, nil
}

// Validate checks struct-level constraints and the dataset invariants.
func (conf *Configuration) Validate() error {
	if err := validator.New().Struct(conf); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if conf.Output.Format != "" {
		if err := validation.ValidateOutputFormat(conf.Output.Format); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
	}
	if err := conf.Dataset().Validate(); err != nil {
		return fmt.Errorf("invalid company data: %w", err)
	}
	if _, err := conf.RatioThresholds(); err != nil {
		return err
	}
	if err := conf.Implied.Validate(); err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(conf.Scenarios))
	for _, s := range conf.Scenarios {
		if _, dup := seen[s.Name]; dup {
			return fmt.Errorf("duplicate scenario name %q", s.Name)
		}
		seen[s.Name] = struct{}{}
	}
	return nil
}
