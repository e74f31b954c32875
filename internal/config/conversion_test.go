package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iwvelando/finance-valuation/pkg/constants"
	"github.com/iwvelando/finance-valuation/pkg/ratios"
	"github.com/iwvelando/finance-valuation/pkg/valuation"
)

func loadMasimba(t *testing.T) *Configuration {
	t.Helper()
	conf, err := LoadConfiguration(filepath.Join("testdata", "masimba.yaml"))
	require.NoError(t, err)
	return conf
}

func TestDataset(t *testing.T) {
	conf := loadMasimba(t)
	d := conf.Dataset()

	assert.Equal(t, conf.Company.Name, d.Name)
	assert.Equal(t, "MSM", d.Ticker)
	assert.Equal(t, conf.Company.Years, d.Years)
	assert.Len(t, d.Metrics, 11)
	assert.Equal(t, conf.Company.MarketData.SharePrice, d.Market.SharePrice)
	assert.NoError(t, d.Validate())
}

func TestValuationScenarios(t *testing.T) {
	t.Run("configured", func(t *testing.T) {
		got := loadMasimba(t).ValuationScenarios()
		require.Len(t, got, 3)
		assert.Equal(t, "bull", got[0].Name)
		require.NotNil(t, got[0].Assumptions.RevenueGrowthRate)
		assert.Equal(t, 0.07, *got[0].Assumptions.RevenueGrowthRate)
		assert.Equal(t, "base", got[1].Name)
		assert.Nil(t, got[1].Assumptions.RevenueGrowthRate)
	})

	t.Run("defaults", func(t *testing.T) {
		conf := &Configuration{}
		assert.Equal(t, valuation.DefaultScenarios(), conf.ValuationScenarios())
	})
}

func TestSensitivityGrid(t *testing.T) {
	tests := []struct {
		name string
		sens Sensitivity
		want valuation.Grid
	}{
		{
			name: "defaults",
			want: valuation.DefaultGrid(),
		},
		{
			name: "disabled",
			sens: Sensitivity{Disabled: true, WACCRange: []float64{0.1}},
			want: valuation.Grid{},
		},
		{
			name: "wacc override only",
			sens: Sensitivity{WACCRange: []float64{0.08, 0.12}},
			want: valuation.Grid{WACC: []float64{0.08, 0.12}, Growth: valuation.DefaultGrid().Growth},
		},
		{
			name: "both overridden",
			sens: Sensitivity{WACCRange: []float64{0.1}, GrowthRange: []float64{0.02}},
			want: valuation.Grid{WACC: []float64{0.1}, Growth: []float64{0.02}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := &Configuration{Sensitivity: tt.sens}
			assert.Equal(t, tt.want, conf.SensitivityGrid())
		})
	}
}

func TestRatioThresholds(t *testing.T) {
	t.Run("lower-cased keys from viper", func(t *testing.T) {
		th, err := loadMasimba(t).RatioThresholds()
		require.NoError(t, err)

		assert.Equal(t, ratios.Threshold{Good: 20, OK: 12}, th[ratios.ROE])
		assert.Equal(t, ratios.Threshold{Good: 8, OK: 12, Inverted: true}, th[ratios.EVToEBITDA])
		assert.Equal(t, ratios.DefaultThresholds()[ratios.ROIC], th[ratios.ROIC])
	})

	tests := []struct {
		name       string
		thresholds map[string]ThresholdConfig
		wantErr    string
	}{
		{
			name:       "exact case",
			thresholds: map[string]ThresholdConfig{"ebitMargin": {Good: 20, OK: 10}},
		},
		{
			name:       "unknown ratio",
			thresholds: map[string]ThresholdConfig{"alpha": {Good: 1, OK: 0}},
			wantErr:    "unknown ratio",
		},
		{
			name:       "good below ok",
			thresholds: map[string]ThresholdConfig{"roe": {Good: 5, OK: 10}},
			wantErr:    "must not be below",
		},
		{
			name:       "inverted good above ok",
			thresholds: map[string]ThresholdConfig{"debtToEquity": {Good: 2, OK: 1, Inverted: true}},
			wantErr:    "must not exceed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := &Configuration{Thresholds: tt.thresholds}
			th, err := conf.RatioThresholds()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 20.0, th[ratios.EBITMargin].Good)
		})
	}
}

func TestOutputFormat(t *testing.T) {
	assert.Equal(t, constants.OutputFormatPretty, (&Configuration{}).OutputFormat())
	assert.Equal(t, constants.OutputFormatCSV, (&Configuration{Output: OutputConfig{Format: "csv"}}).OutputFormat())
}
