// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/iwvelando/finance-valuation/pkg/financial"
	"github.com/iwvelando/finance-valuation/pkg/valuation"
)

// FindScenario finds a scenario by name in the results slice.
// Returns a pointer to the result if found, nil otherwise.
func FindScenario(results []valuation.ScenarioResult, name string) *valuation.ScenarioResult {
	for i := range results {
		if results[i].Name == name {
			return &results[i]
		}
	}
	return nil
}

// MasimbaDataset returns the five-year Masimba Holdings dataset used across
// the test suites.
func MasimbaDataset() financial.Dataset {
	years := []string{"2019", "2020", "2021", "2022", "2023"}
	series := func(values ...string) map[string]string {
		m := make(map[string]string, len(values))
		for i, v := range values {
			m[years[i]] = v
		}
		return m
	}

	return financial.Dataset{
		Name:   "Masimba Holdings Limited",
		Ticker: "MSM",
		Years:  years,
		Metrics: []financial.Metric{
			{Name: "Revenue", Values: series("850000000", "900000000", "950000000", "1000000000", "1050000000")},
			{Name: "Earnings before interest and tax (EBIT)", Values: series("210000000", "225000000", "240000000", "255000000", "270000000")},
			{Name: "EBITDA", Values: series("250000000", "265000000", "280000000", "295000000", "310000000")},
			{Name: "Net profit", Values: series("180000000", "195000000", "210000000", "225000000", "240000000")},
			{Name: "Equity", Values: series("340000000", "360000000", "380000000", "400000000", "420000000")},
			{Name: "Total assets", Values: series("1200000000", "1300000000", "1400000000", "1500000000", "1600000000")},
			{Name: "Long term debt", Values: series("136000000", "144000000", "152000000", "160000000", "168000000")},
			{Name: "Capex", Values: series("85000000", "90000000", "95000000", "100000000", "105000000")},
			{Name: "Free Cash Flow", Values: series("75000000", "80000000", "85000000", "90000000", "95000000")},
			{Name: "Issued Shares", Values: series("135000000", "140000000", "145000000", "150000000", "155000000")},
			{Name: "Tax Rate", Values: series("28.00%", "28.50%", "29.00%", "29.50%", "30.00%")},
		},
		Market: financial.MarketData{
			SharePrice: financial.Float(8.50),
			MarketCap:  financial.Float(13175000000),
		},
	}
}

// WithoutMetric returns a copy of the dataset with every metric whose name
// equals name removed.
func WithoutMetric(d financial.Dataset, name string) financial.Dataset {
	out := d
	out.Metrics = nil
	for _, m := range d.Metrics {
		if m.Name != name {
			out.Metrics = append(out.Metrics, m)
		}
	}
	return out
}

// WithMetric returns a copy of the dataset with an extra metric appended.
func WithMetric(d financial.Dataset, m financial.Metric) financial.Dataset {
	out := d
	out.Metrics = append(append([]financial.Metric(nil), d.Metrics...), m)
	return out
}
