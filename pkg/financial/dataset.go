// Package financial models a company's financial-statement time series and
// resolves loosely named rows into typed metric kinds.
package financial

import (
	"fmt"

	"github.com/iwvelando/finance-valuation/pkg/datetime"
)

// Metric is a named financial-statement line item. Values maps fiscal-year
// labels to raw cell contents: a number, a numeric string with thousands
// separators, a percentage string or empty.
type Metric struct {
	Name   string            `json:"name" yaml:"name" mapstructure:"name"`
	Values map[string]string `json:"values" yaml:"values" mapstructure:"values"`
}

// Value parses the metric's value for a year. A missing year returns
// ErrNoData and an unparsable value returns a *ParseError.
func (m Metric) Value(year string) (float64, error) {
	raw, ok := m.Values[year]
	if !ok {
		return 0, ErrNoData
	}
	return ParseValue(raw)
}

// MarketData carries optional market figures. A nil field means the figure
// is unavailable, which is distinct from zero.
type MarketData struct {
	SharePrice *float64 `json:"sharePrice,omitempty" yaml:"sharePrice,omitempty" mapstructure:"sharePrice"`
	MarketCap  *float64 `json:"marketCap,omitempty" yaml:"marketCap,omitempty" mapstructure:"marketCap"`
}

// Dataset is a company's ordered fiscal years and named metrics.
type Dataset struct {
	Name    string     `json:"name,omitempty" yaml:"name,omitempty"`
	Ticker  string     `json:"ticker,omitempty" yaml:"ticker,omitempty"`
	Years   []string   `json:"years" yaml:"years"`
	Metrics []Metric   `json:"metrics" yaml:"metrics"`
	Market  MarketData `json:"marketData" yaml:"marketData"`
}

// LatestYear returns the last fiscal year label of the dataset.
func (d Dataset) LatestYear() (string, bool) {
	if len(d.Years) == 0 {
		return "", false
	}
	return d.Years[len(d.Years)-1], true
}

// Validate checks the structural invariants of the dataset: year labels are
// four-digit ascending years and every metric value is keyed by one of them.
// Cell contents are not checked; unparsable cells are treated as no data.
func (d Dataset) Validate() error {
	if err := datetime.ValidateYears(d.Years); err != nil {
		return err
	}

	known := make(map[string]struct{}, len(d.Years))
	for _, y := range d.Years {
		known[y] = struct{}{}
	}

	for i, m := range d.Metrics {
		if m.Name == "" {
			return fmt.Errorf("metric %d has no name", i)
		}
		for y := range m.Values {
			if _, ok := known[y]; !ok {
				return fmt.Errorf("metric %q has value for unknown year %q", m.Name, y)
			}
		}
	}
	return nil
}

// Float returns a pointer to v, for populating MarketData.
func Float(v float64) *float64 {
	return &v
}
