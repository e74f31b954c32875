package ratios_test

import (
	"reflect"
	"testing"

	"github.com/iwvelando/finance-valuation/pkg/dcf"
	"github.com/iwvelando/finance-valuation/pkg/financial"
	"github.com/iwvelando/finance-valuation/pkg/mathutil"
	"github.com/iwvelando/finance-valuation/pkg/ratios"
	"github.com/iwvelando/finance-valuation/pkg/testutil"
)

const ratioTolerance = 0.0001

func TestComputeMasimba(t *testing.T) {
	set := ratios.Compute(financial.Resolve(testutil.MasimbaDataset()), ratios.DefaultThresholds())

	tests := []struct {
		name     ratios.Name
		expected float64
		score    ratios.Rating
	}{
		{ratios.ROE, 57.142857, ratios.RatingGood},
		{ratios.ROIC, 45.918367, ratios.RatingGood},
		{ratios.EBITMargin, 25.714286, ratios.RatingGood},
		{ratios.NetProfitMargin, 22.857143, ratios.RatingGood},
		{ratios.EBITDAMargin, 29.523810, ratios.RatingNone},
		{ratios.FCFMargin, 9.047619, ratios.RatingNone},
		{ratios.DebtToEquity, 0.4, ratios.RatingGood},
		{ratios.EVToEBITDA, 42.5, ratios.RatingPoor},
		{ratios.PriceToEarnings, 54.895833, ratios.RatingNone},
		{ratios.RevenueGrowth, 5.0, ratios.RatingFair},
		{ratios.EBITGrowth, 5.882353, ratios.RatingNone},
		{ratios.NetProfitGrowth, 6.666667, ratios.RatingNone},
		{ratios.AssetTurnover, 0.65625, ratios.RatingNone},
		{ratios.EquityMultiplier, 3.809524, ratios.RatingNone},
	}

	for _, tt := range tests {
		t.Run(string(tt.name), func(t *testing.T) {
			r, ok := set.Get(tt.name)
			if !ok {
				t.Fatalf("Get(%s) not found", tt.name)
			}
			if !r.Available {
				t.Fatalf("%s unavailable: %s", tt.name, r.Reason)
			}
			if r.Year != "2023" {
				t.Errorf("%s year = %s, expected 2023", tt.name, r.Year)
			}
			if !mathutil.WithinTolerance(r.Value, tt.expected, ratioTolerance) {
				t.Errorf("%s = %v, expected %v", tt.name, r.Value, tt.expected)
			}
			if r.Score != tt.score {
				t.Errorf("%s score = %q, expected %q", tt.name, r.Score, tt.score)
			}
		})
	}
}

func TestComputeCurrentRatioUnavailable(t *testing.T) {
	set := ratios.Compute(financial.Resolve(testutil.MasimbaDataset()), ratios.DefaultThresholds())

	r, _ := set.Get(ratios.CurrentRatio)
	if r.Available {
		t.Fatalf("current ratio should be unavailable without current assets, got %v", r.Value)
	}
	if r.Reason != ratios.ReasonMissingData {
		t.Errorf("current ratio reason = %q, expected %q", r.Reason, ratios.ReasonMissingData)
	}
	if r.Score != ratios.RatingNone {
		t.Errorf("unavailable ratio should not be scored, got %q", r.Score)
	}

	unavailable := set.Unavailable()
	if len(unavailable) != 1 || unavailable[0] != ratios.CurrentRatio {
		t.Errorf("Unavailable() = %v, expected [currentRatio]", unavailable)
	}
}

func TestComputeCurrentRatio(t *testing.T) {
	d := testutil.WithMetric(testutil.MasimbaDataset(), financial.Metric{Name: "Current assets", Values: map[string]string{"2023": "500,000,000"}})
	d = testutil.WithMetric(d, financial.Metric{Name: "Current liabilities", Values: map[string]string{"2023": "250,000,000"}})

	set := ratios.Compute(financial.Resolve(d), ratios.DefaultThresholds())
	r, _ := set.Get(ratios.CurrentRatio)
	if !r.Available || !mathutil.WithinTolerance(r.Value, 2.0, ratioTolerance) {
		t.Fatalf("current ratio = %+v, expected 2.0", r)
	}
	if r.Score != ratios.RatingGood {
		t.Errorf("current ratio score = %q, expected good", r.Score)
	}
}

func TestMissingDataIsolation(t *testing.T) {
	base := testutil.MasimbaDataset()
	withInventory := testutil.WithMetric(base, financial.Metric{
		Name:   "Total Inventory",
		Values: map[string]string{"2022": "60000000", "2023": "65000000"},
	})

	before := ratios.Compute(financial.Resolve(withInventory), ratios.DefaultThresholds())
	after := ratios.Compute(financial.Resolve(testutil.WithoutMetric(withInventory, "Total Inventory")), ratios.DefaultThresholds())

	for _, name := range []ratios.Name{ratios.ROE, ratios.EBITMargin, ratios.ROIC} {
		b, _ := before.Get(name)
		a, _ := after.Get(name)
		if b != a {
			t.Errorf("%s changed after removing inventory: %+v vs %+v", name, b, a)
		}
	}

	dcfBefore, err := dcf.ProjectDataset(withInventory, dcf.Assumptions{})
	if err != nil {
		t.Fatalf("ProjectDataset() with inventory error = %v", err)
	}
	dcfAfter, err := dcf.ProjectDataset(testutil.WithoutMetric(withInventory, "Total Inventory"), dcf.Assumptions{})
	if err != nil {
		t.Fatalf("ProjectDataset() without inventory error = %v", err)
	}
	if !reflect.DeepEqual(dcfBefore, dcfAfter) {
		t.Errorf("DCF result changed after removing inventory: %+v vs %+v", dcfBefore, dcfAfter)
	}

	noEBITDA := ratios.Compute(financial.Resolve(testutil.WithoutMetric(base, "EBITDA")), ratios.DefaultThresholds())
	if r, _ := noEBITDA.Get(ratios.EBITDAMargin); r.Available {
		t.Errorf("EBITDA margin should be unavailable without EBITDA")
	}
	if r, _ := noEBITDA.Get(ratios.EVToEBITDA); r.Available {
		t.Errorf("EV/EBITDA should be unavailable without EBITDA")
	}
	if r, _ := noEBITDA.Get(ratios.ROE); !r.Available || !mathutil.WithinTolerance(r.Value, 57.142857, ratioTolerance) {
		t.Errorf("ROE should survive missing EBITDA, got %+v", r)
	}
}

func TestLatestYearPerRatio(t *testing.T) {
	d := testutil.MasimbaDataset()
	d.Years = append(d.Years, "2024")
	d.Metrics[0].Values = map[string]string{}
	for k, v := range testutil.MasimbaDataset().Metrics[0].Values {
		d.Metrics[0].Values[k] = v
	}
	d.Metrics[0].Values["2024"] = "1100000000"

	set := ratios.Compute(financial.Resolve(d), ratios.DefaultThresholds())

	roe, _ := set.Get(ratios.ROE)
	if roe.Year != "2023" {
		t.Errorf("ROE year = %s, expected 2023 since 2024 has no net profit", roe.Year)
	}

	growth, _ := set.Get(ratios.RevenueGrowth)
	if growth.Year != "2024" || !mathutil.WithinTolerance(growth.Value, 4.761905, ratioTolerance) {
		t.Errorf("revenue growth = %+v, expected 4.761905 for 2024", growth)
	}
}

func TestNonPositiveDenominators(t *testing.T) {
	d := financial.Dataset{
		Years: []string{"2022", "2023"},
		Metrics: []financial.Metric{
			{Name: "Revenue", Values: map[string]string{"2022": "0", "2023": "100"}},
			{Name: "Net profit", Values: map[string]string{"2023": "-5"}},
			{Name: "Equity", Values: map[string]string{"2023": "-10"}},
		},
		Market: financial.MarketData{MarketCap: financial.Float(1000)},
	}
	set := ratios.Compute(financial.Resolve(d), ratios.DefaultThresholds())

	tests := []struct {
		name   ratios.Name
		reason string
	}{
		{ratios.ROE, ratios.ReasonNonPositiveBase},
		{ratios.RevenueGrowth, ratios.ReasonNonPositiveBase},
		{ratios.PriceToEarnings, ratios.ReasonNonPositiveBase},
		{ratios.EVToEBITDA, ratios.ReasonMissingData},
	}

	for _, tt := range tests {
		t.Run(string(tt.name), func(t *testing.T) {
			r, _ := set.Get(tt.name)
			if r.Available {
				t.Fatalf("%s should be unavailable, got %v", tt.name, r.Value)
			}
			if r.Reason != tt.reason {
				t.Errorf("%s reason = %q, expected %q", tt.name, r.Reason, tt.reason)
			}
		})
	}

	margin, _ := set.Get(ratios.NetProfitMargin)
	if !margin.Available || !mathutil.WithinTolerance(margin.Value, -5, ratioTolerance) {
		t.Errorf("net profit margin = %+v, expected -5", margin)
	}
}

func TestMarketMultiplesWithoutMarketCap(t *testing.T) {
	d := testutil.MasimbaDataset()
	d.Market = financial.MarketData{}
	set := ratios.Compute(financial.Resolve(d), ratios.DefaultThresholds())

	r, _ := set.Get(ratios.EVToEBITDA)
	if r.Available || r.Reason != ratios.ReasonNoMarketData {
		t.Errorf("EV/EBITDA = %+v, expected unavailable market data", r)
	}
}

func TestDuPont(t *testing.T) {
	set := ratios.Compute(financial.Resolve(testutil.MasimbaDataset()), ratios.DefaultThresholds())
	dp := set.DuPont

	if dp.Year != "2023" {
		t.Errorf("DuPont year = %s, expected 2023", dp.Year)
	}
	if !dp.ROE.Available {
		t.Fatalf("DuPont ROE unavailable: %s", dp.ROE.Reason)
	}

	roe, _ := set.Get(ratios.ROE)
	if !mathutil.WithinTolerance(dp.ROE.Value, roe.Value, ratioTolerance) {
		t.Errorf("DuPont ROE = %v, expected direct ROE %v", dp.ROE.Value, roe.Value)
	}
	if !mathutil.WithinTolerance(dp.AssetTurnover.Value, 0.65625, ratioTolerance) {
		t.Errorf("asset turnover = %v, expected 0.65625", dp.AssetTurnover.Value)
	}
}

func TestDuPontMissingAssets(t *testing.T) {
	set := ratios.Compute(financial.Resolve(testutil.WithoutMetric(testutil.MasimbaDataset(), "Total assets")), ratios.DefaultThresholds())
	if set.DuPont.ROE.Available {
		t.Errorf("DuPont ROE should be unavailable without total assets")
	}
	if r, _ := set.Get(ratios.ROE); !r.Available {
		t.Errorf("direct ROE should not depend on total assets")
	}
}

func TestByCategory(t *testing.T) {
	set := ratios.Compute(financial.Resolve(testutil.MasimbaDataset()), nil)

	growth := set.ByCategory(ratios.Growth)
	if len(growth) != 3 {
		t.Fatalf("ByCategory(growth) = %d ratios, expected 3", len(growth))
	}
	if growth[0].Name != ratios.RevenueGrowth {
		t.Errorf("first growth ratio = %s, expected revenueGrowth", growth[0].Name)
	}
	for _, r := range set.Ratios {
		if r.Score != ratios.RatingNone {
			t.Errorf("%s scored without thresholds", r.Name)
		}
	}
	if len(set.Ratios) != len(ratios.Names()) {
		t.Errorf("Compute() returned %d ratios, expected %d", len(set.Ratios), len(ratios.Names()))
	}
}
