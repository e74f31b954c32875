package dcf_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/iwvelando/finance-valuation/pkg/constants"
	"github.com/iwvelando/finance-valuation/pkg/dcf"
	"github.com/iwvelando/finance-valuation/pkg/financial"
	"github.com/iwvelando/finance-valuation/pkg/mathutil"
	"github.com/iwvelando/finance-valuation/pkg/testutil"
)

// relTolerance compares large currency amounts to a relative precision.
func relTolerance(t *testing.T, label string, got, expected float64) {
	t.Helper()
	tol := 1e-9 * expected
	if tol < 0 {
		tol = -tol
	}
	if tol < 1e-6 {
		tol = 1e-6
	}
	if !mathutil.WithinTolerance(got, expected, tol) {
		t.Errorf("%s = %v, expected %v", label, got, expected)
	}
}

func masimba() *financial.Statement {
	return financial.Resolve(testutil.MasimbaDataset())
}

func TestProjectMasimba(t *testing.T) {
	r, err := dcf.Project(masimba(), dcf.Assumptions{})
	if err != nil {
		t.Fatalf("Project() unexpected error: %v", err)
	}

	if r.BaseYear != "2023" {
		t.Errorf("BaseYear = %s, expected 2023", r.BaseYear)
	}
	if r.Params.TaxRate != 0.30 || r.Params.TaxRateSource != dcf.TaxSourceDataset {
		t.Errorf("tax rate = %v from %s, expected 0.30 from dataset", r.Params.TaxRate, r.Params.TaxRateSource)
	}
	if len(r.Years) != 5 {
		t.Fatalf("projected %d years, expected 5", len(r.Years))
	}

	y1 := r.Years[0]
	if y1.Year != 2024 || r.Years[4].Year != 2028 {
		t.Errorf("projection years = %d..%d, expected 2024..2028", y1.Year, r.Years[4].Year)
	}
	relTolerance(t, "Y1 revenue", y1.Revenue, 1102500000)
	relTolerance(t, "Y1 EBIT", y1.EBIT, 280800000)
	relTolerance(t, "Y1 NOPAT", y1.NOPAT, 196560000)
	relTolerance(t, "Y1 capex", y1.Capex, 107625000)
	relTolerance(t, "Y1 FCF", y1.FreeCashFlow, 88935000)
	relTolerance(t, "Y1 discount factor", y1.DiscountFactor, 0.9090909090909091)
	relTolerance(t, "Y1 present value", y1.PresentValue, 80850000)

	relTolerance(t, "sum of PVs", r.SumOfPresentValuesOfFCF, 374269509.1838281)
	relTolerance(t, "terminal value", r.TerminalValue, 1635486032.658385)
	relTolerance(t, "PV of terminal value", r.PresentValueOfTerminalValue, 1015508151.2430127)
	relTolerance(t, "enterprise value", r.EnterpriseValue, 1389777660.4268408)

	if r.SharesOutstanding == nil || *r.SharesOutstanding != 155000000 {
		t.Errorf("shares outstanding = %v, expected 155000000", r.SharesOutstanding)
	}
	if r.FairValuePerShare == nil || !mathutil.WithinTolerance(*r.FairValuePerShare, 8.966307, 1e-6) {
		t.Errorf("fair value per share = %v, expected 8.966307", r.FairValuePerShare)
	}
	if r.ImpliedPremiumPct == nil || !mathutil.WithinTolerance(*r.ImpliedPremiumPct, 5.485970, 1e-5) {
		t.Errorf("implied premium = %v, expected 5.485970", r.ImpliedPremiumPct)
	}

	weight, ok := r.TerminalValueWeight()
	if !ok || !mathutil.WithinTolerance(weight, 73.0698, 0.0001) {
		t.Errorf("TerminalValueWeight() = %v, %v; expected 73.0698", weight, ok)
	}
}

func TestProjectSimpleCase(t *testing.T) {
	d := financial.Dataset{
		Years: []string{"2023"},
		Metrics: []financial.Metric{
			{Name: "Revenue", Values: map[string]string{"2023": "1000"}},
			{Name: "EBIT", Values: map[string]string{"2023": "100"}},
			{Name: "Capex", Values: map[string]string{"2023": "50"}},
		},
	}
	a := dcf.Assumptions{
		RevenueGrowthRate:  dcf.Float(0),
		TerminalGrowthRate: dcf.Float(0.03),
		WACC:               dcf.Float(0.10),
		TaxRate:            dcf.Float(0.25),
		ProjectionYears:    dcf.Int(1),
		SharesOutstanding:  dcf.Float(10),
	}

	r, err := dcf.ProjectDataset(d, a)
	if err != nil {
		t.Fatalf("ProjectDataset() unexpected error: %v", err)
	}

	relTolerance(t, "FCF", r.Years[0].FreeCashFlow, 25)
	relTolerance(t, "PV", r.Years[0].PresentValue, 22.727272727272727)
	relTolerance(t, "terminal value", r.TerminalValue, 367.85714285714283)
	relTolerance(t, "PV of terminal value", r.PresentValueOfTerminalValue, 334.41558441558436)
	relTolerance(t, "enterprise value", r.EnterpriseValue, 357.1428571428571)
	if r.FairValuePerShare == nil || !mathutil.WithinTolerance(*r.FairValuePerShare, 35.714286, 1e-6) {
		t.Errorf("fair value per share = %v, expected 35.714286", r.FairValuePerShare)
	}
	if r.ImpliedPremiumPct != nil {
		t.Errorf("implied premium should be absent without a share price")
	}
	if r.Params.TaxRateSource != dcf.TaxSourceAssumption {
		t.Errorf("tax rate source = %s, expected assumption", r.Params.TaxRateSource)
	}
	if r.ExitMultipleTerminalValue != nil {
		t.Errorf("exit multiple terminal value should be absent without EBITDA")
	}
}

func TestProjectDeterministic(t *testing.T) {
	st := masimba()
	first, err := dcf.Project(st, dcf.Assumptions{})
	if err != nil {
		t.Fatalf("Project() unexpected error: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := dcf.Project(st, dcf.Assumptions{})
		if err != nil {
			t.Fatalf("Project() unexpected error: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("Project() run %d differs from the first run", i)
		}
	}
}

func TestEnterpriseValueDecreasesWithWACC(t *testing.T) {
	st := masimba()
	previous := 0.0
	for i, wacc := range []float64{0.05, 0.07, 0.09, 0.10, 0.12, 0.15} {
		r, err := dcf.Project(st, dcf.Assumptions{WACC: dcf.Float(wacc)})
		if err != nil {
			t.Fatalf("Project(wacc=%v) unexpected error: %v", wacc, err)
		}
		if i > 0 && r.EnterpriseValue >= previous {
			t.Errorf("EV at wacc %v = %v, expected less than %v", wacc, r.EnterpriseValue, previous)
		}
		previous = r.EnterpriseValue
	}
}

func TestEnterpriseValueNonDecreasingWithGrowth(t *testing.T) {
	st := masimba()
	previous := 0.0
	for i, g := range []float64{-0.05, 0, 0.03, 0.05, 0.07, 0.2} {
		r, err := dcf.Project(st, dcf.Assumptions{RevenueGrowthRate: dcf.Float(g)})
		if err != nil {
			t.Fatalf("Project(g=%v) unexpected error: %v", g, err)
		}
		if i > 0 && r.EnterpriseValue < previous {
			t.Errorf("EV at growth %v = %v, expected at least %v", g, r.EnterpriseValue, previous)
		}
		previous = r.EnterpriseValue
	}
}

func TestProjectInvalidAssumptions(t *testing.T) {
	tests := []struct {
		name  string
		a     dcf.Assumptions
		field string
	}{
		{"WACC equals terminal growth", dcf.Assumptions{WACC: dcf.Float(0.08), TerminalGrowthRate: dcf.Float(0.08)}, "wacc"},
		{"WACC below terminal growth", dcf.Assumptions{WACC: dcf.Float(0.02)}, "wacc"},
		{"Zero WACC", dcf.Assumptions{WACC: dcf.Float(0), TerminalGrowthRate: dcf.Float(-0.01)}, "wacc"},
		{"Zero projection years", dcf.Assumptions{ProjectionYears: dcf.Int(0)}, "projectionYears"},
		{"Projection years above cap", dcf.Assumptions{ProjectionYears: dcf.Int(constants.MaxProjectionYears + 1)}, "projectionYears"},
		{"Huge projection years", dcf.Assumptions{ProjectionYears: dcf.Int(1 << 62)}, "projectionYears"},
		{"Implausible decline", dcf.Assumptions{RevenueGrowthRate: dcf.Float(-0.6)}, "revenueGrowthRate"},
		{"Tax rate of one", dcf.Assumptions{TaxRate: dcf.Float(1)}, "taxRate"},
		{"Unknown terminal method", dcf.Assumptions{TerminalMethod: "gordon"}, "terminalMethod"},
		{"Non-positive exit multiple", dcf.Assumptions{TerminalMethod: constants.TerminalMethodExitMultiple, ExitMultiple: dcf.Float(0)}, "exitMultiple"},
		{"Negative NWC share", dcf.Assumptions{NWCPctRevenue: dcf.Float(-0.1)}, "nwcPctRevenue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := dcf.Project(masimba(), tt.a)
			if r != nil {
				t.Errorf("Project() returned a result for invalid assumptions")
			}
			if !errors.Is(err, dcf.ErrInvalidAssumptions) {
				t.Fatalf("Project() error = %v, expected ErrInvalidAssumptions", err)
			}
			var aerr *dcf.AssumptionError
			if !errors.As(err, &aerr) || aerr.Field != tt.field {
				t.Errorf("Project() error = %v, expected field %s", err, tt.field)
			}
			if dcf.ErrorCode(err) != "invalid_assumptions" {
				t.Errorf("ErrorCode() = %s", dcf.ErrorCode(err))
			}
		})
	}
}

func TestProjectInsufficientData(t *testing.T) {
	tests := []struct {
		name    string
		dataset financial.Dataset
		kind    financial.Kind
	}{
		{"No capex", testutil.WithoutMetric(testutil.MasimbaDataset(), "Capex"), financial.Capex},
		{"No EBIT", testutil.WithoutMetric(testutil.MasimbaDataset(), "Earnings before interest and tax (EBIT)"), financial.EBIT},
		{"Empty dataset", financial.Dataset{}, financial.Revenue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := dcf.ProjectDataset(tt.dataset, dcf.Assumptions{})
			if !errors.Is(err, dcf.ErrInsufficientData) {
				t.Fatalf("ProjectDataset() error = %v, expected ErrInsufficientData", err)
			}
			var derr *dcf.DataError
			if !errors.As(err, &derr) || derr.Kind != tt.kind {
				t.Errorf("ProjectDataset() error = %v, expected missing %s", err, tt.kind)
			}
		})
	}
}

func TestProjectRequiresFinalYearSeed(t *testing.T) {
	d := testutil.MasimbaDataset()
	d.Years = append(d.Years, "2024")
	d.Metrics = append([]financial.Metric(nil), d.Metrics...)
	extend := func(name, value string) {
		for i := range d.Metrics {
			if d.Metrics[i].Name != name {
				continue
			}
			values := make(map[string]string, len(d.Metrics[i].Values)+1)
			for k, v := range d.Metrics[i].Values {
				values[k] = v
			}
			values["2024"] = value
			d.Metrics[i].Values = values
		}
	}
	extend("Revenue", "1100000000")
	extend("Earnings before interest and tax (EBIT)", "285000000")
	extend("Capex", "")

	r, err := dcf.ProjectDataset(d, dcf.Assumptions{})
	if r != nil {
		t.Errorf("ProjectDataset() projected from an earlier year: base year %s", r.BaseYear)
	}
	if !errors.Is(err, dcf.ErrInsufficientData) {
		t.Fatalf("ProjectDataset() error = %v, expected ErrInsufficientData", err)
	}
	var derr *dcf.DataError
	if !errors.As(err, &derr) || derr.Kind != financial.Capex || derr.Year != "2024" {
		t.Errorf("ProjectDataset() error = %v, expected missing capex for 2024", err)
	}
}

func TestProjectShareCount(t *testing.T) {
	noShares := testutil.WithoutMetric(testutil.MasimbaDataset(), "Issued Shares")

	r, err := dcf.ProjectDataset(noShares, dcf.Assumptions{})
	if !errors.Is(err, dcf.ErrInvalidShareCount) {
		t.Fatalf("ProjectDataset() error = %v, expected ErrInvalidShareCount", err)
	}
	if r == nil {
		t.Fatalf("ProjectDataset() should return the partial result")
	}
	if r.FairValuePerShare != nil {
		t.Errorf("fair value per share should be absent")
	}
	relTolerance(t, "enterprise value", r.EnterpriseValue, 1389777660.4268408)

	r, err = dcf.ProjectDataset(noShares, dcf.Assumptions{SharesOutstanding: dcf.Float(1550000000)})
	if err != nil {
		t.Fatalf("ProjectDataset() with fallback unexpected error: %v", err)
	}
	if !mathutil.WithinTolerance(*r.FairValuePerShare, 0.896631, 1e-6) {
		t.Errorf("fair value per share with fallback = %v, expected 0.896631", *r.FairValuePerShare)
	}

	r, err = dcf.ProjectDataset(testutil.MasimbaDataset(), dcf.Assumptions{SharesOutstanding: dcf.Float(1)})
	if err != nil {
		t.Fatalf("ProjectDataset() unexpected error: %v", err)
	}
	if *r.SharesOutstanding != 155000000 {
		t.Errorf("dataset share count should win over the fallback, got %v", *r.SharesOutstanding)
	}

	zero := testutil.WithMetric(noShares, financial.Metric{Name: "Shares outstanding", Values: map[string]string{"2023": "0"}})
	_, err = dcf.ProjectDataset(zero, dcf.Assumptions{})
	var serr *dcf.ShareCountError
	if !errors.As(err, &serr) || !serr.Available {
		t.Errorf("zero share count error = %v, expected ShareCountError with a value", err)
	}

	_, err = dcf.ProjectDataset(noShares, dcf.Assumptions{SharesOutstanding: dcf.Float(-5)})
	if !errors.Is(err, dcf.ErrInvalidShareCount) {
		t.Errorf("negative fallback error = %v, expected ErrInvalidShareCount", err)
	}
}

func TestProjectShareCountFromBaseYear(t *testing.T) {
	stale := testutil.WithMetric(testutil.WithoutMetric(testutil.MasimbaDataset(), "Issued Shares"), financial.Metric{
		Name:   "Issued Shares",
		Values: map[string]string{"2021": "145000000", "2022": "150000000", "2023": ""},
	})

	r, err := dcf.ProjectDataset(stale, dcf.Assumptions{})
	var serr *dcf.ShareCountError
	if !errors.As(err, &serr) || serr.Available {
		t.Fatalf("ProjectDataset() error = %v, expected ShareCountError without a value", err)
	}
	if r == nil || r.FairValuePerShare != nil {
		t.Fatalf("an earlier year's share count should not price the base year")
	}

	r, err = dcf.ProjectDataset(stale, dcf.Assumptions{SharesOutstanding: dcf.Float(155000000)})
	if err != nil {
		t.Fatalf("ProjectDataset() with fallback unexpected error: %v", err)
	}
	if *r.SharesOutstanding != 155000000 {
		t.Errorf("shares = %v, expected the fallback 155000000", *r.SharesOutstanding)
	}
	if !mathutil.WithinTolerance(*r.FairValuePerShare, 8.966307, 1e-6) {
		t.Errorf("fair value per share = %v, expected 8.966307", *r.FairValuePerShare)
	}
}

func TestProjectExitMultiple(t *testing.T) {
	r, err := dcf.Project(masimba(), dcf.Assumptions{TerminalMethod: constants.TerminalMethodExitMultiple})
	if err != nil {
		t.Fatalf("Project() unexpected error: %v", err)
	}

	last := r.Years[len(r.Years)-1]
	if last.EBITDA == nil {
		t.Fatalf("projected EBITDA missing")
	}
	relTolerance(t, "Y5 EBITDA", *last.EBITDA, 377162399.744)
	relTolerance(t, "exit terminal value", r.TerminalValue, 2074393198.592)
	relTolerance(t, "enterprise value", r.EnterpriseValue, 1662304478.598485)
	if r.PerpetuityTerminalValue == nil {
		t.Fatalf("perpetuity terminal value should still be reported")
	}
	relTolerance(t, "perpetuity terminal value", *r.PerpetuityTerminalValue, 1635486032.658385)

	_, err = dcf.ProjectDataset(testutil.WithoutMetric(testutil.MasimbaDataset(), "EBITDA"), dcf.Assumptions{TerminalMethod: constants.TerminalMethodExitMultiple})
	var derr *dcf.DataError
	if !errors.As(err, &derr) || derr.Kind != financial.EBITDA {
		t.Errorf("exit multiple without EBITDA error = %v, expected missing ebitda", err)
	}
}

func TestProjectExitMultipleEBITDAFromDepreciation(t *testing.T) {
	d := testutil.WithMetric(testutil.WithoutMetric(testutil.MasimbaDataset(), "EBITDA"), financial.Metric{
		Name:   "Depreciation and amortisation",
		Values: map[string]string{"2022": "-38000000", "2023": "-40000000"},
	})

	r, err := dcf.ProjectDataset(d, dcf.Assumptions{TerminalMethod: constants.TerminalMethodExitMultiple})
	if err != nil {
		t.Fatalf("ProjectDataset() unexpected error: %v", err)
	}
	relTolerance(t, "Y5 EBITDA", *r.Years[len(r.Years)-1].EBITDA, 377162399.744)
	relTolerance(t, "enterprise value", r.EnterpriseValue, 1662304478.598485)

	stale := testutil.WithMetric(testutil.WithoutMetric(testutil.MasimbaDataset(), "EBITDA"), financial.Metric{
		Name:   "Depreciation and amortisation",
		Values: map[string]string{"2022": "38000000"},
	})
	_, err = dcf.ProjectDataset(stale, dcf.Assumptions{TerminalMethod: constants.TerminalMethodExitMultiple})
	var derr *dcf.DataError
	if !errors.As(err, &derr) || derr.Kind != financial.EBITDA {
		t.Errorf("depreciation outside the base year error = %v, expected missing ebitda", err)
	}
}

func TestProjectRefinements(t *testing.T) {
	a := dcf.Assumptions{DepreciationPctRevenue: dcf.Float(0.03), NWCPctRevenue: dcf.Float(0.10)}
	r, err := dcf.Project(masimba(), a)
	if err != nil {
		t.Fatalf("Project() unexpected error: %v", err)
	}

	y1 := r.Years[0]
	relTolerance(t, "Y1 depreciation", y1.Depreciation, 33075000)
	relTolerance(t, "Y1 change in NWC", y1.ChangeInNWC, 5250000)
	relTolerance(t, "Y1 FCF", y1.FreeCashFlow, 116760000)
	relTolerance(t, "enterprise value", r.EnterpriseValue, 1814274727.7378168)
}

func TestProjectNegativeCapexIsOutflow(t *testing.T) {
	d := testutil.MasimbaDataset()
	for i, m := range d.Metrics {
		if m.Name == "Capex" {
			d.Metrics[i] = financial.Metric{Name: "Capex", Values: map[string]string{"2023": "(105,000,000)"}}
		}
	}
	r, err := dcf.ProjectDataset(d, dcf.Assumptions{})
	if err != nil {
		t.Fatalf("ProjectDataset() unexpected error: %v", err)
	}
	relTolerance(t, "enterprise value", r.EnterpriseValue, 1389777660.4268408)
}

func TestPremium(t *testing.T) {
	tests := []struct {
		name      string
		fair      float64
		price     float64
		expected  float64
		available bool
	}{
		{"Undervalued", 10, 8, 25, true},
		{"Overvalued", 6, 8, -25, true},
		{"Fair", 8, 8, 0, true},
		{"Zero price", 8, 0, 0, false},
		{"Negative price", 8, -1, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			premium, ok := dcf.Premium(tt.fair, tt.price)
			if ok != tt.available {
				t.Fatalf("Premium(%v, %v) ok = %v, expected %v", tt.fair, tt.price, ok, tt.available)
			}
			if !mathutil.WithinTolerance(premium, tt.expected, 1e-9) {
				t.Errorf("Premium(%v, %v) = %v, expected %v", tt.fair, tt.price, premium, tt.expected)
			}
		})
	}
}
