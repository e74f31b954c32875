// Package output provides utilities for formatting and displaying valuation reports.
package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/iwvelando/finance-valuation/internal/report"
	"github.com/iwvelando/finance-valuation/pkg/dcf"
	"github.com/iwvelando/finance-valuation/pkg/format"
	"github.com/iwvelando/finance-valuation/pkg/optimization"
	"github.com/iwvelando/finance-valuation/pkg/ratios"
	"github.com/iwvelando/finance-valuation/pkg/valuation"
)

// CsvHeader is the header row of CsvFormat.
var CsvHeader = []string{"section", "name", "key", "value", "note"}

// PrettyFormat writes a human-readable rather than machine-readable report.
func PrettyFormat(w io.Writer, rep *report.Report) error {
	p := message.NewPrinter(language.English)
	pw := &printer{w: w, p: p}

	title := rep.Company
	if rep.Ticker != "" {
		title = fmt.Sprintf("%s (%s)", rep.Company, rep.Ticker)
	}
	pw.printf("=== %s ===\n", title)
	if n := len(rep.Years); n > 0 {
		pw.printf("Fiscal years: %s - %s\n", rep.Years[0], rep.Years[n-1])
	}

	pw.printf("\n--- Financial ratios ---\n")
	pw.printf("%-18s | %-4s | %-12s | %s\n", "Ratio", "Year", "Value", "Score")
	pw.printf("%-18s | %-4s | %-12s | %s\n", "_____", "____", "_____", "_____")
	for _, r := range rep.Ratios.Ratios {
		pw.printf("%-18s | %-4s | %-12s | %s\n", r.Name, r.Year, ratioValue(r.Unit, r.Optional), r.Score)
	}

	if d := rep.Ratios.DuPont; d.ROE.Available {
		pw.printf("\n--- DuPont (%s) ---\n", d.Year)
		pw.printf("Net profit margin %s x asset turnover %s x equity multiplier %s = ROE %s\n",
			format.PercentPoints(d.NetProfitMargin.Value), format.Multiple(d.AssetTurnover.Value),
			format.Multiple(d.EquityMultiplier.Value), format.PercentPoints(d.ROE.Value))
	}

	if sum := rep.Valuation; sum != nil {
		prettySummary(pw, sum)
	}
	if len(rep.Implied) > 0 {
		prettyImplied(pw, rep.Implied)
	}

	if len(rep.Warnings) > 0 {
		pw.printf("\n--- Warnings ---\n")
		for _, warning := range rep.Warnings {
			pw.printf("- %s\n", warning)
		}
	}
	return pw.err
}

func prettySummary(pw *printer, sum *valuation.Summary) {
	if sum.Base == nil {
		pw.printf("\n--- DCF valuation ---\nunavailable: %s\n", sum.BaseError)
	} else {
		prettyProjection(pw, sum.Base)
		if sum.BaseError != "" {
			pw.printf("Fair value per share: unavailable: %s\n", sum.BaseError)
		}
	}

	if sum.FairValuePerShare != nil {
		pw.printf("Fair value per share: %s\n", format.Currency(*sum.FairValuePerShare))
	}
	if sum.SharePrice != nil {
		pw.printf("Share price: %s\n", format.Currency(*sum.SharePrice))
	}
	if sum.PremiumPct != nil {
		pw.printf("Premium: %s (%s)\n", format.PercentPoints(*sum.PremiumPct), sum.Status)
	} else {
		pw.printf("Premium: n/a (%s)\n", sum.Status)
	}

	if len(sum.Scenarios) > 0 {
		pw.printf("\n--- Scenarios ---\n")
		pw.printf("%-10s | %-8s | %-8s | %-16s | %s\n", "Scenario", "Growth", "WACC", "Enterprise value", "Fair value/share")
		pw.printf("%-10s | %-8s | %-8s | %-16s | %s\n", "________", "______", "____", "________________", "________________")
		for _, sc := range sum.Scenarios {
			growth, wacc := scenarioRates(sc)
			ev, fair := "n/a", "n/a"
			if sc.Result != nil {
				ev = format.CompactCurrency(sc.Result.EnterpriseValue)
				if sc.Result.FairValuePerShare != nil {
					fair = format.Currency(*sc.Result.FairValuePerShare)
				}
			}
			if sc.Error != "" && sc.Result == nil {
				fair = sc.ErrorCode
			}
			pw.printf("%-10s | %-8s | %-8s | %-16s | %s\n", sc.Name, growth, wacc, ev, fair)
		}
	}

	if m := sum.Sensitivity; m != nil {
		pw.printf("\n--- Sensitivity (enterprise value, WACC rows x growth columns) ---\n")
		pw.printf("%-8s", "WACC")
		for _, g := range m.Growth {
			pw.printf(" | %-8s", format.Percent(g))
		}
		pw.printf("\n")
		for i, wacc := range m.WACC {
			pw.printf("%-8s", format.Percent(wacc))
			for _, c := range m.Cells[i] {
				v := "n/a"
				if c.EnterpriseValue != nil {
					v = format.CompactCurrency(*c.EnterpriseValue)
				}
				pw.printf(" | %-8s", v)
			}
			pw.printf("\n")
		}
	}
}

func prettyImplied(pw *printer, implied []optimization.Summary) {
	pw.printf("\n--- Market-implied assumptions (fair value = share price) ---\n")
	pw.printf("%-18s | %-8s | %-8s | %-10s | %s\n", "Assumption", "Assumed", "Implied", "Fair value", "Status")
	pw.printf("%-18s | %-8s | %-8s | %-10s | %s\n", "__________", "_______", "_______", "__________", "______")
	for _, s := range implied {
		status := "converged"
		if !s.Converged {
			status = "not converged"
		}
		if len(s.Notes) > 0 {
			status += ": " + strings.Join(s.Notes, "; ")
		}
		pw.printf("%-18s | %-8s | %-8s | %-10s | %s\n", s.Field, s.OriginalDisplay, s.ValueDisplay, format.Currency(s.FairValue), status)
	}
}

func prettyProjection(pw *printer, res *dcf.Result) {
	pw.printf("\n--- DCF projection (base year %s, %s terminal value) ---\n", res.BaseYear, res.Params.TerminalMethod)
	pw.printf("Growth %s | WACC %s | Terminal growth %s | Tax %s (%s)\n",
		format.Percent(res.Params.RevenueGrowthRate), format.Percent(res.Params.WACC),
		format.Percent(res.Params.TerminalGrowthRate), format.Percent(res.Params.TaxRate), res.Params.TaxRateSource)
	pw.printf("%-4s | %15s | %15s | %15s | %15s | %15s | %8s | %15s\n",
		"Year", "Revenue", "EBIT", "NOPAT", "Capex", "FCF", "Discount", "Present value")
	for _, y := range res.Years {
		pw.printf("%-4s | %15.0f | %15.0f | %15.0f | %15.0f | %15.0f | %8.4f | %15.0f\n",
			strconv.Itoa(y.Year), y.Revenue, y.EBIT, y.NOPAT, y.Capex, y.FreeCashFlow, y.DiscountFactor, y.PresentValue)
	}

	pw.printf("Sum of PV of FCF: %s\n", format.Currency(res.SumOfPresentValuesOfFCF))
	pw.printf("Terminal value: %s\n", format.Currency(res.TerminalValue))
	pw.printf("PV of terminal value: %s\n", format.Currency(res.PresentValueOfTerminalValue))
	if weight, ok := res.TerminalValueWeight(); ok {
		pw.printf("Terminal value weight: %s\n", format.PercentPoints(weight))
	}
	pw.printf("Enterprise value: %s (%s)\n", format.Currency(res.EnterpriseValue), format.CompactCurrency(res.EnterpriseValue))
}

type printer struct {
	w   io.Writer
	p   *message.Printer
	err error
}

func (pw *printer) printf(f string, args ...interface{}) {
	if pw.err != nil {
		return
	}
	_, pw.err = pw.p.Fprintf(pw.w, f, args...)
}

func ratioValue(unit ratios.Unit, o ratios.Optional) string {
	if !o.Available {
		return "n/a (" + o.Reason + ")"
	}
	if unit == ratios.Multiple {
		return format.Multiple(o.Value)
	}
	return format.PercentPoints(o.Value)
}

func scenarioRates(sc valuation.ScenarioResult) (growth, wacc string) {
	if sc.Result != nil {
		return format.Percent(sc.Result.Params.RevenueGrowthRate), format.Percent(sc.Result.Params.WACC)
	}
	growth, wacc = "default", "default"
	if sc.Assumptions.RevenueGrowthRate != nil {
		growth = format.Percent(*sc.Assumptions.RevenueGrowthRate)
	}
	if sc.Assumptions.WACC != nil {
		wacc = format.Percent(*sc.Assumptions.WACC)
	}
	return growth, wacc
}

// CsvFormat writes the report in comma-separated value format, one value per
// row keyed by section, name and key.
func CsvFormat(w io.Writer, rep *report.Report) error {
	cw := csv.NewWriter(w)
	rows := [][]string{CsvHeader}

	for _, r := range rep.Ratios.Ratios {
		rows = append(rows, optionalRow("ratio", string(r.Name), r.Optional, string(r.Score)))
	}
	for _, name := range ratios.Names() {
		for _, pt := range rep.Trends[name] {
			rows = append(rows, optionalRow("trend", string(name), pt.Optional, string(pt.Score)))
		}
	}

	if sum := rep.Valuation; sum != nil {
		rows = append(rows, summaryRows(sum)...)
	}
	for _, s := range rep.Implied {
		note := "converged"
		if !s.Converged {
			note = strings.Join(append([]string{"not converged"}, s.Notes...), "; ")
		}
		rows = append(rows,
			[]string{"implied", s.Field, "original", number(s.Original), ""},
			[]string{"implied", s.Field, "value", number(s.Value), note},
			[]string{"implied", s.Field, "fairValue", number(s.FairValue), ""},
		)
	}

	for _, warning := range rep.Warnings {
		rows = append(rows, []string{"warning", "", "", "", warning})
	}

	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

// JSONFormat writes the report with the same field names the HTTP API uses.
func JSONFormat(w io.Writer, rep *report.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("failed to write json: %w", err)
	}
	return nil
}

// CsvString renders the report as CSV.
func CsvString(rep *report.Report) string {
	var buf bytes.Buffer
	if err := CsvFormat(&buf, rep); err != nil {
		return ""
	}
	return buf.String()
}

func summaryRows(sum *valuation.Summary) [][]string {
	var rows [][]string
	if res := sum.Base; res != nil {
		for _, y := range res.Years {
			year := strconv.Itoa(y.Year)
			rows = append(rows,
				[]string{"projection", "revenue", year, number(y.Revenue), ""},
				[]string{"projection", "ebit", year, number(y.EBIT), ""},
				[]string{"projection", "nopat", year, number(y.NOPAT), ""},
				[]string{"projection", "capex", year, number(y.Capex), ""},
				[]string{"projection", "freeCashFlow", year, number(y.FreeCashFlow), ""},
				[]string{"projection", "discountFactor", year, number(y.DiscountFactor), ""},
				[]string{"projection", "presentValue", year, number(y.PresentValue), ""},
			)
		}
		rows = append(rows,
			[]string{"valuation", "sumOfPresentValuesOfFcf", res.BaseYear, number(res.SumOfPresentValuesOfFCF), ""},
			[]string{"valuation", "terminalValue", res.BaseYear, number(res.TerminalValue), res.Params.TerminalMethod},
			[]string{"valuation", "presentValueOfTerminalValue", res.BaseYear, number(res.PresentValueOfTerminalValue), ""},
			[]string{"valuation", "enterpriseValue", res.BaseYear, number(res.EnterpriseValue), ""},
		)
	}
	rows = append(rows,
		[]string{"valuation", "fairValuePerShare", "", optionalNumber(sum.FairValuePerShare), sum.BaseErrorCode},
		[]string{"valuation", "sharePrice", "", optionalNumber(sum.SharePrice), ""},
		[]string{"valuation", "premiumPct", "", optionalNumber(sum.PremiumPct), string(sum.Status)},
	)

	for _, sc := range sum.Scenarios {
		var ev, fair *float64
		if sc.Result != nil {
			ev, fair = &sc.Result.EnterpriseValue, sc.Result.FairValuePerShare
		}
		rows = append(rows,
			[]string{"scenario", sc.Name, "enterpriseValue", optionalNumber(ev), sc.ErrorCode},
			[]string{"scenario", sc.Name, "fairValuePerShare", optionalNumber(fair), sc.ErrorCode},
		)
	}

	if m := sum.Sensitivity; m != nil {
		for i := range m.Cells {
			for _, c := range m.Cells[i] {
				key := "wacc=" + number(c.WACC) + " growth=" + number(c.Growth)
				rows = append(rows, []string{"sensitivity", "enterpriseValue", key, optionalNumber(c.EnterpriseValue), c.ErrorCode})
			}
		}
	}
	return rows
}

func optionalRow(section, name string, o ratios.Optional, score string) []string {
	if !o.Available {
		return []string{section, name, o.Year, "", strings.TrimSpace(o.Reason)}
	}
	return []string{section, name, o.Year, number(o.Value), score}
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func optionalNumber(v *float64) string {
	if v == nil {
		return ""
	}
	return number(*v)
}
