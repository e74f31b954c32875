package financial

import "strings"

// Kind is a canonical metric recognised by the engines.
type Kind int

// Recognised metric kinds.
const (
	Revenue Kind = iota
	EBIT
	EBITDA
	NetProfit
	Equity
	TotalAssets
	LongTermDebt
	TotalDebt
	CurrentAssets
	CurrentLiabilities
	Capex
	FreeCashFlow
	TaxRate
	IssuedShares
	Depreciation
)

type matcher struct {
	kind       Kind
	key        string
	substrings []string
	excludes   []string
}

// matchers is ordered by Kind. Substrings are tried in order; the first
// metric containing one of them and none of the exclusions wins.
var matchers = []matcher{
	{kind: Revenue, key: "revenue", substrings: []string{"revenue", "turnover", "sales"}, excludes: []string{"growth", "asset turnover", "cost of"}},
	{kind: EBIT, key: "ebit", substrings: []string{"ebit", "operating profit"}, excludes: []string{"ebitda", "margin"}},
	{kind: EBITDA, key: "ebitda", substrings: []string{"ebitda"}, excludes: []string{"margin", "ev/"}},
	{kind: NetProfit, key: "net profit", substrings: []string{"net profit", "net income", "profit after tax"}, excludes: []string{"margin", "growth"}},
	{kind: Equity, key: "equity", substrings: []string{"total equity", "shareholders equity", "shareholders' equity", "equity"}, excludes: []string{"liabilities", "return on", "debt to", "multiplier"}},
	{kind: TotalAssets, key: "total assets", substrings: []string{"total assets"}},
	{kind: LongTermDebt, key: "long term debt", substrings: []string{"long term debt", "long-term debt", "non-current borrowings"}},
	{kind: TotalDebt, key: "total debt", substrings: []string{"total debt", "total borrowings"}},
	{kind: CurrentAssets, key: "current assets", substrings: []string{"current assets"}, excludes: []string{"non-current", "non current"}},
	{kind: CurrentLiabilities, key: "current liabilities", substrings: []string{"current liabilities"}, excludes: []string{"non-current", "non current"}},
	{kind: Capex, key: "capex", substrings: []string{"capex", "capital expenditure"}},
	{kind: FreeCashFlow, key: "free cash flow", substrings: []string{"free cash flow", "fcf"}, excludes: []string{"margin"}},
	{kind: TaxRate, key: "tax rate", substrings: []string{"tax rate", "effective tax"}},
	{kind: IssuedShares, key: "issued shares", substrings: []string{"issued shares", "shares outstanding", "shares in issue", "number of shares"}},
	{kind: Depreciation, key: "depreciation", substrings: []string{"depreciation"}},
}

// Kinds returns every recognised kind in canonical order.
func Kinds() []Kind {
	kinds := make([]Kind, len(matchers))
	for i, m := range matchers {
		kinds[i] = m.kind
	}
	return kinds
}

// String returns the canonical lookup key of the kind.
func (k Kind) String() string {
	if int(k) < 0 || int(k) >= len(matchers) {
		return "unknown"
	}
	return matchers[k].key
}

// Find returns the first metric whose lower-cased name contains key.
func Find(d Dataset, key string) (*Metric, bool) {
	key = strings.ToLower(key)
	for i := range d.Metrics {
		if strings.Contains(strings.ToLower(d.Metrics[i].Name), key) {
			return &d.Metrics[i], true
		}
	}
	return nil, false
}

// FindKind returns the metric matching a canonical kind using the kind's
// ordered substrings and exclusions.
func FindKind(d Dataset, kind Kind) (*Metric, bool) {
	if int(kind) < 0 || int(kind) >= len(matchers) {
		return nil, false
	}
	m := matchers[kind]
	for _, sub := range m.substrings {
		for i := range d.Metrics {
			name := strings.ToLower(d.Metrics[i].Name)
			if strings.Contains(name, sub) && !containsAny(name, m.excludes) {
				return &d.Metrics[i], true
			}
		}
	}
	return nil, false
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
