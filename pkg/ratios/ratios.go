// Package ratios computes point-in-time and trend financial ratios from a
// resolved financial statement. A ratio whose inputs are missing or whose
// preconditions fail is reported as unavailable, never as zero.
package ratios

import (
	"github.com/iwvelando/finance-valuation/pkg/financial"
	"github.com/iwvelando/finance-valuation/pkg/mathutil"
)

// Name identifies a ratio.
type Name string

// Ratio names.
const (
	ROE              Name = "roe"
	ROIC             Name = "roic"
	EBITMargin       Name = "ebitMargin"
	NetProfitMargin  Name = "netProfitMargin"
	EBITDAMargin     Name = "ebitdaMargin"
	FCFMargin        Name = "fcfMargin"
	CurrentRatio     Name = "currentRatio"
	DebtToEquity     Name = "debtToEquity"
	EVToEBITDA       Name = "evToEbitda"
	PriceToEarnings  Name = "priceToEarnings"
	RevenueGrowth    Name = "revenueGrowth"
	EBITGrowth       Name = "ebitGrowth"
	NetProfitGrowth  Name = "netProfitGrowth"
	AssetTurnover    Name = "assetTurnover"
	EquityMultiplier Name = "equityMultiplier"
)

// Category groups ratios for display.
type Category string

// Ratio categories.
const (
	Profitability Category = "profitability"
	Liquidity     Category = "liquidity"
	Leverage      Category = "leverage"
	Valuation     Category = "valuation"
	Growth        Category = "growth"
	DuPontGroup   Category = "dupont"
)

// Unit describes how a ratio value is expressed.
type Unit string

// Ratio units.
const (
	Percent  Unit = "%"
	Multiple Unit = "x"
)

// Reasons given for unavailable ratios.
const (
	ReasonMissingData     = "missing data"
	ReasonNonPositiveBase = "denominator not positive"
	ReasonNoMarketData    = "market data unavailable"
	ReasonNoPriorYear     = "no prior year"
	ReasonUnknownRatio    = "unknown ratio"
)

// Optional is a ratio value that may be unavailable. Year is the fiscal year
// the value was computed for.
type Optional struct {
	Value     float64 `json:"value"`
	Available bool    `json:"available"`
	Year      string  `json:"year,omitempty"`
	Reason    string  `json:"reason,omitempty"`
}

// Ratio is one computed ratio with its qualitative score.
type Ratio struct {
	Name     Name     `json:"name"`
	Category Category `json:"category"`
	Unit     Unit     `json:"unit"`
	Optional
	Score Rating `json:"score,omitempty"`
}

// DuPont decomposes ROE into net profit margin, asset turnover and equity
// multiplier for a single year.
type DuPont struct {
	Year             string   `json:"year,omitempty"`
	NetProfitMargin  Optional `json:"netProfitMargin"`
	AssetTurnover    Optional `json:"assetTurnover"`
	EquityMultiplier Optional `json:"equityMultiplier"`
	ROE              Optional `json:"roe"`
}

// RatioSet holds every ratio in display order plus the DuPont breakdown.
type RatioSet struct {
	Ratios []Ratio `json:"ratios"`
	DuPont DuPont  `json:"dupont"`
}

// Get returns the ratio with the given name.
func (rs RatioSet) Get(name Name) (Ratio, bool) {
	for _, r := range rs.Ratios {
		if r.Name == name {
			return r, true
		}
	}
	return Ratio{}, false
}

// ByCategory returns the ratios of one category in display order.
func (rs RatioSet) ByCategory(c Category) []Ratio {
	var out []Ratio
	for _, r := range rs.Ratios {
		if r.Category == c {
			out = append(out, r)
		}
	}
	return out
}

// Unavailable returns the names of ratios that could not be computed.
func (rs RatioSet) Unavailable() []Name {
	var out []Name
	for _, r := range rs.Ratios {
		if !r.Available {
			out = append(out, r.Name)
		}
	}
	return out
}

type evalFunc func(s *financial.Statement, year string) (Optional, bool)

type definition struct {
	name     Name
	category Category
	unit     Unit
	market   bool
	eval     evalFunc
}

var definitions = []definition{
	{ROE, Profitability, Percent, false, percentOf(financial.NetProfit, financial.Equity)},
	{ROIC, Profitability, Percent, false, roic},
	{EBITMargin, Profitability, Percent, false, percentOf(financial.EBIT, financial.Revenue)},
	{NetProfitMargin, Profitability, Percent, false, percentOf(financial.NetProfit, financial.Revenue)},
	{EBITDAMargin, Profitability, Percent, false, percentOf(financial.EBITDA, financial.Revenue)},
	{FCFMargin, Profitability, Percent, false, percentOf(financial.FreeCashFlow, financial.Revenue)},
	{CurrentRatio, Liquidity, Multiple, false, quotient(financial.CurrentAssets, financial.CurrentLiabilities)},
	{DebtToEquity, Leverage, Multiple, false, debtToEquity},
	{EVToEBITDA, Valuation, Multiple, true, marketMultiple(financial.EBITDA)},
	{PriceToEarnings, Valuation, Multiple, true, marketMultiple(financial.NetProfit)},
	{RevenueGrowth, Growth, Percent, false, growth(financial.Revenue)},
	{EBITGrowth, Growth, Percent, false, growth(financial.EBIT)},
	{NetProfitGrowth, Growth, Percent, false, growth(financial.NetProfit)},
	{AssetTurnover, DuPontGroup, Multiple, false, quotient(financial.Revenue, financial.TotalAssets)},
	{EquityMultiplier, DuPontGroup, Multiple, false, quotient(financial.TotalAssets, financial.Equity)},
}

// Names returns every ratio name in display order.
func Names() []Name {
	names := make([]Name, len(definitions))
	for i, d := range definitions {
		names[i] = d.name
	}
	return names
}

// Compute evaluates every ratio for the latest fiscal year that carries the
// ratio's inputs and scores it against th. A missing input only affects the
// ratios that need it.
func Compute(s *financial.Statement, th Thresholds) RatioSet {
	set := RatioSet{Ratios: make([]Ratio, 0, len(definitions))}
	for _, def := range definitions {
		set.Ratios = append(set.Ratios, def.ratio(latest(def, s), th))
	}
	set.DuPont = dupont(s)
	return set
}

func (d definition) ratio(opt Optional, th Thresholds) Ratio {
	r := Ratio{Name: d.name, Category: d.category, Unit: d.unit, Optional: opt}
	if t, ok := th[d.name]; ok && opt.Available {
		r.Score = t.Score(opt.Value)
	}
	return r
}

// latest walks the years backwards and evaluates the ratio in the first year
// whose inputs are present.
func latest(def definition, s *financial.Statement) Optional {
	for i := len(s.Years) - 1; i >= 0; i-- {
		if opt, found := def.eval(s, s.Years[i]); found {
			return opt
		}
	}
	return Optional{Reason: ReasonMissingData}
}

func computed(value float64, year string) Optional {
	return Optional{Value: value, Available: true, Year: year}
}

func unavailable(year, reason string) Optional {
	return Optional{Year: year, Reason: reason}
}

func values(s *financial.Statement, year string, kinds ...financial.Kind) ([]float64, bool) {
	out := make([]float64, len(kinds))
	for i, k := range kinds {
		v, ok := s.Value(k, year)
		if !ok {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

func divide(numerator, denominator float64, year string, scale float64) Optional {
	if denominator <= 0 {
		return unavailable(year, ReasonNonPositiveBase)
	}
	v, ok := mathutil.SafeDivide(numerator, denominator)
	if !ok {
		return unavailable(year, ReasonNonPositiveBase)
	}
	return computed(v*scale, year)
}

func percentOf(numerator, denominator financial.Kind) evalFunc {
	return func(s *financial.Statement, year string) (Optional, bool) {
		v, ok := values(s, year, numerator, denominator)
		if !ok {
			return Optional{}, false
		}
		return divide(v[0], v[1], year, 100), true
	}
}

func quotient(numerator, denominator financial.Kind) evalFunc {
	return func(s *financial.Statement, year string) (Optional, bool) {
		v, ok := values(s, year, numerator, denominator)
		if !ok {
			return Optional{}, false
		}
		return divide(v[0], v[1], year, 1), true
	}
}

// debt prefers an explicit total debt row and falls back to long-term debt.
func debt(s *financial.Statement, year string) (float64, bool) {
	if s.Has(financial.TotalDebt) {
		return s.Value(financial.TotalDebt, year)
	}
	return s.Value(financial.LongTermDebt, year)
}

func roic(s *financial.Statement, year string) (Optional, bool) {
	v, ok := values(s, year, financial.EBIT, financial.Equity, financial.LongTermDebt)
	if !ok {
		return Optional{}, false
	}
	return divide(v[0], v[1]+v[2], year, 100), true
}

func debtToEquity(s *financial.Statement, year string) (Optional, bool) {
	d, ok := debt(s, year)
	if !ok {
		return Optional{}, false
	}
	equity, ok := s.Value(financial.Equity, year)
	if !ok {
		return Optional{}, false
	}
	return divide(d, equity, year, 1), true
}

// marketMultiple divides market capitalisation by a statement figure. Market
// data is point-in-time, so a missing market cap ends the year search.
func marketMultiple(kind financial.Kind) evalFunc {
	return func(s *financial.Statement, year string) (Optional, bool) {
		v, ok := s.Value(kind, year)
		if !ok {
			return Optional{}, false
		}
		if s.Market.MarketCap == nil {
			return unavailable(year, ReasonNoMarketData), true
		}
		return divide(*s.Market.MarketCap, v, year, 1), true
	}
}

func growth(kind financial.Kind) evalFunc {
	return func(s *financial.Statement, year string) (Optional, bool) {
		prior, ok := s.PriorYear(year)
		if !ok {
			return Optional{}, false
		}
		v, ok := values(s, year, kind)
		if !ok {
			return Optional{}, false
		}
		p, ok := values(s, prior, kind)
		if !ok {
			return Optional{}, false
		}
		if p[0] <= 0 {
			return unavailable(year, ReasonNonPositiveBase), true
		}
		change, ok := mathutil.PercentChange(p[0], v[0])
		if !ok {
			return unavailable(year, ReasonNonPositiveBase), true
		}
		return computed(change, year), true
	}
}

func dupont(s *financial.Statement) DuPont {
	year, ok := s.LatestYear(financial.NetProfit, financial.Revenue, financial.TotalAssets, financial.Equity)
	if !ok {
		missing := Optional{Reason: ReasonMissingData}
		return DuPont{NetProfitMargin: missing, AssetTurnover: missing, EquityMultiplier: missing, ROE: missing}
	}

	npm, _ := percentOf(financial.NetProfit, financial.Revenue)(s, year)
	at, _ := quotient(financial.Revenue, financial.TotalAssets)(s, year)
	em, _ := quotient(financial.TotalAssets, financial.Equity)(s, year)

	d := DuPont{Year: year, NetProfitMargin: npm, AssetTurnover: at, EquityMultiplier: em}
	if npm.Available && at.Available && em.Available {
		d.ROE = computed(npm.Value*at.Value*em.Value, year)
	} else {
		d.ROE = unavailable(year, ReasonNonPositiveBase)
	}
	return d
}
