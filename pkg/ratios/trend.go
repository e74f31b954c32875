package ratios

import "github.com/iwvelando/finance-valuation/pkg/financial"

// Point is one year of a ratio trend.
type Point struct {
	Year string `json:"year"`
	Optional
	Score Rating `json:"score,omitempty"`
}

// Trend evaluates a ratio for every fiscal year of the statement. Years
// without the ratio's inputs are unavailable. Market multiples are only
// reported for the year Compute would select, since market data has no
// history.
func Trend(s *financial.Statement, name Name, th Thresholds) []Point {
	def, ok := lookup(name)
	if !ok {
		points := make([]Point, len(s.Years))
		for i, y := range s.Years {
			points[i] = Point{Year: y, Optional: unavailable(y, ReasonUnknownRatio)}
		}
		return points
	}

	latestYear := ""
	if def.market {
		latestYear = latest(def, s).Year
	}

	points := make([]Point, 0, len(s.Years))
	for _, y := range s.Years {
		opt, found := def.eval(s, y)
		switch {
		case !found:
			opt = unavailable(y, ReasonMissingData)
		case def.market && y != latestYear:
			opt = unavailable(y, ReasonNoMarketData)
		}
		if !found && def.category == Growth {
			if _, hasPrior := s.PriorYear(y); !hasPrior {
				opt.Reason = ReasonNoPriorYear
			}
		}
		p := Point{Year: y, Optional: opt}
		if t, ok := th[name]; ok && opt.Available {
			p.Score = t.Score(opt.Value)
		}
		points = append(points, p)
	}
	return points
}

func lookup(name Name) (definition, bool) {
	for _, d := range definitions {
		if d.name == name {
			return d, true
		}
	}
	return definition{}, false
}
