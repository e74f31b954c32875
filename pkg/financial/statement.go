package financial

// ValueIssue records a cell that could not be parsed. The cell is treated as
// no data; issues are kept so callers can surface them.
type ValueIssue struct {
	Kind   Kind
	Metric string
	Year   string
	Err    error
}

// Statement is a dataset resolved once into typed metric kinds. Only cells
// that parsed successfully are present, so absence always means no data.
type Statement struct {
	Years  []string
	Market MarketData

	series map[Kind]map[string]float64
	names  map[Kind]string
	index  map[string]int
	issues []ValueIssue
}

// Resolve maps every recognised kind onto the dataset's metrics and parses
// their values. The dataset is not modified.
func Resolve(d Dataset) *Statement {
	s := &Statement{
		Years:  append([]string(nil), d.Years...),
		Market: d.Market,
		series: make(map[Kind]map[string]float64),
		names:  make(map[Kind]string),
		index:  make(map[string]int, len(d.Years)),
	}
	for i, y := range s.Years {
		s.index[y] = i
	}

	for _, kind := range Kinds() {
		metric, ok := FindKind(d, kind)
		if !ok {
			continue
		}
		s.names[kind] = metric.Name
		values := make(map[string]float64, len(s.Years))
		for _, year := range s.Years {
			v, err := metric.Value(year)
			if err != nil {
				if err != ErrNoData {
					s.issues = append(s.issues, ValueIssue{Kind: kind, Metric: metric.Name, Year: year, Err: err})
				}
				continue
			}
			values[year] = v
		}
		s.series[kind] = values
	}
	return s
}

// Has reports whether the dataset carries a metric of the given kind.
func (s *Statement) Has(kind Kind) bool {
	_, ok := s.names[kind]
	return ok
}

// MetricName returns the dataset name matched for the kind.
func (s *Statement) MetricName(kind Kind) (string, bool) {
	name, ok := s.names[kind]
	return name, ok
}

// Value returns the parsed value of a kind for a year.
func (s *Statement) Value(kind Kind, year string) (float64, bool) {
	v, ok := s.series[kind][year]
	return v, ok
}

// HasAll reports whether every kind has a value for the year.
func (s *Statement) HasAll(year string, kinds ...Kind) bool {
	for _, k := range kinds {
		if _, ok := s.Value(k, year); !ok {
			return false
		}
	}
	return true
}

// LatestYear returns the last fiscal year in which every given kind has a
// value.
func (s *Statement) LatestYear(kinds ...Kind) (string, bool) {
	for i := len(s.Years) - 1; i >= 0; i-- {
		if s.HasAll(s.Years[i], kinds...) {
			return s.Years[i], true
		}
	}
	return "", false
}

// PriorYear returns the fiscal year preceding year in the dataset's order.
func (s *Statement) PriorYear(year string) (string, bool) {
	i, ok := s.index[year]
	if !ok || i == 0 {
		return "", false
	}
	return s.Years[i-1], true
}

// Issues returns the cells that failed to parse.
func (s *Statement) Issues() []ValueIssue {
	return s.issues
}
