package ratios

// Rating is the qualitative score of a ratio.
type Rating string

// Ratings. RatingNone is used when a ratio is unavailable or has no
// configured threshold.
const (
	RatingGood Rating = "good"
	RatingFair Rating = "fair"
	RatingPoor Rating = "poor"
	RatingNone Rating = ""
)

// Threshold is the {good, ok} pair used to score a ratio. When Inverted is
// set lower values are better: a value at or below Good is good and at or
// below OK is fair.
type Threshold struct {
	Good     float64 `json:"good" yaml:"good" mapstructure:"good"`
	OK       float64 `json:"ok" yaml:"ok" mapstructure:"ok"`
	Inverted bool    `json:"inverted,omitempty" yaml:"inverted,omitempty" mapstructure:"inverted"`
}

// Score rates a value against the threshold.
func (t Threshold) Score(value float64) Rating {
	if t.Inverted {
		switch {
		case value <= t.Good:
			return RatingGood
		case value <= t.OK:
			return RatingFair
		default:
			return RatingPoor
		}
	}
	switch {
	case value >= t.Good:
		return RatingGood
	case value >= t.OK:
		return RatingFair
	default:
		return RatingPoor
	}
}

// Thresholds maps ratio names to their scoring thresholds. Ratios without
// an entry are not scored.
type Thresholds map[Name]Threshold

// DefaultThresholds returns the standard scoring thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ROE:             {Good: 15, OK: 10},
		ROIC:            {Good: 12, OK: 8},
		EBITMargin:      {Good: 15, OK: 10},
		NetProfitMargin: {Good: 10, OK: 5},
		RevenueGrowth:   {Good: 10, OK: 5},
		CurrentRatio:    {Good: 2, OK: 1.5},
		EVToEBITDA:      {Good: 10, OK: 15, Inverted: true},
		DebtToEquity:    {Good: 0.5, OK: 1.0, Inverted: true},
	}
}

// Merge returns a copy of t with overrides applied on top.
func (t Thresholds) Merge(overrides Thresholds) Thresholds {
	out := make(Thresholds, len(t)+len(overrides))
	for k, v := range t {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}
