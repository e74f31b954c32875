// Package optimization provides shared data structures for optimization results.
package optimization

// Summary captures the result of solving one assumption for the value at
// which the fair value per share meets the market share price.
type Summary struct {
	Field           string   `json:"field"`
	Original        float64  `json:"original"`
	Value           float64  `json:"value"`
	Min             float64  `json:"min"`
	Max             float64  `json:"max"`
	SharePrice      float64  `json:"sharePrice"`
	FairValue       float64  `json:"fairValue"`
	Gap             float64  `json:"gap"`
	Iterations      int      `json:"iterations"`
	Converged       bool     `json:"converged"`
	Notes           []string `json:"notes,omitempty"`
	OriginalDisplay string   `json:"originalDisplay,omitempty"`
	ValueDisplay    string   `json:"valueDisplay,omitempty"`
}

// Change returns the distance from the original assumption to the solved value.
func (s Summary) Change() float64 {
	return s.Value - s.Original
}
