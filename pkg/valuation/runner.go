// Package valuation runs the DCF engine repeatedly under perturbed
// assumptions to build scenario and sensitivity analyses.
package valuation

import (
	"time"

	"go.uber.org/zap"

	"github.com/iwvelando/finance-valuation/pkg/constants"
	"github.com/iwvelando/finance-valuation/pkg/dcf"
	"github.com/iwvelando/finance-valuation/pkg/financial"
)

// Run kinds reported to an Observer.
const (
	KindBase        = "base"
	KindScenario    = "scenario"
	KindSensitivity = "sensitivity"
)

// Observer receives the outcome of every DCF run. Implementations must be
// safe for concurrent use.
type Observer interface {
	ObserveRun(kind string, elapsed time.Duration, err error)
}

// Runner fans DCF runs out over a bounded number of goroutines.
type Runner struct {
	logger   *zap.Logger
	workers  int
	observer Observer
}

// Option configures a Runner.
type Option func(*Runner)

// WithObserver reports every run to o.
func WithObserver(o Observer) Option {
	return func(r *Runner) {
		r.observer = o
	}
}

// NewRunner constructs a Runner. A workers value below 1 uses the default
// concurrency.
func NewRunner(logger *zap.Logger, workers int, opts ...Option) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if workers < 1 {
		workers = constants.DefaultWorkers
	}
	r := &Runner{logger: logger, workers: workers}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Base runs the DCF once with the base assumptions.
func (r *Runner) Base(s *financial.Statement, a dcf.Assumptions) (*dcf.Result, error) {
	res, err := r.project(KindBase, s, a)
	if err != nil {
		r.logger.Warn("base valuation incomplete",
			zap.String("op", "valuation.Runner.Base"),
			zap.String("code", dcf.ErrorCode(err)),
			zap.Error(err),
		)
	}
	return res, err
}

func (r *Runner) project(kind string, s *financial.Statement, a dcf.Assumptions) (*dcf.Result, error) {
	start := time.Now()
	res, err := dcf.Project(s, a)
	if r.observer != nil {
		r.observer.ObserveRun(kind, time.Since(start), err)
	}
	return res, err
}
