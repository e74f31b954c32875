// Package telemetry exposes Prometheus collectors for valuation runs.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/iwvelando/finance-valuation/pkg/dcf"
	"github.com/iwvelando/finance-valuation/pkg/ratios"
)

// Run statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Metrics holds the valuation collectors. It implements valuation.Observer.
type Metrics struct {
	// RunsTotal counts DCF runs by kind and status
	RunsTotal *prometheus.CounterVec

	// RunDuration records DCF run latency by kind
	RunDuration *prometheus.HistogramVec

	// ErrorsTotal counts failed runs by error code
	ErrorsTotal *prometheus.CounterVec

	// RatiosUnavailable counts ratios that could not be computed
	RatiosUnavailable *prometheus.CounterVec
}

// New registers the collectors with reg. A nil reg registers with the
// default Prometheus registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finance_valuation_runs_total",
				Help: "Total DCF runs by kind and status",
			},
			[]string{"kind", "status"},
		),
		RunDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "finance_valuation_run_duration_seconds",
				Help:    "DCF run duration",
				Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1},
			},
			[]string{"kind"},
		),
		ErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finance_valuation_errors_total",
				Help: "Total failed DCF runs by error code",
			},
			[]string{"code"},
		),
		RatiosUnavailable: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finance_valuation_ratios_unavailable_total",
				Help: "Total ratios reported unavailable by ratio name",
			},
			[]string{"ratio"},
		),
	}
}

// ObserveRun records one DCF run.
func (m *Metrics) ObserveRun(kind string, elapsed time.Duration, err error) {
	status := StatusSuccess
	if err != nil {
		status = StatusError
		m.ErrorsTotal.WithLabelValues(dcf.ErrorCode(err)).Inc()
	}
	m.RunsTotal.WithLabelValues(kind, status).Inc()
	m.RunDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// ObserveRatios records every unavailable ratio in rs.
func (m *Metrics) ObserveRatios(rs ratios.RatioSet) {
	for _, name := range rs.Unavailable() {
		m.RatiosUnavailable.WithLabelValues(string(name)).Inc()
	}
}
