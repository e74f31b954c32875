package valuation

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/iwvelando/finance-valuation/pkg/dcf"
	"github.com/iwvelando/finance-valuation/pkg/financial"
	"github.com/iwvelando/finance-valuation/pkg/mathutil"
)

// Grid is the set of WACC values (rows) and revenue growth rates (columns)
// of a sensitivity matrix.
type Grid struct {
	WACC   []float64 `json:"wacc" yaml:"waccRange" mapstructure:"waccRange"`
	Growth []float64 `json:"growth" yaml:"growthRange" mapstructure:"growthRange"`
}

// Cell is one independently computed point of the matrix.
type Cell struct {
	WACC              float64  `json:"wacc"`
	Growth            float64  `json:"growth"`
	EnterpriseValue   *float64 `json:"enterpriseValue,omitempty"`
	FairValuePerShare *float64 `json:"fairValuePerShare,omitempty"`
	Err               error    `json:"-"`
	Error             string   `json:"error,omitempty"`
	ErrorCode         string   `json:"errorCode,omitempty"`
}

// Matrix is the sensitivity grid. Cells[i][j] holds WACC[i] and Growth[j].
type Matrix struct {
	WACC   []float64 `json:"wacc"`
	Growth []float64 `json:"growth"`
	Cells  [][]Cell  `json:"cells"`
}

// Failed returns the number of cells that could not be computed.
func (m *Matrix) Failed() int {
	n := 0
	for _, row := range m.Cells {
		for _, c := range row {
			if c.Err != nil {
				n++
			}
		}
	}
	return n
}

// Range returns start, start+step, ... up to and including end. Values are
// rounded to six decimals so accumulated floating point error does not
// drop the last step.
func Range(start, end, step float64) ([]float64, error) {
	if step <= 0 {
		return nil, fmt.Errorf("range step must be positive, got %g", step)
	}
	if end < start {
		return nil, fmt.Errorf("range end %g is before start %g", end, start)
	}
	n := int(math.Floor((end-start)/step+1e-9)) + 1
	out := make([]float64, n)
	for i := range out {
		out[i] = mathutil.RoundTo(start+float64(i)*step, 6)
	}
	return out, nil
}

// DefaultGrid returns WACC 9.0% to 11.0% in 0.5% steps against growth 3% to
// 7% in 1% steps.
func DefaultGrid() Grid {
	wacc, _ := Range(0.09, 0.11, 0.005)
	growth, _ := Range(0.03, 0.07, 0.01)
	return Grid{WACC: wacc, Growth: growth}
}

// Sensitivity runs a full projection for every (WACC, growth) pair with all
// other assumptions held at base. Cells are computed concurrently and never
// interpolated; a failed cell records its error without aborting the
// others. The returned error is only set when ctx is cancelled.
func (r *Runner) Sensitivity(ctx context.Context, s *financial.Statement, base dcf.Assumptions, grid Grid) (*Matrix, error) {
	m := &Matrix{
		WACC:   append([]float64(nil), grid.WACC...),
		Growth: append([]float64(nil), grid.Growth...),
		Cells:  make([][]Cell, len(grid.WACC)),
	}
	for i := range m.Cells {
		m.Cells[i] = make([]Cell, len(grid.Growth))
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i, wacc := range m.WACC {
		for j, growth := range m.Growth {
			i, j, wacc, growth := i, j, wacc, growth
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				a := base.With(dcf.Assumptions{WACC: dcf.Float(wacc), RevenueGrowthRate: dcf.Float(growth)})
				res, err := r.project(KindSensitivity, s, a)
				cell := Cell{WACC: wacc, Growth: growth}
				if res != nil {
					cell.EnterpriseValue = dcf.Float(res.EnterpriseValue)
					cell.FairValuePerShare = res.FairValuePerShare
				}
				if err != nil {
					cell.Err = err
					cell.Error = err.Error()
					cell.ErrorCode = dcf.ErrorCode(err)
				}
				m.Cells[i][j] = cell
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if failed := m.Failed(); failed > 0 {
		r.logger.Warn("sensitivity cells failed",
			zap.String("op", "valuation.Runner.Sensitivity"),
			zap.Int("failed", failed),
			zap.Int("cells", len(m.WACC)*len(m.Growth)),
		)
	}
	return m, nil
}
