// ceam/sensitivity/sweep.go
package sensitivity

import (
	"context"

	"github.com/htakit/ceam/core"
)

// SweepPoint is the pipeline outcome at one value of the swept parameter.
type SweepPoint struct {
	Value float64
	ICER  *core.ICERResult
}

// SweepResult is a one-way sweep of a single parameter over an explicit
// value list, in input order (sweeps are plotted, not ranked).
type SweepResult struct {
	Parameter string
	Points    []SweepPoint
}

// RunSweep varies one parameter over values, holding everything else at
// base-case, and records the full ICER result per point. Unlike tornado
// bounds there is no ranking; undefined ICERs simply appear as such on the
// recorded points.
func (p *Pipeline) RunSweep(ctx context.Context, base *core.ParameterSet, parameter string, values []float64) (*SweepResult, error) {
	if len(values) == 0 {
		return nil, core.Configurationf("sweep: no values given for %s", parameter)
	}
	if err := base.Validate(); err != nil {
		return nil, err
	}
	res := &SweepResult{Parameter: parameter, Points: make([]SweepPoint, 0, len(values))}
	for _, v := range values {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ps := base.Clone()
		if err := ps.Set(parameter, v); err != nil {
			return nil, err
		}
		run, err := p.Run(ps)
		if err != nil {
			return nil, err
		}
		res.Points = append(res.Points, SweepPoint{Value: v, ICER: run.ICER})
	}
	return res, nil
}
