// ceam/sensitivity/pipeline.go

// Package sensitivity quantifies how sensitive a cost-effectiveness
// conclusion is to uncertainty in its inputs: one-way deterministic (tornado)
// analysis, parameter sweeps, probabilistic sensitivity analysis (PSA) and
// value-of-information metrics derived from PSA samples.
//
// Every analysis re-invokes the simulator+ICER pipeline on cloned
// ParameterSets; nothing here mutates the caller's inputs, and all
// randomness flows from explicit seeds.
package sensitivity

import (
	"github.com/htakit/ceam/core"
)

// Pipeline binds the pieces every analysis re-runs: a Simulator
// implementation (the cohort engine unless an alternate is injected), the
// two arms under comparison, and the willingness-to-pay threshold.
type Pipeline struct {
	Sim core.Simulator

	// Intervention and Comparator name the arms to compare. When empty, the
	// first two arms of the ParameterSet are used in order.
	Intervention string
	Comparator   string

	Threshold float64
}

// PairResult is one full simulate-both-arms-and-compare run.
type PairResult struct {
	Intervention *core.SimulationResult
	Comparator   *core.SimulationResult
	ICER         *core.ICERResult
}

func (p *Pipeline) simulator() core.Simulator {
	if p.Sim != nil {
		return p.Sim
	}
	return &core.CohortSimulator{}
}

// arms resolves the intervention and comparator arms on ps.
func (p *Pipeline) arms(ps *core.ParameterSet) (intervention, comparator *core.Arm, err error) {
	if p.Intervention == "" || p.Comparator == "" {
		if len(ps.Arms) < 2 {
			return nil, nil, core.Configurationf("need two arms to compare, have %d", len(ps.Arms))
		}
		return &ps.Arms[0], &ps.Arms[1], nil
	}
	intervention = ps.Arm(p.Intervention)
	if intervention == nil {
		return nil, nil, core.Configurationf("unknown intervention arm %q", p.Intervention)
	}
	comparator = ps.Arm(p.Comparator)
	if comparator == nil {
		return nil, nil, core.Configurationf("unknown comparator arm %q", p.Comparator)
	}
	return intervention, comparator, nil
}

// Run simulates both arms under ps and computes the ICER at the pipeline
// threshold.
func (p *Pipeline) Run(ps *core.ParameterSet) (*PairResult, error) {
	intervention, comparator, err := p.arms(ps)
	if err != nil {
		return nil, err
	}
	sim := p.simulator()
	ir, err := sim.Simulate(intervention, ps)
	if err != nil {
		return nil, err
	}
	cr, err := sim.Simulate(comparator, ps)
	if err != nil {
		return nil, err
	}
	return &PairResult{
		Intervention: ir,
		Comparator:   cr,
		ICER:         core.ComputeICER(ir, cr, p.Threshold),
	}, nil
}
