// ceam/core/simulate.go
package core

import "math"

// CycleTrace is the ordered sequence of occupancy vectors, one per cycle,
// starting with the initial distribution at index 0. Entries are cohort
// fractions and each vector sums to 1 within ProbTolerance.
type CycleTrace [][]float64

// CycleResult captures one cycle's contribution for auditing. Values are per
// patient (occupancy fractions), before cohort scaling.
type CycleResult struct {
	Cycle          int
	Occupancy      []float64
	Cost           float64 // undiscounted, half-cycle weight applied
	QALY           float64
	LifeYears      float64
	DiscountedCost float64
	DiscountedQALY float64
}

// SimulationResult is the outcome of one arm under one ParameterSet.
// Headline totals are per patient; CohortCost scales the discounted cost to
// the configured cohort size.
type SimulationResult struct {
	Arm string

	TotalCost  float64 // discounted
	TotalQALYs float64 // discounted
	LifeYears  float64 // undiscounted time in non-absorbing states

	UndiscountedCost  float64
	UndiscountedQALYs float64

	CohortCost float64

	Trace  CycleTrace
	Cycles []CycleResult
}

// Simulator runs one cohort trace for one arm. The production implementation
// is CohortSimulator; an external cross-validation engine can be injected
// behind the same contract so the sensitivity analyzers stay agnostic to
// which engine produced a result.
type Simulator interface {
	Simulate(arm *Arm, ps *ParameterSet) (*SimulationResult, error)
}

// CohortSimulator is the deterministic cohort-trace Markov engine.
type CohortSimulator struct {
	// KeepTrace retains the full CycleTrace and per-cycle results on the
	// SimulationResult. Batch analyses turn this off to save allocation.
	KeepTrace bool

	// StopWhenAbsorbed allows ending a run early once the process has
	// reached an exact fixed point contributing zero cost, QALYs and
	// life-years. The early exit never changes numerical results versus
	// running the full horizon; cycles that would have contributed zero are
	// simply skipped.
	StopWhenAbsorbed bool
}

// Simulate runs the cohort through arm's transition matrix for ps.Cycles
// cycles and accumulates discounted costs and outcomes. The arm's matrix and
// the parameter set are validated before any work; occupancy conservation is
// re-checked after every cycle and drift beyond tolerance is a fatal
// validation error (malformed matrix), never silently renormalized.
func (cs *CohortSimulator) Simulate(arm *Arm, ps *ParameterSet) (*SimulationResult, error) {
	if arm == nil {
		return nil, Configurationf("nil arm")
	}
	if err := ps.Validate(); err != nil {
		return nil, err
	}
	if arm.Transitions == nil {
		return nil, Validationf("arm."+arm.Name+".transitions", "missing transition matrix")
	}
	if err := arm.Transitions.Validate(ps.States); err != nil {
		return nil, err
	}

	n := len(ps.States)
	occ := ps.initialOccupancy()

	res := &SimulationResult{Arm: arm.Name}
	if cs.KeepTrace {
		res.Trace = make(CycleTrace, 0, ps.Cycles+1)
		res.Trace = append(res.Trace, append([]float64(nil), occ...))
		res.Cycles = make([]CycleResult, 0, ps.Cycles)
	}

	for t := 1; t <= ps.Cycles; t++ {
		next := arm.Transitions.Apply(occ)

		sum := 0.0
		for _, w := range next {
			sum += w
		}
		if math.Abs(sum-1) > ProbTolerance {
			return nil, Validationf("arm."+arm.Name+".transitions",
				"occupancy drifted to %.9f at cycle %d", sum, t)
		}

		// Incident inflow per state, for one-time entry costs.
		var inflow []float64
		for i := range ps.States {
			if ps.States[i].OneTimeCost > 0 {
				inflow = make([]float64, n)
				break
			}
		}
		if inflow != nil {
			for i, w := range occ {
				if w == 0 {
					continue
				}
				for j, p := range arm.Transitions.P[i] {
					if i != j {
						inflow[j] += w * p
					}
				}
			}
		}

		cost, qaly, alive := 0.0, 0.0, 0.0
		for i, s := range ps.States {
			w := next[i]
			cost += w * s.Cost
			if arm.EventCosts != nil {
				cost += w * arm.EventCosts[s.Name]
			}
			if inflow != nil {
				cost += inflow[i] * s.OneTimeCost
			}
			qaly += w * s.Utility
			if !s.Absorbing {
				alive += w
			}
		}
		cost += alive * arm.DrugCost
		qaly *= ps.CycleLength
		ly := alive * ps.CycleLength

		// Half-cycle correction: first and last cycle count half.
		if ps.HalfCycleCorrection && (t == 1 || t == ps.Cycles) {
			cost *= 0.5
			qaly *= 0.5
			ly *= 0.5
		}

		years := float64(t) * ps.CycleLength
		dfCost := 1 / math.Pow(1+ps.DiscountCosts, years)
		dfOutcome := 1 / math.Pow(1+ps.DiscountOutcomes, years)

		res.TotalCost += cost * dfCost
		res.TotalQALYs += qaly * dfOutcome
		res.LifeYears += ly
		res.UndiscountedCost += cost
		res.UndiscountedQALYs += qaly

		if cs.KeepTrace {
			res.Trace = append(res.Trace, append([]float64(nil), next...))
			res.Cycles = append(res.Cycles, CycleResult{
				Cycle:          t,
				Occupancy:      append([]float64(nil), next...),
				Cost:           cost,
				QALY:           qaly,
				LifeYears:      ly,
				DiscountedCost: cost * dfCost,
				DiscountedQALY: qaly * dfOutcome,
			})
		}

		if cs.StopWhenAbsorbed && cost == 0 && qaly == 0 && ly == 0 && atFixedPoint(occ, next) {
			break
		}
		occ = next
	}

	res.CohortCost = res.TotalCost * float64(ps.CohortSize)
	return res, nil
}

// atFixedPoint reports whether the occupancy vector stopped moving exactly.
// Combined with a zero cycle contribution this guarantees every remaining
// cycle would also contribute exactly zero.
func atFixedPoint(prev, next []float64) bool {
	for i := range prev {
		if prev[i] != next[i] {
			return false
		}
	}
	return true
}

// Simulate runs the default cohort engine (trace retained) for one arm.
func Simulate(arm *Arm, ps *ParameterSet) (*SimulationResult, error) {
	cs := &CohortSimulator{KeepTrace: true}
	return cs.Simulate(arm, ps)
}
