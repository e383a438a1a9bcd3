// ceam/core/icer.go
package core

import "math"

// QALYEpsilon bounds the incremental-QALY denominator: below it the ICER is
// reported as undefined rather than an arbitrarily large ratio.
const QALYEpsilon = 1e-9

// Dominance classifies where the intervention sits relative to its
// comparator on the cost-effectiveness plane.
type Dominance string

const (
	// Dominant: cheaper (or equal) and more (or equally) effective.
	Dominant Dominance = "dominant"
	// Dominated: costlier (or equal) and less (or equally) effective.
	Dominated Dominance = "dominated"
	// TradeOff: one axis better, the other worse; the ICER decides.
	TradeOff Dominance = "trade-off"
	// NoDifference: both increments within epsilon of zero.
	NoDifference Dominance = "undefined"
)

// Conclusion is the verdict against the willingness-to-pay threshold.
type Conclusion string

const (
	CostEffective    Conclusion = "cost-effective"
	NotCostEffective Conclusion = "not cost-effective"
	Undefined        Conclusion = "undefined"
)

// ICERResult combines two arms' simulation outputs into incremental metrics.
// ICER/ICUR are only meaningful when the corresponding Defined flag is set.
type ICERResult struct {
	Intervention string
	Comparator   string

	DeltaCost float64
	DeltaQALY float64
	DeltaLY   float64

	ICER        float64
	ICERDefined bool

	// ICUR is the incremental cost per life-year.
	ICUR        float64
	ICURDefined bool

	Dominance Dominance

	// Quadrant on the cost-effectiveness plane: NE (costlier, more
	// effective), SE (cheaper, more effective), NW (costlier, less
	// effective), SW (cheaper, less effective).
	Quadrant string

	Threshold  float64
	NMB        float64 // net monetary benefit at Threshold
	Conclusion Conclusion
}

// ComputeICER derives incremental metrics and a cost-effectiveness verdict
// for an intervention against a comparator at a caller-supplied threshold
// (cost per QALY; it varies by jurisdiction and is never hardcoded).
func ComputeICER(intervention, comparator *SimulationResult, threshold float64) *ICERResult {
	r := &ICERResult{
		Intervention: intervention.Arm,
		Comparator:   comparator.Arm,
		DeltaCost:    intervention.TotalCost - comparator.TotalCost,
		DeltaQALY:    intervention.TotalQALYs - comparator.TotalQALYs,
		DeltaLY:      intervention.LifeYears - comparator.LifeYears,
		Threshold:    threshold,
	}
	r.NMB = r.DeltaQALY*threshold - r.DeltaCost

	if r.DeltaCost >= 0 {
		if r.DeltaQALY >= 0 {
			r.Quadrant = "NE"
		} else {
			r.Quadrant = "NW"
		}
	} else {
		if r.DeltaQALY >= 0 {
			r.Quadrant = "SE"
		} else {
			r.Quadrant = "SW"
		}
	}

	noCostDiff := math.Abs(r.DeltaCost) <= QALYEpsilon
	noQALYDiff := math.Abs(r.DeltaQALY) <= QALYEpsilon
	switch {
	case noCostDiff && noQALYDiff:
		r.Dominance = NoDifference
	case r.DeltaCost <= 0 && r.DeltaQALY >= 0:
		r.Dominance = Dominant
	case r.DeltaCost >= 0 && r.DeltaQALY <= 0:
		r.Dominance = Dominated
	default:
		r.Dominance = TradeOff
	}

	if !noQALYDiff {
		r.ICER = r.DeltaCost / r.DeltaQALY
		r.ICERDefined = true
	}
	if math.Abs(r.DeltaLY) > QALYEpsilon {
		r.ICUR = r.DeltaCost / r.DeltaLY
		r.ICURDefined = true
	}

	switch {
	case r.Dominance == Dominant:
		r.Conclusion = CostEffective
	case r.Dominance == Dominated:
		r.Conclusion = NotCostEffective
	case r.ICERDefined && r.ICER <= threshold:
		r.Conclusion = CostEffective
	case r.ICERDefined:
		r.Conclusion = NotCostEffective
	default:
		r.Conclusion = Undefined
	}
	return r
}
