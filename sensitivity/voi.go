// ceam/sensitivity/voi.go
package sensitivity

import (
	"math"
	"sort"

	"github.com/htakit/ceam/core"
	"github.com/htakit/ceam/stats"
)

// VOIOptions configures value-of-information analysis over PSA samples.
type VOIOptions struct {
	// Threshold is the willingness-to-pay used for the NMB decision rule.
	Threshold float64

	// PopulationSize scales per-patient values to the decision population.
	PopulationSize float64

	// DecisionHorizonYears spreads the population value over the years the
	// decision stays relevant, discounted at DiscountRate.
	DecisionHorizonYears int
	DiscountRate         float64
}

// EVPIResult is the expected value of eliminating all parameter uncertainty
// before deciding.
type EVPIResult struct {
	PerPatient float64
	Population float64
	// Horizon is the population value accumulated over the discounted
	// decision horizon.
	Horizon float64

	// OptimalStrategy is the arm with the highest expected NMB under current
	// information.
	OptimalStrategy string

	// ProbabilityOptimal is the fraction of PSA draws in which each arm has
	// the higher NMB.
	ProbabilityOptimal map[string]float64
}

// EVPPIResult is the expected value of perfect information about a single
// parameter, uncertainty in all others retained.
type EVPPIResult struct {
	Parameter       string
	PerPatient      float64
	Population      float64
	ContributionPct float64 // share of total EVPI, capped at 100
}

// ComputeEVPI derives EVPI = E[max NMB] - max E[NMB] from PSA samples.
// Intervention and comparator names label the two strategies.
func ComputeEVPI(psa *PSAResult, intervention, comparator string, opts VOIOptions) (*EVPIResult, error) {
	if psa == nil || len(psa.Iterations) == 0 {
		return nil, core.Configurationf("voi: no PSA iterations available")
	}
	if opts.PopulationSize < 0 {
		return nil, core.Configurationf("voi: negative population size %g", opts.PopulationSize)
	}
	if opts.DiscountRate < -1 {
		return nil, core.Configurationf("voi: discount rate %g below -1", opts.DiscountRate)
	}

	var sumInt, sumComp, sumMax float64
	n, intWins := 0, 0
	for _, it := range psa.Iterations {
		if it.Skipped {
			continue
		}
		nmbInt := it.InterventionQALY*opts.Threshold - it.InterventionCost
		nmbComp := it.ComparatorQALY*opts.Threshold - it.ComparatorCost
		sumInt += nmbInt
		sumComp += nmbComp
		sumMax += math.Max(nmbInt, nmbComp)
		if nmbInt >= nmbComp {
			intWins++
		}
		n++
	}
	if n == 0 {
		return nil, core.Configurationf("voi: every PSA iteration was skipped")
	}

	meanInt := sumInt / float64(n)
	meanComp := sumComp / float64(n)
	perPatient := math.Max(0, sumMax/float64(n)-math.Max(meanInt, meanComp))

	optimal := intervention
	if meanComp > meanInt {
		optimal = comparator
	}

	res := &EVPIResult{
		PerPatient:      perPatient,
		Population:      perPatient * opts.PopulationSize,
		OptimalStrategy: optimal,
		ProbabilityOptimal: map[string]float64{
			intervention: float64(intWins) / float64(n),
			comparator:   float64(n-intWins) / float64(n),
		},
	}
	res.Horizon = res.Population * horizonDiscountFactor(opts.DecisionHorizonYears, opts.DiscountRate)
	return res, nil
}

// nmbRecord is one usable PSA draw reduced to the pieces EVPPI binning needs.
type nmbRecord struct {
	nmbInt, nmbComp float64
	params          map[string]float64
}

// ComputeEVPPI estimates per-parameter EVPPI for every parameter recorded on
// the PSA iterations (RunPSA must have KeepParams set). The conditional
// expectation E[max NMB | theta] is approximated by quantile-binning the
// parameter's draws, the standard single-loop shortcut to two-level Monte
// Carlo. Results are sorted by descending contribution.
func ComputeEVPPI(psa *PSAResult, evpi *EVPIResult, opts VOIOptions) ([]EVPPIResult, error) {
	if psa == nil || evpi == nil {
		return nil, core.Configurationf("voi: EVPPI requires PSA and EVPI results")
	}

	var recs []nmbRecord
	for _, it := range psa.Iterations {
		if it.Skipped {
			continue
		}
		if it.Params == nil {
			return nil, core.Configurationf("voi: PSA run did not retain sampled parameters (KeepParams)")
		}
		recs = append(recs, nmbRecord{
			nmbInt:  it.InterventionQALY*opts.Threshold - it.InterventionCost,
			nmbComp: it.ComparatorQALY*opts.Threshold - it.ComparatorCost,
			params:  it.Params,
		})
	}
	if len(recs) == 0 {
		return nil, core.Configurationf("voi: every PSA iteration was skipped")
	}

	maxExpected := 0.0
	{
		var sumInt, sumComp float64
		for _, r := range recs {
			sumInt += r.nmbInt
			sumComp += r.nmbComp
		}
		maxExpected = math.Max(sumInt, sumComp) / float64(len(recs))
	}

	var names []string
	for name := range recs[0].params {
		names = append(names, name)
	}
	sort.Strings(names)

	nBins := len(recs) / 50
	if nBins > 20 {
		nBins = 20
	}
	if nBins < 5 {
		nBins = 5
	}

	out := make([]EVPPIResult, 0, len(names))
	for _, name := range names {
		perPatient := evppiBinned(recs, name, nBins, maxExpected)
		e := EVPPIResult{
			Parameter:  name,
			PerPatient: perPatient,
			Population: perPatient * opts.PopulationSize,
		}
		if evpi.PerPatient > 0 {
			e.ContributionPct = math.Min(100, perPatient/evpi.PerPatient*100)
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ContributionPct != out[j].ContributionPct {
			return out[i].ContributionPct > out[j].ContributionPct
		}
		return out[i].Parameter < out[j].Parameter
	})
	return out, nil
}

// evppiBinned computes E[E[max NMB | theta in bin]] - max E[NMB] over
// equal-count quantile bins of the parameter's draws.
func evppiBinned(recs []nmbRecord, name string, nBins int, maxExpected float64) float64 {
	order := make([]int, len(recs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return recs[order[a]].params[name] < recs[order[b]].params[name]
	})

	total := 0.0
	counted := 0
	binSize := (len(order) + nBins - 1) / nBins
	for start := 0; start < len(order); start += binSize {
		end := start + binSize
		if end > len(order) {
			end = len(order)
		}
		var sumInt, sumComp float64
		for _, idx := range order[start:end] {
			sumInt += recs[idx].nmbInt
			sumComp += recs[idx].nmbComp
		}
		// Perfect knowledge of theta lets the decision flip per bin.
		total += math.Max(sumInt, sumComp)
		counted += end - start
	}
	return math.Max(0, total/float64(counted)-maxExpected)
}

// horizonDiscountFactor sums annual discount factors over the decision
// horizon (year 0 undiscounted).
func horizonDiscountFactor(years int, rate float64) float64 {
	f := 0.0
	for t := 0; t < years; t++ {
		f += 1 / math.Pow(1+rate, float64(t))
	}
	return f
}

// VOISummary is a convenience bundle for reporting.
type VOISummary struct {
	EVPI  *EVPIResult
	EVPPI []EVPPIResult
	// ICERSummary carries the PSA's defined-ICER digest alongside, since VOI
	// reports typically present both.
	ICERSummary stats.Summary
}
