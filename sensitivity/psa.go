// ceam/sensitivity/psa.go
package sensitivity

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/htakit/ceam/core"
	"github.com/htakit/ceam/stats"
)

// DefaultMaxRedraws bounds rejection sampling: a draw that lands outside its
// parameter's domain is redrawn, not silently clipped, and an iteration that
// cannot produce an in-domain draw within this many attempts is recorded as
// skipped.
const DefaultMaxRedraws = 100

// PSAOptions configures a probabilistic sensitivity analysis.
type PSAOptions struct {
	Iterations int
	Seed       int64

	// Distributions maps parameter names to their declared uncertainty.
	Distributions map[string]stats.Distribution

	// Workers sets parallel fan-out; <= 1 runs sequentially. Parallel and
	// sequential execution produce bit-identical results because every
	// iteration draws from its own substream of (Seed, index).
	Workers int

	// CEACThresholds is the willingness-to-pay grid for the acceptability
	// curve. Empty means DefaultCEACGrid().
	CEACThresholds []float64

	MaxRedraws int // 0 means DefaultMaxRedraws

	// KeepParams retains each iteration's sampled parameter values, which
	// EVPPI needs. Off by default to keep large runs lean.
	KeepParams bool
}

// PSAIteration is one Monte Carlo iteration's record. Skipped iterations
// (no in-domain draw, or a sampled ParameterSet that fails validation) carry
// the reason; they stay in the slice so indices always match substreams.
type PSAIteration struct {
	Index  int
	Params map[string]float64 // only when KeepParams

	InterventionCost float64
	InterventionQALY float64
	ComparatorCost   float64
	ComparatorQALY   float64

	DeltaCost   float64
	DeltaQALY   float64
	ICER        float64
	ICERDefined bool
	NMB         float64

	Skipped bool
	Reason  string
}

// CEACPoint is one point of the cost-effectiveness acceptability curve.
type CEACPoint struct {
	Threshold   float64
	Probability float64
}

// PSAResult aggregates a PSA batch.
type PSAResult struct {
	RunID      string
	Seed       int64
	Iterations []PSAIteration
	Skipped    int

	DeltaCost        stats.Summary
	DeltaQALY        stats.Summary
	InterventionCost stats.Summary
	InterventionQALY stats.Summary
	ComparatorCost   stats.Summary
	ComparatorQALY   stats.Summary

	// ICERSummary covers only iterations with a defined ICER.
	ICERSummary stats.Summary

	CEAC []CEACPoint
}

// DefaultCEACGrid spans 0 to 100,000 per QALY in 2,000 steps.
func DefaultCEACGrid() []float64 {
	grid := make([]float64, 0, 51)
	for wtp := 0.0; wtp <= 100000; wtp += 2000 {
		grid = append(grid, wtp)
	}
	return grid
}

// RunPSA draws opts.Iterations parameter vectors from the declared
// distributions, reruns the simulator+ICER pipeline per draw, and aggregates
// the results into cost-effectiveness-plane samples, percentile summaries
// and a CEAC.
//
// Reproducibility contract: two runs with the same seed, iteration count and
// distributions produce bit-identical iteration records, regardless of
// Workers. Iteration i's draws come exclusively from substream (Seed, i).
func (p *Pipeline) RunPSA(ctx context.Context, base *core.ParameterSet, opts PSAOptions) (*PSAResult, error) {
	if opts.Iterations <= 0 {
		return nil, core.Configurationf("psa: iteration count %d must be positive", opts.Iterations)
	}
	if len(opts.Distributions) == 0 {
		return nil, core.Configurationf("psa: no parameter distributions declared")
	}
	for name, d := range opts.Distributions {
		if d == nil {
			return nil, core.Configurationf("psa: nil distribution for %s", name)
		}
		if err := d.Validate(); err != nil {
			return nil, core.Configurationf("psa: %s: %v", name, err)
		}
	}
	if err := base.Validate(); err != nil {
		return nil, err
	}
	// Unknown parameter names are a validation error for the whole batch.
	for name := range opts.Distributions {
		if _, err := base.Get(name); err != nil {
			return nil, err
		}
	}
	if _, _, err := p.arms(base); err != nil {
		return nil, err
	}

	maxRedraws := opts.MaxRedraws
	if maxRedraws <= 0 {
		maxRedraws = DefaultMaxRedraws
	}
	// Draw order must be deterministic, so iterate names sorted.
	names := make([]string, 0, len(opts.Distributions))
	for name := range opts.Distributions {
		names = append(names, name)
	}
	sort.Strings(names)

	iterations := make([]PSAIteration, opts.Iterations)
	runIndexed(ctx, opts.Iterations, opts.Workers, func(i int) {
		iterations[i] = p.psaIteration(base, opts, names, maxRedraws, i)
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &PSAResult{
		RunID:      uuid.NewString(),
		Seed:       opts.Seed,
		Iterations: iterations,
	}
	res.aggregate(opts.CEACThresholds)
	slog.Debug("psa complete", "run_id", res.RunID, "iterations", opts.Iterations, "skipped", res.Skipped)
	return res, nil
}

func (p *Pipeline) psaIteration(base *core.ParameterSet, opts PSAOptions, names []string, maxRedraws, index int) PSAIteration {
	it := PSAIteration{Index: index}
	rng := stats.NewSubstream(opts.Seed, index)
	ps := base.Clone()
	params := make(map[string]float64, len(names))

	for _, name := range names {
		dist := opts.Distributions[name]
		ok := false
		for attempt := 0; attempt < maxRedraws; attempt++ {
			v := dist.Sample(rng)
			if err := ps.Set(name, v); err == nil {
				params[name] = v
				ok = true
				break
			}
		}
		if !ok {
			it.Skipped = true
			it.Reason = "no in-domain draw for " + name
			return it
		}
	}
	if opts.KeepParams {
		it.Params = params
	}

	run, err := p.Run(ps)
	if err != nil {
		it.Skipped = true
		it.Reason = err.Error()
		return it
	}
	it.InterventionCost = run.Intervention.TotalCost
	it.InterventionQALY = run.Intervention.TotalQALYs
	it.ComparatorCost = run.Comparator.TotalCost
	it.ComparatorQALY = run.Comparator.TotalQALYs
	it.DeltaCost = run.ICER.DeltaCost
	it.DeltaQALY = run.ICER.DeltaQALY
	it.ICER = run.ICER.ICER
	it.ICERDefined = run.ICER.ICERDefined
	it.NMB = run.ICER.NMB
	return it
}

// aggregate fills summaries and the CEAC from the iteration records.
func (r *PSAResult) aggregate(thresholds []float64) {
	if len(thresholds) == 0 {
		thresholds = DefaultCEACGrid()
	}
	var dc, dq, ic, iq, cc, cq, icers []float64
	for _, it := range r.Iterations {
		if it.Skipped {
			r.Skipped++
			continue
		}
		dc = append(dc, it.DeltaCost)
		dq = append(dq, it.DeltaQALY)
		ic = append(ic, it.InterventionCost)
		iq = append(iq, it.InterventionQALY)
		cc = append(cc, it.ComparatorCost)
		cq = append(cq, it.ComparatorQALY)
		if it.ICERDefined {
			icers = append(icers, it.ICER)
		}
	}
	r.DeltaCost = stats.Summarize(dc)
	r.DeltaQALY = stats.Summarize(dq)
	r.InterventionCost = stats.Summarize(ic)
	r.InterventionQALY = stats.Summarize(iq)
	r.ComparatorCost = stats.Summarize(cc)
	r.ComparatorQALY = stats.Summarize(cq)
	r.ICERSummary = stats.Summarize(icers)

	// Decision rule per threshold is NMB >= 0, which handles dominance and
	// undefined ICERs uniformly: a dominant draw has positive NMB at any
	// threshold, a dominated one never qualifies.
	r.CEAC = make([]CEACPoint, 0, len(thresholds))
	usable := len(r.Iterations) - r.Skipped
	for _, wtp := range thresholds {
		count := 0
		for _, it := range r.Iterations {
			if it.Skipped {
				continue
			}
			if it.DeltaQALY*wtp-it.DeltaCost >= 0 {
				count++
			}
		}
		prob := 0.0
		if usable > 0 {
			prob = float64(count) / float64(usable)
		}
		r.CEAC = append(r.CEAC, CEACPoint{Threshold: wtp, Probability: prob})
	}
}

// NMBAt recomputes one iteration's net monetary benefit at an arbitrary
// threshold. NaN for skipped iterations.
func (it *PSAIteration) NMBAt(threshold float64) float64 {
	if it.Skipped {
		return math.NaN()
	}
	return it.DeltaQALY*threshold - it.DeltaCost
}
