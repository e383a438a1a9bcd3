// ceam/sensitivity/tornado.go
package sensitivity

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/htakit/ceam/core"
)

// Metric selects what a tornado entry measures.
type Metric string

const (
	// MetricICER ranks parameters by ICER swing. Bounds that make the ICER
	// undefined are recorded as undefined entries.
	MetricICER Metric = "icer"
	// MetricNMB ranks by net-monetary-benefit swing at the pipeline
	// threshold. NMB is always defined, so no entry can be undefined.
	MetricNMB Metric = "nmb"
)

// Bound is one (parameter, low, high) triple to perturb.
type Bound struct {
	Parameter string
	Low       float64
	High      float64
}

// TornadoOptions configures a tornado run.
type TornadoOptions struct {
	Metric  Metric  // defaults to MetricICER
	Bounds  []Bound // one entry per parameter, perturbed independently
	Workers int     // parallel bound evaluations; <= 1 means sequential
}

// TornadoEntry is one parameter's contribution to the diagram.
type TornadoEntry struct {
	Parameter string
	Low       float64
	High      float64

	LowValue    float64
	LowDefined  bool
	HighValue   float64
	HighDefined bool

	// Swing is |HighValue - LowValue|, meaningful only when Defined.
	Swing   float64
	Defined bool
}

// TornadoResult is the ranked tornado diagram. Entries are sorted by
// descending swing with ties broken by parameter name; undefined entries
// sort after all defined ones. This ordering, not the input order, is the
// canonical ranking.
type TornadoResult struct {
	RunID   string
	Metric  Metric
	Base    *core.ICERResult
	Entries []TornadoEntry
}

// RunTornado performs one-way deterministic sensitivity analysis: each bound
// parameter is independently set to its low and high value on a clone of
// base (all other parameters at base-case values), the simulator+ICER
// pipeline re-runs, and the metric swing is recorded.
//
// A base ParameterSet that fails validation, or a bound that names an
// unknown parameter or an out-of-domain value, aborts the whole analysis.
// Bounds that merely produce an undefined ICER are recorded and the batch
// completes.
func (p *Pipeline) RunTornado(ctx context.Context, base *core.ParameterSet, opts TornadoOptions) (*TornadoResult, error) {
	if len(opts.Bounds) == 0 {
		return nil, core.Configurationf("tornado: no parameter bounds given")
	}
	metric := opts.Metric
	if metric == "" {
		metric = MetricICER
	}
	if metric != MetricICER && metric != MetricNMB {
		return nil, core.Configurationf("tornado: unsupported metric %q", metric)
	}
	if err := base.Validate(); err != nil {
		return nil, err
	}
	// Reject malformed bounds before burning any simulation time.
	for _, b := range opts.Bounds {
		probe := base.Clone()
		if err := probe.Set(b.Parameter, b.Low); err != nil {
			return nil, err
		}
		probe = base.Clone()
		if err := probe.Set(b.Parameter, b.High); err != nil {
			return nil, err
		}
	}

	baseRun, err := p.Run(base)
	if err != nil {
		return nil, err
	}

	entries := make([]TornadoEntry, len(opts.Bounds))
	var firstErr error
	var errOnce sync.Once

	eval := func(i int) {
		b := opts.Bounds[i]
		e := TornadoEntry{Parameter: b.Parameter, Low: b.Low, High: b.High}
		lowVal, lowOK, err := p.metricAt(base, b.Parameter, b.Low, metric)
		if err != nil {
			errOnce.Do(func() { firstErr = err })
			return
		}
		highVal, highOK, err := p.metricAt(base, b.Parameter, b.High, metric)
		if err != nil {
			errOnce.Do(func() { firstErr = err })
			return
		}
		e.LowValue, e.LowDefined = lowVal, lowOK
		e.HighValue, e.HighDefined = highVal, highOK
		if lowOK && highOK {
			e.Defined = true
			e.Swing = abs(highVal - lowVal)
		}
		entries[i] = e
	}

	runIndexed(ctx, len(opts.Bounds), opts.Workers, eval)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if firstErr != nil {
		return nil, firstErr
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Defined != entries[j].Defined {
			return entries[i].Defined
		}
		if entries[i].Swing != entries[j].Swing {
			return entries[i].Swing > entries[j].Swing
		}
		return entries[i].Parameter < entries[j].Parameter
	})

	res := &TornadoResult{
		RunID:   uuid.NewString(),
		Metric:  metric,
		Base:    baseRun.ICER,
		Entries: entries,
	}
	slog.Debug("tornado complete", "run_id", res.RunID, "parameters", len(entries), "metric", metric)
	return res, nil
}

// metricAt clones base, overrides one parameter, reruns the pipeline and
// extracts the chosen metric.
func (p *Pipeline) metricAt(base *core.ParameterSet, param string, value float64, metric Metric) (float64, bool, error) {
	ps := base.Clone()
	if err := ps.Set(param, value); err != nil {
		return 0, false, err
	}
	run, err := p.Run(ps)
	if err != nil {
		return 0, false, err
	}
	switch metric {
	case MetricNMB:
		return run.ICER.NMB, true, nil
	default:
		return run.ICER.ICER, run.ICER.ICERDefined, nil
	}
}

// runIndexed fans tasks 0..n-1 over a bounded worker pool, or runs them
// inline when workers <= 1. Each task owns its own result slot, so no locks
// are needed and parallel execution is order-insensitive.
func runIndexed(ctx context.Context, n, workers int, task func(int)) {
	if workers <= 1 {
		for i := 0; i < n; i++ {
			if ctx.Err() != nil {
				return
			}
			task(i)
		}
		return
	}
	if workers > n {
		workers = n
	}
	indexes := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				task(i)
			}
		}()
	}
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			break
		}
		indexes <- i
	}
	close(indexes)
	wg.Wait()
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
