package sensitivity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/htakit/ceam/core"
)

// baseParams is the shared two-arm fixture: drugA slows progression at a
// price premium over drugB.
func baseParams(t *testing.T) *core.ParameterSet {
	t.Helper()
	mkMatrix := func(sToP float64) *core.TransitionMatrix {
		m := core.NewTransitionMatrix([]string{"Stable", "Progression", "Death"})
		m.P[0][1] = sToP
		m.P[0][2] = 0.02
		m.P[1][2] = 0.15
		m.CompleteDiagonal()
		return m
	}
	return &core.ParameterSet{
		Name: "oncology-base",
		States: []core.HealthState{
			{Name: "Stable", Cost: 200, Utility: 0.85},
			{Name: "Progression", Cost: 4500, Utility: 0.50},
			{Name: "Death", Absorbing: true},
		},
		Arms: []core.Arm{
			{Name: "drugA", DrugCost: 3500, Transitions: mkMatrix(0.10)},
			{Name: "drugB", DrugCost: 500, Transitions: mkMatrix(0.25)},
		},
		Cycles:           10,
		CycleLength:      1,
		DiscountCosts:    0.03,
		DiscountOutcomes: 0.03,
		CohortSize:       1000,
		StartState:       "Stable",
	}
}

func basePipeline() *Pipeline {
	return &Pipeline{Intervention: "drugA", Comparator: "drugB", Threshold: 30000}
}

func baseBounds() []Bound {
	return []Bound{
		{Parameter: "state.Progression.cost", Low: 3000, High: 6000},
		{Parameter: "arm.drugA.drug_cost", Low: 2500, High: 4500},
		{Parameter: "prob.drugB.Stable.Progression", Low: 0.15, High: 0.35},
		{Parameter: "state.Stable.utility", Low: 0.75, High: 0.95},
	}
}

func TestRunTornadoRanksBySwing(t *testing.T) {
	ps := baseParams(t)
	res, err := basePipeline().RunTornado(context.Background(), ps, TornadoOptions{Bounds: baseBounds()})
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, MetricICER, res.Metric)
	require.True(t, res.Base.ICERDefined, "base case should have a defined ICER")
	require.Len(t, res.Entries, len(baseBounds()))

	for i := 1; i < len(res.Entries); i++ {
		prev, cur := res.Entries[i-1], res.Entries[i]
		if prev.Defined && cur.Defined {
			assert.GreaterOrEqual(t, prev.Swing, cur.Swing, "entries out of swing order at %d", i)
		}
		if !prev.Defined {
			assert.False(t, cur.Defined, "undefined entry sorted before a defined one")
		}
	}
	for _, e := range res.Entries {
		assert.True(t, e.Defined, "fixture bounds keep the ICER defined, %s did not", e.Parameter)
	}

	// A perturbed run must not touch the base parameter set.
	assert.Equal(t, 4500.0, ps.States[1].Cost)
	assert.Equal(t, 3500.0, ps.Arms[0].DrugCost)
}

func TestRunTornadoParallelMatchesSequential(t *testing.T) {
	seq, err := basePipeline().RunTornado(context.Background(), baseParams(t), TornadoOptions{Bounds: baseBounds()})
	require.NoError(t, err)
	par, err := basePipeline().RunTornado(context.Background(), baseParams(t), TornadoOptions{Bounds: baseBounds(), Workers: 4})
	require.NoError(t, err)

	assert.Equal(t, seq.Entries, par.Entries)
	assert.Equal(t, seq.Base, par.Base)
}

func TestRunTornadoRecordsUndefinedEntries(t *testing.T) {
	// At its high bound drugA's progression probability matches drugB's, so
	// the QALY increment is exactly zero and the ICER is undefined there.
	// The entry must be recorded and sorted after every defined one; the
	// batch itself completes.
	res, err := basePipeline().RunTornado(context.Background(), baseParams(t), TornadoOptions{
		Bounds: []Bound{
			{Parameter: "arm.drugA.drug_cost", Low: 2500, High: 4500},
			{Parameter: "prob.drugA.Stable.Progression", Low: 0.05, High: 0.25},
		},
	})
	require.NoError(t, err)
	require.Len(t, res.Entries, 2)

	last := res.Entries[1]
	assert.Equal(t, "prob.drugA.Stable.Progression", last.Parameter, "undefined entry must sort last")
	assert.False(t, last.Defined)
	assert.True(t, last.LowDefined)
	assert.False(t, last.HighDefined, "identical arms leave the high-bound ICER undefined")
	assert.True(t, res.Entries[0].Defined)
}

func TestRunTornadoNMBAlwaysDefined(t *testing.T) {
	res, err := basePipeline().RunTornado(context.Background(), baseParams(t), TornadoOptions{
		Metric: MetricNMB,
		Bounds: baseBounds(),
	})
	require.NoError(t, err)
	for _, e := range res.Entries {
		assert.True(t, e.Defined, "NMB entry for %s undefined", e.Parameter)
	}
}

func TestRunTornadoRejections(t *testing.T) {
	pipe := basePipeline()
	ctx := context.Background()

	_, err := pipe.RunTornado(ctx, baseParams(t), TornadoOptions{})
	assert.Error(t, err, "no bounds")

	_, err = pipe.RunTornado(ctx, baseParams(t), TornadoOptions{
		Metric: "acer",
		Bounds: baseBounds(),
	})
	assert.Error(t, err, "unsupported metric")

	_, err = pipe.RunTornado(ctx, baseParams(t), TornadoOptions{
		Bounds: []Bound{{Parameter: "state.Cured.cost", Low: 1, High: 2}},
	})
	assert.Error(t, err, "unknown parameter must abort the analysis")

	_, err = pipe.RunTornado(ctx, baseParams(t), TornadoOptions{
		Bounds: []Bound{{Parameter: "state.Stable.utility", Low: -0.5, High: 0.9}},
	})
	assert.Error(t, err, "out-of-domain bound must abort the analysis")
}

func TestRunSweepInputOrder(t *testing.T) {
	values := []float64{6000, 3000, 4500}
	res, err := basePipeline().RunSweep(context.Background(), baseParams(t), "state.Progression.cost", values)
	require.NoError(t, err)

	require.Len(t, res.Points, len(values))
	for i, pt := range res.Points {
		assert.Equal(t, values[i], pt.Value, "sweep points must keep input order")
		assert.True(t, pt.ICER.ICERDefined)
	}
}

func TestRunSweepRejections(t *testing.T) {
	pipe := basePipeline()
	_, err := pipe.RunSweep(context.Background(), baseParams(t), "state.Progression.cost", nil)
	assert.Error(t, err, "empty value list")

	_, err = pipe.RunSweep(context.Background(), baseParams(t), "bogus", []float64{1})
	assert.Error(t, err, "unknown parameter")
}

func TestPipelineArmResolution(t *testing.T) {
	ps := baseParams(t)

	res, err := (&Pipeline{Threshold: 30000}).Run(ps)
	require.NoError(t, err)
	assert.Equal(t, "drugA", res.Intervention.Arm, "defaults to the first two arms")
	assert.Equal(t, "drugB", res.Comparator.Arm)

	_, err = (&Pipeline{Intervention: "drugC", Comparator: "drugB"}).Run(ps)
	assert.Error(t, err)
}
