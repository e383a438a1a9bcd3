package sensitivity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/htakit/ceam/stats"
)

func voiPSA(t *testing.T, keepParams bool) *PSAResult {
	t.Helper()
	res, err := basePipeline().RunPSA(context.Background(), baseParams(t), PSAOptions{
		Iterations:    400,
		Seed:          42,
		Distributions: baseDistributions(),
		KeepParams:    keepParams,
	})
	require.NoError(t, err)
	return res
}

func TestComputeEVPI(t *testing.T) {
	psa := voiPSA(t, false)
	opts := VOIOptions{Threshold: 30000, PopulationSize: 10000, DecisionHorizonYears: 5}

	evpi, err := ComputeEVPI(psa, "drugA", "drugB", opts)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, evpi.PerPatient, 0.0)
	assert.InDelta(t, evpi.PerPatient*10000, evpi.Population, 1e-9)
	// Undiscounted 5-year horizon is exactly five population-years.
	assert.InDelta(t, evpi.Population*5, evpi.Horizon, 1e-6)

	sum := 0.0
	for _, p := range evpi.ProbabilityOptimal {
		assert.GreaterOrEqual(t, p, 0.0)
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.Contains(t, []string{"drugA", "drugB"}, evpi.OptimalStrategy)
	assert.Equal(t, "drugA", evpi.OptimalStrategy, "fixture favors drugA at 30000 per QALY")
}

func TestComputeEVPIZeroWhenDecisionNeverFlips(t *testing.T) {
	// Near-degenerate uncertainty: every draw picks the same winner, so
	// perfect information is worth nothing.
	res, err := basePipeline().RunPSA(context.Background(), baseParams(t), PSAOptions{
		Iterations: 100,
		Seed:       9,
		Distributions: map[string]stats.Distribution{
			"state.Progression.cost": stats.Normal{Mu: 4500, Sigma: 1},
		},
	})
	require.NoError(t, err)

	evpi, err := ComputeEVPI(res, "drugA", "drugB", VOIOptions{Threshold: 1e6})
	require.NoError(t, err)
	assert.Equal(t, 0.0, evpi.PerPatient)
	assert.Equal(t, 1.0, evpi.ProbabilityOptimal["drugA"])
}

func TestComputeEVPIDiscountedHorizon(t *testing.T) {
	psa := voiPSA(t, false)
	evpi, err := ComputeEVPI(psa, "drugA", "drugB", VOIOptions{
		Threshold:            30000,
		PopulationSize:       1000,
		DecisionHorizonYears: 3,
		DiscountRate:         0.03,
	})
	require.NoError(t, err)

	factor := 1 + 1/1.03 + 1/(1.03*1.03)
	assert.InDelta(t, evpi.Population*factor, evpi.Horizon, 1e-6)
}

func TestComputeEVPPI(t *testing.T) {
	psa := voiPSA(t, true)
	opts := VOIOptions{Threshold: 30000, PopulationSize: 10000}
	evpi, err := ComputeEVPI(psa, "drugA", "drugB", opts)
	require.NoError(t, err)

	evppi, err := ComputeEVPPI(psa, evpi, opts)
	require.NoError(t, err)
	require.Len(t, evppi, len(baseDistributions()))

	for i, e := range evppi {
		assert.GreaterOrEqual(t, e.PerPatient, 0.0)
		assert.LessOrEqual(t, e.ContributionPct, 100.0)
		assert.InDelta(t, e.PerPatient*10000, e.Population, 1e-9)
		if i > 0 {
			assert.GreaterOrEqual(t, evppi[i-1].ContributionPct, e.ContributionPct, "results must rank by contribution")
		}
	}
}

func TestEvppiBinnedHandComputed(t *testing.T) {
	// 100 draws where the parameter fully determines the intervention NMB
	// (0..99) against a flat comparator at 50. Five quantile bins give
	// conditional maxima 50, 50, 50, 69.5, 89.5; their mean minus the
	// current-information optimum (50) is 11.8.
	recs := make([]nmbRecord, 100)
	for i := range recs {
		recs[i] = nmbRecord{
			nmbInt:  float64(i),
			nmbComp: 50,
			params:  map[string]float64{"x": float64(i)},
		}
	}
	got := evppiBinned(recs, "x", 5, 50)
	assert.InDelta(t, 11.8, got, 1e-9)
}

func TestComputeEVPPIRequiresKeptParams(t *testing.T) {
	psa := voiPSA(t, false)
	opts := VOIOptions{Threshold: 30000}
	evpi, err := ComputeEVPI(psa, "drugA", "drugB", opts)
	require.NoError(t, err)

	_, err = ComputeEVPPI(psa, evpi, opts)
	assert.Error(t, err)
}

func TestComputeEVPIRejections(t *testing.T) {
	_, err := ComputeEVPI(nil, "a", "b", VOIOptions{})
	assert.Error(t, err, "nil PSA")

	_, err = ComputeEVPI(&PSAResult{}, "a", "b", VOIOptions{})
	assert.Error(t, err, "empty PSA")

	psa := &PSAResult{Iterations: []PSAIteration{{Skipped: true}}}
	_, err = ComputeEVPI(psa, "a", "b", VOIOptions{})
	assert.Error(t, err, "all iterations skipped")

	psa = &PSAResult{Iterations: []PSAIteration{{DeltaQALY: 0.1}}}
	_, err = ComputeEVPI(psa, "a", "b", VOIOptions{PopulationSize: -1})
	assert.Error(t, err, "negative population")
}
