package sensitivity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/htakit/ceam/stats"
)

func baseDistributions() map[string]stats.Distribution {
	return map[string]stats.Distribution{
		"state.Progression.cost":        stats.Gamma{Shape: 4, Scale: 1125},
		"state.Stable.utility":          stats.Beta{Alpha: 85, BetaP: 15},
		"prob.drugA.Stable.Progression": stats.Beta{Alpha: 10, BetaP: 90},
	}
}

func TestRunPSAReproducible(t *testing.T) {
	opts := PSAOptions{Iterations: 200, Seed: 42, Distributions: baseDistributions()}

	a, err := basePipeline().RunPSA(context.Background(), baseParams(t), opts)
	require.NoError(t, err)
	b, err := basePipeline().RunPSA(context.Background(), baseParams(t), opts)
	require.NoError(t, err)

	assert.Equal(t, a.Iterations, b.Iterations, "same seed must give bit-identical iterations")
	assert.Equal(t, a.CEAC, b.CEAC)
	assert.Equal(t, a.DeltaCost, b.DeltaCost)
}

func TestRunPSAParallelMatchesSequential(t *testing.T) {
	seq, err := basePipeline().RunPSA(context.Background(), baseParams(t), PSAOptions{
		Iterations: 200, Seed: 42, Distributions: baseDistributions(),
	})
	require.NoError(t, err)
	par, err := basePipeline().RunPSA(context.Background(), baseParams(t), PSAOptions{
		Iterations: 200, Seed: 42, Distributions: baseDistributions(), Workers: 8,
	})
	require.NoError(t, err)

	assert.Equal(t, seq.Iterations, par.Iterations, "worker count must not change results")
}

func TestRunPSASeedChangesDraws(t *testing.T) {
	a, err := basePipeline().RunPSA(context.Background(), baseParams(t), PSAOptions{
		Iterations: 50, Seed: 1, Distributions: baseDistributions(),
	})
	require.NoError(t, err)
	b, err := basePipeline().RunPSA(context.Background(), baseParams(t), PSAOptions{
		Iterations: 50, Seed: 2, Distributions: baseDistributions(),
	})
	require.NoError(t, err)

	assert.NotEqual(t, a.Iterations, b.Iterations)
}

func TestRunPSAKeepParams(t *testing.T) {
	res, err := basePipeline().RunPSA(context.Background(), baseParams(t), PSAOptions{
		Iterations: 50, Seed: 7, Distributions: baseDistributions(), KeepParams: true,
	})
	require.NoError(t, err)

	for _, it := range res.Iterations {
		if it.Skipped {
			continue
		}
		require.Len(t, it.Params, len(baseDistributions()))
		assert.InDelta(t, 0.5, it.Params["state.Stable.utility"], 0.5, "sampled utility must be in domain")
		assert.Greater(t, it.Params["state.Progression.cost"], 0.0)
	}
}

func TestRunPSACEAC(t *testing.T) {
	res, err := basePipeline().RunPSA(context.Background(), baseParams(t), PSAOptions{
		Iterations: 300, Seed: 11, Distributions: baseDistributions(),
	})
	require.NoError(t, err)

	require.Len(t, res.CEAC, len(DefaultCEACGrid()))
	assert.Equal(t, 0.0, res.CEAC[0].Threshold)
	assert.Equal(t, 100000.0, res.CEAC[len(res.CEAC)-1].Threshold)
	for _, pt := range res.CEAC {
		assert.GreaterOrEqual(t, pt.Probability, 0.0)
		assert.LessOrEqual(t, pt.Probability, 1.0)
	}
	// drugA costs more, so at WTP 0 nothing is acceptable; the fixture's QALY
	// gain makes acceptance common at generous thresholds.
	assert.Less(t, res.CEAC[0].Probability, 0.5)
	last := res.CEAC[len(res.CEAC)-1].Probability
	assert.Greater(t, last, 0.5)
}

func TestRunPSASkipsUndrawableIterations(t *testing.T) {
	// A utility distribution far outside [0, 1] can never produce an
	// in-domain draw; every iteration is recorded as skipped, not dropped.
	dists := map[string]stats.Distribution{
		"state.Stable.utility": stats.Normal{Mu: -5, Sigma: 0.001},
	}
	res, err := basePipeline().RunPSA(context.Background(), baseParams(t), PSAOptions{
		Iterations: 20, Seed: 3, Distributions: dists,
	})
	require.NoError(t, err)

	assert.Equal(t, 20, res.Skipped)
	require.Len(t, res.Iterations, 20)
	for _, it := range res.Iterations {
		assert.True(t, it.Skipped)
		assert.Contains(t, it.Reason, "state.Stable.utility")
	}
	assert.Equal(t, 0, res.DeltaCost.N)
	for _, pt := range res.CEAC {
		assert.Equal(t, 0.0, pt.Probability)
	}
}

func TestRunPSARejections(t *testing.T) {
	pipe := basePipeline()
	ctx := context.Background()

	_, err := pipe.RunPSA(ctx, baseParams(t), PSAOptions{Iterations: 0, Distributions: baseDistributions()})
	assert.Error(t, err, "zero iterations")

	_, err = pipe.RunPSA(ctx, baseParams(t), PSAOptions{Iterations: 10})
	assert.Error(t, err, "no distributions")

	_, err = pipe.RunPSA(ctx, baseParams(t), PSAOptions{
		Iterations:    10,
		Distributions: map[string]stats.Distribution{"state.Cured.cost": stats.Uniform{Min: 0, Max: 1}},
	})
	assert.Error(t, err, "unknown parameter name")

	_, err = pipe.RunPSA(ctx, baseParams(t), PSAOptions{
		Iterations:    10,
		Distributions: map[string]stats.Distribution{"state.Stable.utility": stats.Beta{Alpha: -1, BetaP: 2}},
	})
	assert.Error(t, err, "invalid distribution")
}

func TestNMBAt(t *testing.T) {
	it := PSAIteration{DeltaCost: 1000, DeltaQALY: 0.1}
	assert.InDelta(t, 2000.0, it.NMBAt(30000), 1e-9)

	skipped := PSAIteration{Skipped: true}
	assert.True(t, skipped.NMBAt(30000) != skipped.NMBAt(30000), "skipped iterations yield NaN")
}
