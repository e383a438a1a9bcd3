// ceam/stats/summary.go
package stats

import (
	"math"
	"sort"
)

// Summary is the usual reporting digest of a sample: mean, spread, and the
// 2.5/50/97.5 percentiles used for 95% credible intervals.
type Summary struct {
	N      int
	Mean   float64
	StdDev float64
	P2_5   float64
	Median float64
	P97_5  float64
}

// Summarize computes a Summary over the given sample. Empty input yields the
// zero Summary.
func Summarize(sample []float64) Summary {
	n := len(sample)
	if n == 0 {
		return Summary{}
	}
	sorted := append([]float64(nil), sample...)
	sort.Float64s(sorted)
	return Summary{
		N:      n,
		Mean:   Mean(sample),
		StdDev: StdDev(sample),
		P2_5:   Percentile(sorted, 0.025),
		Median: Percentile(sorted, 0.5),
		P97_5:  Percentile(sorted, 0.975),
	}
}

// Mean returns the arithmetic mean; 0 for an empty sample.
func Mean(sample []float64) float64 {
	if len(sample) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range sample {
		sum += v
	}
	return sum / float64(len(sample))
}

// StdDev returns the sample standard deviation (n-1 denominator); 0 for
// samples shorter than 2.
func StdDev(sample []float64) float64 {
	n := len(sample)
	if n < 2 {
		return 0
	}
	m := Mean(sample)
	ss := 0.0
	for _, v := range sample {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-1))
}

// Percentile interpolates the p-th quantile (0 <= p <= 1) of an already
// sorted sample, with linear interpolation between order statistics.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 || p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}
	pos := p * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
