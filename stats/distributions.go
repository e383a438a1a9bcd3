// ceam/stats/distributions.go
package stats

import (
	"fmt"
	"math"
	"math/rand"
)

// Distribution is a declared parameter uncertainty. Sample draws one value
// from the explicit generator; implementations never touch global RNG state.
type Distribution interface {
	Sample(r *rand.Rand) float64
	Validate() error
	Mean() float64
	String() string
}

// Normal is an unbounded Gaussian, conventional for utilities and other
// roughly symmetric parameters.
type Normal struct {
	Mu    float64
	Sigma float64
}

func (d Normal) Sample(r *rand.Rand) float64 { return d.Mu + d.Sigma*r.NormFloat64() }
func (d Normal) Mean() float64               { return d.Mu }
func (d Normal) String() string              { return fmt.Sprintf("normal(mean=%g, sd=%g)", d.Mu, d.Sigma) }

func (d Normal) Validate() error {
	if d.Sigma < 0 {
		return fmt.Errorf("normal: sd %g must be non-negative", d.Sigma)
	}
	return nil
}

// LogNormal has parameters on the log scale: exp(Normal(Mu, Sigma)).
type LogNormal struct {
	Mu    float64
	Sigma float64
}

func (d LogNormal) Sample(r *rand.Rand) float64 { return math.Exp(d.Mu + d.Sigma*r.NormFloat64()) }
func (d LogNormal) Mean() float64               { return math.Exp(d.Mu + d.Sigma*d.Sigma/2) }
func (d LogNormal) String() string {
	return fmt.Sprintf("lognormal(mu=%g, sigma=%g)", d.Mu, d.Sigma)
}

func (d LogNormal) Validate() error {
	if d.Sigma < 0 {
		return fmt.Errorf("lognormal: sigma %g must be non-negative", d.Sigma)
	}
	return nil
}

// Beta is supported on [0, 1], conventional for probabilities and utilities.
type Beta struct {
	Alpha float64
	BetaP float64
}

func (d Beta) Sample(r *rand.Rand) float64 {
	x := gammaSample(r, d.Alpha, 1)
	y := gammaSample(r, d.BetaP, 1)
	if x+y == 0 {
		return 0
	}
	return x / (x + y)
}

func (d Beta) Mean() float64  { return d.Alpha / (d.Alpha + d.BetaP) }
func (d Beta) String() string { return fmt.Sprintf("beta(alpha=%g, beta=%g)", d.Alpha, d.BetaP) }

func (d Beta) Validate() error {
	if d.Alpha <= 0 || d.BetaP <= 0 {
		return fmt.Errorf("beta: shape parameters (%g, %g) must be positive", d.Alpha, d.BetaP)
	}
	return nil
}

// Gamma is supported on (0, inf), conventional for costs.
type Gamma struct {
	Shape float64
	Scale float64
}

func (d Gamma) Sample(r *rand.Rand) float64 { return gammaSample(r, d.Shape, d.Scale) }
func (d Gamma) Mean() float64               { return d.Shape * d.Scale }
func (d Gamma) String() string              { return fmt.Sprintf("gamma(shape=%g, scale=%g)", d.Shape, d.Scale) }

func (d Gamma) Validate() error {
	if d.Shape <= 0 || d.Scale <= 0 {
		return fmt.Errorf("gamma: shape %g and scale %g must be positive", d.Shape, d.Scale)
	}
	return nil
}

// Triangular is the three-point expert-elicitation distribution on
// [Min, Max] with mode Mode.
type Triangular struct {
	Min  float64
	Mode float64
	Max  float64
}

func (d Triangular) Sample(r *rand.Rand) float64 {
	// Inverse CDF.
	u := r.Float64()
	fc := (d.Mode - d.Min) / (d.Max - d.Min)
	if u < fc {
		return d.Min + math.Sqrt(u*(d.Max-d.Min)*(d.Mode-d.Min))
	}
	return d.Max - math.Sqrt((1-u)*(d.Max-d.Min)*(d.Max-d.Mode))
}

func (d Triangular) Mean() float64 { return (d.Min + d.Mode + d.Max) / 3 }
func (d Triangular) String() string {
	return fmt.Sprintf("triangular(min=%g, mode=%g, max=%g)", d.Min, d.Mode, d.Max)
}

func (d Triangular) Validate() error {
	if !(d.Min < d.Max) || d.Mode < d.Min || d.Mode > d.Max {
		return fmt.Errorf("triangular: need min < max and min <= mode <= max, got (%g, %g, %g)", d.Min, d.Mode, d.Max)
	}
	return nil
}

// Uniform is flat on [Min, Max].
type Uniform struct {
	Min float64
	Max float64
}

func (d Uniform) Sample(r *rand.Rand) float64 { return d.Min + (d.Max-d.Min)*r.Float64() }
func (d Uniform) Mean() float64               { return (d.Min + d.Max) / 2 }
func (d Uniform) String() string              { return fmt.Sprintf("uniform(min=%g, max=%g)", d.Min, d.Max) }

func (d Uniform) Validate() error {
	if !(d.Min < d.Max) {
		return fmt.Errorf("uniform: need min < max, got (%g, %g)", d.Min, d.Max)
	}
	return nil
}

// gammaSample draws Gamma(shape, scale) by Marsaglia-Tsang squeeze
// (boosted for shape < 1).
func gammaSample(r *rand.Rand, shape, scale float64) float64 {
	if shape < 1 {
		// Gamma(a) = Gamma(a+1) * U^(1/a)
		u := r.Float64()
		for u == 0 {
			u = r.Float64()
		}
		return gammaSample(r, shape+1, scale) * math.Pow(u, 1/shape)
	}
	d := shape - 1.0/3.0
	c := 1 / math.Sqrt(9*d)
	for {
		x := r.NormFloat64()
		v := 1 + c*x
		if v <= 0 {
			continue
		}
		v = v * v * v
		u := r.Float64()
		if u < 1-0.0331*x*x*x*x {
			return d * v * scale
		}
		if u > 0 && math.Log(u) < 0.5*x*x+d*(1-v+math.Log(v)) {
			return d * v * scale
		}
	}
}

// ParseDistribution builds a Distribution from a family name and its
// parameter map, as declared in scenario files. Unsupported families and
// invalid parameterizations are rejected up front.
func ParseDistribution(family string, params map[string]float64) (Distribution, error) {
	get := func(keys ...string) (float64, bool) {
		for _, k := range keys {
			if v, ok := params[k]; ok {
				return v, true
			}
		}
		return 0, false
	}
	var d Distribution
	switch family {
	case "normal":
		mu, ok1 := get("mean", "mu")
		sd, ok2 := get("sd", "std", "sigma")
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("normal: requires mean and sd")
		}
		d = Normal{Mu: mu, Sigma: sd}
	case "lognormal":
		mu, ok1 := get("mu", "mean")
		sd, ok2 := get("sigma", "sd", "std")
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("lognormal: requires mu and sigma")
		}
		d = LogNormal{Mu: mu, Sigma: sd}
	case "beta":
		a, ok1 := get("alpha")
		b, ok2 := get("beta")
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("beta: requires alpha and beta")
		}
		d = Beta{Alpha: a, BetaP: b}
	case "gamma":
		sh, ok1 := get("shape")
		sc, ok2 := get("scale")
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("gamma: requires shape and scale")
		}
		d = Gamma{Shape: sh, Scale: sc}
	case "triangular":
		lo, ok1 := get("min", "low")
		mode, ok2 := get("mode")
		hi, ok3 := get("max", "high")
		if !ok1 || !ok2 || !ok3 {
			return nil, fmt.Errorf("triangular: requires min, mode and max")
		}
		d = Triangular{Min: lo, Mode: mode, Max: hi}
	case "uniform":
		lo, ok1 := get("min", "low")
		hi, ok2 := get("max", "high")
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("uniform: requires min and max")
		}
		d = Uniform{Min: lo, Max: hi}
	default:
		return nil, fmt.Errorf("unsupported distribution family %q", family)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}
