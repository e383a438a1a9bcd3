// ceam/budget/budget.go

// Package budget implements budget impact analysis (BIA): the affordability
// counterpart to cost-effectiveness. It projects the eligible treated
// population over a short horizon and compares total spend under the current
// treatment mix against the mix after the new treatment is introduced.
// Following ISPOR convention, BIA is undiscounted unless a rate is given.
package budget

import (
	"math"

	"github.com/htakit/ceam/core"
)

// GrowthType selects how the underlying population evolves year over year.
type GrowthType string

const (
	GrowthConstant    GrowthType = "constant"
	GrowthLinear      GrowthType = "linear"
	GrowthExponential GrowthType = "exponential"
)

// UptakeType selects the market-adoption curve of the new treatment.
type UptakeType string

const (
	UptakeImmediate UptakeType = "immediate"
	UptakeLinear    UptakeType = "linear"
	UptakeSCurve    UptakeType = "s_curve"
)

// Population describes the funnel from total population to patients actually
// eligible for treatment.
type Population struct {
	Total            float64
	PrevalenceRate   float64
	DiagnosisRate    float64
	TreatmentRate    float64 // fraction of diagnosed patients eligible
	Growth           GrowthType
	AnnualGrowthRate float64
}

// Treatment is one option in the market mix with its per-patient annual cost
// components.
type Treatment struct {
	Name               string
	AnnualCost         float64
	AdministrationCost float64
	MonitoringCost     float64
	AdverseEventCost   float64
}

// TotalAnnualCost is the all-in per-patient cost per year.
func (t Treatment) TotalAnnualCost() float64 {
	return t.AnnualCost + t.AdministrationCost + t.MonitoringCost + t.AdverseEventCost
}

// Scenario is one budget impact configuration.
type Scenario struct {
	Population Population
	Treatments []Treatment

	// BaselineShares is the current market mix over Treatments, summing
	// to 1. The new treatment's baseline share is typically 0.
	BaselineShares map[string]float64

	// NewTreatment names the entrant whose introduction is being costed.
	NewTreatment string

	// PeakShare is the market share the entrant reaches at the end of its
	// uptake; displaced share is taken proportionally from the incumbents.
	PeakShare float64
	Uptake    UptakeType

	HorizonYears int
	DiscountRate float64
}

// YearResult is one projected year.
type YearResult struct {
	Year             int // 1-based
	EligiblePatients float64
	NewShare         float64
	CostCurrentMix   float64
	CostNewMix       float64
	Impact           float64 // CostNewMix - CostCurrentMix, discounted
}

// Result is the full projection.
type Result struct {
	Years         []YearResult
	Cumulative    []float64
	TotalImpact   float64
	AverageAnnual float64
	PeakImpact    float64
	PeakYear      int
}

// Run projects the budget impact of introducing Scenario.NewTreatment.
func Run(s Scenario) (*Result, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}

	res := &Result{}
	peakAbs := math.Inf(-1)
	cumulative := 0.0
	for year := 1; year <= s.HorizonYears; year++ {
		eligible := s.eligiblePatients(year)
		newShare := s.PeakShare * uptakeFraction(s.Uptake, year, s.HorizonYears)

		costCurrent := 0.0
		costNew := 0.0
		for _, t := range s.Treatments {
			base := s.BaselineShares[t.Name]
			costCurrent += eligible * base * t.TotalAnnualCost()

			share := base * (1 - newShare)
			if t.Name == s.NewTreatment {
				share = newShare
			}
			costNew += eligible * share * t.TotalAnnualCost()
		}

		df := 1.0
		if s.DiscountRate != 0 {
			df = 1 / math.Pow(1+s.DiscountRate, float64(year-1))
		}
		impact := (costNew - costCurrent) * df
		cumulative += impact

		res.Years = append(res.Years, YearResult{
			Year:             year,
			EligiblePatients: eligible,
			NewShare:         newShare,
			CostCurrentMix:   costCurrent * df,
			CostNewMix:       costNew * df,
			Impact:           impact,
		})
		res.Cumulative = append(res.Cumulative, cumulative)
		if math.Abs(impact) > peakAbs {
			peakAbs = math.Abs(impact)
			res.PeakImpact = impact
			res.PeakYear = year
		}
	}
	res.TotalImpact = cumulative
	res.AverageAnnual = cumulative / float64(s.HorizonYears)
	return res, nil
}

func (s *Scenario) validate() error {
	if s.HorizonYears <= 0 {
		return core.Configurationf("budget: horizon %d must be positive", s.HorizonYears)
	}
	if s.DiscountRate < -1 {
		return core.Configurationf("budget: discount rate %g below -1", s.DiscountRate)
	}
	if len(s.Treatments) == 0 {
		return core.Validationf("budget.treatments", "no treatments defined")
	}
	if s.PeakShare < 0 || s.PeakShare > 1 {
		return core.Validationf("budget.peak_share", "share %g outside [0, 1]", s.PeakShare)
	}
	switch s.Uptake {
	case UptakeImmediate, UptakeLinear, UptakeSCurve, "":
	default:
		return core.Configurationf("budget: unsupported uptake curve %q", s.Uptake)
	}
	switch s.Population.Growth {
	case GrowthConstant, GrowthLinear, GrowthExponential, "":
	default:
		return core.Configurationf("budget: unsupported growth type %q", s.Population.Growth)
	}
	found := false
	sum := 0.0
	for _, t := range s.Treatments {
		if t.Name == s.NewTreatment {
			found = true
		}
		if t.TotalAnnualCost() < 0 {
			return core.Validationf("budget.treatment."+t.Name, "negative annual cost")
		}
		sum += s.BaselineShares[t.Name]
	}
	if !found {
		return core.Validationf("budget.new_treatment", "unknown treatment %q", s.NewTreatment)
	}
	if math.Abs(sum-1) > 1e-3 {
		return core.Validationf("budget.baseline_shares", "shares sum to %.4f, want 1", sum)
	}
	p := s.Population
	for _, r := range []struct {
		name string
		v    float64
	}{
		{"prevalence_rate", p.PrevalenceRate},
		{"diagnosis_rate", p.DiagnosisRate},
		{"treatment_rate", p.TreatmentRate},
	} {
		if r.v < 0 || r.v > 1 {
			return core.Validationf("budget.population."+r.name, "rate %g outside [0, 1]", r.v)
		}
	}
	if p.Total < 0 {
		return core.Validationf("budget.population.total", "negative population %g", p.Total)
	}
	return nil
}

// eligiblePatients applies growth then the prevalence/diagnosis/eligibility
// funnel for a given (1-based) year.
func (s *Scenario) eligiblePatients(year int) float64 {
	p := s.Population
	growth := 1.0
	switch p.Growth {
	case GrowthLinear:
		growth = 1 + p.AnnualGrowthRate*float64(year-1)
	case GrowthExponential:
		growth = math.Pow(1+p.AnnualGrowthRate, float64(year-1))
	}
	return p.Total * growth * p.PrevalenceRate * p.DiagnosisRate * p.TreatmentRate
}

// uptakeFraction is the fraction of peak share reached in a given year.
func uptakeFraction(u UptakeType, year, horizon int) float64 {
	switch u {
	case UptakeImmediate:
		return 1
	case UptakeSCurve:
		// Logistic centered mid-horizon; close to 0 in year 1 and close to
		// 1 by the final year.
		mid := float64(horizon+1) / 2
		k := 8.0 / float64(horizon)
		return 1 / (1 + math.Exp(-k*(float64(year)-mid)))
	default: // linear
		return float64(year) / float64(horizon)
	}
}
