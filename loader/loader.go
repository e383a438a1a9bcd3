// ceam/loader/loader.go

// Package loader reads YAML scenario files into validated engine types. A
// scenario bundles the ParameterSet (states, arms, transitions, run
// settings) with optional analysis sections (tornado, sweep, psa, voi,
// budget). Loading validates eagerly: a scenario that loads cleanly can be
// fed straight to the engine.
package loader

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/htakit/ceam/budget"
	"github.com/htakit/ceam/core"
	"github.com/htakit/ceam/sensitivity"
	"github.com/htakit/ceam/stats"
)

// Scenario is a fully resolved scenario file.
type Scenario struct {
	Name         string
	Params       *core.ParameterSet
	Threshold    float64
	Intervention string
	Comparator   string

	Tornado *TornadoSpec
	Sweep   *SweepSpec
	PSA     *PSASpec
	VOI     *VOISpec
	Budget  *budget.Scenario
}

// TornadoSpec is the scenario's tornado section.
type TornadoSpec struct {
	Metric sensitivity.Metric
	Bounds []sensitivity.Bound
}

// SweepSpec is the scenario's one-way sweep section.
type SweepSpec struct {
	Parameter string
	Values    []float64
}

// PSASpec is the scenario's PSA section.
type PSASpec struct {
	Iterations    int
	Seed          int64
	Distributions map[string]stats.Distribution
}

// VOISpec is the scenario's value-of-information section.
type VOISpec struct {
	Population   float64
	HorizonYears int
	DiscountRate float64
}

// --- YAML document shapes ---

type scenarioDoc struct {
	Name     string      `yaml:"name"`
	Settings settingsDoc `yaml:"settings"`
	States   []stateDoc  `yaml:"states"`
	Arms     []armDoc    `yaml:"arms"`
	Tornado  *tornadoDoc `yaml:"tornado"`
	Sweep    *sweepDoc   `yaml:"sweep"`
	PSA      *psaDoc     `yaml:"psa"`
	VOI      *voiDoc     `yaml:"voi"`
	Budget   *budgetDoc  `yaml:"budget"`
}

type settingsDoc struct {
	Cycles               int      `yaml:"cycles"`
	CycleLength          float64  `yaml:"cycle_length"`
	DiscountRate         float64  `yaml:"discount_rate"`
	DiscountRateOutcomes *float64 `yaml:"discount_rate_outcomes"`
	CohortSize           int      `yaml:"cohort_size"`
	HalfCycleCorrection  *bool    `yaml:"half_cycle_correction"`
	StartState           string   `yaml:"start_state"`
	Threshold            float64  `yaml:"threshold"`
	Intervention         string   `yaml:"intervention"`
	Comparator           string   `yaml:"comparator"`
}

type stateDoc struct {
	Name        string  `yaml:"name"`
	Cost        float64 `yaml:"cost"`
	Utility     float64 `yaml:"utility"`
	OneTimeCost float64 `yaml:"one_time_cost"`
	Absorbing   bool    `yaml:"absorbing"`
}

type armDoc struct {
	Name        string             `yaml:"name"`
	DrugCost    float64            `yaml:"drug_cost"`
	EventCosts  map[string]float64 `yaml:"event_costs"`
	Transitions []transitionDoc    `yaml:"transitions"`
}

type transitionDoc struct {
	From        string  `yaml:"from"`
	To          string  `yaml:"to"`
	Probability float64 `yaml:"probability"`
}

type tornadoDoc struct {
	Metric string     `yaml:"metric"`
	Bounds []boundDoc `yaml:"bounds"`
}

type boundDoc struct {
	Parameter string  `yaml:"parameter"`
	Low       float64 `yaml:"low"`
	High      float64 `yaml:"high"`
}

type sweepDoc struct {
	Parameter string    `yaml:"parameter"`
	Values    []float64 `yaml:"values"`
}

type psaDoc struct {
	Iterations    int                        `yaml:"iterations"`
	Seed          int64                      `yaml:"seed"`
	Distributions map[string]distributionDoc `yaml:"distributions"`
}

type distributionDoc struct {
	Family string             `yaml:"family"`
	Params map[string]float64 `yaml:",inline"`
}

type voiDoc struct {
	Population   float64 `yaml:"population"`
	HorizonYears int     `yaml:"horizon_years"`
	DiscountRate float64 `yaml:"discount_rate"`
}

type budgetDoc struct {
	HorizonYears int     `yaml:"horizon_years"`
	DiscountRate float64 `yaml:"discount_rate"`
	NewTreatment string  `yaml:"new_treatment"`
	PeakShare    float64 `yaml:"peak_share"`
	Uptake       string  `yaml:"uptake"`

	Population struct {
		Total            float64 `yaml:"total"`
		PrevalenceRate   float64 `yaml:"prevalence_rate"`
		DiagnosisRate    float64 `yaml:"diagnosis_rate"`
		TreatmentRate    float64 `yaml:"treatment_rate"`
		Growth           string  `yaml:"growth"`
		AnnualGrowthRate float64 `yaml:"annual_growth_rate"`
	} `yaml:"population"`

	Treatments []struct {
		Name               string  `yaml:"name"`
		AnnualCost         float64 `yaml:"annual_cost"`
		AdministrationCost float64 `yaml:"administration_cost"`
		MonitoringCost     float64 `yaml:"monitoring_cost"`
		AdverseEventCost   float64 `yaml:"adverse_event_cost"`
		BaselineShare      float64 `yaml:"baseline_share"`
	} `yaml:"treatments"`
}

// Load reads and resolves a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading scenario: %w", err)
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("loading scenario %s: %w", path, err)
	}
	return sc, nil
}

// Parse resolves scenario YAML into validated engine types.
func Parse(data []byte) (*Scenario, error) {
	var doc scenarioDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}

	ps, err := buildParams(&doc)
	if err != nil {
		return nil, err
	}

	sc := &Scenario{
		Name:         doc.Name,
		Params:       ps,
		Threshold:    doc.Settings.Threshold,
		Intervention: doc.Settings.Intervention,
		Comparator:   doc.Settings.Comparator,
	}

	if doc.Tornado != nil {
		t := &TornadoSpec{Metric: sensitivity.Metric(doc.Tornado.Metric)}
		for _, b := range doc.Tornado.Bounds {
			t.Bounds = append(t.Bounds, sensitivity.Bound{Parameter: b.Parameter, Low: b.Low, High: b.High})
		}
		sc.Tornado = t
	}
	if doc.Sweep != nil {
		sc.Sweep = &SweepSpec{Parameter: doc.Sweep.Parameter, Values: doc.Sweep.Values}
	}
	if doc.PSA != nil {
		p := &PSASpec{
			Iterations:    doc.PSA.Iterations,
			Seed:          doc.PSA.Seed,
			Distributions: make(map[string]stats.Distribution, len(doc.PSA.Distributions)),
		}
		for name, d := range doc.PSA.Distributions {
			dist, err := stats.ParseDistribution(d.Family, d.Params)
			if err != nil {
				return nil, fmt.Errorf("psa distribution for %s: %w", name, err)
			}
			// Unknown parameter names fail here, not mid-batch.
			if _, err := ps.Get(name); err != nil {
				return nil, err
			}
			p.Distributions[name] = dist
		}
		sc.PSA = p
	}
	if doc.VOI != nil {
		sc.VOI = &VOISpec{
			Population:   doc.VOI.Population,
			HorizonYears: doc.VOI.HorizonYears,
			DiscountRate: doc.VOI.DiscountRate,
		}
	}
	if doc.Budget != nil {
		sc.Budget = buildBudget(doc.Budget)
	}
	return sc, nil
}

// buildParams assembles and validates the ParameterSet. Transition rows may
// leave the self-transition implicit; the unallocated mass lands on the
// diagonal. Rows declared above 1 are rejected by validation, never
// renormalized.
func buildParams(doc *scenarioDoc) (*core.ParameterSet, error) {
	states := make([]core.HealthState, 0, len(doc.States))
	names := make([]string, 0, len(doc.States))
	for _, s := range doc.States {
		states = append(states, core.HealthState{
			Name:        s.Name,
			Cost:        s.Cost,
			Utility:     s.Utility,
			OneTimeCost: s.OneTimeCost,
			Absorbing:   s.Absorbing,
		})
		names = append(names, s.Name)
	}

	arms := make([]core.Arm, 0, len(doc.Arms))
	for _, a := range doc.Arms {
		m := core.NewTransitionMatrix(names)
		for _, tr := range a.Transitions {
			i, j := m.Index(tr.From), m.Index(tr.To)
			if i < 0 {
				return nil, core.Validationf("arm."+a.Name+".transitions", "unknown source state %q", tr.From)
			}
			if j < 0 {
				return nil, core.Validationf("arm."+a.Name+".transitions", "unknown destination state %q", tr.To)
			}
			m.P[i][j] = tr.Probability
		}
		m.CompleteDiagonal()
		arms = append(arms, core.Arm{
			Name:        a.Name,
			DrugCost:    a.DrugCost,
			EventCosts:  a.EventCosts,
			Transitions: m,
		})
	}

	hcc := true // regulatory convention: half-cycle correction on by default
	if doc.Settings.HalfCycleCorrection != nil {
		hcc = *doc.Settings.HalfCycleCorrection
	}
	cycleLength := doc.Settings.CycleLength
	if cycleLength == 0 {
		cycleLength = 1
	}
	outcomes := doc.Settings.DiscountRate
	if doc.Settings.DiscountRateOutcomes != nil {
		outcomes = *doc.Settings.DiscountRateOutcomes
	}

	ps := &core.ParameterSet{
		Name:                doc.Name,
		States:              states,
		Arms:                arms,
		Cycles:              doc.Settings.Cycles,
		CycleLength:         cycleLength,
		DiscountCosts:       doc.Settings.DiscountRate,
		DiscountOutcomes:    outcomes,
		CohortSize:          doc.Settings.CohortSize,
		HalfCycleCorrection: hcc,
		StartState:          doc.Settings.StartState,
	}
	if err := ps.Validate(); err != nil {
		return nil, err
	}
	return ps, nil
}

func buildBudget(doc *budgetDoc) *budget.Scenario {
	s := &budget.Scenario{
		HorizonYears: doc.HorizonYears,
		DiscountRate: doc.DiscountRate,
		NewTreatment: doc.NewTreatment,
		PeakShare:    doc.PeakShare,
		Uptake:       budget.UptakeType(doc.Uptake),
		Population: budget.Population{
			Total:            doc.Population.Total,
			PrevalenceRate:   doc.Population.PrevalenceRate,
			DiagnosisRate:    doc.Population.DiagnosisRate,
			TreatmentRate:    doc.Population.TreatmentRate,
			Growth:           budget.GrowthType(doc.Population.Growth),
			AnnualGrowthRate: doc.Population.AnnualGrowthRate,
		},
		BaselineShares: map[string]float64{},
	}
	for _, t := range doc.Treatments {
		s.Treatments = append(s.Treatments, budget.Treatment{
			Name:               t.Name,
			AnnualCost:         t.AnnualCost,
			AdministrationCost: t.AdministrationCost,
			MonitoringCost:     t.MonitoringCost,
			AdverseEventCost:   t.AdverseEventCost,
		})
		s.BaselineShares[t.Name] = t.BaselineShare
	}
	return s
}
