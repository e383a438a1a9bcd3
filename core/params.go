// ceam/core/params.go
package core

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Arm is one named treatment option: a recurring drug cost applied to the
// alive (non-absorbed) fraction of the cohort each cycle, a transition
// matrix, and optional per-state cost adders (e.g. an extra progression
// management cost specific to this arm).
type Arm struct {
	Name string

	// DrugCost per cycle per alive cohort member.
	DrugCost float64

	Transitions *TransitionMatrix

	// EventCosts are arm-specific per-cycle cost adders keyed by state name,
	// applied on top of the state's own cost.
	EventCosts map[string]float64
}

// ParameterSet is the frozen snapshot of every economic and clinical input
// for one simulation run. It is a pure value type: Clone is a deep copy and
// Tornado/PSA only ever mutate clones through Set.
type ParameterSet struct {
	Name   string
	States []HealthState
	Arms   []Arm

	// Cycles is the model horizon in cycles; CycleLength is the cycle
	// duration in years.
	Cycles      int
	CycleLength float64

	// Discount rates are annual. Costs and outcomes may be discounted at
	// different rates (some jurisdictions require it); most scenarios set
	// them equal.
	DiscountCosts    float64
	DiscountOutcomes float64

	CohortSize          int
	HalfCycleCorrection bool

	// StartState receives the whole cohort at cycle 0 unless
	// InitialDistribution is set (fractions over States, summing to 1).
	StartState          string
	InitialDistribution []float64
}

// Clone returns a deep copy. The copy shares nothing with the original.
func (ps *ParameterSet) Clone() *ParameterSet {
	c := *ps
	c.States = make([]HealthState, len(ps.States))
	copy(c.States, ps.States)
	c.Arms = make([]Arm, len(ps.Arms))
	for i, a := range ps.Arms {
		c.Arms[i] = a
		if a.Transitions != nil {
			c.Arms[i].Transitions = a.Transitions.Clone()
		}
		if a.EventCosts != nil {
			ec := make(map[string]float64, len(a.EventCosts))
			for k, v := range a.EventCosts {
				ec[k] = v
			}
			c.Arms[i].EventCosts = ec
		}
	}
	if ps.InitialDistribution != nil {
		c.InitialDistribution = make([]float64, len(ps.InitialDistribution))
		copy(c.InitialDistribution, ps.InitialDistribution)
	}
	return &c
}

// Arm returns the named arm, or nil.
func (ps *ParameterSet) Arm(name string) *Arm {
	for i := range ps.Arms {
		if ps.Arms[i].Name == name {
			return &ps.Arms[i]
		}
	}
	return nil
}

// Validate checks the whole parameter set once, up front. The simulation
// loop assumes a validated set and never re-validates scalars.
func (ps *ParameterSet) Validate() error {
	if err := validateStates(ps.States); err != nil {
		return err
	}
	if ps.Cycles <= 0 {
		return Validationf("cycles", "cycle count %d must be positive", ps.Cycles)
	}
	if ps.CycleLength <= 0 {
		return Validationf("cycle_length", "cycle length %g must be positive", ps.CycleLength)
	}
	if ps.CohortSize <= 0 {
		return Validationf("cohort_size", "cohort size %d must be positive", ps.CohortSize)
	}
	if ps.DiscountCosts < -1 {
		return Validationf("discount.costs", "discount rate %g below -1", ps.DiscountCosts)
	}
	if ps.DiscountOutcomes < -1 {
		return Validationf("discount.outcomes", "discount rate %g below -1", ps.DiscountOutcomes)
	}
	if len(ps.Arms) == 0 {
		return Validationf("arms", "at least one arm is required")
	}
	seen := make(map[string]bool, len(ps.Arms))
	for i := range ps.Arms {
		a := &ps.Arms[i]
		if a.Name == "" {
			return Validationf("arms", "arm with empty name")
		}
		if seen[a.Name] {
			return Validationf("arm."+a.Name, "duplicate arm name")
		}
		seen[a.Name] = true
		if a.DrugCost < 0 {
			return Validationf("arm."+a.Name+".drug_cost", "negative cost %g", a.DrugCost)
		}
		for st, c := range a.EventCosts {
			if stateIndex(ps.States, st) < 0 {
				return Validationf("arm."+a.Name+".event_cost."+st, "unknown state")
			}
			if c < 0 {
				return Validationf("arm."+a.Name+".event_cost."+st, "negative cost %g", c)
			}
		}
		if a.Transitions == nil {
			return Validationf("arm."+a.Name+".transitions", "missing transition matrix")
		}
		if err := a.Transitions.Validate(ps.States); err != nil {
			return err
		}
	}
	return ps.validateInitial()
}

func (ps *ParameterSet) validateInitial() error {
	if ps.InitialDistribution != nil {
		if len(ps.InitialDistribution) != len(ps.States) {
			return Validationf("initial_distribution", "has %d entries, want %d", len(ps.InitialDistribution), len(ps.States))
		}
		sum := 0.0
		for i, w := range ps.InitialDistribution {
			if w < 0 || w > 1 {
				return Validationf("initial_distribution."+ps.States[i].Name, "fraction %g outside [0, 1]", w)
			}
			sum += w
		}
		if math.Abs(sum-1) > ProbTolerance {
			return Validationf("initial_distribution", "fractions sum to %.9f, want 1", sum)
		}
		return nil
	}
	if ps.StartState == "" {
		// Default to the first non-absorbing state.
		return nil
	}
	i := stateIndex(ps.States, ps.StartState)
	if i < 0 {
		return Validationf("start_state", "unknown state %q", ps.StartState)
	}
	if ps.States[i].Absorbing {
		return Validationf("start_state", "state %q is absorbing", ps.StartState)
	}
	return nil
}

// initialOccupancy builds the cycle-0 occupancy vector (fractions).
func (ps *ParameterSet) initialOccupancy() []float64 {
	occ := make([]float64, len(ps.States))
	if ps.InitialDistribution != nil {
		copy(occ, ps.InitialDistribution)
		return occ
	}
	start := ps.StartState
	if start == "" {
		for _, s := range ps.States {
			if !s.Absorbing {
				start = s.Name
				break
			}
		}
	}
	occ[stateIndex(ps.States, start)] = 1
	return occ
}

// --- Named parameter registry ---
//
// Every perturbable scalar has a stable dotted name so sensitivity analyses
// can address it without knowing the struct layout:
//
//	discount.costs, discount.outcomes, cycle_length
//	state.<State>.cost | .utility | .one_time_cost
//	arm.<Arm>.drug_cost, arm.<Arm>.event_cost.<State>
//	prob.<Arm>.<From>.<To>
//
// Set applies domain validation eagerly; setting a transition probability
// rebalances the source row's self-transition (see TransitionMatrix.SetProb).

// Set assigns the named parameter on this ParameterSet.
func (ps *ParameterSet) Set(name string, value float64) error {
	parts := strings.Split(name, ".")
	switch parts[0] {
	case "discount":
		if len(parts) != 2 {
			break
		}
		if value < -1 {
			return Validationf(name, "discount rate %g below -1", value)
		}
		switch parts[1] {
		case "costs":
			ps.DiscountCosts = value
			return nil
		case "outcomes":
			ps.DiscountOutcomes = value
			return nil
		}
	case "cycle_length":
		if len(parts) != 1 {
			break
		}
		if value <= 0 {
			return Validationf(name, "cycle length %g must be positive", value)
		}
		ps.CycleLength = value
		return nil
	case "state":
		if len(parts) != 3 {
			break
		}
		i := stateIndex(ps.States, parts[1])
		if i < 0 {
			return Validationf(name, "unknown state %q", parts[1])
		}
		switch parts[2] {
		case "cost":
			if value < 0 {
				return Validationf(name, "negative cost %g", value)
			}
			ps.States[i].Cost = value
			return nil
		case "utility":
			if value < 0 || value > 1 {
				return Validationf(name, "utility %g outside [0, 1]", value)
			}
			ps.States[i].Utility = value
			return nil
		case "one_time_cost":
			if value < 0 {
				return Validationf(name, "negative cost %g", value)
			}
			ps.States[i].OneTimeCost = value
			return nil
		}
	case "arm":
		if len(parts) < 3 {
			break
		}
		a := ps.Arm(parts[1])
		if a == nil {
			return Validationf(name, "unknown arm %q", parts[1])
		}
		switch parts[2] {
		case "drug_cost":
			if value < 0 {
				return Validationf(name, "negative cost %g", value)
			}
			a.DrugCost = value
			return nil
		case "event_cost":
			if len(parts) != 4 {
				break
			}
			if stateIndex(ps.States, parts[3]) < 0 {
				return Validationf(name, "unknown state %q", parts[3])
			}
			if value < 0 {
				return Validationf(name, "negative cost %g", value)
			}
			if a.EventCosts == nil {
				a.EventCosts = map[string]float64{}
			}
			a.EventCosts[parts[3]] = value
			return nil
		}
	case "prob":
		if len(parts) != 4 {
			break
		}
		a := ps.Arm(parts[1])
		if a == nil {
			return Validationf(name, "unknown arm %q", parts[1])
		}
		return a.Transitions.SetProb(parts[2], parts[3], value)
	}
	return Validationf(name, "unknown parameter")
}

// Get reads the named parameter.
func (ps *ParameterSet) Get(name string) (float64, error) {
	parts := strings.Split(name, ".")
	switch parts[0] {
	case "discount":
		if len(parts) == 2 {
			switch parts[1] {
			case "costs":
				return ps.DiscountCosts, nil
			case "outcomes":
				return ps.DiscountOutcomes, nil
			}
		}
	case "cycle_length":
		if len(parts) == 1 {
			return ps.CycleLength, nil
		}
	case "state":
		if len(parts) == 3 {
			i := stateIndex(ps.States, parts[1])
			if i < 0 {
				return 0, Validationf(name, "unknown state %q", parts[1])
			}
			switch parts[2] {
			case "cost":
				return ps.States[i].Cost, nil
			case "utility":
				return ps.States[i].Utility, nil
			case "one_time_cost":
				return ps.States[i].OneTimeCost, nil
			}
		}
	case "arm":
		if len(parts) >= 3 {
			a := ps.Arm(parts[1])
			if a == nil {
				return 0, Validationf(name, "unknown arm %q", parts[1])
			}
			switch parts[2] {
			case "drug_cost":
				return a.DrugCost, nil
			case "event_cost":
				if len(parts) == 4 {
					if stateIndex(ps.States, parts[3]) < 0 {
						return 0, Validationf(name, "unknown state %q", parts[3])
					}
					return a.EventCosts[parts[3]], nil
				}
			}
		}
	case "prob":
		if len(parts) == 4 {
			a := ps.Arm(parts[1])
			if a == nil {
				return 0, Validationf(name, "unknown arm %q", parts[1])
			}
			if a.Transitions.Index(parts[2]) < 0 {
				return 0, Validationf(name, "unknown state %q", parts[2])
			}
			if a.Transitions.Index(parts[3]) < 0 {
				return 0, Validationf(name, "unknown state %q", parts[3])
			}
			return a.Transitions.Prob(parts[2], parts[3]), nil
		}
	}
	return 0, Validationf(name, "unknown parameter")
}

// ParameterNames lists every addressable parameter name, sorted. Diagonal
// (self) transition probabilities are omitted since they are derived.
func (ps *ParameterSet) ParameterNames() []string {
	var names []string
	names = append(names, "discount.costs", "discount.outcomes", "cycle_length")
	for _, s := range ps.States {
		names = append(names,
			"state."+s.Name+".cost",
			"state."+s.Name+".utility",
			"state."+s.Name+".one_time_cost")
	}
	for _, a := range ps.Arms {
		names = append(names, "arm."+a.Name+".drug_cost")
		for st := range a.EventCosts {
			names = append(names, "arm."+a.Name+".event_cost."+st)
		}
		for _, from := range a.Transitions.States {
			for _, to := range a.Transitions.States {
				if from == to {
					continue
				}
				names = append(names, fmt.Sprintf("prob.%s.%s.%s", a.Name, from, to))
			}
		}
	}
	sort.Strings(names)
	return names
}
