// ceam/core/states.go
package core

// ProbTolerance is the tolerance used when checking that transition rows and
// occupancy vectors form valid probability distributions.
const ProbTolerance = 1e-6

// HealthState is one mutually exclusive state of the Markov model.
// A state is immutable once a run starts; Tornado/PSA perturb values on a
// cloned ParameterSet, never on a live one.
type HealthState struct {
	Name string

	// Cost accrued per cycle per (fractional) cohort member occupying the state.
	Cost float64

	// Utility is the quality weight in [0, 1] applied to time spent in the state.
	Utility float64

	// OneTimeCost is charged once on each incident entry into the state
	// (e.g. a progression event cost), proportional to the inflow fraction.
	OneTimeCost float64

	// Absorbing marks states that can never be left (e.g. Death). An
	// absorbing state's only nonzero transition is to itself.
	Absorbing bool
}

// validateStates checks the state table: unique non-empty names, utilities in
// [0,1], non-negative costs, and at least one non-absorbing state to start
// the cohort in.
func validateStates(states []HealthState) error {
	if len(states) == 0 {
		return Validationf("states", "at least one health state is required")
	}
	seen := make(map[string]bool, len(states))
	anyTransient := false
	for _, s := range states {
		if s.Name == "" {
			return Validationf("states", "state with empty name")
		}
		if seen[s.Name] {
			return Validationf("state."+s.Name, "duplicate state name")
		}
		seen[s.Name] = true
		if s.Utility < 0 || s.Utility > 1 {
			return Validationf("state."+s.Name+".utility", "utility %g outside [0, 1]", s.Utility)
		}
		if s.Cost < 0 {
			return Validationf("state."+s.Name+".cost", "negative cost %g", s.Cost)
		}
		if s.OneTimeCost < 0 {
			return Validationf("state."+s.Name+".one_time_cost", "negative cost %g", s.OneTimeCost)
		}
		if !s.Absorbing {
			anyTransient = true
		}
	}
	if !anyTransient {
		return Validationf("states", "every state is absorbing; cohort has nowhere to start")
	}
	return nil
}

// stateIndex returns the position of name in states, or -1.
func stateIndex(states []HealthState, name string) int {
	for i, s := range states {
		if s.Name == name {
			return i
		}
	}
	return -1
}
