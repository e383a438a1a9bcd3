package core

import (
	"math"
	"testing"
)

// testParams is the canonical two-arm oncology fixture used across the core
// tests: Stable/Progression/Death with drugA (slow progression, expensive)
// against drugB (fast progression, cheap).
func testParams(t *testing.T) *ParameterSet {
	t.Helper()
	mkMatrix := func(sToP float64) *TransitionMatrix {
		m := NewTransitionMatrix([]string{"Stable", "Progression", "Death"})
		m.P[0][1] = sToP
		m.P[0][2] = 0.02
		m.P[1][2] = 0.15
		m.CompleteDiagonal()
		return m
	}
	return &ParameterSet{
		Name: "oncology-base",
		States: []HealthState{
			{Name: "Stable", Cost: 200, Utility: 0.85},
			{Name: "Progression", Cost: 4500, Utility: 0.50},
			{Name: "Death", Absorbing: true},
		},
		Arms: []Arm{
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

func TestValidateAcceptsFixture(t *testing.T) {
	if err := testParams(t).Validate(); err != nil {
		t.Fatalf("fixture should validate: %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*ParameterSet)
	}{
		{"zero cycles", func(ps *ParameterSet) { ps.Cycles = 0 }},
		{"zero cycle length", func(ps *ParameterSet) { ps.CycleLength = 0 }},
		{"zero cohort", func(ps *ParameterSet) { ps.CohortSize = 0 }},
		{"no arms", func(ps *ParameterSet) { ps.Arms = nil }},
		{"duplicate arm", func(ps *ParameterSet) { ps.Arms[1].Name = "drugA" }},
		{"negative drug cost", func(ps *ParameterSet) { ps.Arms[0].DrugCost = -1 }},
		{"missing matrix", func(ps *ParameterSet) { ps.Arms[0].Transitions = nil }},
		{"duplicate state", func(ps *ParameterSet) { ps.States[1].Name = "Stable" }},
		{"utility above one", func(ps *ParameterSet) { ps.States[0].Utility = 1.2 }},
		{"negative state cost", func(ps *ParameterSet) { ps.States[0].Cost = -5 }},
		{"unknown start state", func(ps *ParameterSet) { ps.StartState = "Cured" }},
		{"absorbing start state", func(ps *ParameterSet) { ps.StartState = "Death" }},
		{"event cost unknown state", func(ps *ParameterSet) {
			ps.Arms[0].EventCosts = map[string]float64{"Cured": 100}
		}},
		{"initial distribution wrong length", func(ps *ParameterSet) {
			ps.InitialDistribution = []float64{0.5, 0.5}
		}},
		{"initial distribution bad sum", func(ps *ParameterSet) {
			ps.InitialDistribution = []float64{0.5, 0.4, 0.2}
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ps := testParams(t)
			tc.mutate(ps)
			if err := ps.Validate(); err == nil {
				t.Error("Validate accepted a broken parameter set")
			}
		})
	}
}

func TestSetGetRoundTrip(t *testing.T) {
	ps := testParams(t)
	cases := []struct {
		name  string
		value float64
	}{
		{"discount.costs", 0.05},
		{"discount.outcomes", 0.015},
		{"cycle_length", 0.5},
		{"state.Stable.cost", 350},
		{"state.Progression.utility", 0.42},
		{"state.Progression.one_time_cost", 2000},
		{"arm.drugA.drug_cost", 4200},
		{"arm.drugA.event_cost.Progression", 750},
		{"prob.drugA.Stable.Progression", 0.18},
	}
	for _, tc := range cases {
		if err := ps.Set(tc.name, tc.value); err != nil {
			t.Fatalf("Set(%s): %v", tc.name, err)
		}
		got, err := ps.Get(tc.name)
		if err != nil {
			t.Fatalf("Get(%s): %v", tc.name, err)
		}
		if got != tc.value {
			t.Errorf("Get(%s) = %g, want %g", tc.name, got, tc.value)
		}
	}
	// Perturbed probabilities must keep the matrix valid.
	if err := ps.Validate(); err != nil {
		t.Errorf("parameter set invalid after Set round trips: %v", err)
	}
}

func TestSetRejectsOutOfDomain(t *testing.T) {
	ps := testParams(t)
	cases := []struct {
		name  string
		value float64
	}{
		{"state.Stable.utility", 1.5},
		{"state.Stable.cost", -10},
		{"arm.drugA.drug_cost", -1},
		{"prob.drugA.Stable.Progression", 1.2},
		{"prob.drugA.Stable.Stable", 0.5},
		{"cycle_length", 0},
		{"discount.costs", -2},
		{"no.such.parameter", 1},
		{"state.Cured.cost", 1},
		{"arm.nope.drug_cost", 1},
	}
	for _, tc := range cases {
		if err := ps.Set(tc.name, tc.value); err == nil {
			t.Errorf("Set(%s, %g) accepted", tc.name, tc.value)
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	ps := testParams(t)
	ps.Arms[0].EventCosts = map[string]float64{"Progression": 100}
	c := ps.Clone()

	if err := c.Set("state.Stable.cost", 999); err != nil {
		t.Fatal(err)
	}
	if err := c.Set("prob.drugA.Stable.Progression", 0.2); err != nil {
		t.Fatal(err)
	}
	if err := c.Set("arm.drugA.event_cost.Progression", 888); err != nil {
		t.Fatal(err)
	}

	if ps.States[0].Cost != 200 {
		t.Error("clone shares the States slice")
	}
	if got := ps.Arms[0].Transitions.Prob("Stable", "Progression"); got != 0.10 {
		t.Errorf("clone shares the transition matrix (%g)", got)
	}
	if ps.Arms[0].EventCosts["Progression"] != 100 {
		t.Error("clone shares the EventCosts map")
	}
}

func TestParameterNames(t *testing.T) {
	ps := testParams(t)
	names := ps.ParameterNames()

	want := map[string]bool{
		"discount.costs":               false,
		"cycle_length":                 false,
		"state.Stable.utility":         false,
		"arm.drugB.drug_cost":          false,
		"prob.drugA.Stable.Death":      false,
		"prob.drugB.Progression.Death": false,
	}
	for _, n := range names {
		if _, ok := want[n]; ok {
			want[n] = true
		}
		if _, err := ps.Get(n); err != nil {
			t.Errorf("listed parameter %s is not readable: %v", n, err)
		}
	}
	for n, seen := range want {
		if !seen {
			t.Errorf("ParameterNames missing %s", n)
		}
	}
	for _, n := range names {
		if n == "prob.drugA.Stable.Stable" {
			t.Error("ParameterNames should omit derived self-transitions")
		}
	}
}

func TestInitialOccupancy(t *testing.T) {
	ps := testParams(t)
	occ := ps.initialOccupancy()
	if occ[0] != 1 || occ[1] != 0 || occ[2] != 0 {
		t.Errorf("start-state occupancy = %v", occ)
	}

	ps.InitialDistribution = []float64{0.7, 0.3, 0}
	if err := ps.Validate(); err != nil {
		t.Fatalf("explicit distribution should validate: %v", err)
	}
	occ = ps.initialOccupancy()
	if math.Abs(occ[0]-0.7) > 1e-12 || math.Abs(occ[1]-0.3) > 1e-12 {
		t.Errorf("explicit occupancy = %v", occ)
	}
}
