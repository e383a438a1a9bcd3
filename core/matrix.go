// ceam/core/matrix.go
package core

import "math"

// TransitionMatrix holds per-cycle transition probabilities between health
// states. P[i][j] is the probability of moving from state i to state j in
// one cycle. Rows must sum to 1 within ProbTolerance.
type TransitionMatrix struct {
	States []string
	P      [][]float64
}

// NewTransitionMatrix returns a zero matrix over the given state names.
// Rows are invalid (all-zero) until filled in; callers typically set the
// off-diagonal probabilities and then call CompleteDiagonal.
func NewTransitionMatrix(states []string) *TransitionMatrix {
	p := make([][]float64, len(states))
	for i := range p {
		p[i] = make([]float64, len(states))
	}
	names := make([]string, len(states))
	copy(names, states)
	return &TransitionMatrix{States: names, P: p}
}

// Index returns the row/column index of a state name, or -1.
func (m *TransitionMatrix) Index(state string) int {
	for i, s := range m.States {
		if s == state {
			return i
		}
	}
	return -1
}

// Prob returns P[from][to]. Unknown states yield 0.
func (m *TransitionMatrix) Prob(from, to string) float64 {
	i, j := m.Index(from), m.Index(to)
	if i < 0 || j < 0 {
		return 0
	}
	return m.P[i][j]
}

// SetProb assigns P[from][to] and rebalances the row's diagonal so the row
// still sums to 1. The adjustment lands on the self-transition; if the
// diagonal cannot absorb the change (would go negative beyond tolerance) the
// assignment is rejected. This is how Tornado/PSA perturb a single
// transition probability without breaking row stochasticity.
func (m *TransitionMatrix) SetProb(from, to string, p float64) error {
	i := m.Index(from)
	if i < 0 {
		return Validationf("transition."+from, "unknown source state")
	}
	j := m.Index(to)
	if j < 0 {
		return Validationf("transition."+from+"."+to, "unknown destination state")
	}
	if i == j {
		return Validationf("transition."+from+"."+to, "self-transition is derived, set the off-diagonal probabilities instead")
	}
	if p < 0 || p > 1 {
		return Validationf("transition."+from+"."+to, "probability %g outside [0, 1]", p)
	}
	delta := p - m.P[i][j]
	diag := m.P[i][i] - delta
	if diag < -ProbTolerance || diag > 1+ProbTolerance {
		return Validationf("transition."+from+"."+to,
			"setting probability to %g leaves self-transition at %g", p, diag)
	}
	m.P[i][j] = p
	m.P[i][i] = math.Min(1, math.Max(0, diag))
	return nil
}

// CompleteDiagonal assigns each row's unallocated probability mass to the
// self-transition. Rows already summing above 1 (beyond tolerance) are left
// untouched so Validate can report them; nothing is ever renormalized.
func (m *TransitionMatrix) CompleteDiagonal() {
	for i := range m.P {
		sum := 0.0
		for j, p := range m.P[i] {
			if j != i {
				sum += p
			}
		}
		if rem := 1 - sum; rem >= -ProbTolerance {
			m.P[i][i] = math.Max(0, rem)
		}
	}
}

// Validate checks the matrix against the model's state table: square shape,
// probabilities in [0,1], every row summing to 1 within tolerance, and
// absorbing rows being exactly the identity row. Malformed input is a fatal
// precondition violation naming the offending row.
func (m *TransitionMatrix) Validate(states []HealthState) error {
	n := len(states)
	if len(m.States) != n || len(m.P) != n {
		return Validationf("transitions", "matrix is %dx%d but model has %d states", len(m.P), len(m.States), n)
	}
	for i, s := range states {
		if m.States[i] != s.Name {
			return Validationf("transitions", "matrix state %q at row %d does not match model state %q", m.States[i], i, s.Name)
		}
	}
	for i, row := range m.P {
		if len(row) != n {
			return Validationf("transitions."+m.States[i], "row has %d entries, want %d", len(row), n)
		}
		sum := 0.0
		for j, p := range row {
			if p < 0 || p > 1 {
				return Validationf("transitions."+m.States[i]+"."+m.States[j], "probability %g outside [0, 1]", p)
			}
			sum += p
		}
		if math.Abs(sum-1) > ProbTolerance {
			return Validationf("transitions."+m.States[i], "row sums to %.9f, want 1", sum)
		}
		if states[i].Absorbing {
			for j, p := range row {
				if i == j {
					continue
				}
				if p != 0 {
					return Validationf("transitions."+m.States[i]+"."+m.States[j],
						"absorbing state has outgoing probability %g", p)
				}
			}
		}
	}
	return nil
}

// Apply advances an occupancy vector one cycle: next[j] = sum_i occ[i]*P[i][j].
func (m *TransitionMatrix) Apply(occ []float64) []float64 {
	next := make([]float64, len(occ))
	for i, w := range occ {
		if w == 0 {
			continue
		}
		for j, p := range m.P[i] {
			next[j] += w * p
		}
	}
	return next
}

// Clone returns a deep copy.
func (m *TransitionMatrix) Clone() *TransitionMatrix {
	c := NewTransitionMatrix(m.States)
	for i := range m.P {
		copy(c.P[i], m.P[i])
	}
	return c
}
