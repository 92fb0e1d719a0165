package twise

import (
	"fmt"

	"github.com/featkit/twise/pkg/formula"
)

// Configuration is a growable assignment over all variables of the formula,
// representing one partial or complete feature selection. Configurations are
// owned exclusively by the pool; callers receive deep copies.
type Configuration struct {
	values  []formula.Lit // indexed by variable, 0 = open
	decided int
	score   float64
}

func newConfiguration(vars int) *Configuration {
	return &Configuration{values: make([]formula.Lit, vars+1)}
}

// Get returns the literal selected for variable v, or 0 if v is open.
func (c *Configuration) Get(v int) formula.Lit {
	return c.values[v]
}

// Contains returns true if the configuration selects exactly l.
func (c *Configuration) Contains(l formula.Lit) bool {
	return c.values[l.Var()] == l
}

// ContainsAll returns true if every literal of the assignment is selected.
func (c *Configuration) ContainsAll(a formula.Assignment) bool {
	for _, l := range a.Lits() {
		if !c.Contains(l) {
			return false
		}
	}
	return true
}

// CompatibleWith returns true if no literal of the assignment contradicts a
// selected literal.
func (c *Configuration) CompatibleWith(a formula.Assignment) bool {
	for _, l := range a.Lits() {
		if m := c.values[l.Var()]; m != 0 && m != l {
			return false
		}
	}
	return true
}

// set selects a literal. Selecting the negation of an already-selected
// literal violates the pool's invariants and panics.
func (c *Configuration) set(l formula.Lit) {
	switch c.values[l.Var()] {
	case 0:
		c.values[l.Var()] = l
		c.decided++
	case l:
	default:
		panic(fmt.Sprintf("configuration already selects %s, cannot select %s", c.values[l.Var()], l))
	}
}

// Open returns the number of undecided variables.
func (c *Configuration) Open() int {
	return len(c.values) - 1 - c.decided
}

// Complete returns true once every variable is decided.
func (c *Configuration) Complete() bool {
	return c.Open() == 0
}

// Assignment returns the selected literals in ascending variable order.
func (c *Configuration) Assignment() formula.Assignment {
	lits := make([]formula.Lit, 0, c.decided)
	for v := 1; v < len(c.values); v++ {
		if c.values[v] != 0 {
			lits = append(lits, c.values[v])
		}
	}
	a, _ := formula.NewAssignment(lits...)
	return a
}

// Clone returns a deep copy.
func (c *Configuration) Clone() *Configuration {
	values := make([]formula.Lit, len(c.values))
	copy(values, c.values)
	return &Configuration{values: values, decided: c.decided, score: c.score}
}
