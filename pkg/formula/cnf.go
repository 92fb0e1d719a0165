package formula

// Clause is a disjunction of literals.
type Clause []Lit

// CNF is a propositional formula in conjunctive normal form, the compiled
// representation of a feature model.
type CNF struct {
	vars    int
	clauses []Clause
	names   []string
	ids     map[string]int
}

// New returns a CNF over vars variables with the given clauses.
func New(vars int, clauses []Clause) *CNF {
	return &CNF{vars: vars, clauses: clauses}
}

// VariableCount returns the number of variables.
func (c *CNF) VariableCount() int {
	return c.vars
}

// Clauses returns the clause list. Callers must not modify it.
func (c *CNF) Clauses() []Clause {
	return c.clauses
}

// SetNames installs a variable-name table. names[i] labels variable i+1.
func (c *CNF) SetNames(names []string) {
	c.names = names
	c.ids = make(map[string]int, len(names))
	for i, n := range names {
		c.ids[n] = i + 1
	}
}

// Name returns the label of variable v, or the empty string.
func (c *CNF) Name(v int) string {
	if v < 1 || v > len(c.names) {
		return ""
	}
	return c.names[v-1]
}

// IDOf returns the variable id for a label, or 0 if unknown.
func (c *CNF) IDOf(name string) int {
	return c.ids[name]
}

// Literals returns both polarities of every variable, in ascending variable
// order with the positive literal first.
func (c *CNF) Literals() []Lit {
	lits := make([]Lit, 0, 2*c.vars)
	for v := 1; v <= c.vars; v++ {
		lits = append(lits, Lit(v), Lit(-v))
	}
	return lits
}
