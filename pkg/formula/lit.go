package formula

import "strconv"

// Lit is a propositional literal in DIMACS coding: a nonzero integer whose
// magnitude is a variable id and whose sign is the polarity.
type Lit int

// Var returns the variable id of the literal.
func (l Lit) Var() int {
	if l < 0 {
		return int(-l)
	}
	return int(l)
}

// Neg returns the literal with opposite polarity.
func (l Lit) Neg() Lit {
	return -l
}

// Positive returns true if the literal selects its variable.
func (l Lit) Positive() bool {
	return l > 0
}

func (l Lit) String() string {
	return strconv.Itoa(int(l))
}
