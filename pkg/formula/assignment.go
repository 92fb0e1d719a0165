package formula

import (
	"sort"
	"strings"
)

// Assignment is an ordered collection of literals with at most one literal
// per variable. It is used both for single combinations under test and for
// whole configurations.
type Assignment struct {
	lits []Lit
}

// NewAssignment returns an Assignment containing the given literals. Later
// duplicates of a variable already present are dropped; a literal conflicting
// with an earlier one for the same variable makes the second return value
// false and the conflicting literal is not added.
func NewAssignment(lits ...Lit) (Assignment, bool) {
	a := Assignment{lits: make([]Lit, 0, len(lits))}
	ok := true
	for _, l := range lits {
		switch a.Get(l.Var()) {
		case 0:
			a.lits = append(a.lits, l)
		case l:
		default:
			ok = false
		}
	}
	return a, ok
}

// Len returns the number of assigned variables.
func (a Assignment) Len() int {
	return len(a.lits)
}

// Lits returns the backing literal slice. Callers must not modify it.
func (a Assignment) Lits() []Lit {
	return a.lits
}

// Get returns the literal assigned to the given variable, or 0 if the
// variable is open.
func (a Assignment) Get(v int) Lit {
	for _, l := range a.lits {
		if l.Var() == v {
			return l
		}
	}
	return 0
}

// Contains returns true if the assignment holds exactly the given literal.
func (a Assignment) Contains(l Lit) bool {
	return a.Get(l.Var()) == l
}

// ContainsAll returns true if every literal of other is present.
func (a Assignment) ContainsAll(other Assignment) bool {
	for _, l := range other.lits {
		if !a.Contains(l) {
			return false
		}
	}
	return true
}

// ConflictsWith returns true if other assigns some shared variable the
// opposite polarity.
func (a Assignment) ConflictsWith(other Assignment) bool {
	for _, l := range other.lits {
		if m := a.Get(l.Var()); m != 0 && m != l {
			return true
		}
	}
	return false
}

// Merge returns the union of both assignments, or ok=false if they conflict.
func (a Assignment) Merge(other Assignment) (Assignment, bool) {
	merged := Assignment{lits: make([]Lit, len(a.lits), len(a.lits)+other.Len())}
	copy(merged.lits, a.lits)
	for _, l := range other.lits {
		switch merged.Get(l.Var()) {
		case 0:
			merged.lits = append(merged.lits, l)
		case l:
		default:
			return Assignment{}, false
		}
	}
	return merged, true
}

// Sorted returns a copy ordered by ascending variable id.
func (a Assignment) Sorted() Assignment {
	s := a.Clone()
	sort.Slice(s.lits, func(i, j int) bool { return s.lits[i].Var() < s.lits[j].Var() })
	return s
}

// Clone returns a deep copy.
func (a Assignment) Clone() Assignment {
	lits := make([]Lit, len(a.lits))
	copy(lits, a.lits)
	return Assignment{lits: lits}
}

func (a Assignment) String() string {
	s := make([]string, len(a.lits))
	for i, l := range a.lits {
		s[i] = l.String()
	}
	return "(" + strings.Join(s, " ") + ")"
}
