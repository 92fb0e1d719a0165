package twise

import "github.com/featkit/twise/pkg/formula"

// Status classifies the outcome of covering one combination.
type Status int

const (
	// NotCovered means no configuration could absorb the combination.
	NotCovered Status = iota
	// Covered means some configuration now contains the combination.
	Covered
	// Invalid means the combination itself is unsatisfiable with respect
	// to the formula. Not a failure; invalid combinations are excluded
	// from coverage accounting.
	Invalid
)

func (s Status) String() string {
	switch s {
	case Covered:
		return "covered"
	case Invalid:
		return "invalid"
	}
	return "not covered"
}

// strategy decides, per combination, whether it is covered, uncovered or
// invalid. Exactly one strategy is selected per run based on solver
// availability.
type strategy interface {
	cover(combo formula.Assignment) Status
}

// coverAll is the cost-ordered covering policy: cheap structural checks are
// exhausted before the decision procedure is consulted, and a new
// configuration anchors any combination nothing else could absorb.
type coverAll struct {
	pool       *pool
	candidates []candidate
}

func (s *coverAll) cover(combo formula.Assignment) Status {
	if combo.Len() == 0 {
		return Invalid
	}
	if s.pool.isCovered(combo) {
		return Covered
	}

	s.candidates = s.pool.initCandidates(combo, s.candidates)

	if s.pool.hasSolver() {
		if s.pool.coverDeduce(s.candidates) {
			return Covered
		}
		if s.pool.removeInvalid(combo) {
			return Invalid
		}
		if s.pool.coverSolver(s.candidates) {
			return Covered
		}
	} else {
		if s.pool.coverUnchecked(s.candidates) {
			return Covered
		}
	}

	if s.pool.newConfiguration(combo) != nil {
		return Covered
	}
	return NotCovered
}
