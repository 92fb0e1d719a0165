// Package mig implements a modal implication graph over the literals of a
// CNF formula. Strong edges hold in every satisfying assignment; weak edges
// hold only under conditions implied by the surrounding partial assignment
// and must be confirmed by the visitor per query.
package mig

import (
	"github.com/featkit/twise/pkg/formula"
)

// VisitResult directs the traversal after a literal is reached.
type VisitResult int

const (
	// VisitCancel aborts the traversal; the assignment is inconsistent.
	VisitCancel VisitResult = iota
	// VisitContinue accepts the literal and follows its outgoing edges.
	VisitContinue
	// VisitSkip excludes the literal but continues elsewhere.
	VisitSkip
	// VisitSelect accepts the literal without following its edges.
	VisitSelect
)

// Visitor observes literals as the traversal reaches them. VisitStrong is
// called when a literal is first reached over a strong path while its
// variable is still open; VisitWeak likewise for weak paths.
type Visitor interface {
	VisitStrong(l formula.Lit) VisitResult
	VisitWeak(l formula.Lit) VisitResult
}

// Graph is immutable after Build. Nodes are literals; edges record forced
// (strong) and conditionally forced (weak) literals.
type Graph struct {
	vars   int
	core   []formula.Lit
	strong [][]formula.Lit
	weak   [][]formula.Lit
}

func index(l formula.Lit) int {
	if l > 0 {
		return 2 * (int(l) - 1)
	}
	return 2*(int(-l)-1) + 1
}

// Build constructs the implication graph for a formula. A binary clause
// (a or b) yields the strong edges not(a)->b and not(b)->a; a longer clause
// yields weak edges from the negation of each member to every other member.
// Unit clauses become core literals forced in every traversal.
func Build(cnf *formula.CNF) *Graph {
	g := &Graph{
		vars:   cnf.VariableCount(),
		strong: make([][]formula.Lit, 2*cnf.VariableCount()),
		weak:   make([][]formula.Lit, 2*cnf.VariableCount()),
	}
	for _, clause := range cnf.Clauses() {
		switch len(clause) {
		case 0:
		case 1:
			g.core = append(g.core, clause[0])
		case 2:
			g.addStrong(clause[0].Neg(), clause[1])
			g.addStrong(clause[1].Neg(), clause[0])
		default:
			for i, x := range clause {
				from := index(x.Neg())
				for j, y := range clause {
					if i != j {
						g.weak[from] = append(g.weak[from], y)
					}
				}
			}
		}
	}
	return g
}

func (g *Graph) addStrong(from, to formula.Lit) {
	i := index(from)
	for _, l := range g.strong[i] {
		if l == to {
			return
		}
	}
	g.strong[i] = append(g.strong[i], to)
}

// VariableCount returns the number of variables the graph was built for.
func (g *Graph) VariableCount() int {
	return g.vars
}

// Traverse propagates from every literal of the assignment to a fixpoint.
// Strong edges are followed transitively; weak edges are surfaced once per
// literal for the visitor to veto or accept. Reaching the negation of an
// already-decided literal over a strong path is a contradiction. Returns
// false if the traversal was cancelled.
func (g *Graph) Traverse(a formula.Assignment, v Visitor) bool {
	values := make([]formula.Lit, g.vars+1)
	queue := make([]formula.Lit, 0, a.Len()+len(g.core))
	for _, l := range a.Lits() {
		if m := values[l.Var()]; m != 0 && m != l {
			return false
		}
		values[l.Var()] = l
		queue = append(queue, l)
	}
	for _, l := range g.core {
		switch values[l.Var()] {
		case 0:
			switch v.VisitStrong(l) {
			case VisitCancel:
				return false
			case VisitSkip:
			case VisitSelect:
				values[l.Var()] = l
			default:
				values[l.Var()] = l
				queue = append(queue, l)
			}
		case l:
		default:
			return false
		}
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, l := range g.strong[index(cur)] {
			switch values[l.Var()] {
			case l:
				continue
			case 0:
			default:
				// Strong closure forces both polarities.
				return false
			}
			switch v.VisitStrong(l) {
			case VisitCancel:
				return false
			case VisitSkip:
			case VisitSelect:
				values[l.Var()] = l
			default:
				values[l.Var()] = l
				queue = append(queue, l)
			}
		}
		for _, l := range g.weak[index(cur)] {
			if values[l.Var()] != 0 {
				continue
			}
			switch v.VisitWeak(l) {
			case VisitCancel:
				return false
			case VisitSkip:
			default:
				// Weak conclusions are not followed transitively.
				values[l.Var()] = l
			}
		}
	}
	return true
}

// collector gathers strong conclusions and ignores weak ones.
type collector struct {
	forced []formula.Lit
}

func (c *collector) VisitStrong(l formula.Lit) VisitResult {
	c.forced = append(c.forced, l)
	return VisitContinue
}

func (c *collector) VisitWeak(formula.Lit) VisitResult {
	return VisitSkip
}

// CollectStrong returns the literals unconditionally forced by the given
// assignment, or ok=false if the assignment contradicts the graph's strong
// structure.
func (g *Graph) CollectStrong(a formula.Assignment) ([]formula.Lit, bool) {
	c := &collector{}
	if !g.Traverse(a, c) {
		return nil, false
	}
	return c.forced, true
}

// Consistent reports whether the assignment is consistent with the graph's
// unconditional structure.
func (g *Graph) Consistent(a formula.Assignment) bool {
	_, ok := g.CollectStrong(a)
	return ok
}
