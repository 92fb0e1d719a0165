package twise

import (
	"math/rand"
	"sort"

	"github.com/featkit/twise/pkg/formula"
)

// PresenceCondition is one unit of the combination universe: an ordered list
// of candidate assignments, any of which encodes the condition. Most
// conditions carry exactly one candidate (a single literal).
type PresenceCondition struct {
	Candidates []formula.Assignment
}

func (p *PresenceCondition) literalCount() int {
	n := 0
	for _, c := range p.Candidates {
		n += c.Len()
	}
	return n
}

// Group is an ordered list of presence conditions. Conditions within one
// group are combined with conditions of other groups, never with themselves
// when several groups exist.
type Group []*PresenceCondition

// LiteralCondition returns a condition holding a single literal.
func LiteralCondition(l formula.Lit) *PresenceCondition {
	a, _ := formula.NewAssignment(l)
	return &PresenceCondition{Candidates: []formula.Assignment{a}}
}

// ConvertLiterals wraps a flat literal set into a single group.
func ConvertLiterals(lits []formula.Lit) []Group {
	return ConvertGroupedLiterals([][]formula.Lit{lits})
}

// ConvertGroupedLiterals wraps grouped literal sets into condition groups.
func ConvertGroupedLiterals(grouped [][]formula.Lit) []Group {
	groups := make([]Group, 0, len(grouped))
	for _, lits := range grouped {
		group := make(Group, 0, len(lits))
		for _, l := range lits {
			group = append(group, LiteralCondition(l))
		}
		groups = append(groups, group)
	}
	return groups
}

// ConvertExpressions wraps a list of candidate assignments, one condition
// each, into a single group.
func ConvertExpressions(expressions []formula.Assignment) []Group {
	group := make(Group, 0, len(expressions))
	for _, e := range expressions {
		group = append(group, &PresenceCondition{Candidates: []formula.Assignment{e}})
	}
	return []Group{group}
}

// conditionManager owns the grouped presence conditions between refinement
// passes.
type conditionManager struct {
	groups []Group
}

func newConditionManager(groups []Group) *conditionManager {
	copied := make([]Group, len(groups))
	for i, g := range groups {
		copied[i] = append(Group(nil), g...)
	}
	return &conditionManager{groups: copied}
}

// shuffleSort shuffles every group with the run's random source and then
// stable-sorts it by a priority key, so ties break pseudo-randomly while a
// fixed seed reproduces the exact order.
func (m *conditionManager) shuffleSort(rng *rand.Rand) {
	for _, group := range m.groups {
		g := group
		rng.Shuffle(len(g), func(i, j int) { g[i], g[j] = g[j], g[i] })
		sort.SliceStable(g, func(i, j int) bool {
			if a, b := len(g[i].Candidates), len(g[j].Candidates); a != b {
				return a < b
			}
			return g[i].literalCount() > g[j].literalCount()
		})
	}
}
