package twise

import (
	"github.com/featkit/twise/pkg/formula"
)

// Supplier produces the lazy, finite sequence of literal combinations to be
// covered. The sequence is not restartable. A combination whose conditions
// conflict on some variable is emitted as an empty assignment and counted
// invalid by the caller.
type Supplier interface {
	Next() (formula.Assignment, bool)
	Size() int64
}

// NewSupplier returns the enumerator for all combinations of size t over the
// grouped presence conditions. A single group enumerates index combinations
// within the group; multiple groups are merged so that every way of
// distributing t across the groups is produced, interleaved round-robin to
// avoid bias toward the largest group.
func NewSupplier(t int, groups []Group) Supplier {
	if len(groups) == 1 {
		return newSingleSupplier(t, groups[0])
	}
	return newMergeSupplier(t, groups)
}

func binomial(n, t int) int64 {
	if t < 0 || t > n {
		return 0
	}
	if t > n-t {
		t = n - t
	}
	r := int64(1)
	for i := 1; i <= t; i++ {
		r = r * int64(n-t+i) / int64(i)
	}
	return r
}

// mergeConditions merges one candidate of each condition into a single
// sorted assignment, trying candidates in order and keeping the first
// conflict-free choice. Returns an empty assignment if every choice
// conflicts.
func mergeConditions(conds []*PresenceCondition) formula.Assignment {
	var rec func(i int, acc formula.Assignment) (formula.Assignment, bool)
	rec = func(i int, acc formula.Assignment) (formula.Assignment, bool) {
		if i == len(conds) {
			return acc, true
		}
		for _, cand := range conds[i].Candidates {
			if merged, ok := acc.Merge(cand); ok {
				if res, ok := rec(i+1, merged); ok {
					return res, true
				}
			}
		}
		return formula.Assignment{}, false
	}
	res, ok := rec(0, formula.Assignment{})
	if !ok {
		return formula.Assignment{}
	}
	return res.Sorted()
}

// comboIter steps through the index combinations of t positions out of n in
// standard n-choose-t order.
type comboIter struct {
	n, t int
	idx  []int
}

func newComboIter(n, t int) *comboIter {
	c := &comboIter{n: n, t: t, idx: make([]int, t)}
	c.reset()
	return c
}

func (c *comboIter) reset() {
	for i := range c.idx {
		c.idx[i] = i
	}
}

// advance moves to the next combination, returning false after wrapping
// around to the first one.
func (c *comboIter) advance() bool {
	i := c.t - 1
	for i >= 0 && c.idx[i] == c.n-c.t+i {
		i--
	}
	if i < 0 {
		c.reset()
		return false
	}
	c.idx[i]++
	for j := i + 1; j < c.t; j++ {
		c.idx[j] = c.idx[j-1] + 1
	}
	return true
}

type singleSupplier struct {
	group Group
	iter  *comboIter
	conds []*PresenceCondition
	size  int64
	done  bool
}

func newSingleSupplier(t int, group Group) *singleSupplier {
	s := &singleSupplier{
		group: group,
		size:  binomial(len(group), t),
		conds: make([]*PresenceCondition, t),
	}
	if s.size == 0 {
		s.done = true
		return s
	}
	s.iter = newComboIter(len(group), t)
	return s
}

func (s *singleSupplier) Next() (formula.Assignment, bool) {
	if s.done {
		return formula.Assignment{}, false
	}
	for i, p := range s.iter.idx {
		s.conds[i] = s.group[p]
	}
	combo := mergeConditions(s.conds)
	if !s.iter.advance() {
		s.done = true
	}
	return combo, true
}

func (s *singleSupplier) Size() int64 {
	return s.size
}

// distSupplier enumerates the cross product of within-group index
// combinations for one fixed distribution of t across the groups.
type distSupplier struct {
	groups []Group
	dist   []int
	iters  []*comboIter
	size   int64
	first  bool
	done   bool
}

func newDistSupplier(groups []Group, dist []int) *distSupplier {
	d := &distSupplier{groups: groups, dist: dist, first: true, size: 1}
	for i, g := range groups {
		d.size *= binomial(len(g), dist[i])
		if dist[i] > 0 {
			d.iters = append(d.iters, newComboIter(len(g), dist[i]))
		} else {
			d.iters = append(d.iters, nil)
		}
	}
	if d.size == 0 {
		d.done = true
	}
	return d
}

func (d *distSupplier) next() (formula.Assignment, bool) {
	if d.done {
		return formula.Assignment{}, false
	}
	if !d.first && !d.advance() {
		d.done = true
		return formula.Assignment{}, false
	}
	d.first = false
	var conds []*PresenceCondition
	for i, it := range d.iters {
		if it == nil {
			continue
		}
		for _, p := range it.idx {
			conds = append(conds, d.groups[i][p])
		}
	}
	return mergeConditions(conds), true
}

func (d *distSupplier) advance() bool {
	for _, it := range d.iters {
		if it == nil {
			continue
		}
		if it.advance() {
			return true
		}
		// wrapped, carry into the next group
	}
	return false
}

type mergeSupplier struct {
	subs []*distSupplier
	cur  int
	size int64
}

func newMergeSupplier(t int, groups []Group) *mergeSupplier {
	m := &mergeSupplier{}
	dist := make([]int, len(groups))
	var gen func(i, left int)
	gen = func(i, left int) {
		if i == len(groups) {
			if left == 0 {
				sub := newDistSupplier(groups, append([]int(nil), dist...))
				if sub.size > 0 {
					m.subs = append(m.subs, sub)
					m.size += sub.size
				}
			}
			return
		}
		max := left
		if n := len(groups[i]); n < max {
			max = n
		}
		for d := 0; d <= max; d++ {
			dist[i] = d
			gen(i+1, left-d)
		}
		dist[i] = 0
	}
	gen(0, t)
	return m
}

func (m *mergeSupplier) Next() (formula.Assignment, bool) {
	for len(m.subs) > 0 {
		if m.cur >= len(m.subs) {
			m.cur = 0
		}
		combo, ok := m.subs[m.cur].next()
		if !ok {
			m.subs = append(m.subs[:m.cur], m.subs[m.cur+1:]...)
			continue
		}
		m.cur++
		return combo, true
	}
	return formula.Assignment{}, false
}

func (m *mergeSupplier) Size() int64 {
	return m.size
}
