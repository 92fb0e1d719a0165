package twise

import (
	"github.com/sirupsen/logrus"

	"github.com/featkit/twise/pkg/formula"
	"github.com/featkit/twise/pkg/mig"
	"github.com/featkit/twise/pkg/solver"
)

// Solver is the decision procedure consulted as a last resort when covering
// a combination. Implementations answer whether the formula has a satisfying
// assignment containing the given literals.
type Solver interface {
	Satisfiable(assumptions []formula.Lit) solver.Result
	Model() formula.Assignment
}

// candidate pairs a combination's sorted literal view with a configuration
// that might absorb it.
type candidate struct {
	lits formula.Assignment
	conf *Configuration
}

// pool owns every configuration of the sample in progress, split into
// complete (all variables decided) and incomplete lists.
type pool struct {
	vars          int
	complete      []*Configuration
	incomplete    []*Configuration
	graph         *mig.Graph
	sat           Solver
	maxSampleSize int
	log           logrus.FieldLogger
}

func newPool(vars int, graph *mig.Graph, sat Solver, maxSampleSize int, log logrus.FieldLogger) *pool {
	return &pool{
		vars:          vars,
		graph:         graph,
		sat:           sat,
		maxSampleSize: maxSampleSize,
		log:           log,
	}
}

func (p *pool) hasSolver() bool {
	return p.sat != nil
}

func (p *pool) size() int {
	return len(p.complete) + len(p.incomplete)
}

// isCovered returns true if some configuration already contains every
// literal of the combination.
func (p *pool) isCovered(combo formula.Assignment) bool {
	for _, c := range p.complete {
		if c.ContainsAll(combo) {
			return true
		}
	}
	for _, c := range p.incomplete {
		if c.ContainsAll(combo) {
			return true
		}
	}
	return false
}

// initCandidates collects the incomplete configurations compatible with the
// combination, in list order. Extension attempts try candidates
// first-compatible-first.
func (p *pool) initCandidates(combo formula.Assignment, dst []candidate) []candidate {
	dst = dst[:0]
	for _, c := range p.incomplete {
		if c.CompatibleWith(combo) {
			dst = append(dst, candidate{lits: combo, conf: c})
		}
	}
	return dst
}

// extension computes the literals that extending conf by the combination
// would add: the combination itself plus everything the implication graph
// forces. Returns ok=false if the extension is inconsistent with the graph's
// unconditional structure.
func (p *pool) extension(conf *Configuration, combo formula.Assignment) ([]formula.Lit, bool) {
	if !conf.CompatibleWith(combo) {
		return nil, false
	}
	add := make([]formula.Lit, 0, combo.Len())
	for _, l := range combo.Lits() {
		if !conf.Contains(l) {
			add = append(add, l)
		}
	}
	if p.graph == nil {
		return add, true
	}
	base, ok := conf.Assignment().Merge(combo)
	if !ok {
		return nil, false
	}
	forced, ok := p.graph.CollectStrong(base)
	if !ok {
		return nil, false
	}
	for _, l := range forced {
		if m := conf.Get(l.Var()); m == 0 && combo.Get(l.Var()) == 0 {
			add = append(add, l)
		} else if m == l.Neg() || combo.Get(l.Var()) == l.Neg() {
			return nil, false
		}
	}
	return add, true
}

// commit applies an extension atomically and re-files the configuration if
// it became complete.
func (p *pool) commit(conf *Configuration, add []formula.Lit) {
	for _, l := range add {
		conf.set(l)
	}
	if !conf.Complete() {
		return
	}
	for i, c := range p.incomplete {
		if c == conf {
			p.incomplete = append(p.incomplete[:i], p.incomplete[i+1:]...)
			p.complete = append(p.complete, conf)
			return
		}
	}
}

// coverDeduce tries to extend a candidate using the implication graph alone.
// The first candidate whose extension stays consistent commits.
func (p *pool) coverDeduce(candidates []candidate) bool {
	if p.graph == nil {
		return false
	}
	for _, cand := range candidates {
		if add, ok := p.extension(cand.conf, cand.lits); ok {
			p.commit(cand.conf, add)
			return true
		}
	}
	return false
}

// removeInvalid returns true if the combination itself is inconsistent with
// the formula, independent of any configuration. The implication graph is
// consulted first; the decision procedure settles what the graph cannot.
func (p *pool) removeInvalid(combo formula.Assignment) bool {
	if p.graph != nil && !p.graph.Consistent(combo) {
		return true
	}
	if p.sat != nil && p.sat.Satisfiable(combo.Lits()) == solver.Unsat {
		return true
	}
	return false
}

// coverSolver asks the decision procedure, per candidate, whether the
// extension is satisfiable. The first provable extension commits. Unknown
// verdicts (timeouts) count as failures.
func (p *pool) coverSolver(candidates []candidate) bool {
	if p.sat == nil {
		return false
	}
	var assumptions []formula.Lit
	for _, cand := range candidates {
		assumptions = assumptions[:0]
		assumptions = append(assumptions, cand.conf.Assignment().Lits()...)
		for _, l := range cand.lits.Lits() {
			if !cand.conf.Contains(l) {
				assumptions = append(assumptions, l)
			}
		}
		if p.sat.Satisfiable(assumptions) != solver.Sat {
			continue
		}
		if add, ok := p.extension(cand.conf, cand.lits); ok {
			p.commit(cand.conf, add)
			return true
		}
	}
	return false
}

// coverUnchecked is the degraded mode used when no decision procedure is
// available: the first syntactically compatible candidate absorbs the
// combination without verification.
func (p *pool) coverUnchecked(candidates []candidate) bool {
	for _, cand := range candidates {
		if add, ok := p.extension(cand.conf, cand.lits); ok {
			p.commit(cand.conf, add)
			return true
		}
	}
	return false
}

// newConfiguration creates and registers a configuration seeded from the
// combination. It returns nil only when the sample size cap is reached.
func (p *pool) newConfiguration(seed formula.Assignment) *Configuration {
	if p.size() >= p.maxSampleSize {
		p.log.WithField("max", p.maxSampleSize).Debug("sample size cap reached")
		return nil
	}
	conf := newConfiguration(p.vars)
	add := seed.Lits()
	if p.graph != nil {
		if ext, ok := p.extension(conf, seed); ok {
			add = ext
		}
	}
	for _, l := range add {
		conf.set(l)
	}
	if conf.Complete() {
		p.complete = append(p.complete, conf)
	} else {
		p.incomplete = append(p.incomplete, conf)
	}
	return conf
}

// result returns the current sample, complete configurations first.
func (p *pool) result() []*Configuration {
	out := make([]*Configuration, 0, p.size())
	out = append(out, p.complete...)
	out = append(out, p.incomplete...)
	return out
}

// replace rebuilds the pool's lists from the kept configurations.
func (p *pool) replace(kept []*Configuration) {
	p.complete = p.complete[:0]
	p.incomplete = p.incomplete[:0]
	for _, c := range kept {
		if c.Complete() {
			p.complete = append(p.complete, c)
		} else {
			p.incomplete = append(p.incomplete, c)
		}
	}
}
