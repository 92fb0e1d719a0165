// Package solver adapts the gini SAT solver into the narrow decision
// procedure consulted by the sampler: "is this partial assignment extendable
// to a full satisfying assignment".
package solver

import (
	"math/rand"
	"time"

	"github.com/go-air/gini"
	"github.com/go-air/gini/z"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/featkit/twise/pkg/formula"
)

// Result is a three-valued satisfiability verdict, matching gini's coding.
type Result int

const (
	Unsat   Result = -1
	Unknown Result = 0
	Sat     Result = 1
)

func (r Result) String() string {
	switch r {
	case Unsat:
		return "unsat"
	case Sat:
		return "sat"
	}
	return "unknown"
}

const defaultHistorySize = 1000

// Solver answers extendability queries against a fixed formula. It keeps a
// bounded history of satisfying assignments so that repeated queries over
// literals already seen together avoid a solver call.
type Solver struct {
	g       *gini.Gini
	vars    int
	timeout time.Duration

	history   []formula.Assignment
	histCap   int
	lastModel formula.Assignment

	trivialContradiction bool
	timedOut             bool

	log logrus.FieldLogger
}

// Option configures a Solver.
type Option func(*Solver) error

// WithTimeout bounds each satisfiability query. Zero means no bound.
func WithTimeout(d time.Duration) Option {
	return func(s *Solver) error {
		if d < 0 {
			return errors.Errorf("negative solver timeout %s", d)
		}
		s.timeout = d
		return nil
	}
}

// WithHistory sets the number of remembered satisfying assignments.
func WithHistory(n int) Option {
	return func(s *Solver) error {
		if n < 0 {
			return errors.Errorf("negative history size %d", n)
		}
		s.histCap = n
		return nil
	}
}

// WithLogger sets the logger used for debug tracing of solver calls.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Solver) error {
		s.log = log
		return nil
	}
}

// New loads the formula's clauses into a fresh gini instance. An empty
// clause marks the formula trivially contradictory; every later query then
// short-circuits to Unsat without touching the solver.
func New(cnf *formula.CNF, options ...Option) (*Solver, error) {
	s := &Solver{
		g:       gini.NewV(cnf.VariableCount()),
		vars:    cnf.VariableCount(),
		histCap: defaultHistorySize,
		log:     logrus.StandardLogger(),
	}
	for _, opt := range options {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	for _, clause := range cnf.Clauses() {
		if len(clause) == 0 {
			s.trivialContradiction = true
			continue
		}
		for _, l := range clause {
			s.g.Add(z.Dimacs2Lit(int(l)))
		}
		s.g.Add(z.LitNull)
	}
	return s, nil
}

// TrivialContradiction reports whether the formula contains an empty clause.
func (s *Solver) TrivialContradiction() bool {
	return s.trivialContradiction
}

// TimedOut reports whether any query so far expired.
func (s *Solver) TimedOut() bool {
	return s.timedOut
}

// Satisfiable reports whether the formula has a satisfying assignment
// containing every given literal. The solution history is consulted first;
// on a genuine call a fresh model is recorded, evicting the oldest entry
// past the history bound. A timeout yields Unknown.
func (s *Solver) Satisfiable(assumptions []formula.Lit) Result {
	if s.trivialContradiction {
		s.lastModel = formula.Assignment{}
		return Unsat
	}

	want, ok := formula.NewAssignment(assumptions...)
	if !ok {
		return Unsat
	}
	for _, sol := range s.history {
		if sol.ContainsAll(want) {
			s.lastModel = sol
			return Sat
		}
	}

	for _, l := range assumptions {
		s.g.Assume(z.Dimacs2Lit(int(l)))
	}
	s.log.WithField("assumptions", len(assumptions)).Debug("calling sat solver")
	var r int
	if s.timeout > 0 {
		r = s.g.GoSolve().Try(s.timeout)
	} else {
		r = s.g.Solve()
	}
	switch Result(r) {
	case Sat:
		s.recordModel()
		return Sat
	case Unsat:
		s.lastModel = formula.Assignment{}
		return Unsat
	default:
		s.log.Debug("solver timeout occurred")
		s.timedOut = true
		s.lastModel = formula.Assignment{}
		return Unknown
	}
}

func (s *Solver) recordModel() {
	lits := make([]formula.Lit, 0, s.vars)
	for v := 1; v <= s.vars; v++ {
		if s.g.Value(z.Var(v).Pos()) {
			lits = append(lits, formula.Lit(v))
		} else {
			lits = append(lits, formula.Lit(-v))
		}
	}
	sol, _ := formula.NewAssignment(lits...)
	s.lastModel = sol
	if s.histCap == 0 {
		return
	}
	s.history = append(s.history, sol)
	if len(s.history) > s.histCap {
		s.history = s.history[1:]
	}
}

// Model returns the satisfying assignment found by the last successful
// query. The returned assignment is empty if the last query failed.
func (s *Solver) Model() formula.Assignment {
	return s.lastModel.Clone()
}

// RandomSample bootstraps the solution history with up to n models,
// diversified by assuming a handful of random-polarity literals per attempt.
// The result depends only on the given random source.
func (s *Solver) RandomSample(n int, rng *rand.Rand) []formula.Assignment {
	if s.trivialContradiction || s.vars == 0 {
		return nil
	}
	sample := make([]formula.Assignment, 0, n)
	width := 8
	if s.vars < width {
		width = s.vars
	}
	assumptions := make([]formula.Lit, 0, width)
	for i := 0; i < n; i++ {
		assumptions = assumptions[:0]
		for _, v := range rng.Perm(s.vars)[:width] {
			l := formula.Lit(v + 1)
			if rng.Intn(2) == 0 {
				l = l.Neg()
			}
			assumptions = append(assumptions, l)
		}
		if s.Satisfiable(assumptions) == Sat {
			sample = append(sample, s.Model())
		}
	}
	if len(sample) == 0 && s.Satisfiable(nil) == Sat {
		sample = append(sample, s.Model())
	}
	return sample
}
