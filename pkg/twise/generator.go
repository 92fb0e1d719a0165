// Package twise generates small samples of configurations for a
// propositional feature model such that every satisfiable combination of t
// literals appears in at least one configuration.
package twise

import (
	"context"
	"math"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/featkit/twise/pkg/formula"
	"github.com/featkit/twise/pkg/mig"
	"github.com/featkit/twise/pkg/solver"
)

const (
	DefaultT                = 2
	DefaultIterations       = 5
	DefaultRandomSampleSize = 100

	// progress is logged and cancellation checked every this many
	// combinations.
	checkInterval = 256
)

// Observer receives progress events from the sampling loop. Implementations
// are called from the sampling goroutine and must not block.
type Observer interface {
	CombinationProcessed(status Status)
	SampleSize(n int)
}

// randomSampler is implemented by decision procedures that can bootstrap a
// history of random models.
type randomSampler interface {
	RandomSample(n int, rng *rand.Rand) []formula.Assignment
}

// Generator drives the iterative refinement loop: enumerate all
// combinations, cover each through the pool, trim weak configurations
// between passes, and keep the smallest sample seen.
type Generator struct {
	cnf    *formula.CNF
	groups []Group

	t                int
	iterations       int
	maxSampleSize    int
	randomSampleSize int
	useMIG           bool
	seed             int64
	timeout          time.Duration
	logFrequency     int64

	rng     *rand.Rand
	sat     Solver
	graph   *mig.Graph
	pool    *pool
	manager *conditionManager
	log     logrus.FieldLogger
	obs     Observer

	combinations int64
	processed    int64
	covered      int64
	invalid      int64

	cur   []*Configuration
	best  []*Configuration
	built bool
}

// Option configures a Generator.
type Option func(*Generator) error

// WithT sets the target combination size.
func WithT(t int) Option {
	return func(g *Generator) error {
		if t < 1 {
			return errors.Errorf("combination size must be positive, got %d", t)
		}
		g.t = t
		return nil
	}
}

// WithIterations sets the number of refinement passes. The loop always runs
// exactly this many passes.
func WithIterations(n int) Option {
	return func(g *Generator) error {
		if n < 1 {
			return errors.Errorf("iteration count must be positive, got %d", n)
		}
		g.iterations = n
		return nil
	}
}

// WithMaxSampleSize caps the number of configurations. Once reached,
// combinations that no existing configuration can absorb stay uncovered.
func WithMaxSampleSize(n int) Option {
	return func(g *Generator) error {
		if n < 1 {
			return errors.Errorf("max sample size must be positive, got %d", n)
		}
		g.maxSampleSize = n
		return nil
	}
}

// WithRandomSampleSize sets the size of the random model bootstrap.
func WithRandomSampleSize(n int) Option {
	return func(g *Generator) error {
		if n < 0 {
			return errors.Errorf("negative random sample size %d", n)
		}
		g.randomSampleSize = n
		return nil
	}
}

// WithMIG enables or disables implication-graph deduction.
func WithMIG(use bool) Option {
	return func(g *Generator) error {
		g.useMIG = use
		return nil
	}
}

// WithSeed fixes the random seed. The whole run is deterministic for a
// fixed formula, fixed parameters and fixed seed.
func WithSeed(seed int64) Option {
	return func(g *Generator) error {
		g.seed = seed
		return nil
	}
}

// WithNodes sets the grouped presence conditions defining the combination
// universe. The default is a single group holding both polarities of every
// variable.
func WithNodes(groups []Group) Option {
	return func(g *Generator) error {
		if len(groups) == 0 {
			return errors.New("at least one condition group is required")
		}
		g.groups = groups
		return nil
	}
}

// WithSolver injects a decision procedure, replacing the built-in gini
// adapter.
func WithSolver(s Solver) Option {
	return func(g *Generator) error {
		g.sat = s
		return nil
	}
}

// WithSolverTimeout bounds each query of the built-in decision procedure.
func WithSolverTimeout(d time.Duration) Option {
	return func(g *Generator) error {
		if d < 0 {
			return errors.Errorf("negative solver timeout %s", d)
		}
		g.timeout = d
		return nil
	}
}

// WithLogger sets the logger for progress and debug output.
func WithLogger(log logrus.FieldLogger) Option {
	return func(g *Generator) error {
		g.log = log
		return nil
	}
}

// WithObserver registers a progress observer, e.g. prometheus metrics.
func WithObserver(obs Observer) Option {
	return func(g *Generator) error {
		g.obs = obs
		return nil
	}
}

// NewGenerator returns a generator for the given formula.
func NewGenerator(cnf *formula.CNF, options ...Option) (*Generator, error) {
	g := &Generator{
		cnf:              cnf,
		t:                DefaultT,
		iterations:       DefaultIterations,
		maxSampleSize:    math.MaxInt,
		randomSampleSize: DefaultRandomSampleSize,
		useMIG:           true,
		logFrequency:     1 << 16,
		log:              logrus.StandardLogger(),
	}
	for _, opt := range options {
		if err := opt(g); err != nil {
			return nil, err
		}
	}
	if g.groups == nil {
		g.groups = ConvertLiterals(cnf.Literals())
	}
	g.rng = rand.New(rand.NewSource(g.seed))
	return g, nil
}

// Build runs the refinement loop. It must be called exactly once before
// Get. Cancellation through the context stops cleanly between combinations;
// no partially applied extension is retained.
func (g *Generator) Build(ctx context.Context) error {
	if g.built {
		return errors.New("generator already built")
	}
	g.built = true

	hasClauses := len(g.cnf.Clauses()) > 0
	if g.sat == nil && hasClauses {
		s, err := solver.New(g.cnf, solver.WithTimeout(g.timeout), solver.WithLogger(g.log))
		if err != nil {
			return errors.Wrap(err, "constructing decision procedure")
		}
		g.sat = s
	}
	if rs, ok := g.sat.(randomSampler); ok && g.randomSampleSize > 0 {
		g.log.WithField("size", g.randomSampleSize).Debug("computing random bootstrap sample")
		rs.RandomSample(g.randomSampleSize, g.rng)
	}
	if g.useMIG && hasClauses {
		g.log.Debug("building implication graph")
		g.graph = mig.Build(g.cnf)
	}
	g.pool = newPool(g.cnf.VariableCount(), g.graph, g.sat, g.maxSampleSize, g.log)
	g.manager = newConditionManager(g.groups)

	strat := &coverAll{pool: g.pool}
	for i := 0; i < g.iterations; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		g.trim()
		if err := g.buildPass(ctx, strat, i); err != nil {
			return err
		}
	}

	for i, j := 0, len(g.best)-1; i < j; i, j = i+1, j-1 {
		g.best[i], g.best[j] = g.best[j], g.best[i]
	}
	return nil
}

// Verified reports whether coverage was checked against a decision
// procedure. Samples generated without one (a formula with no clauses) are
// explicitly weaker.
func (g *Generator) Verified() bool {
	return g.sat != nil
}

// Get pops one configuration from the best-known sample, or reports
// exhaustion.
func (g *Generator) Get() (formula.Assignment, bool) {
	if len(g.best) == 0 {
		return formula.Assignment{}, false
	}
	c := g.best[len(g.best)-1]
	g.best = g.best[:len(g.best)-1]
	return c.Assignment(), true
}

// SampleSize returns the number of configurations remaining in the best
// sample.
func (g *Generator) SampleSize() int {
	return len(g.best)
}

// Combinations returns the total combination count of the current pass.
// Safe to read from any goroutine.
func (g *Generator) Combinations() int64 { return atomic.LoadInt64(&g.combinations) }

// Processed returns the number of combinations processed in the current
// pass. Safe to read from any goroutine.
func (g *Generator) Processed() int64 { return atomic.LoadInt64(&g.processed) }

// CoveredCount returns the number of covered combinations in the current
// pass. Safe to read from any goroutine.
func (g *Generator) CoveredCount() int64 { return atomic.LoadInt64(&g.covered) }

// InvalidCount returns the number of invalid combinations in the current
// pass. Safe to read from any goroutine.
func (g *Generator) InvalidCount() int64 { return atomic.LoadInt64(&g.invalid) }

// trim drops every configuration whose coverage score falls below the mean
// score of the pass. Ties with the mean are kept.
func (g *Generator) trim() {
	if len(g.cur) == 0 {
		return
	}
	configs := g.pool.result()
	scores := coverageScores(configs, NewSupplier(g.t, g.manager.groups))
	mean := 0.0
	for _, s := range scores {
		mean += s
	}
	mean /= float64(len(scores))

	kept := configs[:0]
	for i, c := range configs {
		c.score = scores[i]
		if scores[i] >= mean {
			kept = append(kept, c)
		}
	}
	g.log.WithFields(logrus.Fields{
		"mean":    mean,
		"kept":    len(kept),
		"dropped": len(configs) - len(kept),
	}).Debug("trimmed sample")
	g.pool.replace(kept)
}

func (g *Generator) buildPass(ctx context.Context, strat strategy, pass int) error {
	g.manager.shuffleSort(g.rng)
	sup := NewSupplier(g.t, g.manager.groups)
	atomic.StoreInt64(&g.combinations, sup.Size())
	atomic.StoreInt64(&g.processed, 0)
	atomic.StoreInt64(&g.covered, 0)
	atomic.StoreInt64(&g.invalid, 0)

	for {
		combo, ok := sup.Next()
		if !ok {
			break
		}
		st := strat.cover(combo)
		switch st {
		case Covered:
			atomic.AddInt64(&g.covered, 1)
		case Invalid:
			atomic.AddInt64(&g.invalid, 1)
		}
		n := atomic.AddInt64(&g.processed, 1)
		if g.obs != nil {
			g.obs.CombinationProcessed(st)
		}
		if n%checkInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if g.logFrequency > 0 && n%g.logFrequency == 0 {
			g.log.WithFields(logrus.Fields{
				"pass":      pass,
				"processed": n,
				"of":        sup.Size(),
				"covered":   g.CoveredCount(),
				"invalid":   g.InvalidCount(),
				"sample":    g.pool.size(),
			}).Debug("sampling progress")
		}
	}

	g.cur = g.pool.result()
	if g.best == nil || len(g.cur) < len(g.best) {
		g.best = make([]*Configuration, 0, len(g.cur))
		for _, c := range g.cur {
			g.best = append(g.best, c.Clone())
		}
	}
	if g.obs != nil {
		g.obs.SampleSize(len(g.cur))
	}
	g.log.WithFields(logrus.Fields{
		"pass":    pass,
		"sample":  len(g.cur),
		"best":    len(g.best),
		"covered": g.CoveredCount(),
		"invalid": g.InvalidCount(),
	}).Debug("pass finished")
	return nil
}
