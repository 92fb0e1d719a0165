package twise

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/featkit/twise/pkg/formula"
	"github.com/featkit/twise/pkg/solver"
)

func buildSample(t *testing.T, gen *Generator) []formula.Assignment {
	t.Helper()
	require.NoError(t, gen.Build(context.Background()))
	var sample []formula.Assignment
	for {
		conf, ok := gen.Get()
		if !ok {
			break
		}
		sample = append(sample, conf)
	}
	return sample
}

func sampleCovers(sample []formula.Assignment, combo formula.Assignment) bool {
	for _, conf := range sample {
		if conf.ContainsAll(combo) {
			return true
		}
	}
	return false
}

func TestGeneratorUnconstrainedPairwise(t *testing.T) {
	// Variables {A,B}, no clauses, T=2: the degraded no-solver path must
	// cover all four satisfiable pairs.
	cnf := formula.New(2, nil)
	gen, err := NewGenerator(cnf, WithT(2), WithSeed(1))
	require.NoError(t, err)

	sample := buildSample(t, gen)
	assert.False(t, gen.Verified())

	assert.Equal(t, int64(6), gen.Combinations())
	assert.Equal(t, int64(2), gen.InvalidCount())
	assert.Equal(t, gen.Combinations(), gen.Processed())
	assert.Equal(t, int64(4), gen.CoveredCount())

	for _, pair := range [][]formula.Lit{{1, 2}, {1, -2}, {-1, 2}, {-1, -2}} {
		combo, _ := formula.NewAssignment(pair...)
		assert.True(t, sampleCovers(sample, combo), "pair %v uncovered", pair)
	}
	// With two variables every pair is a full configuration, so covering
	// four pairs takes exactly four configurations.
	assert.Len(t, sample, 4)
}

func TestGeneratorSolverBacked(t *testing.T) {
	// (1 or 2) and (-1 or 3)
	cnf := formula.New(3, []formula.Clause{{1, 2}, {-1, 3}})
	gen, err := NewGenerator(cnf, WithT(2), WithSeed(0), WithRandomSampleSize(10))
	require.NoError(t, err)

	sample := buildSample(t, gen)
	assert.True(t, gen.Verified())
	require.NotEmpty(t, sample)

	// Every combination reached a terminal state.
	assert.Equal(t, gen.Combinations(), gen.CoveredCount()+gen.InvalidCount())

	// Coverage of every satisfiable pair, checked against a fresh solver.
	check, err := solver.New(cnf)
	require.NoError(t, err)
	for _, a := range []formula.Lit{1, -1, 2, -2, 3, -3} {
		for _, b := range []formula.Lit{1, -1, 2, -2, 3, -3} {
			if a.Var() >= b.Var() {
				continue
			}
			combo, ok := formula.NewAssignment(a, b)
			require.True(t, ok)
			if check.Satisfiable(combo.Lits()) == solver.Sat {
				assert.True(t, sampleCovers(sample, combo), "pair %v uncovered", combo)
			} else {
				assert.False(t, sampleCovers(sample, combo), "unsatisfiable pair %v in sample", combo)
			}
		}
	}
}

func TestGeneratorInvalidCombinationsExcluded(t *testing.T) {
	// 1 and 2 exclude each other.
	cnf := formula.New(2, []formula.Clause{{-1, -2}, {1, 2}})
	gen, err := NewGenerator(cnf, WithT(2), WithSeed(3))
	require.NoError(t, err)

	sample := buildSample(t, gen)
	bad, _ := formula.NewAssignment(1, 2)
	assert.False(t, sampleCovers(sample, bad))
	assert.Positive(t, gen.InvalidCount())
}

func TestGeneratorTrivialContradiction(t *testing.T) {
	cnf := formula.New(2, []formula.Clause{{1}, {}})
	gen, err := NewGenerator(cnf, WithT(1), WithSeed(0))
	require.NoError(t, err)

	sample := buildSample(t, gen)
	assert.Empty(t, sample)
	assert.Equal(t, gen.Combinations(), gen.InvalidCount())
}

func TestGeneratorUnknownSolverTerminates(t *testing.T) {
	// A decision procedure that times out on every call must not prevent
	// termination; coverage falls back to new configurations.
	cnf := formula.New(2, []formula.Clause{{1, 2}})
	gen, err := NewGenerator(cnf,
		WithT(2),
		WithSeed(0),
		WithSolver(&fakeSolver{result: solver.Unknown}),
		WithMIG(false),
	)
	require.NoError(t, err)

	sample := buildSample(t, gen)
	assert.NotEmpty(t, sample)
	assert.Equal(t, gen.Combinations(), gen.Processed())
}

func TestGeneratorMaxSampleSize(t *testing.T) {
	cnf := formula.New(3, nil)
	gen, err := NewGenerator(cnf, WithT(2), WithSeed(0), WithMaxSampleSize(1))
	require.NoError(t, err)

	sample := buildSample(t, gen)
	assert.Len(t, sample, 1)
	// Some combinations necessarily stay uncovered.
	assert.Less(t, gen.CoveredCount()+gen.InvalidCount(), gen.Combinations())
}

func TestGeneratorBuildOnce(t *testing.T) {
	cnf := formula.New(2, nil)
	gen, err := NewGenerator(cnf, WithT(2))
	require.NoError(t, err)

	require.NoError(t, gen.Build(context.Background()))
	assert.Error(t, gen.Build(context.Background()))
}

func TestGeneratorCancellation(t *testing.T) {
	cnf := formula.New(2, nil)
	gen, err := NewGenerator(cnf, WithT(2))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, gen.Build(ctx), context.Canceled)
}

func TestGeneratorDeterministicForSeed(t *testing.T) {
	cnf := formula.New(4, []formula.Clause{{1, 2}, {-2, 4}})

	run := func() []formula.Assignment {
		gen, err := NewGenerator(cnf, WithT(2), WithSeed(11), WithRandomSampleSize(5))
		require.NoError(t, err)
		return buildSample(t, gen)
	}

	first := run()
	second := run()
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Lits(), second[i].Lits())
	}
}

func TestGeneratorOptionValidation(t *testing.T) {
	cnf := formula.New(2, nil)

	_, err := NewGenerator(cnf, WithT(0))
	assert.Error(t, err)
	_, err = NewGenerator(cnf, WithIterations(0))
	assert.Error(t, err)
	_, err = NewGenerator(cnf, WithMaxSampleSize(0))
	assert.Error(t, err)
	_, err = NewGenerator(cnf, WithNodes(nil))
	assert.Error(t, err)
	_, err = NewGenerator(cnf, WithSolverTimeout(-1))
	assert.Error(t, err)
}

type countingObserver struct {
	processed int
	covered   int
	invalid   int
	sample    int
}

func (o *countingObserver) CombinationProcessed(status Status) {
	o.processed++
	switch status {
	case Covered:
		o.covered++
	case Invalid:
		o.invalid++
	}
}

func (o *countingObserver) SampleSize(n int) {
	o.sample = n
}

func TestGeneratorObserver(t *testing.T) {
	cnf := formula.New(2, nil)
	obs := &countingObserver{}
	gen, err := NewGenerator(cnf, WithT(2), WithIterations(1), WithObserver(obs))
	require.NoError(t, err)

	sample := buildSample(t, gen)
	assert.Equal(t, 6, obs.processed)
	assert.Equal(t, 2, obs.invalid)
	assert.Equal(t, 4, obs.covered)
	assert.Equal(t, len(sample), obs.sample)
}
