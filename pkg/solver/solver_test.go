package solver

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/featkit/twise/pkg/formula"
)

func TestSatisfiable(t *testing.T) {
	// (1 or 2) and (-1 or 2)
	cnf := formula.New(2, []formula.Clause{{1, 2}, {-1, 2}})
	s, err := New(cnf)
	require.NoError(t, err)

	assert.Equal(t, Sat, s.Satisfiable(nil))
	assert.Equal(t, Sat, s.Satisfiable([]formula.Lit{2}))
	assert.Equal(t, Unsat, s.Satisfiable([]formula.Lit{-2}))
	assert.Equal(t, Unsat, s.Satisfiable([]formula.Lit{1, -2}))
	assert.False(t, s.TimedOut())
}

func TestSatisfiableConflictingAssumptions(t *testing.T) {
	cnf := formula.New(1, []formula.Clause{{1}})
	s, err := New(cnf)
	require.NoError(t, err)

	assert.Equal(t, Unsat, s.Satisfiable([]formula.Lit{1, -1}))
}

func TestModel(t *testing.T) {
	cnf := formula.New(2, []formula.Clause{{1}, {-1, 2}})
	s, err := New(cnf)
	require.NoError(t, err)

	require.Equal(t, Sat, s.Satisfiable(nil))
	m := s.Model()
	assert.Equal(t, 2, m.Len())
	assert.True(t, m.Contains(1))
	assert.True(t, m.Contains(2))
}

func TestTrivialContradiction(t *testing.T) {
	cnf := formula.New(2, []formula.Clause{{1}, {}})
	s, err := New(cnf)
	require.NoError(t, err)

	assert.True(t, s.TrivialContradiction())
	// Every query short-circuits without touching gini.
	assert.Equal(t, Unsat, s.Satisfiable(nil))
	assert.Equal(t, Unsat, s.Satisfiable([]formula.Lit{1}))
	assert.Zero(t, s.Model().Len())
}

func TestSolutionHistoryShortCircuit(t *testing.T) {
	cnf := formula.New(3, []formula.Clause{{1, 2, 3}})
	s, err := New(cnf)
	require.NoError(t, err)

	require.Equal(t, Sat, s.Satisfiable([]formula.Lit{1, 2, 3}))
	require.Len(t, s.history, 1)

	// A subset of a remembered solution is answered from the history.
	require.Equal(t, Sat, s.Satisfiable([]formula.Lit{2}))
	assert.Len(t, s.history, 1)
	assert.True(t, s.Model().Contains(2))
}

func TestHistoryEviction(t *testing.T) {
	cnf := formula.New(2, nil)
	s, err := New(cnf, WithHistory(1))
	require.NoError(t, err)

	require.Equal(t, Sat, s.Satisfiable([]formula.Lit{1, 2}))
	require.Equal(t, Sat, s.Satisfiable([]formula.Lit{-1, -2}))
	require.Len(t, s.history, 1)
	assert.True(t, s.history[0].Contains(-1))
}

func TestRandomSampleDeterministic(t *testing.T) {
	cnf := formula.New(4, []formula.Clause{{1, 2}, {-2, 3}})

	run := func() []formula.Assignment {
		s, err := New(cnf)
		require.NoError(t, err)
		return s.RandomSample(10, rand.New(rand.NewSource(42)))
	}

	first := run()
	second := run()
	require.NotEmpty(t, first)
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Lits(), second[i].Lits())
	}
}

func TestRandomSampleTrivialContradiction(t *testing.T) {
	cnf := formula.New(2, []formula.Clause{{}})
	s, err := New(cnf)
	require.NoError(t, err)

	assert.Empty(t, s.RandomSample(5, rand.New(rand.NewSource(0))))
}
