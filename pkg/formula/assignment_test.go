package formula

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAssignment(t *testing.T) {
	type tc struct {
		Name string
		Lits []Lit
		Want []Lit
		OK   bool
	}

	for _, tt := range []tc{
		{
			Name: "empty",
			OK:   true,
		},
		{
			Name: "distinct variables",
			Lits: []Lit{1, -2, 3},
			Want: []Lit{1, -2, 3},
			OK:   true,
		},
		{
			Name: "duplicate literal dropped",
			Lits: []Lit{1, 1, -2},
			Want: []Lit{1, -2},
			OK:   true,
		},
		{
			Name: "conflicting literal rejected",
			Lits: []Lit{1, -1},
			Want: []Lit{1},
			OK:   false,
		},
	} {
		t.Run(tt.Name, func(t *testing.T) {
			a, ok := NewAssignment(tt.Lits...)
			assert.Equal(t, tt.OK, ok)
			if tt.Want == nil {
				assert.Zero(t, a.Len())
				return
			}
			assert.Equal(t, tt.Want, a.Lits())
		})
	}
}

func TestAssignmentContainment(t *testing.T) {
	a, ok := NewAssignment(1, -2, 4)
	require.True(t, ok)

	assert.True(t, a.Contains(-2))
	assert.False(t, a.Contains(2))
	assert.False(t, a.Contains(3))
	assert.Equal(t, Lit(4), a.Get(4))
	assert.Equal(t, Lit(0), a.Get(3))

	sub, _ := NewAssignment(4, 1)
	assert.True(t, a.ContainsAll(sub))
	other, _ := NewAssignment(1, 2)
	assert.False(t, a.ContainsAll(other))
	assert.True(t, a.ConflictsWith(other))
	disjoint, _ := NewAssignment(3, -5)
	assert.False(t, a.ConflictsWith(disjoint))
}

func TestAssignmentMerge(t *testing.T) {
	a, _ := NewAssignment(1, -2)
	b, _ := NewAssignment(-2, 3)

	merged, ok := a.Merge(b)
	require.True(t, ok)
	assert.Equal(t, []Lit{1, -2, 3}, merged.Lits())

	conflicting, _ := NewAssignment(2)
	_, ok = a.Merge(conflicting)
	assert.False(t, ok)

	// the receiver is unchanged
	assert.Equal(t, []Lit{1, -2}, a.Lits())
}

func TestAssignmentSorted(t *testing.T) {
	a, _ := NewAssignment(4, -1, 3)
	assert.Equal(t, []Lit{-1, 3, 4}, a.Sorted().Lits())
	assert.Equal(t, []Lit{4, -1, 3}, a.Lits())
}

func TestAssignmentClone(t *testing.T) {
	a, _ := NewAssignment(1, 2)
	c := a.Clone()
	c.lits[0] = -1
	assert.Equal(t, Lit(1), a.lits[0])
}
