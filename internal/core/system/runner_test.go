package system

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type unit struct {
	name string
	deps []string
}

func (u unit) Name() string           { return u.name }
func (u unit) Dependencies() []string { return u.deps }

func newRunner(t *testing.T, units ...unit) *Runner[unit] {
	t.Helper()
	r := NewRunner[unit](nil)
	for _, u := range units {
		require.NoError(t, r.Register(u))
	}
	return r
}

func orderNames(r *Runner[unit]) []string {
	return namesOf(r.Order())
}

func TestFinalizeForwardReferences(t *testing.T) {
	r := newRunner(t,
		unit{"R", []string{"M"}},
		unit{"M", []string{"T", "P"}},
		unit{"P", []string{"T"}},
		unit{"T", nil},
	)
	require.NoError(t, r.Finalize())
	assert.Equal(t, []string{"T", "P", "M", "R"}, orderNames(r))
}

func TestFinalizeKeepsRegistrationOrderForIndependentUnits(t *testing.T) {
	r := newRunner(t, unit{"c", nil}, unit{"a", nil}, unit{"b", nil})
	require.NoError(t, r.Finalize())
	assert.Equal(t, []string{"c", "a", "b"}, orderNames(r))
}

func TestFinalizeTieBreakIsRegistrationOrder(t *testing.T) {
	// late and early both become ready when root runs; early was registered first.
	r := newRunner(t,
		unit{"early", []string{"root"}},
		unit{"other", nil},
		unit{"late", []string{"root"}},
		unit{"root", nil},
	)
	require.NoError(t, r.Finalize())
	assert.Equal(t, []string{"other", "root", "early", "late"}, orderNames(r))
}

func TestFinalizePrefersEarlierRegistrationOverReadiness(t *testing.T) {
	// c is ready from the start, b only after a; b still runs before c.
	r := newRunner(t,
		unit{"a", nil},
		unit{"b", []string{"a"}},
		unit{"c", nil},
	)
	require.NoError(t, r.Finalize())
	assert.Equal(t, []string{"a", "b", "c"}, orderNames(r))
}

func TestFinalizeRespectsEveryEdge(t *testing.T) {
	units := []unit{
		{"render", []string{"physics", "animation"}},
		{"animation", []string{"input"}},
		{"physics", []string{"input", "time"}},
		{"audio", []string{"physics"}},
		{"input", []string{"time"}},
		{"time", nil},
		{"ui", nil},
	}
	r := newRunner(t, units...)
	require.NoError(t, r.Finalize())

	pos := make(map[string]int)
	for i, name := range orderNames(r) {
		pos[name] = i
	}
	require.Len(t, pos, len(units))
	for _, u := range units {
		for _, dep := range u.deps {
			assert.Less(t, pos[dep], pos[u.name], "%s must run before %s", dep, u.name)
		}
	}
}

func TestFinalizeCircularDependency(t *testing.T) {
	r := newRunner(t, unit{"A", []string{"B"}}, unit{"B", []string{"A"}})

	err := r.Finalize()
	var circ *CircularDependencyError
	require.True(t, errors.As(err, &circ))
	assert.ElementsMatch(t, []string{"A", "B"}, circ.Cycle)
	assert.False(t, r.Finalized())
	assert.Nil(t, r.Order())
	assert.Equal(t, StatePending, r.State("A"))
}

func TestFinalizeCycleExcludesDownstreamUnits(t *testing.T) {
	r := newRunner(t,
		unit{"root", nil},
		unit{"x", []string{"root", "z"}},
		unit{"y", []string{"x"}},
		unit{"z", []string{"y"}},
		unit{"tail", []string{"z"}},
	)

	err := r.Finalize()
	var circ *CircularDependencyError
	require.True(t, errors.As(err, &circ))
	assert.Equal(t, []string{"x", "y", "z"}, circ.Cycle)
	assert.Equal(t, []string{"x", "y", "z", "tail"}, circ.Unresolved)
}

func TestFinalizeSelfDependency(t *testing.T) {
	r := newRunner(t, unit{"loop", []string{"loop"}}, unit{"fine", nil})

	err := r.Finalize()
	var circ *CircularDependencyError
	require.True(t, errors.As(err, &circ))
	assert.Equal(t, []string{"loop"}, circ.Cycle)
}

func TestFinalizeUnknownDependency(t *testing.T) {
	r := newRunner(t, unit{"a", nil}, unit{"b", []string{"a", "ghost"}})

	err := r.Finalize()
	var unknown *UnknownDependencyError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "ghost", unknown.Dependency)
	assert.Equal(t, "b", unknown.System)
	assert.False(t, r.Finalized())
}

func TestFinalizeResolvesAfterLateRegistration(t *testing.T) {
	r := newRunner(t, unit{"b", []string{"a"}})
	require.Error(t, r.Finalize())

	require.NoError(t, r.Register(unit{"a", nil}))
	require.NoError(t, r.Finalize())
	assert.Equal(t, []string{"a", "b"}, orderNames(r))
}

func TestRegisterAfterFinalizeReturnsToPending(t *testing.T) {
	r := newRunner(t, unit{"a", nil})
	require.NoError(t, r.Finalize())
	assert.Equal(t, StateOrdered, r.State("a"))

	require.NoError(t, r.Register(unit{"b", []string{"a"}}))
	assert.False(t, r.Finalized())
	assert.Equal(t, StatePending, r.State("a"))
	assert.Nil(t, r.Order())

	require.NoError(t, r.Finalize())
	assert.Equal(t, []string{"a", "b"}, orderNames(r))
}

func TestRegisterRejectsBadNames(t *testing.T) {
	r := NewRunner[unit](nil)
	assert.ErrorIs(t, r.Register(unit{"", nil}), ErrEmptySystemName)

	require.NoError(t, r.Register(unit{"a", nil}))
	assert.ErrorIs(t, r.Register(unit{"a", nil}), ErrDuplicateSystem)
	assert.Equal(t, []string{"a"}, r.Names())
	assert.Equal(t, StateUnknown, r.State("missing"))
}

func TestFinalizeIsStable(t *testing.T) {
	r := newRunner(t, unit{"b", []string{"a"}}, unit{"a", nil}, unit{"c", nil})
	require.NoError(t, r.Finalize())
	first := orderNames(r)
	require.NoError(t, r.Finalize())
	assert.Equal(t, first, orderNames(r))
}

func TestDuplicateDependenciesCountOnce(t *testing.T) {
	r := newRunner(t, unit{"b", []string{"a", "a"}}, unit{"a", nil})
	require.NoError(t, r.Finalize())
	assert.Equal(t, []string{"a", "b"}, orderNames(r))
}
