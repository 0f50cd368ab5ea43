package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect1[A handle[A]](q *Iter1[A]) []Entity {
	var out []Entity
	q.ForEach(func(e Entity, _ A) { out = append(out, e) })
	return out
}

func TestQueryIntersection(t *testing.T) {
	w := NewWorld()
	e := spawn(t, w, with(t, w, Position{X: 1}), with(t, w, Velocity{DX: 1}))
	f := spawn(t, w, with(t, w, Position{X: 2}))
	g := w.CreateEntity()

	var both []Entity
	Query2[Read[Position], Read[Velocity]](w).ForEach(func(id Entity, _ Read[Position], _ Read[Velocity]) {
		both = append(both, id)
	})
	assert.Equal(t, []Entity{e}, both)

	assert.ElementsMatch(t, []Entity{e, f}, collect1(Query1[Read[Position]](w)))

	var all []Entity
	Entities(w).ForEach(func(id Entity) { all = append(all, id) })
	assert.ElementsMatch(t, []Entity{e, f, g}, all)
}

func TestQueryDriverOrder(t *testing.T) {
	w := NewWorld()
	var want []Entity
	for i := 0; i < 4; i++ {
		want = append(want, spawn(t, w, with(t, w, Health{HP: i})))
	}
	assert.Equal(t, want, collect1(Query1[Read[Health]](w)))
}

func TestQueryFilters(t *testing.T) {
	w := NewWorld()
	moving := spawn(t, w, with(t, w, Position{}), with(t, w, Velocity{}))
	frozen := spawn(t, w, with(t, w, Position{}), with(t, w, Velocity{}), with(t, w, Frozen{}))
	spawn(t, w, with(t, w, Position{}))

	assert.Equal(t, []Entity{moving}, collect1(Query1[Read[Position]](w, With[Velocity](), Without[Frozen]())))
	assert.Equal(t, []Entity{frozen}, collect1(Query1[Read[Position]](w, With[Frozen]())))
	assert.Empty(t, collect1(Query1[Read[Position]](w, With[Health]())), "With on a type nobody holds matches nothing")
	assert.Len(t, collect1(Query1[Read[Position]](w, Without[Health]())), 3)
}

func TestQueryMissingStoreIsEmpty(t *testing.T) {
	w := NewWorld()
	spawn(t, w, with(t, w, Position{}))

	q := Query2[Read[Position], Write[Health]](w)
	assert.False(t, q.Next())
	q.Close()
	assert.Equal(t, 0, Query1[Read[Health]](w).Count())
}

func TestQueryWriteHandlesMutate(t *testing.T) {
	w := NewWorld()
	a := spawn(t, w, with(t, w, Position{X: 1}), with(t, w, Velocity{DX: 2, DY: 3}))
	b := spawn(t, w, with(t, w, Position{X: 10}), with(t, w, Velocity{DX: -1}))

	Query2[Write[Position], Read[Velocity]](w).ForEach(func(_ Entity, p Write[Position], v Read[Velocity]) {
		p.Get().X += v.Get().DX
		p.Get().Y += v.Get().DY
	})

	pa, _ := Get[Position](w, a)
	pb, _ := Get[Position](w, b)
	assert.Equal(t, Position{X: 3, Y: 3}, pa)
	assert.Equal(t, Position{X: 9}, pb)
}

func TestQueryBorrowsEndWithIteration(t *testing.T) {
	w := NewWorld()
	e := spawn(t, w, with(t, w, Position{}))
	spawn(t, w, with(t, w, Position{}))

	q := Query1[Write[Position]](w)
	require.True(t, q.Next())
	require.Equal(t, e, q.Entity())
	borrowConflict(t, func() { Get[Position](w, e) })

	require.True(t, q.Next())
	_, ok := Get[Position](w, e)
	assert.True(t, ok, "advancing releases the previous entity")

	q.Close()
	assert.False(t, q.Next(), "queries are single pass")
	assert.True(t, Update(w, e, func(p *Position) { p.X = 7 }))
}

func TestQueryReadAndWriteSameTypePanics(t *testing.T) {
	w := NewWorld()
	spawn(t, w, with(t, w, Position{}))

	assert.PanicsWithError(t, (&AccessConflictError{Component: "ecs.Position"}).Error(), func() {
		Query2[Read[Position], Write[Position]](w)
	})
	assert.NotPanics(t, func() {
		Query2[Read[Position], Read[Position]](w).Close()
	})
}

func TestQueryRemovalDuringIteration(t *testing.T) {
	w := NewWorld()
	var ids []Entity
	for i := 0; i < 6; i++ {
		ids = append(ids, spawn(t, w, with(t, w, Health{HP: i})))
	}

	var seen []Entity
	q := Query1[Read[Health]](w)
	for q.Next() {
		e, h := q.Get()
		seen = append(seen, e)
		if h.Get().HP == 1 {
			Remove[Health](w, ids[4])
		}
	}
	q.Close()

	assert.Equal(t, []Entity{ids[0], ids[1], ids[2], ids[3], ids[5]}, seen)
	assert.Equal(t, 5, Query1[Read[Health]](w).Count())
}

func TestQueryReAddDuringIterationIsNotRevisited(t *testing.T) {
	w := NewWorld()
	a := spawn(t, w, with(t, w, Position{X: 1}))
	b := spawn(t, w, with(t, w, Position{X: 2}))

	var seen []Entity
	q := Query1[Read[Position]](w)
	for q.Next() {
		e := q.Entity()
		seen = append(seen, e)
		if e == b {
			require.True(t, Remove[Position](w, a))
			require.NoError(t, Add(w, a, Position{X: 10}))
		}
	}
	q.Close()

	assert.Equal(t, []Entity{a, b}, seen)
	p, ok := Get[Position](w, a)
	require.True(t, ok)
	assert.Equal(t, Position{X: 10}, p)
}

func TestQueryRemovingCurrentEntityPanics(t *testing.T) {
	w := NewWorld()
	e := spawn(t, w, with(t, w, Health{}))

	q := Query1[Read[Health]](w)
	require.True(t, q.Next())
	err := borrowConflict(t, func() { w.DestroyEntity(e) })
	assert.Equal(t, "remove", err.Requested)
	q.Close()

	assert.True(t, w.DestroyEntity(e))
}

func TestQueryHigherArity(t *testing.T) {
	w := NewWorld()
	e := spawn(t, w,
		with(t, w, Position{}), with(t, w, Velocity{DX: 1}),
		with(t, w, Health{HP: 5}), with(t, w, Tag{Label: "p"}))
	spawn(t, w, with(t, w, Position{}), with(t, w, Velocity{}), with(t, w, Health{}))

	n := 0
	Query3[Read[Position], Read[Velocity], Write[Health]](w).ForEach(
		func(_ Entity, _ Read[Position], _ Read[Velocity], h Write[Health]) {
			h.Get().HP++
			n++
		})
	assert.Equal(t, 2, n)

	q := Query4[Read[Position], Read[Velocity], Read[Health], Read[Tag]](w)
	require.True(t, q.Next())
	id, _, v, h, tag := q.Get()
	assert.Equal(t, e, id)
	assert.Equal(t, 1, v.Get().DX)
	assert.Equal(t, 6, h.Get().HP)
	assert.Equal(t, "p", tag.Get().Label)
	assert.False(t, q.Next())
}

func TestEntitiesQueryFilters(t *testing.T) {
	w := NewWorld()
	a := spawn(t, w, with(t, w, Frozen{}))
	b := w.CreateEntity()

	var got []Entity
	Entities(w, Without[Frozen]()).ForEach(func(e Entity) { got = append(got, e) })
	assert.Equal(t, []Entity{b}, got)
	assert.Equal(t, 1, Entities(w, With[Frozen]()).Count())
	assert.NotEqual(t, a, b)
}

func TestEntitiesQueryToleratesDestroy(t *testing.T) {
	w := NewWorld()
	for i := 0; i < 5; i++ {
		w.CreateEntity()
	}
	q := Entities(w)
	n := 0
	for q.Next() {
		n++
		w.DestroyEntity(q.Entity())
	}
	assert.Equal(t, 5, n)
	assert.Equal(t, 0, w.EntityCount())
}
