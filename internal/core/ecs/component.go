package ecs

import (
	"reflect"

	"github.com/rotisserie/eris"
	"go.uber.org/multierr"
)

// Any Go value type can be a component. The interfaces below are optional
// capabilities the core looks for.

// Named overrides the component's lookup name. The default is the Go type's
// package-qualified name, e.g. "game.GridPosition".
type Named interface {
	ComponentName() string
}

// Validator lets a component reject itself. Components without it are always
// valid.
type Validator interface {
	Validate() error
}

// Cloner produces an independent copy for snapshots. Components without it
// are copied by value.
type Cloner[T any] interface {
	Clone() T
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func componentName(t reflect.Type) string {
	if t.Kind() != reflect.Pointer && t.Kind() != reflect.Interface {
		if n, ok := reflect.New(t).Elem().Interface().(Named); ok {
			return n.ComponentName()
		}
	}
	return t.String()
}

// storage is the type-erased view World keeps of every Store[T].
type storage interface {
	Name() string
	Len() int
	Contains(e Entity) bool
	Entities() []Entity

	componentType() reflect.Type
	remove(e Entity) bool
	snapshot(e Entity) (any, bool)
	validate() error

	span() int
	slot(i int) (Entity, bool)
	beginIter()
	endIter()
}

// Store owns every value of one component type, keyed by entity. Each value
// sits in its own cell, so borrows of different entities never interact.
type Store[T any] struct {
	name string
	typ  reflect.Type
	set  sparseSet[*cell[T]]
}

func NewStore[T any]() *Store[T] {
	t := typeOf[T]()
	return &Store[T]{
		name: componentName(t),
		typ:  t,
		set:  newSparseSet[*cell[T]](0),
	}
}

func (s *Store[T]) Name() string { return s.name }
func (s *Store[T]) Len() int     { return s.set.size() }

func (s *Store[T]) Contains(e Entity) bool { return s.set.has(e) }

// Entities lists holders of this component in dense order.
func (s *Store[T]) Entities() []Entity { return s.set.list() }

// Insert sets e's value, replacing any previous one. Overwriting a value that
// is currently borrowed panics.
func (s *Store[T]) Insert(e Entity, v T) {
	if c, ok := s.set.get(e); ok {
		if c.busy() {
			panic(s.conflict(e, "overwrite", c))
		}
		c.value = v
		return
	}
	s.set.put(e, &cell[T]{value: v})
}

// Get takes a shared borrow of e's value. The caller must Release it.
// It returns false when e has no value in this store.
func (s *Store[T]) Get(e Entity) (Read[T], bool) {
	c, ok := s.set.get(e)
	if !ok {
		return Read[T]{}, false
	}
	tok := c.borrow(s, e)
	return Read[T]{s: s, c: c, e: e, tok: tok}, true
}

// GetMut takes an exclusive borrow of e's value. The caller must Release it.
func (s *Store[T]) GetMut(e Entity) (Write[T], bool) {
	c, ok := s.set.get(e)
	if !ok {
		return Write[T]{}, false
	}
	tok := c.borrowMut(s, e)
	return Write[T]{s: s, c: c, e: e, tok: tok}, true
}

// Remove drops e's value and reports whether there was one. Removing a
// borrowed value panics.
func (s *Store[T]) Remove(e Entity) bool {
	c, ok := s.set.get(e)
	if !ok {
		return false
	}
	if c.busy() {
		panic(s.conflict(e, "remove", c))
	}
	s.set.delete(e)
	return true
}

func (s *Store[T]) conflict(e Entity, requested string, c *cell[T]) *BorrowConflictError {
	return &BorrowConflictError{
		Component: s.name,
		Entity:    e,
		Requested: requested,
		Held:      c.held(),
	}
}

func (s *Store[T]) componentType() reflect.Type { return s.typ }
func (s *Store[T]) remove(e Entity) bool        { return s.Remove(e) }

func (s *Store[T]) snapshot(e Entity) (any, bool) {
	r, ok := s.Get(e)
	if !ok {
		return nil, false
	}
	defer r.Release()
	return cloneValue(&r.c.value), true
}

func cloneValue[T any](v *T) T {
	if c, ok := any(*v).(Cloner[T]); ok {
		return c.Clone()
	}
	if c, ok := any(v).(Cloner[T]); ok {
		return c.Clone()
	}
	return *v
}

func (s *Store[T]) validate() error {
	var errs error
	for i := 0; i < s.set.span(); i++ {
		e, ok := s.set.slot(i)
		if !ok {
			continue
		}
		c := s.set.vals[i]
		if v, ok := any(c.value).(Validator); ok {
			if err := v.Validate(); err != nil {
				errs = multierr.Append(errs, eris.Wrapf(err, "%s on entity %d", s.name, e))
			}
		}
	}
	return errs
}

func (s *Store[T]) span() int                  { return s.set.span() }
func (s *Store[T]) slot(i int) (Entity, bool) { return s.set.slot(i) }
func (s *Store[T]) beginIter()                 { s.set.beginIter() }
func (s *Store[T]) endIter()                   { s.set.endIter() }
