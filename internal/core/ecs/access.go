package ecs

import (
	"fmt"
	"reflect"
)

// Mode selects the borrow discipline a query applies to a component type.
type Mode uint8

const (
	ModeRead Mode = iota + 1
	ModeWrite
)

func (m Mode) String() string {
	switch m {
	case ModeRead:
		return "read"
	case ModeWrite:
		return "write"
	default:
		return "none"
	}
}

// Access pairs a component type with a mode. Systems declare the accesses
// they need when they are registered.
type Access struct {
	Type reflect.Type
	Mode Mode
}

func (a Access) String() string {
	return fmt.Sprintf("%s(%s)", a.Mode, componentName(a.Type))
}

// Reads declares shared access to T.
func Reads[T any]() Access { return Access{Type: typeOf[T](), Mode: ModeRead} }

// Writes declares exclusive access to T. It also permits reading T.
func Writes[T any]() Access { return Access{Type: typeOf[T](), Mode: ModeWrite} }

// handle is the sealed constraint satisfied by Read[T] and Write[T]. Methods
// are called on the zero value to learn the access and to take a borrow.
type handle[H any] interface {
	access() Access
	acquire(s storage, e Entity) H
	release()
}

// Read is a shared borrow of one entity's T. It stays valid until the query
// advances or Release is called. Copies of a handle share its borrow.
type Read[T any] struct {
	s   *Store[T]
	c   *cell[T]
	e   Entity
	tok uint64
}

// Get returns a copy of the value.
func (r Read[T]) Get() T {
	if r.c == nil || !r.c.reading(r.tok) {
		panic(r.released())
	}
	return r.c.value
}

func (r Read[T]) Entity() Entity { return r.e }

// Release ends the borrow. Releasing twice panics.
func (r Read[T]) Release() {
	if r.c == nil {
		panic(r.released())
	}
	r.c.unborrow(r.s, r.e, r.tok)
}

func (r Read[T]) released() *BorrowConflictError {
	return &BorrowConflictError{Component: componentName(typeOf[T]()), Entity: r.e, Requested: "read", Held: "the handle was released"}
}

func (Read[T]) access() Access { return Reads[T]() }

func (Read[T]) acquire(s storage, e Entity) Read[T] {
	r, ok := s.(*Store[T]).Get(e)
	if !ok {
		panic(fmt.Sprintf("ecs: entity %d vanished from %s during query", e, s.Name()))
	}
	return r
}

func (r Read[T]) release() { r.Release() }

// Write is an exclusive borrow of one entity's T. The pointer returned by Get
// must not be kept once the borrow ends.
type Write[T any] struct {
	s   *Store[T]
	c   *cell[T]
	e   Entity
	tok uint64
}

func (w Write[T]) Get() *T {
	if w.c == nil || !w.c.writing(w.tok) {
		panic(w.released())
	}
	return &w.c.value
}

func (w Write[T]) Set(v T) { *w.Get() = v }

func (w Write[T]) Entity() Entity { return w.e }

// Release ends the borrow. Releasing twice panics.
func (w Write[T]) Release() {
	if w.c == nil {
		panic(w.released())
	}
	w.c.unborrowMut(w.s, w.e, w.tok)
}

func (w Write[T]) released() *BorrowConflictError {
	return &BorrowConflictError{Component: componentName(typeOf[T]()), Entity: w.e, Requested: "write", Held: "the handle was released"}
}

func (Write[T]) access() Access { return Writes[T]() }

func (Write[T]) acquire(s storage, e Entity) Write[T] {
	w, ok := s.(*Store[T]).GetMut(e)
	if !ok {
		panic(fmt.Sprintf("ecs: entity %d vanished from %s during query", e, s.Name()))
	}
	return w
}

func (w Write[T]) release() { w.Release() }

// close releases the borrow if it is still outstanding.
func (w Write[T]) close() bool {
	if w.c == nil || !w.c.writing(w.tok) {
		return false
	}
	w.c.unborrowMut(w.s, w.e, w.tok)
	return true
}

func accessOf[H handle[H]]() Access {
	var h H
	return h.access()
}

// checkAccesses rejects a query that names one type twice with a write.
func checkAccesses(accs ...Access) {
	for i := range accs {
		for j := i + 1; j < len(accs); j++ {
			if accs[i].Type == accs[j].Type && (accs[i].Mode == ModeWrite || accs[j].Mode == ModeWrite) {
				panic(&AccessConflictError{Component: componentName(accs[i].Type)})
			}
		}
	}
}
