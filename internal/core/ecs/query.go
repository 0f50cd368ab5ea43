package ecs

import "reflect"

// Queries visit every entity that holds all requested component types and
// hand out one borrow per type, honoring each type's Read/Write mode.
// Iteration is lazy and single pass: borrows for an entity are taken by Next
// and released by the following Next or Close. Entities are visited in the
// dense order of the first requested type's store.
//
// Query1 through Query4 cover the common arities. Beyond that, add
// membership-only constraints with With and fetch further components inside
// the loop, or compose a second query.

// QueryOption narrows a query without borrowing anything.
type QueryOption func(*queryFilter)

type queryFilter struct {
	with    []reflect.Type
	without []reflect.Type
}

// With keeps only entities that also hold T.
func With[T any]() QueryOption {
	return func(f *queryFilter) { f.with = append(f.with, typeOf[T]()) }
}

// Without skips entities that hold T.
func Without[T any]() QueryOption {
	return func(f *queryFilter) { f.without = append(f.without, typeOf[T]()) }
}

type iterable interface {
	span() int
	slot(i int) (Entity, bool)
	beginIter()
	endIter()
}

// cursor walks the driver's dense slots and yields entities present in every
// filter store and absent from every excluded store.
type cursor struct {
	driver  iterable
	filters []storage
	exclude []storage
	pos     int
	cur     Entity
	started bool
	done    bool
}

func newCursor(w *World, driver iterable, borrowed []storage, opts []QueryOption) cursor {
	c := cursor{driver: driver, filters: borrowed}
	if driver == nil {
		c.done = true
		return c
	}
	var f queryFilter
	for _, opt := range opts {
		opt(&f)
	}
	for _, t := range f.with {
		s, ok := w.registry.lookup(t)
		if !ok {
			c.done = true
			return c
		}
		c.filters = append(c.filters, s)
	}
	for _, t := range f.without {
		if s, ok := w.registry.lookup(t); ok {
			c.exclude = append(c.exclude, s)
		}
	}
	return c
}

func (c *cursor) advance() bool {
	if c.done {
		return false
	}
	if !c.started {
		c.started = true
		c.pos = -1
		c.driver.beginIter()
	}
	for {
		c.pos++
		if c.pos >= c.driver.span() {
			c.finish()
			return false
		}
		e, ok := c.driver.slot(c.pos)
		if !ok || !c.matches(e) {
			continue
		}
		c.cur = e
		return true
	}
}

func (c *cursor) matches(e Entity) bool {
	for _, s := range c.filters {
		if !s.Contains(e) {
			return false
		}
	}
	for _, s := range c.exclude {
		if s.Contains(e) {
			return false
		}
	}
	return true
}

func (c *cursor) active() bool { return c.started && !c.done }

func (c *cursor) finish() {
	if c.started && !c.done {
		c.driver.endIter()
	}
	c.done = true
}

// resolve checks permissions for every access and returns the stores backing
// them. ok is false when any store does not exist yet.
func resolve(v View, accs ...Access) (stores []storage, ok bool) {
	checkAccesses(accs...)
	w := v.target()
	for _, a := range accs {
		v.permit(a)
	}
	stores = make([]storage, len(accs))
	for i, a := range accs {
		s, found := w.registry.lookup(a.Type)
		if !found {
			return nil, false
		}
		stores[i] = s
	}
	return stores, true
}

// EntityQuery enumerates every live entity.
type EntityQuery struct {
	cursor
}

// Entities starts a query with no component constraint.
func Entities(v View, opts ...QueryOption) *EntityQuery {
	w := v.target()
	q := &EntityQuery{cursor: newCursor(w, w.entities, nil, opts)}
	v.track(q)
	return q
}

func (q *EntityQuery) Next() bool     { return q.advance() }
func (q *EntityQuery) Entity() Entity { return q.cur }
func (q *EntityQuery) Close()         { q.finish() }

func (q *EntityQuery) close() bool {
	open := q.active()
	q.finish()
	return open
}

func (q *EntityQuery) ForEach(fn func(Entity)) {
	defer q.Close()
	for q.Next() {
		fn(q.cur)
	}
}

// Count consumes the query.
func (q *EntityQuery) Count() int {
	defer q.Close()
	n := 0
	for q.advance() {
		n++
	}
	return n
}

// Iter1 yields one borrow per matching entity.
type Iter1[A handle[A]] struct {
	cursor
	sa   storage
	a    A
	held bool
}

func Query1[A handle[A]](v View, opts ...QueryOption) *Iter1[A] {
	stores, ok := resolve(v, accessOf[A]())
	if !ok {
		return &Iter1[A]{cursor: cursor{done: true}}
	}
	q := &Iter1[A]{
		cursor: newCursor(v.target(), stores[0], nil, opts),
		sa:     stores[0],
	}
	v.track(q)
	return q
}

func (q *Iter1[A]) Next() bool {
	q.drop()
	if !q.advance() {
		return false
	}
	var za A
	q.a = za.acquire(q.sa, q.cur)
	q.held = true
	return true
}

func (q *Iter1[A]) Get() (Entity, A) { return q.cur, q.a }
func (q *Iter1[A]) Entity() Entity   { return q.cur }

func (q *Iter1[A]) drop() {
	if q.held {
		q.held = false
		q.a.release()
	}
}

// Close releases the current borrows and ends the iteration.
func (q *Iter1[A]) Close() {
	q.drop()
	q.finish()
}

func (q *Iter1[A]) close() bool {
	open := q.held || q.active()
	q.Close()
	return open
}

func (q *Iter1[A]) ForEach(fn func(Entity, A)) {
	defer q.Close()
	for q.Next() {
		fn(q.cur, q.a)
	}
}

// Count consumes the query without borrowing.
func (q *Iter1[A]) Count() int {
	defer q.Close()
	n := 0
	for q.advance() {
		n++
	}
	return n
}

// Iter2 yields two borrows per matching entity.
type Iter2[A handle[A], B handle[B]] struct {
	cursor
	sa, sb storage
	a      A
	b      B
	held   bool
}

func Query2[A handle[A], B handle[B]](v View, opts ...QueryOption) *Iter2[A, B] {
	stores, ok := resolve(v, accessOf[A](), accessOf[B]())
	if !ok {
		return &Iter2[A, B]{cursor: cursor{done: true}}
	}
	q := &Iter2[A, B]{
		cursor: newCursor(v.target(), stores[0], stores[1:], opts),
		sa:     stores[0],
		sb:     stores[1],
	}
	v.track(q)
	return q
}

func (q *Iter2[A, B]) Next() bool {
	q.drop()
	if !q.advance() {
		return false
	}
	var (
		za A
		zb B
	)
	q.a = za.acquire(q.sa, q.cur)
	q.b = zb.acquire(q.sb, q.cur)
	q.held = true
	return true
}

func (q *Iter2[A, B]) Get() (Entity, A, B) { return q.cur, q.a, q.b }
func (q *Iter2[A, B]) Entity() Entity      { return q.cur }

func (q *Iter2[A, B]) drop() {
	if q.held {
		q.held = false
		q.a.release()
		q.b.release()
	}
}

func (q *Iter2[A, B]) Close() {
	q.drop()
	q.finish()
}

func (q *Iter2[A, B]) close() bool {
	open := q.held || q.active()
	q.Close()
	return open
}

func (q *Iter2[A, B]) ForEach(fn func(Entity, A, B)) {
	defer q.Close()
	for q.Next() {
		fn(q.cur, q.a, q.b)
	}
}

func (q *Iter2[A, B]) Count() int {
	defer q.Close()
	n := 0
	for q.advance() {
		n++
	}
	return n
}

// Iter3 yields three borrows per matching entity.
type Iter3[A handle[A], B handle[B], C handle[C]] struct {
	cursor
	sa, sb, sc storage
	a          A
	b          B
	c          C
	held       bool
}

func Query3[A handle[A], B handle[B], C handle[C]](v View, opts ...QueryOption) *Iter3[A, B, C] {
	stores, ok := resolve(v, accessOf[A](), accessOf[B](), accessOf[C]())
	if !ok {
		return &Iter3[A, B, C]{cursor: cursor{done: true}}
	}
	q := &Iter3[A, B, C]{
		cursor: newCursor(v.target(), stores[0], stores[1:], opts),
		sa:     stores[0],
		sb:     stores[1],
		sc:     stores[2],
	}
	v.track(q)
	return q
}

func (q *Iter3[A, B, C]) Next() bool {
	q.drop()
	if !q.advance() {
		return false
	}
	var (
		za A
		zb B
		zc C
	)
	q.a = za.acquire(q.sa, q.cur)
	q.b = zb.acquire(q.sb, q.cur)
	q.c = zc.acquire(q.sc, q.cur)
	q.held = true
	return true
}

func (q *Iter3[A, B, C]) Get() (Entity, A, B, C) { return q.cur, q.a, q.b, q.c }
func (q *Iter3[A, B, C]) Entity() Entity         { return q.cur }

func (q *Iter3[A, B, C]) drop() {
	if q.held {
		q.held = false
		q.a.release()
		q.b.release()
		q.c.release()
	}
}

func (q *Iter3[A, B, C]) Close() {
	q.drop()
	q.finish()
}

func (q *Iter3[A, B, C]) close() bool {
	open := q.held || q.active()
	q.Close()
	return open
}

func (q *Iter3[A, B, C]) ForEach(fn func(Entity, A, B, C)) {
	defer q.Close()
	for q.Next() {
		fn(q.cur, q.a, q.b, q.c)
	}
}

func (q *Iter3[A, B, C]) Count() int {
	defer q.Close()
	n := 0
	for q.advance() {
		n++
	}
	return n
}

// Iter4 yields four borrows per matching entity.
type Iter4[A handle[A], B handle[B], C handle[C], D handle[D]] struct {
	cursor
	sa, sb, sc, sd storage
	a              A
	b              B
	c              C
	d              D
	held           bool
}

func Query4[A handle[A], B handle[B], C handle[C], D handle[D]](v View, opts ...QueryOption) *Iter4[A, B, C, D] {
	stores, ok := resolve(v, accessOf[A](), accessOf[B](), accessOf[C](), accessOf[D]())
	if !ok {
		return &Iter4[A, B, C, D]{cursor: cursor{done: true}}
	}
	q := &Iter4[A, B, C, D]{
		cursor: newCursor(v.target(), stores[0], stores[1:], opts),
		sa:     stores[0],
		sb:     stores[1],
		sc:     stores[2],
		sd:     stores[3],
	}
	v.track(q)
	return q
}

func (q *Iter4[A, B, C, D]) Next() bool {
	q.drop()
	if !q.advance() {
		return false
	}
	var (
		za A
		zb B
		zc C
		zd D
	)
	q.a = za.acquire(q.sa, q.cur)
	q.b = zb.acquire(q.sb, q.cur)
	q.c = zc.acquire(q.sc, q.cur)
	q.d = zd.acquire(q.sd, q.cur)
	q.held = true
	return true
}

func (q *Iter4[A, B, C, D]) Get() (Entity, A, B, C, D) { return q.cur, q.a, q.b, q.c, q.d }
func (q *Iter4[A, B, C, D]) Entity() Entity            { return q.cur }

func (q *Iter4[A, B, C, D]) drop() {
	if q.held {
		q.held = false
		q.a.release()
		q.b.release()
		q.c.release()
		q.d.release()
	}
}

func (q *Iter4[A, B, C, D]) Close() {
	q.drop()
	q.finish()
}

func (q *Iter4[A, B, C, D]) close() bool {
	open := q.held || q.active()
	q.Close()
	return open
}

func (q *Iter4[A, B, C, D]) ForEach(fn func(Entity, A, B, C, D)) {
	defer q.Close()
	for q.Next() {
		fn(q.cur, q.a, q.b, q.c, q.d)
	}
}

func (q *Iter4[A, B, C, D]) Count() int {
	defer q.Close()
	n := 0
	for q.advance() {
		n++
	}
	return n
}
