package ecs

// sparseSet maps entities to values with a dense, ordered backing array.
// Removal swaps the last slot into the hole unless an iterator is walking the
// set; in that case the slot becomes a tombstone and the set is compacted,
// order preserved, when the last iterator finishes. An entity put back while
// its tombstone is still in place gets its old slot. Iterators therefore never
// skip or repeat a surviving entity.
type sparseSet[V any] struct {
	keys   []Entity
	vals   []V
	index  map[Entity]int
	graves map[Entity]int // tombstoned slots by former owner, only while iterating
	holes  int
	iters  int
}

func newSparseSet[V any](capacity int) sparseSet[V] {
	return sparseSet[V]{
		keys:  make([]Entity, 0, capacity),
		vals:  make([]V, 0, capacity),
		index: make(map[Entity]int, capacity),
	}
}

func (s *sparseSet[V]) get(e Entity) (V, bool) {
	i, ok := s.index[e]
	if !ok {
		var zero V
		return zero, false
	}
	return s.vals[i], true
}

func (s *sparseSet[V]) has(e Entity) bool {
	_, ok := s.index[e]
	return ok
}

// put stores v for e and reports whether e was newly added.
func (s *sparseSet[V]) put(e Entity, v V) bool {
	if i, ok := s.index[e]; ok {
		s.vals[i] = v
		return false
	}
	if i, ok := s.graves[e]; ok {
		delete(s.graves, e)
		s.keys[i] = e
		s.vals[i] = v
		s.index[e] = i
		s.holes--
		return true
	}
	s.index[e] = len(s.keys)
	s.keys = append(s.keys, e)
	s.vals = append(s.vals, v)
	return true
}

func (s *sparseSet[V]) delete(e Entity) (V, bool) {
	var zero V
	i, ok := s.index[e]
	if !ok {
		return zero, false
	}
	v := s.vals[i]
	delete(s.index, e)

	if s.iters > 0 {
		s.keys[i] = Null
		s.vals[i] = zero
		s.holes++
		if s.graves == nil {
			s.graves = make(map[Entity]int)
		}
		s.graves[e] = i
		return v, true
	}

	last := len(s.keys) - 1
	if i != last {
		s.keys[i] = s.keys[last]
		s.vals[i] = s.vals[last]
		s.index[s.keys[i]] = i
	}
	s.keys[last] = Null
	s.vals[last] = zero
	s.keys = s.keys[:last]
	s.vals = s.vals[:last]
	return v, true
}

func (s *sparseSet[V]) size() int { return len(s.index) }

// span is the length of the backing array including tombstones.
func (s *sparseSet[V]) span() int { return len(s.keys) }

// slot returns the entity at dense position i, or false for a tombstone.
func (s *sparseSet[V]) slot(i int) (Entity, bool) {
	e := s.keys[i]
	return e, e != Null
}

func (s *sparseSet[V]) beginIter() { s.iters++ }

func (s *sparseSet[V]) endIter() {
	if s.iters == 0 {
		return
	}
	s.iters--
	if s.iters == 0 {
		clear(s.graves)
		if s.holes > 0 {
			s.compact()
		}
	}
}

func (s *sparseSet[V]) compact() {
	var zero V
	n := 0
	for i, e := range s.keys {
		if e == Null {
			continue
		}
		s.keys[n] = e
		s.vals[n] = s.vals[i]
		s.index[e] = n
		n++
	}
	for i := n; i < len(s.keys); i++ {
		s.keys[i] = Null
		s.vals[i] = zero
	}
	s.keys = s.keys[:n]
	s.vals = s.vals[:n]
	s.holes = 0
}

// list copies the live entities in dense order.
func (s *sparseSet[V]) list() []Entity {
	out := make([]Entity, 0, s.size())
	for _, e := range s.keys {
		if e != Null {
			out = append(out, e)
		}
	}
	return out
}
