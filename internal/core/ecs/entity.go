package ecs

// Entity is an opaque identifier. Ids are issued in increasing order starting
// at 1 and are never reused; 0 is the null entity.
type Entity uint64

// Null is never issued by a registry.
const Null Entity = 0

func (e Entity) IsZero() bool { return e == Null }

// EntityRegistry issues entity ids and tracks the live set. It never touches
// component stores; World purges those when an entity is destroyed.
type EntityRegistry struct {
	next Entity
	live sparseSet[struct{}]
}

func NewEntityRegistry() *EntityRegistry {
	return &EntityRegistry{
		live: newSparseSet[struct{}](64),
	}
}

// Create always succeeds and returns an id that was never issued before.
func (r *EntityRegistry) Create() Entity {
	r.next++
	e := r.next
	r.live.put(e, struct{}{})
	return e
}

// Remove deletes e from the live set. Removing an unknown or already removed
// entity is a no-op and returns false.
func (r *EntityRegistry) Remove(e Entity) bool {
	_, ok := r.live.delete(e)
	return ok
}

func (r *EntityRegistry) Exists(e Entity) bool { return r.live.has(e) }

func (r *EntityRegistry) Len() int { return r.live.size() }

// Entities returns the live set. Order is creation order until removals
// reshuffle it; it is stable for a given population.
func (r *EntityRegistry) Entities() []Entity { return r.live.list() }

func (r *EntityRegistry) span() int                  { return r.live.span() }
func (r *EntityRegistry) slot(i int) (Entity, bool) { return r.live.slot(i) }
func (r *EntityRegistry) beginIter()                 { r.live.beginIter() }
func (r *EntityRegistry) endIter()                   { r.live.endIter() }
