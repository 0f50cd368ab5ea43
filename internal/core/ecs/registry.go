package ecs

import (
	"reflect"

	"github.com/rotisserie/eris"
)

// Registry tracks all component stores by type and by name, and supports bulk
// cleanup on entity destroy.
type Registry struct {
	stores []storage
	byType map[reflect.Type]storage
	byName map[string]storage
}

func NewRegistry() *Registry {
	return &Registry{
		stores: make([]storage, 0, 16),
		byType: make(map[reflect.Type]storage, 16),
		byName: make(map[string]storage, 16),
	}
}

// Register adds a component store. Two different types may not share a name.
func (r *Registry) Register(s storage) error {
	t := s.componentType()
	if _, ok := r.byType[t]; ok {
		return nil
	}
	if other, ok := r.byName[s.Name()]; ok {
		return eris.Wrapf(ErrComponentNameTaken, "%s by %s and %s", s.Name(), other.componentType(), t)
	}
	r.stores = append(r.stores, s)
	r.byType[t] = s
	r.byName[s.Name()] = s
	return nil
}

func (r *Registry) lookup(t reflect.Type) (storage, bool) {
	s, ok := r.byType[t]
	return s, ok
}

func (r *Registry) named(name string) (storage, bool) {
	s, ok := r.byName[name]
	return s, ok
}

// Names returns store names in creation order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.stores))
	for i, s := range r.stores {
		names[i] = s.Name()
	}
	return names
}

// RemoveAll clears the given entity from every registered component store.
func (r *Registry) RemoveAll(e Entity) {
	for _, s := range r.stores {
		s.remove(e)
	}
}

func storeFor[T any](r *Registry) (*Store[T], bool) {
	s, ok := r.byType[typeOf[T]()]
	if !ok {
		return nil, false
	}
	return s.(*Store[T]), true
}

func ensureStore[T any](r *Registry) (*Store[T], error) {
	if s, ok := storeFor[T](r); ok {
		return s, nil
	}
	s := NewStore[T]()
	if err := r.Register(s); err != nil {
		return nil, err
	}
	return s, nil
}
