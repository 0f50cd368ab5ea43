package ecs

import (
	"time"

	"github.com/l1jgo/gridecs/internal/core/event"
	"github.com/l1jgo/gridecs/internal/core/system"
	"github.com/rotisserie/eris"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// World is the top-level ECS container. It owns the entity registry, every
// component store, the system scheduler, and a deferred destruction queue
// flushed after each system run.
type World struct {
	entities     *EntityRegistry
	registry     *Registry
	systems      *system.Runner[*registeredSystem]
	destroyQueue []Entity
	bus          *event.Bus
	observer     SystemObserver
	log          *zap.Logger
	step         uint64
}

type Option func(*World)

func WithLogger(log *zap.Logger) Option {
	return func(w *World) { w.log = log }
}

// WithObserver attaches a hook that runs around every system.
func WithObserver(o SystemObserver) Option {
	return func(w *World) { w.observer = o }
}

// WithEventBus makes the world emit lifecycle events. Events emitted during
// step N are dispatched at the start of step N+1.
func WithEventBus(b *event.Bus) Option {
	return func(w *World) { w.bus = b }
}

func NewWorld(opts ...Option) *World {
	w := &World{
		entities:     NewEntityRegistry(),
		registry:     NewRegistry(),
		destroyQueue: make([]Entity, 0, 64),
		log:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.systems = system.NewRunner[*registeredSystem](w.log)
	return w
}

func (w *World) target() *World   { return w }
func (w *World) permit(_ Access)  {}
func (w *World) track(_ borrower) {}

func (w *World) Logger() *zap.Logger { return w.log }
func (w *World) Events() *event.Bus  { return w.bus }

// Step is the number of completed or running RunSystems calls.
func (w *World) Step() uint64 { return w.step }

func (w *World) CreateEntity() Entity {
	e := w.entities.Create()
	w.emit(EntityCreated{Entity: e})
	return e
}

func (w *World) Alive(e Entity) bool { return w.entities.Exists(e) }

func (w *World) EntityCount() int { return w.entities.Len() }

// DestroyEntity purges e from every store and then from the registry. It is
// idempotent and reports whether e was alive.
func (w *World) DestroyEntity(e Entity) bool {
	if !w.entities.Exists(e) {
		return false
	}
	w.registry.RemoveAll(e)
	w.entities.Remove(e)
	w.emit(EntityDestroyed{Entity: e})
	return true
}

// MarkForDestruction queues an entity for destruction after the running
// system returns.
func (w *World) MarkForDestruction(e Entity) {
	w.destroyQueue = append(w.destroyQueue, e)
}

// FlushDestroyQueue destroys all queued entities and clears their components.
func (w *World) FlushDestroyQueue() {
	for _, e := range w.destroyQueue {
		w.DestroyEntity(e)
	}
	w.destroyQueue = w.destroyQueue[:0]
}

// RegisterSystem adds a system. deps name systems that must run first; they
// may be registered later. The run order is recomputed before the next run.
func (w *World) RegisterSystem(s System, deps ...string) error {
	if err := w.systems.Register(newRegisteredSystem(s, deps)); err != nil {
		return eris.Wrap(err, "register system")
	}
	return nil
}

// RegisterFunc registers a function-style system. It goes through the same
// scheduler as RegisterSystem.
func (w *World) RegisterFunc(name string, access []Access, fn SystemFunc, deps ...string) error {
	return w.RegisterSystem(&funcSystem{name: name, access: access, fn: fn}, deps...)
}

// FinalizeSystems validates the dependency graph and fixes the run order.
// Errors unwrap to *system.CircularDependencyError or
// *system.UnknownDependencyError.
func (w *World) FinalizeSystems() error {
	if err := w.systems.Finalize(); err != nil {
		return eris.Wrap(err, "finalize systems")
	}
	return nil
}

// SystemOrder returns the finalized order, or nil while pending.
func (w *World) SystemOrder() []string {
	order := w.systems.Order()
	if order == nil {
		return nil
	}
	names := make([]string, len(order))
	for i, s := range order {
		names[i] = s.Name()
	}
	return names
}

func (w *World) SystemState(name string) system.State { return w.systems.State(name) }

// RunSystems executes one step: pending events are dispatched, then every
// system runs once in finalized order. A pending graph is finalized first and
// nothing runs if that fails. A system error stops the step; panics
// propagate unchanged.
func (w *World) RunSystems() error {
	if !w.systems.Finalized() {
		if err := w.FinalizeSystems(); err != nil {
			return err
		}
	}

	w.step++
	if w.bus != nil {
		w.bus.SwapBuffers()
		w.bus.DispatchAll()
	}

	for _, rs := range w.systems.Order() {
		if err := w.runSystem(rs); err != nil {
			return eris.Wrapf(err, "system %s", rs.Name())
		}
	}

	w.emit(StepCompleted{Step: w.step})
	return nil
}

func (w *World) runSystem(rs *registeredSystem) error {
	name := rs.Name()
	ctx := &Context{
		world:  w,
		system: name,
		access: rs.access,
		step:   w.step,
		log:    w.log.With(zap.String("system", name)),
	}
	if w.observer != nil {
		w.observer.BeforeSystem(w, name)
	}

	start := time.Now()
	err := rs.sys.Update(ctx)
	if n := ctx.settle(); n > 0 {
		w.log.Warn("system returned with open borrows",
			zap.String("system", name),
			zap.Int("released", n),
		)
	}
	ctx.done = true
	w.FlushDestroyQueue()
	w.log.Debug("system ran",
		zap.String("system", name),
		zap.Uint64("step", w.step),
		zap.Duration("took", time.Since(start)),
	)

	if w.observer != nil {
		w.observer.AfterSystem(w, name)
	}
	return err
}

// ComponentNames lists the names of every store created so far.
func (w *World) ComponentNames() []string { return w.registry.Names() }

// EntitiesWith lists entities holding the named component.
func (w *World) EntitiesWith(component string) []Entity {
	s, ok := w.registry.named(component)
	if !ok {
		return nil
	}
	return s.Entities()
}

// Snapshot returns an independent copy of e's named component. This is the
// hook debug tooling uses to diff state around a system run.
func (w *World) Snapshot(e Entity, component string) (any, bool) {
	s, ok := w.registry.named(component)
	if !ok {
		return nil, false
	}
	return s.snapshot(e)
}

// Validate asks every stored component that implements Validator to check
// itself and returns all failures combined.
func (w *World) Validate() error {
	var errs error
	for _, s := range w.registry.stores {
		errs = multierr.Append(errs, s.validate())
	}
	return errs
}

func (w *World) emit(ev any) {
	if w.bus != nil {
		w.bus.Publish(ev)
	}
}

// Register creates T's store ahead of the first insertion, so the name is
// reserved and lookups by name work before any entity holds T.
func Register[T any](w *World) error {
	_, err := ensureStore[T](w.registry)
	return err
}

// Add attaches c to e, replacing any existing T. It fails for dead entities
// and for values whose Validate returns an error.
func Add[T any](v View, e Entity, c T) error {
	v.permit(Writes[T]())
	w := v.target()
	if !w.entities.Exists(e) {
		return eris.Wrapf(ErrEntityNotFound, "add %s to %d", componentName(typeOf[T]()), e)
	}
	if val, ok := any(c).(Validator); ok {
		if err := val.Validate(); err != nil {
			return eris.Wrapf(ErrInvalidComponent, "%s on %d: %v", componentName(typeOf[T]()), e, err)
		}
	}
	s, err := ensureStore[T](w.registry)
	if err != nil {
		return err
	}
	s.Insert(e, c)
	return nil
}

// Get returns a copy of e's T. A missing component is reported with false,
// never as an error.
func Get[T any](v View, e Entity) (T, bool) {
	v.permit(Reads[T]())
	s, ok := storeFor[T](v.target().registry)
	if !ok {
		var zero T
		return zero, false
	}
	r, ok := s.Get(e)
	if !ok {
		var zero T
		return zero, false
	}
	defer r.Release()
	return r.Get(), true
}

// GetMut takes an exclusive borrow of e's T. The caller must Release it;
// inside a system, a borrow still open when Update returns is released then.
func GetMut[T any](v View, e Entity) (Write[T], bool) {
	v.permit(Writes[T]())
	s, ok := storeFor[T](v.target().registry)
	if !ok {
		return Write[T]{}, false
	}
	m, ok := s.GetMut(e)
	if ok {
		v.track(m)
	}
	return m, ok
}

// Update runs fn with exclusive access to e's T and reports whether e had one.
func Update[T any](v View, e Entity, fn func(*T)) bool {
	m, ok := GetMut[T](v, e)
	if !ok {
		return false
	}
	defer m.Release()
	fn(m.Get())
	return true
}

// Has reports whether e holds T. Membership checks need no declared access.
func Has[T any](v View, e Entity) bool {
	s, ok := storeFor[T](v.target().registry)
	return ok && s.Contains(e)
}

// Remove detaches T from e. Removing a missing component is a no-op.
func Remove[T any](v View, e Entity) bool {
	v.permit(Writes[T]())
	s, ok := storeFor[T](v.target().registry)
	if !ok {
		return false
	}
	return s.Remove(e)
}
