package ecs

import (
	"reflect"

	"github.com/l1jgo/gridecs/internal/core/event"
	"go.uber.org/zap"
)

// System is a schedulable unit of game logic. Access lists every component
// the system touches; the Context it receives refuses anything else, which
// is what lets the scheduler reason about systems without looking inside them.
type System interface {
	Name() string
	Access() []Access
	Update(ctx *Context) error
}

// Dependent is implemented by systems that carry their own dependency list.
// It is merged with the dependencies given at registration.
type Dependent interface {
	Dependencies() []string
}

// SystemFunc is the body of a function-style system.
type SystemFunc func(ctx *Context) error

type funcSystem struct {
	name   string
	access []Access
	fn     SystemFunc
}

func (s *funcSystem) Name() string              { return s.name }
func (s *funcSystem) Access() []Access          { return s.access }
func (s *funcSystem) Update(ctx *Context) error { return s.fn(ctx) }

// SystemObserver is notified around every system run. The debug recorder
// uses it to take before/after snapshots.
type SystemObserver interface {
	BeforeSystem(w *World, system string)
	AfterSystem(w *World, system string)
}

// registeredSystem is what the scheduler orders. Every registration style
// ends up here, so there is a single dependency resolution path.
type registeredSystem struct {
	sys    System
	deps   []string
	access map[reflect.Type]Mode
}

func newRegisteredSystem(s System, deps []string) *registeredSystem {
	all := make([]string, 0, len(deps))
	seen := make(map[string]struct{})
	add := func(names []string) {
		for _, d := range names {
			if _, ok := seen[d]; ok {
				continue
			}
			seen[d] = struct{}{}
			all = append(all, d)
		}
	}
	if d, ok := s.(Dependent); ok {
		add(d.Dependencies())
	}
	add(deps)

	access := make(map[reflect.Type]Mode, len(s.Access()))
	for _, a := range s.Access() {
		if a.Mode > access[a.Type] {
			access[a.Type] = a.Mode
		}
	}
	return &registeredSystem{sys: s, deps: all, access: access}
}

func (r *registeredSystem) Name() string           { return r.sys.Name() }
func (r *registeredSystem) Dependencies() []string { return r.deps }

// View is the handle component helpers and queries operate on. *World grants
// everything; *Context grants only what its system declared.
type View interface {
	target() *World
	permit(a Access)
	track(b borrower)
}

// borrower is an open query or handle. close settles it and reports whether
// anything was still outstanding.
type borrower interface {
	close() bool
}

// Context is what a system's Update receives. It is valid only for the
// duration of that call.
type Context struct {
	world  *World
	system string
	access map[reflect.Type]Mode
	step   uint64
	log    *zap.Logger
	done   bool
	open   []borrower
}

func (c *Context) target() *World { return c.world }

func (c *Context) track(b borrower) { c.open = append(c.open, b) }

// settle closes every query and handle the system left open, newest first,
// and returns how many still held a borrow.
func (c *Context) settle() int {
	leaked := 0
	for i := len(c.open) - 1; i >= 0; i-- {
		if c.open[i].close() {
			leaked++
		}
		c.open[i] = nil
	}
	c.open = c.open[:0]
	return leaked
}

func (c *Context) permit(a Access) {
	if c.done {
		panic("ecs: context of system " + c.system + " used after its update returned")
	}
	if m, ok := c.access[a.Type]; ok && m >= a.Mode {
		return
	}
	panic(&UndeclaredAccessError{System: c.system, Component: componentName(a.Type), Mode: a.Mode})
}

func (c *Context) System() string      { return c.system }
func (c *Context) Step() uint64        { return c.step }
func (c *Context) Logger() *zap.Logger { return c.log }

// Events returns the world's event bus, or nil when none is attached.
func (c *Context) Events() *event.Bus { return c.world.bus }

// Spawn creates an entity immediately.
func (c *Context) Spawn() Entity { return c.world.CreateEntity() }

// Despawn queues e for destruction once the current system returns.
func (c *Context) Despawn(e Entity) { c.world.MarkForDestruction(e) }

func (c *Context) Alive(e Entity) bool { return c.world.Alive(e) }
