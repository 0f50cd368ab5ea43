// Package ecs is a small entity-component-system core.
//
// Entities are plain ids. Each component type lives in its own Store, and
// every stored value carries a borrow cell: any number of Read handles or a
// single Write handle may be outstanding at once, and breaking that rule
// panics with *BorrowConflictError.
//
// Systems declare the components they touch when registered and receive a
// *Context that enforces the declaration. Run order comes from declared
// dependencies; see World.FinalizeSystems.
//
// Queries are typed by their handles:
//
//	q := ecs.Query2[ecs.Write[Position], ecs.Read[Velocity]](ctx)
//	for q.Next() {
//		_, p, v := q.Get()
//		p.Get().X += v.Get().DX
//	}
//	q.Close()
//
// Query1 to Query4 are provided. A new arity is one more IterN type with the
// same cursor and one more acquire/release pair; existing code does not change.
package ecs
