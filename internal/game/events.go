package game

import "github.com/l1jgo/gridecs/internal/core/ecs"

// Moved is published when an entity changes tile.
type Moved struct {
	Entity   ecs.Entity
	From, To GridPosition
}

// MoveBlocked is published when a requested move is refused.
type MoveBlocked struct {
	Entity ecs.Entity
	At     GridPosition
	Target GridPosition
}
