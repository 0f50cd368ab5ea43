package game

import "github.com/l1jgo/gridecs/internal/core/ecs"

type tile struct {
	X, Y int
}

// Occupancy is a tile occupancy map for O(1) collision checks. A tile may
// hold several entities; the movement system never creates that state, but
// scenes can, and the collision audit reports it.
type Occupancy struct {
	tiles map[tile]map[ecs.Entity]struct{}
}

func NewOccupancy() *Occupancy {
	return &Occupancy{tiles: make(map[tile]map[ecs.Entity]struct{})}
}

func (g *Occupancy) Reset() {
	clear(g.tiles)
}

// Occupy marks an entity as occupying a tile.
func (g *Occupancy) Occupy(x, y int, e ecs.Entity) {
	k := tile{X: x, Y: y}
	cell := g.tiles[k]
	if cell == nil {
		cell = make(map[ecs.Entity]struct{}, 1)
		g.tiles[k] = cell
	}
	cell[e] = struct{}{}
}

// Vacate removes an entity from a tile.
func (g *Occupancy) Vacate(x, y int, e ecs.Entity) {
	k := tile{X: x, Y: y}
	cell := g.tiles[k]
	if cell != nil {
		delete(cell, e)
		if len(cell) == 0 {
			delete(g.tiles, k)
		}
	}
}

// Move vacates the old tile and occupies the new one.
func (g *Occupancy) Move(oldX, oldY, newX, newY int, e ecs.Entity) {
	if oldX == newX && oldY == newY {
		return
	}
	g.Vacate(oldX, oldY, e)
	g.Occupy(newX, newY, e)
}

// IsOccupied reports whether any entity other than exclude is on the tile.
func (g *Occupancy) IsOccupied(x, y int, exclude ecs.Entity) bool {
	for e := range g.tiles[tile{X: x, Y: y}] {
		if e != exclude {
			return true
		}
	}
	return false
}

// Count is the number of entities on the tile.
func (g *Occupancy) Count(x, y int) int {
	return len(g.tiles[tile{X: x, Y: y}])
}
