package game

import "fmt"

// GridPosition is a tile coordinate, origin at the top-left corner.
type GridPosition struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p GridPosition) Validate() error {
	if p.X < 0 || p.Y < 0 {
		return fmt.Errorf("position (%d,%d) is off the board", p.X, p.Y)
	}
	return nil
}

// MoveIntent is the step requested for the current tick. The movement
// system consumes it and resets it to zero.
type MoveIntent struct {
	DX int `json:"dx"`
	DY int `json:"dy"`
}

func (m MoveIntent) Validate() error {
	if m.DX < -1 || m.DX > 1 || m.DY < -1 || m.DY > 1 {
		return fmt.Errorf("intent (%d,%d) is longer than one tile", m.DX, m.DY)
	}
	return nil
}

func (m MoveIntent) IsZero() bool { return m.DX == 0 && m.DY == 0 }

// Player marks a controllable entity. Name is what input commands address.
type Player struct {
	Name string `json:"name"`
}

func (p Player) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("player name is empty")
	}
	return nil
}

// Obstacle marks a tile-blocking entity that never moves.
type Obstacle struct{}
