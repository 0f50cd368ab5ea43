package data

import (
	"fmt"
	"os"

	"github.com/l1jgo/gridecs/internal/core/ecs"
	"github.com/l1jgo/gridecs/internal/game"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// EntitySpec describes one entity of a scene. An entry is either a player
// (Player set) or an obstacle.
type EntitySpec struct {
	Player   string `yaml:"player"`
	Obstacle bool   `yaml:"obstacle"`
	X        int    `yaml:"x"`
	Y        int    `yaml:"y"`
}

// InputSpec is one scripted command, applied at Step (1-based).
type InputSpec struct {
	Step   uint64 `yaml:"step"`
	Player string `yaml:"player"`
	DX     int    `yaml:"dx"`
	DY     int    `yaml:"dy"`
}

// Scene is a board layout plus scripted input.
type Scene struct {
	Name     string       `yaml:"name"`
	Width    int          `yaml:"width"`
	Height   int          `yaml:"height"`
	Entities []EntitySpec `yaml:"entities"`
	Inputs   []InputSpec  `yaml:"inputs"`
}

// LoadScene loads a scene YAML file.
func LoadScene(path string) (*Scene, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene: %w", err)
	}
	s, err := ParseScene(raw)
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", path, err)
	}
	return s, nil
}

func ParseScene(raw []byte) (*Scene, error) {
	var s Scene
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parse scene: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the layout: positive size, every entity on the board, no
// shared tiles, unique player names, and inputs addressed to known players.
func (s *Scene) Validate() error {
	var errs error
	if s.Width <= 0 || s.Height <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("board size %dx%d is not positive", s.Width, s.Height))
	}

	players := make(map[string]struct{})
	tiles := make(map[[2]int]int)
	for i, e := range s.Entities {
		switch {
		case e.Player == "" && !e.Obstacle:
			errs = multierr.Append(errs, fmt.Errorf("entity %d is neither player nor obstacle", i))
		case e.Player != "" && e.Obstacle:
			errs = multierr.Append(errs, fmt.Errorf("entity %d is both player %q and obstacle", i, e.Player))
		}
		if e.Player != "" {
			if _, dup := players[e.Player]; dup {
				errs = multierr.Append(errs, fmt.Errorf("player %q defined twice", e.Player))
			}
			players[e.Player] = struct{}{}
		}
		if e.X < 0 || e.Y < 0 || e.X >= s.Width || e.Y >= s.Height {
			errs = multierr.Append(errs, fmt.Errorf("entity %d at (%d,%d) is off the board", i, e.X, e.Y))
		}
		k := [2]int{e.X, e.Y}
		if j, taken := tiles[k]; taken {
			errs = multierr.Append(errs, fmt.Errorf("entities %d and %d share tile (%d,%d)", j, i, e.X, e.Y))
		}
		tiles[k] = i
	}

	for i, in := range s.Inputs {
		if in.Step == 0 {
			errs = multierr.Append(errs, fmt.Errorf("input %d has no step", i))
		}
		if _, ok := players[in.Player]; !ok {
			errs = multierr.Append(errs, fmt.Errorf("input %d addresses unknown player %q", i, in.Player))
		}
	}
	return errs
}

// Steps is the last step that has scripted input.
func (s *Scene) Steps() uint64 {
	var last uint64
	for _, in := range s.Inputs {
		last = max(last, in.Step)
	}
	return last
}

// Spawn creates the scene's entities in w, in file order.
func (s *Scene) Spawn(w *ecs.World) ([]ecs.Entity, error) {
	out := make([]ecs.Entity, 0, len(s.Entities))
	for _, spec := range s.Entities {
		e := w.CreateEntity()
		out = append(out, e)
		if err := ecs.Add(w, e, game.GridPosition{X: spec.X, Y: spec.Y}); err != nil {
			return out, err
		}
		if spec.Obstacle {
			if err := ecs.Add(w, e, game.Obstacle{}); err != nil {
				return out, err
			}
			continue
		}
		if err := ecs.Add(w, e, game.Player{Name: spec.Player}); err != nil {
			return out, err
		}
		if err := ecs.Add(w, e, game.MoveIntent{}); err != nil {
			return out, err
		}
	}
	return out, nil
}

// Queue pushes the scripted inputs onto q.
func (s *Scene) Queue(q *game.InputQueue) {
	for _, in := range s.Inputs {
		q.Push(in.Step, game.Command{Player: in.Player, DX: in.DX, DY: in.DY})
	}
}
