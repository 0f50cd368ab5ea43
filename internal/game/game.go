package game

import (
	"strings"
	"time"

	"github.com/l1jgo/gridecs/internal/core/ecs"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

type Options struct {
	Width, Height int
	Tick          time.Duration
	Rules         Rules
	Log           *zap.Logger
}

// Game holds the context objects the systems share with the caller.
type Game struct {
	Clock    *Clock
	Input    *InputQueue
	Movement *MovementSystem
	Width    int
	Height   int
}

// Install registers the grid components and systems on w. Systems are
// registered consumers first; the run order comes from their dependencies.
func Install(w *ecs.World, opts Options) (*Game, error) {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Rules == nil {
		return nil, eris.New("game: movement rules are required")
	}

	for _, register := range []func(*ecs.World) error{
		ecs.Register[GridPosition],
		ecs.Register[MoveIntent],
		ecs.Register[Player],
		ecs.Register[Obstacle],
	} {
		if err := register(w); err != nil {
			return nil, eris.Wrap(err, "register components")
		}
	}

	g := &Game{
		Clock:  NewClock(opts.Tick),
		Input:  NewInputQueue(),
		Width:  opts.Width,
		Height: opts.Height,
	}
	g.Movement = NewMovementSystem(opts.Rules, opts.Width, opts.Height, log.Named(SystemMovement))

	if err := w.RegisterFunc(SystemCollision,
		[]ecs.Access{ecs.Reads[GridPosition]()}, AuditCollisions, SystemMovement); err != nil {
		return nil, err
	}
	for _, s := range []ecs.System{
		g.Movement,
		NewInputSystem(g.Clock, g.Input, log.Named(SystemInput)),
		NewTimeSystem(g.Clock),
	} {
		if err := w.RegisterSystem(s); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Render draws the board: '#' for obstacles, the first letter of a player's
// name for players, '.' for empty tiles. Entities off the board are skipped.
func Render(w *ecs.World, width, height int) string {
	rows := make([][]byte, height)
	for y := range rows {
		rows[y] = []byte(strings.Repeat(".", width))
	}
	put := func(pos GridPosition, c byte) {
		if pos.X >= 0 && pos.Y >= 0 && pos.X < width && pos.Y < height {
			rows[pos.Y][pos.X] = c
		}
	}

	ecs.Query1[ecs.Read[GridPosition]](w, ecs.With[Obstacle]()).ForEach(func(_ ecs.Entity, p ecs.Read[GridPosition]) {
		put(p.Get(), '#')
	})
	ecs.Query2[ecs.Read[GridPosition], ecs.Read[Player]](w).ForEach(func(_ ecs.Entity, p ecs.Read[GridPosition], pl ecs.Read[Player]) {
		c := byte('@')
		if name := pl.Get().Name; name != "" {
			c = name[0]
		}
		put(p.Get(), c)
	})

	lines := make([]string, height)
	for y, row := range rows {
		lines[y] = string(row)
	}
	return strings.Join(lines, "\n")
}
