package game

import (
	"errors"

	"github.com/l1jgo/gridecs/internal/core/ecs"
	"github.com/l1jgo/gridecs/internal/core/event"
	"github.com/l1jgo/gridecs/internal/scripting"
	"github.com/rotisserie/eris"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	SystemTime      = "time"
	SystemInput     = "input"
	SystemMovement  = "movement"
	SystemCollision = "collision-audit"
)

// ErrOverlap is reported by the collision audit.
var ErrOverlap = eris.New("entities share a tile")

// Rules decides where a move ends. *scripting.Engine implements it.
type Rules interface {
	ResolveMove(ctx scripting.MoveContext) scripting.MoveResult
}

// TimeSystem advances the shared clock once per step.
type TimeSystem struct {
	clock *Clock
}

func NewTimeSystem(clock *Clock) *TimeSystem {
	return &TimeSystem{clock: clock}
}

func (s *TimeSystem) Name() string         { return SystemTime }
func (s *TimeSystem) Access() []ecs.Access { return nil }

func (s *TimeSystem) Update(_ *ecs.Context) error {
	s.clock.Advance()
	return nil
}

// InputSystem turns the commands queued for the current clock step into
// MoveIntent components on the addressed players.
type InputSystem struct {
	clock *Clock
	queue *InputQueue
	log   *zap.Logger
}

func NewInputSystem(clock *Clock, queue *InputQueue, log *zap.Logger) *InputSystem {
	return &InputSystem{clock: clock, queue: queue, log: log}
}

func (s *InputSystem) Name() string           { return SystemInput }
func (s *InputSystem) Dependencies() []string { return []string{SystemTime} }

func (s *InputSystem) Access() []ecs.Access {
	return []ecs.Access{ecs.Reads[Player](), ecs.Writes[MoveIntent]()}
}

func (s *InputSystem) Update(ctx *ecs.Context) error {
	cmds := s.queue.Drain(s.clock.Step)
	if len(cmds) == 0 {
		return nil
	}

	players := make(map[string]ecs.Entity)
	ecs.Query1[ecs.Read[Player]](ctx).ForEach(func(e ecs.Entity, p ecs.Read[Player]) {
		players[p.Get().Name] = e
	})

	for _, cmd := range cmds {
		e, ok := players[cmd.Player]
		if !ok {
			s.log.Warn("input for unknown player", zap.String("player", cmd.Player), zap.Uint64("step", s.clock.Step))
			continue
		}
		err := ecs.Add(ctx, e, MoveIntent{DX: cmd.DX, DY: cmd.DY})
		if errors.Is(err, ecs.ErrInvalidComponent) {
			s.log.Warn("rejected input", zap.String("player", cmd.Player), zap.Error(err))
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// MovementSystem applies MoveIntent to GridPosition through the configured
// rules. Moves onto occupied or off-board tiles are refused even when the
// rules allow them.
type MovementSystem struct {
	rules         Rules
	width, height int
	grid          *Occupancy
	log           *zap.Logger
	moves         int
	blocked       int
}

func NewMovementSystem(rules Rules, width, height int, log *zap.Logger) *MovementSystem {
	return &MovementSystem{
		rules:  rules,
		width:  width,
		height: height,
		grid:   NewOccupancy(),
		log:    log,
	}
}

func (s *MovementSystem) Name() string           { return SystemMovement }
func (s *MovementSystem) Dependencies() []string { return []string{SystemInput} }

func (s *MovementSystem) Access() []ecs.Access {
	return []ecs.Access{ecs.Writes[GridPosition](), ecs.Writes[MoveIntent]()}
}

// Moves and Blocked count resolved and refused moves since creation.
func (s *MovementSystem) Moves() int   { return s.moves }
func (s *MovementSystem) Blocked() int { return s.blocked }

func (s *MovementSystem) Update(ctx *ecs.Context) error {
	s.grid.Reset()
	ecs.Query1[ecs.Read[GridPosition]](ctx).ForEach(func(e ecs.Entity, p ecs.Read[GridPosition]) {
		pos := p.Get()
		s.grid.Occupy(pos.X, pos.Y, e)
	})

	bus := ctx.Events()
	ecs.Query2[ecs.Write[GridPosition], ecs.Write[MoveIntent]](ctx).ForEach(
		func(e ecs.Entity, p ecs.Write[GridPosition], m ecs.Write[MoveIntent]) {
			in := *m.Get()
			if in.IsZero() {
				return
			}
			m.Set(MoveIntent{})

			from := *p.Get()
			target := GridPosition{X: from.X + in.DX, Y: from.Y + in.DY}
			res := s.rules.ResolveMove(scripting.MoveContext{
				X: from.X, Y: from.Y,
				DX: in.DX, DY: in.DY,
				Width: s.width, Height: s.height,
				Blocked: s.grid.IsOccupied(target.X, target.Y, e),
			})
			to := GridPosition{X: res.X, Y: res.Y}

			if !res.Moved || to == from {
				s.refuse(bus, e, from, target)
				return
			}
			if !s.legal(e, from, to) {
				s.log.Warn("rules produced an illegal move",
					zap.Uint64("entity", uint64(e)),
					zap.Int("x", to.X), zap.Int("y", to.Y))
				s.refuse(bus, e, from, target)
				return
			}

			s.grid.Move(from.X, from.Y, to.X, to.Y, e)
			p.Set(to)
			s.moves++
			if bus != nil {
				event.Emit(bus, Moved{Entity: e, From: from, To: to})
			}
		})
	return nil
}

func (s *MovementSystem) refuse(bus *event.Bus, e ecs.Entity, at, target GridPosition) {
	s.blocked++
	if bus != nil {
		event.Emit(bus, MoveBlocked{Entity: e, At: at, Target: target})
	}
}

func (s *MovementSystem) legal(e ecs.Entity, from, to GridPosition) bool {
	if to.X < 0 || to.Y < 0 || to.X >= s.width || to.Y >= s.height {
		return false
	}
	if abs(to.X-from.X) > 1 || abs(to.Y-from.Y) > 1 {
		return false
	}
	return !s.grid.IsOccupied(to.X, to.Y, e)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// AuditCollisions fails the step when two entities share a tile.
func AuditCollisions(ctx *ecs.Context) error {
	seen := make(map[tile]ecs.Entity)
	var errs error
	ecs.Query1[ecs.Read[GridPosition]](ctx).ForEach(func(e ecs.Entity, p ecs.Read[GridPosition]) {
		pos := p.Get()
		k := tile{X: pos.X, Y: pos.Y}
		if other, ok := seen[k]; ok {
			errs = multierr.Append(errs, eris.Wrapf(ErrOverlap, "entities %d and %d at (%d,%d)", other, e, pos.X, pos.Y))
			return
		}
		seen[k] = e
	})
	return errs
}
