package system

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// Unit is anything a Runner can order: a stable name plus the names of
// the units that must run before it.
type Unit interface {
	Name() string
	Dependencies() []string
}

// State is the lifecycle state of a registered unit.
type State int

const (
	StateUnknown State = iota // not registered
	StatePending              // registered, waiting for Finalize
	StateOrdered              // placed in the finalized run order
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateOrdered:
		return "ordered"
	default:
		return "unknown"
	}
}

var (
	ErrEmptySystemName = eris.New("system name must not be empty")
	ErrDuplicateSystem = eris.New("system already registered")
)

// CircularDependencyError is returned by Finalize when Kahn's algorithm stops
// before every unit is ordered. Cycle holds the units that sit on a cycle,
// Unresolved every unit left without a position (cycle members plus anything
// downstream of them). Both are in registration order.
type CircularDependencyError struct {
	Cycle      []string
	Unresolved []string
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("circular system dependency among [%s]", strings.Join(e.Cycle, ", "))
}

// UnknownDependencyError is returned by Finalize when System names a
// dependency that was never registered.
type UnknownDependencyError struct {
	System     string
	Dependency string
}

func (e *UnknownDependencyError) Error() string {
	return fmt.Sprintf("system %q depends on unknown system %q", e.System, e.Dependency)
}
