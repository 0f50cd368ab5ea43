package ecs

import (
	"fmt"

	"github.com/rotisserie/eris"
)

var (
	ErrEntityNotFound     = eris.New("entity does not exist")
	ErrComponentNameTaken = eris.New("component name already used by another type")
	ErrInvalidComponent   = eris.New("component failed validation")
)

// BorrowConflictError is the panic value raised when a component cell is
// accessed in a way that breaks the shared/exclusive discipline. It signals a
// bug in the calling system and is not meant to be recovered from.
type BorrowConflictError struct {
	Component string
	Entity    Entity
	Requested string
	Held      string
}

func (e *BorrowConflictError) Error() string {
	return fmt.Sprintf("borrow conflict on %s of entity %d: %s requested while %s",
		e.Component, e.Entity, e.Requested, e.Held)
}

// UndeclaredAccessError is the panic value raised when a system touches a
// component it did not declare, or writes one it declared read-only.
type UndeclaredAccessError struct {
	System    string
	Component string
	Mode      Mode
}

func (e *UndeclaredAccessError) Error() string {
	return fmt.Sprintf("system %q did not declare %s access to %s", e.System, e.Mode, e.Component)
}

// AccessConflictError is the panic value raised when one query names the
// same component type twice and at least one of them writes.
type AccessConflictError struct {
	Component string
}

func (e *AccessConflictError) Error() string {
	return fmt.Sprintf("query requests %s more than once with write access", e.Component)
}
