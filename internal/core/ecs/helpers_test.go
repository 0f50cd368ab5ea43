package ecs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type Position struct{ X, Y int }
type Velocity struct{ DX, DY int }
type Health struct{ HP int }
type Frozen struct{}

type Tag struct{ Label string }

func (Tag) ComponentName() string { return "label" }

type Bounded struct{ V int }

func (b Bounded) Validate() error {
	if b.V < 0 {
		return errors.New("negative")
	}
	return nil
}

type Inventory struct{ Items []string }

func (i Inventory) Clone() Inventory {
	return Inventory{Items: append([]string(nil), i.Items...)}
}

func spawn(t *testing.T, w *World, comps ...func(Entity)) Entity {
	t.Helper()
	e := w.CreateEntity()
	for _, c := range comps {
		c(e)
	}
	return e
}

func with[T any](t *testing.T, w *World, v T) func(Entity) {
	return func(e Entity) {
		require.NoError(t, Add(w, e, v))
	}
}

func borrowConflict(t *testing.T, fn func()) *BorrowConflictError {
	t.Helper()
	var got *BorrowConflictError
	func() {
		defer func() {
			r := recover()
			require.NotNil(t, r, "expected a borrow conflict panic")
			var ok bool
			got, ok = r.(*BorrowConflictError)
			require.True(t, ok, "unexpected panic value %v", r)
		}()
		fn()
	}()
	return got
}
