package data

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/l1jgo/gridecs/internal/core/ecs"
	"github.com/l1jgo/gridecs/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

const sampleScene = `
name: sample
width: 4
height: 3
entities:
  - player: ann
    x: 0
    y: 0
  - obstacle: true
    x: 2
    y: 1
inputs:
  - { step: 1, player: ann, dx: 1 }
  - { step: 4, player: ann, dy: 1 }
`

func TestParseScene(t *testing.T) {
	s, err := ParseScene([]byte(sampleScene))
	require.NoError(t, err)

	assert.Equal(t, "sample", s.Name)
	assert.Equal(t, 4, s.Width)
	require.Len(t, s.Entities, 2)
	assert.Equal(t, EntitySpec{Obstacle: true, X: 2, Y: 1}, s.Entities[1])
	assert.Equal(t, uint64(4), s.Steps())
}

func TestSceneSpawnAndQueue(t *testing.T) {
	s, err := ParseScene([]byte(sampleScene))
	require.NoError(t, err)

	w := ecs.NewWorld()
	ids, err := s.Spawn(w)
	require.NoError(t, err)
	require.Len(t, ids, 2)

	p, ok := ecs.Get[game.Player](w, ids[0])
	require.True(t, ok)
	assert.Equal(t, "ann", p.Name)
	assert.True(t, ecs.Has[game.MoveIntent](w, ids[0]))
	assert.True(t, ecs.Has[game.Obstacle](w, ids[1]))
	pos, _ := ecs.Get[game.GridPosition](w, ids[1])
	assert.Equal(t, game.GridPosition{X: 2, Y: 1}, pos)

	q := game.NewInputQueue()
	s.Queue(q)
	assert.Equal(t, 2, q.Len())
	assert.Equal(t, []game.Command{{Player: "ann", DX: 1}}, q.Drain(1))
}

func TestSceneValidation(t *testing.T) {
	s := &Scene{
		Width:  2,
		Height: 2,
		Entities: []EntitySpec{
			{Player: "a", X: 0, Y: 0},
			{Player: "a", X: 1, Y: 0},
			{Obstacle: true, X: 0, Y: 0},
			{X: 1, Y: 1},
			{Player: "b", Obstacle: true, X: 5, Y: 1},
		},
		Inputs: []InputSpec{
			{Step: 0, Player: "a"},
			{Step: 1, Player: "ghost"},
		},
	}
	err := s.Validate()
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 7)
}

func TestLoadScene(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleScene), 0o644))

	s, err := LoadScene(path)
	require.NoError(t, err)
	assert.Len(t, s.Inputs, 2)

	_, err = LoadScene(filepath.Join(dir, "none.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("width: [1"), 0o644))
	_, err = LoadScene(bad)
	assert.Error(t, err)
}

func TestBundledScene(t *testing.T) {
	s, err := LoadScene(filepath.Join("..", "..", "config", "scene.yaml"))
	require.NoError(t, err)
	assert.NotEmpty(t, s.Entities)
}
