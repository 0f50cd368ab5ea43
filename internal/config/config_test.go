package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
[simulation]
steps = 12
tick_rate = "250ms"
width = 20

[debug]
enabled = true
watch = ["game.GridPosition", "game.MoveIntent"]

[logging]
format = "json"
`))
	require.NoError(t, err)

	assert.Equal(t, 12, cfg.Simulation.Steps)
	assert.Equal(t, 250*time.Millisecond, cfg.Simulation.TickRate)
	assert.Equal(t, 20, cfg.Simulation.Width)
	assert.Equal(t, 8, cfg.Simulation.Height, "unset keys keep defaults")
	assert.True(t, cfg.Debug.Enabled)
	assert.Equal(t, []string{"game.GridPosition", "game.MoveIntent"}, cfg.Debug.Watch)
	assert.Equal(t, 1024, cfg.Debug.MaxDiffs)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Simulation.Width = 0
	cfg.Simulation.Steps = -1
	cfg.Logging.Format = "xml"
	cfg.Profile.Mode = "trace"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 4)
	assert.Contains(t, err.Error(), "logging.format")
}

func TestParseRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"syntax":   "[simulation\nsteps = 1",
		"type":     "[simulation]\nsteps = \"many\"",
		"duration": "[simulation]\ntick_rate = \"soon\"",
		"grid":     "[simulation]\nheight = -2",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gridsim.toml")
	require.NoError(t, os.WriteFile(path, []byte("[scene]\npath = \"level.yaml\"\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "level.yaml", cfg.Scene.Path)

	_, err = Load(filepath.Join(dir, "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
