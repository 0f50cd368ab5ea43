package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"go.uber.org/multierr"
)

type Config struct {
	Simulation SimulationConfig `toml:"simulation"`
	Logging    LoggingConfig    `toml:"logging"`
	Debug      DebugConfig      `toml:"debug"`
	Scripts    ScriptsConfig    `toml:"scripts"`
	Scene      SceneConfig      `toml:"scene"`
	Profile    ProfileConfig    `toml:"profile"`
}

type SimulationConfig struct {
	Steps    int           `toml:"steps"`     // 0 keeps the scene's own script length
	TickRate time.Duration `toml:"tick_rate"` // 0 runs steps back to back
	Width    int           `toml:"width"`
	Height   int           `toml:"height"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

type DebugConfig struct {
	Enabled  bool     `toml:"enabled"`
	Watch    []string `toml:"watch"` // component names to diff around each system
	MaxDiffs int      `toml:"max_diffs"`
}

type ScriptsConfig struct {
	Dir string `toml:"dir"` // optional; built-in rules are used when empty or missing
}

type SceneConfig struct {
	Path string `toml:"path"`
}

type ProfileConfig struct {
	Mode string `toml:"mode"` // "cpu", "mem", or "" for off
	Path string `toml:"path"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() *Config { return defaults() }

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs error
	if c.Simulation.Steps < 0 {
		errs = multierr.Append(errs, fmt.Errorf("simulation.steps must not be negative, got %d", c.Simulation.Steps))
	}
	if c.Simulation.TickRate < 0 {
		errs = multierr.Append(errs, fmt.Errorf("simulation.tick_rate must not be negative, got %s", c.Simulation.TickRate))
	}
	if c.Simulation.Width <= 0 || c.Simulation.Height <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("simulation grid must be positive, got %dx%d", c.Simulation.Width, c.Simulation.Height))
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		errs = multierr.Append(errs, fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format))
	}
	if c.Debug.MaxDiffs < 0 {
		errs = multierr.Append(errs, fmt.Errorf("debug.max_diffs must not be negative, got %d", c.Debug.MaxDiffs))
	}
	switch c.Profile.Mode {
	case "", "cpu", "mem":
	default:
		errs = multierr.Append(errs, fmt.Errorf("profile.mode must be cpu, mem or empty, got %q", c.Profile.Mode))
	}
	return errs
}

func defaults() *Config {
	return &Config{
		Simulation: SimulationConfig{
			Steps:    0,
			TickRate: 100 * time.Millisecond,
			Width:    10,
			Height:   8,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Debug: DebugConfig{
			Enabled:  false,
			Watch:    []string{"game.GridPosition"},
			MaxDiffs: 1024,
		},
		Scene: SceneConfig{
			Path: "config/scene.yaml",
		},
		Profile: ProfileConfig{
			Path: ".",
		},
	}
}
