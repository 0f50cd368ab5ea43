package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/l1jgo/gridecs/internal/config"
	"github.com/l1jgo/gridecs/internal/core/ecs"
	"github.com/l1jgo/gridecs/internal/core/event"
	"github.com/l1jgo/gridecs/internal/core/system"
	"github.com/l1jgo/gridecs/internal/data"
	"github.com/l1jgo/gridecs/internal/debug"
	"github.com/l1jgo/gridecs/internal/game"
	"github.com/l1jgo/gridecs/internal/scripting"
	"github.com/pkg/profile"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(scene string, width, height int) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m              gridsim  v0.1.0              \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mscene:\033[0m %s \033[90m(%dx%d)\033[0m\n\n", scene, width, height)
}

func printSection(title string) {
	lineLen := max(46-len(title)-1, 3)
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := max(42-len(label)-len(numStr), 3)
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

func printBoard(board string) {
	for _, line := range strings.Split(board, "\n") {
		fmt.Printf("    %s\n", line)
	}
	fmt.Println()
}

// ── Simulation ────────────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/gridsim.toml"
	if p := os.Getenv("GRIDSIM_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	if p := startProfile(cfg.Profile); p != nil {
		defer p.Stop()
	}

	// 3. Scene and rules
	scene, err := data.LoadScene(cfg.Scene.Path)
	if err != nil {
		return fmt.Errorf("load scene: %w", err)
	}
	width, height := cfg.Simulation.Width, cfg.Simulation.Height
	if scene.Width > 0 && scene.Height > 0 {
		width, height = scene.Width, scene.Height
	}
	printBanner(scene.Name, width, height)

	printSection("rules")
	rules, err := scripting.NewEngine(cfg.Scripts.Dir, log.Named("lua"))
	if err != nil {
		return fmt.Errorf("scripting: %w", err)
	}
	defer rules.Close()
	for _, s := range rules.Loaded() {
		printOK(s)
	}
	fmt.Println()

	// 4. World
	bus := event.NewBus()
	opts := []ecs.Option{ecs.WithLogger(log.Named("ecs")), ecs.WithEventBus(bus)}
	var rec *debug.Recorder
	if cfg.Debug.Enabled {
		rec = debug.NewRecorder(cfg.Debug.Watch, cfg.Debug.MaxDiffs, log.Named("debug"))
		opts = append(opts, ecs.WithObserver(rec))
	}
	w := ecs.NewWorld(opts...)

	g, err := game.Install(w, game.Options{
		Width:  width,
		Height: height,
		Tick:   cfg.Simulation.TickRate,
		Rules:  rules,
		Log:    log.Named("game"),
	})
	if err != nil {
		return fmt.Errorf("install game: %w", err)
	}
	subscribe(bus, log)

	printSection("world")
	if _, err := scene.Spawn(w); err != nil {
		return fmt.Errorf("spawn scene: %w", err)
	}
	scene.Queue(g.Input)
	printStat("entities", w.EntityCount())
	printStat("scripted inputs", g.Input.Len())
	printStat("components", len(w.ComponentNames()))
	fmt.Println()

	// 5. Systems. Dependency errors abort before the first step.
	printSection("systems")
	if err := w.FinalizeSystems(); err != nil {
		var cycle *system.CircularDependencyError
		if errors.As(err, &cycle) {
			log.Error("system graph has a cycle", zap.Strings("cycle", cycle.Cycle))
		}
		return err
	}
	for i, name := range w.SystemOrder() {
		printOK(fmt.Sprintf("%d. %s", i+1, name))
	}
	fmt.Println()
	printBoard(game.Render(w, width, height))

	// 6. Step loop
	steps := uint64(cfg.Simulation.Steps)
	if steps == 0 {
		steps = scene.Steps()
	}
	printSection("running")
	printReady(fmt.Sprintf("%d steps (tick: %s)", steps, cfg.Simulation.TickRate))
	fmt.Println()

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	var tick <-chan time.Time
	if cfg.Simulation.TickRate > 0 {
		ticker := time.NewTicker(cfg.Simulation.TickRate)
		defer ticker.Stop()
		tick = ticker.C
	}

loop:
	for w.Step() < steps {
		if tick != nil {
			select {
			case <-tick:
			case sig := <-shutdownCh:
				log.Info("interrupted", zap.String("signal", sig.String()))
				break loop
			}
		}
		if err := w.RunSystems(); err != nil {
			return fmt.Errorf("step %d: %w", w.Step(), err)
		}
	}
	// One more dispatch so events from the last step reach subscribers.
	bus.SwapBuffers()
	bus.DispatchAll()

	if err := w.Validate(); err != nil {
		log.Warn("world failed validation", zap.Error(err))
	}

	printSection("result")
	printBoard(game.Render(w, width, height))
	printStat("steps", int(w.Step()))
	printStat("moves", g.Movement.Moves())
	printStat("blocked moves", g.Movement.Blocked())
	if rec != nil {
		printStat("recorded diffs", len(rec.Diffs()))
	}
	fmt.Println()
	return nil
}

func subscribe(bus *event.Bus, log *zap.Logger) {
	event.Subscribe(bus, func(ev game.Moved) {
		log.Info("moved",
			zap.Uint64("entity", uint64(ev.Entity)),
			zap.Int("x", ev.To.X), zap.Int("y", ev.To.Y))
	})
	event.Subscribe(bus, func(ev game.MoveBlocked) {
		log.Info("blocked",
			zap.Uint64("entity", uint64(ev.Entity)),
			zap.Int("x", ev.Target.X), zap.Int("y", ev.Target.Y))
	})
	event.Subscribe(bus, func(ev ecs.EntityDestroyed) {
		log.Debug("entity destroyed", zap.Uint64("entity", uint64(ev.Entity)))
	})
}

func startProfile(cfg config.ProfileConfig) interface{ Stop() } {
	switch cfg.Mode {
	case "cpu":
		return profile.Start(profile.CPUProfile, profile.ProfilePath(cfg.Path), profile.NoShutdownHook, profile.Quiet)
	case "mem":
		return profile.Start(profile.MemProfileAllocs, profile.ProfilePath(cfg.Path), profile.NoShutdownHook, profile.Quiet)
	default:
		return nil
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
