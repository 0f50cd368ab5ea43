package scripting

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

//go:embed rules/*.lua
var builtin embed.FS

// Engine wraps a single gopher-lua VM for game rules.
// Single-goroutine access only (simulation loop).
type Engine struct {
	vm     *lua.LState
	log    *zap.Logger
	loaded []string
}

// NewEngine creates a Lua engine with the built-in rules, then loads every
// .lua file in scriptsDir on top of them. An empty or missing directory keeps
// the built-ins.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}
	if err := e.loadBuiltin(); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load builtin rules: %w", err)
	}
	if scriptsDir != "" {
		if err := e.loadDir(scriptsDir); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load scripts: %w", err)
		}
	}
	return e, nil
}

func (e *Engine) loadBuiltin() error {
	entries, err := builtin.ReadDir("rules")
	if err != nil {
		return err
	}
	for _, entry := range entries {
		name := "rules/" + entry.Name()
		src, err := builtin.ReadFile(name)
		if err != nil {
			return err
		}
		if err := e.vm.DoString(string(src)); err != nil {
			return fmt.Errorf("load %s: %w", name, err)
		}
		e.loaded = append(e.loaded, "builtin:"+name)
	}
	return nil
}

// loadDir runs every .lua file in dir, in name order. Later definitions of
// resolve_move replace the built-in one.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.loaded = append(e.loaded, path)
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// Loaded lists the scripts run so far, built-ins first.
func (e *Engine) Loaded() []string { return e.loaded }

// DoString runs a chunk in the engine's VM. Mostly useful for overriding a
// rule from a test or a console.
func (e *Engine) DoString(src string) error {
	return e.vm.DoString(src)
}

// MoveContext is the packed input for one movement decision.
type MoveContext struct {
	X, Y          int
	DX, DY        int
	Width, Height int
	Blocked       bool // the target tile holds another entity
}

// MoveResult is returned by the Lua resolve_move function.
type MoveResult struct {
	X, Y  int
	Moved bool
}

func stay(ctx MoveContext) MoveResult {
	return MoveResult{X: ctx.X, Y: ctx.Y}
}

// ResolveMove calls the Lua resolve_move function. Any scripting failure
// leaves the mover where it is.
func (e *Engine) ResolveMove(ctx MoveContext) MoveResult {
	fn := e.vm.GetGlobal("resolve_move")
	if fn == lua.LNil {
		e.log.Error("lua function resolve_move not found")
		return stay(ctx)
	}

	t := e.vm.NewTable()
	t.RawSetString("x", lua.LNumber(ctx.X))
	t.RawSetString("y", lua.LNumber(ctx.Y))
	t.RawSetString("dx", lua.LNumber(ctx.DX))
	t.RawSetString("dy", lua.LNumber(ctx.DY))
	t.RawSetString("width", lua.LNumber(ctx.Width))
	t.RawSetString("height", lua.LNumber(ctx.Height))
	t.RawSetString("blocked", lua.LBool(ctx.Blocked))

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua resolve_move error", zap.Error(err))
		return stay(ctx)
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	rt, ok := result.(*lua.LTable)
	if !ok {
		e.log.Error("lua resolve_move returned non-table")
		return stay(ctx)
	}

	return MoveResult{
		X:     int(lua.LVAsNumber(rt.RawGetString("x"))),
		Y:     int(lua.LVAsNumber(rt.RawGetString("y"))),
		Moved: rt.RawGetString("moved") == lua.LTrue,
	}
}

// Close releases the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
