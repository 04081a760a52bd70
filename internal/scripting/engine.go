package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/brickworld/brickworld/internal/world"
)

// Engine wraps a single gopher-lua VM holding the gameplay rules.
// Single-goroutine access only (game loop).
type Engine struct {
	vm       *lua.LState
	log      *zap.Logger
	fallback world.FixedRules
}

var _ world.Rules = (*Engine)(nil)

// NewEngine creates a Lua engine and loads all scripts from the given
// directory. Rule functions missing from the scripts, or failing at call
// time, fall back to fixed values.
func NewEngine(scriptsDir string, fallback world.FixedRules, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	// Set API version global
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log, fallback: fallback}

	for _, sub := range []string{"core", "combat", "item"} {
		p := filepath.Join(scriptsDir, sub)
		if err := e.loadDir(p); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}
	return e, nil
}

// loadDir loads all .lua files in a directory.
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
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// LoadString runs a chunk of Lua source in the engine's VM.
func (e *Engine) LoadString(src string) error {
	return e.vm.DoString(src)
}

// ContactDamage calls the Lua calc_contact_damage function.
func (e *Engine) ContactDamage(mobKind string, playerHealth int) int {
	t := e.vm.NewTable()
	t.RawSetString("mob", lua.LString(mobKind))
	t.RawSetString("health", lua.LNumber(playerHealth))
	t.RawSetString("base", lua.LNumber(e.fallback.Damage))

	rt, ok := e.callTableFunc("calc_contact_damage", t)
	if !ok {
		return e.fallback.ContactDamage(mobKind, playerHealth)
	}
	dmg := lInt(rt, "damage")
	if dmg < 0 {
		dmg = 0
	}
	return dmg
}

// CollectScore calls the Lua calc_collect_score function.
func (e *Engine) CollectScore(itemKind string, value int) int {
	t := e.vm.NewTable()
	t.RawSetString("item", lua.LString(itemKind))
	t.RawSetString("value", lua.LNumber(value))

	rt, ok := e.callTableFunc("calc_collect_score", t)
	if !ok {
		return e.fallback.CollectScore(itemKind, value)
	}
	return lInt(rt, "score")
}

// callTableFunc calls a Lua function with one context table and expects a
// table back. Reports false when the function is missing or misbehaves.
func (e *Engine) callTableFunc(name string, ctx *lua.LTable) (*lua.LTable, bool) {
	fn := e.vm.GetGlobal(name)
	if fn == lua.LNil {
		return nil, false
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, ctx); err != nil {
		e.log.Error("lua call error", zap.String("func", name), zap.Error(err))
		return nil, false
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	rt, ok := result.(*lua.LTable)
	if !ok {
		e.log.Error("lua function returned non-table", zap.String("func", name))
		return nil, false
	}
	return rt, true
}

// --- Lua helpers ---

// lInt reads an integer field from a Lua table.
func lInt(t *lua.LTable, key string) int {
	return int(lua.LVAsNumber(t.RawGetString(key)))
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
