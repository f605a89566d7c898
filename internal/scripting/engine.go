package scripting

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

//go:embed scripts/*.lua
var defaultScripts embed.FS

// Engine wraps a single gopher-lua VM holding the tunable game formulas:
// the experience curve, kill rewards and the death penalty. The embedded
// defaults always load first; files in the override directory are loaded on
// top, so operators can patch a formula without rebuilding the server.
// Single-goroutine access only (game loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates the VM, loads the embedded defaults, then applies any
// .lua overrides found in overrideDir ("" = no overrides).
func NewEngine(overrideDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{SkipOpenLibs: false})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}

	entries, err := defaultScripts.ReadDir("scripts")
	if err != nil {
		vm.Close()
		return nil, fmt.Errorf("read embedded scripts: %w", err)
	}
	for _, entry := range entries {
		src, err := defaultScripts.ReadFile("scripts/" + entry.Name())
		if err != nil {
			vm.Close()
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		if err := vm.DoString(string(src)); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s: %w", entry.Name(), err)
		}
	}

	if overrideDir != "" {
		if err := e.loadDir(overrideDir); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load overrides: %w", err)
		}
	}
	return e, nil
}

// loadDir loads all .lua files in a directory. Missing dirs are fine.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
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

// ExpForLevel calls Lua exp_for_level(level): total experience required to
// reach the level.
func (e *Engine) ExpForLevel(level int) int64 {
	return int64(e.callIntFunc("exp_for_level", level))
}

// LevelFromExp calls Lua level_from_exp(exp).
func (e *Engine) LevelFromExp(exp int64) int {
	fn := e.vm.GetGlobal("level_from_exp")
	if fn == lua.LNil {
		e.log.Error("lua function not found", zap.String("name", "level_from_exp"))
		return 1
	}
	if err := e.vm.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true},
		lua.LNumber(exp)); err != nil {
		e.log.Error("lua level_from_exp error", zap.Error(err))
		return 1
	}
	result := e.vm.Get(-1)
	e.vm.Pop(1)
	lvl := int(lua.LVAsNumber(result))
	if lvl < 1 {
		lvl = 1
	}
	return lvl
}

// KillReward holds the experience and gold awarded for a kill.
type KillReward struct {
	Exp  int64
	Gold int64
}

// CalcKillReward calls Lua calc_kill_reward(ctx). The level gap between
// killer and victim scales the base reward; rate multipliers are applied by
// the caller, not here.
func (e *Engine) CalcKillReward(npcLevel, killerLevel int, baseExp, baseGold int64) KillReward {
	fn := e.vm.GetGlobal("calc_kill_reward")
	if fn == lua.LNil {
		e.log.Error("lua function not found", zap.String("name", "calc_kill_reward"))
		return KillReward{Exp: baseExp, Gold: baseGold}
	}

	t := e.vm.NewTable()
	t.RawSetString("npc_level", lua.LNumber(npcLevel))
	t.RawSetString("killer_level", lua.LNumber(killerLevel))
	t.RawSetString("base_exp", lua.LNumber(baseExp))
	t.RawSetString("base_gold", lua.LNumber(baseGold))

	if err := e.vm.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, t); err != nil {
		e.log.Error("lua calc_kill_reward error", zap.Error(err))
		return KillReward{Exp: baseExp, Gold: baseGold}
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	rt, ok := result.(*lua.LTable)
	if !ok {
		e.log.Error("lua calc_kill_reward returned non-table")
		return KillReward{Exp: baseExp, Gold: baseGold}
	}
	return KillReward{
		Exp:  int64(lua.LVAsNumber(rt.RawGetString("exp"))),
		Gold: int64(lua.LVAsNumber(rt.RawGetString("gold"))),
	}
}

// CalcDeathPenalty calls Lua calc_death_penalty(level, exp) and returns the
// experience lost on death. Never drops a player below their current level's
// threshold; the script enforces that with exp_for_level.
func (e *Engine) CalcDeathPenalty(level int, exp int64) int64 {
	fn := e.vm.GetGlobal("calc_death_penalty")
	if fn == lua.LNil {
		return 0
	}
	if err := e.vm.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true},
		lua.LNumber(level), lua.LNumber(exp)); err != nil {
		e.log.Error("lua calc_death_penalty error", zap.Error(err))
		return 0
	}
	result := e.vm.Get(-1)
	e.vm.Pop(1)
	loss := int64(lua.LVAsNumber(result))
	if loss < 0 {
		loss = 0
	}
	return loss
}

// callIntFunc calls a Lua function with int args and returns its int result.
func (e *Engine) callIntFunc(name string, args ...int) int {
	fn := e.vm.GetGlobal(name)
	if fn == lua.LNil {
		e.log.Error("lua function not found", zap.String("name", name))
		return 0
	}
	lArgs := make([]lua.LValue, len(args))
	for i, a := range args {
		lArgs[i] = lua.LNumber(a)
	}
	if err := e.vm.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, lArgs...); err != nil {
		e.log.Error("lua call error", zap.String("func", name), zap.Error(err))
		return 0
	}
	result := e.vm.Get(-1)
	e.vm.Pop(1)
	return int(lua.LVAsNumber(result))
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
