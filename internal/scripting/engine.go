package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM for combat formulas.
// Single-goroutine access only (game loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads all scripts from the given
// directory. Missing subdirectories are skipped; a script that fails to
// load is an error.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	// Set API version global
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}

	for _, sub := range []string{"core", "combat"} {
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

// BulletDamage calls the Lua calc_bullet_damage function. Any failure
// (missing function, runtime error, non-numeric result) falls back to base.
func (e *Engine) BulletDamage(attackerSkin, victimSkin string, victimHealth, base int) int {
	fn := e.vm.GetGlobal("calc_bullet_damage")
	if fn == lua.LNil {
		return base
	}

	t := e.vm.NewTable()

	atk := e.vm.NewTable()
	atk.RawSetString("skin", lua.LString(attackerSkin))
	t.RawSetString("attacker", atk)

	vic := e.vm.NewTable()
	vic.RawSetString("skin", lua.LString(victimSkin))
	vic.RawSetString("health", lua.LNumber(victimHealth))
	t.RawSetString("victim", vic)

	t.RawSetString("base", lua.LNumber(base))

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua calc_bullet_damage error", zap.Error(err))
		return base
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	n, ok := result.(lua.LNumber)
	if !ok {
		e.log.Error("lua calc_bullet_damage returned non-number", zap.String("type", result.Type().String()))
		return base
	}
	return int(n)
}

// Close releases the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
