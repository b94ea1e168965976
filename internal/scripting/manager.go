package scripting

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/duskhaven/mudcore/internal/game/dice"
)

// Manager owns the sandboxed LState holding item damage hooks. Content packs
// declare a hook by defining a global Lua function; item procs reference it
// by name through their script field.
//
// Manager is safe for concurrent ProcDamage after LoadDirectory completes.
// The LState is single-threaded; the mutex serializes hook calls.
type Manager struct {
	mu     sync.Mutex
	state  *lua.LState
	cancel context.CancelFunc
	roller *dice.Roller
	logger *zap.Logger
}

// NewManager creates a Manager with no scripts loaded.
//
// Precondition: roller and logger must be non-nil.
func NewManager(roller *dice.Roller, logger *zap.Logger) *Manager {
	return &Manager{
		roller: roller,
		logger: logger,
	}
}

// LoadDirectory creates a fresh sandboxed VM, registers the engine.* modules,
// then executes every *.lua file in dir in lexicographic order. A previous
// VM, if any, is torn down only after the new one loads cleanly.
//
// Precondition: dir must be a readable directory.
func (m *Manager) LoadDirectory(dir string, instLimit int) error {
	L, cancel := NewSandboxedState(instLimit)
	m.RegisterModules(L)

	entries, err := os.ReadDir(dir)
	if err != nil {
		cancel()
		L.Close()
		return fmt.Errorf("scripting: reading script dir %q: %w", dir, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	for _, path := range luaFiles {
		if err := L.DoFile(path); err != nil {
			cancel()
			L.Close()
			return fmt.Errorf("scripting: loading %q: %w", path, err)
		}
	}

	m.mu.Lock()
	if m.state != nil {
		if m.cancel != nil {
			m.cancel()
		}
		m.state.Close()
	}
	m.state = L
	m.cancel = cancel
	m.mu.Unlock()

	m.logger.Info("scripts loaded",
		zap.String("dir", dir),
		zap.Int("files", len(luaFiles)),
	)
	return nil
}

// ProcDamage calls the named damage hook with the item owner's and the
// payload recipient's levels. The hook must return a number; the result is
// floored at zero.
//
// Precondition: LoadDirectory must have completed.
// Postcondition: Returns an error when no VM is loaded, the hook is
// undefined, the hook raises, or it returns a non-number; the caller decides
// the fallback.
func (m *Manager) ProcDamage(script string, ownerLevel, recipientLevel int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == nil {
		return 0, fmt.Errorf("scripting: no scripts loaded")
	}
	fn := m.state.GetGlobal(script)
	if fn == lua.LNil {
		return 0, fmt.Errorf("scripting: hook %q is not defined", script)
	}

	if err := m.state.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, lua.LNumber(ownerLevel), lua.LNumber(recipientLevel)); err != nil {
		return 0, fmt.Errorf("scripting: hook %q: %w", script, err)
	}

	ret := m.state.Get(-1)
	m.state.Pop(1)
	num, ok := ret.(lua.LNumber)
	if !ok {
		return 0, fmt.Errorf("scripting: hook %q returned %s, want number", script, ret.Type())
	}
	amount := int(num)
	if amount < 0 {
		amount = 0
	}
	return amount, nil
}

// Close tears down the VM. The Manager is unusable afterwards.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		m.cancel()
	}
	if m.state != nil {
		m.state.Close()
		m.state = nil
	}
}
