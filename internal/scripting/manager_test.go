package scripting_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/duskhaven/mudcore/internal/game/dice"
	"github.com/duskhaven/mudcore/internal/scripting"
)

// fixedSource always rolls the die's maximum face.
type fixedSource struct{}

func (fixedSource) Intn(n int) int { return n - 1 }
func (fixedSource) Float64() float64 {
	return 0
}

func newTestManager(t *testing.T) *scripting.Manager {
	t.Helper()
	roller := dice.NewLoggedRoller(fixedSource{}, zap.NewNop())
	m := scripting.NewManager(roller, zap.NewNop())
	t.Cleanup(m.Close)
	return m
}

func writeScript(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestManager_ProcDamage(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "venom.lua", `
function venom_bite(owner_level, recipient_level)
  return owner_level * 2 + recipient_level
end
`)

	m := newTestManager(t)
	require.NoError(t, m.LoadDirectory(dir, 0))

	amount, err := m.ProcDamage("venom_bite", 5, 3)
	require.NoError(t, err)
	assert.Equal(t, 13, amount)
}

func TestManager_ProcDamage_UndefinedHook(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.LoadDirectory(t.TempDir(), 0))

	_, err := m.ProcDamage("missing_hook", 1, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing_hook")
}

func TestManager_ProcDamage_NoScriptsLoaded(t *testing.T) {
	m := newTestManager(t)
	_, err := m.ProcDamage("anything", 1, 1)
	require.Error(t, err)
}

func TestManager_ProcDamage_NonNumberReturn(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "bad.lua", `
function bad_hook()
  return "not a number"
end
`)

	m := newTestManager(t)
	require.NoError(t, m.LoadDirectory(dir, 0))

	_, err := m.ProcDamage("bad_hook", 1, 1)
	require.Error(t, err)
}

func TestManager_ProcDamage_NegativeFlooredToZero(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "drain.lua", `
function drain(owner_level, recipient_level)
  return owner_level - recipient_level
end
`)

	m := newTestManager(t)
	require.NoError(t, m.LoadDirectory(dir, 0))

	amount, err := m.ProcDamage("drain", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, amount)
}

func TestManager_EngineRollAvailableToHooks(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "smite.lua", `
function smite(owner_level, recipient_level)
  return engine.roll("2d6") + owner_level
end
`)

	m := newTestManager(t)
	require.NoError(t, m.LoadDirectory(dir, 0))

	// The fixed source rolls maximum faces: 2d6 = 12.
	amount, err := m.ProcDamage("smite", 3, 1)
	require.NoError(t, err)
	assert.Equal(t, 15, amount)
}

func TestManager_LoadDirectory_SyntaxErrorKeepsOldVM(t *testing.T) {
	good := t.TempDir()
	writeScript(t, good, "ok.lua", `function ok() return 1 end`)
	bad := t.TempDir()
	writeScript(t, bad, "broken.lua", `function broken( return`)

	m := newTestManager(t)
	require.NoError(t, m.LoadDirectory(good, 0))
	require.Error(t, m.LoadDirectory(bad, 0))

	amount, err := m.ProcDamage("ok", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, amount)
}
