package scripting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeScript(t *testing.T, dir, name, src string) {
	t.Helper()
	combat := filepath.Join(dir, "combat")
	require.NoError(t, os.MkdirAll(combat, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(combat, name), []byte(src), 0o644))
}

func TestBundledBulletScript(t *testing.T) {
	e, err := NewEngine(filepath.Join("..", "..", "scripts"), zap.NewNop())
	require.NoError(t, err)
	defer e.Close()

	assert.Equal(t, 25, e.BulletDamage("manBlue", "hitman1", 100, 25))
	assert.Equal(t, 10, e.BulletDamage("hitman1", "manBlue", 10, 25), "clamped to remaining health")
}

func TestCustomFormula(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "bullet.lua", `
function calc_bullet_damage(ctx)
  if ctx.attacker.skin == ctx.victim.skin then
    return 0
  end
  return ctx.base * 2
end`)
	e, err := NewEngine(dir, zap.NewNop())
	require.NoError(t, err)
	defer e.Close()

	assert.Equal(t, 0, e.BulletDamage("hitman1", "hitman1", 100, 25))
	assert.Equal(t, 50, e.BulletDamage("hitman1", "manOld", 100, 25))
}

func TestFallbacks(t *testing.T) {
	empty, err := NewEngine(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	defer empty.Close()
	assert.Equal(t, 25, empty.BulletDamage("a", "b", 100, 25), "no function defined")

	dir := t.TempDir()
	writeScript(t, dir, "bad.lua", `
function calc_bullet_damage(ctx)
  if ctx.victim.health > 50 then
    error("boom")
  end
  return "lots"
end`)
	e, err := NewEngine(dir, zap.NewNop())
	require.NoError(t, err)
	defer e.Close()
	assert.Equal(t, 25, e.BulletDamage("a", "b", 100, 25), "runtime error")
	assert.Equal(t, 25, e.BulletDamage("a", "b", 10, 25), "non-number result")
}

func TestSyntaxErrorFailsLoad(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "broken.lua", "function (")
	_, err := NewEngine(dir, zap.NewNop())
	assert.Error(t, err)
}
