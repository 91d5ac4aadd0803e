package data

import (
	"path/filepath"
	"testing"

	"github.com/lightsout/server/internal/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMapScales(t *testing.T) {
	raw := []byte(`
name: test
width: 800
height: 600
spawn: [100, 200]
solids:
  - {x: 10, y: 20, w: 30, h: 40}
  - {x: 0, y: 0, w: 8, h: 8, transparent: true}
guards:
  - [[0, 0], [100, 0]]
objects:
  - {x: 50, y: 60, rotation: 90, sprite: bag}
`)
	m, err := ParseMap(raw, 0.5)
	require.NoError(t, err)

	assert.Equal(t, "test", m.Name)
	assert.Equal(t, 400.0, m.Width)
	b, ok := m.Bounds()
	require.True(t, ok)
	assert.Equal(t, geom.R(0, 0, 400, 300), b)
	assert.Equal(t, geom.V(50, 100), m.Spawn)
	require.Len(t, m.Solids, 2)
	assert.Equal(t, geom.R(5, 10, 15, 20), m.Solids[0].Rect)
	assert.True(t, m.Solids[1].Transparent)
	require.Len(t, m.Guards, 1)
	assert.Equal(t, []geom.Vec2{geom.V(0, 0), geom.V(50, 0)}, m.Guards[0])
	require.Len(t, m.Props, 1)
	assert.Equal(t, Prop{Pos: geom.V(25, 30), Rotation: 90, Sprite: "bag"}, m.Props[0])
}

func TestParseMapRejects(t *testing.T) {
	cases := map[string]string{
		"bad yaml":       "solids: [",
		"missing spawn":  "name: x",
		"zero size":      "spawn: [0, 0]\nsolids:\n  - {x: 0, y: 0, w: 0, h: 5}",
		"empty route":    "spawn: [0, 0]\nguards:\n  - []",
		"short point":    "spawn: [0, 0]\nguards:\n  - [[1]]",
		"unknown sprite": "spawn: [0, 0]\nobjects:\n  - {x: 1, y: 1, sprite: piano}",
		"negative size":  "width: -1\nheight: 10\nspawn: [0, 0]",
		"spawn outside":  "width: 100\nheight: 100\nspawn: [150, 50]",
		"guard outside":  "width: 100\nheight: 100\nspawn: [5, 5]\nguards:\n  - [[10, 10], [10, 100]]",
		"object outside": "width: 100\nheight: 100\nspawn: [5, 5]\nobjects:\n  - {x: -1, y: 1, sprite: bag}",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseMap([]byte(raw), 1)
			assert.Error(t, err)
		})
	}

	_, err := ParseMap([]byte("spawn: [0, 0]"), 0)
	assert.Error(t, err)
}

func TestUnsizedMapIsUnbounded(t *testing.T) {
	m, err := ParseMap([]byte("spawn: [-500, 9000]\nobjects:\n  - {x: -1, y: -1, sprite: bag}"), 1)
	require.NoError(t, err)
	_, ok := m.Bounds()
	assert.False(t, ok)
}

func TestLoadBundledMap(t *testing.T) {
	m, err := LoadMap(filepath.Join("..", "..", "data", "maps", "main.yaml"), DefaultScale)
	require.NoError(t, err)
	assert.NotEmpty(t, m.Solids)
	assert.NotEmpty(t, m.Guards)
	assert.NotEmpty(t, m.Props)
	assert.Greater(t, m.Spawn.X, 0.0)

	for _, s := range m.Solids {
		assert.False(t, s.Rect.Contains(m.Spawn), "spawn inside %v", s.Rect)
	}
}
