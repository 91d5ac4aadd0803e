package data

import (
	"errors"
	"fmt"
	"os"

	"github.com/lightsout/server/internal/geom"
	"gopkg.in/yaml.v3"
)

// DefaultScale is the factor applied to every map coordinate on load.
const DefaultScale = 0.5

// Sprites lists the object images clients know how to draw.
var Sprites = map[string]bool{
	"flatScreen":  true,
	"moniter":     true,
	"oldTV_beige": true,
	"oldTV_black": true,
	"oldTV_wood":  true,
	"bag":         true,
}

// Solid is a wall or piece of furniture. Transparent solids block movement
// but not sight.
type Solid struct {
	Rect        geom.Rect
	Transparent bool
}

// Prop is an object placed on the map that players can carry.
type Prop struct {
	Pos      geom.Vec2
	Rotation float64
	Sprite   string
}

// Map is a loaded, scaled level layout.
type Map struct {
	Name   string
	Width  float64
	Height float64
	Spawn  geom.Vec2
	Solids []Solid
	Guards [][]geom.Vec2 // closed patrol loops
	Props  []Prop
}

// Bounds is the playable area. A map without a size is unbounded and
// reports ok false.
func (m *Map) Bounds() (geom.Rect, bool) {
	if m.Width <= 0 || m.Height <= 0 {
		return geom.Rect{}, false
	}
	return geom.R(0, 0, m.Width, m.Height), true
}

type mapFile struct {
	Name   string      `yaml:"name"`
	Width  float64     `yaml:"width"`
	Height float64     `yaml:"height"`
	Spawn  []float64   `yaml:"spawn"`
	Solids []solidFile `yaml:"solids"`
	Guards [][]point   `yaml:"guards"`
	Props  []propFile  `yaml:"objects"`
}

type point []float64

type solidFile struct {
	X           float64 `yaml:"x"`
	Y           float64 `yaml:"y"`
	W           float64 `yaml:"w"`
	H           float64 `yaml:"h"`
	Transparent bool    `yaml:"transparent"`
}

type propFile struct {
	X        float64 `yaml:"x"`
	Y        float64 `yaml:"y"`
	Rotation float64 `yaml:"rotation"`
	Sprite   string  `yaml:"sprite"`
}

// LoadMap reads a YAML map file and scales it.
func LoadMap(path string, scale float64) (*Map, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read map %s: %w", path, err)
	}
	m, err := ParseMap(raw, scale)
	if err != nil {
		return nil, fmt.Errorf("map %s: %w", path, err)
	}
	return m, nil
}

// ParseMap decodes a YAML map and applies scale to every coordinate and size.
func ParseMap(raw []byte, scale float64) (*Map, error) {
	if scale <= 0 {
		return nil, fmt.Errorf("invalid scale %v", scale)
	}
	var file mapFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse map: %w", err)
	}

	spawn, err := toVec(file.Spawn)
	if err != nil {
		return nil, fmt.Errorf("spawn: %w", err)
	}

	m := &Map{
		Name:   file.Name,
		Width:  file.Width * scale,
		Height: file.Height * scale,
		Spawn:  spawn.Scale(scale),
		Solids: make([]Solid, 0, len(file.Solids)),
		Guards: make([][]geom.Vec2, 0, len(file.Guards)),
		Props:  make([]Prop, 0, len(file.Props)),
	}

	if file.Width < 0 || file.Height < 0 {
		return nil, fmt.Errorf("negative size %vx%v", file.Width, file.Height)
	}

	for i, s := range file.Solids {
		if s.W <= 0 || s.H <= 0 {
			return nil, fmt.Errorf("solid %d: non-positive size %vx%v", i, s.W, s.H)
		}
		m.Solids = append(m.Solids, Solid{
			Rect:        geom.R(s.X*scale, s.Y*scale, s.W*scale, s.H*scale),
			Transparent: s.Transparent,
		})
	}

	for i, route := range file.Guards {
		if len(route) == 0 {
			return nil, fmt.Errorf("guard %d: empty route", i)
		}
		pts := make([]geom.Vec2, 0, len(route))
		for j, p := range route {
			v, err := toVec(p)
			if err != nil {
				return nil, fmt.Errorf("guard %d point %d: %w", i, j, err)
			}
			pts = append(pts, v.Scale(scale))
		}
		m.Guards = append(m.Guards, pts)
	}

	for i, p := range file.Props {
		if !Sprites[p.Sprite] {
			return nil, fmt.Errorf("object %d: unknown sprite %q", i, p.Sprite)
		}
		m.Props = append(m.Props, Prop{
			Pos:      geom.V(p.X*scale, p.Y*scale),
			Rotation: p.Rotation,
			Sprite:   p.Sprite,
		})
	}

	if err := m.checkBounds(); err != nil {
		return nil, err
	}
	return m, nil
}

func toVec(p []float64) (geom.Vec2, error) {
	if len(p) != 2 {
		return geom.Vec2{}, errors.New("want [x, y]")
	}
	return geom.V(p[0], p[1]), nil
}

// checkBounds rejects spawn points, patrol points and objects placed
// outside a sized map.
func (m *Map) checkBounds() error {
	b, ok := m.Bounds()
	if !ok {
		return nil
	}
	if !b.Contains(m.Spawn) {
		return fmt.Errorf("spawn %v outside %vx%v", m.Spawn, m.Width, m.Height)
	}
	for i, route := range m.Guards {
		for j, p := range route {
			if !b.Contains(p) {
				return fmt.Errorf("guard %d point %d: %v outside %vx%v", i, j, p, m.Width, m.Height)
			}
		}
	}
	for i, p := range m.Props {
		if !b.Contains(p.Pos) {
			return fmt.Errorf("object %d: %v outside %vx%v", i, p.Pos, m.Width, m.Height)
		}
	}
	return nil
}
