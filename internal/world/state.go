// Package world holds the authoritative game state and the rules that
// advance it one tick. A State is owned by the game loop goroutine; nothing
// in this package locks.
package world

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lightsout/server/internal/core/ecs"
	"github.com/lightsout/server/internal/core/event"
	"github.com/lightsout/server/internal/data"
	"github.com/lightsout/server/internal/geom"
)

// Combat decides how much a bullet hurts. Base is the configured damage.
type Combat interface {
	BulletDamage(attackerSkin, victimSkin string, victimHealth, base int) int
}

type fixedDamage struct{}

func (fixedDamage) BulletDamage(_, _ string, _, base int) int { return base }

type Options struct {
	Tuning Tuning
	Bus    *event.Bus // nil drops events
	Combat Combat     // nil = configured bullet damage
	Match  string     // generated when empty
}

// State is one match: every live entity plus the map geometry.
type State struct {
	Match  string
	tuning Tuning
	bus    *event.Bus
	combat Combat

	ecs       *ecs.World
	kinds     *ecs.Store[Kind]
	bodies    *ecs.Store[Body]
	chars     *ecs.Store[Character]
	players   *ecs.Store[Player]
	guards    *ecs.Store[Guard]
	objects   *ecs.Store[Object]
	bullets   *ecs.Store[Bullet]
	obstacles *ecs.Store[Obstacle]
	grid      *obstacleGrid

	spawn     geom.Vec2
	bySession map[uint64]ecs.EntityID
	skinNext  int
	seq       uint64
	clock     time.Duration
	tick      uint64
}

// New builds a match from a map. Oversized solids are split before they
// are registered so no obstacle exceeds the sight range on either axis.
func New(m *data.Map, opts Options) (*State, error) {
	if m == nil {
		return nil, fmt.Errorf("world: nil map")
	}
	t := opts.Tuning
	if t.SightRange <= 0 {
		return nil, fmt.Errorf("world: sight range must be positive, got %v", t.SightRange)
	}
	if opts.Combat == nil {
		opts.Combat = fixedDamage{}
	}
	if opts.Match == "" {
		opts.Match = uuid.NewString()
	}

	w := ecs.NewWorld()
	s := &State{
		Match:     opts.Match,
		tuning:    t,
		bus:       opts.Bus,
		combat:    opts.Combat,
		ecs:       w,
		kinds:     ecs.NewComponent[Kind](w),
		bodies:    ecs.NewComponent[Body](w),
		chars:     ecs.NewComponent[Character](w),
		players:   ecs.NewComponent[Player](w),
		guards:    ecs.NewComponent[Guard](w),
		objects:   ecs.NewComponent[Object](w),
		bullets:   ecs.NewComponent[Bullet](w),
		obstacles: ecs.NewComponent[Obstacle](w),
		grid:      newObstacleGrid(),
		spawn:     m.Spawn,
		bySession: make(map[uint64]ecs.EntityID),
	}

	for _, solid := range m.Solids {
		for _, r := range geom.SplitRect(solid.Rect, t.SightRange) {
			s.addObstacle(r, solid.Transparent)
		}
	}
	for i, route := range m.Guards {
		if len(route) == 0 {
			return nil, fmt.Errorf("world: guard %d has no route", i)
		}
		s.spawnGuard(route)
	}
	for _, p := range m.Props {
		s.spawnObject(p)
	}
	return s, nil
}

func (s *State) Tuning() Tuning       { return s.tuning }
func (s *State) Tick() uint64         { return s.tick }
func (s *State) Clock() time.Duration { return s.clock }
func (s *State) Spawn() geom.Vec2     { return s.spawn }

// Alive reports whether id is a live entity of this match.
func (s *State) Alive(id ecs.EntityID) bool {
	if !s.ecs.Alive(id) || s.ecs.Pending(id) {
		return false
	}
	b, ok := s.bodies.Get(id)
	return !ok || !b.Killed
}

func (s *State) Kind(id ecs.EntityID) Kind {
	if k, ok := s.kinds.Get(id); ok {
		return *k
	}
	return 0
}

func (s *State) Body(id ecs.EntityID) (*Body, bool)           { return s.bodies.Get(id) }
func (s *State) Character(id ecs.EntityID) (*Character, bool) { return s.chars.Get(id) }
func (s *State) Player(id ecs.EntityID) (*Player, bool)       { return s.players.Get(id) }
func (s *State) Guard(id ecs.EntityID) (*Guard, bool)         { return s.guards.Get(id) }
func (s *State) Object(id ecs.EntityID) (*Object, bool)       { return s.objects.Get(id) }
func (s *State) Bullet(id ecs.EntityID) (*Bullet, bool)       { return s.bullets.Get(id) }

// PlayerBySession returns the player a session controls.
func (s *State) PlayerBySession(sessionID uint64) (ecs.EntityID, bool) {
	id, ok := s.bySession[sessionID]
	return id, ok
}

func (s *State) Players() []ecs.EntityID { return s.players.IDs() }
func (s *State) Guards() []ecs.EntityID  { return s.guards.IDs() }
func (s *State) Objects() []ecs.EntityID { return s.objects.IDs() }
func (s *State) Bullets() []ecs.EntityID { return s.bullets.IDs() }

// Counts is a per-kind census, used for metrics.
type Counts struct {
	Players   int
	Guards    int
	Objects   int
	Bullets   int
	Obstacles int
	Entities  int
}

func (s *State) Counts() Counts {
	return Counts{
		Players:   s.players.Len(),
		Guards:    s.guards.Len(),
		Objects:   s.objects.Len(),
		Bullets:   s.bullets.Len(),
		Obstacles: s.obstacles.Len(),
		Entities:  s.ecs.Pool().Len(),
	}
}

// Flush destroys every entity queued for destruction.
func (s *State) Flush() int {
	return s.ecs.FlushDestroyQueue()
}

func (s *State) kill(id ecs.EntityID) {
	if b, ok := s.bodies.Get(id); ok {
		b.Killed = true
	}
	s.ecs.MarkForDestruction(id)
}

func (s *State) charBox(pos geom.Vec2) geom.Rect {
	return geom.Centered(pos, s.tuning.CollisionBox, s.tuning.CollisionBox)
}
