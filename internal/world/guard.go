package world

import (
	"github.com/lightsout/server/internal/core/ecs"
	"github.com/lightsout/server/internal/geom"
)

// guardVelocity steers a guard. Alertness is not stored: every tick the
// guard either chases the nearest player within sight range (and fires) or
// walks its patrol loop.
func (s *State) guardVelocity(id ecs.EntityID, body *Body, ch *Character, g *Guard) {
	offset := body.Pos.Sub(g.Route[g.Waypoint])
	if offset.Len() < s.tuning.TileSize/2 {
		g.Waypoint = (g.Waypoint + 1) % len(g.Route)
	}

	ch.ImageKey = PoseStand
	if near, ok := s.nearestPlayer(body.Pos); ok {
		offset = near
		ch.ImageKey = PoseGun
		s.shoot(id, body, ch)
	}

	if offset.IsZero() {
		offset.X++
	}
	body.Vel = body.Vel.Add(offset.Normalize().Scale(-s.tuning.CharacterSpeed))
}

// nearestPlayer returns guard-minus-player for the closest player within
// sight range. With line of sight enabled, players behind opaque obstacles
// are not candidates.
func (s *State) nearestPlayer(from geom.Vec2) (geom.Vec2, bool) {
	var (
		best  geom.Vec2
		found bool
	)
	ecs.Each2(s.players, s.bodies, func(_ ecs.EntityID, _ *Player, body *Body) {
		if body.Killed {
			return
		}
		off := from.Sub(body.Pos)
		if found && off.Len() >= best.Len() {
			return
		}
		if s.tuning.GuardLineOfSight && s.occluded(from, body.Pos) {
			return
		}
		best, found = off, true
	})
	if !found || best.Len() > s.tuning.GuardSightRange {
		return geom.Vec2{}, false
	}
	return best, true
}

// occluded reports whether an opaque obstacle crosses the segment a-b.
func (s *State) occluded(a, b geom.Vec2) bool {
	blocked := false
	s.obstacles.Each(func(_ ecs.EntityID, o *Obstacle) {
		if !blocked && !o.Transparent && geom.SegmentIntersectsRect(a, b, o.Rect) {
			blocked = true
		}
	})
	return blocked
}
