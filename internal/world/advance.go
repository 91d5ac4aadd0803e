package world

import (
	"math"
	"time"

	"github.com/lightsout/server/internal/core/ecs"
	"github.com/lightsout/server/internal/core/event"
	"github.com/lightsout/server/internal/geom"
)

// Advance moves the match forward by dt. Characters update first (velocity,
// friction, integration, collision, facing, actions), then the bullets that
// existed before this tick, then objects follow their holders. Characters
// at or below zero health are swept at the end and the destroy queue is
// flushed, so they are gone before the next tick starts.
func (s *State) Advance(dt time.Duration) {
	s.tick++
	s.clock += dt
	sec := dt.Seconds()

	bullets := s.bullets.IDs()

	for _, id := range s.chars.IDs() {
		s.updateCharacter(id, sec)
	}
	for _, id := range bullets {
		s.updateBullet(id, sec)
	}
	for _, id := range s.objects.IDs() {
		s.updateObject(id)
	}

	s.sweepDead()
	s.ecs.FlushDestroyQueue()
}

func (s *State) updateCharacter(id ecs.EntityID, sec float64) {
	body, ok := s.bodies.Get(id)
	if !ok || body.Killed {
		return
	}
	ch, _ := s.chars.Get(id)

	kind := s.Kind(id)
	switch kind {
	case KindPlayer:
		p, _ := s.players.Get(id)
		s.playerVelocity(body, p)
	case KindGuard:
		g, _ := s.guards.Get(id)
		s.guardVelocity(id, body, ch, g)
	}

	body.Vel = body.Vel.Scale(s.tuning.FloorFriction)
	prevY := body.Pos.Y
	body.Pos = body.Pos.Add(body.Vel.Scale(sec))
	s.resolveCollisions(body, prevY)

	var target float64
	switch kind {
	case KindPlayer:
		p, _ := s.players.Get(id)
		target = playerFacing(p)
	default:
		target = geom.Heading(body.Vel)
	}
	body.Angle = smoothAngle(body.Angle, target)

	if kind == KindPlayer {
		p, _ := s.players.Get(id)
		s.playerActions(id, body, ch, p)
	}
}

// smoothAngle low-pass filters the facing toward target. There is no
// wrap-around handling; crossing +-180 swings the long way.
func smoothAngle(prev, target float64) float64 {
	return (target + 4*prev) / 5
}

// resolveCollisions pushes the body out of solid obstacles, X axis first
// with the box at its previous Y, then Y. On each axis only the first
// obstacle in registration order is resolved.
func (s *State) resolveCollisions(body *Body, prevY float64) {
	half := s.tuning.CollisionBox / 2

	if r, hit := s.firstObstacle(s.charBox(geom.V(body.Pos.X, prevY))); hit {
		if body.Vel.X > 0 {
			body.Pos.X = r.Left() - half
		}
		if body.Vel.X < 0 {
			body.Pos.X = r.Right() + half
		}
		body.Vel.X = 0
	}

	if r, hit := s.firstObstacle(s.charBox(body.Pos)); hit {
		if body.Vel.Y > 0 {
			body.Pos.Y = r.Top() - half
		}
		if body.Vel.Y < 0 {
			body.Pos.Y = r.Bottom() + half
		}
		body.Vel.Y = 0
	}
}

// firstObstacle returns the earliest registered obstacle overlapping box.
// Transparent obstacles are solid too.
func (s *State) firstObstacle(box geom.Rect) (geom.Rect, bool) {
	var (
		best    geom.Rect
		bestSeq uint64 = math.MaxUint64
	)
	s.grid.Nearby(box, func(id ecs.EntityID) {
		o, ok := s.obstacles.Get(id)
		if !ok || o.Seq >= bestSeq || !o.Rect.Overlaps(box) {
			return
		}
		best, bestSeq = o.Rect, o.Seq
	})
	return best, bestSeq != math.MaxUint64
}

// sweepDead removes every character whose health reached zero.
func (s *State) sweepDead() {
	for _, id := range s.chars.IDs() {
		ch, _ := s.chars.Get(id)
		body, _ := s.bodies.Get(id)
		if ch.Health > 0 || body == nil || body.Killed {
			continue
		}
		var sessionID uint64
		if p, ok := s.players.Get(id); ok {
			sessionID = p.Session
			s.release(id, p)
			if s.bySession[p.Session] == id {
				delete(s.bySession, p.Session)
			}
		}
		s.kill(id)
		event.Emit(s.bus, event.CharacterKilled{
			Victim:     id,
			Killer:     ch.LastHitBy,
			VictimSkin: ch.Skin,
			SessionID:  sessionID,
		})
	}
}
