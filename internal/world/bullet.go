package world

import (
	"github.com/lightsout/server/internal/core/ecs"
	"github.com/lightsout/server/internal/core/event"
	"github.com/lightsout/server/internal/geom"
)

// shoot fires from the muzzle if the character's cooldown has passed.
func (s *State) shoot(id ecs.EntityID, body *Body, ch *Character) {
	if s.clock < ch.NextFire {
		return
	}
	ch.NextFire = s.clock + s.tuning.FireRate

	muzzle := geom.V(s.tuning.BulletOffset[0], s.tuning.BulletOffset[1]).Rotate(-body.Angle)
	start := body.Pos.Add(muzzle)

	b := s.create(KindBullet)
	s.bodies.Set(b, &Body{Pos: start, Angle: body.Angle})
	s.bullets.Set(b, &Bullet{
		Parent: id,
		Start:  start,
		Dir:    geom.FromHeading(body.Angle),
		Speed:  s.tuning.BulletSpeed,
		Range:  s.tuning.BulletRange,
	})
	event.Emit(s.bus, event.BulletFired{Shooter: id, Bullet: b})
}

// updateBullet moves a bullet and resolves, in order: walls (the bullet
// stops and hurts nobody), the first character other than its parent, and
// the range limit. A bullet never travels past its range.
func (s *State) updateBullet(id ecs.EntityID, sec float64) {
	body, ok := s.bodies.Get(id)
	if !ok || body.Killed {
		return
	}
	b, _ := s.bullets.Get(id)

	prev := body.Pos
	body.Pos = body.Pos.Add(b.Dir.Scale(b.Speed * sec))
	spent := false
	if body.Pos.Dist(b.Start) >= b.Range {
		body.Pos = b.Start.Add(b.Dir.Scale(b.Range))
		spent = true
	}

	box := geom.Centered(body.Pos, s.tuning.BulletSize, s.tuning.BulletSize)
	if s.hitsWall(prev, body.Pos, box) {
		s.kill(id)
		return
	}

	var target ecs.EntityID
	s.chars.Each(func(cid ecs.EntityID, ch *Character) {
		if target != ecs.None || cid == b.Parent || ch.Health <= 0 {
			return
		}
		cb, ok := s.bodies.Get(cid)
		if !ok || cb.Killed || !s.charBox(cb.Pos).Overlaps(box) {
			return
		}
		target = cid
	})
	if target != ecs.None {
		s.hit(target, b.Parent)
		s.kill(id)
		return
	}

	if spent {
		s.kill(id)
	}
}

// hitsWall tests the bullet's box and the segment it swept this tick, so
// thin colliders cannot be skipped over.
func (s *State) hitsWall(from, to geom.Vec2, box geom.Rect) bool {
	area := box
	if from != to {
		swept := geom.Centered(from, s.tuning.BulletSize, s.tuning.BulletSize)
		minX, minY := min(area.Left(), swept.Left()), min(area.Top(), swept.Top())
		maxX, maxY := max(area.Right(), swept.Right()), max(area.Bottom(), swept.Bottom())
		area = geom.R(minX, minY, maxX-minX, maxY-minY)
	}
	hit := false
	s.grid.Nearby(area, func(oid ecs.EntityID) {
		if hit {
			return
		}
		o, ok := s.obstacles.Get(oid)
		if !ok {
			return
		}
		hit = o.Rect.Overlaps(box) || geom.SegmentIntersectsRect(from, to, o.Rect)
	})
	return hit
}

func (s *State) hit(target, attacker ecs.EntityID) {
	ch, _ := s.chars.Get(target)
	attackerSkin := ""
	if a, ok := s.chars.Get(attacker); ok {
		attackerSkin = a.Skin
	}
	dmg := s.combat.BulletDamage(attackerSkin, ch.Skin, ch.Health, s.tuning.BulletDamage)
	if dmg < 0 {
		dmg = 0
	}
	ch.Health -= dmg
	if ch.Health < 0 {
		ch.Health = 0
	}
	ch.LastHitBy = attacker
	event.Emit(s.bus, event.CharacterHit{Target: target, Attacker: attacker, Damage: dmg, Health: ch.Health})
}
