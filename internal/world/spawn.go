package world

import (
	"github.com/lightsout/server/internal/core/ecs"
	"github.com/lightsout/server/internal/core/event"
	"github.com/lightsout/server/internal/data"
	"github.com/lightsout/server/internal/geom"
)

func (s *State) create(k Kind) ecs.EntityID {
	id := s.ecs.CreateEntity()
	s.kinds.Set(id, &k)
	return id
}

func (s *State) addObstacle(r geom.Rect, transparent bool) ecs.EntityID {
	id := s.create(KindObstacle)
	s.seq++
	s.obstacles.Set(id, &Obstacle{Rect: r, Transparent: transparent, Seq: s.seq})
	s.grid.Add(id, r)
	return id
}

func (s *State) removeObstacle(id ecs.EntityID) {
	o, ok := s.obstacles.Get(id)
	if !ok {
		return
	}
	s.grid.Remove(id, o.Rect)
	s.ecs.MarkForDestruction(id)
}

func (s *State) newCharacter(k Kind, pos geom.Vec2, skin string) ecs.EntityID {
	id := s.create(k)
	s.bodies.Set(id, &Body{Pos: pos})
	s.chars.Set(id, &Character{
		Skin:     skin,
		ImageKey: PoseStand,
		Health:   s.tuning.MaxHealth,
	})
	return id
}

func (s *State) spawnGuard(route []geom.Vec2) ecs.EntityID {
	id := s.newCharacter(KindGuard, route[0], GuardSkin)
	s.guards.Set(id, &Guard{Route: append([]geom.Vec2(nil), route...)})
	return id
}

func (s *State) spawnObject(p data.Prop) ecs.EntityID {
	id := s.create(KindObject)
	s.bodies.Set(id, &Body{Pos: p.Pos, Angle: p.Rotation})
	s.objects.Set(id, &Object{
		Sprite:   p.Sprite,
		Collider: s.addCollider(p.Pos),
	})
	return id
}

func (s *State) addCollider(pos geom.Vec2) ecs.EntityID {
	size := s.tuning.ObjectCollider
	return s.addObstacle(geom.Centered(pos, size, size), false)
}

// SpawnPlayer creates a player at the map's spawn point for a session.
// Skins are handed out in rotation.
func (s *State) SpawnPlayer(sessionID uint64) ecs.EntityID {
	skin := PlayerSkins[s.skinNext%len(PlayerSkins)]
	s.skinNext++

	id := s.newCharacter(KindPlayer, s.spawn, skin)
	s.players.Set(id, &Player{Session: sessionID})
	s.bySession[sessionID] = id
	event.Emit(s.bus, event.PlayerJoined{EntityID: id, SessionID: sessionID})
	return id
}

// DespawnPlayer removes a player, dropping whatever it carries where it
// stood. Returns false if the player was already gone.
func (s *State) DespawnPlayer(id ecs.EntityID) bool {
	p, ok := s.players.Get(id)
	if !ok || !s.Alive(id) {
		return false
	}
	s.release(id, p)
	if s.bySession[p.Session] == id {
		delete(s.bySession, p.Session)
	}
	s.kill(id)
	event.Emit(s.bus, event.PlayerLeft{EntityID: id, SessionID: p.Session})
	return true
}

// release puts down the player's object if the player still holds it.
func (s *State) release(id ecs.EntityID, p *Player) {
	if p.Holding == ecs.None {
		return
	}
	if obj, ok := s.objects.Get(p.Holding); ok && obj.HeldBy == id {
		s.putDown(p.Holding, obj)
	}
	p.Holding = ecs.None
}
