package world

import (
	"github.com/lightsout/server/internal/core/ecs"
	"github.com/lightsout/server/internal/core/event"
	"github.com/lightsout/server/internal/geom"
)

// pickupClosest grabs the nearest object within reach, including one
// another character is holding.
func (s *State) pickupClosest(id ecs.EntityID, body *Body, ch *Character, p *Player) {
	var (
		closest ecs.EntityID
		dist    float64
	)
	s.objects.Each(func(oid ecs.EntityID, _ *Object) {
		ob, ok := s.bodies.Get(oid)
		if !ok || ob.Killed {
			return
		}
		d := body.Pos.Dist(ob.Pos)
		if closest == ecs.None || d < dist {
			closest, dist = oid, d
		}
	})
	if closest == ecs.None || dist > s.tuning.PickupDistance {
		return
	}

	obj, _ := s.objects.Get(closest)
	obj.HeldBy = id
	if obj.Collider != ecs.None {
		s.removeObstacle(obj.Collider)
		obj.Collider = ecs.None
	}
	p.Holding = closest
	ch.ImageKey = PoseHold
	event.Emit(s.bus, event.ObjectPickedUp{Object: closest, Holder: id})
}

// putDown leaves the object where it is and gives it its collider back.
func (s *State) putDown(id ecs.EntityID, obj *Object) {
	obj.HeldBy = ecs.None
	if obj.Collider == ecs.None {
		if body, ok := s.bodies.Get(id); ok {
			obj.Collider = s.addCollider(body.Pos)
		}
	}
	event.Emit(s.bus, event.ObjectDropped{Object: id})
}

// updateObject keeps a held object in front of its holder, or drops it if
// the holder is gone.
func (s *State) updateObject(id ecs.EntityID) {
	obj, _ := s.objects.Get(id)
	if obj.HeldBy == ecs.None {
		return
	}
	body, _ := s.bodies.Get(id)
	holder, ok := s.bodies.Get(obj.HeldBy)
	if !ok || holder.Killed {
		s.putDown(id, obj)
		return
	}
	body.Pos = holder.Pos.Add(geom.FromHeading(holder.Angle).Scale(s.tuning.HoldOffset))
	body.Angle = holder.Angle - 90
}
