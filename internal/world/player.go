package world

import (
	"github.com/lightsout/server/internal/core/ecs"
	"github.com/lightsout/server/internal/geom"
	"github.com/lightsout/server/internal/protocol"
)

// ApplyInput stores the latest controls for a player. They take effect on
// the next Advance.
func (s *State) ApplyInput(id ecs.EntityID, in protocol.Input) bool {
	p, ok := s.players.Get(id)
	if !ok || !s.Alive(id) {
		return false
	}
	p.Input = in.Clone()
	p.HasInput = true
	return true
}

// ClearInput releases every control, leaving the player standing idle.
func (s *State) ClearInput(id ecs.EntityID) {
	if p, ok := s.players.Get(id); ok {
		p.Input = protocol.Input{}
		p.HasInput = false
	}
}

// playerVelocity adds one impulse per held direction, in the player's
// facing frame.
func (s *State) playerVelocity(body *Body, p *Player) {
	if !p.HasInput {
		return
	}
	in := p.Input
	speed := s.tuning.CharacterSpeed
	mult := 1.0
	if in.Sprint {
		mult = s.tuning.SprintMultiplier
	}
	push := func(local geom.Vec2) {
		body.Vel = body.Vel.Add(local.Rotate(-body.Angle).Scale(mult))
	}

	if in.Up.Any() {
		push(geom.V(speed, 0))
	}
	if in.Down.Any() {
		push(geom.V(-speed, 0))
	}
	if in.Left.Any() {
		push(geom.V(0, -speed*s.tuning.StrafeFactor))
	}
	if in.Right.Any() {
		push(geom.V(0, speed*s.tuning.StrafeFactor))
	}
}

// playerFacing points at the mouse; without input the player turns east.
func playerFacing(p *Player) float64 {
	if !p.HasInput {
		return 0
	}
	return geom.Heading(p.Input.Mouse)
}

// playerActions runs the edge-triggered controls: interact picks up or puts
// down, weapon toggles the gun, primary button fires while the gun is out.
func (s *State) playerActions(id ecs.EntityID, body *Body, ch *Character, p *Player) {
	if p.Holding != ecs.None {
		if obj, ok := s.objects.Get(p.Holding); !ok || obj.HeldBy != id {
			p.Holding = ecs.None
			ch.ImageKey = PoseStand
		}
	}

	if p.HasInput {
		in, prev := p.Input, p.Prev

		if in.Interact && !prev.Interact {
			if p.Holding == ecs.None {
				s.pickupClosest(id, body, ch, p)
			} else {
				if obj, ok := s.objects.Get(p.Holding); ok {
					s.putDown(p.Holding, obj)
				}
				p.Holding = ecs.None
				ch.ImageKey = PoseStand
			}
		}

		if p.Holding == ecs.None && in.Weapon && !prev.Weapon {
			if ch.ImageKey != PoseGun {
				ch.ImageKey = PoseGun
			} else {
				ch.ImageKey = PoseStand
			}
		}

		if ch.ImageKey == PoseGun && in.Button(0) && !prev.Button(0) {
			s.shoot(id, body, ch)
		}
	}
	p.Prev = p.Input.Clone()
}
