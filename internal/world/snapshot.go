package world

import (
	"github.com/lightsout/server/internal/core/ecs"
	"github.com/lightsout/server/internal/data"
	"github.com/lightsout/server/internal/geom"
	"github.com/lightsout/server/internal/protocol"
	"github.com/lightsout/server/internal/visibility"
)

// Snapshot renders the current state as an immutable frame: characters
// first, then objects, then bullets, each in registration order.
func (s *State) Snapshot() *protocol.Frame {
	f := &protocol.Frame{
		Tick:    s.tick,
		Match:   s.Match,
		Entries: make([]protocol.Entry, 0, s.chars.Len()+s.objects.Len()+s.bullets.Len()),
	}
	add := func(id ecs.EntityID, image string) {
		body, ok := s.bodies.Get(id)
		if !ok || body.Killed {
			return
		}
		if image == "" {
			image = protocol.NoImage
		}
		f.Entries = append(f.Entries, protocol.Entry{
			Owner: uint64(id),
			Record: protocol.Record{
				Image:    image,
				Position: [2]float64{body.Pos.X, body.Pos.Y},
				Angle:    body.Angle,
			},
		})
	}

	s.chars.Each(func(id ecs.EntityID, ch *Character) {
		add(id, ch.Skin+"_"+ch.ImageKey)
	})
	s.objects.Each(func(id ecs.EntityID, o *Object) {
		add(id, o.Sprite)
	})
	s.bullets.Each(func(id ecs.EntityID, _ *Bullet) {
		add(id, "bullet")
	})
	return f
}

// Welcome is the record a client receives when its player is spawned.
func (s *State) Welcome(id ecs.EntityID) (protocol.Record, bool) {
	body, ok := s.bodies.Get(id)
	ch, isChar := s.chars.Get(id)
	if !ok || !isChar {
		return protocol.Record{}, false
	}
	return protocol.Record{
		Focus:    true,
		Image:    ch.Skin + "_" + ch.ImageKey,
		Position: [2]float64{body.Pos.X, body.Pos.Y},
		Angle:    body.Angle,
	}, true
}

// MapOccluders normalizes a map's solids the same way New does, for
// clients that only have the map file.
func MapOccluders(m *data.Map, sightRange float64) []visibility.Occluder {
	out := make([]visibility.Occluder, 0, len(m.Solids))
	for _, solid := range m.Solids {
		for _, r := range geom.SplitRect(solid.Rect, sightRange) {
			out = append(out, visibility.Occluder{Rect: r, Transparent: solid.Transparent})
		}
	}
	return out
}
