package client

import (
	"image"

	"github.com/lightsout/server/internal/data"
	"github.com/lightsout/server/internal/geom"
	"github.com/lightsout/server/internal/visibility"
	"github.com/lightsout/server/internal/world"
)

// Fog computes a player's light surface from the map alone, the way a
// renderer darkens everything the player cannot see.
type Fog struct {
	occluders []visibility.Occluder
	rng       float64
}

func NewFog(m *data.Map, sightRange float64) *Fog {
	return &Fog{occluders: world.MapOccluders(m, sightRange), rng: sightRange}
}

// Mask is the light surface centered on pos.
func (f *Fog) Mask(pos geom.Vec2) *image.Gray {
	return visibility.Mask(pos, f.rng, f.occluders)
}

// Lit is the fraction of the sight square around pos that is visible.
func (f *Fog) Lit(pos geom.Vec2) float64 {
	return visibility.LitFraction(f.Mask(pos))
}
