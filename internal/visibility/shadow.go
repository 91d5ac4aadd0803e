// Package visibility turns obstacle geometry and a light origin into
// shadow polygons and a fog-of-war light mask. It holds no state; every
// function is safe to call from any goroutine every frame.
package visibility

import (
	"github.com/lightsout/server/internal/geom"
)

// Occluder is an obstacle as seen by the light.
type Occluder struct {
	Rect        geom.Rect
	Transparent bool
}

// Polygon is a closed ring of vertices in world coordinates.
type Polygon []geom.Vec2

// ShadowPolygons returns one polygon per obstacle edge that has an endpoint
// strictly inside rng of origin. Transparent obstacles cast nothing.
//
// Each ring runs along the edge, out along the radial ray of the second
// endpoint, across to the octant-snapped tails of both endpoints and back
// along the radial ray of the first. Snapping the tails to the 8 compass
// directions gives the axis/diagonal shadow shapes the client renders.
func ShadowPolygons(origin geom.Vec2, rng float64, obstacles []Occluder) []Polygon {
	var out []Polygon
	for _, o := range obstacles {
		if o.Transparent {
			continue
		}
		out = appendShadows(out, origin, rng, o.Rect)
	}
	return out
}

func appendShadows(out []Polygon, origin geom.Vec2, rng float64, r geom.Rect) []Polygon {
	corners := r.Corners()
	for i := 0; i < 4; i++ {
		p0, p1 := corners[i], corners[i+1]
		if p0.Dist(origin) >= rng && p1.Dist(origin) >= rng {
			continue
		}
		ray0 := p0.Sub(origin).Normalize()
		ray1 := p1.Sub(origin).Normalize()
		out = append(out, Polygon{
			p0,
			p1,
			p1.Add(ray1.Scale(rng)),
			p1.Add(geom.SnapOctant(ray1).Scale(rng)),
			p0.Add(geom.SnapOctant(ray0).Scale(rng)),
			p0.Add(ray0.Scale(rng)),
		})
	}
	return out
}

// Translate shifts every vertex by d.
func (p Polygon) Translate(d geom.Vec2) Polygon {
	out := make(Polygon, len(p))
	for i, v := range p {
		out[i] = v.Add(d)
	}
	return out
}
