package visibility

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/lightsout/server/internal/geom"
	"golang.org/x/image/vector"
)

const (
	Lit    = 0xFF
	Shadow = 0x00
)

// Mask renders the light surface for a light at origin: a 2rng x 2rng
// grayscale image with the light at its center, Lit everywhere except
// where a shadow polygon covers it.
func Mask(origin geom.Vec2, rng float64, obstacles []Occluder) *image.Gray {
	size := int(2 * rng)
	if size <= 0 {
		return image.NewGray(image.Rect(0, 0, 0, 0))
	}
	bounds := image.Rect(0, 0, size, size)
	m := image.NewGray(bounds)
	draw.Draw(m, bounds, image.NewUniform(color.Gray{Y: Lit}), image.Point{}, draw.Src)

	offset := geom.V(rng, rng).Sub(origin)
	src := image.NewUniform(color.Gray{Y: Shadow})
	r := vector.NewRasterizer(size, size)
	for _, poly := range ShadowPolygons(origin, rng, obstacles) {
		ring := clip(poly.Translate(offset), float64(size), float64(size))
		if len(ring) < 3 {
			continue
		}
		// Each ring is rasterized on its own so rings of opposite winding
		// never cancel each other's coverage.
		r.Reset(size, size)
		r.MoveTo(float32(ring[0].X), float32(ring[0].Y))
		for _, v := range ring[1:] {
			r.LineTo(float32(v.X), float32(v.Y))
		}
		r.ClosePath()
		r.Draw(m, bounds, src, image.Point{})
	}
	return m
}

// LitFraction is the share of fully lit pixels in a mask.
func LitFraction(m *image.Gray) float64 {
	if len(m.Pix) == 0 {
		return 0
	}
	lit := 0
	for _, p := range m.Pix {
		if p == Lit {
			lit++
		}
	}
	return float64(lit) / float64(len(m.Pix))
}

// clip cuts a polygon to the rectangle [0,w]x[0,h] (Sutherland-Hodgman).
func clip(p Polygon, w, h float64) Polygon {
	type edge struct {
		inside func(geom.Vec2) bool
		cross  func(a, b geom.Vec2) geom.Vec2
	}
	atX := func(x float64) func(a, b geom.Vec2) geom.Vec2 {
		return func(a, b geom.Vec2) geom.Vec2 {
			t := (x - a.X) / (b.X - a.X)
			return geom.V(x, a.Y+t*(b.Y-a.Y))
		}
	}
	atY := func(y float64) func(a, b geom.Vec2) geom.Vec2 {
		return func(a, b geom.Vec2) geom.Vec2 {
			t := (y - a.Y) / (b.Y - a.Y)
			return geom.V(a.X+t*(b.X-a.X), y)
		}
	}
	edges := [4]edge{
		{func(v geom.Vec2) bool { return v.X >= 0 }, atX(0)},
		{func(v geom.Vec2) bool { return v.X <= w }, atX(w)},
		{func(v geom.Vec2) bool { return v.Y >= 0 }, atY(0)},
		{func(v geom.Vec2) bool { return v.Y <= h }, atY(h)},
	}
	out := p
	for _, e := range edges {
		if len(out) == 0 {
			break
		}
		in := out
		out = make(Polygon, 0, len(in)+2)
		prev := in[len(in)-1]
		for _, cur := range in {
			switch {
			case e.inside(cur):
				if !e.inside(prev) {
					out = append(out, e.cross(prev, cur))
				}
				out = append(out, cur)
			case e.inside(prev):
				out = append(out, e.cross(prev, cur))
			}
			prev = cur
		}
	}
	return out
}
