package geom

import "math"

// Vec2 is a 2D vector in screen space (x right, y down).
type Vec2 struct {
	X, Y float64
}

func V(x, y float64) Vec2 { return Vec2{X: x, Y: y} }

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{X: v.X + o.X, Y: v.Y + o.Y} }

func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{X: v.X - o.X, Y: v.Y - o.Y} }

func (v Vec2) Scale(s float64) Vec2 { return Vec2{X: v.X * s, Y: v.Y * s} }

func (v Vec2) Len() float64 { return math.Hypot(v.X, v.Y) }

func (v Vec2) Dist(o Vec2) float64 { return v.Sub(o).Len() }

func (v Vec2) IsZero() bool { return v.X == 0 && v.Y == 0 }

// Normalize returns the unit vector in the direction of v.
// The zero vector normalizes to (1, 0) so callers never divide by zero.
func (v Vec2) Normalize() Vec2 {
	l := v.Len()
	if l == 0 {
		return Vec2{X: 1}
	}
	return Vec2{X: v.X / l, Y: v.Y / l}
}

// Rotate rotates v by deg degrees (positive = clockwise on screen).
func (v Vec2) Rotate(deg float64) Vec2 {
	rad := deg * math.Pi / 180
	sin, cos := math.Sincos(rad)
	return Vec2{
		X: v.X*cos - v.Y*sin,
		Y: v.X*sin + v.Y*cos,
	}
}

// Heading returns the facing angle of v in degrees, counter-clockwise
// from +x with the y axis pointing down.
func Heading(v Vec2) float64 {
	return math.Atan2(-v.Y, v.X) * 180 / math.Pi
}

// FromHeading is the unit vector a character faces at angle deg.
func FromHeading(deg float64) Vec2 {
	rad := deg * math.Pi / 180
	return Vec2{X: math.Cos(rad), Y: -math.Sin(rad)}
}

func sign(f float64) float64 {
	switch {
	case f > 0:
		return 1
	case f < 0:
		return -1
	}
	return 0
}

// SnapOctant quantizes each axis of v to {-1, 0, 1} and renormalizes,
// locking the direction to one of the 8 compass octants.
func SnapOctant(v Vec2) Vec2 {
	return Vec2{X: sign(v.X), Y: sign(v.Y)}.Normalize()
}
