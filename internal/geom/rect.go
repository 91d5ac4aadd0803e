package geom

// Rect is an axis-aligned rectangle anchored at its top-left corner.
type Rect struct {
	Min  Vec2
	W, H float64
}

func R(x, y, w, h float64) Rect { return Rect{Min: Vec2{X: x, Y: y}, W: w, H: h} }

// Centered builds a w x h rectangle around center.
func Centered(center Vec2, w, h float64) Rect {
	return Rect{Min: Vec2{X: center.X - w/2, Y: center.Y - h/2}, W: w, H: h}
}

func (r Rect) Left() float64   { return r.Min.X }
func (r Rect) Right() float64  { return r.Min.X + r.W }
func (r Rect) Top() float64    { return r.Min.Y }
func (r Rect) Bottom() float64 { return r.Min.Y + r.H }

// Overlaps reports whether r and o share interior area. Touching edges do
// not count, so a box clamped flush against a wall is not colliding.
func (r Rect) Overlaps(o Rect) bool {
	return r.Left() < o.Right() && o.Left() < r.Right() &&
		r.Top() < o.Bottom() && o.Top() < r.Bottom()
}

// Contains reports whether p lies in r, counting the top and left edges only.
func (r Rect) Contains(p Vec2) bool {
	return p.X >= r.Left() && p.X < r.Right() && p.Y >= r.Top() && p.Y < r.Bottom()
}

// Corners returns the four corners clockwise from the top-left, with the
// first corner repeated at the end so consecutive pairs are the edges.
func (r Rect) Corners() [5]Vec2 {
	return [5]Vec2{
		r.Min,
		{X: r.Right(), Y: r.Top()},
		{X: r.Right(), Y: r.Bottom()},
		{X: r.Left(), Y: r.Bottom()},
		r.Min,
	}
}

// SplitRect halves r along its longer-than-max axis until neither extent
// exceeds max. Width is split before height.
func SplitRect(r Rect, max float64) []Rect {
	if max <= 0 {
		return []Rect{r}
	}
	switch {
	case r.W > max:
		half := r.W / 2
		left := Rect{Min: r.Min, W: half, H: r.H}
		right := Rect{Min: Vec2{X: r.Min.X + half, Y: r.Min.Y}, W: half, H: r.H}
		return append(SplitRect(left, max), SplitRect(right, max)...)
	case r.H > max:
		half := r.H / 2
		top := Rect{Min: r.Min, W: r.W, H: half}
		bottom := Rect{Min: Vec2{X: r.Min.X, Y: r.Min.Y + half}, W: r.W, H: half}
		return append(SplitRect(top, max), SplitRect(bottom, max)...)
	}
	return []Rect{r}
}

// SegmentIntersectsRect reports whether the segment a-b passes through the
// interior of r (Liang-Barsky clipping).
func SegmentIntersectsRect(a, b Vec2, r Rect) bool {
	d := b.Sub(a)
	t0, t1 := 0.0, 1.0
	clip := func(p, q float64) bool {
		if p == 0 {
			return q > 0
		}
		t := q / p
		if p < 0 {
			if t > t1 {
				return false
			}
			if t > t0 {
				t0 = t
			}
		} else {
			if t < t0 {
				return false
			}
			if t < t1 {
				t1 = t
			}
		}
		return true
	}
	if !clip(-d.X, a.X-r.Left()) || !clip(d.X, r.Right()-a.X) ||
		!clip(-d.Y, a.Y-r.Top()) || !clip(d.Y, r.Bottom()-a.Y) {
		return false
	}
	return t0 < t1
}
