package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-9

func TestNormalizeZeroVector(t *testing.T) {
	assert.Equal(t, V(1, 0), Vec2{}.Normalize())
	n := V(3, 4).Normalize()
	assert.InDelta(t, 0.6, n.X, eps)
	assert.InDelta(t, 0.8, n.Y, eps)
}

func TestRotateMatchesFacing(t *testing.T) {
	tests := []struct {
		name  string
		angle float64
	}{
		{"east", 0},
		{"north", 90},
		{"west", 180},
		{"south-west", -135},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := V(1, 0).Rotate(-tt.angle)
			want := FromHeading(tt.angle)
			assert.InDelta(t, want.X, got.X, eps)
			assert.InDelta(t, want.Y, got.Y, eps)
			assert.InDelta(t, math.Mod(tt.angle+360, 360), math.Mod(Heading(got)+360, 360), 1e-6)
		})
	}
}

func TestSnapOctant(t *testing.T) {
	tests := []struct {
		in   Vec2
		want Vec2
	}{
		{V(5, 0.1), V(1, 1).Normalize()},
		{V(5, 0), V(1, 0)},
		{V(0, -2), V(0, -1)},
		{V(-3, 7), V(-1, 1).Normalize()},
		{V(0, 0), V(1, 0)},
	}
	for _, tt := range tests {
		got := SnapOctant(tt.in)
		assert.InDelta(t, tt.want.X, got.X, eps, "%v", tt.in)
		assert.InDelta(t, tt.want.Y, got.Y, eps, "%v", tt.in)
	}
}

func TestOverlapsIgnoresTouchingEdges(t *testing.T) {
	a := R(0, 0, 10, 10)
	assert.True(t, a.Overlaps(R(5, 5, 10, 10)))
	assert.False(t, a.Overlaps(R(10, 0, 10, 10)))
	assert.False(t, a.Overlaps(R(0, 10, 10, 10)))
}

func TestSplitRect(t *testing.T) {
	tests := []struct {
		name  string
		in    Rect
		max   float64
		count int
	}{
		{"fits", R(0, 0, 400, 400), 400, 1},
		{"wide", R(0, 0, 1000, 50), 400, 4},
		{"tall", R(10, 10, 30, 900), 400, 4},
		{"both", R(0, 0, 900, 900), 400, 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parts := SplitRect(tt.in, tt.max)
			require.Len(t, parts, tt.count)
			area := 0.0
			for _, p := range parts {
				assert.LessOrEqual(t, p.W, tt.max)
				assert.LessOrEqual(t, p.H, tt.max)
				area += p.W * p.H
			}
			assert.InDelta(t, tt.in.W*tt.in.H, area, 1e-6)
		})
	}
}

func TestSplitRectOrder(t *testing.T) {
	parts := SplitRect(R(0, 0, 800, 10), 400)
	require.Len(t, parts, 2)
	assert.Equal(t, R(0, 0, 400, 10), parts[0])
	assert.Equal(t, R(400, 0, 400, 10), parts[1])
}

func TestSegmentIntersectsRect(t *testing.T) {
	wall := R(40, -10, 20, 20)
	assert.True(t, SegmentIntersectsRect(V(0, 0), V(100, 0), wall))
	assert.False(t, SegmentIntersectsRect(V(0, 0), V(30, 0), wall))
	assert.False(t, SegmentIntersectsRect(V(0, 50), V(100, 50), wall))
	assert.True(t, SegmentIntersectsRect(V(50, 50), V(50, -50), wall))
}
