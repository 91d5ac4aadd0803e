package world

import (
	"math"

	"github.com/lightsout/server/internal/core/ecs"
	"github.com/lightsout/server/internal/geom"
)

// obstacleGrid is a cell-based broad phase for obstacle queries. Obstacles
// are inserted into every cell their rect touches; callers do the exact
// overlap test. Accessed only from the game loop goroutine, no locks.

const cellSize = 128.0

type cellKey struct {
	cx int32
	cy int32
}

func toCellCoord(v float64) int32 {
	return int32(math.Floor(v / cellSize))
}

type obstacleGrid struct {
	cells map[cellKey]map[ecs.EntityID]struct{}
}

func newObstacleGrid() *obstacleGrid {
	return &obstacleGrid{
		cells: make(map[cellKey]map[ecs.EntityID]struct{}),
	}
}

func (g *obstacleGrid) span(r geom.Rect, fn func(cellKey)) {
	x0, x1 := toCellCoord(r.Left()), toCellCoord(r.Right())
	y0, y1 := toCellCoord(r.Top()), toCellCoord(r.Bottom())
	for cx := x0; cx <= x1; cx++ {
		for cy := y0; cy <= y1; cy++ {
			fn(cellKey{cx: cx, cy: cy})
		}
	}
}

func (g *obstacleGrid) Add(id ecs.EntityID, r geom.Rect) {
	g.span(r, func(k cellKey) {
		cell := g.cells[k]
		if cell == nil {
			cell = make(map[ecs.EntityID]struct{})
			g.cells[k] = cell
		}
		cell[id] = struct{}{}
	})
}

func (g *obstacleGrid) Remove(id ecs.EntityID, r geom.Rect) {
	g.span(r, func(k cellKey) {
		cell := g.cells[k]
		if cell != nil {
			delete(cell, id)
			if len(cell) == 0 {
				delete(g.cells, k)
			}
		}
	})
}

// Nearby calls fn once for every obstacle sharing a cell with r.
func (g *obstacleGrid) Nearby(r geom.Rect, fn func(ecs.EntityID)) {
	seen := make(map[ecs.EntityID]struct{}, 8)
	g.span(r, func(k cellKey) {
		for id := range g.cells[k] {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			fn(id)
		}
	})
}
