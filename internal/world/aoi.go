package world

import (
	"math"
	"sort"

	"github.com/brickworld/brickworld/internal/core/ecs"
	"github.com/brickworld/brickworld/internal/physics"
)

// aoiGrid buckets entities by the cell containing their centre so range
// queries only visit nearby cells. Callers do the fine-grained box filter.
// Accessed only from the game loop goroutine, so no locks.

const aoiCellSize = 64.0

type cellKey struct {
	cx int32
	cy int32
}

func toCellCoord(v float64) int32 {
	return int32(math.Floor(v / aoiCellSize))
}

type aoiGrid struct {
	cells map[cellKey]map[ecs.EntityID]struct{}
	// reach is the largest half-extent ever inserted; a query widens its
	// cell window by it so tall shapes centred far away are still found.
	reach float64
}

func newAOIGrid() *aoiGrid {
	return &aoiGrid{
		cells: make(map[cellKey]map[ecs.EntityID]struct{}),
	}
}

func (g *aoiGrid) key(p physics.Vec) cellKey {
	return cellKey{cx: toCellCoord(p.X), cy: toCellCoord(p.Y)}
}

// Add places an entity into the grid.
func (g *aoiGrid) Add(id ecs.EntityID, p physics.Vec, size physics.Vec) {
	k := g.key(p)
	cell := g.cells[k]
	if cell == nil {
		cell = make(map[ecs.EntityID]struct{})
		g.cells[k] = cell
	}
	cell[id] = struct{}{}
	if h := math.Max(size.X, size.Y) / 2; h > g.reach {
		g.reach = h
	}
}

// Remove takes an entity out of the grid.
func (g *aoiGrid) Remove(id ecs.EntityID, p physics.Vec) {
	k := g.key(p)
	cell := g.cells[k]
	if cell != nil {
		delete(cell, id)
		if len(cell) == 0 {
			delete(g.cells, k)
		}
	}
}

// Move updates an entity's cell when its position changes.
func (g *aoiGrid) Move(id ecs.EntityID, oldPos, newPos physics.Vec) {
	oldK := g.key(oldPos)
	newK := g.key(newPos)
	if oldK == newK {
		return
	}
	g.Remove(id, oldPos)
	cell := g.cells[newK]
	if cell == nil {
		cell = make(map[ecs.EntityID]struct{})
		g.cells[newK] = cell
	}
	cell[id] = struct{}{}
}

// Nearby returns every entity whose centre lies in a cell touched by the
// square of half-width radius+reach around p.
func (g *aoiGrid) Nearby(p physics.Vec, radius float64) []ecs.EntityID {
	span := radius + g.reach
	minX, maxX := toCellCoord(p.X-span), toCellCoord(p.X+span)
	minY, maxY := toCellCoord(p.Y-span), toCellCoord(p.Y+span)
	var result []ecs.EntityID
	for cx := minX; cx <= maxX; cx++ {
		for cy := minY; cy <= maxY; cy++ {
			for id := range g.cells[cellKey{cx: cx, cy: cy}] {
				result = append(result, id)
			}
		}
	}
	return result
}

// InRange returns the live entities whose box lies within radius of (x, y),
// in ascending ID order.
func (w *World) InRange(x, y, radius float64) []*Body {
	p := physics.Vec{X: x, Y: y}
	var out []*Body
	for _, id := range w.grid.Nearby(p, radius) {
		b, ok := w.bodies.Get(id)
		if !ok {
			continue
		}
		if w.bounds(b).DistanceTo(p) <= radius {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
