package flock

import (
	"math"

	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/geometry"
)

// minCellSize avoids degenerate grids when every radius is tiny or zero.
const minCellSize = 10.0

type gridKey struct {
	x, y int
}

// spatialIndex is a uniform hash grid over agent indices. Its cell size is
// the largest interaction radius, so every agent within range of a point is
// in the 3x3 block of cells around it.
type spatialIndex struct {
	cellSize float64
	cells    map[gridKey][]int
}

func newSpatialIndex(cfg *Config) *spatialIndex {
	return &spatialIndex{
		cellSize: cellSizeFor(cfg),
		cells:    make(map[gridKey][]int),
	}
}

func cellSizeFor(cfg *Config) float64 {
	size := math.Max(cfg.CohesionRadius, cfg.AlignmentRadius)
	size = math.Max(size, cfg.RepulsionRadius)
	return math.Max(size, minCellSize)
}

func (g *spatialIndex) keyOf(p geometry.Vector2D) gridKey {
	return gridKey{
		x: int(math.Floor(p.X / g.cellSize)),
		y: int(math.Floor(p.Y / g.cellSize)),
	}
}

// rebuild re-buckets every agent. Slices are truncated rather than dropped
// so their backing arrays are reused tick after tick.
func (g *spatialIndex) rebuild(agents []Agent) {
	for k := range g.cells {
		g.cells[k] = g.cells[k][:0]
	}
	for i := range agents {
		key := g.keyOf(agents[i].Position)
		g.cells[key] = append(g.cells[key], i)
	}
}

// forEachCandidate visits, in a fixed order, every agent index bucketed in
// the 3x3 block of cells around p. Safe for concurrent readers.
func (g *spatialIndex) forEachCandidate(p geometry.Vector2D, fn func(j int)) {
	center := g.keyOf(p)
	for x := center.x - 1; x <= center.x+1; x++ {
		for y := center.y - 1; y <= center.y+1; y++ {
			for _, j := range g.cells[gridKey{x: x, y: y}] {
				fn(j)
			}
		}
	}
}
