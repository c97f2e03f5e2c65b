// Package tiling provides an in-memory domain.Layer/TilingSetRasterQueue
// implementation and a registry of layer pairs for the dispatcher, the HTTP
// API, and the bench CLI to share.
package tiling

import "github.com/tutu-network/rasterq/internal/domain"

// MemoryLayer is a domain.Layer backed by a fixed tile list. It stands in
// for a real compositor layer, whose tiling set would instead walk a tile
// pool keyed by quadtree position.
type MemoryLayer struct {
	tiles []domain.Tile
}

// NewMemoryLayer returns a layer over the given tiles.
func NewMemoryLayer(tiles []domain.Tile) MemoryLayer {
	return MemoryLayer{tiles: tiles}
}

// CreateRasterQueue returns a fresh iterator. When prioritizeLowRes is set
// (the dispatcher forwards this under SmoothnessTakesPriority), the whole
// tile list is stably reordered by resolution alone: low-resolution tiles
// first, then non-ideal, then high. Priority bins are not consulted, so a
// low-resolution EVENTUALLY tile is walked before a high-resolution NOW one.
func (l MemoryLayer) CreateRasterQueue(prioritizeLowRes bool) domain.TilingSetRasterQueue {
	ordered := make([]domain.Tile, len(l.tiles))
	copy(ordered, l.tiles)
	if prioritizeLowRes {
		stableSortByResolution(ordered)
	}
	return &memoryQueue{tiles: ordered}
}

func stableSortByResolution(tiles []domain.Tile) {
	weight := func(t domain.Tile) int {
		switch t.Priority(domain.ActiveTree).Resolution {
		case domain.LowResolution:
			return 0
		case domain.NonIdealResolution:
			return 1
		default:
			return 2
		}
	}
	// Stable insertion sort over a two-bit key; layers stay small (tens of
	// tiles), so this is cheaper than it looks.
	for i := 1; i < len(tiles); i++ {
		for j := i; j > 0 && weight(tiles[j]) < weight(tiles[j-1]); j-- {
			tiles[j], tiles[j-1] = tiles[j-1], tiles[j]
		}
	}
}

// memoryQueue is the domain.TilingSetRasterQueue returned by MemoryLayer.
type memoryQueue struct {
	tiles []domain.Tile
	i     int
}

func (q *memoryQueue) Empty() bool      { return q.i >= len(q.tiles) }
func (q *memoryQueue) Top() domain.Tile { return q.tiles[q.i] }
func (q *memoryQueue) Pop()             { q.i++ }
