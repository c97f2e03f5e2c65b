package domain

// TilingSetRasterQueue is the external, per-tree tile iterator a layer
// supplies to the dispatcher. It enumerates tiles within one layer for one
// tree in "spiral" order — an order that usually, but not always, surfaces
// shared tiles first. The raster core must never assume otherwise.
type TilingSetRasterQueue interface {
	// Empty reports whether the iterator has any tiles left.
	Empty() bool

	// Top returns the current tile. Precondition: !Empty().
	Top() Tile

	// Pop advances past the current tile. Precondition: !Empty().
	Pop()
}

// Layer is one tree's (active or pending) tile source for a pair. A pair may
// have either side absent (e.g. a layer with no pending tree yet).
type Layer interface {
	// CreateRasterQueue returns a fresh iterator over this layer's tiles.
	// prioritizeLowRes is forwarded from the build-time policy (true under
	// SmoothnessTakesPriority) so the provider can bias its own traversal.
	CreateRasterQueue(prioritizeLowRes bool) TilingSetRasterQueue
}

// LayerPair is the (active layer, pending layer) tuple the dispatcher
// schedules as one unit. Either side may be nil.
type LayerPair struct {
	Active  Layer
	Pending Layer
}
