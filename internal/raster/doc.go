// Package raster implements the Raster Tile Priority Queue: the
// merge-and-dedup priority selector that produces the next tile to
// rasterize across a collection of layer pairs.
//
// Each pair exposes up to two tile iterators — one for the active layer
// tree, one for the pending tree. RasterTilePriorityQueue arranges one
// PairedSetQueue per pair in a binary heap ordered by rasterOrderLess,
// and hands the winning pair's current tile to Top/Pop.
//
// The package owns no goroutines and takes no locks: it is built once via
// Build, driven by a single owner (see internal/infra/workers), and reset
// or discarded.
package raster
