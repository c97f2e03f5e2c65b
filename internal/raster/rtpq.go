package raster

import (
	"container/heap"

	"github.com/tutu-network/rasterq/internal/domain"
)

// RasterTilePriorityQueue merges many layer pairs into a single priority
// order. It is built once from a snapshot of pairs and driven to exhaustion
// by one owner; there is no support for inserting a pair after Build.
type RasterTilePriorityQueue struct {
	policy domain.TreePriority
	heap   rtpqHeap

	// debugSeen, when non-nil, tracks every tile ID popped so far and
	// panics with domain.ErrDuplicateTileEmitted on a repeat. Left nil in
	// production builds; set by BuildDebug.
	debugSeen map[domain.TileID]struct{}
}

// rtpqHeap is the container/heap.Interface adapter: a slice of pair queues
// ordered by rasterOrderLess under the outer queue's policy.
type rtpqHeap struct {
	policy domain.TreePriority
	pairs  []*PairedSetQueue
}

func (h rtpqHeap) Len() int { return len(h.pairs) }

func (h rtpqHeap) Less(i, j int) bool {
	// heap.Interface's Less must put the highest-priority pair at the root,
	// so i "sorts before" j exactly when j is the lower-priority one.
	return rasterOrderLess(h.policy, h.pairs[j], h.pairs[i])
}

func (h rtpqHeap) Swap(i, j int) { h.pairs[i], h.pairs[j] = h.pairs[j], h.pairs[i] }

func (h *rtpqHeap) Push(x any) { h.pairs = append(h.pairs, x.(*PairedSetQueue)) }

func (h *rtpqHeap) Pop() any {
	old := h.pairs
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	h.pairs = old[:n-1]
	return item
}

// Build constructs a RasterTilePriorityQueue over the given layer pairs
// under policy. Pairs whose iterators are immediately empty are kept (an
// empty pair is a valid, lowest-priority heap member per I4) rather than
// filtered out; Empty drops them once every pair has drained.
func Build(pairs []domain.LayerPair, policy domain.TreePriority) *RasterTilePriorityQueue {
	prioritizeLowRes := policy == domain.SmoothnessTakesPriority

	h := rtpqHeap{policy: policy, pairs: make([]*PairedSetQueue, 0, len(pairs))}
	for _, pair := range pairs {
		h.pairs = append(h.pairs, NewPairedSetQueue(pair, policy, prioritizeLowRes))
	}
	heap.Init(&h)

	return &RasterTilePriorityQueue{policy: policy, heap: h}
}

// BuildDebug is Build plus a duplicate-emission check: every tile ID handed
// out by Pop is remembered, and a repeat panics with
// domain.ErrDuplicateTileEmitted instead of silently violating I3. Intended
// for tests and local debugging, not steady-state production use.
func BuildDebug(pairs []domain.LayerPair, policy domain.TreePriority) *RasterTilePriorityQueue {
	q := Build(pairs, policy)
	q.debugSeen = make(map[domain.TileID]struct{})
	return q
}

// Reset rebuilds the queue in place from the given layer pairs under the
// queue's existing policy, discarding all iterator progress. The pairs may
// be the original list or a fresh snapshot (workers.Pool passes its
// registry's current pairs).
func (q *RasterTilePriorityQueue) Reset(pairs []domain.LayerPair) {
	debug := q.debugSeen != nil
	*q = *Build(pairs, q.policy)
	if debug {
		q.debugSeen = make(map[domain.TileID]struct{})
	}
}

// Empty reports whether no pair has a tile left to offer. Because empty
// pairs sort lowest, an empty root means every pair is empty; Empty then
// drops all of them from the heap, so Len reports zero afterwards.
func (q *RasterTilePriorityQueue) Empty() bool {
	for len(q.heap.pairs) > 0 {
		top := q.heap.pairs[0]
		if !top.Empty() {
			return false
		}
		heap.Pop(&q.heap)
	}
	return true
}

// Top returns the highest-priority tile across all pairs without consuming
// it. Precondition: !Empty().
func (q *RasterTilePriorityQueue) Top() (domain.Tile, error) {
	if q.Empty() {
		return nil, domain.ErrQueueEmpty
	}
	return q.heap.pairs[0].Top(q.policy)
}

// Pop consumes and returns the highest-priority tile, re-deriving the
// winning pair's position in the heap (its next tile, if any, may belong to
// a different tree or a different priority bin). Precondition: !Empty().
func (q *RasterTilePriorityQueue) Pop() (domain.Tile, error) {
	if q.Empty() {
		return nil, domain.ErrQueueEmpty
	}

	top := q.heap.pairs[0]
	tile, err := top.Top(q.policy)
	if err != nil {
		return nil, err
	}
	if err := top.Pop(q.policy); err != nil {
		return nil, err
	}

	if q.debugSeen != nil {
		if _, dup := q.debugSeen[tile.ID()]; dup {
			panic(domain.ErrDuplicateTileEmitted)
		}
		q.debugSeen[tile.ID()] = struct{}{}
	}

	// The winning pair's priority generally changes after popping, so it
	// must be extracted and reinserted rather than fixed in place.
	heap.Pop(&q.heap)
	heap.Push(&q.heap, top)

	return tile, nil
}

// Len reports the number of pairs still tracked, including empty ones.
func (q *RasterTilePriorityQueue) Len() int { return q.heap.Len() }
