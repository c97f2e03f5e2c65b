package raster

import "github.com/tutu-network/rasterq/internal/domain"

// PairedSetQueue merges one layer pair's active and pending tile iterators
// into a single ordered source, folding duplicate emissions of tiles shared
// between the two trees (spec §4.3).
type PairedSetQueue struct {
	active  domain.TilingSetRasterQueue
	pending domain.TilingSetRasterQueue
	hasBoth bool
}

// NewPairedSetQueue builds a pair from a layer pair, asking each present
// layer for a fresh iterator. Either side of pair may be nil, in which case
// that tree contributes no tiles. SkipTilesReturnedByTwin runs once up
// front so invariant I2 (§3) holds from the start, exactly as spec §4.3's
// Construction paragraph requires.
func NewPairedSetQueue(pair domain.LayerPair, policy domain.TreePriority, prioritizeLowRes bool) *PairedSetQueue {
	p := &PairedSetQueue{hasBoth: pair.Active != nil && pair.Pending != nil}
	if pair.Active != nil {
		p.active = pair.Active.CreateRasterQueue(prioritizeLowRes)
	}
	if pair.Pending != nil {
		p.pending = pair.Pending.CreateRasterQueue(prioritizeLowRes)
	}
	p.skipTilesReturnedByTwin(policy)
	return p
}

func (p *PairedSetQueue) queue(tree domain.WhichTree) domain.TilingSetRasterQueue {
	if tree == domain.PendingTree {
		return p.pending
	}
	return p.active
}

func emptyQueue(q domain.TilingSetRasterQueue) bool {
	return q == nil || q.Empty()
}

// Empty reports whether neither iterator has a tile left to offer.
// SkipTilesReturnedByTwin runs after every mutation (construction and Pop),
// so Empty never needs to drive the skip loop itself.
func (p *PairedSetQueue) Empty() bool {
	return emptyQueue(p.active) && emptyQueue(p.pending)
}

// NextTileIteratorTree decides which tree's top tile this pair would
// currently emit under policy, without consuming anything. Precondition:
// SkipTilesReturnedByTwin has already resolved any not-rightfully-owned
// shared tile off whichever side this picks — true of any state reachable
// through the public API.
func (p *PairedSetQueue) NextTileIteratorTree(policy domain.TreePriority) domain.WhichTree {
	activeEmpty, pendingEmpty := emptyQueue(p.active), emptyQueue(p.pending)
	switch {
	case activeEmpty && pendingEmpty:
		return domain.ActiveTree
	case activeEmpty:
		return domain.PendingTree
	case pendingEmpty:
		return domain.ActiveTree
	}
	return HigherPriorityTree(policy, p.active.Top(), p.pending.Top(), nil)
}

// skipTilesReturnedByTwin implements spec §4.3's SkipTilesReturnedByTwin: it
// repeatedly asks which side NextTileIteratorTree would currently pick and,
// if that side's top is a shared tile this pair is not the rightful emitter
// of, discards it and tries again — before the tile is ever exposed to
// Top/Pop or compared by the outer heap. This is what resolves the "spiral
// iterator" quirk (§3/§6): a shared tile may surface on the wrong side's top
// well before it reaches the rightful side's top, so the wrong-side copy
// must be dropped rather than emitted.
func (p *PairedSetQueue) skipTilesReturnedByTwin(policy domain.TreePriority) {
	if !p.hasBoth {
		return
	}
	for !p.Empty() {
		ts := p.NextTileIteratorTree(policy)
		q := p.queue(ts)
		t := q.Top()
		if !t.IsShared() {
			return
		}
		if owner := HigherPriorityTree(policy, nil, nil, t); owner == ts {
			return
		}
		q.Pop()
	}
}

// Top returns the tile this pair would currently emit.
func (p *PairedSetQueue) Top(policy domain.TreePriority) (domain.Tile, error) {
	if p.Empty() {
		return nil, domain.ErrPairEmpty
	}
	return p.queue(p.NextTileIteratorTree(policy)).Top(), nil
}

// Pop advances past the tile Top would have returned, then re-runs
// SkipTilesReturnedByTwin so invariant I2 is restored for the next Top/Pop.
func (p *PairedSetQueue) Pop(policy domain.TreePriority) error {
	if p.Empty() {
		return domain.ErrPairEmpty
	}

	tree := p.NextTileIteratorTree(policy)
	p.queue(tree).Pop()

	if p.hasBoth {
		p.skipTilesReturnedByTwin(policy)
	}
	return nil
}
