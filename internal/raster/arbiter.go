package raster

import "github.com/tutu-network/rasterq/internal/domain"

// HigherPriorityTree decides which tree a pair should currently draw its
// next tile from. activeTop/pendingTop are the current tops of the pair's
// two iterators; they are ignored when shared is non-nil, since that call
// shape only asks "which tree would have emitted this tile".
//
// shared, when non-nil, short-circuits the lookup to a single tile's own
// priorities rather than the two iterators' tops — used by
// PairedSetQueue.SkipTilesReturnedByTwin to find the shared tile's rightful
// emitter.
func HigherPriorityTree(policy domain.TreePriority, activeTop, pendingTop domain.Tile, shared domain.Tile) domain.WhichTree {
	active, pending := activeTop, pendingTop
	if shared != nil {
		active, pending = shared, shared
	}
	return arbitrate(policy, active.Priority(domain.ActiveTree), pending.Priority(domain.PendingTree))
}

// arbitrate decides which tree wins over two already tree-scoped priority
// records: new-content policy always takes pending, same-priority policy
// compares directly with ties going to pending, and smoothness policy
// additionally promotes a pending NOW tile over an active EVENTUALLY one.
func arbitrate(policy domain.TreePriority, activePriority, pendingPriority domain.TilePriority) domain.WhichTree {
	switch policy {
	case domain.NewContentTakesPriority:
		return domain.PendingTree
	case domain.SamePriorityForBothTrees:
		if activePriority.IsHigherPriorityThan(pendingPriority) {
			return domain.ActiveTree
		}
		return domain.PendingTree // ties go to pending
	case domain.SmoothnessTakesPriority:
		if activePriority.Bin == domain.Eventually && pendingPriority.Bin == domain.Now {
			return domain.PendingTree
		}
		return domain.ActiveTree
	default:
		return domain.ActiveTree
	}
}
