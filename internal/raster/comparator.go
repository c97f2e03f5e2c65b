package raster

import "github.com/tutu-network/rasterq/internal/domain"

// rasterOrderLess reports whether a is lower priority than b (a ≺ b) under
// policy — the strict weak order spec §4.2 defines for the outer heap. It is
// the Less half of container/heap.Interface; see rtpqHeap in rtpq.go.
func rasterOrderLess(policy domain.TreePriority, a, b *PairedSetQueue) bool {
	aEmpty, bEmpty := a.Empty(), b.Empty()
	if aEmpty || bEmpty {
		// Empty dominance (I4): an empty pair is lowest. Equal-empty pairs
		// are equivalent, so neither is "less" than the other.
		return aEmpty && !bEmpty
	}

	ta := a.NextTileIteratorTree(policy)
	tb := b.NextTileIteratorTree(policy)
	tileA := a.queue(ta).Top()
	tileB := b.queue(tb).Top()
	pa := tileA.PriorityForTreePriority(policy)
	pb := tileB.PriorityForTreePriority(policy)

	// Smoothness pending-NOW override: both sides parked in EVENTUALLY, but
	// one of them has a pending tile that is actually due NOW.
	if policy == domain.SmoothnessTakesPriority && pa.Bin == domain.Eventually && pb.Bin == domain.Eventually {
		aPendingNow := tileA.Priority(domain.PendingTree).Bin == domain.Now
		bPendingNow := tileB.Priority(domain.PendingTree).Bin == domain.Now
		if aPendingNow != bPendingNow {
			return bPendingNow
		}
		// both or neither — fall through to the normal comparison below
	}

	if pa.Bin == pb.Bin && pa.Resolution != pb.Resolution {
		return resolutionLess(policy, pa.Resolution, pb.Resolution)
	}

	return pb.IsHigherPriorityThan(pa)
}

// resolutionLess implements step 4 of spec §4.2: NON_IDEAL always loses,
// and otherwise the winning resolution flips with policy.
func resolutionLess(policy domain.TreePriority, ra, rb domain.Resolution) bool {
	if ra == domain.NonIdealResolution {
		return true
	}
	if rb == domain.NonIdealResolution {
		return false
	}
	if policy == domain.SmoothnessTakesPriority {
		// LOW_RESOLUTION beats HIGH_RESOLUTION.
		return ra == domain.HighResolution && rb == domain.LowResolution
	}
	// HIGH_RESOLUTION beats LOW_RESOLUTION everywhere else.
	return ra == domain.LowResolution && rb == domain.HighResolution
}
