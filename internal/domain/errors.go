package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// These mark programming errors per spec §7 (precondition violations), not a
// recoverable/user-facing error channel. Callers are expected to consult
// Empty() before Top()/Pop(), exactly as the core does internally.

var (
	// ErrQueueEmpty is returned when Top/Pop is attempted on an empty
	// RasterTilePriorityQueue.
	ErrQueueEmpty = errors.New("raster tile priority queue is empty")

	// ErrPairEmpty is returned when Top/Pop is attempted on an empty
	// PairedSetQueue.
	ErrPairEmpty = errors.New("paired set queue is empty")

	// ErrUnknownTreePriority is returned when a configured policy name
	// matches none of the three defined policies (daemon.ParsePolicy). The
	// arbiter and comparator do not return it.
	ErrUnknownTreePriority = errors.New("unknown tree priority policy")

	// ErrLayerPairUnresolved marks a layer pair with neither an active nor a
	// pending layer. No package here returns it: tiling.Registry.Get reports
	// an unknown ID through its ok result, and a pair with no layers is
	// accepted as an empty pair.
	ErrLayerPairUnresolved = errors.New("layer pair has no active or pending layer")

	// ErrDuplicateTileEmitted marks an invariant violation (spec I3): the
	// same tile was emitted twice from one PairedSetQueue. Only raised when
	// a RasterTilePriorityQueue is built with BuildDebug.
	ErrDuplicateTileEmitted = errors.New("tile emitted twice from the same paired set queue")
)
