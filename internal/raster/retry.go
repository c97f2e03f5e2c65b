package raster

import (
	"time"

	"github.com/tutu-network/rasterq/internal/domain"
	"github.com/tutu-network/rasterq/internal/infra/dsa"
)

// RetryConfig controls how a failed rasterization is rescheduled.
type RetryConfig struct {
	MaxRetries    int
	BaseDelay     time.Duration
	MaxDelay      time.Duration
	BoostInterval time.Duration
}

// DefaultRetryConfig doubles the delay up to 10 attempts, capped at 30s,
// with a one-level starvation boost every 10s of waiting.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    10,
		BaseDelay:     50 * time.Millisecond,
		MaxDelay:      30 * time.Second,
		BoostInterval: 10 * time.Second,
	}
}

// RetryQueue holds tiles whose rasterization failed, ordered by attempt
// count less a starvation boost for time spent past their due time, with
// ties going to the earlier due time. It never reaches back into a live
// PairedSetQueue or RasterTilePriorityQueue: workers.Pool hands a due tile
// straight back to its workers, so a pair's heap position is never mutated
// out of band.
type RetryQueue struct {
	cfg   RetryConfig
	queue *dsa.PriorityQueue
	now   func() time.Time
}

// retryEntry is the Value carried by each dsa.HeapItem in the retry queue.
type retryEntry struct {
	tile    domain.Tile
	attempt int
}

// NewRetryQueue returns an empty retry queue configured with cfg.
func NewRetryQueue(cfg RetryConfig) *RetryQueue {
	return &RetryQueue{
		cfg: cfg,
		queue: dsa.NewPriorityQueue(dsa.PriorityQueueConfig{
			BoostInterval: cfg.BoostInterval,
			MaxBoost:      cfg.MaxRetries,
		}),
		now: time.Now,
	}
}

// backoff returns the delay before attempt's next try, doubling from
// BaseDelay and capped at MaxDelay.
func (r *RetryQueue) backoff(attempt int) time.Duration {
	delay := r.cfg.BaseDelay
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= r.cfg.MaxDelay {
			return r.cfg.MaxDelay
		}
	}
	return delay
}

// Failed records a rasterization failure for tile. Returns false once the
// tile has exhausted MaxRetries, in which case the caller should drop it
// and surface the failure elsewhere (e.g. telemetry).
func (r *RetryQueue) Failed(tile domain.Tile, attempt int) bool {
	if attempt >= r.cfg.MaxRetries {
		return false
	}
	delay := r.backoff(attempt)
	r.queue.Push(dsa.HeapItem{
		Key:         string(tile.ID()),
		Priority:    attempt,
		SubmittedAt: r.now().Add(delay),
		Value:       retryEntry{tile: tile, attempt: attempt + 1},
	})
	return true
}

// Due pops the queue's front tile (see RetryQueue for the order) if its due
// time has passed. ok is false when the queue is empty or the front tile is
// not due yet; other queued tiles are not examined, even if they are due.
func (r *RetryQueue) Due() (domain.Tile, int, bool) {
	item, ok := r.queue.Peek()
	if !ok || item.SubmittedAt.After(r.now()) {
		return nil, 0, false
	}
	item, _ = r.queue.Pop()
	entry := item.Value.(retryEntry)
	return entry.tile, entry.attempt, true
}

// Len reports the number of tiles awaiting retry.
func (r *RetryQueue) Len() int { return r.queue.Len() }
