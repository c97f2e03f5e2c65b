package workers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tutu-network/rasterq/internal/domain"
	"github.com/tutu-network/rasterq/internal/raster"
)

type sliceQueue struct {
	tiles []domain.Tile
	i     int
}

func (q *sliceQueue) Empty() bool      { return q.i >= len(q.tiles) }
func (q *sliceQueue) Top() domain.Tile { return q.tiles[q.i] }
func (q *sliceQueue) Pop()             { q.i++ }

type sliceLayer struct{ tiles []domain.Tile }

func (l sliceLayer) CreateRasterQueue(bool) domain.TilingSetRasterQueue {
	cp := make([]domain.Tile, len(l.tiles))
	copy(cp, l.tiles)
	return &sliceQueue{tiles: cp}
}

func buildQueue(ids ...string) *raster.RasterTilePriorityQueue {
	pairs := make([]domain.LayerPair, len(ids))
	for i, id := range ids {
		pairs[i] = domain.LayerPair{Active: sliceLayer{tiles: []domain.Tile{
			domain.StaticTile{Identity: domain.TileID(id), Active: domain.TilePriority{Bin: domain.Now}},
		}}}
	}
	return raster.Build(pairs, domain.SamePriorityForBothTrees)
}

func TestPool_RasterizesEveryTile(t *testing.T) {
	q := buildQueue("a", "b", "c")

	var mu sync.Mutex
	done := map[domain.TileID]bool{}

	pool := NewPool(q, nil, func(ctx context.Context, tile domain.Tile) error {
		mu.Lock()
		done[tile.ID()] = true
		mu.Unlock()
		return nil
	}, 2, Hooks{})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	runUntilDrained(ctx, t, pool, q)

	for _, id := range []domain.TileID{"a", "b", "c"} {
		if !done[id] {
			t.Errorf("tile %q was never rasterized", id)
		}
	}
}

// runUntilDrained runs the pool in the background and cancels it once the
// queue is empty, then waits for Run to return.
func runUntilDrained(ctx context.Context, t *testing.T, pool *Pool, q *raster.RasterTilePriorityQueue) {
	t.Helper()
	runDone := make(chan struct{})
	runCtx, cancel := context.WithCancel(ctx)
	go func() {
		pool.Run(runCtx)
		close(runDone)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if q.Empty() {
			break
		}
		time.Sleep(time.Millisecond)
	}
	time.Sleep(10 * time.Millisecond) // let in-flight jobs finish
	cancel()

	select {
	case <-runDone:
	case <-time.After(2 * time.Second):
		t.Fatal("pool.Run did not return after cancel")
	}
}

func TestPool_FailureGoesToRetryQueue(t *testing.T) {
	q := buildQueue("flaky")
	retryCfg := raster.DefaultRetryConfig()
	retryCfg.BaseDelay = 0
	retry := raster.NewRetryQueue(retryCfg)

	var attempts int
	var mu sync.Mutex
	succeeded := make(chan struct{})

	pool := NewPool(q, retry, func(ctx context.Context, tile domain.Tile) error {
		mu.Lock()
		attempts++
		n := attempts
		mu.Unlock()
		if n < 2 {
			return errors.New("boom")
		}
		close(succeeded)
		return nil
	}, 1, Hooks{})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go pool.Run(ctx)

	select {
	case <-succeeded:
	case <-ctx.Done():
		t.Fatal("tile never succeeded after retry")
	}
	cancel()
}
