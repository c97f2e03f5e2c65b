package tiling

import (
	"testing"

	"github.com/tutu-network/rasterq/internal/domain"
)

func staticTile(id string, res domain.Resolution) domain.StaticTile {
	return domain.StaticTile{
		Identity: domain.TileID(id),
		Active:   domain.TilePriority{Bin: domain.Soon, Resolution: res},
	}
}

func TestMemoryLayer_IteratesInOrderByDefault(t *testing.T) {
	layer := NewMemoryLayer([]domain.Tile{
		staticTile("a", domain.HighResolution),
		staticTile("b", domain.LowResolution),
	})

	q := layer.CreateRasterQueue(false)
	if q.Top().ID() != "a" {
		t.Fatalf("first tile = %q, want %q", q.Top().ID(), "a")
	}
	q.Pop()
	if q.Top().ID() != "b" {
		t.Fatalf("second tile = %q, want %q", q.Top().ID(), "b")
	}
	q.Pop()
	if !q.Empty() {
		t.Error("queue should be empty after popping both tiles")
	}
}

func TestMemoryLayer_PrioritizeLowResReordersTraversal(t *testing.T) {
	layer := NewMemoryLayer([]domain.Tile{
		staticTile("hi", domain.HighResolution),
		staticTile("lo", domain.LowResolution),
		staticTile("ni", domain.NonIdealResolution),
	})

	q := layer.CreateRasterQueue(true)
	var order []domain.TileID
	for !q.Empty() {
		order = append(order, q.Top().ID())
		q.Pop()
	}

	want := []domain.TileID{"lo", "ni", "hi"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, order[i], want[i])
		}
	}
}

func TestMemoryLayer_CreateRasterQueueIsIndependentPerCall(t *testing.T) {
	layer := NewMemoryLayer([]domain.Tile{staticTile("a", domain.HighResolution)})

	q1 := layer.CreateRasterQueue(false)
	q1.Pop()
	if !q1.Empty() {
		t.Fatal("q1 should be empty after popping its only tile")
	}

	q2 := layer.CreateRasterQueue(false)
	if q2.Empty() {
		t.Error("a fresh iterator from the same layer must not be affected by q1's progress")
	}
}

func TestRegistry_PutGetDelete(t *testing.T) {
	r := NewRegistry()
	pair := domain.LayerPair{Active: NewMemoryLayer(nil)}

	if _, ok := r.Get("p1"); ok {
		t.Fatal("Get on an empty registry should report not found")
	}

	r.Put("p1", pair)
	if _, ok := r.Get("p1"); !ok {
		t.Fatal("Get should find a pair after Put")
	}
	if r.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", r.Len())
	}

	r.Delete("p1")
	if _, ok := r.Get("p1"); ok {
		t.Error("Get should not find a pair after Delete")
	}
}

func TestRegistry_PairsIsStableOrderedSnapshot(t *testing.T) {
	r := NewRegistry()
	r.Put("zebra", domain.LayerPair{})
	r.Put("alpha", domain.LayerPair{})
	r.Put("mid", domain.LayerPair{})

	if got := r.Pairs(); len(got) != 3 {
		t.Fatalf("Pairs() returned %d pairs, want 3", len(got))
	}

	// Calling twice in a row must return the same order.
	first := r.Pairs()
	second := r.Pairs()
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("Pairs() order changed between calls at index %d", i)
		}
	}
}
