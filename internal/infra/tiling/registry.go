package tiling

import (
	"sort"
	"sync"

	"github.com/tutu-network/rasterq/internal/domain"
)

// Registry is a concurrency-safe map of layer pairs keyed by an opaque
// compositor-assigned ID (typically a layer tree node ID). The dispatcher
// snapshots it via Pairs at the start of every Build/Reset.
type Registry struct {
	mu    sync.RWMutex
	pairs map[string]domain.LayerPair
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{pairs: make(map[string]domain.LayerPair)}
}

// Put registers or replaces the pair for id.
func (r *Registry) Put(id string, pair domain.LayerPair) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pairs[id] = pair
}

// Delete removes id from the registry, if present.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pairs, id)
}

// Get returns the pair registered for id.
func (r *Registry) Get(id string) (domain.LayerPair, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pair, ok := r.pairs[id]
	return pair, ok
}

// Pairs returns a stable-ordered snapshot of every registered pair, safe to
// hand to raster.Build without holding the registry lock any longer.
func (r *Registry) Pairs() []domain.LayerPair {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.pairs))
	for id := range r.pairs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	pairs := make([]domain.LayerPair, len(ids))
	for i, id := range ids {
		pairs[i] = r.pairs[id]
	}
	return pairs
}

// Len reports the number of registered pairs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.pairs)
}
