package script

import (
	"fmt"
	"sort"
	"sync"
)

// Registry is an in-process Runtime backed by a map of handles.
// It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	handles map[int]*Handle
}

var _ Runtime = (*Registry)(nil)

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handles: make(map[int]*Handle)}
}

// Register adds a handle under id.
// Panics if a script with the same ID is already registered.
func (r *Registry) Register(id int, h *Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handles[id]; exists {
		panic(fmt.Sprintf("registry: script %d already registered", id))
	}
	r.handles[id] = h
}

// Set adds or replaces the handle under id. Used when content is edited.
func (r *Registry) Set(id int, h *Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handles[id] = h
}

// Remove deletes the handle under id, if any.
func (r *Registry) Remove(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handles, id)
}

// Resolve implements Runtime. Negative IDs never resolve.
func (r *Registry) Resolve(id int) (*Handle, bool) {
	if id < 0 {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.handles[id]
	return h, ok
}

// IDs returns all registered IDs, sorted.
func (r *Registry) IDs() []int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]int, 0, len(r.handles))
	for id := range r.handles {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
