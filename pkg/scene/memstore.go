package scene

import (
	"context"
	"slices"
	"sync"
)

// Compile-time assertion that MemStore satisfies the NodeSource interface.
var _ NodeSource = (*MemStore)(nil)

// MemStore is a thread-safe, in-memory node collection. It backs headless
// operation and testing; in a full viewer deployment the collection lives
// inside the viewer's own database and is exposed through [NodeSource].
// The zero value is ready to use.
type MemStore struct {
	mu    sync.RWMutex
	nodes []Node
}

// NewMemStore returns a [MemStore] pre-populated with nodes, kept in
// ascending ID order.
func NewMemStore(nodes ...Node) *MemStore {
	s := &MemStore{}
	s.Add(nodes...)
	return s
}

// Add inserts nodes into the collection, maintaining ascending ID order.
func (s *MemStore) Add(nodes ...Node) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nodes = append(s.nodes, nodes...)
	slices.SortStableFunc(s.nodes, func(a, b Node) int { return a.ID - b.ID })
}

// Remove deletes the nodes with the given IDs. Unknown IDs are ignored.
func (s *MemStore) Remove(ids ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	drop := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	s.nodes = slices.DeleteFunc(s.nodes, func(n Node) bool {
		_, ok := drop[n.ID]
		return ok
	})
}

// Nodes implements [NodeSource]. The returned slice is a copy: a resolution
// in progress never observes later mutation of the store.
func (s *MemStore) Nodes(ctx context.Context) ([]Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Node, len(s.nodes))
	copy(out, s.nodes)
	return out, nil
}

// Find returns the nodes matching q, in ascending ID order.
func (s *MemStore) Find(ctx context.Context, q Query) ([]Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Node
	for _, n := range s.nodes {
		if q.Matches(n) {
			out = append(out, n)
		}
	}
	return out, nil
}

// Len returns the number of nodes in the collection.
func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}
