package orderbook

import "sync"

type registryEntry struct {
	order *Order
	book  *orderBook
}

// registry indexes every order ever submitted. Entries are never removed.
type registry struct {
	mu      sync.RWMutex
	byID    map[string]*registryEntry
	entries []*registryEntry
}

func newRegistry() *registry {
	return &registry{
		byID: make(map[string]*registryEntry),
	}
}

// add inserts order once; it reports false when the id is taken.
func (r *registry) add(order *Order, book *orderBook) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[order.ID]; ok {
		return false
	}
	e := &registryEntry{order: order, book: book}
	r.byID[order.ID] = e
	r.entries = append(r.entries, e)
	return true
}

func (r *registry) get(id string) (*registryEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byID[id]
	return e, ok
}

func (r *registry) contains(id string) bool {
	_, ok := r.get(id)
	return ok
}

func (r *registry) list() []*registryEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*registryEntry, len(r.entries))
	copy(out, r.entries)
	return out
}
