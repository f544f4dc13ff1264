package world

import (
	"errors"
	"fmt"
)

var ErrDuplicateID = errors.New("registry: duplicate item id")

// Registry holds the full item set with stable identities. It is the only
// mutable entry point for content; every mutation bumps Version so the engine
// knows the spatial index is stale. Not safe for concurrent use: all mutation
// happens on the owning goroutine.
type Registry struct {
	items   []Item
	byID    map[uint64]int
	version uint64
	nextID  uint64
}

func NewRegistry() *Registry {
	return &Registry{byID: make(map[uint64]int), nextID: 1}
}

// NextID hands out a fresh identity. IDs are never reused within the
// registry's lifetime.
func (r *Registry) NextID() uint64 {
	id := r.nextID
	r.nextID++
	return id
}

// Add inserts an item. The rect must be valid and the id unused.
func (r *Registry) Add(it Item) error {
	if !it.Rect.IsValid() {
		return fmt.Errorf("registry: item %d: invalid rect %+v", it.ID, it.Rect)
	}
	if _, ok := r.byID[it.ID]; ok {
		return fmt.Errorf("%w: %d", ErrDuplicateID, it.ID)
	}
	if it.ID >= r.nextID {
		r.nextID = it.ID + 1
	}
	r.byID[it.ID] = len(r.items)
	r.items = append(r.items, it)
	r.version++
	return nil
}

// Remove deletes the item with the given id. Reports whether it existed.
func (r *Registry) Remove(id uint64) bool {
	i, ok := r.byID[id]
	if !ok {
		return false
	}
	last := len(r.items) - 1
	if i != last {
		r.items[i] = r.items[last]
		r.byID[r.items[i].ID] = i
	}
	r.items = r.items[:last]
	delete(r.byID, id)
	r.version++
	return true
}

// Replace swaps the stored item for id with it, keeping the identity. This is
// how an item moves: its rect is immutable once indexed, so a move is a
// re-insertion rather than an in-place mutation.
func (r *Registry) Replace(id uint64, it Item) error {
	i, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("registry: replace: unknown id %d", id)
	}
	if !it.Rect.IsValid() {
		return fmt.Errorf("registry: item %d: invalid rect %+v", id, it.Rect)
	}
	it.ID = id
	r.items[i] = it
	r.version++
	return nil
}

// Clear removes every item. Identities are not reused afterwards.
func (r *Registry) Clear() {
	if len(r.items) == 0 {
		return
	}
	r.items = nil
	clear(r.byID)
	r.version++
}

// Get returns the item with the given id.
func (r *Registry) Get(id uint64) (Item, bool) {
	i, ok := r.byID[id]
	if !ok {
		return Item{}, false
	}
	return r.items[i], true
}

// Items returns the live item slice. Callers must not mutate it.
func (r *Registry) Items() []Item { return r.items }

func (r *Registry) Len() int { return len(r.items) }

// Version is a monotonic counter bumped on every mutation.
func (r *Registry) Version() uint64 { return r.version }

// Bounds returns the union of all item rects, or false when empty.
func (r *Registry) Bounds() (Rect, bool) {
	if len(r.items) == 0 {
		return Rect{}, false
	}
	b := r.items[0].Rect
	for _, it := range r.items[1:] {
		b = b.Union(it.Rect)
	}
	return b, true
}
