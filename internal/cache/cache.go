// Package cache provides the bounded LRU cache of rendered artifacts.
// Raster content is zoom-dependent, so the whole cache is cleared on any
// zoom change instead of keying entries per scale.
package cache

import (
	"container/list"
	"sync/atomic"
)

// DefaultCapacity is the default maximum number of cached artifacts.
const DefaultCapacity = 512

// Artifact is a rendered product owned by the cache once stored. Release
// frees whatever resources it holds; the cache calls it on eviction and on
// Clear, so disposal is scoped rather than GC-dependent.
type Artifact interface {
	Release() error
}

// Key identifies an artifact: item identity plus the transform epoch the
// raster was produced under.
type Key struct {
	ID    uint64
	Epoch uint64
}

// PictureCache is a bounded LRU over rendered artifacts. It is exclusively
// owned by the engine; counters are atomic only so diagnostics can read them
// without coordination.
type PictureCache struct {
	capacity int
	entries  map[Key]*list.Element
	lru      *list.List // front = most recently used

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64

	// ReleaseError, when set, observes artifacts whose Release failed.
	// Failures are diagnostics, never escalated.
	ReleaseError func(Key, error)
}

type cacheEntry struct {
	key      Key
	artifact Artifact
}

func New(capacity int) *PictureCache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &PictureCache{
		capacity: capacity,
		entries:  make(map[Key]*list.Element),
		lru:      list.New(),
	}
}

// Get returns the cached artifact for key, promoting it to most recently
// used on a hit.
func (c *PictureCache) Get(key Key) (Artifact, bool) {
	el, ok := c.entries[key]
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	c.lru.MoveToFront(el)
	return el.Value.(*cacheEntry).artifact, true
}

// Put stores an artifact, evicting the least recently used entry when the
// capacity is exceeded. Replacing an existing key releases the old artifact.
func (c *PictureCache) Put(key Key, a Artifact) {
	if a == nil {
		return
	}
	if el, ok := c.entries[key]; ok {
		old := el.Value.(*cacheEntry)
		if old.artifact != a {
			c.release(key, old.artifact)
			old.artifact = a
		}
		c.lru.MoveToFront(el)
		return
	}
	c.entries[key] = c.lru.PushFront(&cacheEntry{key: key, artifact: a})
	for c.lru.Len() > c.capacity {
		c.evictOldest()
	}
}

func (c *PictureCache) evictOldest() {
	el := c.lru.Back()
	if el == nil {
		return
	}
	e := el.Value.(*cacheEntry)
	c.lru.Remove(el)
	delete(c.entries, e.key)
	c.release(e.key, e.artifact)
	c.evictions.Add(1)
}

func (c *PictureCache) release(key Key, a Artifact) {
	if a == nil {
		return
	}
	if err := a.Release(); err != nil && c.ReleaseError != nil {
		c.ReleaseError(key, err)
	}
}

// Clear releases every entry. Called on zoom change: cached rasters are
// keyed to the previous scale and all stale at once.
func (c *PictureCache) Clear() {
	for el := c.lru.Front(); el != nil; el = el.Next() {
		e := el.Value.(*cacheEntry)
		c.release(e.key, e.artifact)
	}
	c.lru.Init()
	clear(c.entries)
}

func (c *PictureCache) Len() int { return c.lru.Len() }

func (c *PictureCache) Capacity() int { return c.capacity }

// Stats is a diagnostics snapshot.
type Stats struct {
	Entries   int
	Capacity  int
	Hits      uint64
	Misses    uint64
	Evictions uint64
	HitRate   float64
}

func (c *PictureCache) Stats() Stats {
	s := Stats{
		Entries:   c.lru.Len(),
		Capacity:  c.capacity,
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}
	return s
}
