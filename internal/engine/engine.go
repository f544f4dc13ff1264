// Package engine ties the spatial index, viewport tracker, LOD clusterer,
// visibility reconciler and picture cache into a per-viewport-change state
// machine. The engine owns all mutable state: external callers mutate only
// the registry and the tracker, and consume the visible set plus metrics.
//
// Everything here runs on one goroutine, driven by host frame ticks. A
// change arriving while a reconciliation is in flight supersedes it rather
// than queueing behind it, so only the latest viewport value is ever
// processed.
package engine

import (
	"sort"
	"time"

	"cullview/internal/cache"
	"cullview/internal/index"
	"cullview/internal/lod"
	"cullview/internal/reconcile"
	"cullview/internal/view"
	"cullview/internal/world"
)

// State is the orchestrator's scheduling state.
type State uint8

const (
	StateIdle State = iota
	StateViewportDirty
	StateReconciling
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateViewportDirty:
		return "dirty"
	case StateReconciling:
		return "reconciling"
	default:
		return "unknown"
	}
}

// Engine is the orchestrator. Construct with New, feed items through
// Registry, drive the viewport through Tracker, and call Tick once per host
// frame.
type Engine struct {
	cfg       *Config
	reg       *world.Registry
	tracker   *view.Tracker
	clusterer *lod.Clusterer
	pictures  *cache.PictureCache
	rec       reconcile.Reconciler
	visible   *reconcile.Set

	// Rasterize, when set, produces the cached artifact for a visible
	// entry on a cache miss. Left nil, the picture cache stays idle.
	Rasterize func(*reconcile.Entry) cache.Artifact

	tree         *index.Quadtree
	bounds       world.Rect
	boundsSet    bool
	built        bool
	builtVersion uint64
	rejected     int

	state         State
	dirty         bool
	seenEpoch     uint64
	seenZoomEpoch uint64
	lastW, lastH  float64
	pass          *reconcile.Pass

	onInvalidate  []func()
	lastReconcile time.Duration
	queried       int

	// rastered records the Count each cached picture was rendered with, so a
	// cluster whose membership changed under the same seed is re-rasterized.
	rastered map[uint64]int
}

// New builds an engine from cfg. A nil cfg uses DefaultConfig. Mount and
// unmount hooks attach the host's render state to entries entering and
// leaving the visible set.
func New(cfg *Config, mount reconcile.MountFunc, unmount reconcile.UnmountFunc) *Engine {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	e := &Engine{
		cfg:     cfg,
		reg:     world.NewRegistry(),
		tracker: view.NewTracker(view.Config{MinZoom: cfg.View.MinZoom, MaxZoom: cfg.View.MaxZoom, PadFrac: cfg.View.PadFrac}),
		clusterer: lod.New(lod.Config{
			Radius:         cfg.Cluster.Radius,
			ActivationZoom: cfg.Cluster.ActivationZoom,
			MinClusterSize: cfg.Cluster.MinClusterSize,
		}),
		pictures: cache.New(cfg.CacheSize),
		rec:      reconcile.Reconciler{Mount: mount, Unmount: unmount},
		visible:  reconcile.NewSet(),
		rastered: make(map[uint64]int),
	}
	e.pictures.ReleaseError = func(k cache.Key, err error) {
		logger().Warn("artifact release failed", "id", k.ID, "epoch", k.Epoch, "err", err)
	}
	return e
}

// Registry is the mutable item set. Mutations are picked up on the next
// tick via a full index rebuild.
func (e *Engine) Registry() *world.Registry { return e.reg }

// Tracker is the viewport state. Mutations are picked up on the next tick.
func (e *Engine) Tracker() *view.Tracker { return e.tracker }

// SetBounds fixes the index root bounds. Without it the bounds are derived
// from the registry's item union at each rebuild, which means a later item
// outside the old union is picked up by the rebuild rather than rejected.
func (e *Engine) SetBounds(r world.Rect) {
	e.bounds = r
	e.boundsSet = true
	e.built = false
	e.dirty = true
}

// Invalidate forces the next tick to recompute the visible set even when no
// tracked input changed.
func (e *Engine) Invalidate() { e.dirty = true }

// OnInvalidate registers a hook fired whenever a zoom change clears the
// picture cache, for collaborator-owned derived caches.
func (e *Engine) OnInvalidate(fn func()) {
	if fn != nil {
		e.onInvalidate = append(e.onInvalidate, fn)
	}
}

// Visible returns the current visible entries. During a chunked
// reconciliation this is the union of the previous set and the processed
// part of the new one, never an empty flash.
func (e *Engine) Visible() []*reconcile.Entry { return e.visible.Entries() }

// State returns the scheduling state.
func (e *Engine) State() State { return e.state }

// Tick performs one scheduling step for a screen of the given pixel size
// and reports whether anything was recomputed. With no pending change the
// tick is a memoized no-op.
func (e *Engine) Tick(screenW, screenH float64) bool {
	changed := e.dirty ||
		!e.built ||
		e.reg.Version() != e.builtVersion ||
		e.tracker.Epoch() != e.seenEpoch ||
		screenW != e.lastW || screenH != e.lastH
	if changed {
		// Latest-wins: a change during Reconciling supersedes the pass.
		e.state = StateViewportDirty
	}
	if e.state == StateIdle {
		return false
	}

	if e.state == StateViewportDirty {
		if ze := e.tracker.ZoomEpoch(); ze != e.seenZoomEpoch {
			e.seenZoomEpoch = ze
			e.pictures.Clear()
			for _, fn := range e.onInvalidate {
				fn()
			}
		}
		if !e.built || e.reg.Version() != e.builtVersion {
			e.rebuild()
		}
		e.seenEpoch = e.tracker.Epoch()
		e.lastW, e.lastH = screenW, screenH
		e.dirty = false
		e.pass = e.rec.Begin(e.visible, e.targets(screenW, screenH))
		e.state = StateReconciling
	}

	start := time.Now()
	res := e.pass.Run(e.cfg.ReconcileBudget)
	e.lastReconcile = time.Since(start)
	if res.Done {
		e.pass = nil
		e.state = StateIdle
		e.refreshPictures()
	}
	logger().Debug("tick",
		"state", e.state.String(),
		"visible", e.visible.Len(),
		"mounted", res.Mounted,
		"unmounted", res.Unmounted,
		"took", e.lastReconcile)
	return true
}

func (e *Engine) rebuild() {
	bounds := e.bounds
	if !e.boundsSet {
		b, ok := e.reg.Bounds()
		if !ok {
			b = world.RectAt(world.Point{}, 1, 1)
		}
		bounds = b
	}
	e.tree, e.rejected = index.Build(e.reg.Items(), bounds,
		index.Options{Capacity: e.cfg.Index.Capacity, MaxDepth: e.cfg.Index.MaxDepth})
	e.built = true
	e.builtVersion = e.reg.Version()
	if e.rejected > 0 {
		logger().Warn("index rebuild dropped items", "rejected", e.rejected, "kept", e.tree.Len())
	} else {
		logger().Debug("index rebuilt", "items", e.tree.Len(), "depth", e.tree.Depth())
	}
}

// targets computes the desired visible set: spatial query, LOD grouping,
// world-to-screen projection, priority ordering.
func (e *Engine) targets(screenW, screenH float64) []reconcile.Target {
	viewport := e.tracker.Viewport(screenW, screenH)
	hits := e.tree.Query(viewport)
	e.queried = len(hits)
	groups := e.clusterer.Assemble(hits, e.tracker.Zoom())

	// Higher priority draws later (on top); ID breaks ties so the order is
	// stable across identical frames.
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Seed.Priority != groups[j].Seed.Priority {
			return groups[i].Seed.Priority < groups[j].Seed.Priority
		}
		return groups[i].Seed.ID < groups[j].Seed.ID
	})

	targets := make([]reconcile.Target, len(groups))
	for i, g := range groups {
		targets[i] = reconcile.Target{
			ID:         g.Seed.ID,
			ScreenRect: e.tracker.WorldToScreenRect(g.Bounds),
			Payload:    g.Seed.Payload,
			Count:      g.Count,
		}
	}
	return targets
}

// refreshPictures tops up the raster cache for the settled visible set. A hit
// is only reusable while the entry's member count matches what the picture
// was rendered with; a pan can grow or shrink a cluster under the same seed.
func (e *Engine) refreshPictures() {
	if e.Rasterize == nil {
		return
	}
	for _, en := range e.visible.Entries() {
		key := cache.Key{ID: en.ID, Epoch: e.seenZoomEpoch}
		if _, ok := e.pictures.Get(key); ok && e.rastered[en.ID] == en.Count {
			continue
		}
		if a := e.Rasterize(en); a != nil {
			e.pictures.Put(key, a)
			e.rastered[en.ID] = en.Count
		}
	}
}

// Picture returns the cached artifact for a visible entry at the current
// transform epoch.
func (e *Engine) Picture(id uint64) (cache.Artifact, bool) {
	return e.pictures.Get(cache.Key{ID: id, Epoch: e.seenZoomEpoch})
}

// Metrics is the diagnostics snapshot exposed to collaborators.
type Metrics struct {
	State         State
	VisibleCount  int
	TotalCount    int
	QueryCount    int
	IndexRejected int
	Cache         cache.Stats
	LastReconcile time.Duration
	Zoom          float64
}

func (e *Engine) Metrics() Metrics {
	return Metrics{
		State:         e.state,
		VisibleCount:  e.visible.Len(),
		TotalCount:    e.reg.Len(),
		QueryCount:    e.queried,
		IndexRejected: e.rejected,
		Cache:         e.pictures.Stats(),
		LastReconcile: e.lastReconcile,
		Zoom:          e.tracker.Zoom(),
	}
}
