// Package index provides the quadtree answering "which items overlap this
// rectangle" in sub-linear time. The tree is immutable-shaped per build:
// content changes trigger a full rebuild from the registry rather than
// incremental restructuring.
package index

import (
	"errors"

	"cullview/internal/world"
)

// Tuning defaults. Capacity is per-node before subdivision; MaxDepth bounds
// recursion under pathological clustering.
const (
	DefaultCapacity = 8
	DefaultMaxDepth = 8
)

var (
	// ErrOutOfBounds marks an item whose rect does not overlap the root
	// bounds. The insert is a no-op; the item stays invisible until the
	// caller rebuilds with larger bounds.
	ErrOutOfBounds = errors.New("index: item rect outside root bounds")
	// ErrInvalidRect marks a NaN or degenerate rect, rejected before it can
	// corrupt the tree.
	ErrInvalidRect = errors.New("index: invalid item rect")
)

// Options configures a tree build.
type Options struct {
	Capacity int
	MaxDepth int
}

func (o Options) withDefaults() Options {
	if o.Capacity <= 0 {
		o.Capacity = DefaultCapacity
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	return o
}

// Quadtree stores each item in exactly one node: an item fitting entirely
// inside a quadrant descends into it, an item spanning quadrants stays in the
// shallower ancestor. Queries therefore never need a dedup pass, at the cost
// of spanning items keeping a node slightly over capacity.
type Quadtree struct {
	root *node
	opts Options
	len  int
}

type node struct {
	bounds   world.Rect
	depth    int
	items    []world.Item
	children *[4]node // nil for leaves
}

// New creates an empty tree over the given root bounds.
func New(bounds world.Rect, opts Options) *Quadtree {
	opts = opts.withDefaults()
	return &Quadtree{root: &node{bounds: bounds}, opts: opts}
}

// Build constructs a tree from the full item list. Items with rects outside
// bounds or invalid rects are skipped; their count is returned so the caller
// can surface the loss.
func Build(items []world.Item, bounds world.Rect, opts Options) (*Quadtree, int) {
	t := New(bounds, opts)
	rejected := 0
	for _, it := range items {
		if err := t.Insert(it); err != nil {
			rejected++
		}
	}
	return t, rejected
}

// Insert adds one item. Returns ErrInvalidRect or ErrOutOfBounds without
// modifying the tree when the item cannot be indexed.
func (t *Quadtree) Insert(it world.Item) error {
	if !it.Rect.IsValid() {
		return ErrInvalidRect
	}
	if !it.Rect.Overlaps(t.root.bounds) {
		return ErrOutOfBounds
	}
	t.root.insert(it, t.opts)
	t.len++
	return nil
}

func (n *node) insert(it world.Item, opts Options) {
	if n.children == nil {
		if len(n.items) < opts.Capacity || n.depth >= opts.MaxDepth {
			n.items = append(n.items, it)
			return
		}
		n.subdivide(opts)
	}
	if c := n.childFor(it.Rect); c != nil {
		c.insert(it, opts)
		return
	}
	// Spans more than one quadrant: single-owner policy keeps it here.
	n.items = append(n.items, it)
}

// childFor returns the one child fully containing r, or nil when r straddles
// a quadrant boundary.
func (n *node) childFor(r world.Rect) *node {
	for i := range n.children {
		if n.children[i].bounds.Contains(r) {
			return &n.children[i]
		}
	}
	return nil
}

func (n *node) subdivide(opts Options) {
	c := n.bounds.Center()
	b := n.bounds
	n.children = &[4]node{
		{bounds: world.Rect{MinX: b.MinX, MinY: b.MinY, MaxX: c.X, MaxY: c.Y}, depth: n.depth + 1},
		{bounds: world.Rect{MinX: c.X, MinY: b.MinY, MaxX: b.MaxX, MaxY: c.Y}, depth: n.depth + 1},
		{bounds: world.Rect{MinX: b.MinX, MinY: c.Y, MaxX: c.X, MaxY: b.MaxY}, depth: n.depth + 1},
		{bounds: world.Rect{MinX: c.X, MinY: c.Y, MaxX: b.MaxX, MaxY: b.MaxY}, depth: n.depth + 1},
	}
	kept := n.items[:0]
	for _, it := range n.items {
		if c := n.childFor(it.Rect); c != nil {
			c.insert(it, opts)
		} else {
			kept = append(kept, it)
		}
	}
	n.items = kept
}

// Query returns every indexed item whose rect overlaps r.
func (t *Quadtree) Query(r world.Rect) []world.Item {
	var out []world.Item
	t.root.query(r, &out)
	return out
}

func (n *node) query(r world.Rect, out *[]world.Item) {
	if !n.bounds.Overlaps(r) {
		return
	}
	for _, it := range n.items {
		if it.Rect.Overlaps(r) {
			*out = append(*out, it)
		}
	}
	if n.children != nil {
		for i := range n.children {
			n.children[i].query(r, out)
		}
	}
}

// Len returns the number of indexed items.
func (t *Quadtree) Len() int { return t.len }

// Bounds returns the root bounds.
func (t *Quadtree) Bounds() world.Rect { return t.root.bounds }

// Depth returns the deepest node level currently in use.
func (t *Quadtree) Depth() int { return t.root.maxDepth() }

func (n *node) maxDepth() int {
	d := n.depth
	if n.children != nil {
		for i := range n.children {
			if cd := n.children[i].maxDepth(); cd > d {
				d = cd
			}
		}
	}
	return d
}
