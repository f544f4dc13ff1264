// Package lod groups nearby clusterable items into representative markers
// when the viewport is zoomed far out.
package lod

import (
	"math"

	"cullview/internal/world"
)

// Defaults. Radius is in world units at zoom 1; the effective radius is
// Radius/zoom, so it grows as the view zooms out.
const (
	DefaultRadius         = 50.0
	DefaultActivationZoom = 0.5
	DefaultMinClusterSize = 5
)

// Config tunes the clusterer. Zero values fall back to defaults.
type Config struct {
	Radius         float64
	ActivationZoom float64
	MinClusterSize int
}

func (c Config) withDefaults() Config {
	if c.Radius <= 0 {
		c.Radius = DefaultRadius
	}
	if c.ActivationZoom <= 0 {
		c.ActivationZoom = DefaultActivationZoom
	}
	if c.MinClusterSize <= 0 {
		c.MinClusterSize = DefaultMinClusterSize
	}
	return c
}

// Group is one output unit: a single item (Count == 1) or a collapsed
// cluster represented by its seed item and member count. The seed's ID
// carries the group's identity through reconciliation.
type Group struct {
	Seed   world.Item
	Count  int
	Bounds world.Rect
}

// Collapsed reports whether the group stands in for multiple items.
func (g Group) Collapsed() bool { return g.Count > 1 }

// Clusterer implements greedy absorption clustering over a spatial query
// result. O(m^2) in the clusterable candidate count per pass; m is already
// bounded by the viewport query, not the full item set.
type Clusterer struct {
	cfg Config
}

func New(cfg Config) *Clusterer {
	return &Clusterer{cfg: cfg.withDefaults()}
}

// Active reports whether clustering applies at the given zoom.
func (c *Clusterer) Active(zoom float64) bool {
	return zoom < c.cfg.ActivationZoom
}

// collapseThreshold shrinks as the view zooms out, so far-out views collapse
// aggressively while views near the activation boundary mostly keep
// individual markers.
func (c *Clusterer) collapseThreshold(zoom float64) int {
	th := int(math.Round(float64(c.cfg.MinClusterSize) * zoom / c.cfg.ActivationZoom))
	if th < 2 {
		th = 2
	}
	return th
}

// Assemble partitions items into groups for the given zoom. Inactive zooms
// and non-clusterable items pass through untouched, one group per item.
func (c *Clusterer) Assemble(items []world.Item, zoom float64) []Group {
	if !c.Active(zoom) {
		out := make([]Group, len(items))
		for i, it := range items {
			out[i] = Group{Seed: it, Count: 1, Bounds: it.Rect}
		}
		return out
	}

	var candidates []world.Item
	var out []Group
	for _, it := range items {
		if it.Clusterable {
			candidates = append(candidates, it)
		} else {
			out = append(out, Group{Seed: it, Count: 1, Bounds: it.Rect})
		}
	}

	radius := c.cfg.Radius / zoom
	threshold := c.collapseThreshold(zoom)
	processed := make([]bool, len(candidates))
	for i, a := range candidates {
		if processed[i] {
			continue
		}
		processed[i] = true
		members := []world.Item{a}
		bounds := a.Rect
		ca := a.Rect.Center()
		for j := i + 1; j < len(candidates); j++ {
			if processed[j] {
				continue
			}
			b := candidates[j]
			if ca.Dist(b.Rect.Center()) < radius {
				processed[j] = true
				members = append(members, b)
				bounds = bounds.Union(b.Rect)
			}
		}
		if len(members) >= threshold {
			out = append(out, Group{Seed: a, Count: len(members), Bounds: bounds})
			continue
		}
		for _, m := range members {
			out = append(out, Group{Seed: m, Count: 1, Bounds: m.Rect})
		}
	}
	return out
}
