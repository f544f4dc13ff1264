// Package view owns the origin+zoom transform between world and screen
// coordinates, including focal-point zoom math.
package view

import (
	"errors"
	"math"

	"cullview/internal/world"
)

// Defaults for zoom clamping and viewport padding.
const (
	DefaultMinZoom = 0.05
	DefaultMaxZoom = 64.0
	// DefaultPadFrac inflates the computed viewport so items just outside the
	// strict visible area are pre-admitted, avoiding pop-in during fast pans.
	DefaultPadFrac = 0.15
)

// ErrInvalidTransform marks a rejected transform update: non-positive or
// non-finite zoom, or non-finite origin. The previous state is retained.
var ErrInvalidTransform = errors.New("view: invalid transform")

// Tracker holds the viewport state. Mutations outside its setters are not
// allowed; the engine reads it every tick. Each accepted change bumps Epoch,
// and each accepted zoom change additionally bumps ZoomEpoch so raster caches
// keyed on scale know to flush.
type Tracker struct {
	origin    world.Point
	zoom      float64
	minZoom   float64
	maxZoom   float64
	padFrac   float64
	epoch     uint64
	zoomEpoch uint64
}

// Config bounds and pads the tracker. Zero values fall back to defaults.
type Config struct {
	MinZoom float64
	MaxZoom float64
	PadFrac float64
}

func NewTracker(cfg Config) *Tracker {
	if cfg.MinZoom <= 0 {
		cfg.MinZoom = DefaultMinZoom
	}
	if cfg.MaxZoom <= 0 {
		cfg.MaxZoom = DefaultMaxZoom
	}
	if cfg.PadFrac <= 0 {
		cfg.PadFrac = DefaultPadFrac
	}
	return &Tracker{zoom: 1.0, minZoom: cfg.MinZoom, maxZoom: cfg.MaxZoom, padFrac: cfg.PadFrac}
}

func (t *Tracker) Origin() world.Point { return t.origin }
func (t *Tracker) Zoom() float64       { return t.zoom }

// Epoch is bumped on every accepted origin or zoom change.
func (t *Tracker) Epoch() uint64 { return t.epoch }

// ZoomEpoch is bumped only on accepted zoom changes.
func (t *Tracker) ZoomEpoch() uint64 { return t.zoomEpoch }

// WorldToScreen maps a world point into pixel space.
func (t *Tracker) WorldToScreen(p world.Point) world.Point {
	return p.Sub(t.origin).Scale(t.zoom)
}

// ScreenToWorld maps a pixel point back into world space.
func (t *Tracker) ScreenToWorld(p world.Point) world.Point {
	return p.Scale(1 / t.zoom).Add(t.origin)
}

// WorldToScreenRect maps a world rect into pixel space.
func (t *Tracker) WorldToScreenRect(r world.Rect) world.Rect {
	min := t.WorldToScreen(world.Point{X: r.MinX, Y: r.MinY})
	max := t.WorldToScreen(world.Point{X: r.MaxX, Y: r.MaxY})
	return world.Rect{MinX: min.X, MinY: min.Y, MaxX: max.X, MaxY: max.Y}
}

// Viewport computes the world-space rect covered by a screen of the given
// size, inflated by the padding fraction.
func (t *Tracker) Viewport(screenW, screenH float64) world.Rect {
	r := world.Rect{
		MinX: t.origin.X,
		MinY: t.origin.Y,
		MaxX: t.origin.X + screenW/t.zoom,
		MaxY: t.origin.Y + screenH/t.zoom,
	}
	return r.Inflate(t.padFrac)
}

// SetOrigin moves the viewport. Non-finite origins are rejected.
func (t *Tracker) SetOrigin(p world.Point) error {
	if !p.IsFinite() {
		return ErrInvalidTransform
	}
	if p == t.origin {
		return nil
	}
	t.origin = p
	t.epoch++
	return nil
}

// PanScreen shifts the origin by a screen-space delta: dragging the content
// 100px right at zoom 2 moves the origin 50 world units left.
func (t *Tracker) PanScreen(dx, dy float64) error {
	return t.SetOrigin(t.origin.Add(world.Point{X: dx / t.zoom, Y: dy / t.zoom}))
}

// SetZoom clamps z to the configured range and reports whether the effective
// zoom actually changed. Invalid zoom values are rejected with the previous
// state retained.
func (t *Tracker) SetZoom(z float64) (changed bool, err error) {
	if z <= 0 || math.IsNaN(z) || math.IsInf(z, 0) {
		return false, ErrInvalidTransform
	}
	z = math.Max(t.minZoom, math.Min(t.maxZoom, z))
	if z == t.zoom {
		return false, nil
	}
	t.zoom = z
	t.epoch++
	t.zoomEpoch++
	return true, nil
}

// ZoomAt changes zoom while keeping the world point under the screen-space
// focal point fixed: compute the pre-zoom world position of the focal pixel,
// apply the new zoom, then shift the origin by the drift the zoom introduced.
// Required for both scroll-wheel and pinch gestures.
func (t *Tracker) ZoomAt(focal world.Point, z float64) (changed bool, err error) {
	if !focal.IsFinite() {
		return false, ErrInvalidTransform
	}
	before := t.ScreenToWorld(focal)
	changed, err = t.SetZoom(z)
	if err != nil || !changed {
		return changed, err
	}
	after := t.ScreenToWorld(focal)
	t.origin = t.origin.Add(before.Sub(after))
	return true, nil
}
