package tui

import (
	"fmt"
	"strings"

	"cullview/internal/cache"
	"cullview/internal/reconcile"
)

const clusterGlyph = '⬢'

// picture is the cached artifact for one visible entry: the pre-styled label
// placed on the canvas. Releasing a string needs no work, but the method is
// what lets the cache dispose of heavier artifacts deterministically.
type picture struct {
	label string
}

func (p *picture) Release() error { return nil }

// rasterize produces the artifact the engine caches per entry and transform
// epoch. Styling runs once per zoom level instead of once per frame.
func rasterize(en *reconcile.Entry) cache.Artifact {
	if en.Count > 1 {
		return &picture{label: clusterStyle.Render(fmt.Sprintf("%c%d", clusterGlyph, en.Count))}
	}
	g := '•'
	if st, ok := en.State.(*markerState); ok {
		g = st.glyph
	} else if en.Payload != nil {
		g = en.Payload.Glyph()
	}
	return &picture{label: string(g)}
}

// label is a text overlay anchored at a cell coordinate.
type label struct {
	x, y int
	text string
	raw  int // printable width in cells
}

// renderCanvas draws the engine's visible set onto a braille microgrid with
// text overlays for clusters and pinned markers.
func (m Model) renderCanvas(w, h int) string {
	cv := newCanvas(w, h)
	var labels []label

	for _, en := range m.eng.Visible() {
		r := en.ScreenRect
		c := r.Center()
		switch {
		case en.Count > 1:
			// Collapsed cluster: dot plus count badge.
			cv.setPixel(int(c.X), int(c.Y))
			text, width := m.pictureLabel(en, fmt.Sprintf("%c%d", clusterGlyph, en.Count))
			labels = append(labels, label{x: int(c.X) / 2, y: int(c.Y) / 4, text: text, raw: width})
		case r.Width() >= 4 || r.Height() >= 8:
			// Big enough to show extent: outline the rect.
			cv.strokeRect(r)
		default:
			cv.setPixel(int(c.X), int(c.Y))
			if st, ok := en.State.(*markerState); ok && st.glyph != '•' {
				text, width := m.pictureLabel(en, string(st.glyph))
				labels = append(labels, label{x: int(c.X) / 2, y: int(c.Y) / 4, text: text, raw: width})
			}
		}
	}

	lines := cv.toLines()
	for _, lb := range labels {
		if lb.y < 0 || lb.y >= len(lines) {
			continue
		}
		lines[lb.y] = overlay(lines[lb.y], lb.x, lb.text, lb.raw)
	}
	return strings.Join(lines, "\n")
}

// pictureLabel prefers the engine's cached artifact and falls back to the
// plain text when the cache has not been warmed yet.
func (m Model) pictureLabel(en *reconcile.Entry, fallback string) (string, int) {
	width := len([]rune(fallback))
	if a, ok := m.eng.Picture(en.ID); ok {
		if p, ok := a.(*picture); ok {
			return p.label, width
		}
	}
	return fallback, width
}

// overlay splices text into a canvas row at cell x, consuming width cells.
// The inserted string may carry ANSI styling; the consumed cells are plain.
func overlay(line string, x int, text string, width int) string {
	r := []rune(line)
	if x < 0 || x >= len(r) || width <= 0 {
		return line
	}
	end := min(x+width, len(r))
	return string(r[:x]) + text + string(r[end:])
}
