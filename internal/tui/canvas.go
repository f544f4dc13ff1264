package tui

import "cullview/internal/world"

// canvas is a braille microgrid: each terminal cell holds a 2x4 pixel block
// encoded in one braille rune. Visible entries draw onto it in engine screen
// space, which is micro-pixel space.
type canvas struct {
	w, h int       // in cells
	m    [][]uint8 // per-cell 8-bit mask
}

func newCanvas(w, h int) *canvas {
	m := make([][]uint8, h)
	for i := range m {
		m[i] = make([]uint8, w)
	}
	return &canvas{w: w, h: h, m: m}
}

// setPixel sets a micro-pixel at micro coords (2x4 per cell)
func (cv *canvas) setPixel(mx, my int) {
	if mx < 0 || my < 0 {
		return
	}
	cx, rx := mx/2, mx%2
	cy, ry := my/4, my%4
	if cy >= cv.h || cx >= cv.w {
		return
	}
	var bit uint8
	if rx == 0 {
		switch ry {
		case 0:
			bit = 0x01
		case 1:
			bit = 0x02
		case 2:
			bit = 0x04
		case 3:
			bit = 0x40
		}
	} else {
		switch ry {
		case 0:
			bit = 0x08
		case 1:
			bit = 0x10
		case 2:
			bit = 0x20
		case 3:
			bit = 0x80
		}
	}
	cv.m[cy][cx] |= bit
}

// line draws on the microgrid using Bresenham. Endpoints far off-canvas are
// fine; setPixel clips per pixel.
func (cv *canvas) line(x0, y0, x1, y1 int) {
	dx := abs(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -abs(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		cv.setPixel(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// strokeRect outlines an entry's screen rect. Edge spans are clamped to the
// canvas so a deeply zoomed rect costs at most one canvas perimeter, and
// edges entirely off-canvas are skipped.
func (cv *canvas) strokeRect(r world.Rect) {
	mw, mh := cv.w*2, cv.h*4
	x0, y0 := int(r.MinX), int(r.MinY)
	x1, y1 := int(r.MaxX), int(r.MaxY)
	cx0, cx1 := clamp(x0, 0, mw-1), clamp(x1, 0, mw-1)
	cy0, cy1 := clamp(y0, 0, mh-1), clamp(y1, 0, mh-1)
	if y0 >= 0 && y0 < mh {
		cv.line(cx0, y0, cx1, y0)
	}
	if y1 >= 0 && y1 < mh {
		cv.line(cx0, y1, cx1, y1)
	}
	if x0 >= 0 && x0 < mw {
		cv.line(x0, cy0, x0, cy1)
	}
	if x1 >= 0 && x1 < mw {
		cv.line(x1, cy0, x1, cy1)
	}
}

func (cv *canvas) toLines() []string {
	out := make([]string, cv.h)
	for y := 0; y < cv.h; y++ {
		row := make([]rune, cv.w)
		for x := 0; x < cv.w; x++ {
			mask := cv.m[y][x]
			if mask == 0 {
				row[x] = ' '
			} else {
				row[x] = rune(0x2800 + int(mask))
			}
		}
		out[y] = string(row)
	}
	return out
}
