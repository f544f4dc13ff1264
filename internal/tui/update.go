package tui

import (
	"fmt"
	"math/rand/v2"
	"strings"

	list "github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"cullview/internal/world"
)

const zoomStep = 1.2

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layoutMap()
		if m.showSidebar {
			m.l.SetSize(28-2, m.height-1-2) // provisional; refined in View
		}
	case tickMsg:
		w, h := m.microSize()
		if w > 0 && h > 0 {
			m.eng.Tick(w, h)
		}
		return m, tickCmd()
	case tea.KeyMsg:
		// If list is visible and filtering, send keys to list and ignore global commands
		if m.showSidebar && m.l.FilterState() == list.Filtering {
			var cmd tea.Cmd
			m.l, cmd = m.l.Update(msg)
			return m, cmd
		}
		if m.pasteMode {
			switch msg.String() {
			case "esc":
				m.pasteMode = false
				m.ta.Blur()
				return m, nil
			case "enter":
				w := strings.TrimSpace(m.ta.Value())
				if w == "" {
					m.status = "paste: empty"
					return m, nil
				}
				m.addWKT(w)
				m.pasteMode = false
				m.ta.Blur()
				return m, nil
			}
			var cmd tea.Cmd
			m.ta, cmd = m.ta.Update(msg)
			return m, cmd
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "+", "=":
			m.zoomCenter(zoomStep)
		case "-", "_":
			m.zoomCenter(1 / zoomStep)
		case "up":
			m.pan(0, -microPanStep)
		case "down":
			m.pan(0, microPanStep)
		case "left":
			m.pan(-microPanStep, 0)
		case "right":
			m.pan(microPanStep, 0)
		case "tab":
			m.showSidebar = !m.showSidebar
			m.layoutMap()
			if m.showSidebar {
				m.refreshDir()
				m.l.SetSize(28-2, m.height-1-2)
			}
		case "p":
			m.pasteMode = !m.pasteMode
			if m.pasteMode {
				m.ta.SetValue("")
				m.status = "paste mode"
				m.ta.Focus()
			} else {
				m.status = "view mode"
				m.ta.Blur()
			}
		case "d":
			m.showMetrics = !m.showMetrics
			if m.showMetrics {
				m.refreshMetrics()
			}
		case "h":
			m.helpVisible = !m.helpVisible
		case "g":
			m.generateDemo(20000)
		case "x":
			m.eng.Registry().Clear()
			m.status = "cleared items"
		case "f":
			m.fitView()
		case "enter":
			if m.showSidebar {
				if it, ok := m.l.SelectedItem().(fileItem); ok {
					m.loadPath(it.path)
				}
			}
		}
	case tea.MouseMsg:
		// Wheel zoom about the hovered map pixel.
		if msg.Action == tea.MouseActionPress {
			cx, cy, inside := m.mapCell(msg.X, msg.Y)
			if inside {
				focal := world.Point{X: float64(cx*2 + 1), Y: float64(cy*4 + 2)}
				switch msg.Button {
				case tea.MouseButtonWheelUp:
					m.zoomAt(focal, zoomStep)
				case tea.MouseButtonWheelDown:
					m.zoomAt(focal, 1/zoomStep)
				}
			}
		}
	}
	// Pass messages to list when visible
	if m.showSidebar {
		var cmd tea.Cmd
		m.l, cmd = m.l.Update(msg)
		return m, cmd
	}
	if m.showMetrics {
		m.refreshMetrics()
		var cmd tea.Cmd
		m.tbl, cmd = m.tbl.Update(msg)
		return m, cmd
	}
	return m, nil
}

// microPanStep is how many microgrid pixels one arrow press moves the view
// (one cell height, two cell widths).
const microPanStep = 4

func (m *Model) pan(dx, dy float64) {
	if err := m.eng.Tracker().PanScreen(dx, dy); err != nil {
		m.status = "pan rejected: " + err.Error()
		return
	}
	mt := m.eng.Metrics()
	m.status = fmt.Sprintf("pan  visible %d/%d", mt.VisibleCount, mt.TotalCount)
}

func (m *Model) zoomCenter(factor float64) {
	w, h := m.microSize()
	m.zoomAt(world.Point{X: w / 2, Y: h / 2}, factor)
}

func (m *Model) zoomAt(focal world.Point, factor float64) {
	tr := m.eng.Tracker()
	changed, err := tr.ZoomAt(focal, tr.Zoom()*factor)
	if err != nil {
		m.status = "zoom rejected: " + err.Error()
		return
	}
	if changed {
		m.status = fmt.Sprintf("zoom: %.2fx", tr.Zoom())
	}
}

// layoutMap recomputes the map cell size from the window size and sidebar
// state. The engine ticks against this size between frames, so it lives on
// the model rather than being derived per render.
func (m *Model) layoutMap() {
	sidebarWidth := 0
	if m.showSidebar {
		sidebarWidth = 28
	}
	contentHeight := m.height - 1 - 2
	if contentHeight < 4 {
		contentHeight = 4
	}
	mapWidth := max(10, m.width) - sidebarWidth - 1
	if mapWidth < 10 {
		mapWidth = 10
	}
	m.mapW = max(8, mapWidth)
	m.mapH = max(4, contentHeight)
}

// mapCell translates terminal coordinates into map cell coordinates,
// mirroring the View layout.
func (m Model) mapCell(x, y int) (cx, cy int, inside bool) {
	sidebarWidth := 0
	gap := 0
	if m.showSidebar {
		sidebarWidth = 28
		gap = 1
	}
	const headerHeight = 1
	originX := sidebarWidth + gap
	originY := headerHeight
	cx = x - originX
	cy = y - originY
	return cx, cy, cx >= 0 && cx < m.mapW && cy >= 0 && cy < m.mapH
}

// addWKT parses pasted WKT and appends its vertices as items.
func (m *Model) addWKT(wkt string) {
	pts, err := world.ParseWKT(wkt)
	if err != nil {
		m.status = "wkt error: " + err.Error()
		return
	}
	reg := m.eng.Registry()
	added := 0
	for _, it := range world.ItemsFromPoints(reg, pts, '•', m.markerSize()) {
		if err := reg.Add(it); err == nil {
			added++
		}
	}
	if reg.Len() == added {
		m.fitView()
	}
	m.status = fmt.Sprintf("added %d items from WKT", added)
}

// generateDemo fills the registry with a synthetic scatter: mostly
// clusterable markers plus a sparse layer of pinned, non-clusterable ones.
func (m *Model) generateDemo(n int) {
	reg := m.eng.Registry()
	reg.Clear()
	bounds := world.RectAt(world.Point{}, 4000, 3000)
	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < n; i++ {
		p := world.Point{
			X: bounds.MinX + rng.Float64()*bounds.Width(),
			Y: bounds.MinY + rng.Float64()*bounds.Height(),
		}
		it := world.Item{
			ID:          reg.NextID(),
			Rect:        world.RectAt(p, 2, 2),
			Payload:     world.GlyphPayload('•'),
			Clusterable: true,
		}
		if i%97 == 0 {
			it.Payload = world.GlyphPayload('★')
			it.Clusterable = false
			it.Priority = 10
		}
		if err := reg.Add(it); err != nil {
			m.status = "generate: " + err.Error()
			return
		}
	}
	m.eng.SetBounds(bounds)
	m.fitView()
	m.status = fmt.Sprintf("generated %d items", reg.Len())
}

// fitView sets zoom and origin so the whole registry fits the map area.
func (m *Model) fitView() {
	b, ok := m.eng.Registry().Bounds()
	if !ok || m.mapW <= 0 || m.mapH <= 0 {
		return
	}
	w, h := m.microSize()
	tr := m.eng.Tracker()
	zoom := minf(w/b.Width(), h/b.Height()) * 0.9
	if _, err := tr.SetZoom(zoom); err != nil {
		return
	}
	// center the data
	c := b.Center()
	half := world.Point{X: w / 2 / tr.Zoom(), Y: h / 2 / tr.Zoom()}
	_ = tr.SetOrigin(c.Sub(half))
}

// markerSize picks an item edge length proportional to the data extent so
// pasted points stay visible at fit zoom.
func (m *Model) markerSize() float64 {
	if b, ok := m.eng.Registry().Bounds(); ok {
		if s := maxf(b.Width(), b.Height()) / 400; s > 0 {
			return s
		}
	}
	return world.DefaultMarkerSize
}
