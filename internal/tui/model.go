package tui

import (
	"os"
	"time"

	list "github.com/charmbracelet/bubbles/list"
	table "github.com/charmbracelet/bubbles/table"
	textarea "github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"cullview/internal/engine"
	"cullview/internal/reconcile"
)

// frameInterval is the host frame clock driving engine ticks.
const frameInterval = 33 * time.Millisecond

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

type Model struct {
	width  int
	height int

	showSidebar bool
	helpVisible bool

	status string

	eng *engine.Engine

	// File explorer
	cwd     string
	l       list.Model
	selPath string

	// paste mode
	pasteMode bool
	ta        textarea.Model

	// metrics panel
	showMetrics bool
	tbl         table.Model

	// last rendered map size in cells
	mapW int
	mapH int
}

// markerState is the render state handle attached to a visible entry on
// mount. It survives pans that keep the entry on screen, which is what makes
// the mount timestamp meaningful.
type markerState struct {
	glyph     rune
	mountedAt time.Time
}

func mountMarker(t reconcile.Target) any {
	g := clusterGlyph
	if t.Count <= 1 && t.Payload != nil {
		g = t.Payload.Glyph()
	}
	return &markerState{glyph: g, mountedAt: time.Now()}
}

func New(cfg *engine.Config) Model {
	m := Model{
		helpVisible: true,
		status:      "cullview ready  (g generates a demo set)",
	}
	m.eng = engine.New(cfg, mountMarker, nil)
	m.eng.Rasterize = rasterize
	m.cwd, _ = os.Getwd()
	// list setup
	d := list.NewDefaultDelegate()
	d.ShowDescription = false
	m.l = list.New(nil, d, 0, 0)
	m.l.Title = "Datasets"
	m.l.SetShowHelp(false)
	m.l.SetShowStatusBar(false)
	m.l.SetFilteringEnabled(true)
	// textarea setup
	m.ta = textarea.New()
	m.ta.Placeholder = "Paste WKT here (POINT, MULTIPOINT, LINESTRING, POLYGON). Press Enter to add items; Esc to cancel."
	m.ta.CharLimit = 0
	m.ta.SetWidth(50)
	m.ta.SetHeight(6)
	// metrics table setup
	m.tbl = table.New(table.WithFocused(true))
	m.tbl.SetHeight(14)
	m.refreshDir()
	return m
}

// NewWithPath preloads a dataset at launch.
func NewWithPath(path string, cfg *engine.Config) Model {
	m := New(cfg)
	m.loadPath(path)
	return m
}

func (m Model) Init() tea.Cmd { return tickCmd() }

// microSize returns the engine screen size: the braille microgrid is 2x4
// pixels per terminal cell.
func (m Model) microSize() (float64, float64) {
	return float64(m.mapW * 2), float64(m.mapH * 4)
}
