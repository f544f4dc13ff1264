package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	list "github.com/charmbracelet/bubbles/list"

	"cullview/internal/world"
)

// file explorer helpers
type fileItem struct {
	title, desc string
	path        string
}

func (f fileItem) Title() string       { return f.title }
func (f fileItem) Description() string { return f.desc }
func (f fileItem) FilterValue() string { return f.title }

func (m *Model) refreshDir() {
	entries, err := os.ReadDir(m.cwd)
	if err != nil {
		m.status = "read dir error: " + err.Error()
		return
	}
	var items []list.Item
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext == ".geojson" || ext == ".json" || ext == ".csv" || ext == ".kml" || ext == ".wkt" {
			items = append(items, fileItem{title: name, desc: ext, path: filepath.Join(m.cwd, name)})
		}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].(fileItem).Title() < items[j].(fileItem).Title() })
	m.l.SetItems(items)
	if len(items) == 0 {
		m.status = "no supported datasets in current directory"
	}
}

// loadPath replaces the registry contents with a dataset file.
func (m *Model) loadPath(p string) {
	var pts []world.Point
	var err error
	ext := strings.ToLower(filepath.Ext(p))
	switch ext {
	case ".geojson", ".json":
		pts, err = world.LoadGeoJSON(p)
	case ".csv":
		pts, err = world.LoadCSV(p)
	case ".kml":
		pts, err = world.LoadKML(p)
	case ".wkt":
		var data []byte
		if data, err = os.ReadFile(p); err == nil {
			pts, err = world.ParseWKT(string(data))
		}
	default:
		m.status = "unsupported file: " + ext
		return
	}
	if err != nil {
		m.status = "load error: " + err.Error()
		return
	}

	bounds, _ := world.DataBounds(pts)
	size := maxf(bounds.Width(), bounds.Height()) / 400
	reg := m.eng.Registry()
	reg.Clear()
	added := 0
	for _, it := range world.ItemsFromPoints(reg, pts, '•', size) {
		if e := reg.Add(it); e == nil {
			added++
		}
	}
	b, _ := reg.Bounds()
	m.eng.SetBounds(b)
	m.selPath = p
	m.fitView()
	m.status = fmt.Sprintf("loaded %s: %d items", filepath.Base(p), added)
}
