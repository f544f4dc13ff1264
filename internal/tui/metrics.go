package tui

import (
	"fmt"

	table "github.com/charmbracelet/bubbles/table"
)

// refreshMetrics rebuilds the diagnostics table from the engine snapshot.
func (m *Model) refreshMetrics() {
	mt := m.eng.Metrics()
	cols := []table.Column{
		{Title: "metric", Width: 22},
		{Title: "value", Width: 20},
	}
	rows := []table.Row{
		{"state", mt.State.String()},
		{"visible", fmt.Sprintf("%d", mt.VisibleCount)},
		{"total items", fmt.Sprintf("%d", mt.TotalCount)},
		{"query hits", fmt.Sprintf("%d", mt.QueryCount)},
		{"index rejected", fmt.Sprintf("%d", mt.IndexRejected)},
		{"zoom", fmt.Sprintf("%.3fx", mt.Zoom)},
		{"cache entries", fmt.Sprintf("%d/%d", mt.Cache.Entries, mt.Cache.Capacity)},
		{"cache hit rate", fmt.Sprintf("%.1f%%", mt.Cache.HitRate*100)},
		{"cache evictions", fmt.Sprintf("%d", mt.Cache.Evictions)},
		{"last reconcile", mt.LastReconcile.String()},
	}
	m.tbl.SetColumns(cols)
	m.tbl.SetRows(rows)
}
