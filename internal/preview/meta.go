package preview

import (
	table "github.com/charmbracelet/bubbles/table"
)

// refreshMeta loads the selected figure's metadata into the table.
func (m *Model) refreshMeta() {
	if len(m.figs) == 0 {
		return
	}
	meta := m.figs[m.sel].Meta
	keyW, valW := len("field"), len("value")
	rows := make([]table.Row, 0, len(meta))
	for _, kv := range meta {
		keyW = max(keyW, len(kv[0]))
		valW = max(valW, len(kv[1]))
		rows = append(rows, table.Row{kv[0], kv[1]})
	}
	// clear rows first so the column change never sees a stale row width
	m.tbl.SetRows(nil)
	m.tbl.SetColumns([]table.Column{
		{Title: "field", Width: keyW + 2},
		{Title: "value", Width: min(valW+2, 48)},
	})
	m.tbl.SetRows(rows)
}
