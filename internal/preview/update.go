package preview

import (
	"fmt"
	"math"

	"github.com/charmbracelet/bubbles/key"
	list "github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.l.SetSize(sidebarWidth-2, m.mapArea().h-2)
	case tea.KeyMsg:
		// a filtering list owns the keyboard
		if m.showSidebar && m.l.FilterState() == list.Filtering {
			var cmd tea.Cmd
			m.l, cmd = m.l.Update(msg)
			return m, cmd
		}
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.ZoomIn):
			if m.zoom < maxZoom {
				m.zoom *= 1.2
				m.status = fmt.Sprintf("zoom: %.2fx", m.zoom)
			}
		case key.Matches(msg, m.keys.ZoomOut):
			if m.zoom > minZoom {
				m.zoom /= 1.2
				m.status = fmt.Sprintf("zoom: %.2fx", m.zoom)
			}
		case key.Matches(msg, m.keys.Reset):
			m.zoom = 1
			m.offsetX, m.offsetY = 0, 0
			m.status = "view reset"
		case key.Matches(msg, m.keys.Next) && len(m.figs) > 0:
			m.selectFigure((m.sel + 1) % len(m.figs))
		case key.Matches(msg, m.keys.Prev) && len(m.figs) > 0:
			m.selectFigure((m.sel + len(m.figs) - 1) % len(m.figs))
		case key.Matches(msg, m.keys.Sidebar):
			m.showSidebar = !m.showSidebar
			m.l.SetSize(sidebarWidth-2, m.mapArea().h-2)
		case key.Matches(msg, m.keys.Open):
			if m.showSidebar {
				if it, ok := m.l.SelectedItem().(figureItem); ok {
					m.selectFigure(it.index)
				}
				return m, nil
			}
		case key.Matches(msg, m.keys.Outline):
			m.outline = !m.outline
			m.status = "image view"
			if m.outline {
				m.status = "outline view"
			}
		case key.Matches(msg, m.keys.Meta):
			m.showMeta = !m.showMeta
			if m.showMeta {
				m.refreshMeta()
			}
		case key.Matches(msg, m.keys.Help):
			m.helpVisible = !m.helpVisible
		case key.Matches(msg, m.keys.Up):
			m.offsetY++
		case key.Matches(msg, m.keys.Down):
			m.offsetY--
		case key.Matches(msg, m.keys.Left):
			m.offsetX += 2
		case key.Matches(msg, m.keys.Right):
			m.offsetX -= 2
		}
		if m.showMeta {
			var cmd tea.Cmd
			m.tbl, cmd = m.tbl.Update(msg)
			return m, cmd
		}
	case tea.MouseMsg:
		m.hover(msg.X, msg.Y)
	}
	if m.showSidebar {
		var cmd tea.Cmd
		m.l, cmd = m.l.Update(msg)
		return m, cmd
	}
	return m, nil
}

// hover updates the footer readout for the screen cell under the mouse.
func (m *Model) hover(x, y int) {
	m.hoverHasGeo, m.hoverHasValue = false, false
	if len(m.figs) == 0 || m.showMeta {
		return
	}
	a := m.mapArea()
	cx, cy := x-a.x, y-a.y
	if cx < 0 || cx >= a.w || cy < 0 || cy >= a.h {
		return
	}
	f := m.figs[m.sel]
	var lon, lat float64
	var ok bool
	if m.outline || f.Image == nil {
		lon, lat, ok = m.cellToLonLat(f, cx, cy, a.w, a.h)
	} else {
		lon, lat, ok = m.imageLonLat(f, cx, cy, a.w, a.h)
	}
	if !ok {
		return
	}
	m.hoverHasGeo, m.hoverLon, m.hoverLat = true, lon, lat
	if m.loc == nil {
		return
	}
	if i, j, ok := m.loc.Cell(lon, lat); ok {
		if v := f.Field.At(i, j); !math.IsNaN(v) {
			m.hoverHasValue, m.hoverValue = true, v
		}
	}
}
