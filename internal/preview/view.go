package preview

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

func (m Model) View() string {
	if m.width == 0 || m.height == 0 || len(m.figs) == 0 {
		return ""
	}
	a := m.mapArea()
	contentWidth := max(10, m.width)
	f := m.figs[m.sel]

	header := titleStyle.Render(" climap ─ " + f.Name + " ")
	header = lipgloss.NewStyle().Width(contentWidth).Render(header)

	var mapView string
	switch {
	case m.showMeta:
		m.tbl.SetHeight(min(a.h-2, len(f.Meta)+1))
		box := boxStyle.Render(m.tbl.View())
		mapView = lipgloss.Place(a.w, a.h, lipgloss.Center, lipgloss.Center, box)
	case m.outline || f.Image == nil:
		mapView = lipgloss.NewStyle().Width(a.w).Height(a.h).Render(m.renderOutline(f, a.w, a.h))
	default:
		mapView = lipgloss.NewStyle().Width(a.w).Height(a.h).Render(m.renderImage(f.Image, a.w, a.h))
	}

	body := mapView
	if m.showSidebar {
		sidebar := lipgloss.NewStyle().Width(sidebarWidth).Render(m.l.View())
		body = lipgloss.JoinHorizontal(lipgloss.Top, sidebar, " ", mapView)
	}

	status := dimStyle.Render(" " + m.status + " ")
	help := ""
	if m.helpVisible {
		help = "  " + m.help.ShortHelpView(m.keys.ShortHelp())
	}
	coords := ""
	if m.hoverHasGeo {
		coords = fmt.Sprintf("  lon=%.3f lat=%.3f", m.hoverLon, m.hoverLat)
		if m.hoverHasValue {
			coords += fmt.Sprintf("  value=%.4g", m.hoverValue)
		}
		coords = dimStyle.Render(coords + "  ")
	}
	left := lipgloss.JoinHorizontal(lipgloss.Bottom, status, help)
	spacerW := max(0, contentWidth-lipgloss.Width(left)-lipgloss.Width(coords))
	right := lipgloss.Place(spacerW+lipgloss.Width(coords), 1, lipgloss.Right, lipgloss.Center, coords)
	footer := lipgloss.NewStyle().Width(contentWidth).Render(lipgloss.JoinHorizontal(lipgloss.Bottom, left, right))

	ui := lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
	return appStyle.Width(contentWidth).Height(m.height).Render(ui)
}
