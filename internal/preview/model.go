// Package preview is the interactive terminal display of rendered figures.
package preview

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/help"
	list "github.com/charmbracelet/bubbles/list"
	table "github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"climap/internal/grid"
)

const (
	sidebarWidth = 28
	headerHeight = 1
	footerHeight = 2
	maxZoom      = 64
	minZoom      = 0.25
)

type Model struct {
	width  int
	height int

	showSidebar bool
	helpVisible bool
	outline     bool

	zoom    float64
	offsetX int
	offsetY int

	status string

	figs []Figure
	sel  int
	l    list.Model
	loc  *grid.Locator

	keys keyMap
	help help.Model

	// hover state
	hoverHasGeo   bool
	hoverLon      float64
	hoverLat      float64
	hoverHasValue bool
	hoverValue    float64

	showMeta bool
	tbl      table.Model
}

// New builds the display over figs, showing the first one.
func New(figs []Figure) Model {
	m := Model{
		helpVisible: true,
		zoom:        1.0,
		status:      "climap preview",
		figs:        figs,
		keys:        defaultKeys(),
		help:        help.New(),
	}
	d := list.NewDefaultDelegate()
	m.l = list.New(nil, d, 0, 0)
	m.l.Title = "Figures"
	m.l.SetShowHelp(false)
	m.l.SetShowStatusBar(false)
	m.l.SetFilteringEnabled(true)
	m.tbl = table.New(table.WithFocused(true))
	m.tbl.SetHeight(12)
	m.refreshList()
	m.selectFigure(0)
	return m
}

func (m Model) Init() tea.Cmd { return nil }

// Run shows figs until the user quits or ctx is done.
func Run(ctx context.Context, figs []Figure) error {
	if len(figs) == 0 {
		return errors.New("preview: no figures")
	}
	p := tea.NewProgram(New(figs), tea.WithAltScreen(), tea.WithMouseAllMotion(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// area is the map viewport in screen cells.
type area struct {
	x, y, w, h int
}

func (m Model) mapArea() area {
	contentHeight := max(4, m.height-headerHeight-footerHeight)
	contentWidth := max(10, m.width)
	a := area{y: headerHeight, w: contentWidth, h: contentHeight}
	if m.showSidebar {
		a.x = sidebarWidth + 1
		a.w = contentWidth - sidebarWidth - 1
	}
	a.w = max(10, a.w)
	return a
}
