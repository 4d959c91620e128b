package preview

import (
	"fmt"
	"image"
	"path/filepath"

	list "github.com/charmbracelet/bubbles/list"

	"climap/internal/geom"
	"climap/internal/grid"
	"climap/internal/render"
)

// Figure is one rendered map as the display sees it.
type Figure struct {
	Name   string
	Output string
	Image  image.Image
	// MapRect is the map area inside Image; empty when the backend does not
	// report it, which disables hover readout over the image.
	MapRect  image.Rectangle
	Extent   geom.BBox
	Proj     geom.Projection
	Field    *grid.Field
	Overlays []render.Overlay
	Markers  [][2]float64
	Meta     [][2]string
}

// FromResult collects what the display needs from a finished render.
func FromResult(name, backend string, res render.Result) (Figure, error) {
	fig := Figure{
		Name:     name,
		Output:   res.Output,
		Extent:   res.Extent,
		Proj:     res.Layout.Proj,
		Field:    res.Field,
		Overlays: res.Overlays,
	}
	if fig.Proj == nil {
		fig.Proj = geom.PlateCarree{}
	}
	if p, ok := res.Renderer.(render.Previewer); ok {
		img, err := p.Preview()
		if err != nil {
			return fig, fmt.Errorf("preview %s: %w", name, err)
		}
		fig.Image = img
	}
	if r, ok := res.Renderer.(interface{ MapRect() image.Rectangle }); ok {
		fig.MapRect = r.MapRect()
	}
	if res.Mask != nil {
		fig.Markers = res.Mask.Points()
	}
	fig.Meta = metaRows(backend, res)
	return fig, nil
}

func metaRows(backend string, res render.Result) [][2]string {
	rows := [][2]string{{"output", res.Output}, {"backend", backend}}
	if f := res.Field; f != nil {
		name, units := f.Name, f.Units
		if name == "" {
			name = "-"
		}
		if units == "" {
			units = "-"
		}
		rows = append(rows, [2]string{"variable", name}, [2]string{"units", units})
	}
	return append(rows,
		[2]string{"region", res.Extent.String()},
		[2]string{"grid", fmt.Sprintf("%d x %d", res.Columns, res.Rows)},
		[2]string{"min", fmt.Sprintf("%.4g", res.Min)},
		[2]string{"max", fmt.Sprintf("%.4g", res.Max)},
		[2]string{"valid cells", fmt.Sprintf("%d", res.Valid)},
		[2]string{"flagged cells", fmt.Sprintf("%d", res.Flagged)},
		[2]string{"overlays", fmt.Sprintf("%d", len(res.Overlays))},
		[2]string{"labels", fmt.Sprintf("%d", len(res.Labels))},
	)
}

type figureItem struct {
	title, desc string
	index       int
}

func (f figureItem) Title() string       { return f.title }
func (f figureItem) Description() string { return f.desc }
func (f figureItem) FilterValue() string { return f.title }

func (m *Model) refreshList() {
	items := make([]list.Item, len(m.figs))
	for i, f := range m.figs {
		items[i] = figureItem{title: f.Name, desc: filepath.Base(f.Output), index: i}
	}
	m.l.SetItems(items)
}

// selectFigure switches the display to figure i and resets the viewport.
func (m *Model) selectFigure(i int) {
	if i < 0 || i >= len(m.figs) {
		return
	}
	m.sel = i
	m.zoom = 1
	m.offsetX, m.offsetY = 0, 0
	m.hoverHasGeo = false
	m.loc = nil
	f := m.figs[i]
	if f.Field != nil {
		m.loc = grid.NewLocator(f.Field)
	}
	m.refreshMeta()
	m.status = fmt.Sprintf("%s  %s", f.Name, filepath.Base(f.Output))
}
