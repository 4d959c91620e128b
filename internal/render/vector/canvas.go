// Package vector is the gonum/plot backend. Figures are assembled as plot
// elements and written as PDF, SVG, EPS or PNG by the matching vg canvas.
package vector

import (
	"fmt"
	"image"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgeps"
	"gonum.org/v1/plot/vg/vgimg"
	"gonum.org/v1/plot/vg/vgpdf"
	"gonum.org/v1/plot/vg/vgsvg"

	"climap/internal/colorscale"
	"climap/internal/failure"
	"climap/internal/geom"
	"climap/internal/render"
)

const (
	colorbarWidth = 1.3 * vg.Inch
	axesPadding   = 0.6 * vg.Inch
	previewDPI    = 96
)

// Canvas implements render.Renderer with gonum/plot.
type Canvas struct {
	layout render.Layout
	extent geom.BBox // projected
	plot   *plot.Plot
	bar    *plot.Plot
	raster *rasterLayer
}

// New returns an empty canvas; Begin sets it up.
func New() *Canvas { return &Canvas{} }

// Begin creates the map plot with fixed projected axes and tick labels.
func (c *Canvas) Begin(l render.Layout) error {
	c.layout = l
	c.extent = l.Projected()
	c.bar = nil
	c.raster = nil

	p := plot.New()
	p.Title.Text = l.Title
	p.X.Padding, p.Y.Padding = 0, 0
	if len(l.LonTicks) == 0 && len(l.LatTicks) == 0 {
		p.HideAxes()
	}
	var xt, yt []plot.Tick
	for _, lon := range l.LonTicks {
		x, _ := l.Proj.Forward(lon, l.Extent.MinY)
		xt = append(xt, plot.Tick{Value: x, Label: render.FormatLon(lon)})
	}
	for _, lat := range l.LatTicks {
		_, y := l.Proj.Forward(l.Extent.MinX, lat)
		yt = append(yt, plot.Tick{Value: y, Label: render.FormatLat(lat)})
	}
	p.X.Tick.Marker = plot.ConstantTicks(xt)
	p.Y.Tick.Marker = plot.ConstantTicks(yt)
	c.plot = p
	return nil
}

// DrawRaster places the colorized field over the projected extent.
func (c *Canvas) DrawRaster(img image.Image) error {
	c.raster = &rasterLayer{img: img, extent: c.extent}
	c.plot.Add(c.raster)
	return nil
}

// DrawBoundaries adds filled polygons or stroked paths in projected units.
func (c *Canvas) DrawBoundaries(ov render.Overlay) error {
	if ov.Fill.A > 0 && len(ov.Data.Polygons) > 0 {
		c.plot.Add(&polygons{polys: c.projectPolys(ov.Data.Polygons), fill: ov.Fill})
	}
	if ov.Stroke.A == 0 {
		return nil
	}
	var lines [][][2]float64
	for _, ln := range ov.Data.Lines {
		lines = append(lines, c.projectPath(ln))
	}
	for _, poly := range c.projectPolys(ov.Data.Polygons) {
		for _, ring := range poly {
			lines = append(lines, append(ring, ring[0]))
		}
	}
	width := ov.Width
	if width <= 0 {
		width = 0.5
	}
	if len(lines) > 0 {
		c.plot.Add(&paths{lines: lines, style: draw.LineStyle{Color: ov.Stroke, Width: vg.Points(width)}})
	}
	if len(ov.Data.Points) > 0 {
		return c.scatter(ov.Data.Points, render.Markers{Radius: width, Color: ov.Stroke})
	}
	return nil
}

// DrawMarkers adds one circle glyph per point.
func (c *Canvas) DrawMarkers(pts [][2]float64, m render.Markers) error {
	if len(pts) == 0 {
		return nil
	}
	return c.scatter(pts, m)
}

func (c *Canvas) scatter(pts [][2]float64, m render.Markers) error {
	xys := make(plotter.XYs, len(pts))
	for i, p := range pts {
		xys[i].X, xys[i].Y = c.layout.Proj.Forward(p[0], p[1])
	}
	s, err := plotter.NewScatter(xys)
	if err != nil {
		return fmt.Errorf("vector: markers: %w", err)
	}
	s.GlyphStyle.Shape = draw.CircleGlyph{}
	s.GlyphStyle.Radius = vg.Points(m.Radius)
	s.GlyphStyle.Color = m.Color
	c.plot.Add(s)
	return nil
}

// DrawLabels adds centered text labels.
func (c *Canvas) DrawLabels(labels []render.Label) error {
	d := plotter.XYLabels{XYs: make(plotter.XYs, len(labels)), Labels: make([]string, len(labels))}
	for i, l := range labels {
		d.XYs[i].X, d.XYs[i].Y = c.layout.Proj.Forward(l.Lon, l.Lat)
		d.Labels[i] = l.Text
	}
	pl, err := plotter.NewLabels(d)
	if err != nil {
		return fmt.Errorf("vector: labels: %w", err)
	}
	for i := range pl.TextStyle {
		pl.TextStyle[i].Color = labels[i].Color
		pl.TextStyle[i].Font.Size = vg.Points(labels[i].Size)
		pl.TextStyle[i].XAlign = draw.XCenter
		pl.TextStyle[i].YAlign = draw.YCenter
	}
	c.plot.Add(pl)
	return nil
}

// DrawColorbar builds a second plot: equal-height boxes, one per bin, with
// the bin edges as tick labels.
func (c *Canvas) DrawColorbar(s *colorscale.Scale, label string) error {
	if !c.layout.Colorbar {
		return nil
	}
	bar := plot.New()
	bar.HideX()
	bar.X.Min, bar.X.Max = 0, 1
	bar.Y.Min, bar.Y.Max = 0, float64(len(s.Bins))
	bar.Y.Padding = 0
	bar.Y.Label.Text = label

	labels := render.FormatEdges(s.Edges())
	ticks := make([]plot.Tick, len(labels))
	for k, l := range labels {
		ticks[k] = plot.Tick{Value: float64(k), Label: l}
	}
	bar.Y.Tick.Marker = plot.ConstantTicks(ticks)

	colors := make([]color.Color, len(s.Bins))
	for k, b := range s.Bins {
		colors[k] = b.Color
	}
	bar.Add(boxes(colors))
	c.bar = bar
	return nil
}

// DrawFrame is a no-op: the plot axes carry the frame set up in Begin.
func (c *Canvas) DrawFrame() error { return nil }

func (c *Canvas) size() (vg.Length, vg.Length) {
	w := vg.Length(c.layout.MapWidth)*vg.Inch + axesPadding
	h := vg.Length(c.layout.MapHeight)*vg.Inch + axesPadding
	if c.bar != nil {
		w += colorbarWidth
	}
	return w, h
}

// paint lays the map plot and the colorbar side by side on dc.
func (c *Canvas) paint(dc draw.Canvas) {
	// data ranges of added plotters would otherwise widen the axes
	e := c.extent
	c.plot.X.Min, c.plot.X.Max = e.MinX, e.MaxX
	c.plot.Y.Min, c.plot.Y.Max = e.MinY, e.MaxY
	if c.bar == nil {
		c.plot.Draw(dc)
		return
	}
	w := dc.Max.X - dc.Min.X
	c.plot.Draw(draw.Crop(dc, 0, -colorbarWidth, 0, 0))
	c.bar.Draw(draw.Crop(dc, w-colorbarWidth+0.5*vg.Inch, 0, 0, 0))
}

func (c *Canvas) setCells(on bool) {
	if c.raster != nil {
		c.raster.cells = on
	}
}

type writerCanvas interface {
	vg.CanvasSizer
	io.WriterTo
}

// Save writes the figure in the format named by the path extension.
func (c *Canvas) Save(path string) error {
	if c.plot == nil {
		return fmt.Errorf("vector: save before begin: %w", failure.ErrConfig)
	}
	w, h := c.size()
	var cnv writerCanvas
	switch format := render.Format(path); format {
	case "pdf":
		cnv = vgpdf.New(w, h)
	case "svg":
		cnv = vgsvg.New(w, h)
	case "eps":
		cnv = vgeps.New(w, h)
	case "png":
		cnv = vgimg.PngCanvas{Canvas: vgimg.NewWith(vgimg.UseWH(w, h), vgimg.UseDPI(int(c.layout.DPI)))}
	default:
		return fmt.Errorf("vector: cannot write %q: %w", format, failure.ErrConfig)
	}
	// vgeps has no image support
	c.setCells(render.Format(path) == "eps")
	c.paint(draw.New(cnv))
	return render.WriteAtomic(path, func(out io.Writer) error {
		_, err := cnv.WriteTo(out)
		return err
	})
}

// Preview rasterizes the figure at screen resolution.
func (c *Canvas) Preview() (image.Image, error) {
	if c.plot == nil {
		return nil, fmt.Errorf("vector: nothing drawn: %w", failure.ErrConfig)
	}
	w, h := c.size()
	img := vgimg.NewWith(vgimg.UseWH(w, h), vgimg.UseDPI(previewDPI))
	c.setCells(false)
	c.paint(draw.New(img))
	return img.Image(), nil
}

func (c *Canvas) projectPath(path [][2]float64) [][2]float64 {
	out := make([][2]float64, len(path))
	for i, p := range path {
		x, y := c.layout.Proj.Forward(p[0], p[1])
		out[i] = [2]float64{x, y}
	}
	return out
}

func (c *Canvas) projectPolys(polys [][][][2]float64) [][][][2]float64 {
	out := make([][][][2]float64, 0, len(polys))
	for _, poly := range polys {
		var rings [][][2]float64
		for _, r := range poly {
			if len(r) >= 3 {
				rings = append(rings, c.projectPath(r))
			}
		}
		if len(rings) > 0 {
			out = append(out, rings)
		}
	}
	return out
}
