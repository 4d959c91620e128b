package vector

import (
	"image"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"climap/internal/geom"
)

// rasterLayer places the colorized field over its projected extent, either as
// one image or, when cells is set, as filled rectangles per run of equal
// pixels for canvases that cannot draw images.
type rasterLayer struct {
	img    image.Image
	extent geom.BBox
	cells  bool
}

func (r *rasterLayer) Plot(c draw.Canvas, plt *plot.Plot) {
	e := r.extent
	if !r.cells {
		plotter.NewImage(r.img, e.MinX, e.MinY, e.MaxX, e.MaxY).Plot(c, plt)
		return
	}
	trX, trY := plt.Transforms(&c)
	b := r.img.Bounds()
	if b.Empty() {
		return
	}
	dx := (e.MaxX - e.MinX) / float64(b.Dx())
	dy := (e.MaxY - e.MinY) / float64(b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		top := e.MaxY - float64(y-b.Min.Y)*dy
		y0, y1 := trY(top-dy), trY(top)
		for x := b.Min.X; x < b.Max.X; {
			col := color.RGBAModel.Convert(r.img.At(x, y)).(color.RGBA)
			end := x + 1
			for end < b.Max.X && color.RGBAModel.Convert(r.img.At(end, y)).(color.RGBA) == col {
				end++
			}
			if col.A > 0 {
				x0 := trX(e.MinX + float64(x-b.Min.X)*dx)
				x1 := trX(e.MinX + float64(end-b.Min.X)*dx)
				c.FillPolygon(col, []vg.Point{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}})
			}
			x = end
		}
	}
}

// polygons fills rings in data coordinates. All rings of a polygon go into
// one path so opposite-wound holes stay open.
type polygons struct {
	polys [][][][2]float64
	fill  color.Color
}

func (pg *polygons) Plot(c draw.Canvas, plt *plot.Plot) {
	trX, trY := plt.Transforms(&c)
	c.SetColor(pg.fill)
	for _, poly := range pg.polys {
		var path vg.Path
		for _, ring := range poly {
			for i, p := range ring {
				pt := vg.Point{X: trX(p[0]), Y: trY(p[1])}
				if i == 0 {
					path.Move(pt)
				} else {
					path.Line(pt)
				}
			}
			path.Close()
		}
		c.Fill(path)
	}
}

// paths strokes polylines in data coordinates.
type paths struct {
	lines [][][2]float64
	style draw.LineStyle
}

func (ps *paths) Plot(c draw.Canvas, plt *plot.Plot) {
	trX, trY := plt.Transforms(&c)
	for _, ln := range ps.lines {
		pts := make([]vg.Point, len(ln))
		for i, p := range ln {
			pts[i] = vg.Point{X: trX(p[0]), Y: trY(p[1])}
		}
		c.StrokeLines(ps.style, pts)
	}
}

// boxes draws colorbar bins as unit-height rectangles stacked from y=0.
type boxes []color.Color

func (b boxes) Plot(c draw.Canvas, plt *plot.Plot) {
	trX, trY := plt.Transforms(&c)
	outline := draw.LineStyle{Color: color.Black, Width: vg.Points(0.5)}
	for k, col := range b {
		y0, y1 := trY(float64(k)), trY(float64(k+1))
		pts := []vg.Point{{X: trX(0), Y: y0}, {X: trX(1), Y: y0}, {X: trX(1), Y: y1}, {X: trX(0), Y: y1}}
		c.FillPolygon(col, pts)
		c.StrokeLines(outline, append(pts, pts[0]))
	}
}
