// Package raster is the software backend: it paints figures onto an RGBA
// canvas and encodes PNG or TIFF.
package raster

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/tiff"

	"climap/internal/colorscale"
	"climap/internal/failure"
	"climap/internal/geom"
	"climap/internal/render"
)

// Options tune the canvas.
type Options struct {
	Background color.RGBA
	// Crop trims uniform background borders before encoding.
	Crop bool
}

// Canvas implements render.Renderer on an in-memory image.
type Canvas struct {
	opts    Options
	layout  render.Layout
	img     *image.RGBA
	mapRect image.Rectangle
	view    geom.Viewport
	out     image.Image
	faces   map[float64]font.Face
}

// New returns an empty canvas; Begin sizes it.
func New(opts Options) *Canvas {
	if opts.Background.A == 0 {
		opts.Background = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	}
	return &Canvas{opts: opts}
}

// pt converts typographic points to pixels at the layout DPI.
func (c *Canvas) pt(v float64) int { return int(math.Round(v * c.layout.DPI / 72)) }

func (c *Canvas) ptf(v float64) float64 { return v * c.layout.DPI / 72 }

// Begin allocates the page: map area plus margins for the title, frame
// annotations and colorbar.
func (c *Canvas) Begin(l render.Layout) error {
	c.layout = l
	left, right, top, bottom := c.pt(4), c.pt(4), c.pt(4), c.pt(4)
	if len(l.LatTicks) > 0 || len(l.LonTicks) > 0 {
		left, bottom, top = c.pt(40), c.pt(20), c.pt(8)
	}
	if l.Title != "" {
		top += c.pt(22)
	}
	if l.Colorbar {
		right += c.pt(7.2) + c.barWidth() + c.pt(70)
	}
	w, h := l.ImageWidth, l.ImageHeight
	c.mapRect = image.Rect(left, top, left+w, top+h)
	c.img = image.NewRGBA(image.Rect(0, 0, left+w+right, top+h+bottom))
	draw.Draw(c.img, c.img.Bounds(), image.NewUniform(c.opts.Background), image.Point{}, draw.Src)
	c.view = geom.NewViewport(l.Proj, l.Extent, float64(left), float64(top), float64(w), float64(h))
	c.out = nil
	c.faces = nil
	return nil
}

func (c *Canvas) barWidth() int {
	return max(c.pt(6), c.layout.ImageWidth/20)
}

// DrawRaster composites the colorized field into the map area.
func (c *Canvas) DrawRaster(img image.Image) error {
	b := img.Bounds()
	if b.Dx() != c.mapRect.Dx() || b.Dy() != c.mapRect.Dy() {
		draw.ApproxBiLinear.Scale(c.img, c.mapRect, img, b, draw.Over, nil)
		return nil
	}
	draw.Draw(c.img, c.mapRect, img, b.Min, draw.Over)
	return nil
}

// DrawBoundaries fills polygons or strokes lines and polygon rings,
// depending on which of the overlay's colors is set.
func (c *Canvas) DrawBoundaries(ov render.Overlay) error {
	if ov.Fill.A > 0 {
		for _, poly := range ov.Data.Polygons {
			c.fillPolygon(c.project(poly), ov.Fill)
		}
	}
	if ov.Stroke.A == 0 {
		return nil
	}
	width := math.Max(1, c.ptf(ov.Width))
	for _, ln := range ov.Data.Lines {
		c.polyline(c.projectPath(ln), width, ov.Stroke, false)
	}
	for _, poly := range ov.Data.Polygons {
		for _, ring := range c.project(poly) {
			c.polyline(ring, width, ov.Stroke, true)
		}
	}
	for _, p := range ov.Data.Points {
		x, y := c.view.ToPixel(p[0], p[1])
		c.disk(x, y, width, ov.Stroke)
	}
	return nil
}

// DrawMarkers draws one disk per point.
func (c *Canvas) DrawMarkers(pts [][2]float64, m render.Markers) error {
	r := math.Max(0.5, c.ptf(m.Radius))
	for _, p := range pts {
		x, y := c.view.ToPixel(p[0], p[1])
		c.disk(x, y, r, m.Color)
	}
	return nil
}

// DrawLabels centers each label on its position.
func (c *Canvas) DrawLabels(labels []render.Label) error {
	for _, l := range labels {
		x, y := c.view.ToPixel(l.Lon, l.Lat)
		c.text(l.Text, l.Size, int(math.Round(x)), int(math.Round(y)), l.Color, alignCenter)
	}
	return nil
}

// DrawColorbar draws one equal-height box per bin to the right of the map,
// with a label at every bin edge.
func (c *Canvas) DrawColorbar(s *colorscale.Scale, label string) error {
	if !c.layout.Colorbar {
		return nil
	}
	black := color.RGBA{A: 255}
	x0 := c.mapRect.Max.X + c.pt(7.2)
	bar := image.Rect(x0, c.mapRect.Min.Y, x0+c.barWidth(), c.mapRect.Max.Y)
	n := len(s.Bins)
	edgeY := func(k int) int {
		return bar.Max.Y - int(math.Round(float64(k)*float64(bar.Dy())/float64(n)))
	}
	for k, b := range s.Bins {
		box := image.Rect(bar.Min.X, edgeY(k+1), bar.Max.X, edgeY(k))
		draw.Draw(c.img, box, image.NewUniform(b.Color), image.Point{}, draw.Over)
	}
	c.rect(bar, black)

	labels := render.FormatEdges(s.Edges())
	tick := c.pt(3)
	widest := 0
	for k, txt := range labels {
		y := edgeY(k)
		c.hline(bar.Max.X, bar.Max.X+tick, y, black)
		w := c.text(txt, 8, bar.Max.X+tick+c.pt(2), y, black, alignLeft)
		widest = max(widest, w)
	}
	if label != "" {
		x := bar.Max.X + tick + c.pt(2) + widest + c.pt(10)
		c.textVertical(label, 9, x, (bar.Min.Y+bar.Max.Y)/2, black)
	}
	return nil
}

// DrawFrame outlines the map, annotates lon/lat ticks and writes the title.
func (c *Canvas) DrawFrame() error {
	black := color.RGBA{A: 255}
	r := c.mapRect
	if len(c.layout.LonTicks) > 0 || len(c.layout.LatTicks) > 0 {
		c.rect(r, black)
		tick := c.pt(4)
		for _, lon := range c.layout.LonTicks {
			x, _ := c.view.ToPixel(lon, c.layout.Extent.MinY)
			xi := int(math.Round(x))
			c.vline(xi, r.Max.Y, r.Max.Y+tick, black)
			c.text(render.FormatLon(lon), 8, xi, r.Max.Y+tick+c.pt(6), black, alignCenter)
		}
		for _, lat := range c.layout.LatTicks {
			_, y := c.view.ToPixel(c.layout.Extent.MinX, lat)
			yi := int(math.Round(y))
			c.hline(r.Min.X-tick, r.Min.X, yi, black)
			c.text(render.FormatLat(lat), 8, r.Min.X-tick-c.pt(2), yi, black, alignRight)
		}
	}
	if c.layout.Title != "" {
		c.text(c.layout.Title, 12, (r.Min.X+r.Max.X)/2, r.Min.Y-c.pt(14), black, alignCenter)
	}
	return nil
}

// Save encodes the page by path extension.
func (c *Canvas) Save(path string) error {
	if c.img == nil {
		return fmt.Errorf("raster: save before begin: %w", failure.ErrConfig)
	}
	var out image.Image = c.img
	if c.opts.Crop {
		out = c.img.SubImage(contentBounds(c.img, c.opts.Background))
	}
	var encode func(io.Writer) error
	switch format := render.Format(path); format {
	case "png":
		encode = func(w io.Writer) error { return png.Encode(w, out) }
	case "tif", "tiff":
		encode = func(w io.Writer) error {
			return tiff.Encode(w, out, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
		}
	default:
		return fmt.Errorf("raster: cannot encode %q: %w", format, failure.ErrConfig)
	}
	if err := render.WriteAtomic(path, encode); err != nil {
		return err
	}
	c.out = out
	return nil
}

// Preview returns the saved page, or the page so far when not yet saved.
func (c *Canvas) Preview() (image.Image, error) {
	if c.out != nil {
		return c.out, nil
	}
	if c.img == nil {
		return nil, fmt.Errorf("raster: nothing drawn: %w", failure.ErrConfig)
	}
	return c.img, nil
}

// MapRect is the pixel rectangle of the map area on the page.
func (c *Canvas) MapRect() image.Rectangle { return c.mapRect }

// contentBounds is the smallest rectangle holding every pixel that differs
// from bg. A blank page keeps its full bounds.
func contentBounds(img *image.RGBA, bg color.RGBA) image.Rectangle {
	b := img.Bounds()
	minX, minY, maxX, maxY := b.Max.X, b.Max.Y, b.Min.X-1, b.Min.Y-1
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.RGBAAt(x, y) == bg {
				continue
			}
			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)
		}
	}
	if maxX < minX {
		return b
	}
	return image.Rect(minX, minY, maxX+1, maxY+1)
}
