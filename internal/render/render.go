// Package render turns a gridded field, a color scale and optional overlays
// into one map image. Render drives a Renderer backend through a fixed draw
// order; the backends in render/raster and render/vector decide how pixels or
// vector paths reach the output file.
package render

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"

	"climap/internal/colorscale"
	"climap/internal/failure"
	"climap/internal/geom"
	"climap/internal/grid"
)

// Label is a text annotation centered on a lon/lat position.
type Label struct {
	Text     string
	Lon, Lat float64
	Size     float64 // points
	Color    color.RGBA
}

// Overlay is one boundary layer. A zero Fill alpha draws outlines only; a
// zero Stroke alpha draws fills only.
type Overlay struct {
	Name   string
	Data   geom.Data
	Stroke color.RGBA
	Fill   color.RGBA
	Width  float64 // points
	// MinAreaKm2 skips polygons smaller than this; zero keeps all.
	MinAreaKm2 float64
}

// Shading darkens or brightens raster cells by hillshade illumination.
type Shading struct {
	Azimuth   float64 // degrees clockwise from north
	Altitude  float64 // degrees above the horizon
	ZFactor   float64 // vertical units per horizontal coordinate unit
	Intensity float64 // 0 disables, 1 is full strength
}

// Markers styles the dots drawn at flagged mask cells.
type Markers struct {
	Radius float64 // points
	Color  color.RGBA
}

// Request describes one figure.
type Request struct {
	Field  *grid.Field
	Bounds geom.BBox
	Scale  *colorscale.Scale
	// Mask is optional; when set it must share the field's grid.
	Mask     *grid.Mask
	Markers  Markers
	Overlays []Overlay
	Labels   []Label

	Title         string
	ColorbarLabel string
	Projection    geom.Projection
	Shading       *Shading
	// Frame draws lon/lat tick annotations around the map.
	Frame bool

	Output   string
	DPI      float64
	MapWidth float64 // inches
}

// Defaults applied by Render when a Request leaves them zero.
const (
	DefaultDPI          = 300
	DefaultMapWidth     = 6
	DefaultMarkerRadius = 0.5
	DefaultLabelSize    = 10
)

// Layout is the geometry a backend needs before drawing.
type Layout struct {
	Extent      geom.BBox // lon/lat
	Proj        geom.Projection
	DPI         float64
	MapWidth    float64 // inches
	MapHeight   float64 // inches
	Title       string
	Colorbar    bool
	LonTicks    []float64
	LatTicks    []float64
	ImageWidth  int // raster layer size in pixels
	ImageHeight int
}

// Projected is the extent in projection units.
func (l Layout) Projected() geom.BBox { return geom.ProjectBBox(l.Proj, l.Extent) }

// Renderer is a drawing backend. Render calls Begin once, then the Draw
// methods in map order, then Save.
type Renderer interface {
	Begin(l Layout) error
	// DrawRaster paints the colorized field. img spans the layout extent,
	// north up, ImageWidth x ImageHeight pixels.
	DrawRaster(img image.Image) error
	DrawBoundaries(ov Overlay) error
	DrawMarkers(pts [][2]float64, style Markers) error
	DrawLabels(labels []Label) error
	DrawColorbar(s *colorscale.Scale, label string) error
	DrawFrame() error
	Save(path string) error
}

// Previewer is implemented by backends that can hand the finished figure to
// the interactive display.
type Previewer interface {
	Preview() (image.Image, error)
}

// Result summarizes a rendered figure.
type Result struct {
	Output   string
	Extent   geom.BBox
	Columns  int
	Rows     int
	Min, Max float64
	Valid    int
	Flagged  int
	Overlays []Overlay // clipped to the region
	Labels   []Label   // inside the region
	Field    *grid.Field
	Mask     *grid.Mask
	Layout   Layout
	Renderer Renderer
}

// Render draws req with r and writes req.Output. Nothing is written when the
// request fails validation or the region selects no data.
func Render(ctx context.Context, r Renderer, req Request) (Result, error) {
	if err := req.validate(); err != nil {
		return Result{}, err
	}
	if err := req.Bounds.Validate(); err != nil {
		return Result{}, fmt.Errorf("render: %v: %w", err, failure.ErrConfig)
	}
	if !req.Bounds.Intersects(req.Field.Extent()) {
		return Result{}, fmt.Errorf("render: region %s does not intersect field extent %s: %w",
			req.Bounds, req.Field.Extent(), failure.ErrDomain)
	}

	field, err := req.Field.Subset(req.Bounds)
	if err != nil {
		return Result{}, fmt.Errorf("render: %w", err)
	}
	var mask *grid.Mask
	if req.Mask != nil {
		if !req.Field.SameGrid(req.Mask.Lon, req.Mask.Lat) {
			return Result{}, fmt.Errorf("render: mask grid does not match field grid: %w", failure.ErrConfig)
		}
		if mask, err = req.Mask.Subset(req.Bounds); err != nil {
			return Result{}, fmt.Errorf("render: mask: %w", err)
		}
	}
	req.applyDefaults()
	layout := NewLayout(req)
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	if err := r.Begin(layout); err != nil {
		return Result{}, fmt.Errorf("render: begin: %w", err)
	}
	var shade []float64
	if s := req.Shading; s != nil && s.Intensity > 0 {
		shade = grid.Hillshade(field, s.Azimuth, s.Altitude, s.ZFactor)
	}
	if err := r.DrawRaster(Colorize(field, req.Scale, layout, shade, req.Shading)); err != nil {
		return Result{}, fmt.Errorf("render: raster: %w", err)
	}

	overlays := prepareOverlays(req.Overlays, req.Bounds)
	// fills first so outlines of earlier layers stay visible
	for _, ov := range overlays {
		if ov.Fill.A > 0 {
			if err := r.DrawBoundaries(Overlay{Name: ov.Name, Data: ov.Data, Fill: ov.Fill}); err != nil {
				return Result{}, fmt.Errorf("render: overlay %s: %w", ov.Name, err)
			}
		}
	}
	for _, ov := range overlays {
		if ov.Stroke.A > 0 {
			if err := r.DrawBoundaries(Overlay{Name: ov.Name, Data: ov.Data, Stroke: ov.Stroke, Width: ov.Width}); err != nil {
				return Result{}, fmt.Errorf("render: overlay %s: %w", ov.Name, err)
			}
		}
	}

	res := Result{
		Output:   req.Output,
		Extent:   req.Bounds,
		Columns:  len(field.Lon),
		Rows:     len(field.Lat),
		Overlays: overlays,
		Field:    field,
		Mask:     mask,
		Layout:   layout,
		Renderer: r,
	}
	res.Min, res.Max, res.Valid = field.Stats()

	if mask != nil {
		pts := mask.Points()
		res.Flagged = len(pts)
		if err := r.DrawMarkers(pts, req.Markers); err != nil {
			return Result{}, fmt.Errorf("render: markers: %w", err)
		}
	}

	labels := visibleLabels(req.Labels, req.Bounds)
	res.Labels = labels
	if len(labels) > 0 {
		if err := r.DrawLabels(labels); err != nil {
			return Result{}, fmt.Errorf("render: labels: %w", err)
		}
	}
	if err := r.DrawColorbar(req.Scale, req.ColorbarLabel); err != nil {
		return Result{}, fmt.Errorf("render: colorbar: %w", err)
	}
	if err := r.DrawFrame(); err != nil {
		return Result{}, fmt.Errorf("render: frame: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if err := r.Save(req.Output); err != nil {
		return Result{}, fmt.Errorf("render: save %s: %w", req.Output, err)
	}
	return res, nil
}

func (req *Request) validate() error {
	switch {
	case req.Field == nil:
		return fmt.Errorf("render: no field: %w", failure.ErrConfig)
	case req.Scale == nil:
		return fmt.Errorf("render: no color scale: %w", failure.ErrConfig)
	case req.Output == "":
		return fmt.Errorf("render: no output path: %w", failure.ErrConfig)
	case req.DPI < 0 || req.MapWidth < 0:
		return fmt.Errorf("render: dpi and map width must be positive: %w", failure.ErrConfig)
	}
	return nil
}

func (req *Request) applyDefaults() {
	if req.Projection == nil {
		req.Projection = geom.PlateCarree{}
	}
	if req.DPI == 0 {
		req.DPI = DefaultDPI
	}
	if req.MapWidth == 0 {
		req.MapWidth = DefaultMapWidth
	}
	if req.Markers.Radius == 0 {
		req.Markers.Radius = DefaultMarkerRadius
	}
	if req.Markers.Color.A == 0 {
		req.Markers.Color = color.RGBA{A: 255}
	}
}

// NewLayout sizes the map for req: the width is fixed by MapWidth, the height
// follows the projected aspect ratio of the bounds.
func NewLayout(req Request) Layout {
	pb := geom.ProjectBBox(req.Projection, req.Bounds)
	aspect := (pb.MaxY - pb.MinY) / (pb.MaxX - pb.MinX)
	l := Layout{
		Extent:    req.Bounds,
		Proj:      req.Projection,
		DPI:       req.DPI,
		MapWidth:  req.MapWidth,
		MapHeight: req.MapWidth * aspect,
		Title:     req.Title,
		Colorbar:  true,
	}
	l.ImageWidth = max(1, int(math.Round(l.MapWidth*l.DPI)))
	l.ImageHeight = max(1, int(math.Round(l.MapHeight*l.DPI)))
	if req.Frame {
		l.LonTicks = Ticks(req.Bounds.MinX, req.Bounds.MaxX)
		l.LatTicks = Ticks(req.Bounds.MinY, req.Bounds.MaxY)
	}
	return l
}

func prepareOverlays(in []Overlay, b geom.BBox) []Overlay {
	out := make([]Overlay, 0, len(in))
	for _, ov := range in {
		d := ov.Data.Cull(b).DropSmallPolygons(ov.MinAreaKm2)
		c := geom.Data{BBox: d.BBox}
		for _, ln := range d.Lines {
			c.Lines = append(c.Lines, geom.ClipLine(ln, b)...)
		}
		for _, poly := range d.Polygons {
			if p := geom.ClipPolygon(poly, b); p != nil {
				c.Polygons = append(c.Polygons, p)
			}
		}
		for _, pt := range d.Points {
			if b.Contains(pt[0], pt[1]) {
				c.Points = append(c.Points, pt)
			}
		}
		if c.Empty() {
			continue
		}
		ov.Data = c
		out = append(out, ov)
	}
	return out
}

func visibleLabels(in []Label, b geom.BBox) []Label {
	var out []Label
	for _, l := range in {
		if !b.Contains(l.Lon, l.Lat) {
			continue
		}
		if l.Size == 0 {
			l.Size = DefaultLabelSize
		}
		if l.Color.A == 0 {
			l.Color = color.RGBA{A: 255}
		}
		out = append(out, l)
	}
	return out
}
