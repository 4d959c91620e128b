package geom

import (
	"fmt"
	"math"
	"strings"
)

// Projection maps lon/lat degrees to planar map units and back.
type Projection interface {
	Name() string
	Forward(lon, lat float64) (x, y float64)
	Inverse(x, y float64) (lon, lat float64)
}

// PlateCarree is the equirectangular projection; map units are degrees.
type PlateCarree struct{}

func (PlateCarree) Name() string                                { return "platecarree" }
func (PlateCarree) Forward(lon, lat float64) (float64, float64) { return lon, lat }
func (PlateCarree) Inverse(x, y float64) (float64, float64)     { return x, y }

// mercatorMaxLat keeps the projection finite near the poles.
const mercatorMaxLat = 85.05112878

// Mercator is normal-aspect spherical Mercator scaled so one unit of x equals
// one degree of longitude.
type Mercator struct{}

func (Mercator) Name() string { return "mercator" }

func (Mercator) Forward(lon, lat float64) (float64, float64) {
	lat = math.Max(-mercatorMaxLat, math.Min(mercatorMaxLat, lat))
	phi := lat * math.Pi / 180
	return lon, math.Log(math.Tan(math.Pi/4+phi/2)) * 180 / math.Pi
}

func (Mercator) Inverse(x, y float64) (float64, float64) {
	return x, (2*math.Atan(math.Exp(y*math.Pi/180)) - math.Pi/2) * 180 / math.Pi
}

// ProjectionByName resolves a configured projection; empty means plate carrée.
func ProjectionByName(name string) (Projection, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "platecarree", "plate_carree", "equirectangular", "latlon":
		return PlateCarree{}, nil
	case "mercator", "merc":
		return Mercator{}, nil
	}
	return nil, fmt.Errorf("unsupported projection %q", name)
}

// ProjectBBox returns the projected extent of b. Both supported projections
// are separable, so the corners bound the whole box.
func ProjectBBox(p Projection, b BBox) BBox {
	x0, y0 := p.Forward(b.MinX, b.MinY)
	x1, y1 := p.Forward(b.MaxX, b.MaxY)
	return BBox{MinX: math.Min(x0, x1), MinY: math.Min(y0, y1), MaxX: math.Max(x0, x1), MaxY: math.Max(y0, y1)}
}

// Viewport places a projected region onto a pixel rectangle whose origin is
// top-left, y growing downwards.
type Viewport struct {
	Proj   Projection
	Extent BBox // projected
	X0, Y0 float64
	W, H   float64
}

// NewViewport fits region b into a w x h pixel area at (x0, y0).
func NewViewport(p Projection, b BBox, x0, y0, w, h float64) Viewport {
	return Viewport{Proj: p, Extent: ProjectBBox(p, b), X0: x0, Y0: y0, W: w, H: h}
}

// Aspect is the projected height/width ratio of the region.
func (v Viewport) Aspect() float64 {
	return (v.Extent.MaxY - v.Extent.MinY) / (v.Extent.MaxX - v.Extent.MinX)
}

// ToPixel maps lon/lat to fractional pixel coordinates.
func (v Viewport) ToPixel(lon, lat float64) (float64, float64) {
	x, y := v.Proj.Forward(lon, lat)
	nx := (x - v.Extent.MinX) / (v.Extent.MaxX - v.Extent.MinX)
	ny := (y - v.Extent.MinY) / (v.Extent.MaxY - v.Extent.MinY)
	return v.X0 + nx*v.W, v.Y0 + (1-ny)*v.H
}

// FromPixel converts a pixel position back to lon/lat.
func (v Viewport) FromPixel(px, py float64) (float64, float64) {
	nx := (px - v.X0) / v.W
	ny := 1 - (py-v.Y0)/v.H
	x := v.Extent.MinX + nx*(v.Extent.MaxX-v.Extent.MinX)
	y := v.Extent.MinY + ny*(v.Extent.MaxY-v.Extent.MinY)
	return v.Proj.Inverse(x, y)
}
