package geom

import (
	"errors"
	"fmt"
	"math"
)

// BBox is a lon/lat rectangle. X is longitude, Y is latitude.
type BBox struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// Validate reports whether the box has a positive extent on both axes.
func (b BBox) Validate() error {
	if math.IsNaN(b.MinX) || math.IsNaN(b.MaxX) || math.IsNaN(b.MinY) || math.IsNaN(b.MaxY) {
		return errors.New("bbox: NaN bound")
	}
	if !(b.MinX < b.MaxX) {
		return fmt.Errorf("bbox: lon_min %g must be less than lon_max %g", b.MinX, b.MaxX)
	}
	if !(b.MinY < b.MaxY) {
		return fmt.Errorf("bbox: lat_min %g must be less than lat_max %g", b.MinY, b.MaxY)
	}
	return nil
}

// Intersects reports whether b and o share at least one point (edges count).
func (b BBox) Intersects(o BBox) bool {
	return b.MinX <= o.MaxX && o.MinX <= b.MaxX && b.MinY <= o.MaxY && o.MinY <= b.MaxY
}

// Contains reports whether (x, y) lies inside b, edges included.
func (b BBox) Contains(x, y float64) bool {
	return x >= b.MinX && x <= b.MaxX && y >= b.MinY && y <= b.MaxY
}

// Intersection returns the overlap of b and o; ok is false when they are disjoint.
func (b BBox) Intersection(o BBox) (BBox, bool) {
	if !b.Intersects(o) {
		return BBox{}, false
	}
	return BBox{
		MinX: math.Max(b.MinX, o.MinX),
		MinY: math.Max(b.MinY, o.MinY),
		MaxX: math.Min(b.MaxX, o.MaxX),
		MaxY: math.Min(b.MaxY, o.MaxY),
	}, true
}

func (b BBox) String() string {
	return fmt.Sprintf("[%.5f, %.5f, %.5f, %.5f]", b.MinX, b.MaxX, b.MinY, b.MaxY)
}

// Data is a minimal geometry container for rendering
type Data struct {
	Points   [][2]float64
	Lines    [][][2]float64
	Polygons [][][][2]float64 // polygons with rings (first outer, following holes)
	BBox     BBox
}

// Empty reports whether d holds no geometry at all.
func (d Data) Empty() bool {
	return len(d.Points) == 0 && len(d.Lines) == 0 && len(d.Polygons) == 0
}

// grow extends the bbox with one vertex; the first vertex initializes it.
func (d *Data) grow(pt [2]float64, first bool) {
	if first {
		d.BBox = BBox{MinX: pt[0], MinY: pt[1], MaxX: pt[0], MaxY: pt[1]}
		return
	}
	if pt[0] < d.BBox.MinX {
		d.BBox.MinX = pt[0]
	}
	if pt[1] < d.BBox.MinY {
		d.BBox.MinY = pt[1]
	}
	if pt[0] > d.BBox.MaxX {
		d.BBox.MaxX = pt[0]
	}
	if pt[1] > d.BBox.MaxY {
		d.BBox.MaxY = pt[1]
	}
}

func (d *Data) addPoint(pt [2]float64) {
	d.grow(pt, d.Empty())
	d.Points = append(d.Points, pt)
}

func (d *Data) addLine(ls [][2]float64) {
	if len(ls) == 0 {
		return
	}
	first := d.Empty()
	d.Lines = append(d.Lines, ls)
	for i, p := range ls {
		d.grow(p, first && i == 0)
	}
}

func (d *Data) addPolygon(poly [][][2]float64) {
	if len(poly) == 0 || len(poly[0]) == 0 {
		return
	}
	first := d.Empty()
	d.Polygons = append(d.Polygons, poly)
	n := 0
	for _, ring := range poly {
		for _, p := range ring {
			d.grow(p, first && n == 0)
			n++
		}
	}
}

// position converts a GeoJSON-style [lon, lat, ...] tuple; altitude and
// anything after it are dropped.
func position(c []float64) ([2]float64, bool) {
	if len(c) < 2 {
		return [2]float64{}, false
	}
	return [2]float64{c[0], c[1]}, true
}

func positions(cs [][]float64) [][2]float64 {
	out := make([][2]float64, 0, len(cs))
	for _, c := range cs {
		if pt, ok := position(c); ok {
			out = append(out, pt)
		}
	}
	return out
}

func (d *Data) addPositions(cs [][]float64) {
	for _, c := range cs {
		if pt, ok := position(c); ok {
			d.addPoint(pt)
		}
	}
}

func (d *Data) addPath(cs [][]float64) { d.addLine(positions(cs)) }

func (d *Data) addRings(rings [][][]float64) {
	poly := make([][][2]float64, 0, len(rings))
	for _, r := range rings {
		poly = append(poly, positions(r))
	}
	d.addPolygon(poly)
}

// Merge appends the geometry of o to d.
func (d Data) Merge(o Data) Data {
	out := Data{}
	for _, src := range []Data{d, o} {
		for _, p := range src.Points {
			out.addPoint(p)
		}
		for _, ls := range src.Lines {
			out.addLine(ls)
		}
		for _, poly := range src.Polygons {
			out.addPolygon(poly)
		}
	}
	return out
}

// Cull keeps only the features whose own bbox touches b.
func (d Data) Cull(b BBox) Data {
	out := Data{}
	for _, p := range d.Points {
		if b.Contains(p[0], p[1]) {
			out.addPoint(p)
		}
	}
	for _, ls := range d.Lines {
		if ringBBox(ls).Intersects(b) {
			out.addLine(ls)
		}
	}
	for _, poly := range d.Polygons {
		if ringBBox(poly[0]).Intersects(b) {
			out.addPolygon(poly)
		}
	}
	return out
}

// DropSmallPolygons removes polygons whose area is below minKm2. Lines and
// points pass through untouched; minKm2 <= 0 keeps everything.
func (d Data) DropSmallPolygons(minKm2 float64) Data {
	if minKm2 <= 0 {
		return d
	}
	out := Data{}
	for _, p := range d.Points {
		out.addPoint(p)
	}
	for _, ls := range d.Lines {
		out.addLine(ls)
	}
	for _, poly := range d.Polygons {
		if PolygonAreaKm2(poly) >= minKm2 {
			out.addPolygon(poly)
		}
	}
	return out
}

func ringBBox(ring [][2]float64) BBox {
	var b BBox
	for i, p := range ring {
		if i == 0 {
			b = BBox{MinX: p[0], MinY: p[1], MaxX: p[0], MaxY: p[1]}
			continue
		}
		b.MinX = math.Min(b.MinX, p[0])
		b.MinY = math.Min(b.MinY, p[1])
		b.MaxX = math.Max(b.MaxX, p[0])
		b.MaxY = math.Max(b.MaxY, p[1])
	}
	return b
}
