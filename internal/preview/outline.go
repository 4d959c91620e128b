package preview

import (
	"math"
	"strings"

	"climap/internal/geom"
)

// outlineView fits the figure extent onto the braille dot grid of a w x h
// cell area, keeping the projected aspect ratio.
func (m Model) outlineView(f Figure, w, h int) geom.Viewport {
	pb := geom.ProjectBBox(f.Proj, f.Extent)
	pw, ph := pb.MaxX-pb.MinX, pb.MaxY-pb.MinY
	dw, dh := float64(2*w), float64(4*h)
	x0, y0, s := fit(pw, ph, dw, dh, m.zoom, float64(2*m.offsetX), float64(4*m.offsetY))
	return geom.Viewport{Proj: f.Proj, Extent: pb, X0: x0, Y0: y0, W: pw * s, H: ph * s}
}

// cellToLonLat converts a map cell back to lon/lat in outline mode.
func (m Model) cellToLonLat(f Figure, cx, cy, w, h int) (float64, float64, bool) {
	if !(f.Extent.MaxX > f.Extent.MinX && f.Extent.MaxY > f.Extent.MinY) || w <= 1 || h <= 1 {
		return 0, 0, false
	}
	v := m.outlineView(f, w, h)
	lon, lat := v.FromPixel(float64(2*cx)+1, float64(4*cy)+2)
	if !f.Extent.Contains(lon, lat) {
		return 0, 0, false
	}
	return lon, lat, true
}

func dotXY(v geom.Viewport, lon, lat float64) (int, int) {
	x, y := v.ToPixel(lon, lat)
	return int(math.Floor(x)), int(math.Floor(y))
}

// renderOutline draws the region frame, overlay boundaries and mask markers
// in braille.
func (m Model) renderOutline(f Figure, w, h int) string {
	br := newBrailleBuf(w, h)
	v := m.outlineView(f, w, h)

	e := f.Extent
	frame := [][2]float64{{e.MinX, e.MinY}, {e.MaxX, e.MinY}, {e.MaxX, e.MaxY}, {e.MinX, e.MaxY}, {e.MinX, e.MinY}}
	drawPath(br, v, frame)

	for _, ov := range f.Overlays {
		for _, ls := range ov.Data.Lines {
			drawPath(br, v, ls)
		}
		for _, poly := range ov.Data.Polygons {
			for _, ring := range poly {
				drawPath(br, v, closeRing(ring))
			}
		}
		for _, p := range ov.Data.Points {
			x, y := dotXY(v, p[0], p[1])
			br.set(x, y, layerOutline)
		}
	}
	for _, p := range f.Markers {
		x, y := dotXY(v, p[0], p[1])
		br.dot(x, y)
	}
	return strings.Join(br.lines(), "\n")
}

func drawPath(br *brailleBuf, v geom.Viewport, path [][2]float64) {
	for i := 1; i < len(path); i++ {
		x0, y0 := dotXY(v, path[i-1][0], path[i-1][1])
		x1, y1 := dotXY(v, path[i][0], path[i][1])
		br.line(x0, y0, x1, y1, layerOutline)
	}
}

func closeRing(ring [][2]float64) [][2]float64 {
	if n := len(ring); n > 1 && ring[0] != ring[n-1] {
		return append(ring[:n:n], ring[0])
	}
	return ring
}
