package raster

import (
	"image"
	"image/color"
	"math"
	"sort"
)

func (c *Canvas) projectPath(path [][2]float64) [][2]float64 {
	out := make([][2]float64, len(path))
	for i, p := range path {
		x, y := c.view.ToPixel(p[0], p[1])
		out[i] = [2]float64{x, y}
	}
	return out
}

func (c *Canvas) project(poly [][][2]float64) [][][2]float64 {
	out := make([][][2]float64, 0, len(poly))
	for _, ring := range poly {
		if len(ring) >= 3 {
			out = append(out, c.projectPath(ring))
		}
	}
	return out
}

// fillPolygon fills rings with the even-odd rule, so holes stay open. Spans
// are sampled at pixel centers and clipped to the map area.
func (c *Canvas) fillPolygon(rings [][][2]float64, col color.RGBA) {
	clip := c.mapRect
	var xs []float64
	for y := clip.Min.Y; y < clip.Max.Y; y++ {
		yc := float64(y) + 0.5
		xs = xs[:0]
		for _, ring := range rings {
			for i := range ring {
				a, b := ring[i], ring[(i+1)%len(ring)]
				if a[1] == b[1] { // horizontal edge: skip
					continue
				}
				if (yc >= a[1] && yc < b[1]) || (yc >= b[1] && yc < a[1]) {
					t := (yc - a[1]) / (b[1] - a[1])
					xs = append(xs, a[0]+t*(b[0]-a[0]))
				}
			}
		}
		if len(xs) < 2 {
			continue
		}
		sort.Float64s(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			x0 := max(clip.Min.X, int(math.Ceil(xs[i]-0.5)))
			x1 := min(clip.Max.X-1, int(math.Floor(xs[i+1]-0.5)))
			for x := x0; x <= x1; x++ {
				c.blend(x, y, col)
			}
		}
	}
}

// polyline strokes consecutive points; closed joins the last to the first.
func (c *Canvas) polyline(pts [][2]float64, width float64, col color.RGBA, closed bool) {
	n := len(pts)
	if n < 2 {
		return
	}
	segs := n - 1
	if closed {
		segs = n
	}
	for i := 0; i < segs; i++ {
		a, b := pts[i], pts[(i+1)%n]
		c.line(int(math.Round(a[0])), int(math.Round(a[1])), int(math.Round(b[0])), int(math.Round(b[1])), width, col)
	}
}

// line draws with Bresenham, stamping a square of the stroke width at
// every step.
func (c *Canvas) line(x0, y0, x1, y1 int, width float64, col color.RGBA) {
	half := int(math.Round(width)) / 2
	odd := int(math.Round(width)) % 2
	stamp := func(x, y int) {
		if half == 0 {
			c.blendClipped(x, y, col)
			return
		}
		for dy := -half; dy < half+odd; dy++ {
			for dx := -half; dx < half+odd; dx++ {
				c.blendClipped(x+dx, y+dy, col)
			}
		}
	}
	dx := abs(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -abs(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		stamp(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// disk fills a circle of radius r pixels around (cx, cy).
func (c *Canvas) disk(cx, cy, r float64, col color.RGBA) {
	x0, x1 := int(math.Floor(cx-r)), int(math.Ceil(cx+r))
	y0, y1 := int(math.Floor(cy-r)), int(math.Ceil(cy+r))
	hit := false
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			dx, dy := float64(x)+0.5-cx, float64(y)+0.5-cy
			if dx*dx+dy*dy <= r*r {
				c.blendClipped(x, y, col)
				hit = true
			}
		}
	}
	// sub-pixel markers still mark their cell
	if !hit {
		c.blendClipped(int(math.Floor(cx)), int(math.Floor(cy)), col)
	}
}

func (c *Canvas) hline(x0, x1, y int, col color.RGBA) {
	for x := x0; x <= x1; x++ {
		c.blend(x, y, col)
	}
}

func (c *Canvas) vline(x, y0, y1 int, col color.RGBA) {
	for y := y0; y <= y1; y++ {
		c.blend(x, y, col)
	}
}

// rect outlines r one pixel inside its bounds.
func (c *Canvas) rect(r image.Rectangle, col color.RGBA) {
	c.hline(r.Min.X, r.Max.X-1, r.Min.Y, col)
	c.hline(r.Min.X, r.Max.X-1, r.Max.Y-1, col)
	c.vline(r.Min.X, r.Min.Y, r.Max.Y-1, col)
	c.vline(r.Max.X-1, r.Min.Y, r.Max.Y-1, col)
}

// blendClipped draws only inside the map area.
func (c *Canvas) blendClipped(x, y int, col color.RGBA) {
	if !(image.Point{X: x, Y: y}).In(c.mapRect) {
		return
	}
	c.blend(x, y, col)
}

// blend composites col over the pixel at (x, y) with straight alpha.
func (c *Canvas) blend(x, y int, col color.RGBA) {
	if !(image.Point{X: x, Y: y}).In(c.img.Rect) {
		return
	}
	if col.A == 255 {
		c.img.SetRGBA(x, y, col)
		return
	}
	dst := c.img.RGBAAt(x, y)
	a := float64(col.A) / 255
	mix := func(s, d uint8) uint8 { return uint8(math.Round(float64(s)*a + float64(d)*(1-a))) }
	c.img.SetRGBA(x, y, color.RGBA{
		R: mix(col.R, dst.R),
		G: mix(col.G, dst.G),
		B: mix(col.B, dst.B),
		A: uint8(math.Round(float64(col.A) + float64(dst.A)*(1-a))),
	})
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
