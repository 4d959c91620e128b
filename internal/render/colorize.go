package render

import (
	"image"
	"image/color"
	"math"

	"climap/internal/colorscale"
	"climap/internal/geom"
	"climap/internal/grid"
)

// Colorize resamples f onto the layout's pixel grid and maps every cell
// through s. Pixels outside the field's cells stay transparent. shade, when
// non-nil, holds one hillshade intensity per field cell.
func Colorize(f *grid.Field, s *colorscale.Scale, l Layout, shade []float64, sh *Shading) *image.RGBA {
	w, h := l.ImageWidth, l.ImageHeight
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	view := geom.NewViewport(l.Proj, l.Extent, 0, 0, float64(w), float64(h))
	loc := grid.NewLocator(f)

	// both projections are separable, so columns and rows resolve independently
	cols := make([]int, w)
	for px := range cols {
		lon, _ := view.FromPixel(float64(px)+0.5, float64(h)/2)
		cols[px] = -1
		if i, ok := loc.Col(lon); ok {
			cols[px] = i
		}
	}
	rows := make([]int, h)
	for py := range rows {
		_, lat := view.FromPixel(float64(w)/2, float64(py)+0.5)
		rows[py] = -1
		if j, ok := loc.Row(lat); ok {
			rows[py] = j
		}
	}

	flat := 0.0
	if sh != nil {
		flat = math.Sin(sh.Altitude * math.Pi / 180)
	}
	nx := len(f.Lon)
	for py, j := range rows {
		if j < 0 {
			continue
		}
		for px, i := range cols {
			if i < 0 {
				continue
			}
			k := j*nx + i
			c := s.Lookup(f.Values[k])
			if shade != nil {
				c = shadeColor(c, 1+sh.Intensity*(shade[k]-flat))
			}
			img.SetRGBA(px, py, c)
		}
	}
	return img
}

func shadeColor(c color.RGBA, factor float64) color.RGBA {
	scale := func(v uint8) uint8 {
		return uint8(math.Max(0, math.Min(255, math.Round(float64(v)*factor))))
	}
	return color.RGBA{R: scale(c.R), G: scale(c.G), B: scale(c.B), A: c.A}
}
