package preview

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/image/draw"

	"climap/internal/geom"
)

// fit places a srcW x srcH picture centered in a dstW x dstH area at the
// largest scale that shows all of it, then applies zoom about the center and
// a pan offset in destination units.
func fit(srcW, srcH, dstW, dstH, zoom, panX, panY float64) (x0, y0, scale float64) {
	scale = min(dstW/srcW, dstH/srcH) * zoom
	x0 = (dstW-srcW*scale)/2 + panX
	y0 = (dstH-srcH*scale)/2 + panY
	return x0, y0, scale
}

// imagePlacement is where the figure image sits on the half-block pixel grid
// of a w x h cell area: one cell is one pixel wide and two tall.
func (m Model) imagePlacement(img image.Image, w, h int) (x0, y0, scale float64) {
	b := img.Bounds()
	return fit(float64(b.Dx()), float64(b.Dy()), float64(w), float64(2*h), m.zoom,
		float64(m.offsetX), float64(2*m.offsetY))
}

// renderImage draws the figure image as colored half-block cells.
func (m Model) renderImage(img image.Image, w, h int) string {
	x0, y0, s := m.imagePlacement(img, w, h)
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, w, 2*h))
	dr := image.Rect(int(x0), int(y0), int(x0+float64(b.Dx())*s), int(y0+float64(b.Dy())*s))
	draw.ApproxBiLinear.Scale(dst, dr, img, b, draw.Over, nil)
	return strings.Join(halfBlocks(dst), "\n")
}

// halfBlocks turns each pair of pixel rows into one row of cells, upper
// pixel as foreground of ▀ and lower pixel as background.
func halfBlocks(img *image.RGBA) []string {
	b := img.Bounds()
	var out []string
	for y := b.Min.Y; y < b.Max.Y; y += 2 {
		var row strings.Builder
		for x := b.Min.X; x < b.Max.X; x++ {
			top := img.RGBAAt(x, y)
			var bot color.RGBA
			if y+1 < b.Max.Y {
				bot = img.RGBAAt(x, y+1)
			}
			switch {
			case top.A == 0 && bot.A == 0:
				row.WriteByte(' ')
			case bot.A == 0:
				row.WriteString(lipgloss.NewStyle().Foreground(hexColor(top)).Render("▀"))
			case top.A == 0:
				row.WriteString(lipgloss.NewStyle().Foreground(hexColor(bot)).Render("▄"))
			default:
				row.WriteString(lipgloss.NewStyle().Foreground(hexColor(top)).Background(hexColor(bot)).Render("▀"))
			}
		}
		out = append(out, row.String())
	}
	return out
}

func hexColor(c color.RGBA) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B))
}

// imageLonLat maps a cell of the image view back to lon/lat when the cell
// falls inside the figure's map area.
func (m Model) imageLonLat(f Figure, cx, cy, w, h int) (float64, float64, bool) {
	if f.Image == nil || f.MapRect.Empty() {
		return 0, 0, false
	}
	x0, y0, s := m.imagePlacement(f.Image, w, h)
	b := f.Image.Bounds()
	px := float64(b.Min.X) + (float64(cx)+0.5-x0)/s
	py := float64(b.Min.Y) + (float64(2*cy)+1-y0)/s
	r := f.MapRect
	if px < float64(r.Min.X) || px >= float64(r.Max.X) || py < float64(r.Min.Y) || py >= float64(r.Max.Y) {
		return 0, 0, false
	}
	v := geom.NewViewport(f.Proj, f.Extent, float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy()))
	lon, lat := v.FromPixel(px, py)
	return lon, lat, true
}
