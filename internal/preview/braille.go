package preview

// brailleBits maps a dot at (column, row) inside a 2x4 cell to its bit in
// the U+2800 block.
var brailleBits = [2][4]uint8{
	{0x01, 0x02, 0x04, 0x40},
	{0x08, 0x10, 0x20, 0x80},
}

// brailleBuf is a dot grid two dots wide and four tall per terminal cell.
// kind records which layer last touched a cell so rows can be colored.
type brailleBuf struct {
	w, h int       // in cells
	m    [][]uint8 // per-cell dot mask
	kind [][]layer
}

type layer uint8

const (
	layerNone layer = iota
	layerOutline
	layerMarker
)

func newBrailleBuf(w, h int) *brailleBuf {
	m := make([][]uint8, h)
	k := make([][]layer, h)
	for i := range m {
		m[i] = make([]uint8, w)
		k[i] = make([]layer, w)
	}
	return &brailleBuf{w: w, h: h, m: m, kind: k}
}

// set lights the dot at micro coords (2x4 per cell); out of range is ignored.
func (b *brailleBuf) set(mx, my int, l layer) {
	if mx < 0 || my < 0 {
		return
	}
	cx, cy := mx/2, my/4
	if cy >= b.h || cx >= b.w {
		return
	}
	b.m[cy][cx] |= brailleBits[mx%2][my%4]
	if l > b.kind[cy][cx] {
		b.kind[cy][cx] = l
	}
}

// line draws on the dot grid using Bresenham.
func (b *brailleBuf) line(x0, y0, x1, y1 int, l layer) {
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
		b.set(x0, y0, l)
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

// dot marks a marker as a plus of five dots so single cells stay visible.
func (b *brailleBuf) dot(mx, my int) {
	for _, d := range [][2]int{{0, 0}, {-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
		b.set(mx+d[0], my+d[1], layerMarker)
	}
}

// lines renders each row, coloring cells by layer.
func (b *brailleBuf) lines() []string {
	out := make([]string, b.h)
	for y := 0; y < b.h; y++ {
		var row []byte
		for x := 0; x < b.w; x++ {
			mask := b.m[y][x]
			if mask == 0 {
				row = append(row, ' ')
				continue
			}
			glyph := string(rune(0x2800 + int(mask)))
			switch b.kind[y][x] {
			case layerMarker:
				glyph = markerStyle.Render(glyph)
			default:
				glyph = outlineStyle.Render(glyph)
			}
			row = append(row, glyph...)
		}
		out[y] = string(row)
	}
	return out
}

// raw returns the glyphs without styling.
func (b *brailleBuf) raw() []string {
	out := make([]string, b.h)
	for y := 0; y < b.h; y++ {
		row := make([]rune, b.w)
		for x := 0; x < b.w; x++ {
			row[x] = ' '
			if mask := b.m[y][x]; mask != 0 {
				row[x] = rune(0x2800 + int(mask))
			}
		}
		out[y] = string(row)
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
