package raster

import (
	"image"
	"image/color"
	"math"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

type align int

const (
	alignLeft align = iota
	alignCenter
	alignRight
)

var regular = sync.OnceValues(func() (*opentype.Font, error) {
	return opentype.Parse(goregular.TTF)
})

// face returns Go Regular at size points for the canvas DPI, falling back
// to the fixed 7x13 face if the font cannot be loaded. Faces are cached per
// canvas because they are not safe for concurrent use.
func (c *Canvas) face(size float64) font.Face {
	if f, ok := c.faces[size]; ok {
		return f
	}
	if c.faces == nil {
		c.faces = map[float64]font.Face{}
	}
	var face font.Face = basicfont.Face7x13
	if f, err := regular(); err == nil {
		if ff, err := opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: c.layout.DPI, Hinting: font.HintingFull}); err == nil {
			face = ff
		}
	}
	c.faces[size] = face
	return face
}

// text draws s vertically centered on y and aligned on x. It returns the
// drawn width in pixels.
func (c *Canvas) text(s string, size float64, x, y int, col color.RGBA, a align) int {
	face := c.face(size)
	d := &font.Drawer{Dst: c.img, Src: image.NewUniform(col), Face: face}
	w := d.MeasureString(s)
	m := face.Metrics()
	dotX := fixed.I(x)
	switch a {
	case alignCenter:
		dotX -= w / 2
	case alignRight:
		dotX -= w
	}
	d.Dot = fixed.Point26_6{X: dotX, Y: fixed.I(y) + (m.Ascent-m.Descent)/2}
	d.DrawString(s)
	return w.Ceil()
}

// textVertical draws s rotated a quarter turn counter-clockwise, centered on
// (x, y).
func (c *Canvas) textVertical(s string, size float64, x, y int, col color.RGBA) {
	face := c.face(size)
	m := face.Metrics()
	w := font.MeasureString(face, s).Ceil()
	h := (m.Ascent + m.Descent).Ceil()
	if w == 0 || h == 0 {
		return
	}
	flat := image.NewRGBA(image.Rect(0, 0, w, h))
	d := &font.Drawer{Dst: flat, Src: image.NewUniform(col), Face: face, Dot: fixed.Point26_6{Y: m.Ascent}}
	d.DrawString(s)

	rot := image.NewRGBA(image.Rect(0, 0, h, w))
	for fy := 0; fy < h; fy++ {
		for fx := 0; fx < w; fx++ {
			rot.SetRGBA(fy, w-1-fx, flat.RGBAAt(fx, fy))
		}
	}
	at := image.Pt(x-int(math.Round(float64(h)/2)), y-w/2)
	draw.Draw(c.img, rot.Bounds().Add(at), rot, image.Point{}, draw.Over)
}
