package colorscale

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/wcharczuk/go-chart/v2/drawing"

	"climap/internal/failure"
)

var named = map[string]color.RGBA{
	"black":       {0, 0, 0, 255},
	"white":       {255, 255, 255, 255},
	"gray":        {128, 128, 128, 255},
	"grey":        {128, 128, 128, 255},
	"lightgray":   {211, 211, 211, 255},
	"lightgrey":   {211, 211, 211, 255},
	"darkgray":    {169, 169, 169, 255},
	"red":         {255, 0, 0, 255},
	"green":       {0, 128, 0, 255},
	"blue":        {0, 0, 255, 255},
	"lightblue":   {173, 216, 230, 255},
	"darkblue":    {0, 0, 139, 255},
	"steelblue":   {70, 130, 180, 255},
	"navy":        {0, 0, 128, 255},
	"orange":      {255, 165, 0, 255},
	"yellow":      {255, 255, 0, 255},
	"brown":       {165, 42, 42, 255},
	"none":        {0, 0, 0, 0},
	"transparent": {0, 0, 0, 0},
}

// ParseColor accepts "#rrggbb", "#rgb", "rrggbb", "r/g/b", a single gray
// level "0".."255", or a CSS-style name.
func ParseColor(s string) (color.RGBA, error) {
	s = strings.TrimSpace(s)
	if c, ok := named[strings.ToLower(s)]; ok {
		return c, nil
	}
	if parts := strings.Split(s, "/"); len(parts) == 3 {
		var rgb [3]uint8
		for i, p := range parts {
			n, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil || n < 0 || n > 255 {
				return color.RGBA{}, fmt.Errorf("bad color %q: %w", s, failure.ErrConfig)
			}
			rgb[i] = uint8(n)
		}
		return color.RGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 255}, nil
	}
	if n, err := strconv.Atoi(s); err == nil && len(s) <= 3 {
		if n < 0 || n > 255 {
			return color.RGBA{}, fmt.Errorf("bad gray level %q: %w", s, failure.ErrConfig)
		}
		return color.RGBA{R: uint8(n), G: uint8(n), B: uint8(n), A: 255}, nil
	}
	hex := strings.TrimPrefix(s, "#")
	if !isHex(hex) {
		return color.RGBA{}, fmt.Errorf("bad color %q: %w", s, failure.ErrConfig)
	}
	d := drawing.ColorFromHex(hex)
	return color.RGBA{R: d.R, G: d.G, B: d.B, A: 255}, nil
}

func isHex(s string) bool {
	if len(s) != 3 && len(s) != 6 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}

func mustHex(h string) color.RGBA {
	c, err := ParseColor(h)
	if err != nil {
		panic(err)
	}
	return c
}

// Hex formats c as "#rrggbb".
func Hex(c color.RGBA) string { return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B) }
