package colorscale

import (
	"fmt"
	"image/color"
	"sort"
	"strings"

	"climap/internal/failure"
)

// Stop is one anchor of a continuous palette at position Pos in [0, 1].
type Stop struct {
	Pos   float64
	Color color.RGBA
}

// Palette is a continuous colormap interpolated linearly between stops.
type Palette struct {
	Name  string
	Stops []Stop
}

func evenStops(hex ...string) []Stop {
	out := make([]Stop, len(hex))
	for i, h := range hex {
		out[i] = Stop{Pos: float64(i) / float64(len(hex)-1), Color: mustHex(h)}
	}
	return out
}

var palettes = map[string]Palette{
	"brbg": {Name: "BrBG", Stops: evenStops(
		"543005", "8c510a", "bf812d", "dfc27d", "f6e8c3", "f5f5f5",
		"c7eae5", "80cdc1", "35978f", "01665e", "003c30")},
	"rdbu": {Name: "RdBu", Stops: evenStops(
		"67001f", "b2182b", "d6604d", "f4a582", "fddbc7", "f7f7f7",
		"d1e5f0", "92c5de", "4393c3", "2166ac", "053061")},
	"blues": {Name: "Blues", Stops: evenStops(
		"f7fbff", "deebf7", "c6dbef", "9ecae1", "6baed6", "4292c6",
		"2171b5", "08519c", "08306b")},
	"viridis": {Name: "viridis", Stops: evenStops(
		"440154", "482374", "404387", "345e8d", "29788e", "20908c",
		"22a784", "44be70", "79d151", "bdde26", "fde725")},
	"terrain": {Name: "terrain", Stops: []Stop{
		{0, mustHex("333399")},
		{0.15, mustHex("0099ff")},
		{0.25, mustHex("00cc66")},
		{0.5, mustHex("ffff99")},
		{0.75, mustHex("805c54")},
		{1, mustHex("ffffff")},
	}},
}

// PaletteNames lists the built-in palettes.
func PaletteNames() []string {
	names := make([]string, 0, len(palettes))
	for _, p := range palettes {
		names = append(names, p.Name)
	}
	sort.Strings(names)
	return names
}

// LookupPalette finds a built-in palette by case-insensitive name; a "_r"
// suffix reverses it.
func LookupPalette(name string) (Palette, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	reverse := strings.HasSuffix(key, "_r")
	key = strings.TrimSuffix(key, "_r")
	p, ok := palettes[key]
	if !ok {
		return Palette{}, fmt.Errorf("unknown palette %q (have %s): %w", name, strings.Join(PaletteNames(), ", "), failure.ErrConfig)
	}
	if reverse {
		stops := make([]Stop, len(p.Stops))
		for i, s := range p.Stops {
			stops[len(stops)-1-i] = Stop{Pos: 1 - s.Pos, Color: s.Color}
		}
		p = Palette{Name: p.Name + "_r", Stops: stops}
	}
	return p, nil
}

// At returns the interpolated color at t, clamped to [0, 1].
func (p Palette) At(t float64) color.RGBA {
	s := p.Stops
	if t <= s[0].Pos {
		return s[0].Color
	}
	if t >= s[len(s)-1].Pos {
		return s[len(s)-1].Color
	}
	k := sort.Search(len(s), func(i int) bool { return s[i].Pos >= t })
	a, b := s[k-1], s[k]
	return lerp(a.Color, b.Color, (t-a.Pos)/(b.Pos-a.Pos))
}

// Discrete samples n colors at i/(n-1), the resampling matplotlib applies
// for get_cmap(name, n).
func (p Palette) Discrete(n int) []color.RGBA {
	if n == 1 {
		return []color.RGBA{p.At(0.5)}
	}
	out := make([]color.RGBA, n)
	for i := range out {
		out[i] = p.At(float64(i) / float64(n-1))
	}
	return out
}

func lerp(a, b color.RGBA, t float64) color.RGBA {
	mix := func(x, y uint8) uint8 { return uint8(float64(x) + t*(float64(y)-float64(x)) + 0.5) }
	return color.RGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: 255}
}

// FromPalette discretizes palette name over the given edges: one color per
// interval, below/above clamped to the end colors unless overridden.
func FromPalette(name string, edges []float64, opts ...Option) (*Scale, error) {
	p, err := LookupPalette(name)
	if err != nil {
		return nil, err
	}
	if len(edges) < 2 {
		return nil, fmt.Errorf("palette %s needs at least 2 edges: %w", name, failure.ErrConfig)
	}
	colors := p.Discrete(len(edges) - 1)
	bins := make([]Bin, len(colors))
	for i, c := range colors {
		bins[i] = Bin{Lo: edges[i], Hi: edges[i+1], Color: c}
	}
	return New(bins, opts...)
}
