// Package colorscale maps scalar values to display colors through an ordered
// set of contiguous bins.
package colorscale

import (
	"fmt"
	"image/color"
	"math"
	"sort"

	"climap/internal/failure"
)

// Bin is one value interval drawn with a single color.
type Bin struct {
	Lo, Hi float64
	Color  color.RGBA
}

// Scale is an ordered, contiguous list of bins plus the colors used outside
// them. The zero value is not usable; build one with New.
type Scale struct {
	Bins   []Bin
	Below  color.RGBA
	Above  color.RGBA
	NoData color.RGBA
	// RightClosed selects (lo, hi] bins instead of [lo, hi).
	RightClosed bool
}

// DefaultNoData is GMT's N color.
var DefaultNoData = color.RGBA{R: 128, G: 128, B: 128, A: 255}

// Option adjusts a Scale built by New.
type Option func(*Scale)

// WithBelow sets the color for values under the lowest edge.
func WithBelow(c color.RGBA) Option { return func(s *Scale) { s.Below = c } }

// WithAbove sets the color for values over the highest edge.
func WithAbove(c color.RGBA) Option { return func(s *Scale) { s.Above = c } }

// WithNoData sets the color for NaN cells.
func WithNoData(c color.RGBA) Option { return func(s *Scale) { s.NoData = c } }

// RightClosed makes every bin include its upper edge instead of its lower one.
func RightClosed() Option { return func(s *Scale) { s.RightClosed = true } }

// New validates bins and returns a scale. Below and Above default to the
// lowest and highest bin colors, NoData to DefaultNoData.
func New(bins []Bin, opts ...Option) (*Scale, error) {
	if len(bins) == 0 {
		return nil, fmt.Errorf("color scale has no bins: %w", failure.ErrConfig)
	}
	for k, b := range bins {
		if math.IsNaN(b.Lo) || math.IsNaN(b.Hi) || !(b.Lo < b.Hi) {
			return nil, fmt.Errorf("bin %d [%g, %g] is not increasing: %w", k, b.Lo, b.Hi, failure.ErrConfig)
		}
		if k == 0 {
			continue
		}
		prev := bins[k-1].Hi
		switch {
		case b.Lo < prev-edgeTolerance(prev):
			return nil, fmt.Errorf("bin %d starts at %g inside bin %d ending at %g: %w", k, b.Lo, k-1, prev, failure.ErrConfig)
		case b.Lo > prev+edgeTolerance(prev):
			return nil, fmt.Errorf("gap between bin %d ending at %g and bin %d starting at %g: %w", k-1, prev, k, b.Lo, failure.ErrConfig)
		}
	}
	s := &Scale{
		Bins:   append([]Bin(nil), bins...),
		Below:  bins[0].Color,
		Above:  bins[len(bins)-1].Color,
		NoData: DefaultNoData,
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

func edgeTolerance(v float64) float64 { return 1e-9 * math.Max(1, math.Abs(v)) }

// Edges returns the len(Bins)+1 bin boundaries.
func (s *Scale) Edges() []float64 {
	e := make([]float64, 0, len(s.Bins)+1)
	for _, b := range s.Bins {
		e = append(e, b.Lo)
	}
	return append(e, s.Bins[len(s.Bins)-1].Hi)
}

// Min and Max are the outer edges of the scale.
func (s *Scale) Min() float64 { return s.Bins[0].Lo }
func (s *Scale) Max() float64 { return s.Bins[len(s.Bins)-1].Hi }

// Index returns the bin holding v, -1 below the range, len(Bins) above it.
// The outermost edges belong to their bins in both closure modes. NaN
// returns -2.
func (s *Scale) Index(v float64) int {
	n := len(s.Bins)
	switch {
	case math.IsNaN(v):
		return -2
	case v < s.Min():
		return -1
	case v > s.Max():
		return n
	case v == s.Min():
		return 0
	case v == s.Max():
		return n - 1
	}
	if s.RightClosed {
		return sort.Search(n, func(k int) bool { return s.Bins[k].Hi >= v })
	}
	return sort.Search(n, func(k int) bool { return s.Bins[k].Hi > v })
}

// Lookup returns the display color of v. It is total: every input, NaN and
// infinities included, maps to exactly one color.
func (s *Scale) Lookup(v float64) color.RGBA {
	k := s.Index(v)
	switch {
	case k == -2:
		return s.NoData
	case k == -1:
		return s.Below
	case k == len(s.Bins):
		return s.Above
	}
	return s.Bins[k].Color
}
