package grid

import (
	"fmt"
	"math"
	"strings"

	"climap/internal/failure"
	"climap/internal/geom"
)

// Direction selects which side of the threshold is flagged.
type Direction int

const (
	// FlagAbove flags v > threshold, e.g. non-significant p-values.
	FlagAbove Direction = iota + 1
	// FlagBelow flags v < threshold, e.g. non-robust cells.
	FlagBelow
)

func (d Direction) String() string {
	switch d {
	case FlagAbove:
		return "above"
	case FlagBelow:
		return "below"
	}
	return "unknown"
}

// ParseDirection accepts above/greater/gt/> and below/less/lt/<.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "above", "greater", "gt", ">":
		return FlagAbove, nil
	case "below", "less", "lt", "<":
		return FlagBelow, nil
	}
	return 0, fmt.Errorf("mask direction %q: %w", s, failure.ErrConfig)
}

// Mask is a boolean grid over the same axes as the field it came from.
type Mask struct {
	Lon   []float64
	Lat   []float64
	Flags []bool
}

// Threshold flags every cell of f strictly beyond t in direction dir.
// NaN cells are never flagged.
func Threshold(f *Field, t float64, dir Direction) *Mask {
	m := &Mask{Lon: f.Lon, Lat: f.Lat, Flags: make([]bool, len(f.Values))}
	for k, v := range f.Values {
		if math.IsNaN(v) {
			continue
		}
		switch dir {
		case FlagAbove:
			m.Flags[k] = v > t
		case FlagBelow:
			m.Flags[k] = v < t
		}
	}
	return m
}

// At reports the flag at lon index i, lat index j.
func (m *Mask) At(i, j int) bool { return m.Flags[j*len(m.Lon)+i] }

// Count is the number of flagged cells.
func (m *Mask) Count() int {
	n := 0
	for _, b := range m.Flags {
		if b {
			n++
		}
	}
	return n
}

// Subset restricts the mask to b with the same inclusive rule as Field.Subset.
func (m *Mask) Subset(b geom.BBox) (*Mask, error) {
	w, err := selectWindow(m.Lon, m.Lat, b)
	if err != nil {
		return nil, err
	}
	out := &Mask{
		Lon: append([]float64(nil), m.Lon[w.i0:w.i1+1]...),
		Lat: append([]float64(nil), m.Lat[w.j0:w.j1+1]...),
	}
	for j := w.j0; j <= w.j1; j++ {
		row := j * len(m.Lon)
		out.Flags = append(out.Flags, m.Flags[row+w.i0:row+w.i1+1]...)
	}
	return out, nil
}

// Points returns the lon/lat of every flagged cell center.
func (m *Mask) Points() [][2]float64 {
	var pts [][2]float64
	for j, lat := range m.Lat {
		for i, lon := range m.Lon {
			if m.At(i, j) {
				pts = append(pts, [2]float64{lon, lat})
			}
		}
	}
	return pts
}
