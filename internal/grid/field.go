// Package grid holds gridded scalar fields on ascending lon/lat axes and the
// operations renders need on them: region subsetting, threshold masks and
// cell lookup.
package grid

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"climap/internal/failure"
	"climap/internal/geom"
)

// Field is a 2-D scalar field. Values are row-major by latitude: the value at
// lon index i and lat index j is Values[j*len(Lon)+i]. Missing cells are NaN.
type Field struct {
	Name  string
	Units string
	Lon   []float64
	Lat   []float64
	// FillValue is the marker the source used for missing cells, NaN if none.
	FillValue float64
	Values    []float64
}

// New builds a field and checks that the axes are strictly ascending and the
// value count matches them.
func New(lon, lat, values []float64) (*Field, error) {
	f := &Field{Lon: lon, Lat: lat, Values: values, FillValue: math.NaN()}
	if err := f.check(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *Field) check() error {
	if len(f.Lon) == 0 || len(f.Lat) == 0 {
		return errors.New("grid: empty coordinate axis")
	}
	if len(f.Values) != len(f.Lon)*len(f.Lat) {
		return fmt.Errorf("grid: %d values for %dx%d axes", len(f.Values), len(f.Lon), len(f.Lat))
	}
	if !ascending(f.Lon) {
		return errors.New("grid: lon axis is not strictly ascending")
	}
	if !ascending(f.Lat) {
		return errors.New("grid: lat axis is not strictly ascending")
	}
	return nil
}

func ascending(c []float64) bool {
	for i := 1; i < len(c); i++ {
		if !(c[i] > c[i-1]) {
			return false
		}
	}
	return true
}

// At returns the value at lon index i, lat index j.
func (f *Field) At(i, j int) float64 { return f.Values[j*len(f.Lon)+i] }

// Extent is the bbox spanned by the coordinate values (cell centers).
func (f *Field) Extent() geom.BBox {
	return geom.BBox{MinX: f.Lon[0], MaxX: f.Lon[len(f.Lon)-1], MinY: f.Lat[0], MaxY: f.Lat[len(f.Lat)-1]}
}

// Stats returns the finite minimum, maximum and count.
func (f *Field) Stats() (lo, hi float64, n int) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range f.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		n++
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if n == 0 {
		return math.NaN(), math.NaN(), 0
	}
	return lo, hi, n
}

// window is an inclusive index range on both axes.
type window struct{ i0, i1, j0, j1 int }

// selectWindow finds the coordinates inside b, edges included.
func selectWindow(lon, lat []float64, b geom.BBox) (window, error) {
	if err := b.Validate(); err != nil {
		return window{}, fmt.Errorf("%w: %v", failure.ErrConfig, err)
	}
	ext := geom.BBox{MinX: lon[0], MaxX: lon[len(lon)-1], MinY: lat[0], MaxY: lat[len(lat)-1]}
	if !b.Intersects(ext) {
		return window{}, fmt.Errorf("region %v outside dataset extent %v: %w", b, ext, failure.ErrDomain)
	}
	i0, i1, ok := selectRange(lon, b.MinX, b.MaxX)
	if !ok {
		return window{}, fmt.Errorf("region %v selects no longitudes: %w", b, failure.ErrEmptySelection)
	}
	j0, j1, ok := selectRange(lat, b.MinY, b.MaxY)
	if !ok {
		return window{}, fmt.Errorf("region %v selects no latitudes: %w", b, failure.ErrEmptySelection)
	}
	return window{i0: i0, i1: i1, j0: j0, j1: j1}, nil
}

func selectRange(c []float64, lo, hi float64) (int, int, bool) {
	i0 := sort.SearchFloat64s(c, lo)
	i1 := sort.Search(len(c), func(k int) bool { return c[k] > hi }) - 1
	if i0 >= len(c) || i1 < i0 {
		return 0, 0, false
	}
	return i0, i1, true
}

// Subset returns the cells whose coordinates lie within b, edges included.
// It fails with failure.ErrDomain when b misses the extent entirely and with
// failure.ErrEmptySelection when b falls between grid points.
func (f *Field) Subset(b geom.BBox) (*Field, error) {
	w, err := selectWindow(f.Lon, f.Lat, b)
	if err != nil {
		return nil, err
	}
	nx := w.i1 - w.i0 + 1
	ny := w.j1 - w.j0 + 1
	out := &Field{
		Name:      f.Name,
		Units:     f.Units,
		FillValue: f.FillValue,
		Lon:       append([]float64(nil), f.Lon[w.i0:w.i1+1]...),
		Lat:       append([]float64(nil), f.Lat[w.j0:w.j1+1]...),
		Values:    make([]float64, 0, nx*ny),
	}
	for j := w.j0; j <= w.j1; j++ {
		row := j * len(f.Lon)
		out.Values = append(out.Values, f.Values[row+w.i0:row+w.i1+1]...)
	}
	return out, nil
}

// SameGrid reports whether lon and lat match the axes of f.
func (f *Field) SameGrid(lon, lat []float64) bool {
	return equalCoords(f.Lon, lon) && equalCoords(f.Lat, lat)
}

func equalCoords(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > 1e-9*math.Max(1, math.Abs(a[i])) {
			return false
		}
	}
	return true
}
