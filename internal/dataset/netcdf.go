package dataset

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"

	"github.com/ctessum/cdf"

	"climap/internal/failure"
	"climap/internal/grid"
)

var (
	lonNames = []string{"lon", "longitude", "x"}
	latNames = []string{"lat", "latitude", "y"}
)

// netcdfDefaultFill is NC_FILL_FLOAT, used by writers that omit _FillValue.
const netcdfDefaultFill = 9.9692099683868690e+36

// ReadNetCDF loads variable from a NetCDF classic file. An empty variable
// picks the first one laid out on the lon/lat dimensions.
func ReadNetCDF(path, variable string) (*grid.Field, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %v: %w", path, err, failure.ErrIO)
	}
	defer fh.Close()

	f, err := cdf.Open(fh)
	if err != nil {
		return nil, fmt.Errorf("read netcdf %s: %v: %w", path, err, failure.ErrIO)
	}
	field, err := decodeNetCDF(classicFile{f}, variable)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return field, nil
}

// ncSource is the part of a NetCDF file the decoder needs, shared by the
// classic and the HDF5-based readers.
type ncSource interface {
	Variables() []string
	Dimensions(v string) []string
	Lengths(v string) []int
	Floats(v string) ([]float64, error)
	Attribute(v, name string) any
}

type classicFile struct{ f *cdf.File }

func (c classicFile) Variables() []string          { return c.f.Header.Variables() }
func (c classicFile) Dimensions(v string) []string { return c.f.Header.Dimensions(v) }
func (c classicFile) Lengths(v string) []int       { return c.f.Header.Lengths(v) }
func (c classicFile) Attribute(v, name string) any { return c.f.Header.GetAttribute(v, name) }

// Floats reads a whole variable as float64 whatever its stored type.
func (c classicFile) Floats(name string) ([]float64, error) {
	n := 1
	for _, l := range c.f.Header.Lengths(name) {
		n *= l
	}
	if n == 0 {
		return nil, fmt.Errorf("variable %s is empty: %w", name, failure.ErrIO)
	}
	r := c.f.Reader(name, nil, nil)
	buf := r.Zero(n)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("read variable %s: %v: %w", name, err, failure.ErrIO)
	}
	out, ok := toFloats(buf)
	if !ok {
		return nil, fmt.Errorf("variable %s has unsupported type %T: %w", name, buf, failure.ErrIO)
	}
	return out, nil
}

func decodeNetCDF(src ncSource, variable string) (*grid.Field, error) {
	vars := src.Variables()
	if variable == "" {
		for _, v := range vars {
			dims := src.Dimensions(v)
			if dimIndex(dims, lonNames) >= 0 && dimIndex(dims, latNames) >= 0 {
				variable = v
				break
			}
		}
		if variable == "" {
			return nil, fmt.Errorf("no variable on lon/lat dimensions: %w", failure.ErrIO)
		}
	} else if !slices.Contains(vars, variable) {
		return nil, fmt.Errorf("variable %q not found (have %s): %w", variable, strings.Join(vars, ", "), failure.ErrIO)
	}

	dims := src.Dimensions(variable)
	lengths := src.Lengths(variable)
	lonPos, latPos := dimIndex(dims, lonNames), dimIndex(dims, latNames)
	if lonPos < 0 || latPos < 0 || len(lengths) != len(dims) {
		return nil, fmt.Errorf("variable %s has dimensions %v, want lon and lat: %w", variable, dims, failure.ErrIO)
	}
	for k, d := range dims {
		if k != lonPos && k != latPos && lengths[k] != 1 {
			return nil, fmt.Errorf("variable %s: extra dimension %s has length %d: %w", variable, d, lengths[k], failure.ErrIO)
		}
	}

	lon, err := src.Floats(dims[lonPos])
	if err != nil {
		return nil, err
	}
	lat, err := src.Floats(dims[latPos])
	if err != nil {
		return nil, err
	}
	raw, err := src.Floats(variable)
	if err != nil {
		return nil, err
	}
	if len(lon) != lengths[lonPos] || len(lat) != lengths[latPos] {
		return nil, fmt.Errorf("variable %s: coordinate lengths do not match its shape %v: %w", variable, lengths, failure.ErrIO)
	}

	stride := make([]int, len(lengths))
	s := 1
	for k := len(lengths) - 1; k >= 0; k-- {
		stride[k] = s
		s *= lengths[k]
	}
	if len(raw) != s {
		return nil, fmt.Errorf("variable %s: read %d values, want %d: %w", variable, len(raw), s, failure.ErrIO)
	}

	fill := math.NaN()
	fills := []float64{netcdfDefaultFill, float64(float32(netcdfDefaultFill))}
	for _, name := range []string{"_FillValue", "missing_value"} {
		if v, ok := attrFloat(src, variable, name); ok {
			fills = append(fills, v)
			if math.IsNaN(fill) {
				fill = v
			}
		}
	}
	scale, ok := attrFloat(src, variable, "scale_factor")
	if !ok {
		scale = 1
	}
	offset, _ := attrFloat(src, variable, "add_offset")

	nx, ny := len(lon), len(lat)
	values := make([]float64, nx*ny)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			v := raw[i*stride[lonPos]+j*stride[latPos]]
			if slices.Contains(fills, v) {
				v = math.NaN()
			} else {
				v = v*scale + offset
			}
			values[j*nx+i] = v
		}
	}

	if nx > 1 && lon[0] > lon[nx-1] {
		slices.Reverse(lon)
		for j := 0; j < ny; j++ {
			slices.Reverse(values[j*nx : (j+1)*nx])
		}
	}
	if ny > 1 && lat[0] > lat[ny-1] {
		slices.Reverse(lat)
		for j := 0; j < ny/2; j++ {
			a, b := values[j*nx:(j+1)*nx], values[(ny-1-j)*nx:(ny-j)*nx]
			for i := range a {
				a[i], b[i] = b[i], a[i]
			}
		}
	}

	field, err := grid.New(lon, lat, values)
	if err != nil {
		return nil, fmt.Errorf("variable %s: %v: %w", variable, err, failure.ErrIO)
	}
	field.Name = variable
	field.FillValue = fill
	if u, ok := src.Attribute(variable, "units").(string); ok {
		field.Units = u
	}
	return field, nil
}

func dimIndex(dims, names []string) int {
	for k, d := range dims {
		if slices.Contains(names, strings.ToLower(d)) {
			return k
		}
	}
	return -1
}

// toFloats flattens a numeric scalar or (nested) slice into float64s in
// row-major order.
func toFloats(buf any) ([]float64, bool) {
	switch v := buf.(type) {
	case []float64:
		return slices.Clone(v), true
	case []float32:
		return convert(v), true
	case []int32:
		return convert(v), true
	case []int16:
		return convert(v), true
	case []uint8:
		return convert(v), true
	}
	var out []float64
	if !flatten(reflect.ValueOf(buf), &out) {
		return nil, false
	}
	return out, true
}

func flatten(rv reflect.Value, out *[]float64) bool {
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if !flatten(rv.Index(i), out) {
				return false
			}
		}
		return true
	case reflect.Float32, reflect.Float64:
		*out = append(*out, rv.Float())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		*out = append(*out, float64(rv.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		*out = append(*out, float64(rv.Uint()))
	default:
		return false
	}
	return true
}

func convert[T float32 | int32 | int16 | uint8](v []T) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

func attrFloat(src ncSource, variable, name string) (float64, bool) {
	v, ok := toFloats(src.Attribute(variable, name))
	if !ok || len(v) == 0 {
		return 0, false
	}
	return v[0], true
}

// WriteNetCDF stores f as a NetCDF classic file with lat/lon coordinate
// variables and a float32 data variable. NaN cells are written as the fill
// value. The file appears at path only once it is complete.
func WriteNetCDF(path string, f *grid.Field) error {
	name := f.Name
	if name == "" {
		name = "value"
	}
	fill := float32(f.FillValue)
	if math.IsNaN(f.FillValue) {
		fill = float32(netcdfDefaultFill)
	}

	h := cdf.NewHeader([]string{"lat", "lon"}, []int{len(f.Lat), len(f.Lon)})
	h.AddVariable("lat", []string{"lat"}, []float64{0})
	h.AddAttribute("lat", "units", "degrees_north")
	h.AddVariable("lon", []string{"lon"}, []float64{0})
	h.AddAttribute("lon", "units", "degrees_east")
	h.AddVariable(name, []string{"lat", "lon"}, []float32{0})
	h.AddAttribute(name, "_FillValue", []float32{fill})
	if f.Units != "" {
		h.AddAttribute(name, "units", f.Units)
	}
	h.Define()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir %s: %v: %w", dir, err, failure.ErrIO)
	}
	tmp, err := os.CreateTemp(dir, ".climap-*.nc")
	if err != nil {
		return fmt.Errorf("create %s: %v: %w", path, err, failure.ErrIO)
	}
	defer os.Remove(tmp.Name())

	cf, err := cdf.Create(tmp, h)
	if err != nil {
		tmp.Close()
		return fmt.Errorf("write netcdf header %s: %v: %w", path, err, failure.ErrIO)
	}
	data := make([]float32, len(f.Values))
	for i, v := range f.Values {
		if math.IsNaN(v) {
			data[i] = fill
		} else {
			data[i] = float32(v)
		}
	}
	for _, w := range []struct {
		name string
		data any
	}{{"lat", f.Lat}, {"lon", f.Lon}, {name, data}} {
		// a writer reports io.EOF once it reaches the end of the variable
		if _, err := cf.Writer(w.name, nil, nil).Write(w.data); err != nil && !errors.Is(err, io.EOF) {
			tmp.Close()
			return fmt.Errorf("write netcdf variable %s: %v: %w", w.name, err, failure.ErrIO)
		}
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %v: %w", path, err, failure.ErrIO)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %v: %w", path, err, failure.ErrIO)
	}
	return nil
}
