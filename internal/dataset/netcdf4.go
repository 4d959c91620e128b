package dataset

import (
	"fmt"
	"reflect"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"

	"climap/internal/failure"
	"climap/internal/grid"
)

// ReadNetCDF4 loads variable from a NetCDF-4 (HDF5) file, the format GMT
// serves its remote relief grids in. Only the root group is searched.
func ReadNetCDF4(path, variable string) (*grid.Field, error) {
	g, err := netcdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read netcdf-4 %s: %v: %w", path, err, failure.ErrIO)
	}
	defer g.Close()

	field, err := decodeNetCDF(&hdf5Group{g: g, vars: map[string]*api.Variable{}}, variable)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return field, nil
}

// hdf5Group adapts an api.Group to ncSource. Variables are read whole on
// first use and kept for the lifetime of one decode.
type hdf5Group struct {
	g    api.Group
	vars map[string]*api.Variable
}

func (h *hdf5Group) Variables() []string { return h.g.ListVariables() }

func (h *hdf5Group) variable(name string) *api.Variable {
	if v, ok := h.vars[name]; ok {
		return v
	}
	v, err := h.g.GetVariable(name)
	if err != nil {
		v = nil
	}
	h.vars[name] = v
	return v
}

func (h *hdf5Group) Dimensions(name string) []string {
	if v := h.variable(name); v != nil {
		return v.Dimensions
	}
	return nil
}

// Lengths walks the nested slices the library returns for n-d variables.
func (h *hdf5Group) Lengths(name string) []int {
	v := h.variable(name)
	if v == nil {
		return nil
	}
	var out []int
	rv := reflect.ValueOf(v.Values)
	for rv.Kind() == reflect.Slice && len(out) < len(v.Dimensions) {
		out = append(out, rv.Len())
		if rv.Len() == 0 {
			break
		}
		rv = rv.Index(0)
	}
	return out
}

func (h *hdf5Group) Floats(name string) ([]float64, error) {
	v := h.variable(name)
	if v == nil {
		return nil, fmt.Errorf("variable %s not readable: %w", name, failure.ErrIO)
	}
	out, ok := toFloats(v.Values)
	if !ok {
		return nil, fmt.Errorf("variable %s has unsupported type %T: %w", name, v.Values, failure.ErrIO)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("variable %s is empty: %w", name, failure.ErrIO)
	}
	return out, nil
}

func (h *hdf5Group) Attribute(name, attr string) any {
	v := h.variable(name)
	if v == nil || v.Attributes == nil {
		return nil
	}
	val, ok := v.Attributes.Get(attr)
	if !ok {
		return nil
	}
	return val
}
