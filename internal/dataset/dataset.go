// Package dataset loads gridded inputs into grid fields: NetCDF classic and
// NetCDF-4 files, ESRI ASCII grids, and remote grids fetched once into a
// local cache.
package dataset

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"climap/internal/failure"
	"climap/internal/grid"
)

// Open loads variable from path, picking the reader by extension. variable
// is ignored for formats that hold a single field.
func Open(path, variable string) (*grid.Field, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".nc", ".nc3", ".cdf", ".netcdf":
		if sniff(path) == formatHDF5 {
			return ReadNetCDF4(path, variable)
		}
		return ReadNetCDF(path, variable)
	case ".asc":
		return ReadASCII(path)
	case ".grd":
		// GMT writes NetCDF grids under .grd; older tools write ESRI ASCII
		switch sniff(path) {
		case formatNetCDF:
			return ReadNetCDF(path, variable)
		case formatHDF5:
			return ReadNetCDF4(path, variable)
		}
		return ReadASCII(path)
	default:
		return nil, fmt.Errorf("unsupported dataset format %q for %s: %w", ext, path, failure.ErrConfig)
	}
}

type format int

const (
	formatUnknown format = iota
	formatNetCDF
	formatHDF5
)

var (
	netcdfMagic = [][]byte{[]byte("CDF\x01"), []byte("CDF\x02")}
	hdf5Magic   = []byte("\x89HDF\r\n\x1a\n")
)

// sniff reads the leading bytes of path. Unreadable files report
// formatUnknown and fail later in the reader with a proper error.
func sniff(path string) format {
	f, err := os.Open(path)
	if err != nil {
		return formatUnknown
	}
	defer f.Close()
	head := make([]byte, len(hdf5Magic))
	n, _ := io.ReadFull(f, head)
	head = head[:n]
	for _, m := range netcdfMagic {
		if bytes.HasPrefix(head, m) {
			return formatNetCDF
		}
	}
	if bytes.Equal(head, hdf5Magic) {
		return formatHDF5
	}
	return formatUnknown
}
