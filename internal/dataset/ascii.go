package dataset

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"climap/internal/failure"
	"climap/internal/grid"
)

// ReadASCII loads an ESRI ASCII grid (ncols, nrows, xll/yll corner or
// center, cellsize, optional NODATA_value, then rows north to south).
func ReadASCII(path string) (*grid.Field, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %v: %w", path, err, failure.ErrIO)
	}
	defer fh.Close()
	f, err := DecodeASCII(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// DecodeASCII parses ESRI ASCII grid text.
func DecodeASCII(r io.Reader) (*grid.Field, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	sc.Split(bufio.ScanWords)

	hdr := map[string]float64{}
	var first string
	for sc.Scan() {
		tok := sc.Text()
		key := strings.ToLower(tok)
		if !isHeaderKey(key) {
			first = tok
			break
		}
		if !sc.Scan() {
			return nil, fmt.Errorf("ascii grid: header %s has no value: %w", tok, failure.ErrIO)
		}
		v, err := strconv.ParseFloat(sc.Text(), 64)
		if err != nil {
			return nil, fmt.Errorf("ascii grid: header %s: %v: %w", tok, err, failure.ErrIO)
		}
		hdr[key] = v
	}

	nx, ny := int(hdr["ncols"]), int(hdr["nrows"])
	cell := hdr["cellsize"]
	if nx <= 0 || ny <= 0 || !(cell > 0) {
		return nil, fmt.Errorf("ascii grid: need positive ncols, nrows and cellsize: %w", failure.ErrIO)
	}
	x0, okx := hdr["xllcenter"]
	if !okx {
		c, ok := hdr["xllcorner"]
		if !ok {
			return nil, fmt.Errorf("ascii grid: missing xllcorner/xllcenter: %w", failure.ErrIO)
		}
		x0 = c + cell/2
	}
	y0, oky := hdr["yllcenter"]
	if !oky {
		c, ok := hdr["yllcorner"]
		if !ok {
			return nil, fmt.Errorf("ascii grid: missing yllcorner/yllcenter: %w", failure.ErrIO)
		}
		y0 = c + cell/2
	}
	nodata, hasNodata := hdr["nodata_value"]

	values := make([]float64, nx*ny)
	n := 0
	next := func() (string, bool) {
		if first != "" {
			t := first
			first = ""
			return t, true
		}
		if !sc.Scan() {
			return "", false
		}
		return sc.Text(), true
	}
	for ; n < nx*ny; n++ {
		tok, ok := next()
		if !ok {
			break
		}
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, fmt.Errorf("ascii grid: value %d: %v: %w", n, err, failure.ErrIO)
		}
		if hasNodata && v == nodata {
			v = math.NaN()
		}
		// file rows run north to south
		row, col := ny-1-n/nx, n%nx
		values[row*nx+col] = v
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("ascii grid: %v: %w", err, failure.ErrIO)
	}
	if n != nx*ny {
		return nil, fmt.Errorf("ascii grid: got %d values, want %d: %w", n, nx*ny, failure.ErrIO)
	}

	lon := make([]float64, nx)
	for i := range lon {
		lon[i] = x0 + float64(i)*cell
	}
	lat := make([]float64, ny)
	for j := range lat {
		lat[j] = y0 + float64(j)*cell
	}
	f, err := grid.New(lon, lat, values)
	if err != nil {
		return nil, fmt.Errorf("ascii grid: %v: %w", err, failure.ErrIO)
	}
	if hasNodata {
		f.FillValue = nodata
	}
	return f, nil
}

func isHeaderKey(k string) bool {
	switch k {
	case "ncols", "nrows", "xllcorner", "yllcorner", "xllcenter", "yllcenter", "cellsize", "nodata_value":
		return true
	}
	return false
}
