package grid

import (
	"math"
	"sort"
)

// Edges returns the cell boundaries around ascending centers: midpoints
// between neighbours, extended by half a spacing at both ends. A single
// center gets a one-unit cell.
func Edges(c []float64) []float64 {
	n := len(c)
	e := make([]float64, n+1)
	if n == 1 {
		e[0], e[1] = c[0]-0.5, c[0]+0.5
		return e
	}
	for k := 1; k < n; k++ {
		e[k] = (c[k-1] + c[k]) / 2
	}
	e[0] = c[0] - (c[1]-c[0])/2
	e[n] = c[n-1] + (c[n-1]-c[n-2])/2
	return e
}

// Locate returns the cell index whose [e[k], e[k+1]) interval holds v; the
// last edge is inclusive.
func Locate(e []float64, v float64) (int, bool) {
	n := len(e) - 1
	if math.IsNaN(v) || v < e[0] || v > e[n] {
		return 0, false
	}
	k := sort.SearchFloat64s(e, v)
	// SearchFloat64s gives the first edge >= v
	if k <= n && e[k] == v {
		if k == n {
			return n - 1, true
		}
		return k, true
	}
	return k - 1, true
}

// Locator resolves lon/lat positions to cells of one grid.
type Locator struct {
	lonEdges []float64
	latEdges []float64
}

// NewLocator precomputes the cell edges of f.
func NewLocator(f *Field) *Locator {
	return &Locator{lonEdges: Edges(f.Lon), latEdges: Edges(f.Lat)}
}

// Cell returns the lon and lat indices of the cell containing (lon, lat).
func (l *Locator) Cell(lon, lat float64) (i, j int, ok bool) {
	i, ok = Locate(l.lonEdges, lon)
	if !ok {
		return 0, 0, false
	}
	j, ok = Locate(l.latEdges, lat)
	if !ok {
		return 0, 0, false
	}
	return i, j, true
}

// Bounds is the outer edge box of the grid cells.
func (l *Locator) Bounds() (minLon, maxLon, minLat, maxLat float64) {
	return l.lonEdges[0], l.lonEdges[len(l.lonEdges)-1], l.latEdges[0], l.latEdges[len(l.latEdges)-1]
}

// Col returns the lon index of the cell column containing lon.
func (l *Locator) Col(lon float64) (int, bool) { return Locate(l.lonEdges, lon) }

// Row returns the lat index of the cell row containing lat.
func (l *Locator) Row(lat float64) (int, bool) { return Locate(l.latEdges, lat) }
