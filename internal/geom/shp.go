package geom

import (
	"fmt"

	ctgeom "github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"

	"climap/internal/failure"
)

// LoadShapefile reads every record of an ESRI shapefile (Natural Earth
// borders, coastlines, lakes) into Data.
func LoadShapefile(path string) (Data, error) {
	dec, err := shp.NewDecoder(path)
	if err != nil {
		return Data{}, fmt.Errorf("shapefile %s: %w: %v", path, failure.ErrIO, err)
	}
	defer dec.Close()
	var d Data
	for {
		g, _, more := dec.DecodeRowFields()
		if !more {
			break
		}
		appendGeom(&d, g)
	}
	if err := dec.Error(); err != nil {
		return Data{}, fmt.Errorf("shapefile %s: %w: %v", path, failure.ErrIO, err)
	}
	if d.Empty() {
		return Data{}, fmt.Errorf("shapefile %s: no geometries found: %w", path, failure.ErrIO)
	}
	return d, nil
}

func appendGeom(d *Data, g ctgeom.Geom) {
	switch t := g.(type) {
	case ctgeom.Point:
		d.addPoint([2]float64{t.X, t.Y})
	case ctgeom.MultiPoint:
		for _, p := range t {
			d.addPoint([2]float64{p.X, p.Y})
		}
	case ctgeom.LineString:
		d.addLine(pathCoords(t))
	case ctgeom.MultiLineString:
		for _, ls := range t {
			d.addLine(pathCoords(ls))
		}
	case ctgeom.Polygon:
		d.addPolygon(polygonCoords(t))
	case ctgeom.MultiPolygon:
		for _, p := range t {
			d.addPolygon(polygonCoords(p))
		}
	}
}

func pathCoords(pts []ctgeom.Point) [][2]float64 {
	out := make([][2]float64, len(pts))
	for i, p := range pts {
		out[i] = [2]float64{p.X, p.Y}
	}
	return out
}

func polygonCoords(p ctgeom.Polygon) [][][2]float64 {
	out := make([][][2]float64, 0, len(p))
	for _, ring := range p {
		if len(ring) > 0 {
			out = append(out, pathCoords(ring))
		}
	}
	return out
}
