package geom

import (
	"encoding/json"
	"fmt"
	"os"

	"climap/internal/failure"
)

// LoadGeo reads a GeoJSON file and returns Data (points, lines, polygons)
func LoadGeo(path string) (Data, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Data{}, fmt.Errorf("geojson %s: %w: %v", path, failure.ErrIO, err)
	}
	d, err := DecodeGeo(data)
	if err != nil {
		return Data{}, fmt.Errorf("geojson %s: %w", path, err)
	}
	return d, nil
}

// geoObject covers every GeoJSON object type; only the fields of the actual
// type are set.
type geoObject struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
	Geometries  []geoObject     `json:"geometries"`
	Geometry    *geoObject      `json:"geometry"`
	Features    []geoObject     `json:"features"`
}

// DecodeGeo parses GeoJSON bytes: a geometry, a Feature or a FeatureCollection.
func DecodeGeo(data []byte) (Data, error) {
	var obj geoObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return Data{}, fmt.Errorf("%w: %v", failure.ErrIO, err)
	}
	var d Data
	if err := d.addGeo(obj); err != nil {
		return Data{}, err
	}
	if d.Empty() {
		return Data{}, fmt.Errorf("no geometries found: %w", failure.ErrIO)
	}
	return d, nil
}

func (d *Data) addGeo(g geoObject) error {
	switch g.Type {
	case "FeatureCollection":
		for _, f := range g.Features {
			if err := d.addGeo(f); err != nil {
				return err
			}
		}
	case "Feature":
		// null geometry is allowed for unlocated features
		if g.Geometry != nil {
			return d.addGeo(*g.Geometry)
		}
	case "GeometryCollection":
		for _, sub := range g.Geometries {
			if err := d.addGeo(sub); err != nil {
				return err
			}
		}
	case "Point":
		var c []float64
		if err := coords(g, &c); err != nil {
			return err
		}
		d.addPositions([][]float64{c})
	case "MultiPoint":
		var c [][]float64
		if err := coords(g, &c); err != nil {
			return err
		}
		d.addPositions(c)
	case "LineString":
		var c [][]float64
		if err := coords(g, &c); err != nil {
			return err
		}
		d.addPath(c)
	case "MultiLineString":
		var c [][][]float64
		if err := coords(g, &c); err != nil {
			return err
		}
		for _, ls := range c {
			d.addPath(ls)
		}
	case "Polygon":
		var c [][][]float64
		if err := coords(g, &c); err != nil {
			return err
		}
		d.addRings(c)
	case "MultiPolygon":
		var c [][][][]float64
		if err := coords(g, &c); err != nil {
			return err
		}
		for _, poly := range c {
			d.addRings(poly)
		}
	}
	return nil
}

func coords(g geoObject, dst any) error {
	if len(g.Coordinates) == 0 {
		return nil
	}
	if err := json.Unmarshal(g.Coordinates, dst); err != nil {
		return fmt.Errorf("%s coordinates: %w: %v", g.Type, failure.ErrIO, err)
	}
	return nil
}
