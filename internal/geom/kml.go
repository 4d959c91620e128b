package geom

import (
	"encoding/xml"
	"fmt"
	"os"
	"strconv"
	"strings"

	"climap/internal/failure"
)

// LoadLabelsKML extracts named points from a KML file (Placemark > name, Point > coordinates).
// KML coordinates are "lon,lat[,alt]"; we ignore altitude.
func LoadLabelsKML(path string) ([]Placemark, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("labels %s: %w: %v", path, failure.ErrIO, err)
	}

	type kmlPoint struct {
		Coordinates string `xml:"coordinates"`
	}
	type kmlPlacemark struct {
		Name  string    `xml:"name"`
		Point *kmlPoint `xml:"Point"`
	}
	type kmlFolder struct {
		Placemarks []kmlPlacemark `xml:"Placemark"`
	}
	type kmlDoc struct {
		Placemarks []kmlPlacemark `xml:"Document>Placemark"`
		Folders    []kmlFolder    `xml:"Document>Folder"`
		Top        []kmlPlacemark `xml:"Placemark"`
	}

	var doc kmlDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("labels %s: %w: %v", path, failure.ErrIO, err)
	}
	all := append(doc.Top, doc.Placemarks...)
	for _, f := range doc.Folders {
		all = append(all, f.Placemarks...)
	}
	var out []Placemark
	for _, pm := range all {
		if pm.Point == nil {
			continue
		}
		// only the first tuple of a Point is meaningful
		parts := strings.Fields(pm.Point.Coordinates)
		if len(parts) == 0 {
			continue
		}
		vals := strings.Split(parts[0], ",")
		if len(vals) < 2 {
			continue
		}
		lon, err1 := strconv.ParseFloat(strings.TrimSpace(vals[0]), 64)
		lat, err2 := strconv.ParseFloat(strings.TrimSpace(vals[1]), 64)
		if err1 != nil || err2 != nil {
			continue
		}
		out = append(out, Placemark{Name: strings.TrimSpace(pm.Name), Lon: lon, Lat: lat})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("labels %s: kml has no point placemarks: %w", path, failure.ErrConfig)
	}
	return out, nil
}
