package geom

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"climap/internal/failure"
)

// Placemark is a named lon/lat position, used for map labels.
type Placemark struct {
	Name string
	Lon  float64
	Lat  float64
}

// LoadLabelsCSV reads a CSV with name and latitude/longitude columns.
// Column detection: name|label|text|country, lat|latitude|y and
// lon|lng|long|longitude|x (case-insensitive).
func LoadLabelsCSV(path string) ([]Placemark, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("labels %s: %w: %v", path, failure.ErrIO, err)
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1
	recs, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("labels %s: %w: %v", path, failure.ErrIO, err)
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("labels %s: %w: %v", path, failure.ErrIO, errors.New("empty csv"))
	}
	idxName, idxLat, idxLon := -1, -1, -1
	for i, h := range recs[0] {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "name", "label", "text", "country":
			if idxName == -1 {
				idxName = i
			}
		case "lat", "latitude", "y":
			if idxLat == -1 {
				idxLat = i
			}
		case "lon", "lng", "long", "longitude", "x":
			if idxLon == -1 {
				idxLon = i
			}
		}
	}
	if idxName == -1 || idxLat == -1 || idxLon == -1 {
		return nil, fmt.Errorf("labels %s: name/latitude/longitude columns not found: %w", path, failure.ErrConfig)
	}
	var out []Placemark
	for _, row := range recs[1:] {
		if idxLon >= len(row) || idxLat >= len(row) || idxName >= len(row) {
			continue
		}
		lon, err1 := strconv.ParseFloat(strings.TrimSpace(row[idxLon]), 64)
		lat, err2 := strconv.ParseFloat(strings.TrimSpace(row[idxLat]), 64)
		if err1 != nil || err2 != nil {
			continue
		}
		out = append(out, Placemark{Name: strings.TrimSpace(row[idxName]), Lon: lon, Lat: lat})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("labels %s: no valid rows parsed: %w", path, failure.ErrConfig)
	}
	return out, nil
}
