package geom

import (
	"errors"
	"strconv"
	"strings"
)

// ParseWKTData returns Data for POINT, MULTIPOINT, LINESTRING, MULTILINESTRING
// and POLYGON text. Used for inline overlay geometry in figure files.
func ParseWKTData(wkt string) (Data, error) {
	s := strings.TrimSpace(wkt)
	if s == "" {
		return Data{}, errors.New("empty wkt")
	}
	up := strings.ToUpper(s)
	var d Data
	parseTuples := func(block string) [][2]float64 {
		var out [][2]float64
		for _, tup := range strings.Split(block, ",") {
			tup = strings.Trim(strings.TrimSpace(tup), "()")
			parts := strings.Fields(tup)
			if len(parts) < 2 {
				continue
			}
			x, e1 := strconv.ParseFloat(parts[0], 64)
			y, e2 := strconv.ParseFloat(parts[1], 64)
			if e1 != nil || e2 != nil {
				continue
			}
			out = append(out, [2]float64{x, y})
		}
		return out
	}
	// splitRings breaks "(a b, c d), (e f, g h)" into its parenthesized parts
	splitRings := func(block string) []string {
		norm := strings.ReplaceAll(block, "), (", "),(")
		norm = strings.ReplaceAll(norm, ") , (", "),(")
		return strings.Split(norm, "),(")
	}
	body := func(open, close string) (string, error) {
		i := strings.Index(s, open)
		j := strings.LastIndex(s, close)
		if i < 0 || j <= i {
			return "", errors.New("wkt: invalid " + strings.Fields(up)[0])
		}
		return s[i+len(open) : j], nil
	}
	switch {
	case strings.HasPrefix(up, "MULTIPOINT"):
		b, err := body("(", ")")
		if err != nil {
			return Data{}, err
		}
		for _, p := range parseTuples(b) {
			d.addPoint(p)
		}
	case strings.HasPrefix(up, "POINT"):
		b, err := body("(", ")")
		if err != nil {
			return Data{}, err
		}
		for _, p := range parseTuples(b) {
			d.addPoint(p)
		}
	case strings.HasPrefix(up, "MULTILINESTRING"):
		b, err := body("((", "))")
		if err != nil {
			return Data{}, err
		}
		for _, part := range splitRings(b) {
			d.addLine(parseTuples(part))
		}
	case strings.HasPrefix(up, "LINESTRING"):
		b, err := body("(", ")")
		if err != nil {
			return Data{}, err
		}
		d.addLine(parseTuples(b))
	case strings.HasPrefix(up, "POLYGON"):
		b, err := body("((", "))")
		if err != nil {
			return Data{}, err
		}
		var poly [][][2]float64
		for _, rp := range splitRings(b) {
			if pts := parseTuples(rp); len(pts) > 0 {
				poly = append(poly, pts)
			}
		}
		d.addPolygon(poly)
	default:
		return Data{}, errors.New("unsupported wkt type")
	}
	if d.Empty() {
		return Data{}, errors.New("wkt: no coordinates parsed")
	}
	return d, nil
}
