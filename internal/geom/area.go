package geom

import "math"

// earthRadiusKm is the IUGG mean Earth radius.
const earthRadiusKm = 6371.0088

// RingAreaKm2 returns the unsigned area of a closed lon/lat ring on a sphere.
func RingAreaKm2(ring [][2]float64) float64 {
	n := len(ring)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		a := ring[i]
		b := ring[(i+1)%n]
		dl := (b[0] - a[0]) * math.Pi / 180
		sum += dl * (2 + math.Sin(a[1]*math.Pi/180) + math.Sin(b[1]*math.Pi/180))
	}
	return math.Abs(sum) * earthRadiusKm * earthRadiusKm / 2
}

// PolygonAreaKm2 is the outer ring area minus the hole areas.
func PolygonAreaKm2(poly [][][2]float64) float64 {
	if len(poly) == 0 {
		return 0
	}
	a := RingAreaKm2(poly[0])
	for _, hole := range poly[1:] {
		a -= RingAreaKm2(hole)
	}
	return math.Max(a, 0)
}
