package grid

import "math"

const (
	metersPerDegLat = 110574.0
	metersPerDegLon = 111320.0
)

// Hillshade computes a Lambertian illumination in [0, 1] for every cell,
// treating values as elevations in meters and lighting from azimuth and
// altitude in degrees. Missing cells get 1 so they stay unshaded.
func Hillshade(f *Field, azimuth, altitude, zFactor float64) []float64 {
	nx, ny := len(f.Lon), len(f.Lat)
	out := make([]float64, len(f.Values))
	zen := (90 - altitude) * math.Pi / 180
	az := math.Mod(360-azimuth+90, 360) * math.Pi / 180
	at := func(i, j int) float64 {
		i = max(0, min(nx-1, i))
		j = max(0, min(ny-1, j))
		return f.At(i, j)
	}
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			center := f.At(i, j)
			if math.IsNaN(center) || nx < 2 || ny < 2 {
				out[j*nx+i] = 1
				continue
			}
			il, ir := max(0, i-1), min(nx-1, i+1)
			jd, ju := max(0, j-1), min(ny-1, j+1)
			dx := (f.Lon[ir] - f.Lon[il]) * metersPerDegLon * math.Cos(f.Lat[j]*math.Pi/180)
			dy := (f.Lat[ju] - f.Lat[jd]) * metersPerDegLat
			east, west := at(ir, j), at(il, j)
			north, south := at(i, ju), at(i, jd)
			if math.IsNaN(east) || math.IsNaN(west) || math.IsNaN(north) || math.IsNaN(south) || dx == 0 || dy == 0 {
				out[j*nx+i] = 1
				continue
			}
			dzdx := zFactor * (east - west) / dx
			dzdy := zFactor * (north - south) / dy
			slope := math.Atan(math.Hypot(dzdx, dzdy))
			aspect := math.Atan2(dzdy, -dzdx)
			v := math.Cos(zen)*math.Cos(slope) + math.Sin(zen)*math.Sin(slope)*math.Cos(az-aspect)
			out[j*nx+i] = math.Max(0, math.Min(1, v))
		}
	}
	return out
}
