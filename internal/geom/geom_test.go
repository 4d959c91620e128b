package geom

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	ctgeom "github.com/ctessum/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"climap/internal/failure"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestBBox(t *testing.T) {
	centralAsia := BBox{MinX: 45, MaxX: 90, MinY: 30, MaxY: 56}
	require.NoError(t, centralAsia.Validate())

	t.Run("inverted bounds", func(t *testing.T) {
		assert.Error(t, BBox{MinX: 90, MaxX: 45, MinY: 30, MaxY: 56}.Validate())
		assert.Error(t, BBox{MinX: 45, MaxX: 90, MinY: 30, MaxY: 30}.Validate())
		assert.Error(t, BBox{MinX: math.NaN(), MaxX: 90, MinY: 30, MaxY: 56}.Validate())
	})

	t.Run("intersection", func(t *testing.T) {
		world := BBox{MinX: 0, MaxX: 120, MinY: -10, MaxY: 70}
		got, ok := centralAsia.Intersection(world)
		require.True(t, ok)
		assert.Equal(t, centralAsia, got)

		_, ok = BBox{MinX: 200, MaxX: 210, MinY: 80, MaxY: 85}.Intersection(world)
		assert.False(t, ok)
	})

	t.Run("edges count", func(t *testing.T) {
		assert.True(t, centralAsia.Contains(45, 56))
		assert.False(t, centralAsia.Contains(44.999, 40))
		assert.True(t, centralAsia.Intersects(BBox{MinX: 90, MaxX: 100, MinY: 0, MaxY: 30}))
	})
}

func TestProjection(t *testing.T) {
	t.Run("lookup", func(t *testing.T) {
		p, err := ProjectionByName("")
		require.NoError(t, err)
		assert.Equal(t, "platecarree", p.Name())
		p, err = ProjectionByName("Mercator")
		require.NoError(t, err)
		assert.Equal(t, "mercator", p.Name())
		_, err = ProjectionByName("robinson")
		assert.Error(t, err)
	})

	t.Run("mercator round trip", func(t *testing.T) {
		m := Mercator{}
		for _, lat := range []float64{-60, -10, 0, 34, 56, 80} {
			x, y := m.Forward(66, lat)
			lon, back := m.Inverse(x, y)
			assert.InDelta(t, 66, lon, 1e-9)
			assert.InDelta(t, lat, back, 1e-9)
		}
		_, y := m.Forward(0, 0)
		assert.InDelta(t, 0, y, 1e-12)
	})

	t.Run("viewport corners", func(t *testing.T) {
		b := BBox{MinX: 43, MaxX: 89, MinY: 34, MaxY: 56}
		for _, p := range []Projection{PlateCarree{}, Mercator{}} {
			v := NewViewport(p, b, 10, 20, 600, 300)
			x, y := v.ToPixel(43, 56)
			assert.InDelta(t, 10, x, 1e-9)
			assert.InDelta(t, 20, y, 1e-9)
			x, y = v.ToPixel(89, 34)
			assert.InDelta(t, 610, x, 1e-9)
			assert.InDelta(t, 320, y, 1e-9)
			lon, lat := v.FromPixel(310, 170)
			assert.InDelta(t, 66, lon, 1e-9)
			assert.True(t, lat > 34 && lat < 56)
		}
	})

	t.Run("mercator is taller", func(t *testing.T) {
		b := BBox{MinX: 43, MaxX: 89, MinY: 34, MaxY: 56}
		pc := NewViewport(PlateCarree{}, b, 0, 0, 1, 1)
		mc := NewViewport(Mercator{}, b, 0, 0, 1, 1)
		assert.Greater(t, mc.Aspect(), pc.Aspect())
	})
}

func TestPolygonArea(t *testing.T) {
	square := [][2]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	assert.InDelta(t, 12364, RingAreaKm2(square), 5)

	reversed := [][2]float64{{0, 1}, {1, 1}, {1, 0}, {0, 0}}
	assert.InDelta(t, RingAreaKm2(square), RingAreaKm2(reversed), 1e-6)

	hole := [][2]float64{{0.25, 0.25}, {0.75, 0.25}, {0.75, 0.75}, {0.25, 0.75}}
	withHole := PolygonAreaKm2([][][2]float64{square, hole})
	assert.InDelta(t, RingAreaKm2(square)*0.75, withHole, 5)
	assert.Zero(t, RingAreaKm2(square[:2]))
}

func TestDropSmallPolygons(t *testing.T) {
	big := [][][2]float64{{{60, 44}, {62, 44}, {62, 46}, {60, 46}}}
	small := [][][2]float64{{{70, 40}, {70.1, 40}, {70.1, 40.1}, {70, 40.1}}}
	d := Data{}
	d.addPolygon(big)
	d.addPolygon(small)
	d.addLine([][2]float64{{50, 40}, {51, 41}})

	kept := d.DropSmallPolygons(1000)
	assert.Len(t, kept.Polygons, 1)
	assert.Len(t, kept.Lines, 1)
	assert.Equal(t, 62.0, kept.Polygons[0][0][1][0])

	assert.Len(t, d.DropSmallPolygons(0).Polygons, 2)
	assert.Empty(t, d.DropSmallPolygons(1e9).Polygons)
}

func TestCullAndMerge(t *testing.T) {
	var a, b Data
	a.addLine([][2]float64{{50, 40}, {55, 45}})
	b.addLine([][2]float64{{-100, 40}, {-90, 45}})
	b.addPoint([2]float64{66, 49})

	m := a.Merge(b)
	assert.Len(t, m.Lines, 2)
	assert.Len(t, m.Points, 1)
	assert.Equal(t, BBox{MinX: -100, MinY: 40, MaxX: 66, MaxY: 49}, m.BBox)

	c := m.Cull(BBox{MinX: 45, MaxX: 90, MinY: 30, MaxY: 56})
	assert.Len(t, c.Lines, 1)
	assert.Len(t, c.Points, 1)
}

func TestLoadGeo(t *testing.T) {
	t.Run("feature collection", func(t *testing.T) {
		p := writeFile(t, "borders.geojson", `{"type":"FeatureCollection","features":[
			{"type":"Feature","properties":{"name":"KAZ-UZB"},"geometry":{"type":"LineString","coordinates":[[56,45],[58,45.5],[60,44]]}},
			{"type":"Feature","geometry":{"type":"MultiPolygon","coordinates":[[[[58,44],[61,44],[61,46],[58,46],[58,44]]]]}},
			{"type":"Feature","geometry":{"type":"Point","coordinates":[66,49]}}
		]}`)
		d, err := LoadGeo(p)
		require.NoError(t, err)
		assert.Len(t, d.Lines, 1)
		assert.Len(t, d.Polygons, 1)
		assert.Len(t, d.Points, 1)
		assert.Equal(t, BBox{MinX: 56, MinY: 44, MaxX: 66, MaxY: 49}, d.BBox)
	})

	t.Run("bare geometry", func(t *testing.T) {
		d, err := DecodeGeo([]byte(`{"type":"MultiLineString","coordinates":[[[1,2],[3,4]],[[5,6],[7,8]]]}`))
		require.NoError(t, err)
		assert.Len(t, d.Lines, 2)
	})

	t.Run("geometry collection and null geometry", func(t *testing.T) {
		d, err := DecodeGeo([]byte(`{"type":"FeatureCollection","features":[
			{"type":"Feature","geometry":null},
			{"type":"Feature","geometry":{"type":"GeometryCollection","geometries":[
				{"type":"MultiPoint","coordinates":[[70,40,1200],[71,41]]},
				{"type":"Polygon","coordinates":[[[0,0],[4,0],[4,4],[0,4],[0,0]],[[1,1],[2,1],[2,2],[1,1]]]}
			]}}
		]}`))
		require.NoError(t, err)
		assert.Equal(t, [][2]float64{{70, 40}, {71, 41}}, d.Points, "altitude dropped")
		require.Len(t, d.Polygons, 1)
		assert.Len(t, d.Polygons[0], 2, "outer ring and hole")
		assert.Equal(t, BBox{MinX: 0, MinY: 0, MaxX: 71, MaxY: 41}, d.BBox)
	})

	t.Run("malformed coordinates", func(t *testing.T) {
		_, err := DecodeGeo([]byte(`{"type":"LineString","coordinates":[[1,2],"x"]}`))
		assert.ErrorIs(t, err, failure.ErrIO)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadGeo(filepath.Join(t.TempDir(), "none.geojson"))
		assert.ErrorIs(t, err, failure.ErrIO)
	})

	t.Run("no geometry", func(t *testing.T) {
		_, err := DecodeGeo([]byte(`{"type":"FeatureCollection","features":[]}`))
		assert.ErrorIs(t, err, failure.ErrIO)
	})
}

func TestParseWKTData(t *testing.T) {
	d, err := ParseWKTData("POLYGON((0 0, 4 0, 4 4, 0 4, 0 0), (1 1, 2 1, 2 2, 1 1))")
	require.NoError(t, err)
	require.Len(t, d.Polygons, 1)
	assert.Len(t, d.Polygons[0], 2)

	d, err = ParseWKTData("MULTILINESTRING((0 0, 1 1), (2 2, 3 3))")
	require.NoError(t, err)
	assert.Len(t, d.Lines, 2)

	d, err = ParseWKTData("MULTIPOINT((1 2), (3 4))")
	require.NoError(t, err)
	assert.Len(t, d.Points, 2)

	d, err = ParseWKTData("linestring(66 49, 63 42)")
	require.NoError(t, err)
	assert.Equal(t, BBox{MinX: 63, MinY: 42, MaxX: 66, MaxY: 49}, d.BBox)

	_, err = ParseWKTData("")
	assert.Error(t, err)
	_, err = ParseWKTData("CIRCULARSTRING(0 0, 1 1, 2 0)")
	assert.Error(t, err)
	_, err = ParseWKTData("POINT(a b)")
	assert.Error(t, err)
}

func TestAppendGeom(t *testing.T) {
	var d Data
	appendGeom(&d, ctgeom.Polygon{{{X: 60, Y: 44}, {X: 61, Y: 44}, {X: 61, Y: 45}}})
	appendGeom(&d, ctgeom.MultiLineString{{{X: 50, Y: 40}, {X: 51, Y: 41}}})
	appendGeom(&d, ctgeom.Point{X: 66, Y: 49})
	assert.Len(t, d.Polygons, 1)
	assert.Len(t, d.Lines, 1)
	assert.Len(t, d.Points, 1)
	assert.Equal(t, BBox{MinX: 50, MinY: 40, MaxX: 66, MaxY: 49}, d.BBox)
}

func TestLoadLabelsCSV(t *testing.T) {
	p := writeFile(t, "countries.csv", "Country,Longitude,Latitude\nKazakhstan,66,49\nUzbekistan, 63 ,42\nbroken,x,1\n")
	labels, err := LoadLabelsCSV(p)
	require.NoError(t, err)
	assert.Equal(t, []Placemark{{Name: "Kazakhstan", Lon: 66, Lat: 49}, {Name: "Uzbekistan", Lon: 63, Lat: 42}}, labels)

	_, err = LoadLabelsCSV(writeFile(t, "bad.csv", "a,b\n1,2\n"))
	assert.ErrorIs(t, err, failure.ErrConfig)

	_, err = LoadLabelsCSV(filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorIs(t, err, failure.ErrIO)
}

func TestLoadLabelsKML(t *testing.T) {
	p := writeFile(t, "places.kml", `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2"><Document>
  <Placemark><name>Kyrgyzstan</name><Point><coordinates>74,42,0</coordinates></Point></Placemark>
  <Folder><Placemark><name>Tajikistan</name><Point><coordinates>71,38</coordinates></Point></Placemark></Folder>
  <Placemark><name>no point</name></Placemark>
</Document></kml>`)
	labels, err := LoadLabelsKML(p)
	require.NoError(t, err)
	assert.ElementsMatch(t, []Placemark{{Name: "Kyrgyzstan", Lon: 74, Lat: 42}, {Name: "Tajikistan", Lon: 71, Lat: 38}}, labels)
}

func TestClipLine(t *testing.T) {
	box := BBox{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10}

	in := ClipLine([][2]float64{{1, 1}, {5, 5}, {9, 1}}, box)
	assert.Equal(t, [][][2]float64{{{1, 1}, {5, 5}, {9, 1}}}, in)

	across := ClipLine([][2]float64{{-5, 5}, {15, 5}}, box)
	assert.Equal(t, [][][2]float64{{{0, 5}, {10, 5}}}, across)

	// leaves through the top and comes back
	pieces := ClipLine([][2]float64{{2, 8}, {2, 12}, {8, 12}, {8, 8}}, box)
	require.Len(t, pieces, 2)
	assert.Equal(t, [][2]float64{{2, 8}, {2, 10}}, pieces[0])
	assert.Equal(t, [][2]float64{{8, 10}, {8, 8}}, pieces[1])

	assert.Empty(t, ClipLine([][2]float64{{20, 20}, {30, 30}}, box))
}

func TestClipPolygon(t *testing.T) {
	box := BBox{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10}
	square := [][2]float64{{5, 5}, {15, 5}, {15, 15}, {5, 15}}
	got := ClipRing(square, box)
	require.Len(t, got, 4)
	for _, p := range got {
		assert.True(t, box.Contains(p[0], p[1]), "%v", p)
	}
	assert.InDelta(t, 25.0, planarArea(got), 1e-9)

	assert.Nil(t, ClipPolygon([][][2]float64{{{20, 20}, {30, 20}, {30, 30}}}, box))

	withHole := [][][2]float64{
		{{1, 1}, {9, 1}, {9, 9}, {1, 9}},
		{{20, 20}, {21, 20}, {21, 21}},
	}
	assert.Len(t, ClipPolygon(withHole, box), 1)
}

func planarArea(r [][2]float64) float64 {
	s := 0.0
	for i := range r {
		j := (i + 1) % len(r)
		s += r[i][0]*r[j][1] - r[j][0]*r[i][1]
	}
	return math.Abs(s) / 2
}
