package figure

import (
	"context"
	"image"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"climap/internal/colorscale"
	"climap/internal/config"
	"climap/internal/dataset"
	"climap/internal/failure"
	"climap/internal/grid"
	"climap/internal/observability"
	"climap/internal/render"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr(v float64) *float64 { return &v }

// writeGrid stores a 10x10 one-degree grid over 60-70E, 40-50N.
func writeGrid(t *testing.T, path string, value func(i, j int) float64) {
	t.Helper()
	lon := make([]float64, 10)
	lat := make([]float64, 10)
	for k := range lon {
		lon[k] = 60.5 + float64(k)
		lat[k] = 40.5 + float64(k)
	}
	vals := make([]float64, 100)
	for j := range lat {
		for i := range lon {
			vals[j*10+i] = value(i, j)
		}
	}
	f, err := grid.New(lon, lat, vals)
	require.NoError(t, err)
	require.NoError(t, dataset.WriteNetCDF(path, f))
}

type inputs struct {
	dir, field, mask, labels string
}

func writeInputs(t *testing.T) inputs {
	t.Helper()
	dir := t.TempDir()
	in := inputs{
		dir:    dir,
		field:  filepath.Join(dir, "trend.nc"),
		mask:   filepath.Join(dir, "pvalue.nc"),
		labels: filepath.Join(dir, "labels.csv"),
	}
	writeGrid(t, in.field, func(i, j int) float64 { return float64(i-5) * 0.05 })
	writeGrid(t, in.mask, func(i, _ int) float64 {
		if i < 5 {
			return 0.2
		}
		return 0.01
	})
	require.NoError(t, os.WriteFile(in.labels, []byte("name,lon,lat\nAral,61,45\n"), 0o644))
	return in
}

func trendFigure(in inputs, output string) config.Figure {
	return config.Figure{
		Name:   "pr_trend",
		Region: config.Region{Lon: []float64{60, 70}, Lat: []float64{40, 50}},
		Field:  config.Source{Path: in.field, Variable: "value"},
		Mask: &config.Mask{
			Source:    config.Source{Path: in.mask},
			Threshold: 0.1,
			Flag:      "above",
		},
		Colors: config.Colors{Palette: "BrBG", Start: ptr(-0.4), Stop: ptr(0.4), N: 17},
		Overlays: []config.Overlay{
			{Name: "box", WKT: "LINESTRING (61 41, 69 49)", Width: 0.5},
			{Name: "lake", WKT: "POLYGON ((62 42, 64 42, 64 44, 62 44, 62 42))", Fill: "#cfe6f5"},
		},
		Labels: config.Labels{
			Items: []config.Label{{Text: "Kazakhstan", Lon: 66, Lat: 48}},
			Files: []string{in.labels},
			Size:  8,
		},
		Output:        output,
		Title:         "Trend",
		ColorbarLabel: "mm/day",
		DPI:           30,
		MapWidth:      3,
	}
}

func TestBuildScale(t *testing.T) {
	t.Run("linspace palette", func(t *testing.T) {
		s, err := BuildScale(config.Colors{Palette: "BrBG", Start: ptr(-0.4), Stop: ptr(0.4), N: 17})
		require.NoError(t, err)
		assert.Len(t, s.Bins, 16)
		assert.InDelta(t, -0.4, s.Min(), 1e-12)
		assert.InDelta(t, 0.4, s.Max(), 1e-12)
	})
	t.Run("arange palette", func(t *testing.T) {
		s, err := BuildScale(config.Colors{Palette: "viridis", Start: ptr(0), Stop: ptr(1), Step: 0.25, RightClosed: true})
		require.NoError(t, err)
		assert.Len(t, s.Bins, 4)
		assert.True(t, s.RightClosed)
	})
	t.Run("explicit bins with overflow colors", func(t *testing.T) {
		s, err := BuildScale(config.Colors{
			Bins:  []config.Bin{{Lo: 0, Hi: 1, Color: "red"}, {Lo: 1, Hi: 2, Color: "0/0/255"}},
			Below: "white",
			Above: "black",
		})
		require.NoError(t, err)
		assert.Equal(t, uint8(255), s.Below.R)
		assert.Equal(t, uint8(0), s.Above.R)
		assert.Equal(t, uint8(255), s.Bins[1].Color.B)
	})
	t.Run("inline cpt", func(t *testing.T) {
		s, err := BuildScale(config.Colors{CPT: "0 white 10 black\n10 black 20 red\nN gray\n"})
		require.NoError(t, err)
		assert.Equal(t, []float64{0, 10, 20}, s.Edges())
	})
	t.Run("missing cpt file", func(t *testing.T) {
		_, err := BuildScale(config.Colors{CPTFile: filepath.Join(t.TempDir(), "none.cpt")})
		require.ErrorIs(t, err, failure.ErrIO)
	})
	t.Run("bad color", func(t *testing.T) {
		_, err := BuildScale(config.Colors{Palette: "BrBG", Edges: []float64{0, 1}, NoData: "chartreuse-ish"})
		require.ErrorIs(t, err, failure.ErrConfig)
	})
	t.Run("unknown palette", func(t *testing.T) {
		_, err := BuildScale(config.Colors{Palette: "jet", Edges: []float64{0, 1}})
		require.ErrorIs(t, err, failure.ErrConfig)
	})
}

func TestBuild(t *testing.T) {
	in := writeInputs(t)
	env := Env{Settings: &config.Settings{OutputDir: filepath.Join(in.dir, "out")}}

	plan, err := Build(context.Background(), trendFigure(in, "trend.png"), env)
	require.NoError(t, err)

	req := plan.Request
	assert.Equal(t, render.BackendRaster, plan.Backend)
	assert.Equal(t, filepath.Join(in.dir, "out", "trend.png"), req.Output)
	assert.Equal(t, 60.0, req.Bounds.MinX)
	assert.Equal(t, 50.0, req.Bounds.MaxY)
	require.NotNil(t, req.Mask)
	assert.Equal(t, 50, req.Mask.Count())
	require.Len(t, req.Overlays, 2)
	assert.Equal(t, uint8(255), req.Overlays[0].Stroke.A, "outline-only overlays default to black")
	assert.Equal(t, uint8(0), req.Overlays[1].Stroke.A, "filled overlays have no stroke")
	require.Len(t, req.Labels, 2)
	assert.Equal(t, "Aral", req.Labels[1].Text)
	assert.Equal(t, 8.0, req.Labels[1].Size)
	assert.Nil(t, req.Shading)
}

func TestBuildShadingDefaults(t *testing.T) {
	in := writeInputs(t)
	fig := trendFigure(in, filepath.Join(in.dir, "a.pdf"))
	fig.Shading = &config.Shading{Intensity: 0.8}
	fig.Projection = "mercator"

	plan, err := Build(context.Background(), fig, Env{})
	require.NoError(t, err)
	assert.Equal(t, render.BackendVector, plan.Backend)
	assert.Equal(t, "mercator", plan.Request.Projection.Name())
	require.NotNil(t, plan.Request.Shading)
	assert.Equal(t, render.Shading{Azimuth: 315, Altitude: 45, ZFactor: 1, Intensity: 0.8}, *plan.Request.Shading)
}

func TestBuildErrors(t *testing.T) {
	in := writeInputs(t)
	tests := []struct {
		name   string
		modify func(*config.Figure)
		want   error
	}{
		{"output format", func(f *config.Figure) { f.Output = "trend.bmp" }, failure.ErrConfig},
		{"backend mismatch", func(f *config.Figure) { f.Backend = "raster"; f.Output = "trend.pdf" }, failure.ErrConfig},
		{"projection", func(f *config.Figure) { f.Projection = "robinson" }, failure.ErrConfig},
		{"missing field", func(f *config.Figure) { f.Field.Path = filepath.Join(in.dir, "nope.nc") }, failure.ErrIO},
		{"missing variable", func(f *config.Figure) { f.Field.Variable = "tas" }, failure.ErrIO},
		{"mask flag", func(f *config.Figure) { f.Mask.Flag = "sideways" }, failure.ErrConfig},
		{"overlay format", func(f *config.Figure) { f.Overlays = []config.Overlay{{Name: "x", File: "x.gpx"}} }, failure.ErrConfig},
		{"overlay wkt", func(f *config.Figure) { f.Overlays = []config.Overlay{{Name: "x", WKT: "CIRCLE (1 2)"}} }, failure.ErrConfig},
		{"label file", func(f *config.Figure) { f.Labels.Files = []string{filepath.Join(in.dir, "l.txt")} }, failure.ErrConfig},
		{"region", func(f *config.Figure) { f.Region.Lat = nil }, failure.ErrConfig},
		{"url without fetcher", func(f *config.Figure) { f.Field = config.Source{URL: "http://example.invalid/a.nc"} }, failure.ErrConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fig := trendFigure(in, "trend.png")
			tt.modify(&fig)
			_, err := Build(context.Background(), fig, Env{})
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestBuildFetchesRemoteField(t *testing.T) {
	in := writeInputs(t)
	body, err := os.ReadFile(in.field)
	require.NoError(t, err)

	var mu sync.Mutex
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	m := observability.NewMetrics()
	env := Env{
		Fetcher: dataset.NewFetcher(filepath.Join(in.dir, "cache"), 5*time.Second, discardLogger()),
		Metrics: m,
	}
	fig := trendFigure(in, "trend.png")
	// GMT serves its NetCDF grids under .grd
	fig.Field = config.Source{URL: srv.URL + "/server/earth/earth_relief/earth_relief_10m_p.grd", Variable: "value"}

	for range 2 {
		plan, err := Build(context.Background(), fig, env)
		require.NoError(t, err)
		assert.Len(t, plan.Request.Field.Lon, 10)
	}
	assert.Equal(t, 1, hits)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Fetches.WithLabelValues("miss")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Fetches.WithLabelValues("hit")), 0)
}

// stubRenderer records nothing and advances the fake clock on save.
type stubRenderer struct {
	clock *clockwork.FakeClock
}

func (stubRenderer) Begin(render.Layout) error                      { return nil }
func (stubRenderer) DrawRaster(image.Image) error                   { return nil }
func (stubRenderer) DrawBoundaries(render.Overlay) error            { return nil }
func (stubRenderer) DrawMarkers([][2]float64, render.Markers) error { return nil }
func (stubRenderer) DrawLabels([]render.Label) error                { return nil }
func (stubRenderer) DrawColorbar(*colorscale.Scale, string) error   { return nil }
func (stubRenderer) DrawFrame() error                               { return nil }

func (s stubRenderer) Save(path string) error {
	s.clock.Advance(2 * time.Second)
	return os.WriteFile(path, []byte("stub"), 0o644)
}

func TestRunnerRecordsMetrics(t *testing.T) {
	in := writeInputs(t)
	clock := clockwork.NewFakeClockAt(time.Date(2024, time.April, 26, 15, 10, 0, 0, time.UTC))
	m := observability.NewMetrics()
	r := &Runner{
		Env:         Env{Logger: discardLogger(), Metrics: m},
		Clock:       clock,
		newRenderer: func(Plan) render.Renderer { return stubRenderer{clock: clock} },
	}

	out, err := r.Run(context.Background(), []config.Figure{trendFigure(in, filepath.Join(in.dir, "trend.png"))})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 2*time.Second, out[0].Duration)
	assert.Equal(t, 50, out[0].Result.Flagged)
	assert.Equal(t, 10, out[0].Result.Columns)

	assert.InDelta(t, 1, testutil.ToFloat64(m.FiguresRendered.WithLabelValues("raster")), 0)
	assert.InDelta(t, 50, testutil.ToFloat64(m.FlaggedCells.WithLabelValues("pr_trend")), 0)

	prom := filepath.Join(in.dir, "run.prom")
	require.NoError(t, m.WriteTextfile(prom))
	data, err := os.ReadFile(prom)
	require.NoError(t, err)
	assert.Contains(t, string(data), "climap_figure_render_duration_seconds_sum 2")
}

func TestRunnerStopsAtFirstFailure(t *testing.T) {
	in := writeInputs(t)
	m := observability.NewMetrics()
	r := &Runner{Env: Env{Logger: discardLogger(), Metrics: m}, Jobs: 1}

	outside := trendFigure(in, filepath.Join(in.dir, "outside.png"))
	outside.Name = "outside"
	outside.Region = config.Region{Lon: []float64{100, 110}, Lat: []float64{40, 50}}
	good := trendFigure(in, filepath.Join(in.dir, "good.png"))

	out, err := r.Run(context.Background(), []config.Figure{outside, good})
	require.ErrorIs(t, err, failure.ErrDomain)
	require.Len(t, out, 2)
	require.ErrorIs(t, out[0].Err, failure.ErrDomain)
	assert.True(t, out[1].Skipped)
	assert.NoFileExists(t, filepath.Join(in.dir, "outside.png"))
	assert.NoFileExists(t, filepath.Join(in.dir, "good.png"))
	assert.InDelta(t, 1, testutil.ToFloat64(m.FigureFailures.WithLabelValues("domain")), 0)
}

func TestRunnerEndToEnd(t *testing.T) {
	in := writeInputs(t)
	r := &Runner{Env: Env{Logger: discardLogger()}, Jobs: 3}

	png := trendFigure(in, filepath.Join(in.dir, "trend.png"))
	png.Frame = true
	png.Crop = true
	png.ExportSubset = filepath.Join(in.dir, "subset.nc")
	png.Region = config.Region{Lon: []float64{62, 66}, Lat: []float64{42, 45}}

	svg := trendFigure(in, filepath.Join(in.dir, "trend.svg"))
	svg.Name = "svg"

	tif := trendFigure(in, filepath.Join(in.dir, "trend.tif"))
	tif.Name = "tif"
	tif.Mask = nil

	out, err := r.Run(context.Background(), []config.Figure{png, svg, tif})
	require.NoError(t, err)
	require.Len(t, out, 3)
	for _, o := range out {
		require.NoError(t, o.Err, o.Name)
		assert.FileExists(t, o.Result.Output)
	}
	assert.Equal(t, render.BackendVector, out[1].Backend)
	assert.Zero(t, out[2].Result.Flagged)

	sub, err := dataset.ReadNetCDF(png.ExportSubset, "")
	require.NoError(t, err)
	assert.Len(t, sub.Lon, 4)
	assert.Len(t, sub.Lat, 3)
}

func TestRunnerCanceled(t *testing.T) {
	in := writeInputs(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &Runner{Env: Env{Logger: discardLogger()}}
	out, err := r.Run(ctx, []config.Figure{trendFigure(in, filepath.Join(in.dir, "trend.png"))})
	require.ErrorIs(t, err, context.Canceled)
	assert.True(t, out[0].Skipped)
	assert.NoFileExists(t, filepath.Join(in.dir, "trend.png"))
}
