package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"climap/internal/failure"
)

func TestLoadSettings_Defaults(t *testing.T) {
	s, err := LoadSettings()
	require.NoError(t, err)

	assert.Equal(t, "info", s.LogLevel)
	assert.Equal(t, "text", s.LogFormat)
	assert.Equal(t, 2*time.Minute, s.FetchTimeout)
	assert.Equal(t, "climap", filepath.Base(s.CacheDir))
	assert.Empty(t, s.OutputDir)
	assert.Empty(t, s.MetricsFile)
}

func TestLoadSettings_CustomEnv(t *testing.T) {
	t.Setenv("CLIMAP_LOG_LEVEL", "DEBUG")
	t.Setenv("CLIMAP_LOG_FORMAT", "json")
	t.Setenv("CLIMAP_CACHE_DIR", "/var/cache/maps")
	t.Setenv("CLIMAP_FETCH_TIMEOUT", "30s")
	t.Setenv("CLIMAP_OUTPUT_DIR", "/srv/figures")
	t.Setenv("CLIMAP_METRICS_FILE", "/var/lib/node_exporter/climap.prom")

	s, err := LoadSettings()
	require.NoError(t, err)

	assert.Equal(t, "debug", s.LogLevel)
	assert.Equal(t, "json", s.LogFormat)
	assert.Equal(t, "/var/cache/maps", s.CacheDir)
	assert.Equal(t, 30*time.Second, s.FetchTimeout)
	assert.Equal(t, "/srv/figures/a.png", s.OutputPath("a.png"))
	assert.Equal(t, "/tmp/b.png", s.OutputPath("/tmp/b.png"))
	assert.Equal(t, "/var/lib/node_exporter/climap.prom", s.MetricsFile)
}

func TestLoadSettings_Invalid(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"level", "CLIMAP_LOG_LEVEL", "verbose"},
		{"format", "CLIMAP_LOG_FORMAT", "xml"},
		{"timeout syntax", "CLIMAP_FETCH_TIMEOUT", "soon"},
		{"timeout negative", "CLIMAP_FETCH_TIMEOUT", "-1s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := LoadSettings()
			require.ErrorIs(t, err, failure.ErrConfig)
		})
	}
}

func TestParseEnvError(t *testing.T) {
	var cfg struct {
		Port int `env:"CLIMAP_TEST_PORT" envDefault:"123"`
	}
	t.Setenv("CLIMAP_TEST_PORT", "not-an-int")
	err := ParseEnv(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")
}

const trendYAML = `
figures:
  - name: pr_trend
    region: {lon: [45, 90], lat: [30, 56]}
    field: {path: data/pr_trend.nc, variable: trend}
    mask: {path: data/pr_pvalue.nc, variable: pvalue, threshold: 0.1, flag: above}
    colors: {palette: BrBG, start: -0.4, stop: 0.4, n: 17}
    overlays:
      - {name: borders, file: /abs/borders.geojson, stroke: black, width: 0.5}
    labels:
      items:
        - {text: Kazakhstan, lon: 66, lat: 49}
      files: [labels.csv]
    output: pr_trend.png
    title: Precipitation trend
`

func TestParseFigure(t *testing.T) {
	f, err := Parse(strings.NewReader(trendYAML))
	require.NoError(t, err)
	require.Len(t, f.Figures, 1)

	fig := f.Figures[0]
	assert.Equal(t, "pr_trend", fig.Name)
	assert.Equal(t, []float64{45, 90}, fig.Region.Lon)
	assert.Equal(t, "trend", fig.Field.Variable)
	require.NotNil(t, fig.Mask)
	assert.Equal(t, "pvalue", fig.Mask.Variable)
	assert.Equal(t, 0.1, fig.Mask.Threshold)
	require.NotNil(t, fig.Colors.Start)
	assert.Equal(t, -0.4, *fig.Colors.Start)
	assert.Equal(t, 17, fig.Colors.N)
	assert.Equal(t, "Kazakhstan", fig.Labels.Items[0].Text)
	assert.Equal(t, 0.5, fig.Overlays[0].Width)
}

func TestLoadResolvesRelativePaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "figures.yaml")
	require.NoError(t, os.WriteFile(path, []byte(trendYAML), 0o644))

	f, err := Load(path)
	require.NoError(t, err)
	fig := f.Figures[0]
	assert.Equal(t, filepath.Join(dir, "data/pr_trend.nc"), fig.Field.Path)
	assert.Equal(t, filepath.Join(dir, "data/pr_pvalue.nc"), fig.Mask.Path)
	assert.Equal(t, "/abs/borders.geojson", fig.Overlays[0].File)
	assert.Equal(t, filepath.Join(dir, "labels.csv"), fig.Labels.Files[0])
	assert.Equal(t, "pr_trend.png", fig.Output, "outputs resolve against settings, not the file")
}

func TestLoadRelativeFileGivesAbsolutePaths(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "configs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "configs", "figures.yaml"), []byte(trendYAML), 0o644))
	t.Chdir(dir)

	f, err := Load(filepath.Join("configs", "figures.yaml"))
	require.NoError(t, err)
	fig := f.Figures[0]
	for _, p := range []string{fig.Field.Path, fig.Mask.Path, fig.Labels.Files[0]} {
		assert.True(t, filepath.IsAbs(p), p)
	}
	assert.True(t, strings.HasSuffix(fig.Field.Path, filepath.Join("configs", "data", "pr_trend.nc")), fig.Field.Path)

	// inputs stay put when the process moves
	t.Chdir(t.TempDir())
	_, err = os.Stat(filepath.Dir(fig.Labels.Files[0]))
	assert.NoError(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.ErrorIs(t, err, failure.ErrIO)
}

func TestParseRejects(t *testing.T) {
	base := func(extra string) string {
		return "figures:\n  - name: a\n    region: {lon: [0, 1], lat: [0, 1]}\n    output: a.png\n" + extra
	}
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"empty", "figures: []", "no figures"},
		{"unknown key", base("    field: {path: a.nc}\n    colors: {palette: viridis, edges: [0, 1]}\n    colour: red\n"), "colour"},
		{"no field", base("    colors: {palette: viridis, edges: [0, 1]}\n"), "field needs exactly one of path or url"},
		{"two sources", base("    field: {path: a.nc, url: http://x/a.nc}\n    colors: {palette: viridis, edges: [0, 1]}\n"), "exactly one of path or url"},
		{"no colors", base("    field: {path: a.nc}\n"), "exactly one of palette, bins or cpt"},
		{"two colors", base("    field: {path: a.nc}\n    colors: {palette: viridis, cpt: x}\n"), "exactly one of palette, bins or cpt"},
		{"palette range", base("    field: {path: a.nc}\n    colors: {palette: viridis, start: 0}\n"), "edges or start and stop"},
		{"n and step", base("    field: {path: a.nc}\n    colors: {palette: viridis, start: 0, stop: 1, n: 3, step: 0.5}\n"), "one of n or step"},
		{"backend", base("    field: {path: a.nc}\n    colors: {palette: viridis, edges: [0, 1]}\n    backend: opengl\n"), "backend"},
		{"flag", base("    field: {path: a.nc}\n    mask: {path: m.nc, flag: sideways}\n    colors: {palette: viridis, edges: [0, 1]}\n"), "mask flag"},
		{"overlay", base("    field: {path: a.nc}\n    colors: {palette: viridis, edges: [0, 1]}\n    overlays: [{name: x}]\n"), "overlay \"x\""},
		{"region", "figures:\n  - name: a\n    region: {lon: [0]}\n    output: a.png\n    field: {path: a.nc}\n    colors: {palette: viridis, edges: [0, 1]}\n", "region"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.yaml))
			require.ErrorIs(t, err, failure.ErrConfig)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseDuplicateAndDefaultNames(t *testing.T) {
	fig := "  - region: {lon: [0, 1], lat: [0, 1]}\n    output: a.png\n    field: {path: a.nc}\n    colors: {palette: viridis, edges: [0, 1]}\n"
	f, err := Parse(strings.NewReader("figures:\n" + fig))
	require.NoError(t, err)
	assert.Equal(t, "figure-1", f.Figures[0].Name)

	dup := "figures:\n" + strings.Replace(fig, "  - ", "  - name: x\n    ", 1) + strings.Replace(fig, "  - ", "  - name: x\n    ", 1)
	_, err = Parse(strings.NewReader(dup))
	require.ErrorIs(t, err, failure.ErrConfig)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestSelect(t *testing.T) {
	f := &File{Figures: []Figure{{Name: "topo"}, {Name: "pr"}, {Name: "snow"}}}

	all, err := f.Select(nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	some, err := f.Select([]string{"snow", " topo"})
	require.NoError(t, err)
	require.Len(t, some, 2)
	assert.Equal(t, "topo", some[0].Name, "file order is kept")
	assert.Equal(t, "snow", some[1].Name)

	_, err = f.Select([]string{"wind"})
	require.ErrorIs(t, err, failure.ErrConfig)
}

func TestLoadBundledFigures(t *testing.T) {
	f, err := Load(filepath.Join("..", "..", "configs", "central_asia.yaml"))
	require.NoError(t, err)
	require.Len(t, f.Figures, 5)

	topo := f.Figures[0]
	assert.Equal(t, "mercator", topo.Projection)
	assert.Empty(t, topo.Field.Path)
	assert.Contains(t, topo.Field.URL, "earth_relief")
	assert.Contains(t, topo.Colors.CPT, "6000 255/255/255 8000")
	assert.Len(t, topo.Labels.Items, 5)
	assert.Equal(t, 90000.0, topo.Overlays[0].MinAreaKm2)

	snow := f.Figures[4]
	assert.Equal(t, []float64{45, 90}, snow.Region.Lon, "aliased region")
	assert.Equal(t, "below", snow.Mask.Flag)
	assert.Equal(t, 15, snow.Colors.N)
	assert.Equal(t, "Snow Anomaly (mm/day)", snow.ColorbarLabel)
	require.Len(t, snow.Overlays, 2)
	assert.True(t, filepath.IsAbs(snow.Overlays[0].File))
}
