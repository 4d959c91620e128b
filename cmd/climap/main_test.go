package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	var stderr bytes.Buffer
	o, err := parseFlags([]string{"-config", "x.yaml", "-only", "a,b", "-jobs", "3", "-display"}, &stderr)
	require.NoError(t, err)
	assert.Equal(t, "x.yaml", o.configPath)
	assert.Equal(t, []string{"a", "b"}, o.only)
	assert.Equal(t, 3, o.jobs)
	assert.True(t, o.display)
}

func TestRunExitCodes(t *testing.T) {
	t.Setenv("CLIMAP_CACHE_DIR", t.TempDir())
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("figures: []\n"), 0o644))

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"help", []string{"-h"}, 0},
		{"unknown flag", []string{"-colour"}, 2},
		{"stray argument", []string{"extra"}, 2},
		{"zero jobs", []string{"-jobs", "0"}, 2},
		{"missing file", []string{"-config", filepath.Join(dir, "nope.yaml")}, 1},
		{"invalid file", []string{"-config", bad}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			assert.Equal(t, tt.want, run(context.Background(), tt.args, &stderr), stderr.String())
		})
	}
}

func TestRunRendersFigure(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CLIMAP_CACHE_DIR", t.TempDir())
	t.Setenv("CLIMAP_OUTPUT_DIR", dir)
	grid := "ncols 3\nnrows 2\nxllcorner 60\nyllcorner 40\ncellsize 1\nNODATA_value -9999\n1 2 3\n4 5 -9999\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "field.asc"), []byte(grid), 0o644))
	cfg := filepath.Join(dir, "figures.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte(`figures:
  - name: small
    region: {lon: [60, 63], lat: [40, 42]}
    field: {path: field.asc}
    colors: {palette: viridis, edges: [0, 2, 4, 6]}
    output: small.png
    dpi: 20
    map_width: 2
`), 0o644))
	metrics := filepath.Join(dir, "run.prom")

	var stderr bytes.Buffer
	code := run(context.Background(), []string{"-config", cfg, "-metrics-file", metrics}, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.FileExists(t, filepath.Join(dir, "small.png"))
	b, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(b), `climap_figures_rendered_total{backend="raster"} 1`)
}
