// Package config reads the figure file and the environment settings.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"climap/internal/failure"
)

// File is a parsed figure file.
type File struct {
	Figures []Figure `yaml:"figures"`
}

// Figure is one map to render.
type Figure struct {
	Name   string  `yaml:"name"`
	Region Region  `yaml:"region"`
	Field  Source  `yaml:"field"`
	Mask   *Mask   `yaml:"mask"`
	Colors Colors  `yaml:"colors"`
	Labels Labels  `yaml:"labels"`
	Output string  `yaml:"output"`
	Title  string  `yaml:"title"`
	DPI    float64 `yaml:"dpi"`
	// Crop trims uniform background margins from raster output.
	Crop          bool      `yaml:"crop"`
	ColorbarLabel string    `yaml:"colorbar_label"`
	Projection    string    `yaml:"projection"`
	MapWidth      float64   `yaml:"map_width"` // inches
	Shading       *Shading  `yaml:"shading"`
	Markers       Markers   `yaml:"markers"`
	Overlays      []Overlay `yaml:"overlays"`
	// Backend forces "raster" or "vector"; empty picks by output extension.
	Backend string `yaml:"backend"`
	Frame   bool   `yaml:"frame"`
	// ExportSubset writes the selected field window as NetCDF.
	ExportSubset string `yaml:"export_subset"`
}

// Region is a lon/lat window, each given as [min, max].
type Region struct {
	Lon []float64 `yaml:"lon"`
	Lat []float64 `yaml:"lat"`
}

// Source names a gridded dataset by local path or URL.
type Source struct {
	Path     string `yaml:"path"`
	URL      string `yaml:"url"`
	Variable string `yaml:"variable"`
}

// Mask thresholds a second dataset into marker cells.
type Mask struct {
	Source    `yaml:",inline"`
	Threshold float64 `yaml:"threshold"`
	// Flag is "above" or "below".
	Flag string `yaml:"flag"`
}

// Colors selects exactly one of a named palette, explicit bins or a CPT table.
type Colors struct {
	Palette string    `yaml:"palette"`
	Edges   []float64 `yaml:"edges"`
	Start   *float64  `yaml:"start"`
	Stop    *float64  `yaml:"stop"`
	N       int       `yaml:"n"`    // edge count between start and stop
	Step    float64   `yaml:"step"` // edge spacing, stop included
	Bins    []Bin     `yaml:"bins"`
	CPT     string    `yaml:"cpt"`
	CPTFile string    `yaml:"cpt_file"`

	Below       string `yaml:"below"`
	Above       string `yaml:"above"`
	NoData      string `yaml:"nodata"`
	RightClosed bool   `yaml:"right_closed"`
}

// Bin is one explicit color interval.
type Bin struct {
	Lo    float64 `yaml:"lo"`
	Hi    float64 `yaml:"hi"`
	Color string  `yaml:"color"`
}

// Overlay is a boundary layer read from a file or inline WKT.
type Overlay struct {
	Name       string  `yaml:"name"`
	File       string  `yaml:"file"`
	WKT        string  `yaml:"wkt"`
	Stroke     string  `yaml:"stroke"`
	Fill       string  `yaml:"fill"`
	Width      float64 `yaml:"width"`
	MinAreaKm2 float64 `yaml:"min_area_km2"`
}

// Labels are map annotations, inline or from CSV/KML files.
type Labels struct {
	Items []Label  `yaml:"items"`
	Files []string `yaml:"files"`
	Size  float64  `yaml:"size"`
	Color string   `yaml:"color"`
}

// Label is one inline annotation.
type Label struct {
	Text string  `yaml:"text"`
	Lon  float64 `yaml:"lon"`
	Lat  float64 `yaml:"lat"`
}

type Shading struct {
	Azimuth   float64 `yaml:"azimuth"`
	Altitude  float64 `yaml:"altitude"`
	ZFactor   float64 `yaml:"z_factor"`
	Intensity float64 `yaml:"intensity"`
}

type Markers struct {
	Radius float64 `yaml:"radius"`
	Color  string  `yaml:"color"`
}

// Load reads and validates the figure file at path. Relative input paths are
// resolved against the file's directory and come back absolute.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("figure file: %w: %v", failure.ErrIO, err)
	}
	f, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("figure file %s: %w: %v", path, failure.ErrConfig, err)
	}
	f.resolve(dir)
	return f, nil
}

// Parse decodes and validates a figure file. Unknown keys are rejected.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode: %w: %v", failure.ErrConfig, err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Select returns the figures named in names, in file order. An empty list
// selects every figure.
func (f *File) Select(names []string) ([]Figure, error) {
	if len(names) == 0 {
		return f.Figures, nil
	}
	known := map[string]bool{}
	for _, fig := range f.Figures {
		known[fig.Name] = true
	}
	want := map[string]bool{}
	for _, n := range names {
		n = strings.TrimSpace(n)
		if !known[n] {
			return nil, fmt.Errorf("unknown figure %q: %w", n, failure.ErrConfig)
		}
		want[n] = true
	}
	var out []Figure
	for _, fig := range f.Figures {
		if want[fig.Name] {
			out = append(out, fig)
		}
	}
	return out, nil
}

func (f *File) validate() error {
	if len(f.Figures) == 0 {
		return fmt.Errorf("no figures: %w", failure.ErrConfig)
	}
	seen := map[string]bool{}
	var errs []error
	for i := range f.Figures {
		fig := &f.Figures[i]
		if fig.Name == "" {
			fig.Name = fmt.Sprintf("figure-%d", i+1)
		}
		if seen[fig.Name] {
			errs = append(errs, fmt.Errorf("figure %q: duplicate name: %w", fig.Name, failure.ErrConfig))
			continue
		}
		seen[fig.Name] = true
		for _, msg := range fig.problems() {
			errs = append(errs, fmt.Errorf("figure %q: %s: %w", fig.Name, msg, failure.ErrConfig))
		}
	}
	return errors.Join(errs...)
}

func (fig *Figure) problems() []string {
	var p []string
	if len(fig.Region.Lon) != 2 || len(fig.Region.Lat) != 2 {
		p = append(p, "region needs lon and lat as [min, max]")
	}
	if msg := fig.Field.problem("field"); msg != "" {
		p = append(p, msg)
	}
	if fig.Mask != nil {
		if msg := fig.Mask.problem("mask"); msg != "" {
			p = append(p, msg)
		}
		switch strings.ToLower(fig.Mask.Flag) {
		case "above", "below", "":
		default:
			p = append(p, fmt.Sprintf("mask flag %q is not above or below", fig.Mask.Flag))
		}
	}
	if fig.Output == "" {
		p = append(p, "output is required")
	}
	if fig.DPI < 0 || fig.MapWidth < 0 {
		p = append(p, "dpi and map_width must not be negative")
	}
	switch strings.ToLower(fig.Backend) {
	case "", "raster", "vector":
	default:
		p = append(p, fmt.Sprintf("backend %q is not raster or vector", fig.Backend))
	}
	for _, ov := range fig.Overlays {
		if (ov.File == "") == (ov.WKT == "") {
			p = append(p, fmt.Sprintf("overlay %q needs exactly one of file or wkt", ov.Name))
		}
	}
	return append(p, fig.Colors.problems()...)
}

func (s Source) problem(what string) string {
	if (s.Path == "") == (s.URL == "") {
		return what + " needs exactly one of path or url"
	}
	return ""
}

func (c Colors) problems() []string {
	kinds := 0
	for _, set := range []bool{c.Palette != "", len(c.Bins) > 0, c.CPT != "" || c.CPTFile != ""} {
		if set {
			kinds++
		}
	}
	if kinds != 1 {
		return []string{"colors need exactly one of palette, bins or cpt"}
	}
	if c.CPT != "" && c.CPTFile != "" {
		return []string{"colors set both cpt and cpt_file"}
	}
	if c.Palette == "" {
		return nil
	}
	if len(c.Edges) > 0 {
		return nil
	}
	if c.Start == nil || c.Stop == nil {
		return []string{"palette needs edges or start and stop"}
	}
	if (c.N > 0) == (c.Step > 0) {
		return []string{"palette needs exactly one of n or step"}
	}
	return nil
}

func (f *File) resolve(dir string) {
	join := func(p *string) {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
	for i := range f.Figures {
		fig := &f.Figures[i]
		join(&fig.Field.Path)
		if fig.Mask != nil {
			join(&fig.Mask.Path)
		}
		join(&fig.Colors.CPTFile)
		for j := range fig.Overlays {
			join(&fig.Overlays[j].File)
		}
		for j := range fig.Labels.Files {
			join(&fig.Labels.Files[j])
		}
	}
}
