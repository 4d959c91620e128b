// Package figure turns figure file entries into render requests and runs them.
package figure

import (
	"context"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"climap/internal/colorscale"
	"climap/internal/config"
	"climap/internal/dataset"
	"climap/internal/failure"
	"climap/internal/geom"
	"climap/internal/grid"
	"climap/internal/observability"
	"climap/internal/render"
)

// Env is what building a figure needs beyond the figure itself.
type Env struct {
	Settings *config.Settings
	Fetcher  *dataset.Fetcher
	Logger   *slog.Logger
	// Metrics is optional.
	Metrics *observability.Metrics
}

// Plan is a buildable figure: the request plus how to draw and export it.
type Plan struct {
	Name         string
	Request      render.Request
	Backend      string
	Crop         bool
	ExportSubset string
}

// Default shading, matching a light from the north-west.
const (
	defaultAzimuth   = 315
	defaultAltitude  = 45
	defaultIntensity = 0.6
)

// Build loads every input fig names and assembles the render request.
func Build(ctx context.Context, fig config.Figure, env Env) (Plan, error) {
	if len(fig.Region.Lon) != 2 || len(fig.Region.Lat) != 2 {
		return Plan{}, fmt.Errorf("region needs lon and lat as [min, max]: %w", failure.ErrConfig)
	}
	out := fig.Output
	if env.Settings != nil {
		out = env.Settings.OutputPath(out)
	}
	backend, err := render.BackendFor(out, strings.ToLower(fig.Backend))
	if err != nil {
		return Plan{}, err
	}
	proj, err := geom.ProjectionByName(fig.Projection)
	if err != nil {
		return Plan{}, fmt.Errorf("%v: %w", err, failure.ErrConfig)
	}
	scale, err := BuildScale(fig.Colors)
	if err != nil {
		return Plan{}, err
	}
	field, err := loadSource(ctx, fig.Field, env)
	if err != nil {
		return Plan{}, fmt.Errorf("field: %w", err)
	}

	req := render.Request{
		Field:         field,
		Bounds:        geom.BBox{MinX: fig.Region.Lon[0], MaxX: fig.Region.Lon[1], MinY: fig.Region.Lat[0], MaxY: fig.Region.Lat[1]},
		Scale:         scale,
		Title:         fig.Title,
		ColorbarLabel: fig.ColorbarLabel,
		Projection:    proj,
		Frame:         fig.Frame,
		Output:        out,
		DPI:           fig.DPI,
		MapWidth:      fig.MapWidth,
	}
	if fig.Mask != nil {
		if req.Mask, err = buildMask(ctx, *fig.Mask, env); err != nil {
			return Plan{}, fmt.Errorf("mask: %w", err)
		}
	}
	if req.Markers, err = buildMarkers(fig.Markers); err != nil {
		return Plan{}, err
	}
	if s := fig.Shading; s != nil {
		req.Shading = buildShading(*s)
	}
	for _, ov := range fig.Overlays {
		o, err := buildOverlay(ov)
		if err != nil {
			return Plan{}, fmt.Errorf("overlay %q: %w", ov.Name, err)
		}
		req.Overlays = append(req.Overlays, o)
	}
	if req.Labels, err = buildLabels(fig.Labels); err != nil {
		return Plan{}, fmt.Errorf("labels: %w", err)
	}

	plan := Plan{Name: fig.Name, Request: req, Backend: backend, Crop: fig.Crop, ExportSubset: fig.ExportSubset}
	if plan.ExportSubset != "" && env.Settings != nil {
		plan.ExportSubset = env.Settings.OutputPath(plan.ExportSubset)
	}
	return plan, nil
}

// BuildScale turns a colors section into a color scale.
func BuildScale(c config.Colors) (*colorscale.Scale, error) {
	var opts []colorscale.Option
	for _, o := range []struct {
		value string
		with  func(color.RGBA) colorscale.Option
	}{
		{c.Below, colorscale.WithBelow},
		{c.Above, colorscale.WithAbove},
		{c.NoData, colorscale.WithNoData},
	} {
		if o.value == "" {
			continue
		}
		col, err := colorscale.ParseColor(o.value)
		if err != nil {
			return nil, err
		}
		opts = append(opts, o.with(col))
	}
	if c.RightClosed {
		opts = append(opts, colorscale.RightClosed())
	}

	switch {
	case c.CPTFile != "":
		return colorscale.LoadCPT(c.CPTFile, opts...)
	case c.CPT != "":
		return colorscale.ParseCPT(strings.NewReader(c.CPT), opts...)
	case len(c.Bins) > 0:
		bins := make([]colorscale.Bin, len(c.Bins))
		for i, b := range c.Bins {
			col, err := colorscale.ParseColor(b.Color)
			if err != nil {
				return nil, fmt.Errorf("bin %d: %w", i, err)
			}
			bins[i] = colorscale.Bin{Lo: b.Lo, Hi: b.Hi, Color: col}
		}
		return colorscale.New(bins, opts...)
	}

	edges := c.Edges
	if len(edges) == 0 {
		if c.Start == nil || c.Stop == nil {
			return nil, fmt.Errorf("palette %s has no edges: %w", c.Palette, failure.ErrConfig)
		}
		var err error
		if c.N > 0 {
			edges, err = colorscale.Linspace(*c.Start, *c.Stop, c.N)
		} else {
			edges, err = colorscale.Arange(*c.Start, *c.Stop, c.Step)
		}
		if err != nil {
			return nil, err
		}
	}
	return colorscale.FromPalette(c.Palette, edges, opts...)
}

// loadSource opens a local dataset or fetches a remote one through the cache.
func loadSource(ctx context.Context, src config.Source, env Env) (*grid.Field, error) {
	path := src.Path
	if src.URL != "" {
		if env.Fetcher == nil {
			return nil, fmt.Errorf("no fetcher for %s: %w", src.URL, failure.ErrConfig)
		}
		result := "miss"
		if _, err := os.Stat(env.Fetcher.CachePath(src.URL)); err == nil {
			result = "hit"
		}
		p, err := env.Fetcher.Fetch(ctx, src.URL)
		if err != nil {
			result = "error"
		}
		if env.Metrics != nil {
			env.Metrics.Fetches.WithLabelValues(result).Inc()
		}
		if err != nil {
			return nil, err
		}
		path = p
	}
	return dataset.Open(path, src.Variable)
}

func buildMask(ctx context.Context, m config.Mask, env Env) (*grid.Mask, error) {
	flag := m.Flag
	if flag == "" {
		flag = "above"
	}
	dir, err := grid.ParseDirection(flag)
	if err != nil {
		return nil, err
	}
	f, err := loadSource(ctx, m.Source, env)
	if err != nil {
		return nil, err
	}
	return grid.Threshold(f, m.Threshold, dir), nil
}

func buildMarkers(m config.Markers) (render.Markers, error) {
	out := render.Markers{Radius: m.Radius}
	if m.Color != "" {
		c, err := colorscale.ParseColor(m.Color)
		if err != nil {
			return out, fmt.Errorf("markers: %w", err)
		}
		out.Color = c
	}
	return out, nil
}

func buildShading(s config.Shading) *render.Shading {
	out := &render.Shading{Azimuth: s.Azimuth, Altitude: s.Altitude, ZFactor: s.ZFactor, Intensity: s.Intensity}
	if out.Azimuth == 0 {
		out.Azimuth = defaultAzimuth
	}
	if out.Altitude == 0 {
		out.Altitude = defaultAltitude
	}
	if out.ZFactor == 0 {
		out.ZFactor = 1
	}
	if out.Intensity == 0 {
		out.Intensity = defaultIntensity
	}
	return out
}

func buildOverlay(ov config.Overlay) (render.Overlay, error) {
	out := render.Overlay{Name: ov.Name, Width: ov.Width, MinAreaKm2: ov.MinAreaKm2}
	var err error
	if ov.WKT != "" {
		out.Data, err = geom.ParseWKTData(ov.WKT)
		if err != nil {
			return out, fmt.Errorf("%v: %w", err, failure.ErrConfig)
		}
	} else if out.Data, err = loadGeometry(ov.File); err != nil {
		return out, err
	}
	if ov.Stroke == "" && ov.Fill == "" {
		ov.Stroke = "black"
	}
	if ov.Stroke != "" {
		if out.Stroke, err = colorscale.ParseColor(ov.Stroke); err != nil {
			return out, err
		}
	}
	if ov.Fill != "" {
		if out.Fill, err = colorscale.ParseColor(ov.Fill); err != nil {
			return out, err
		}
	}
	return out, nil
}

// loadGeometry dispatches on the file extension.
func loadGeometry(path string) (geom.Data, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".shp":
		return geom.LoadShapefile(path)
	case ".wkt":
		b, err := os.ReadFile(path)
		if err != nil {
			return geom.Data{}, fmt.Errorf("%s: %w: %v", path, failure.ErrIO, err)
		}
		d, err := geom.ParseWKTData(string(b))
		if err != nil {
			return geom.Data{}, fmt.Errorf("%s: %v: %w", path, err, failure.ErrConfig)
		}
		return d, nil
	case ".geojson", ".json":
		return geom.LoadGeo(path)
	}
	return geom.Data{}, fmt.Errorf("overlay %s: unknown format: %w", path, failure.ErrConfig)
}

func buildLabels(l config.Labels) ([]render.Label, error) {
	var col color.RGBA
	if l.Color != "" {
		c, err := colorscale.ParseColor(l.Color)
		if err != nil {
			return nil, err
		}
		col = c
	}
	var out []render.Label
	for _, it := range l.Items {
		out = append(out, render.Label{Text: it.Text, Lon: it.Lon, Lat: it.Lat, Size: l.Size, Color: col})
	}
	for _, path := range l.Files {
		var (
			pms []geom.Placemark
			err error
		)
		switch strings.ToLower(filepath.Ext(path)) {
		case ".csv":
			pms, err = geom.LoadLabelsCSV(path)
		case ".kml":
			pms, err = geom.LoadLabelsKML(path)
		default:
			err = fmt.Errorf("labels %s: unknown format: %w", path, failure.ErrConfig)
		}
		if err != nil {
			return nil, err
		}
		for _, pm := range pms {
			out = append(out, render.Label{Text: pm.Name, Lon: pm.Lon, Lat: pm.Lat, Size: l.Size, Color: col})
		}
	}
	return out, nil
}
