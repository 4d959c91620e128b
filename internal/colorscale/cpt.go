package colorscale

import (
	"bufio"
	"fmt"
	"image/color"
	"io"
	"os"
	"strconv"
	"strings"

	"climap/internal/failure"
)

// ParseCPT reads a GMT color palette table. Each slice line is
// "lo color hi color", where a color is r/g/b, a hex code, a name or three
// bare numbers. B, F and N lines set the below, above and no-data colors.
// Only the lower color of a slice is used.
func ParseCPT(r io.Reader, opts ...Option) (*Scale, error) {
	var (
		bins         []Bin
		below, above *color.RGBA
		nodata       *color.RGBA
		sc           = bufio.NewScanner(r)
		line         int
	)
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(text, "#") {
			continue
		}
		if i := strings.IndexByte(text, ';'); i >= 0 {
			text = strings.TrimSpace(text[:i])
		}
		if text == "" {
			continue
		}
		fields := strings.Fields(text)
		switch strings.ToUpper(fields[0]) {
		case "B", "F", "N":
			c, err := parseCPTColor(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("cpt line %d: %w", line, err)
			}
			switch strings.ToUpper(fields[0]) {
			case "B":
				below = &c
			case "F":
				above = &c
			default:
				nodata = &c
			}
			continue
		}
		b, err := parseSlice(fields)
		if err != nil {
			return nil, fmt.Errorf("cpt line %d: %w", line, err)
		}
		bins = append(bins, b)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read cpt: %v: %w", err, failure.ErrIO)
	}
	var all []Option
	if below != nil {
		all = append(all, WithBelow(*below))
	}
	if above != nil {
		all = append(all, WithAbove(*above))
	}
	if nodata != nil {
		all = append(all, WithNoData(*nodata))
	}
	return New(bins, append(all, opts...)...)
}

// LoadCPT opens and parses a CPT file.
func LoadCPT(path string, opts ...Option) (*Scale, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cpt %s: %v: %w", path, err, failure.ErrIO)
	}
	defer f.Close()
	s, err := ParseCPT(f, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func parseSlice(fields []string) (Bin, error) {
	var lo, hi string
	var c0 []string
	switch len(fields) {
	case 4: // lo color hi color
		lo, c0, hi = fields[0], fields[1:2], fields[2]
	case 8: // lo r g b hi r g b
		lo, c0, hi = fields[0], fields[1:4], fields[4]
	default:
		return Bin{}, fmt.Errorf("want 4 or 8 fields, got %d: %w", len(fields), failure.ErrConfig)
	}
	l, err := strconv.ParseFloat(lo, 64)
	if err != nil {
		return Bin{}, fmt.Errorf("bad lower edge %q: %w", lo, failure.ErrConfig)
	}
	h, err := strconv.ParseFloat(hi, 64)
	if err != nil {
		return Bin{}, fmt.Errorf("bad upper edge %q: %w", hi, failure.ErrConfig)
	}
	c, err := parseCPTColor(c0)
	if err != nil {
		return Bin{}, err
	}
	return Bin{Lo: l, Hi: h, Color: c}, nil
}

func parseCPTColor(fields []string) (color.RGBA, error) {
	switch len(fields) {
	case 1:
		return ParseColor(fields[0])
	case 3:
		return ParseColor(strings.Join(fields, "/"))
	}
	return color.RGBA{}, fmt.Errorf("bad color %q: %w", strings.Join(fields, " "), failure.ErrConfig)
}
