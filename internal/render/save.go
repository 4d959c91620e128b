package render

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"climap/internal/failure"
)

// WriteAtomic runs write against a temporary file beside path and renames it
// into place only when write and close both succeed.
func WriteAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir %s: %v: %w", dir, err, failure.ErrIO)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %v: %w", err, failure.ErrIO)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %v: %w", path, err, failure.ErrIO)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %v: %w", path, err, failure.ErrIO)
	}
	return nil
}

// Backend names.
const (
	BackendRaster = "raster"
	BackendVector = "vector"
)

// Format returns the lower-case output extension without the dot.
func Format(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

// BackendFor picks the backend for an output path. override, when set, must
// be a backend able to write that format.
func BackendFor(path, override string) (string, error) {
	format := Format(path)
	var natural string
	switch format {
	case "png", "tif", "tiff":
		natural = BackendRaster
	case "pdf", "svg", "eps":
		natural = BackendVector
	default:
		return "", fmt.Errorf("unsupported output format %q: %w", format, failure.ErrConfig)
	}
	switch override {
	case "", natural:
		return natural, nil
	case BackendVector:
		if format == "png" {
			return BackendVector, nil
		}
	}
	return "", fmt.Errorf("backend %q cannot write %s: %w", override, format, failure.ErrConfig)
}
