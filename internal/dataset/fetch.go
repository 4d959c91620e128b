package dataset

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"climap/internal/failure"
)

// Fetcher downloads remote grids into a cache directory so repeated runs
// read the local copy.
type Fetcher struct {
	cacheDir   string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewFetcher creates a fetcher caching under cacheDir.
func NewFetcher(cacheDir string, timeout time.Duration, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		cacheDir: cacheDir,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// CachePath is where rawURL is stored once fetched.
func (f *Fetcher) CachePath(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	name := hex.EncodeToString(sum[:8])
	if u, err := url.Parse(rawURL); err == nil {
		name += path.Ext(u.Path)
	}
	return filepath.Join(f.cacheDir, name)
}

// Fetch returns the local path of rawURL, downloading it on first use.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	dst := f.CachePath(rawURL)
	if _, err := os.Stat(dst); err == nil {
		f.logger.Debug("dataset cache hit", "url", rawURL, "path", dst)
		return dst, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("stat cache %s: %v: %w", dst, err, failure.ErrIO)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(f.cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("create cache dir: %v: %w", err, failure.ErrIO)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %v: %w", err, failure.ErrConfig)
	}
	start := time.Now()
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w: %w", rawURL, err, failure.ErrIO)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("fetch %s: status %d: %s: %w", rawURL, resp.StatusCode, body, failure.ErrIO)
	}

	tmp, err := os.CreateTemp(f.cacheDir, ".fetch-*")
	if err != nil {
		return "", fmt.Errorf("create cache file: %v: %w", err, failure.ErrIO)
	}
	defer os.Remove(tmp.Name())
	n, err := io.Copy(tmp, resp.Body)
	if err != nil {
		tmp.Close()
		return "", fmt.Errorf("download %s: %v: %w", rawURL, err, failure.ErrIO)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close cache file: %v: %w", err, failure.ErrIO)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", fmt.Errorf("store cache file: %v: %w", err, failure.ErrIO)
	}
	f.logger.Info("dataset fetched", "url", rawURL, "path", dst, "bytes", n, "duration", time.Since(start))
	return dst, nil
}
