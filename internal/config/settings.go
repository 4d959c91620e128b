package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"climap/internal/failure"
)

// Settings holds process-wide options, populated from environment variables.
type Settings struct {
	LogLevel     string        `env:"CLIMAP_LOG_LEVEL" envDefault:"info"`
	LogFormat    string        `env:"CLIMAP_LOG_FORMAT" envDefault:"text"`
	CacheDir     string        `env:"CLIMAP_CACHE_DIR"`
	FetchTimeout time.Duration `env:"CLIMAP_FETCH_TIMEOUT" envDefault:"2m"`
	// OutputDir prefixes relative figure outputs.
	OutputDir   string `env:"CLIMAP_OUTPUT_DIR"`
	MetricsFile string `env:"CLIMAP_METRICS_FILE"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadSettings reads Settings from the environment, applying defaults where unset.
func LoadSettings() (*Settings, error) {
	s := &Settings{}
	if err := ParseEnv(s); err != nil {
		return nil, fmt.Errorf("%w: %v", failure.ErrConfig, err)
	}
	if s.CacheDir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			base = os.TempDir()
		}
		s.CacheDir = filepath.Join(base, "climap")
	}
	s.LogLevel = strings.ToLower(s.LogLevel)
	s.LogFormat = strings.ToLower(s.LogFormat)

	switch s.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid CLIMAP_LOG_LEVEL %q: %w", s.LogLevel, failure.ErrConfig)
	}
	switch s.LogFormat {
	case "text", "json":
	default:
		return nil, fmt.Errorf("invalid CLIMAP_LOG_FORMAT %q: %w", s.LogFormat, failure.ErrConfig)
	}
	if s.FetchTimeout <= 0 {
		return nil, fmt.Errorf("invalid CLIMAP_FETCH_TIMEOUT %s: %w", s.FetchTimeout, failure.ErrConfig)
	}
	return s, nil
}

// OutputPath resolves a figure output against OutputDir.
func (s *Settings) OutputPath(p string) string {
	if s.OutputDir == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.OutputDir, p)
}
