package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jonboulle/clockwork"

	"climap/internal/config"
	"climap/internal/dataset"
	"climap/internal/failure"
	"climap/internal/figure"
	"climap/internal/observability"
	"climap/internal/preview"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

type options struct {
	configPath  string
	only        []string
	jobs        int
	display     bool
	metricsFile string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	var only string
	fs := flag.NewFlagSet("climap", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.configPath, "config", "configs/central_asia.yaml", "figure file")
	fs.StringVar(&only, "only", "", "comma-separated figure names to render")
	fs.IntVar(&o.jobs, "jobs", 1, "figures rendered in parallel")
	fs.BoolVar(&o.display, "display", false, "open the interactive preview after rendering")
	fs.StringVar(&o.metricsFile, "metrics-file", "", "write run metrics in textfile format (overrides CLIMAP_METRICS_FILE)")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return o, err
		}
		return o, fmt.Errorf("%v: %w", err, failure.ErrConfig)
	}
	if fs.NArg() > 0 {
		return o, fmt.Errorf("unexpected arguments %q: %w", fs.Args(), failure.ErrConfig)
	}
	if o.jobs < 1 {
		return o, fmt.Errorf("-jobs must be at least 1: %w", failure.ErrConfig)
	}
	if only != "" {
		o.only = strings.Split(only, ",")
	}
	return o, nil
}

func run(ctx context.Context, args []string, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintln(stderr, "climap:", err)
		return failure.ExitCode(err)
	}

	settings, err := config.LoadSettings()
	if err != nil {
		slog.Error("failed to load settings", "error", err)
		return failure.ExitCode(err)
	}
	logger := observability.NewLogger(stderr, settings.LogLevel, settings.LogFormat)
	if opts.metricsFile != "" {
		settings.MetricsFile = opts.metricsFile
	}

	file, err := config.Load(opts.configPath)
	if err != nil {
		logger.Error("failed to load figure file", "path", opts.configPath, "error", err)
		return failure.ExitCode(err)
	}
	figs, err := file.Select(opts.only)
	if err != nil {
		logger.Error("failed to select figures", "error", err)
		return failure.ExitCode(err)
	}

	metrics := observability.NewMetrics()
	runner := &figure.Runner{
		Env: figure.Env{
			Settings: settings,
			Fetcher:  dataset.NewFetcher(settings.CacheDir, settings.FetchTimeout, logger),
			Logger:   logger,
			Metrics:  metrics,
		},
		Clock: clockwork.NewRealClock(),
		Jobs:  opts.jobs,
	}
	logger.Info("rendering figures", "config", opts.configPath, "figures", len(figs), "jobs", opts.jobs)
	outcomes, runErr := runner.Run(ctx, figs)

	if settings.MetricsFile != "" {
		if err := metrics.WriteTextfile(settings.MetricsFile); err != nil {
			logger.Error("failed to write metrics", "error", err)
		}
	}
	if runErr != nil {
		logger.Error("run failed", "kind", failure.Kind(runErr), "error", runErr)
		return failure.ExitCode(runErr)
	}
	logger.Info("all figures rendered", "figures", len(outcomes))

	if !opts.display {
		return 0
	}
	var shown []preview.Figure
	for _, o := range outcomes {
		f, err := preview.FromResult(o.Name, o.Backend, o.Result)
		if err != nil {
			logger.Warn("figure has no preview", "figure", o.Name, "error", err)
			continue
		}
		shown = append(shown, f)
	}
	if err := preview.Run(ctx, shown); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("preview failed", "error", err)
		return 1
	}
	return 0
}
