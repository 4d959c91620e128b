package figure

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"climap/internal/config"
	"climap/internal/dataset"
	"climap/internal/failure"
	"climap/internal/render"
	"climap/internal/render/raster"
	"climap/internal/render/vector"
)

// Outcome is what happened to one figure.
type Outcome struct {
	Name     string
	Backend  string
	Result   render.Result
	Duration time.Duration
	Err      error
	// Skipped is set when the figure never started because an earlier one failed.
	Skipped bool
}

// Runner renders figures sequentially or with bounded parallelism.
type Runner struct {
	Env   Env
	Clock clockwork.Clock
	// Jobs bounds concurrent figures; values below 1 mean 1.
	Jobs int

	newRenderer func(Plan) render.Renderer
}

// NewRenderer returns the backend a plan asks for.
func NewRenderer(p Plan) render.Renderer {
	if p.Backend == render.BackendVector {
		return vector.New()
	}
	return raster.New(raster.Options{Crop: p.Crop})
}

// Run renders figs and returns one outcome per figure in input order. It stops
// starting new figures after the first failure and returns that error.
func (r *Runner) Run(ctx context.Context, figs []config.Figure) ([]Outcome, error) {
	out := make([]Outcome, len(figs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, r.Jobs))
	for i, fig := range figs {
		g.Go(func() error {
			if gctx.Err() != nil {
				out[i] = Outcome{Name: fig.Name, Skipped: true, Err: gctx.Err()}
				return nil
			}
			out[i] = r.runOne(gctx, fig)
			return out[i].Err
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	return out, err
}

func (r *Runner) runOne(ctx context.Context, fig config.Figure) Outcome {
	clock := r.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	newRenderer := r.newRenderer
	if newRenderer == nil {
		newRenderer = NewRenderer
	}
	log := r.logger().With("figure", fig.Name)

	start := clock.Now()
	o := Outcome{Name: fig.Name}
	plan, err := Build(ctx, fig, r.Env)
	if err == nil {
		o.Backend = plan.Backend
		log.Debug("figure built", "backend", plan.Backend, "output", plan.Request.Output,
			"overlays", len(plan.Request.Overlays), "labels", len(plan.Request.Labels))
		o.Result, err = render.Render(ctx, newRenderer(plan), plan.Request)
	}
	if err == nil && plan.ExportSubset != "" {
		if err = dataset.WriteNetCDF(plan.ExportSubset, o.Result.Field); err == nil {
			log.Info("subset exported", "path", plan.ExportSubset)
		}
	}
	o.Duration = clock.Since(start)

	m := r.Env.Metrics
	if err != nil {
		o.Err = fmt.Errorf("figure %s: %w", fig.Name, err)
		log.Error("figure failed", "kind", failure.Kind(err), "error", err)
		if m != nil {
			m.FigureFailures.WithLabelValues(failure.Kind(err)).Inc()
		}
		return o
	}

	res := o.Result
	log.Info("figure rendered",
		"output", res.Output,
		"backend", plan.Backend,
		"columns", res.Columns,
		"rows", res.Rows,
		"min", res.Min,
		"max", res.Max,
		"flagged", res.Flagged,
		"duration", o.Duration,
	)
	if m != nil {
		m.FiguresRendered.WithLabelValues(plan.Backend).Inc()
		m.RenderDuration.Observe(o.Duration.Seconds())
		m.FlaggedCells.WithLabelValues(fig.Name).Set(float64(res.Flagged))
	}
	return o
}

func (r *Runner) logger() *slog.Logger {
	if r.Env.Logger != nil {
		return r.Env.Logger
	}
	return slog.New(slog.DiscardHandler)
}
