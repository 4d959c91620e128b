package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "climap"

// Metrics holds the Prometheus collectors for one climap run.
type Metrics struct {
	FiguresRendered *prometheus.CounterVec // labels: backend={raster,vector}
	FigureFailures  *prometheus.CounterVec // labels: kind={io,domain,empty_selection,config,internal}
	RenderDuration  prometheus.Histogram
	FlaggedCells    *prometheus.GaugeVec   // labels: figure
	Fetches         *prometheus.CounterVec // labels: result={hit,miss,error}

	registry *prometheus.Registry
}

// NewMetrics creates all run metrics on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		FiguresRendered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "figures_rendered_total",
			Help:      "Figures written, by backend.",
		}, []string{"backend"}),
		FigureFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "figure_failures_total",
			Help:      "Figures that failed, by error kind.",
		}, []string{"kind"}),
		RenderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "figure_render_duration_seconds",
			Help:      "Wall time from loading inputs to a saved figure.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		FlaggedCells: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "figure_flagged_cells",
			Help:      "Mask cells marked on the last render of a figure.",
		}, []string{"figure"}),
		Fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_fetches_total",
			Help:      "Remote dataset lookups, by cache result.",
		}, []string{"result"}),
		registry: prometheus.NewRegistry(),
	}
	m.registry.MustRegister(
		m.FiguresRendered,
		m.FigureFailures,
		m.RenderDuration,
		m.FlaggedCells,
		m.Fetches,
	)
	return m
}

// Registry exposes the private registry, for gathering in tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// WriteTextfile writes every metric to path in the node_exporter textfile
// format. The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}
