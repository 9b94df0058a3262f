package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the declaration lifecycle engine.
type Metrics struct {
	DeclarationsCreated   prometheus.Counter
	DeclarationsFinalized prometheus.Counter
	ValidationFailures    prometheus.Counter
	RenderDuration        prometheus.Histogram
	ArtifactBytesWritten  prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		DeclarationsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "declara_declarations_created_total",
			Help: "Total number of declaration drafts created",
		}),
		DeclarationsFinalized: promauto.NewCounter(prometheus.CounterOpts{
			Name: "declara_declarations_finalized_total",
			Help: "Total number of declarations finalized with a signed document",
		}),
		ValidationFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "declara_validation_failures_total",
			Help: "Total number of lifecycle calls rejected by field validation",
		}),
		RenderDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "declara_render_duration_seconds",
			Help:    "Latency of document rendering (layout, wrap, paginate, sign)",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		ArtifactBytesWritten: promauto.NewCounter(prometheus.CounterOpts{
			Name: "declara_artifact_bytes_written_total",
			Help: "Total bytes of rendered documents and signatures persisted",
		}),
	}
}

// ObserveRender records a render latency sample.
func (m *Metrics) ObserveRender(d time.Duration) {
	m.RenderDuration.Observe(d.Seconds())
}
