package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/imagecask/imagecask/internal/domain"
)

const (
	lookupSource      = "source"
	lookupTransformed = "transformed"
)

type Metrics struct {
	transformsTotal  *prometheus.CounterVec
	stageDuration    *prometheus.HistogramVec
	cacheLookups     *prometheus.CounterVec
	activeTransforms prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		transformsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "imagecask_transforms_total",
			Help: "Total transform requests by output format and final status.",
		}, []string{"format", "status"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "imagecask_stage_duration_seconds",
			Help:    "Duration of each pipeline stage.",
			Buckets: prometheus.DefBuckets,
		}, []string{"step"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "imagecask_cache_lookups_total",
			Help: "Cache lookups by blob kind and outcome.",
		}, []string{"blob", "outcome"}),
		activeTransforms: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "imagecask_active_transforms",
			Help: "Transforms currently executing the full pipeline.",
		}),
	}

	reg.MustRegister(
		m.transformsTotal,
		m.stageDuration,
		m.cacheLookups,
		m.activeTransforms,
	)
	return m
}

func (m *Metrics) observeResult(format domain.Format, status string) {
	m.transformsTotal.WithLabelValues(format.String(), status).Inc()
}

func (m *Metrics) observeLookup(blob string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.cacheLookups.WithLabelValues(blob, outcome).Inc()
}
