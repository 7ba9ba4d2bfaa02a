package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes the monitor's prometheus instruments. A single instance
// is shared by the resolver, the clients and the scheduler.
type Metrics struct {
	SignalsTotal      *prometheus.CounterVec
	ResolutionsTotal  *prometheus.CounterVec
	DocumentsSelected *prometheus.CounterVec
	SnippetFailures   prometheus.Counter
	IndexErrors       *prometheus.CounterVec
	RunDuration       prometheus.Histogram
}

// New registers the metric set on the default registry.
func New() *Metrics {
	return &Metrics{
		SignalsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "docketwatch_signals_total",
			Help: "Raw signals ingested, by kind.",
		}, []string{"kind"}),
		ResolutionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "docketwatch_resolutions_total",
			Help: "Resolution outcomes, by result.",
		}, []string{"outcome"}),
		DocumentsSelected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "docketwatch_documents_selected_total",
			Help: "Documents selected, split by fallback tier.",
		}, []string{"tier"}),
		SnippetFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "docketwatch_snippet_failures_total",
			Help: "Snippet extractions that degraded to absent.",
		}),
		IndexErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "docketwatch_index_errors_total",
			Help: "Legal-records index failures, by class.",
		}, []string{"class"}),
		RunDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "docketwatch_run_duration_seconds",
			Help:    "Wall time of one monitoring run.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
	}
}

// Nop returns an unregistered metric set for tests.
func Nop() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		SignalsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "docketwatch_signals_total",
		}, []string{"kind"}),
		ResolutionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "docketwatch_resolutions_total",
		}, []string{"outcome"}),
		DocumentsSelected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "docketwatch_documents_selected_total",
		}, []string{"tier"}),
		SnippetFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "docketwatch_snippet_failures_total",
		}),
		IndexErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "docketwatch_index_errors_total",
		}, []string{"class"}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name: "docketwatch_run_duration_seconds",
		}),
	}
}
