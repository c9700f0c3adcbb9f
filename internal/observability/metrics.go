package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "property_distress"

// Metrics holds the Prometheus counters, histograms, and gauges for the
// resolution and scoring pipeline.
type Metrics struct {
	MessagesConsumed prometheus.Counter
	MessagesProduced prometheus.Counter
	TransformErrors  prometheus.Counter
	PipelineRunning  prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Resolution metrics.
	Resolutions    *prometheus.CounterVec   // labels: outcome={matched,public_record,not_found,cancelled}
	CacheLookups   *prometheus.CounterVec   // labels: result={hit,miss,error}
	VariantAttempt prometheus.Histogram     // attempts until a match or exhaustion
	FacetFailures  *prometheus.CounterVec   // labels: facet
	Retries        *prometheus.CounterVec   // labels: reason={rate_limited,transient}
	ProviderCalls  *prometheus.CounterVec   // labels: provider, endpoint, outcome={success,no_match,error}
	ProviderTime   *prometheus.HistogramVec // labels: provider, endpoint

	// Scoring metrics.
	Scores     prometheus.Histogram
	RiskLevels *prometheus.CounterVec // labels: level
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics with no registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_consumed_total",
			Help:      "Total address requests read from the source topic.",
		}),
		MessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_produced_total",
			Help:      "Total analyses written to the sink topic.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transform_errors_total",
			Help:      "Total requests that could not be analyzed.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of requests per batch.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-analyze-load cycle.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		Resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "Address resolutions by outcome.",
		}, []string{"outcome"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolution_cache_total",
			Help:      "Resolution cache lookups by result.",
		}, []string{"result"}),
		VariantAttempt: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "variant_attempts",
			Help:      "Provider/variant attempts per resolution.",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21},
		}),
		FacetFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "facet_failures_total",
			Help:      "Facet queries that failed after a successful match.",
		}, []string{"facet"}),
		Retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_retries_total",
			Help:      "Provider call retries by reason.",
		}, []string{"reason"}),
		ProviderCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "Provider requests by provider, endpoint, and outcome.",
		}, []string{"provider", "endpoint", "outcome"}),
		ProviderTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_request_duration_seconds",
			Help:      "Provider request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		}, []string{"provider", "endpoint"}),
		Scores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "distress_score",
			Help:      "Distribution of computed distress scores.",
			Buckets:   []float64{10, 20, 30, 40, 55, 70, 85, 100},
		}),
		RiskLevels: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "risk_levels_total",
			Help:      "Scored addresses by risk level.",
		}, []string{"level"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.MessagesConsumed,
		m.MessagesProduced,
		m.TransformErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.Resolutions,
		m.CacheLookups,
		m.VariantAttempt,
		m.FacetFailures,
		m.Retries,
		m.ProviderCalls,
		m.ProviderTime,
		m.Scores,
		m.RiskLevels,
	}
}
