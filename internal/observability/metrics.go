package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// ingest pipeline and the assessment API.
type Metrics struct {
	MessagesConsumed prometheus.Counter
	MessagesProduced prometheus.Counter
	TransformErrors  prometheus.Counter
	PipelineRunning  prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// IMERG satellite coverage metrics.
	SatelliteRequests    *prometheus.CounterVec // labels: outcome={success,error}
	SatelliteCache       *prometheus.CounterVec // labels: result={hit,miss}
	SatelliteAPIDuration prometheus.Histogram
	SatelliteEnabled     prometheus.Gauge

	// Assessment and prediction API metrics.
	APIRequests        *prometheus.CounterVec // labels: endpoint={flood_risk,predict}, outcome={success,error}
	AssessmentDuration prometheus.Histogram
	PredictionDuration prometheus.Histogram
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.MessagesConsumed,
		m.MessagesProduced,
		m.TransformErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.SatelliteRequests,
		m.SatelliteCache,
		m.SatelliteAPIDuration,
		m.SatelliteEnabled,
		m.APIRequests,
		m.AssessmentDuration,
		m.PredictionDuration,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "floodcast",
			Name:      "messages_consumed_total",
			Help:      "Total records read from the source topic.",
		}),
		MessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "floodcast",
			Name:      "messages_produced_total",
			Help:      "Total records written to the sink topic and store.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "floodcast",
			Name:      "transform_errors_total",
			Help:      "Total record transformation failures.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "floodcast",
			Name:      "pipeline_running",
			Help:      "1 when the ingest pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "floodcast",
			Name:      "batch_size",
			Help:      "Number of records per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "floodcast",
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-transform-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		SatelliteRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "floodcast",
			Name:      "satellite_requests_total",
			Help:      "IMERG coverage lookups by outcome.",
		}, []string{"outcome"}),
		SatelliteCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "floodcast",
			Name:      "satellite_cache_total",
			Help:      "IMERG coverage cache lookups by result.",
		}, []string{"result"}),
		SatelliteAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "floodcast",
			Name:      "satellite_api_duration_seconds",
			Help:      "CMR granule search request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		SatelliteEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "floodcast",
			Name:      "satellite_enabled",
			Help:      "1 when IMERG coverage enrichment is enabled, 0 otherwise.",
		}),
		APIRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "floodcast",
			Name:      "api_requests_total",
			Help:      "Assessment API requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		AssessmentDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "floodcast",
			Name:      "assessment_duration_seconds",
			Help:      "Duration of flood-risk assessment requests.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		PredictionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "floodcast",
			Name:      "prediction_duration_seconds",
			Help:      "Duration of model prediction requests.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
	}
}
