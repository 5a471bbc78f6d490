package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// incident ETL pipeline.
type Metrics struct {
	RecordsRead       *prometheus.CounterVec // labels: source
	RecordsFiltered   *prometheus.CounterVec // labels: source (municipality filter rejections, expected)
	RecordsDropped    *prometheus.CounterVec // labels: source (defective records)
	FilesSkipped      *prometheus.CounterVec // labels: source (unreadable/malformed files)
	PartitionsWritten prometheus.Counter
	PipelineRunning   prometheus.Gauge
	RunDuration       prometheus.Histogram

	// Geocoding metrics.
	GeocodeRequests *prometheus.CounterVec // labels: method={forward,reverse}, outcome={success,error,empty}
	GeocodeCache    *prometheus.CounterVec // labels: method={forward,reverse}, result={hit,miss}
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RecordsRead,
		m.RecordsFiltered,
		m.RecordsDropped,
		m.FilesSkipped,
		m.PartitionsWritten,
		m.PipelineRunning,
		m.RunDuration,
		m.GeocodeRequests,
		m.GeocodeCache,
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
		RecordsRead: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "incident_etl",
			Name:      "records_read_total",
			Help:      "Raw records read from source files.",
		}, []string{"source"}),
		RecordsFiltered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "incident_etl",
			Name:      "records_filtered_total",
			Help:      "Records rejected by the municipality filter.",
		}, []string{"source"}),
		RecordsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "incident_etl",
			Name:      "records_dropped_total",
			Help:      "Defective records dropped during unification.",
		}, []string{"source"}),
		FilesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "incident_etl",
			Name:      "files_skipped_total",
			Help:      "Raw files skipped as unreadable or malformed.",
		}, []string{"source"}),
		PartitionsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "incident_etl",
			Name:      "partitions_written_total",
			Help:      "Partition artifacts replaced on storage.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "incident_etl",
			Name:      "pipeline_running",
			Help:      "1 while a transform run is in flight.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "incident_etl",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete transform run.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "incident_etl",
			Name:      "geocode_requests_total",
			Help:      "Geocoding provider requests by method and outcome.",
		}, []string{"method", "outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "incident_etl",
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by method and result.",
		}, []string{"method", "result"}),
	}
}
