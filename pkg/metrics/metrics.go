package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the application.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	IngestionsTotal    *prometheus.CounterVec
	IngestionDuration  prometheus.Histogram
	ExpansionClicks    prometheus.Histogram
	RecordsExtracted   prometheus.Counter
	InstructorsLoaded  prometheus.Counter
	RowsSkipped        *prometheus.CounterVec
	DepartmentsCreated prometheus.Counter
	SnapshotFailures   prometheus.Counter
	SchoolsInQueue     prometheus.Gauge
}

// New registers the collectors on reg. Pass prometheus.DefaultRegisterer in
// the binary and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		IngestionsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingestions_total",
				Help: "Total number of school ingestion attempts.",
			},
			[]string{"status"}, // success, failure
		),
		IngestionDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ingestion_duration_seconds",
				Help:    "Duration of one school ingestion, fetch to commit.",
				Buckets: []float64{5, 15, 30, 60, 120, 300, 600, 1200},
			},
		),
		ExpansionClicks: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "listing_expansion_clicks",
				Help:    "Number of load-more actions performed per listing page.",
				Buckets: prometheus.ExponentialBuckets(1, 2, 10),
			},
		),
		RecordsExtracted: f.NewCounter(
			prometheus.CounterOpts{
				Name: "records_extracted_total",
				Help: "Instructor records extracted from listing pages.",
			},
		),
		InstructorsLoaded: f.NewCounter(
			prometheus.CounterOpts{
				Name: "instructors_loaded_total",
				Help: "Instructor rows committed to the store.",
			},
		),
		RowsSkipped: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rows_skipped_total",
				Help: "Extracted rows excluded from a batch load.",
			},
			[]string{"reason"},
		),
		DepartmentsCreated: f.NewCounter(
			prometheus.CounterOpts{
				Name: "departments_created_total",
				Help: "Department rows created by batch loads.",
			},
		),
		SnapshotFailures: f.NewCounter(
			prometheus.CounterOpts{
				Name: "snapshot_write_failures_total",
				Help: "Columnar snapshot files that could not be written.",
			},
		),
		SchoolsInQueue: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "schools_in_queue",
				Help: "Current number of schools waiting for ingestion.",
			},
		),
	}
}
