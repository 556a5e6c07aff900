package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	documentsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdfsplit",
			Name:      "documents_processed_total",
			Help:      "Documents processed by result (success, not_pdf, selection_error, read_error, extract_error, archive_error)",
		},
		[]string{"result"},
	)

	extractionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pdfsplit",
			Name:      "extraction_duration_seconds",
			Help:      "Duration of page extraction by mode (single, batch)",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"mode"},
	)

	batchRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdfsplit",
			Name:      "batch_runs_total",
			Help:      "Batch runs by result (success, empty, error)",
		},
		[]string{"result"},
	)

	archiveBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "pdfsplit",
			Name:      "archive_bytes",
			Help:      "Size of produced batch archives in bytes",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 10),
		},
	)

	downloadsServed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdfsplit",
			Name:      "downloads_served_total",
			Help:      "Result downloads by outcome (ok, missing)",
		},
		[]string{"outcome"},
	)
)

// Init registers collectors.
func Init() {
	prometheus.MustRegister(documentsProcessed, extractionDuration, batchRuns, archiveBytes, downloadsServed)
}

// Handler returns the http.Handler for /metrics
func Handler() http.Handler { return promhttp.Handler() }

func IncDocument(result string) { documentsProcessed.WithLabelValues(result).Inc() }

func ObserveExtraction(mode string, dur time.Duration) {
	extractionDuration.WithLabelValues(mode).Observe(dur.Seconds())
}

func IncBatch(result string) { batchRuns.WithLabelValues(result).Inc() }

func ObserveArchiveSize(n int) { archiveBytes.Observe(float64(n)) }

func IncDownload(outcome string) { downloadsServed.WithLabelValues(outcome).Inc() }
