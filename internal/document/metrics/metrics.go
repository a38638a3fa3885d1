package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for document ingestion.
type Metrics struct {
	Uploads             *prometheus.CounterVec
	DedupHits           prometheus.Counter
	CompressionDuration prometheus.Histogram
	CompressionSaved    prometheus.Counter
	StorageDuration     prometheus.Histogram
}

// New registers the document metrics with the default registry.
func New() *Metrics {
	return &Metrics{
		Uploads: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "kyc_document_uploads_total",
			Help: "Documents processed by type and outcome",
		}, []string{"type", "outcome"}),
		DedupHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kyc_document_dedup_hits_total",
			Help: "Uploads whose hash matched the current document, skipping storage",
		}),
		CompressionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "kyc_document_compression_duration_seconds",
			Help:    "Duration of image reduction including pool wait",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		CompressionSaved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kyc_document_compression_saved_bytes_total",
			Help: "Bytes removed by image reduction",
		}),
		StorageDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "kyc_document_storage_duration_seconds",
			Help:    "Duration of storage uploads",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}
}

func (m *Metrics) ObserveUpload(docType, outcome string) {
	m.Uploads.WithLabelValues(docType, outcome).Inc()
}

// ObserveCompression records one reduction. Call with time.Now() at the start.
func (m *Metrics) ObserveCompression(start time.Time, before, after int) {
	m.CompressionDuration.Observe(time.Since(start).Seconds())
	if before > after {
		m.CompressionSaved.Add(float64(before - after))
	}
}

// ObserveStorage records one storage call. Call with time.Now() at the start.
func (m *Metrics) ObserveStorage(start time.Time) {
	m.StorageDuration.Observe(time.Since(start).Seconds())
}
