package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks token cache effectiveness and identity provider latency.
type Metrics struct {
	CacheHits     prometheus.Counter
	Fetches       *prometheus.CounterVec
	FetchDuration prometheus.Histogram
}

// New registers the credential metrics with the default registry.
func New() *Metrics {
	return &Metrics{
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kyc_credential_cache_hits_total",
			Help: "Token requests served from the cache",
		}),
		Fetches: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "kyc_credential_fetches_total",
			Help: "Token fetches against the identity provider by outcome",
		}, []string{"outcome"}),
		FetchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "kyc_credential_fetch_duration_seconds",
			Help:    "Duration of token fetches",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}

// ObserveFetch records one fetch. Call with time.Now() taken before the fetch.
func (m *Metrics) ObserveFetch(start time.Time, err error) {
	m.FetchDuration.Observe(time.Since(start).Seconds())
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.Fetches.WithLabelValues(outcome).Inc()
}
