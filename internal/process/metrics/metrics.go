package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks command dispatch.
type Metrics struct {
	Commands        *prometheus.CounterVec
	CommandDuration *prometheus.HistogramVec
	Conflicts       prometheus.Counter
	Coalesced       prometheus.Counter
}

// New registers the process metrics with the default registry.
func New() *Metrics {
	return &Metrics{
		Commands: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "kyc_process_commands_total",
			Help: "Commands handled by kind and outcome",
		}, []string{"kind", "outcome"}),
		CommandDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kyc_process_command_duration_seconds",
			Help:    "End-to-end command handling duration",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"kind"}),
		Conflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kyc_process_append_conflicts_total",
			Help: "Event appends rejected because the version was already taken",
		}),
		Coalesced: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kyc_process_uploads_coalesced_total",
			Help: "Upload commands that joined an in-flight execution",
		}),
	}
}

// ObserveCommand records one command. Call with time.Now() at the start.
func (m *Metrics) ObserveCommand(kind, outcome string, start time.Time) {
	m.Commands.WithLabelValues(kind, outcome).Inc()
	m.CommandDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}
