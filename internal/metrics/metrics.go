// Package metrics provides Prometheus metrics for lead intake and distribution.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "homni"

// Recorder implements the recorder interfaces of the intake, dedup and
// distribution packages.
type Recorder struct {
	intakeTotal      *prometheus.CounterVec
	intakeDuration   prometheus.Histogram
	dedupChecks      *prometheus.CounterVec
	distributions    *prometheus.CounterVec
	listenerFailures *prometheus.CounterVec
}

// New registers the collectors on reg. Pass prometheus.DefaultRegisterer in
// production so /metrics picks them up.
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		intakeTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "lead_intake_total",
				Help:      "Anonymous lead submissions by outcome",
			},
			[]string{"outcome"},
		),
		intakeDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "lead_intake_duration_seconds",
				Help:      "Duration of anonymous lead submissions in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
		dedupChecks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dedup_checks_total",
				Help:      "Duplicate checks by verdict",
			},
			[]string{"verdict"},
		),
		distributions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "distribution_total",
				Help:      "Distribution attempts by result",
			},
			[]string{"result"},
		),
		listenerFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "event_listener_failures_total",
				Help:      "Event listeners that returned an error or panicked",
			},
			[]string{"event"},
		),
	}
}

func (r *Recorder) RecordIntake(outcome string, elapsed time.Duration) {
	r.intakeTotal.WithLabelValues(outcome).Inc()
	r.intakeDuration.Observe(elapsed.Seconds())
}

func (r *Recorder) RecordDedupVerdict(verdict string) {
	r.dedupChecks.WithLabelValues(verdict).Inc()
}

func (r *Recorder) RecordDistribution(result string) {
	r.distributions.WithLabelValues(result).Inc()
}

// ListenerFailed has the signature of events.FailureHook.
func (r *Recorder) ListenerFailed(eventName string, _ error) {
	r.listenerFailures.WithLabelValues(eventName).Inc()
}
