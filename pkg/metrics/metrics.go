// Package metrics exposes this module's operational counters to Prometheus:
// reservation transitions, apply batch latency, and notification queue
// health.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Sink is the narrow interface the rest of the module programs against, so
// that reservation/apply/notify code never imports the Prometheus client
// directly and a test build can swap in a no-op.
type Sink interface {
	ReservationTransition(resourceKind, from, to string)
	ApplyDuration(resourceKind string, seconds float64)
	NotifyQueueDepth(pipe string, depth int)
	NotifyDropped(pipe string)
}

// Prometheus is the default Sink, registering four gauges/counters/
// histogram under the "impair_" namespace.
type Prometheus struct {
	reservationTransitions *prometheus.CounterVec
	applyDuration          *prometheus.HistogramVec
	notifyQueueDepth       *prometheus.GaugeVec
	notifyDropped          *prometheus.CounterVec
}

// NewPrometheus builds and registers the collectors against reg. Pass
// prometheus.DefaultRegisterer to use the global registry, or a fresh
// prometheus.NewRegistry() in tests to avoid collisions across packages.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	p := &Prometheus{
		reservationTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "impair_reservation_transitions_total",
			Help: "Count of reservation state machine transitions, by resource kind and from/to state.",
		}, []string{"resource_kind", "from", "to"}),
		applyDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "impair_apply_duration_seconds",
			Help:    "Latency of batched apply() calls against the transport, by resource kind.",
			Buckets: prometheus.DefBuckets,
		}, []string{"resource_kind"}),
		notifyQueueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "impair_notify_queue_depth",
			Help: "Current number of buffered messages per notification-bus subscriber.",
		}, []string{"pipe"}),
		notifyDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "impair_notify_dropped_total",
			Help: "Count of notification messages dropped because a subscriber's buffer was full.",
		}, []string{"pipe"}),
	}
	reg.MustRegister(p.reservationTransitions, p.applyDuration, p.notifyQueueDepth, p.notifyDropped)
	return p
}

func (p *Prometheus) ReservationTransition(resourceKind, from, to string) {
	p.reservationTransitions.WithLabelValues(resourceKind, from, to).Inc()
}

func (p *Prometheus) ApplyDuration(resourceKind string, seconds float64) {
	p.applyDuration.WithLabelValues(resourceKind).Observe(seconds)
}

func (p *Prometheus) NotifyQueueDepth(pipe string, depth int) {
	p.notifyQueueDepth.WithLabelValues(pipe).Set(float64(depth))
}

func (p *Prometheus) NotifyDropped(pipe string) {
	p.notifyDropped.WithLabelValues(pipe).Inc()
}

// Noop discards every call; used where a Sink is required but metrics are
// not wanted (e.g. short-lived CLI invocations).
type Noop struct{}

func (Noop) ReservationTransition(string, string, string) {}
func (Noop) ApplyDuration(string, float64) {}
func (Noop) NotifyQueueDepth(string, int) {}
func (Noop) NotifyDropped(string) {}
