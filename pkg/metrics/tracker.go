package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// TrackerMetrics records order-tracking activity.
type TrackerMetrics struct {
	ticks           prometheus.Counter
	transitions     *prometheus.CounterVec
	remoteFallbacks prometheus.Counter
}

// NewTrackerMetrics registers the tracker metrics on the provided
// registerer. A nil registerer yields a no-op recorder.
func NewTrackerMetrics(reg prometheus.Registerer) *TrackerMetrics {
	if reg == nil {
		return &TrackerMetrics{}
	}
	ticks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "order_tracker_ticks_total",
		Help: "Timer ticks evaluated by the order tracker.",
	})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_tracker_transitions_total",
		Help: "Observed order status transitions.",
	}, []string{"status"})
	fallbacks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "order_remote_fallbacks_total",
		Help: "Checkouts that fell back to a locally generated order id.",
	})
	reg.MustRegister(ticks, transitions, fallbacks)
	return &TrackerMetrics{
		ticks:           ticks,
		transitions:     transitions,
		remoteFallbacks: fallbacks,
	}
}

// IncTick counts one evaluated timer tick.
func (t *TrackerMetrics) IncTick() {
	if t == nil || t.ticks == nil {
		return
	}
	t.ticks.Inc()
}

// IncTransition counts a transition into the named status.
func (t *TrackerMetrics) IncTransition(status string) {
	if t == nil || t.transitions == nil {
		return
	}
	if status == "" {
		status = "unknown"
	}
	t.transitions.WithLabelValues(status).Inc()
}

// IncRemoteFallback counts a checkout that used a local order id.
func (t *TrackerMetrics) IncRemoteFallback() {
	if t == nil || t.remoteFallbacks == nil {
		return
	}
	t.remoteFallbacks.Inc()
}
