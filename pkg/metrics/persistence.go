package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PersistenceMetrics records durable-store write behavior.
type PersistenceMetrics struct {
	writes   prometheus.Counter
	skips    prometheus.Counter
	failures prometheus.Counter
}

// NewPersistenceMetrics registers the persistence metrics on the provided
// registerer. A nil registerer yields a no-op recorder.
func NewPersistenceMetrics(reg prometheus.Registerer) *PersistenceMetrics {
	if reg == nil {
		return &PersistenceMetrics{}
	}
	writes := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "persistence_writes_total",
		Help: "Envelope writes that reached the durable store.",
	})
	skips := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "persistence_skips_total",
		Help: "Writes skipped because the payload was unchanged.",
	})
	failures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "persistence_failures_total",
		Help: "Writes the durable store rejected.",
	})
	reg.MustRegister(writes, skips, failures)
	return &PersistenceMetrics{writes: writes, skips: skips, failures: failures}
}

func (p *PersistenceMetrics) IncWrite() {
	if p == nil || p.writes == nil {
		return
	}
	p.writes.Inc()
}

func (p *PersistenceMetrics) IncSkip() {
	if p == nil || p.skips == nil {
		return
	}
	p.skips.Inc()
}

func (p *PersistenceMetrics) IncFailure() {
	if p == nil || p.failures == nil {
		return
	}
	p.failures.Inc()
}
