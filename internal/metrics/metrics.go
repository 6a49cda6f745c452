// Package metrics exposes a Prometheus-backed optional secondary sink for
// gepa progress events, run-scoped counters and a budget gauge.
package metrics

import (
	"github.com/longregen/gepa-optimize/internal/gepa"
	"github.com/prometheus/client_golang/prometheus"
)

// Sink is a gepa.Emitter that records run progress as Prometheus metrics.
// It never replaces the caller's primary emitter — compose both via
// MultiEmitter.
type Sink struct {
	iterations      prometheus.Counter
	accepted        prometheus.Counter
	rejected        prometheus.Counter
	budgetConsumed  prometheus.Gauge
	archiveSize     prometheus.Gauge
}

// NewSink registers the sink's collectors against reg and returns the
// sink.
func NewSink(reg prometheus.Registerer) *Sink {
	s := &Sink{
		iterations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gepa_iterations_total",
			Help: "Number of GEPA scheduler iterations started.",
		}),
		accepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gepa_offspring_accepted_total",
			Help: "Number of offspring candidates accepted into the archive.",
		}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gepa_offspring_rejected_total",
			Help: "Number of offspring candidates rejected.",
		}),
		budgetConsumed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gepa_budget_consumed",
			Help: "Test-case-equivalent evaluations consumed so far in the current run.",
		}),
		archiveSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gepa_archive_size",
			Help: "Number of candidates currently in the archive.",
		}),
	}
	reg.MustRegister(s.iterations, s.accepted, s.rejected, s.budgetConsumed, s.archiveSize)
	return s
}

// Emit implements gepa.Emitter.
func (s *Sink) Emit(e gepa.Event) {
	switch e.Type {
	case gepa.EventIterationStart:
		s.iterations.Inc()
	case gepa.EventOffspringAccepted:
		s.accepted.Inc()
	case gepa.EventOffspringRejected:
		s.rejected.Inc()
	case gepa.EventArchiveUpdate:
		if v, ok := e.Payload["budget_consumed"].(int); ok {
			s.budgetConsumed.Set(float64(v))
		}
		if v, ok := e.Payload["archive_size"].(int); ok {
			s.archiveSize.Set(float64(v))
		}
	}
}

// MultiEmitter fans one event out to several emitters, in order.
type MultiEmitter []gepa.Emitter

func (m MultiEmitter) Emit(e gepa.Event) {
	for _, emitter := range m {
		emitter.Emit(e)
	}
}
