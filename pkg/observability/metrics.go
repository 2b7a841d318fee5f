package observability

import (
	"github.com/aretw0/paradigm/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exports engine activity as Prometheus collectors.
// Its methods match the machine, sequencer and runner callback signatures so they can be
// registered directly as hooks.
type Metrics struct {
	transitions     *prometheus.CounterVec
	interrupts      *prometheus.CounterVec
	residency       *prometheus.HistogramVec
	interruptDepth  prometheus.Gauge
	trialsGenerated *prometheus.CounterVec
	reshuffles      *prometheus.CounterVec
	trialsCompleted *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "paradigm_state_transitions_total",
				Help: "Total number of state transitions",
			},
			[]string{"from", "to", "kind"},
		),
		interrupts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "paradigm_interrupts_total",
				Help: "Total number of interrupt states pushed",
			},
			[]string{"state"},
		),
		residency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "paradigm_state_residency_seconds",
				Help:    "Time spent in a state before leaving it",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 300},
			},
			[]string{"state"},
		),
		interruptDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "paradigm_interrupt_depth",
				Help: "Number of currently suspended states",
			},
		),
		trialsGenerated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "paradigm_trials_generated_total",
				Help: "Trials emitted by the sequencer",
			},
			[]string{"block"},
		),
		reshuffles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "paradigm_reshuffles_total",
				Help: "Reshuffles forced by no-consecutive-repeats constraints",
			},
			[]string{"block"},
		),
		trialsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "paradigm_trials_completed_total",
				Help: "Trials finished by the driver",
			},
			[]string{"block"},
		),
	}
	reg.MustRegister(
		m.transitions,
		m.interrupts,
		m.residency,
		m.interruptDepth,
		m.trialsGenerated,
		m.reshuffles,
		m.trialsCompleted,
	)
	return m
}

// ObserveTransition records a machine transition.
func (m *Metrics) ObserveTransition(ev domain.TransitionEvent) {
	m.transitions.WithLabelValues(ev.FromName, ev.ToName, string(ev.Kind)).Inc()
	m.residency.WithLabelValues(ev.FromName).Observe(ev.Residency.Seconds())
	m.interruptDepth.Set(float64(ev.Depth))
	if ev.Kind == domain.TransitionPush {
		m.interrupts.WithLabelValues(ev.ToName).Inc()
	}
}

// ObserveBlock records one expanded block repetition.
func (m *Metrics) ObserveBlock(ev domain.BlockEvent) {
	m.trialsGenerated.WithLabelValues(ev.Block).Add(float64(ev.Trials))
	if ev.Reshuffles > 0 {
		m.reshuffles.WithLabelValues(ev.Block).Add(float64(ev.Reshuffles))
	}
}

// ObserveTrial records a finished trial.
func (m *Metrics) ObserveTrial(rec *domain.TrialRecord) {
	m.trialsCompleted.WithLabelValues(rec.Trial.BlockName).Inc()
}
