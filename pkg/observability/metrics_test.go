package observability_test

import (
	"testing"
	"time"

	"github.com/aretw0/paradigm/pkg/domain"
	"github.com/aretw0/paradigm/pkg/machine"
	"github.com/aretw0/paradigm/pkg/observability"
	"github.com/aretw0/paradigm/pkg/sequence"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_MachineAndSequencer(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)

	now := time.Unix(0, 0)
	m, err := machine.New([]string{"SETUP", "REACH", "BLOCKED"},
		machine.WithClock(func() time.Time { return now }),
		machine.WithObserver(metrics.ObserveTransition),
	)
	require.NoError(t, err)

	m.NextTo("REACH")
	m.PushTo("BLOCKED")
	assert.Equal(t, 1.0, gathered(t, reg, "paradigm_interrupt_depth"))
	m.Pop()

	count, err := testutil.GatherAndCount(reg, "paradigm_state_transitions_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count, "one series per from/to/kind combination")

	seq := sequence.New(sequence.WithOnBlock(metrics.ObserveBlock))
	require.NoError(t, seq.Build([]domain.Block{{
		Factors: map[string]any{"x": []int{1, 2, 3}},
		Options: domain.BlockOptions{Name: "A", Repetitions: 2},
	}}))

	assert.Equal(t, 6.0, gathered(t, reg, "paradigm_trials_generated_total"))
}

// gathered returns the value of the first series of a gauge or counter family.
func gathered(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		metric := mf.GetMetric()[0]
		if g := metric.GetGauge(); g != nil {
			return g.GetValue()
		}
		return metric.GetCounter().GetValue()
	}
	t.Fatalf("metric %s not gathered", name)
	return 0
}
