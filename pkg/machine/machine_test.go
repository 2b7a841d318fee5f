package machine_test

import (
	"testing"
	"time"

	"github.com/aretw0/paradigm/pkg/domain"
	"github.com/aretw0/paradigm/pkg/machine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

var phases = []string{"CONSENT", "SETUP", "REACH", "BLOCKED", "CALIBRATE"}

func newMachine(t *testing.T, opts ...machine.Option) (*machine.Machine, *int, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	calls := 0
	opts = append([]machine.Option{
		machine.WithClock(clock.Now),
		machine.WithOnChange(func() { calls++ }),
	}, opts...)
	m, err := machine.New(phases, opts...)
	require.NoError(t, err)
	return m, &calls, clock
}

func TestNew_InitialState(t *testing.T) {
	m, calls, _ := newMachine(t)

	assert.Equal(t, domain.State(0), m.Current())
	assert.Equal(t, domain.State(0), m.Last())
	assert.Equal(t, "CONSENT", m.CurrentName())
	assert.Equal(t, 0, m.Depth())
	assert.Equal(t, 0, *calls, "construction must not fire the callback")

	assert.Equal(t, domain.State(2), m.State("REACH"))
	assert.Equal(t, domain.State(4), m.State("CALIBRATE"))
}

func TestNew_RejectsBadDeclarations(t *testing.T) {
	_, err := machine.New(nil)
	assert.ErrorIs(t, err, domain.ErrNoStates)

	_, err = machine.New([]string{"A", "B", "A"})
	assert.ErrorIs(t, err, domain.ErrDuplicateState)

	_, err = machine.New([]string{"A", ""})
	assert.ErrorIs(t, err, domain.ErrEmptyStateName)
}

func TestNext_SameStateIsNoop(t *testing.T) {
	m, calls, clock := newMachine(t)

	m.NextTo("SETUP")
	require.Equal(t, 1, *calls)

	clock.Advance(3 * time.Second)
	m.NextTo("SETUP")

	assert.Equal(t, 1, *calls, "callback must not fire on idempotent Next")
	assert.Equal(t, 3*time.Second, m.Elapsed(), "timer must not reset on idempotent Next")
	assert.Equal(t, "CONSENT", m.LastName())
}

func TestNext_UpdatesFieldsBeforeCallback(t *testing.T) {
	var seen []string
	var m *machine.Machine
	m, _, _ = newMachine(t, machine.WithOnChange(func() {
		seen = append(seen, m.LastName()+"->"+m.CurrentName())
	}))

	m.NextTo("SETUP")
	m.NextTo("REACH")

	assert.Equal(t, []string{"CONSENT->SETUP", "SETUP->REACH"}, seen)
}

func TestPushPop_RestoresInterruptedState(t *testing.T) {
	var trail []string
	var m *machine.Machine
	m, calls, _ := newMachine(t, machine.WithOnChange(func() {
		trail = append(trail, m.LastName()+"->"+m.CurrentName())
	}))
	m.NextTo("REACH")
	*calls = 0
	trail = nil

	m.PushTo("BLOCKED")
	m.PushTo("CALIBRATE")
	assert.Equal(t, 2, m.Depth())

	m.Pop()
	assert.Equal(t, "BLOCKED", m.CurrentName())
	assert.Equal(t, "CALIBRATE", m.LastName())

	m.Pop()
	assert.Equal(t, "REACH", m.CurrentName())
	assert.Equal(t, "BLOCKED", m.LastName())
	assert.Equal(t, 0, m.Depth())

	assert.Equal(t, 4, *calls)
	assert.Equal(t, []string{
		"REACH->BLOCKED",
		"BLOCKED->CALIBRATE",
		"CALIBRATE->BLOCKED",
		"BLOCKED->REACH",
	}, trail)
}

func TestPush_SameStateIsNoop(t *testing.T) {
	m, calls, _ := newMachine(t)
	m.PushTo("BLOCKED")
	m.PushTo("BLOCKED")

	assert.Equal(t, 1, m.Depth())
	assert.Equal(t, 1, *calls)
}

func TestPop_EmptyStackIsNoop(t *testing.T) {
	m, calls, _ := newMachine(t)
	m.NextTo("SETUP")

	m.Pop()

	assert.Equal(t, "SETUP", m.CurrentName())
	assert.Equal(t, 1, *calls)
}

func TestOnce_RunsOncePerResidency(t *testing.T) {
	m, _, _ := newMachine(t)
	runs := 0
	entry := func() { runs++ }

	for i := 0; i < 10; i++ {
		m.Once(entry)
	}
	assert.Equal(t, 1, runs)

	m.NextTo("SETUP")
	m.NextTo("CONSENT")
	for i := 0; i < 5; i++ {
		m.Once(entry)
	}
	assert.Equal(t, 2, runs)
}

func TestOnce_RearmsAfterPop(t *testing.T) {
	m, _, _ := newMachine(t)
	m.NextTo("REACH")
	runs := 0
	m.Once(func() { runs++ })

	m.PushTo("BLOCKED")
	m.Pop()
	m.Once(func() { runs++ })

	assert.Equal(t, 2, runs, "resuming an interrupted state is a new residency")
}

func TestExpired(t *testing.T) {
	m, _, clock := newMachine(t)
	clock.Advance(10 * time.Second)

	m.NextTo("SETUP")
	assert.False(t, m.Expired(500*time.Millisecond), "expired must be false right after a transition")
	assert.False(t, m.ExpiredSeconds(0.5))
	assert.False(t, m.ExpiredMSec(500))

	clock.Advance(499 * time.Millisecond)
	assert.False(t, m.ExpiredMSec(500))

	clock.Advance(time.Millisecond)
	assert.True(t, m.Expired(500*time.Millisecond))
	assert.True(t, m.ExpiredSeconds(0.5))
	assert.True(t, m.ExpiredMSec(500))
	assert.InDelta(t, 0.5, m.ElapsedSeconds(), 1e-9)
	assert.InDelta(t, 500.0, m.ElapsedMSec(), 1e-9)
}

func TestObserver_ReceivesTransitionDetails(t *testing.T) {
	var events []domain.TransitionEvent
	m, _, clock := newMachine(t, machine.WithObserver(func(ev domain.TransitionEvent) {
		events = append(events, ev)
	}))

	clock.Advance(time.Second)
	m.PushTo("BLOCKED")
	clock.Advance(2 * time.Second)
	m.Pop()

	require.Len(t, events, 2)
	assert.Equal(t, domain.TransitionPush, events[0].Kind)
	assert.Equal(t, "CONSENT", events[0].FromName)
	assert.Equal(t, time.Second, events[0].Residency)
	assert.Equal(t, 1, events[0].Depth)

	assert.Equal(t, domain.TransitionPop, events[1].Kind)
	assert.Equal(t, "BLOCKED", events[1].FromName)
	assert.Equal(t, 2*time.Second, events[1].Residency)
	assert.Equal(t, 0, events[1].Depth)
}

func TestUndeclaredState_Panics(t *testing.T) {
	m, _, _ := newMachine(t)

	assert.Panics(t, func() { m.Next(domain.State(len(phases))) })
	assert.Panics(t, func() { m.Push(domain.State(-1)) })
	assert.Panics(t, func() { m.NextTo("NOPE") })
	assert.Equal(t, "CONSENT", m.CurrentName())
}

func TestIs(t *testing.T) {
	m, _, _ := newMachine(t)
	assert.True(t, m.Is("CONSENT"))
	assert.False(t, m.Is("SETUP"))
	assert.False(t, m.Is("UNKNOWN"))
}
