package machine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/paradigm/internal/logging"
	"github.com/aretw0/paradigm/pkg/domain"
)

// Machine is the stack-based phase controller of one running experiment.
// It is not safe for concurrent use; the driver loop is its single writer.
type Machine struct {
	states *domain.StateSet

	current domain.State
	last    domain.State
	stack   []domain.State

	onceLatch bool
	entered   time.Time

	clock     func() time.Time
	onChange  []func()
	observers []func(domain.TransitionEvent)
	logger    *slog.Logger
}

// Option configures a Machine.
type Option func(*Machine)

// WithOnChange registers a state-change callback.
// Callbacks fire synchronously, in registration order, after the state fields are updated.
func WithOnChange(fn func()) Option {
	return func(m *Machine) {
		if fn != nil {
			m.onChange = append(m.onChange, fn)
		}
	}
}

// WithObserver registers a callback that receives a description of every transition.
// Observers run after the change callbacks.
func WithObserver(fn func(domain.TransitionEvent)) Option {
	return func(m *Machine) {
		if fn != nil {
			m.observers = append(m.observers, fn)
		}
	}
}

// WithClock replaces the wall clock, e.g. with a simulated one.
func WithClock(clock func() time.Time) Option {
	return func(m *Machine) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// WithLogger sets a structured logger for transition tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Machine) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// New declares the experiment phases and starts in the first one.
// No callback fires for the initial state.
func New(names []string, opts ...Option) (*Machine, error) {
	states, err := domain.NewStateSet(names...)
	if err != nil {
		return nil, fmt.Errorf("failed to declare states: %w", err)
	}

	m := &Machine{
		states: states,
		clock:  time.Now,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.entered = m.clock()
	return m, nil
}

// States returns the declared state set.
func (m *Machine) States() *domain.StateSet { return m.states }

// State resolves a declared state name. It panics on unknown names.
func (m *Machine) State(name string) domain.State { return m.states.MustIndex(name) }

// Current returns the active state.
func (m *Machine) Current() domain.State { return m.current }

// Last returns the state the machine most recently transitioned from.
func (m *Machine) Last() domain.State { return m.last }

// CurrentName returns the name of the active state.
func (m *Machine) CurrentName() string { return m.states.Name(m.current) }

// LastName returns the name of the previous state.
func (m *Machine) LastName() string { return m.states.Name(m.last) }

// Is reports whether the active state has the given name.
func (m *Machine) Is(name string) bool {
	st, ok := m.states.Index(name)
	return ok && st == m.current
}

// Stack returns a copy of the interrupted states, oldest first.
func (m *Machine) Stack() []domain.State {
	out := make([]domain.State, len(m.stack))
	copy(out, m.stack)
	return out
}

// Depth returns the number of interrupts currently active.
func (m *Machine) Depth() int { return len(m.stack) }

// Next transitions to target. Calling it with the current state does nothing:
// the timer keeps running and no callback fires.
func (m *Machine) Next(target domain.State) {
	m.transition(target, domain.TransitionNext)
}

// Push suspends the current state and enters the interrupt state target.
func (m *Machine) Push(target domain.State) {
	m.mustContain(target)
	if target == m.current {
		return
	}
	m.stack = append(m.stack, m.current)
	m.transition(target, domain.TransitionPush)
}

// Pop leaves the current interrupt state and resumes the state it interrupted.
// With no active interrupt it does nothing.
func (m *Machine) Pop() {
	if len(m.stack) == 0 {
		return
	}
	top := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	m.transition(top, domain.TransitionPop)
}

// NextTo is Next by state name.
func (m *Machine) NextTo(name string) { m.Next(m.State(name)) }

// PushTo is Push by state name.
func (m *Machine) PushTo(name string) { m.Push(m.State(name)) }

// Once runs fn the first time it is called during the current state residency.
func (m *Machine) Once(fn func()) {
	if m.onceLatch {
		return
	}
	m.onceLatch = true
	fn()
}

func (m *Machine) transition(target domain.State, kind domain.TransitionKind) {
	m.mustContain(target)
	if target == m.current {
		return
	}

	now := m.clock()
	ev := domain.TransitionEvent{
		Timestamp: now,
		Kind:      kind,
		From:      m.current,
		To:        target,
		FromName:  m.states.Name(m.current),
		ToName:    m.states.Name(target),
		Residency: now.Sub(m.entered),
	}

	m.last = m.current
	m.current = target
	m.entered = now
	m.onceLatch = false
	ev.Depth = len(m.stack)

	m.logger.Debug("state transition",
		"kind", kind,
		"from", ev.FromName,
		"to", ev.ToName,
		"depth", ev.Depth,
	)

	for _, fn := range m.onChange {
		fn()
	}
	for _, fn := range m.observers {
		fn(ev)
	}
}

func (m *Machine) mustContain(st domain.State) {
	if !m.states.Contains(st) {
		panic(fmt.Sprintf("paradigm: transition to undeclared state %d (declared: %d)", int(st), m.states.Len()))
	}
}
