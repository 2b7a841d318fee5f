package domain

import (
	"fmt"
	"time"
)

// State is the stable index of a declared experiment phase.
// Indices are assigned in declaration order and never renumbered.
type State int

// StateSet is the bijective name <-> index map of an experiment's phases.
// It is built once and is read-only afterwards.
type StateSet struct {
	names []string
	index map[string]State
}

// NewStateSet assigns indices 0..N-1 to the given names, in order.
func NewStateSet(names ...string) (*StateSet, error) {
	if len(names) == 0 {
		return nil, ErrNoStates
	}

	set := &StateSet{
		names: make([]string, 0, len(names)),
		index: make(map[string]State, len(names)),
	}
	for i, name := range names {
		if name == "" {
			return nil, fmt.Errorf("state %d: %w", i, ErrEmptyStateName)
		}
		if _, exists := set.index[name]; exists {
			return nil, fmt.Errorf("state %q: %w", name, ErrDuplicateState)
		}
		set.index[name] = State(i)
		set.names = append(set.names, name)
	}
	return set, nil
}

// Len returns the number of declared states.
func (s *StateSet) Len() int { return len(s.names) }

// Contains reports whether st is a declared index.
func (s *StateSet) Contains(st State) bool {
	return st >= 0 && int(st) < len(s.names)
}

// Index resolves a state name.
func (s *StateSet) Index(name string) (State, bool) {
	st, ok := s.index[name]
	return st, ok
}

// MustIndex resolves a state name and panics if it was never declared.
func (s *StateSet) MustIndex(name string) State {
	st, ok := s.index[name]
	if !ok {
		panic(fmt.Sprintf("paradigm: undeclared state %q", name))
	}
	return st
}

// Name returns the declared name of st, or a placeholder for undeclared indices.
func (s *StateSet) Name(st State) string {
	if !s.Contains(st) {
		return fmt.Sprintf("State(%d)", int(st))
	}
	return s.names[st]
}

// Names returns a copy of the declared names in index order.
func (s *StateSet) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// StateStamp is one (state, timestamp) pair appended to a trial record on every transition.
type StateStamp struct {
	State State     `json:"state"`
	Name  string    `json:"name"`
	At    time.Time `json:"at"`
}
