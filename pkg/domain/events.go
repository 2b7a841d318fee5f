package domain

import (
	"time"
)

// TransitionKind tells which primitive caused a transition.
type TransitionKind string

const (
	TransitionNext TransitionKind = "next"
	TransitionPush TransitionKind = "push"
	TransitionPop  TransitionKind = "pop"
)

// TransitionEvent describes one actual state change.
type TransitionEvent struct {
	Timestamp time.Time      `json:"timestamp"`
	Kind      TransitionKind `json:"kind"`
	From      State          `json:"from"`
	To        State          `json:"to"`
	FromName  string         `json:"from_name"`
	ToName    string         `json:"to_name"`
	Depth     int            `json:"depth"`     // Interrupt stack depth after the transition
	Residency time.Duration  `json:"residency"` // Time spent in From
}

// BlockEvent describes one expanded block repetition.
type BlockEvent struct {
	Block      string `json:"block"`
	Index      int    `json:"index"`
	Repetition int    `json:"repetition"`
	Cycle      int    `json:"cycle"`
	Trials     int    `json:"trials"`
	Reshuffles int    `json:"reshuffles"`
}
