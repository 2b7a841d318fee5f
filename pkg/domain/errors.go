package domain

import (
	"errors"
	"fmt"
)

// State declaration errors.
var (
	ErrNoStates       = errors.New("no states declared")
	ErrEmptyStateName = errors.New("empty state name")
	ErrDuplicateState = errors.New("duplicate state name")
)

// Block configuration errors. They are always returned wrapped in a *BlockError.
var (
	ErrReservedFactor       = errors.New("reserved factor name")
	ErrFactorLengthMismatch = errors.New("factor arrays have different lengths")
	ErrInvalidRepetitions   = errors.New("repetitions must be at least 1")
	ErrInvalidOrder         = errors.New("ordering returned an index outside the block")
	ErrUnsatisfiableOrder   = errors.New("no ordering satisfies the no-consecutive-repeats constraint")
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrTrialNotFound is returned when a trial number has no saved record.
var ErrTrialNotFound = errors.New("trial not found")

// BlockError reports which block (and, when relevant, which factor) stopped sequence construction.
type BlockError struct {
	Block string // Block name from its options
	Index int    // Position of the block in the input list
	Key   string // Offending factor, empty for block-level failures
	Err   error
}

func (e *BlockError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("block %q (#%d): %v", e.Block, e.Index, e.Err)
	}
	return fmt.Sprintf("block %q (#%d) factor %q: %v", e.Block, e.Index, e.Key, e.Err)
}

func (e *BlockError) Unwrap() error { return e.Err }
