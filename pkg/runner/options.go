package runner

import (
	"log/slog"
	"time"

	"github.com/aretw0/paradigm/pkg/domain"
	"github.com/aretw0/paradigm/pkg/machine"
	"github.com/aretw0/paradigm/pkg/ports"
)

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithStore configures where finished trials are saved.
// Without a store, Finish only closes the record.
func WithStore(store ports.TrialStore) Option {
	return func(r *Runner) {
		r.store = store
	}
}

// WithSessionID sets the session ID records are saved under (default: random UUID).
func WithSessionID(id string) Option {
	return func(r *Runner) {
		if id != "" {
			r.sessionID = id
		}
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithClock replaces the wall clock for both the runner and its machine.
func WithClock(clock func() time.Time) Option {
	return func(r *Runner) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// WithMachineOptions forwards options to the owned state machine.
func WithMachineOptions(opts ...machine.Option) Option {
	return func(r *Runner) {
		r.machineOpts = append(r.machineOpts, opts...)
	}
}

// WithOnFinish registers a callback invoked with every finished record, after it was saved.
func WithOnFinish(fn func(*domain.TrialRecord)) Option {
	return func(r *Runner) {
		if fn != nil {
			r.onFinish = append(r.onFinish, fn)
		}
	}
}
