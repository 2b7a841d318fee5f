package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/paradigm/internal/logging"
	"github.com/aretw0/paradigm/pkg/domain"
	"github.com/aretw0/paradigm/pkg/machine"
	"github.com/aretw0/paradigm/pkg/ports"
	"github.com/aretw0/paradigm/pkg/sequence"
	"github.com/google/uuid"
)

var (
	// ErrStop can be returned by a StepFunc to end Run without error.
	ErrStop = errors.New("runner: stop requested")
	// ErrSequenceExhausted is returned by Begin when every trial has been run.
	ErrSequenceExhausted = errors.New("runner: no trials left")
	// ErrTrialInProgress is returned by Begin while the active trial is not finished.
	ErrTrialInProgress = errors.New("runner: trial already in progress")
	// ErrNoActiveTrial is returned by Finish when no trial was begun.
	ErrNoActiveTrial = errors.New("runner: no active trial")
)

// StepFunc is the per-frame decision function of an experiment.
type StepFunc func(ctx context.Context, r *Runner) error

// Runner is the frame-driven driver of one experiment session.
// It owns exactly one state machine and one trial sequence, and turns sequence templates
// into per-run working copies. Like its parts it is not safe for concurrent use.
type Runner struct {
	machine *machine.Machine
	seq     *sequence.Sequencer

	store     ports.TrialStore
	sessionID string
	logger    *slog.Logger
	clock     func() time.Time

	machineOpts []machine.Option
	onFinish    []func(*domain.TrialRecord)

	next   int
	active *domain.TrialRecord
}

// New creates a runner over the given phases and sequence.
// The runner's state logger is registered as the machine's first change callback.
func New(states []string, seq *sequence.Sequencer, opts ...Option) (*Runner, error) {
	if seq == nil {
		return nil, fmt.Errorf("sequence is required")
	}

	r := &Runner{
		seq:       seq,
		sessionID: uuid.NewString(),
		logger:    logging.NewNop(),
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}

	mopts := []machine.Option{
		machine.WithClock(r.clock),
		machine.WithLogger(r.logger),
		machine.WithOnChange(r.recordState),
	}
	m, err := machine.New(states, append(mopts, r.machineOpts...)...)
	if err != nil {
		return nil, err
	}
	r.machine = m
	r.logger = r.logger.With("session", r.sessionID)
	return r, nil
}

// Machine returns the owned state machine.
func (r *Runner) Machine() *machine.Machine { return r.machine }

// Sequence returns the owned trial sequence.
func (r *Runner) Sequence() *sequence.Sequencer { return r.seq }

// SessionID returns the ID records are saved under.
func (r *Runner) SessionID() string { return r.sessionID }

// Active returns the working copy of the trial in progress, or nil.
func (r *Runner) Active() *domain.TrialRecord { return r.active }

// Remaining returns the number of trials not yet begun.
func (r *Runner) Remaining() int {
	if n := r.seq.Len() - r.next; n > 0 {
		return n
	}
	return 0
}

// Done reports whether every trial has been run and finished.
func (r *Runner) Done() bool {
	return r.active == nil && r.Remaining() == 0
}

// Begin starts the next trial: the template is deep-copied into a fresh record
// numbered by its position in the sequence. The current state is stamped as its first entry.
func (r *Runner) Begin(ctx context.Context) (*domain.TrialRecord, error) {
	if r.active != nil {
		return nil, ErrTrialInProgress
	}
	template, ok := r.seq.At(r.next)
	if !ok {
		return nil, ErrSequenceExhausted
	}

	rec := domain.NewTrialRecord(template, r.next)
	rec.SessionID = r.sessionID
	rec.StartedAt = r.clock()
	r.active = rec
	r.next++
	r.recordState()

	r.logger.Debug("trial started",
		"trial", rec.TrialNumber,
		"block", rec.Trial.BlockName,
		"cycle", rec.Trial.Cycle,
	)
	return rec, nil
}

// Finish closes the active trial and hands it to the store.
// The record stays active when saving fails, so Finish can be retried.
func (r *Runner) Finish(ctx context.Context) error {
	rec := r.active
	if rec == nil {
		return ErrNoActiveTrial
	}
	rec.FinishedAt = r.clock()

	if r.store != nil {
		if err := r.store.Save(ctx, r.sessionID, rec); err != nil {
			return fmt.Errorf("failed to save trial %d: %w", rec.TrialNumber, err)
		}
	}
	r.active = nil

	r.logger.Debug("trial finished",
		"trial", rec.TrialNumber,
		"duration", rec.FinishedAt.Sub(rec.StartedAt),
	)
	for _, fn := range r.onFinish {
		fn(rec)
	}
	return nil
}

// Tick runs one frame.
func (r *Runner) Tick(ctx context.Context, step StepFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return step(ctx, r)
}

// Run calls step once per interval until it returns ErrStop or an error, the sequence
// is done, or ctx is cancelled.
func (r *Runner) Run(ctx context.Context, interval time.Duration, step StepFunc) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			err := r.Tick(ctx, step)
			if errors.Is(err, ErrStop) {
				return nil
			}
			if err != nil {
				return err
			}
			if r.Done() {
				return nil
			}
		}
	}
}

// recordState is the data logger: it stamps every transition onto the active record.
func (r *Runner) recordState() {
	if r.active == nil {
		return
	}
	r.active.States = append(r.active.States, domain.StateStamp{
		State: r.machine.Current(),
		Name:  r.machine.CurrentName(),
		At:    r.clock(),
	})
}
