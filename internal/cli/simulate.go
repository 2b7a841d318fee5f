package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/aretw0/paradigm/internal/config"
	"github.com/aretw0/paradigm/internal/logging"
	"github.com/aretw0/paradigm/pkg/domain"
	"github.com/aretw0/paradigm/pkg/machine"
	"github.com/aretw0/paradigm/pkg/observability"
	"github.com/aretw0/paradigm/pkg/ports"
	"github.com/aretw0/paradigm/pkg/runner"
	"github.com/aretw0/paradigm/pkg/sequence"
	"github.com/aretw0/paradigm/pkg/session"
)

// DefaultFrame is the virtual frame duration of a simulation (60 Hz).
const DefaultFrame = time.Second / 60

// SimulateOptions configures a headless run of an experiment.
type SimulateOptions struct {
	SessionID string
	Store     ports.TrialStore
	// Sessions, when set, holds the session's lock for the whole run and supplies the
	// store if Store is nil.
	Sessions *session.Manager
	Seed     *uint64
	Frame    time.Duration
	Resume   bool
	Metrics  *observability.Metrics
	Logger   *slog.Logger
	OnFinish func(*domain.TrialRecord)
}

// SeedKey is the record data key holding the seed the session's sequence was built with.
const SeedKey = "seed"

// ErrUnseededResume is returned when a shuffled session has saved trials but no recorded
// seed, so its sequence cannot be rebuilt.
var ErrUnseededResume = errors.New("cannot resume a shuffled session without its seed")

// SimulateResult summarizes a finished simulation.
type SimulateResult struct {
	SessionID  string
	Seed       uint64
	Trials     int
	Skipped    int
	Interrupts int
	Frames     int
	Elapsed    time.Duration
}

// Simulate runs every trial of the experiment through its phases on a virtual clock,
// frame by frame, pushing the configured interrupts and saving each record to the store.
func Simulate(ctx context.Context, exp *config.Experiment, opts SimulateOptions) (*SimulateResult, error) {
	if err := exp.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	frame := opts.Frame
	if frame <= 0 {
		frame = DefaultFrame
	}

	store := opts.Store
	if store == nil && opts.Sessions != nil {
		store = opts.Sessions.Store()
	}
	seed, err := resolveSeed(ctx, exp, opts, store)
	if err != nil {
		return nil, err
	}

	seqOpts := []sequence.Option{sequence.WithLogger(logger), sequence.WithSeed(seed)}
	if opts.Metrics != nil {
		seqOpts = append(seqOpts, sequence.WithOnBlock(opts.Metrics.ObserveBlock))
	}
	seq, err := exp.NewSequencer(seqOpts...)
	if err != nil {
		return nil, err
	}

	clock := &virtualClock{now: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)}
	result := &SimulateResult{Seed: seed}

	var machineOpts []machine.Option
	runnerOpts := []runner.Option{
		runner.WithClock(clock.Now),
		runner.WithLogger(logger),
		runner.WithSessionID(opts.SessionID),
		runner.WithOnFinish(func(*domain.TrialRecord) { result.Trials++ }),
	}
	if store != nil {
		runnerOpts = append(runnerOpts, runner.WithStore(store))
	}
	if opts.Metrics != nil {
		machineOpts = append(machineOpts, machine.WithObserver(opts.Metrics.ObserveTransition))
		runnerOpts = append(runnerOpts, runner.WithOnFinish(opts.Metrics.ObserveTrial))
	}
	if opts.OnFinish != nil {
		runnerOpts = append(runnerOpts, runner.WithOnFinish(opts.OnFinish))
	}
	runnerOpts = append(runnerOpts, runner.WithMachineOptions(machineOpts...))

	r, err := runner.New(exp.States, seq, runnerOpts...)
	if err != nil {
		return nil, err
	}
	result.SessionID = r.SessionID()

	sc := newScript(exp.Phases, exp.Interrupts, clock.Now)
	sc.seed = strconv.FormatUint(seed, 10)
	body := func(ctx context.Context) error {
		if opts.Resume {
			if result.Skipped, err = r.Resume(ctx); err != nil {
				return err
			}
		}
		start := clock.now
		for !r.Done() {
			clock.Advance(frame)
			result.Frames++
			if err := r.Tick(ctx, sc.step); err != nil {
				return err
			}
		}
		result.Interrupts = sc.pushed
		result.Elapsed = clock.now.Sub(start)
		return nil
	}

	if opts.Sessions != nil {
		err = opts.Sessions.WithLock(ctx, r.SessionID(), body)
	} else {
		err = body(ctx)
	}
	if err != nil {
		return result, err
	}

	logger.Info("simulation finished",
		"session", result.SessionID,
		"seed", result.Seed,
		"trials", result.Trials,
		"interrupts", result.Interrupts,
		"elapsed", result.Elapsed,
	)
	return result, nil
}

// resolveSeed picks the sequence seed: the explicit one, then the file's, then the one
// recorded by an earlier run of a resumed session, and finally a fresh draw.
func resolveSeed(ctx context.Context, exp *config.Experiment, opts SimulateOptions, store ports.TrialStore) (uint64, error) {
	switch {
	case opts.Seed != nil:
		return *opts.Seed, nil
	case exp.Seed != nil:
		return *exp.Seed, nil
	case !opts.Resume || store == nil || opts.SessionID == "":
		return config.RandomSeed(), nil
	}

	numbers, err := store.Trials(ctx, opts.SessionID)
	if errors.Is(err, domain.ErrSessionNotFound) || (err == nil && len(numbers) == 0) {
		return config.RandomSeed(), nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load session %s: %w", opts.SessionID, err)
	}
	rec, err := store.Load(ctx, opts.SessionID, numbers[0])
	if err != nil {
		return 0, fmt.Errorf("failed to load session %s: %w", opts.SessionID, err)
	}
	if seed, ok := recordedSeed(rec); ok {
		return seed, nil
	}
	if exp.Shuffled() {
		return 0, fmt.Errorf("session %s: %w, pass --seed", opts.SessionID, ErrUnseededResume)
	}
	return config.RandomSeed(), nil
}

// recordedSeed reads SeedKey back. It is written as a decimal string so that stores
// which round-trip numbers through float64 keep every bit.
func recordedSeed(rec *domain.TrialRecord) (uint64, bool) {
	switch v := rec.Data[SeedKey].(type) {
	case string:
		seed, err := strconv.ParseUint(v, 10, 64)
		return seed, err == nil
	case uint64:
		return v, true
	}
	return 0, false
}

type virtualClock struct {
	now time.Time
}

func (c *virtualClock) Now() time.Time          { return c.now }
func (c *virtualClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// script is the per-frame decision function of a simulation: it walks the phases of
// each trial and pushes due interrupts on entering their phase.
type script struct {
	phases     []config.Phase
	interrupts []config.Interrupt
	now        func() time.Time
	seed       string

	phase  int
	since  time.Time
	fired  map[int]bool
	active *config.Interrupt
	pushed int
}

func newScript(phases []config.Phase, interrupts []config.Interrupt, now func() time.Time) *script {
	return &script{
		phases:     phases,
		interrupts: interrupts,
		now:        now,
		fired:      make(map[int]bool),
	}
}

func (s *script) step(ctx context.Context, r *runner.Runner) error {
	m := r.Machine()
	rec := r.Active()
	if rec == nil {
		var err error
		if rec, err = r.Begin(ctx); err != nil {
			return err
		}
		if s.seed != "" {
			rec.Data[SeedKey] = s.seed
		}
		clear(s.fired)
		if len(s.phases) == 0 {
			return r.Finish(ctx)
		}
		s.enter(m, 0)
		return nil
	}

	if s.active != nil {
		if m.Expired(s.active.Duration) {
			m.Pop()
			s.active = nil
			s.since = s.now()
		}
		return nil
	}

	current := s.phases[s.phase]
	for i := range s.interrupts {
		in := &s.interrupts[i]
		if s.fired[i] || !s.due(in, current.State, rec.TrialNumber) {
			continue
		}
		s.fired[i] = true
		s.active = in
		s.pushed++
		rec.Data["interrupts"] = len(s.fired)
		m.PushTo(in.State)
		return nil
	}

	if s.now().Sub(s.since) < current.Duration {
		return nil
	}
	if s.phase+1 < len(s.phases) {
		s.enter(m, s.phase+1)
		return nil
	}
	rec.Data["duration"] = s.now().Sub(rec.StartedAt).Seconds()
	return r.Finish(ctx)
}

func (s *script) enter(m *machine.Machine, phase int) {
	s.phase = phase
	s.since = s.now()
	m.NextTo(s.phases[phase].State)
}

// due reports whether in fires during state for the given trial. An interrupt without
// an After state fires during the first phase.
func (s *script) due(in *config.Interrupt, state string, trialNumber int) bool {
	after := in.After
	if after == "" {
		after = s.phases[0].State
	}
	return after == state && (trialNumber+1)%in.Every == 0
}
