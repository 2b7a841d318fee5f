package paradigm

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/aretw0/paradigm/internal/config"
	"github.com/aretw0/paradigm/internal/logging"
	"github.com/aretw0/paradigm/pkg/domain"
	"github.com/aretw0/paradigm/pkg/machine"
	"github.com/aretw0/paradigm/pkg/observability"
	"github.com/aretw0/paradigm/pkg/ports"
	"github.com/aretw0/paradigm/pkg/runner"
	"github.com/aretw0/paradigm/pkg/sequence"
)

// Version is the release version, overridden at build time with -ldflags.
var Version = "0.1.0-dev"

// Experiment is the high-level entry point: a set of states and blocks, ready to be
// expanded into a sequence and driven by a runner.
type Experiment struct {
	Name string

	states []string
	blocks []domain.Block
	seed   *uint64

	store   ports.TrialStore
	metrics *observability.Metrics
	logger  *slog.Logger
}

// Option defines a functional option for configuring the Experiment.
type Option func(*Experiment)

// WithStates declares the state machine, bypassing the experiment file.
func WithStates(names ...string) Option {
	return func(e *Experiment) {
		e.states = names
	}
}

// WithBlocks declares the blocks, bypassing the experiment file.
func WithBlocks(blocks ...domain.Block) Option {
	return func(e *Experiment) {
		e.blocks = blocks
	}
}

// WithSeed pins the shuffle seed, overriding the file's.
func WithSeed(seed uint64) Option {
	return func(e *Experiment) {
		e.seed = &seed
	}
}

// WithStore sets where runners save finished trials.
func WithStore(store ports.TrialStore) Option {
	return func(e *Experiment) {
		e.store = store
	}
}

// WithMetrics wires machine, sequence and runner events into m.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Experiment) {
		e.metrics = m
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Experiment) {
		e.logger = logger
	}
}

// New loads the experiment file at path. When both WithStates and WithBlocks are given,
// path may be empty and no file is read.
func New(path string, opts ...Option) (*Experiment, error) {
	exp := &Experiment{}
	for _, opt := range opts {
		opt(exp)
	}

	if exp.states == nil || exp.blocks == nil {
		if path == "" {
			return nil, fmt.Errorf("path is required when states and blocks are not provided")
		}
		def, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		blocks, err := def.BuildBlocks()
		if err != nil {
			return nil, err
		}
		if exp.states == nil {
			exp.states = def.States
		}
		if exp.blocks == nil {
			exp.blocks = blocks
		}
		if exp.seed == nil {
			exp.seed = def.Seed
		}
		exp.Name = def.Name
	}
	if exp.Name == "" && path != "" {
		exp.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	if _, err := domain.NewStateSet(exp.states...); err != nil {
		return nil, err
	}

	if exp.logger == nil {
		exp.logger = logging.NewNop()
	}
	if exp.Name != "" {
		exp.logger = exp.logger.With("experiment", exp.Name)
	}
	return exp, nil
}

// States returns the declared state names.
func (e *Experiment) States() []string { return e.states }

// Blocks returns the declared blocks.
func (e *Experiment) Blocks() []domain.Block { return e.blocks }

// Sequence expands the blocks into a new trial sequence.
func (e *Experiment) Sequence(opts ...sequence.Option) (*sequence.Sequencer, error) {
	base := []sequence.Option{sequence.WithLogger(e.logger)}
	if e.seed != nil {
		base = append(base, sequence.WithSeed(*e.seed))
	}
	if e.metrics != nil {
		base = append(base, sequence.WithOnBlock(e.metrics.ObserveBlock))
	}

	seq := sequence.New(append(base, opts...)...)
	if err := seq.Build(e.blocks); err != nil {
		return nil, err
	}
	return seq, nil
}

// NewRunner expands a fresh sequence and returns a runner over it, wired to the
// experiment's store, metrics and logger. Explicit opts are applied last.
func (e *Experiment) NewRunner(opts ...runner.Option) (*runner.Runner, error) {
	seq, err := e.Sequence()
	if err != nil {
		return nil, err
	}

	base := []runner.Option{runner.WithLogger(e.logger)}
	if e.store != nil {
		base = append(base, runner.WithStore(e.store))
	}
	if e.metrics != nil {
		base = append(base,
			runner.WithMachineOptions(machine.WithObserver(e.metrics.ObserveTransition)),
			runner.WithOnFinish(e.metrics.ObserveTrial),
		)
	}
	return runner.New(e.states, seq, append(base, opts...)...)
}
