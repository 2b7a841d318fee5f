package config

import (
	"fmt"
	"math/rand/v2"

	"github.com/aretw0/paradigm/pkg/domain"
	"github.com/aretw0/paradigm/pkg/schema"
	"github.com/aretw0/paradigm/pkg/sequence"
)

// ToBlock converts the spec into a domain block, checking factor types against the
// declared schema first.
func (b BlockSpec) ToBlock(index int) (domain.Block, error) {
	if len(b.Schema) > 0 {
		s, err := schema.ParseTypeMap(b.Schema)
		if err != nil {
			return domain.Block{}, &domain.BlockError{Block: b.Name, Index: index, Err: err}
		}
		if err := schema.ValidateFactors(s, b.Factors); err != nil {
			return domain.Block{}, &domain.BlockError{Block: b.Name, Index: index, Err: err}
		}
	}

	opts := domain.BlockOptions{
		Name:                 b.Name,
		Repetitions:          b.Repetitions,
		Shuffle:              b.Shuffle,
		NoConsecutiveRepeats: b.NoRepeats,
		StrictNoRepeats:      b.Strict,
	}
	if b.Order != "" {
		order, err := sequence.ByName(b.Order)
		if err != nil {
			return domain.Block{}, &domain.BlockError{Block: b.Name, Index: index, Err: err}
		}
		opts.Order = order
		// Named shuffle goes through the shuffle policy so no_repeats applies.
		if b.Order == "shuffle" {
			opts.Shuffle = true
		}
	}

	return domain.Block{Factors: b.Factors, Options: opts}, nil
}

// BuildBlocks converts every block spec and validates the result, so that a file can be
// checked without expanding it.
func (e *Experiment) BuildBlocks() ([]domain.Block, error) {
	blocks := make([]domain.Block, 0, len(e.Blocks))
	for i, spec := range e.Blocks {
		b, err := spec.ToBlock(i)
		if err != nil {
			return nil, err
		}
		if err := b.Validate(i); err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}
	return blocks, nil
}

// Validate checks the whole experiment: blocks, and that phases and interrupts only
// reference declared states.
func (e *Experiment) Validate() error {
	states, err := domain.NewStateSet(e.States...)
	if err != nil {
		return fmt.Errorf("experiment %q: %w", e.Name, err)
	}
	for i, p := range e.Phases {
		if _, ok := states.Index(p.State); !ok {
			return fmt.Errorf("phase #%d: undeclared state %q", i, p.State)
		}
		if p.Duration < 0 {
			return fmt.Errorf("phase #%d (%s): negative duration", i, p.State)
		}
	}
	for i, in := range e.Interrupts {
		if _, ok := states.Index(in.State); !ok {
			return fmt.Errorf("interrupt #%d: undeclared state %q", i, in.State)
		}
		if _, ok := states.Index(in.After); in.After != "" && !ok {
			return fmt.Errorf("interrupt #%d: undeclared state %q", i, in.After)
		}
		if in.Every < 1 {
			return fmt.Errorf("interrupt #%d (%s): every must be at least 1", i, in.State)
		}
	}
	_, err = e.BuildBlocks()
	return err
}

// SequencerOptions returns the options implied by the file, such as its seed.
func (e *Experiment) SequencerOptions() []sequence.Option {
	if e.Seed == nil {
		return nil
	}
	return []sequence.Option{sequence.WithSeed(*e.Seed)}
}

// NewSequencer builds the experiment's sequence. Explicit opts are applied after the
// file's own, so a command-line seed wins over the file.
func (e *Experiment) NewSequencer(opts ...sequence.Option) (*sequence.Sequencer, error) {
	blocks, err := e.BuildBlocks()
	if err != nil {
		return nil, err
	}
	seq := sequence.New(append(e.SequencerOptions(), opts...)...)
	if err := seq.Build(blocks); err != nil {
		return nil, err
	}
	return seq, nil
}

// Shuffled reports whether any block draws a random order.
func (e *Experiment) Shuffled() bool {
	for _, b := range e.Blocks {
		if b.Shuffle || b.Order == "shuffle" {
			return true
		}
	}
	return false
}

// RandomSeed draws a seed to record alongside a run that did not pin one.
func RandomSeed() uint64 { return rand.Uint64() }
