package dsl

import (
	"github.com/aretw0/paradigm/pkg/domain"
	"github.com/aretw0/paradigm/pkg/sequence"
)

// BlockBuilder provides a fluent API for configuring a block.
type BlockBuilder struct {
	block   domain.Block
	builder *Builder

	// first construction error, reported by Build
	err    error
	errKey string
}

// Factor declares a factor with one value per base trial.
// A single value is broadcast to every trial.
func (n *BlockBuilder) Factor(name string, values ...any) *BlockBuilder {
	if domain.IsReservedFactor(name) && n.err == nil {
		n.err, n.errKey = domain.ErrReservedFactor, name
	}
	if len(values) == 1 {
		n.block.Factors[name] = values[0]
		return n
	}
	n.block.Factors[name] = values
	return n
}

// Levels declares an array-valued factor even when it has a single level.
func (n *BlockBuilder) Levels(name string, values ...any) *BlockBuilder {
	if domain.IsReservedFactor(name) && n.err == nil {
		n.err, n.errKey = domain.ErrReservedFactor, name
	}
	n.block.Factors[name] = values
	return n
}

// Repeat sets how many times the block's base trials are run.
func (n *BlockBuilder) Repeat(times int) *BlockBuilder {
	n.block.Options.Repetitions = times
	return n
}

// Shuffle randomizes every repetition.
func (n *BlockBuilder) Shuffle() *BlockBuilder {
	n.block.Options.Shuffle = true
	return n
}

// OrderBy sets a custom ordering. It is ignored when Shuffle is also set.
func (n *BlockBuilder) OrderBy(strategy domain.OrderingStrategy) *BlockBuilder {
	n.block.Options.Order = strategy
	return n
}

// OrderFunc is OrderBy for a plain function over the identity permutation.
func (n *BlockBuilder) OrderFunc(fn func([]int) []int) *BlockBuilder {
	return n.OrderBy(sequence.Custom(fn))
}

// NoRepeats forbids a shuffled repetition from starting with a trial equal to the
// previous one on all the given factors.
func (n *BlockBuilder) NoRepeats(factors ...string) *BlockBuilder {
	n.block.Options.NoConsecutiveRepeats = append(n.block.Options.NoConsecutiveRepeats, factors...)
	return n
}

// Strict extends NoRepeats to every adjacent pair inside a repetition.
func (n *BlockBuilder) Strict() *BlockBuilder {
	n.block.Options.StrictNoRepeats = true
	return n
}

// Block starts the next block on the parent builder.
func (n *BlockBuilder) Block(name string) *BlockBuilder {
	return n.builder.Block(name)
}

// Build builds the whole design, see Builder.Build.
func (n *BlockBuilder) Build() ([]domain.Block, error) {
	return n.builder.Build()
}

// MustBuild builds the whole design, see Builder.MustBuild.
func (n *BlockBuilder) MustBuild() []domain.Block {
	return n.builder.MustBuild()
}
