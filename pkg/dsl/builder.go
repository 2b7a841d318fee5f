package dsl

import (
	"fmt"

	"github.com/aretw0/paradigm/pkg/domain"
)

// Builder collects block specifications in declaration order.
type Builder struct {
	blocks []*BlockBuilder
}

// New creates a new design builder.
func New() *Builder {
	return &Builder{}
}

// Block starts a new block. Blocks are expanded in the order they are added.
// Repetitions default to 1.
func (b *Builder) Block(name string) *BlockBuilder {
	bb := &BlockBuilder{
		block: domain.Block{
			Factors: make(map[string]any),
			Options: domain.BlockOptions{Name: name, Repetitions: 1},
		},
		builder: b,
	}
	b.blocks = append(b.blocks, bb)
	return bb
}

// Build validates every block and returns them ready for a Sequencer.
// The first configuration error stops the build.
func (b *Builder) Build() ([]domain.Block, error) {
	blocks := make([]domain.Block, 0, len(b.blocks))
	for i, bb := range b.blocks {
		if bb.err != nil {
			return nil, &domain.BlockError{Block: bb.block.Options.Name, Index: i, Key: bb.errKey, Err: bb.err}
		}
		if err := bb.block.Validate(i); err != nil {
			return nil, fmt.Errorf("invalid design: %w", err)
		}
		blocks = append(blocks, bb.block)
	}
	return blocks, nil
}

// MustBuild is Build for static designs; it panics on configuration errors.
func (b *Builder) MustBuild() []domain.Block {
	blocks, err := b.Build()
	if err != nil {
		panic(err)
	}
	return blocks
}
