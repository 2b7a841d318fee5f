package domain

import (
	"fmt"
	"maps"
	"math/rand/v2"
	"reflect"
	"slices"
)

// OrderingStrategy produces the base order of one block repetition.
// Given the base trial count n it returns indices into the block's factor arrays.
// A permutation of 0..n-1 is expected; filtering or repeating indices is tolerated,
// indices outside the domain are not.
type OrderingStrategy interface {
	Order(n int, rng *rand.Rand) ([]int, error)
}

// BlockOptions controls how a block is expanded into trials.
type BlockOptions struct {
	Name        string
	Repetitions int
	Shuffle     bool

	// Order is a custom ordering. Shuffle takes precedence when both are set.
	Order OrderingStrategy

	// NoConsecutiveRepeats names factors that must not all match between the last
	// emitted trial and the first trial of a new shuffled repetition.
	NoConsecutiveRepeats []string

	// StrictNoRepeats extends the NoConsecutiveRepeats check to every adjacent pair
	// inside the repetition, not only the repetition boundary.
	StrictNoRepeats bool
}

// Block is a declarative factor template plus its sequencing options.
// A slice-valued factor holds one value per base trial; any other value is broadcast.
type Block struct {
	Factors map[string]any
	Options BlockOptions
}

// FactorNames returns the factor names in sorted order.
func (b Block) FactorNames() []string {
	return slices.Sorted(maps.Keys(b.Factors))
}

// BaseCount returns the shared length of the array-valued factors.
// When the block has no array-valued factor it returns (1, false).
func (b Block) BaseCount() (int, bool) {
	for _, key := range b.FactorNames() {
		if n, ok := factorLen(b.Factors[key]); ok {
			return n, true
		}
	}
	return 1, false
}

// Validate checks the block for configuration errors.
// index is the block's position in the input list and is only used for reporting.
func (b Block) Validate(index int) error {
	fail := func(key string, err error) error {
		return &BlockError{Block: b.Options.Name, Index: index, Key: key, Err: err}
	}

	if b.Options.Repetitions < 1 {
		return fail("", fmt.Errorf("%w (got %d)", ErrInvalidRepetitions, b.Options.Repetitions))
	}

	count, firstKey := -1, ""
	for _, key := range b.FactorNames() {
		if IsReservedFactor(key) {
			return fail(key, ErrReservedFactor)
		}
		n, isArray := factorLen(b.Factors[key])
		if !isArray {
			continue
		}
		if count < 0 {
			count, firstKey = n, key
			continue
		}
		if n != count {
			return fail(key, fmt.Errorf("%w: %q has %d values, %q has %d", ErrFactorLengthMismatch, key, n, firstKey, count))
		}
	}
	return nil
}

// FactorsAt returns the factor values of base trial i.
func (b Block) FactorsAt(i int) map[string]any {
	out := make(map[string]any, len(b.Factors))
	for key, v := range b.Factors {
		out[key] = factorValue(v, i)
	}
	return out
}

func factorLen(v any) (int, bool) {
	if v == nil {
		return 0, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return rv.Len(), true
	}
	return 0, false
}

func factorValue(v any, i int) any {
	if _, ok := factorLen(v); !ok {
		return v
	}
	return reflect.ValueOf(v).Index(i).Interface()
}
