package sequence

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/aretw0/paradigm/pkg/domain"
)

// Identity keeps the declared factor order.
func Identity() domain.OrderingStrategy { return identity{} }

// Shuffle draws a uniform random permutation (Fisher-Yates) from the sequencer's source.
func Shuffle() domain.OrderingStrategy { return shuffle{} }

// Reverse emits the declared factor order backwards.
func Reverse() domain.OrderingStrategy {
	return Custom(func(indices []int) []int {
		slices.Reverse(indices)
		return indices
	})
}

// Custom adapts a function over the identity permutation into an OrderingStrategy.
// The function may reorder, drop or repeat indices.
type Custom func(indices []int) []int

// Order implements domain.OrderingStrategy.
func (c Custom) Order(n int, _ *rand.Rand) ([]int, error) {
	return c(identityOrder(n)), nil
}

type identity struct{}

func (identity) Order(n int, _ *rand.Rand) ([]int, error) {
	return identityOrder(n), nil
}

type shuffle struct{}

func (shuffle) Order(n int, rng *rand.Rand) ([]int, error) {
	order := identityOrder(n)
	rng.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})
	return order, nil
}

// ByName resolves the ordering names accepted in experiment files.
func ByName(name string) (domain.OrderingStrategy, error) {
	switch name {
	case "", "identity":
		return Identity(), nil
	case "reverse":
		return Reverse(), nil
	case "shuffle":
		return Shuffle(), nil
	}
	return nil, fmt.Errorf("unknown ordering %q", name)
}

func identityOrder(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}
