package sequence

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"

	"github.com/aretw0/paradigm/internal/logging"
	"github.com/aretw0/paradigm/pkg/domain"
	"github.com/mohae/deepcopy"
)

// DefaultMaxReshuffles bounds the no-consecutive-repeats retry loop.
const DefaultMaxReshuffles = 1000

// Sequencer expands block specifications into the flat, ordered trial sequence.
// The stored trials are templates: accessors hand out copies.
type Sequencer struct {
	trials []domain.Trial
	cycle  int

	rng           *rand.Rand
	maxReshuffles int
	logger        *slog.Logger
	onBlock       []func(domain.BlockEvent)
}

// Option configures a Sequencer.
type Option func(*Sequencer)

// WithSeed makes shuffled sequences reproducible.
func WithSeed(seed uint64) Option {
	return func(s *Sequencer) {
		s.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// WithRand injects the random source used by Shuffle.
func WithRand(rng *rand.Rand) Option {
	return func(s *Sequencer) {
		if rng != nil {
			s.rng = rng
		}
	}
}

// WithMaxReshuffles overrides DefaultMaxReshuffles.
func WithMaxReshuffles(n int) Option {
	return func(s *Sequencer) {
		if n > 0 {
			s.maxReshuffles = n
		}
	}
}

// WithLogger sets the logger that receives policy warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Sequencer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithOnBlock registers a callback invoked after every expanded block repetition.
func WithOnBlock(fn func(domain.BlockEvent)) Option {
	return func(s *Sequencer) {
		if fn != nil {
			s.onBlock = append(s.onBlock, fn)
		}
	}
}

// New creates an empty sequencer.
func New(opts ...Option) *Sequencer {
	s := &Sequencer{
		rng:           rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		maxReshuffles: DefaultMaxReshuffles,
		logger:        logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Build replaces the sequence with the expansion of blocks and restarts cycles at 0.
// On error the previous sequence is kept and nothing is generated.
func (s *Sequencer) Build(blocks []domain.Block) error {
	return s.build(blocks, false)
}

// Append expands blocks after the existing sequence, continuing the cycle count.
func (s *Sequencer) Append(blocks []domain.Block) error {
	return s.build(blocks, true)
}

// Len returns the number of trials in the sequence.
func (s *Sequencer) Len() int { return len(s.trials) }

// Cycles returns the number of block repetitions expanded so far.
func (s *Sequencer) Cycles() int { return s.cycle }

// At returns a copy of trial i.
func (s *Sequencer) At(i int) (domain.Trial, bool) {
	if i < 0 || i >= len(s.trials) {
		return domain.Trial{}, false
	}
	return s.trials[i].Clone(), true
}

// Trials returns a copy of the whole sequence.
func (s *Sequencer) Trials() []domain.Trial {
	out := make([]domain.Trial, len(s.trials))
	for i, t := range s.trials {
		out[i] = t.Clone()
	}
	return out
}

// Reset discards the sequence.
func (s *Sequencer) Reset() {
	s.trials = nil
	s.cycle = 0
}

func (s *Sequencer) build(blocks []domain.Block, appendMode bool) error {
	for i, b := range blocks {
		if err := b.Validate(i); err != nil {
			return err
		}
	}

	var trials []domain.Trial
	var events []domain.BlockEvent
	cycle := 0
	if appendMode {
		trials = slices.Clone(s.trials)
		cycle = s.cycle
	}

	for i, b := range blocks {
		n, hasArrays := b.BaseCount()
		if !hasArrays {
			s.logger.Warn("block has no array-valued factors, one trial per repetition",
				"block", b.Options.Name)
		}
		base := make([]map[string]any, n)
		for j := range base {
			base[j] = b.FactorsAt(j)
		}
		strategy := s.strategyFor(b)

		for r := 0; r < b.Options.Repetitions; r++ {
			var prev *domain.Trial
			if len(trials) > 0 {
				prev = &trials[len(trials)-1]
			}

			order, reshuffles, err := s.orderRepetition(b, strategy, base, prev)
			if err != nil {
				return &domain.BlockError{Block: b.Options.Name, Index: i, Err: err}
			}

			for _, idx := range order {
				factors, _ := deepcopy.Copy(base[idx]).(map[string]any)
				trials = append(trials, domain.Trial{
					BlockName:  b.Options.Name,
					BlockIndex: i,
					Cycle:      cycle,
					Factors:    factors,
				})
			}

			events = append(events, domain.BlockEvent{
				Block:      b.Options.Name,
				Index:      i,
				Repetition: r,
				Cycle:      cycle,
				Trials:     len(order),
				Reshuffles: reshuffles,
			})
			cycle++
		}
	}

	s.trials = trials
	s.cycle = cycle
	for _, ev := range events {
		for _, fn := range s.onBlock {
			fn(ev)
		}
	}
	return nil
}

func (s *Sequencer) strategyFor(b domain.Block) domain.OrderingStrategy {
	switch {
	case b.Options.Shuffle && b.Options.Order != nil:
		s.logger.Warn("block sets both shuffle and a custom order, shuffle takes precedence",
			"block", b.Options.Name)
		return Shuffle()
	case b.Options.Shuffle:
		return Shuffle()
	case b.Options.Order != nil:
		return b.Options.Order
	}
	return Identity()
}

// orderRepetition draws the order of one repetition, reshuffling while the
// no-consecutive-repeats constraint is violated.
func (s *Sequencer) orderRepetition(b domain.Block, strategy domain.OrderingStrategy, base []map[string]any, prev *domain.Trial) ([]int, int, error) {
	order, err := s.drawOrder(strategy, len(base))
	if err != nil {
		return nil, 0, err
	}

	names := b.Options.NoConsecutiveRepeats
	if !b.Options.Shuffle || len(names) == 0 {
		return order, 0, nil
	}

	reshuffles := 0
	for violatesNoRepeat(order, base, prev, names, b.Options.StrictNoRepeats) {
		if reshuffles >= s.maxReshuffles {
			s.logger.Warn("giving up on no-consecutive-repeats",
				"block", b.Options.Name, "attempts", reshuffles)
			return nil, reshuffles, fmt.Errorf("%w after %d attempts", domain.ErrUnsatisfiableOrder, reshuffles)
		}
		if order, err = s.drawOrder(strategy, len(base)); err != nil {
			return nil, reshuffles, err
		}
		reshuffles++
	}
	return order, reshuffles, nil
}

func (s *Sequencer) drawOrder(strategy domain.OrderingStrategy, n int) ([]int, error) {
	order, err := strategy.Order(n, s.rng)
	if err != nil {
		return nil, err
	}
	for _, idx := range order {
		if idx < 0 || idx >= n {
			return nil, fmt.Errorf("%w: index %d, base trial count %d", domain.ErrInvalidOrder, idx, n)
		}
	}
	return order, nil
}

func violatesNoRepeat(order []int, base []map[string]any, prev *domain.Trial, names []string, strict bool) bool {
	if len(order) == 0 {
		return false
	}
	at := func(i int) domain.Trial { return domain.Trial{Factors: base[order[i]]} }

	if prev != nil && at(0).MatchesOn(*prev, names) {
		return true
	}
	if !strict {
		return false
	}
	for i := 1; i < len(order); i++ {
		if at(i).MatchesOn(at(i-1), names) {
			return true
		}
	}
	return false
}
