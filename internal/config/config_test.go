package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/paradigm/internal/config"
	"github.com/aretw0/paradigm/pkg/domain"
	"github.com/aretw0/paradigm/pkg/schema"
	"github.com/aretw0/paradigm/pkg/sequence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_YAML(t *testing.T) {
	exp, err := config.Load(filepath.Join("testdata", "reaching.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "reaching", exp.Name)
	require.NotNil(t, exp.Seed)
	assert.Equal(t, uint64(42), *exp.Seed)
	assert.Equal(t, "CONSENT", exp.States[0])

	require.Len(t, exp.Phases, 3)
	assert.Equal(t, 500*time.Millisecond, exp.Phases[0].Duration)
	assert.Equal(t, 1200*time.Millisecond, exp.Phases[1].Duration)
	assert.Equal(t, 300*time.Millisecond, exp.Phases[2].Duration, "bare numbers are milliseconds")

	require.Len(t, exp.Interrupts, 1)
	assert.Equal(t, config.Interrupt{State: "BLOCKED", After: "REACH", Every: 5, Duration: 2 * time.Second}, exp.Interrupts[0])

	require.Len(t, exp.Blocks, 2)
	assert.Equal(t, []string{"target"}, exp.Blocks[1].NoRepeats)
	assert.True(t, exp.Blocks[1].Shuffle)

	require.NoError(t, exp.Validate())
}

func TestLoad_JSON(t *testing.T) {
	exp, err := config.Load(filepath.Join("testdata", "reaching.json"))
	require.NoError(t, err)

	assert.Equal(t, "reaching-json", exp.Name)
	assert.Equal(t, 250*time.Millisecond, exp.Phases[0].Duration)
	assert.Equal(t, time.Second, exp.Phases[1].Duration)

	seq, err := exp.NewSequencer()
	require.NoError(t, err)
	require.Equal(t, 6, seq.Len())

	first, _ := seq.At(0)
	assert.EqualValues(t, 180, first.Factors["target"], "reverse order starts at the last level")
	assert.Equal(t, "right", first.Factors["hand"])
}

func TestExampleExperiment_Expands(t *testing.T) {
	exp, err := config.Load(filepath.Join("testdata", "reaching.yaml"))
	require.NoError(t, err)

	seq, err := exp.NewSequencer()
	require.NoError(t, err)
	assert.Equal(t, 4+3*8, seq.Len())
	assert.Equal(t, 4, seq.Cycles())

	again, err := exp.NewSequencer()
	require.NoError(t, err)
	assert.Equal(t, seq.Trials(), again.Trials(), "file seed makes the sequence reproducible")
}

func TestParse_RejectsUnknownKeys(t *testing.T) {
	_, err := config.Parse([]byte("states: [A]\nblokcs: []\n"), false)
	assert.Error(t, err)
}

func TestParse_RequiresStates(t *testing.T) {
	_, err := config.Parse([]byte("name: empty\n"), false)
	assert.Error(t, err)

	_, err = config.Parse(nil, false)
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidate_SchemaViolation(t *testing.T) {
	doc := `
states: [A]
blocks:
  - name: bad
    repetitions: 1
    factors:
      target: [0, "north", 180]
    schema:
      target: int
`
	exp, err := config.Parse([]byte(doc), false)
	require.NoError(t, err)

	err = exp.Validate()
	require.Error(t, err)

	var blockErr *domain.BlockError
	require.True(t, errors.As(err, &blockErr))
	assert.Equal(t, "bad", blockErr.Block)

	verrs := schema.ValidationErrors(err)
	require.Len(t, verrs, 1)
	var verr *schema.ValidationError
	require.True(t, errors.As(verrs[0], &verr))
	assert.Equal(t, "target", verr.Key)
	assert.Equal(t, 1, verr.Index)
}

func TestValidate_LengthMismatch(t *testing.T) {
	doc := `
states: [A]
blocks:
  - name: uneven
    repetitions: 1
    factors:
      x: [1, 2, 3]
      y: [1, 2]
`
	exp, err := config.Parse([]byte(doc), false)
	require.NoError(t, err)
	assert.ErrorIs(t, exp.Validate(), domain.ErrFactorLengthMismatch)
}

func TestValidate_UndeclaredStates(t *testing.T) {
	cases := map[string]string{
		"phase":           "states: [A]\nphases: [{state: B, duration: 1s}]\n",
		"interrupt":       "states: [A]\ninterrupts: [{state: B, every: 1}]\n",
		"interrupt after": "states: [A, B]\ninterrupts: [{state: B, after: C, every: 1}]\n",
		"interrupt every": "states: [A, B]\ninterrupts: [{state: B, every: 0}]\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			exp, err := config.Parse([]byte(doc), false)
			require.NoError(t, err)
			assert.Error(t, exp.Validate())
		})
	}
}

func TestBlockSpec_UnknownOrder(t *testing.T) {
	spec := config.BlockSpec{Name: "b", Order: "sideways", Factors: map[string]any{"x": []any{1, 2}}}
	_, err := spec.ToBlock(0)
	assert.Error(t, err)
}

func TestValidate_MissingRepetitionsFails(t *testing.T) {
	doc := `
states: [A]
blocks:
  - name: forgotten
    factors:
      x: [1, 2]
`
	exp, err := config.Parse([]byte(doc), false)
	require.NoError(t, err)
	assert.ErrorIs(t, exp.Validate(), domain.ErrInvalidRepetitions)

	_, err = exp.NewSequencer()
	assert.ErrorIs(t, err, domain.ErrInvalidRepetitions)
}

func TestValidate_OrderShuffleGuardsRepeats(t *testing.T) {
	doc := `
states: [A]
blocks:
  - name: main
    repetitions: 50
    order: shuffle
    no_repeats: [x]
    factors:
      x: [1, 2]
`
	exp, err := config.Parse([]byte(doc), false)
	require.NoError(t, err)

	b, err := exp.Blocks[0].ToBlock(0)
	require.NoError(t, err)
	assert.True(t, b.Options.Shuffle, "order: shuffle must enable the shuffle policy")

	seq, err := exp.NewSequencer(sequence.WithSeed(3))
	require.NoError(t, err)
	trials := seq.Trials()
	require.Len(t, trials, 100)
	for i := 2; i < len(trials); i += 2 {
		assert.NotEqual(t, trials[i-1].Factors["x"], trials[i].Factors["x"],
			"repetition boundary at trial %d repeats x", i)
	}
}
