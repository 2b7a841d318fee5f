package cli_test

import (
	"context"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/paradigm/internal/adapters/sqlite"
	"github.com/aretw0/paradigm/internal/cli"
	"github.com/aretw0/paradigm/internal/config"
	"github.com/aretw0/paradigm/pkg/adapters/memory"
	"github.com/aretw0/paradigm/pkg/domain"
	"github.com/aretw0/paradigm/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadExperiment(t *testing.T) *config.Experiment {
	t.Helper()
	exp, err := config.Load(filepath.Join("..", "config", "testdata", "reaching.yaml"))
	require.NoError(t, err)
	return exp
}

func stateNames(rec *domain.TrialRecord) []string {
	names := make([]string, len(rec.States))
	for i, s := range rec.States {
		names[i] = s.Name
	}
	return names
}

func TestOpenStore(t *testing.T) {
	store, closeFn, err := cli.OpenStore(cli.StoreOptions{})
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, store)
	assert.NoError(t, closeFn())

	_, _, err = cli.OpenStore(cli.StoreOptions{Kind: "file", Path: t.TempDir()})
	assert.NoError(t, err)

	db, closeDB, err := cli.OpenStore(cli.StoreOptions{Kind: "sqlite", Path: filepath.Join(t.TempDir(), "nested", "trials.db")})
	require.NoError(t, err)
	assert.IsType(t, &sqlite.Store{}, db)
	assert.NoError(t, closeDB())

	_, _, err = cli.OpenStore(cli.StoreOptions{Kind: "redis"})
	assert.Error(t, err)

	_, _, err = cli.OpenStore(cli.StoreOptions{Kind: "tape"})
	assert.Error(t, err)
}

func TestOpenStore_Middleware(t *testing.T) {
	key := strings.Repeat("ab", 32)
	store, _, err := cli.OpenStore(cli.StoreOptions{
		Kind:          "file",
		Path:          t.TempDir(),
		MaskPatterns:  []string{"^name$"},
		EncryptionKey: key,
	})
	require.NoError(t, err)

	ctx := context.Background()
	rec := domain.NewTrialRecord(domain.Trial{BlockName: "b"}, 0)
	rec.Data["name"] = "Ada"
	rec.Data["rt"] = 0.3
	require.NoError(t, store.Save(ctx, "s1", rec))

	loaded, err := store.Load(ctx, "s1", 0)
	require.NoError(t, err)
	assert.Equal(t, "***", loaded.Data["name"])
	assert.Equal(t, 0.3, loaded.Data["rt"])

	_, _, err = cli.OpenStore(cli.StoreOptions{EncryptionKey: "zz"})
	assert.Error(t, err)
	_, _, err = cli.OpenStore(cli.StoreOptions{EncryptionKey: "abcd"})
	assert.Error(t, err)
	_, _, err = cli.OpenStore(cli.StoreOptions{MaskPatterns: []string{"("}})
	assert.Error(t, err)
}

func TestOpenStore_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	store, closeFn, err := cli.OpenStore(cli.StoreOptions{Kind: "redis", RedisURL: "redis://" + mr.Addr(), TTL: time.Hour})
	require.NoError(t, err)
	defer closeFn()

	rec := domain.NewTrialRecord(domain.Trial{BlockName: "b"}, 0)
	require.NoError(t, store.Save(context.Background(), "s1", rec))
	assert.Greater(t, mr.TTL("paradigm:session:s1"), time.Duration(0))
}

func TestSimulate_RunsEveryTrial(t *testing.T) {
	exp := loadExperiment(t)
	store := memory.NewStore()
	reg := prometheus.NewRegistry()
	ctx := context.Background()

	res, err := cli.Simulate(ctx, exp, cli.SimulateOptions{
		SessionID: "sim",
		Store:     store,
		Metrics:   observability.NewMetrics(reg),
	})
	require.NoError(t, err)

	assert.Equal(t, "sim", res.SessionID)
	assert.Equal(t, 28, res.Trials)
	assert.Equal(t, 5, res.Interrupts, "every fifth trial is interrupted")
	assert.GreaterOrEqual(t, res.Elapsed, 28*2*time.Second+5*2*time.Second)

	numbers, err := store.Trials(ctx, "sim")
	require.NoError(t, err)
	assert.Len(t, numbers, 28)

	plain, err := store.Load(ctx, "sim", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"CONSENT", "HOME", "REACH", "FEEDBACK"}, stateNames(plain))

	interrupted, err := store.Load(ctx, "sim", 4)
	require.NoError(t, err)
	assert.Equal(t, []string{"FEEDBACK", "HOME", "REACH", "BLOCKED", "REACH", "FEEDBACK"}, stateNames(interrupted))
	assert.EqualValues(t, 1, interrupted.Data["interrupts"])

	count, err := testutil.GatherAndCount(reg, "paradigm_trials_completed_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "one series per block")
}

func TestSimulate_SeedIsReproducible(t *testing.T) {
	exp := loadExperiment(t)
	ctx := context.Background()

	order := func(seed uint64) []any {
		store := memory.NewStore()
		_, err := cli.Simulate(ctx, exp, cli.SimulateOptions{SessionID: "s", Store: store, Seed: &seed})
		require.NoError(t, err)
		var targets []any
		for i := 0; i < 28; i++ {
			rec, err := store.Load(ctx, "s", i)
			require.NoError(t, err)
			targets = append(targets, rec.Trial.Factors["target"])
		}
		return targets
	}

	assert.Equal(t, order(3), order(3))
}

func TestSimulate_Resume(t *testing.T) {
	exp := loadExperiment(t)
	store := memory.NewStore()
	ctx := context.Background()

	var first []int
	_, err := cli.Simulate(ctx, exp, cli.SimulateOptions{
		SessionID: "resumable",
		Store:     store,
		OnFinish: func(rec *domain.TrialRecord) {
			first = append(first, rec.TrialNumber)
		},
	})
	require.NoError(t, err)
	assert.True(t, slices.IsSorted(first))

	res, err := cli.Simulate(ctx, exp, cli.SimulateOptions{SessionID: "resumable", Store: store, Resume: true})
	require.NoError(t, err)
	assert.Equal(t, 28, res.Skipped)
	assert.Equal(t, 0, res.Trials)
}

const shuffledUnseeded = `
states: [A]
phases: [{state: A, duration: 10}]
blocks:
  - name: shuffled
    repetitions: 1
    shuffle: true
    factors:
      x: [1, 2, 3, 4, 5, 6]
`

func TestSimulate_ResumeUnseededReusesRecordedSeed(t *testing.T) {
	exp, err := config.Parse([]byte(shuffledUnseeded), false)
	require.NoError(t, err)
	require.Nil(t, exp.Seed)
	store := memory.NewStore()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	first, err := cli.Simulate(ctx, exp, cli.SimulateOptions{
		SessionID: "partial",
		Store:     store,
		OnFinish: func(rec *domain.TrialRecord) {
			if rec.TrialNumber == 2 {
				cancel()
			}
		},
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 3, first.Trials)

	res, err := cli.Simulate(context.Background(), exp, cli.SimulateOptions{
		SessionID: "partial",
		Store:     store,
		Resume:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Skipped)
	assert.Equal(t, 3, res.Trials)
	assert.Equal(t, first.Seed, res.Seed)

	var xs []any
	for i := 0; i < 6; i++ {
		rec, err := store.Load(context.Background(), "partial", i)
		require.NoError(t, err)
		assert.Equal(t, strconv.FormatUint(first.Seed, 10), rec.Data[cli.SeedKey])
		xs = append(xs, rec.Trial.Factors["x"])
	}
	assert.ElementsMatch(t, []any{1, 2, 3, 4, 5, 6}, xs, "resumed session must cover every combination once")
}

func TestSimulate_ResumeShuffledWithoutSeedFails(t *testing.T) {
	exp, err := config.Parse([]byte(shuffledUnseeded), false)
	require.NoError(t, err)
	store := memory.NewStore()
	ctx := context.Background()

	legacy := domain.NewTrialRecord(domain.Trial{BlockName: "shuffled", Factors: map[string]any{"x": 4}}, 0)
	require.NoError(t, store.Save(ctx, "legacy", legacy))

	_, err = cli.Simulate(ctx, exp, cli.SimulateOptions{SessionID: "legacy", Store: store, Resume: true})
	assert.ErrorIs(t, err, cli.ErrUnseededResume)

	seed := uint64(9)
	res, err := cli.Simulate(ctx, exp, cli.SimulateOptions{SessionID: "legacy", Store: store, Resume: true, Seed: &seed})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped)
}

func TestSimulate_NoPhases(t *testing.T) {
	exp, err := config.Parse([]byte("states: [A]\nblocks: [{name: b, repetitions: 1, factors: {x: [1, 2]}}]\n"), false)
	require.NoError(t, err)

	res, err := cli.Simulate(context.Background(), exp, cli.SimulateOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Trials)
	assert.Equal(t, 2, res.Frames)
}

func TestSimulate_InvalidExperiment(t *testing.T) {
	exp, err := config.Parse([]byte("states: [A]\nphases: [{state: Z}]\n"), false)
	require.NoError(t, err)

	_, err = cli.Simulate(context.Background(), exp, cli.SimulateOptions{})
	assert.Error(t, err)
}

func TestOpenSessions_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	sessions, closeFn, err := cli.OpenSessions(cli.StoreOptions{Kind: "redis", RedisURL: "redis://" + mr.Addr()})
	require.NoError(t, err)
	defer closeFn()

	res, err := cli.Simulate(context.Background(), loadExperiment(t), cli.SimulateOptions{
		SessionID: "locked",
		Sessions:  sessions,
	})
	require.NoError(t, err)
	assert.Equal(t, 28, res.Trials)

	trials, err := sessions.Trials(context.Background(), "locked")
	require.NoError(t, err)
	assert.Len(t, trials, 28)
}

func TestSimulate_SessionBusy(t *testing.T) {
	sessions, _, err := cli.OpenSessions(cli.StoreOptions{})
	require.NoError(t, err)
	exp := loadExperiment(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err = sessions.WithLock(context.Background(), "busy", func(context.Context) error {
		done := make(chan error, 1)
		go func() {
			_, err := cli.Simulate(ctx, exp, cli.SimulateOptions{SessionID: "busy", Sessions: sessions})
			done <- err
		}()
		select {
		case err := <-done:
			t.Errorf("simulate must wait for the session lock, got %v", err)
		case <-ctx.Done():
		}
		return nil
	})
	require.NoError(t, err)
}
