package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aretw0/paradigm/internal/adapters/sqlite"
	"github.com/aretw0/paradigm/pkg/domain"
	"github.com/aretw0/paradigm/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T, path string) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_Contract(t *testing.T) {
	ports.RunTrialStoreContract(t, openStore(t, filepath.Join(t.TempDir(), "trials.db")))
}

func TestSQLiteStore_Overwrite(t *testing.T) {
	store := openStore(t, filepath.Join(t.TempDir(), "trials.db"))
	ctx := context.Background()

	rec := domain.NewTrialRecord(domain.Trial{BlockName: "main"}, 0)
	rec.Data["rt"] = 0.3
	require.NoError(t, store.Save(ctx, "s", rec))
	rec.Data["rt"] = 0.5
	require.NoError(t, store.Save(ctx, "s", rec))

	loaded, err := store.Load(ctx, "s", 0)
	require.NoError(t, err)
	assert.Equal(t, 0.5, loaded.Data["rt"])

	trials, err := store.Trials(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, []int{0}, trials)
}

func TestSQLiteStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trials.db")
	ctx := context.Background()

	first, err := sqlite.Open(path)
	require.NoError(t, err)
	require.NoError(t, first.Save(ctx, "persisted", domain.NewTrialRecord(domain.Trial{BlockName: "main"}, 2)))
	require.NoError(t, first.Close())

	second := openStore(t, path)
	trials, err := second.Trials(ctx, "persisted")
	require.NoError(t, err)
	assert.Equal(t, []int{2}, trials)
}
