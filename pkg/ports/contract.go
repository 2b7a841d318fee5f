package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/paradigm/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contractRecord(sessionID string, number int) *domain.TrialRecord {
	rec := domain.NewTrialRecord(domain.Trial{
		BlockName:  "practice",
		BlockIndex: 0,
		Cycle:      number / 2,
		Factors:    map[string]any{"target": "left", "distance": 12.5},
	}, number)
	rec.SessionID = sessionID
	rec.StartedAt = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	rec.States = append(rec.States, domain.StateStamp{State: 2, Name: "REACH", At: rec.StartedAt})
	rec.Data["rt"] = 0.412
	return rec
}

// RunTrialStoreContract runs a suite of tests to verify that a TrialStore implementation
// adheres to the defined interface contract.
func RunTrialStoreContract(t *testing.T, store TrialStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		rec := contractRecord(sessionID, 3)

		err := store.Save(ctx, sessionID, rec)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID, 3)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, 3, loaded.TrialNumber)
		assert.Equal(t, "practice", loaded.Trial.BlockName)
		assert.Equal(t, 1, loaded.Trial.Cycle)
		assert.Equal(t, "left", loaded.Trial.Factors["target"])
		require.Len(t, loaded.States, 1)
		assert.Equal(t, "REACH", loaded.States[0].Name)
		assert.True(t, rec.StartedAt.Equal(loaded.StartedAt))
		// JSON-backed stores turn numbers into float64.
		assert.NotNil(t, loaded.Data["rt"])
	})

	t.Run("Load is isolated from the saved record", func(t *testing.T) {
		rec := contractRecord(sessionID, 4)
		require.NoError(t, store.Save(ctx, sessionID, rec))

		rec.Data["rt"] = "mutated"
		loaded, err := store.Load(ctx, sessionID, 4)
		require.NoError(t, err)
		assert.NotEqual(t, "mutated", loaded.Data["rt"])
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, sessionID, 999)
		assert.ErrorIs(t, err, domain.ErrTrialNotFound)

		_, err = store.Load(ctx, "non-existent-"+sessionID, 0)
		assert.ErrorIs(t, err, domain.ErrTrialNotFound)
	})

	t.Run("Trials are sorted", func(t *testing.T) {
		id := sessionID + "-sorted"
		defer func() { _ = store.Delete(ctx, id) }()

		for _, n := range []int{10, 2, 7} {
			require.NoError(t, store.Save(ctx, id, contractRecord(id, n)))
		}
		numbers, err := store.Trials(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, []int{2, 7, 10}, numbers)

		_, err = store.Trials(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, contractRecord(sessionID, 0)))

		err := store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID, 0)
		assert.ErrorIs(t, err, domain.ErrTrialNotFound, "Load after Delete should return ErrTrialNotFound")
		_, err = store.Trials(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	if lister, ok := store.(SessionLister); ok {
		t.Run("List", func(t *testing.T) {
			id1 := sessionID + "-1"
			id2 := sessionID + "-2"
			_ = store.Save(ctx, id1, contractRecord(id1, 0))
			_ = store.Save(ctx, id2, contractRecord(id2, 0))
			defer func() {
				_ = store.Delete(ctx, id1)
				_ = store.Delete(ctx, id2)
			}()

			sessions, err := lister.List(ctx)
			require.NoError(t, err)
			assert.Contains(t, sessions, id1)
			assert.Contains(t, sessions, id2)
		})
	}
}
