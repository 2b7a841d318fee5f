package ports

import (
	"context"

	"github.com/aretw0/paradigm/pkg/domain"
)

// TrialStore persists completed trial records.
// Records are keyed by session and trial number; saving the same number twice overwrites.
type TrialStore interface {
	// Save persists a record under rec.TrialNumber.
	Save(ctx context.Context, sessionID string, rec *domain.TrialRecord) error

	// Load retrieves one record.
	// Returns domain.ErrTrialNotFound if the session has no such trial.
	Load(ctx context.Context, sessionID string, trialNumber int) (*domain.TrialRecord, error)

	// Trials lists the saved trial numbers of a session in ascending order.
	// Returns domain.ErrSessionNotFound if nothing was ever saved for the session.
	Trials(ctx context.Context, sessionID string) ([]int, error)

	// Delete removes every record of a session.
	Delete(ctx context.Context, sessionID string) error
}

// SessionLister is implemented by stores that can enumerate sessions.
type SessionLister interface {
	List(ctx context.Context) ([]string, error)
}
