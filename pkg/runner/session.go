package runner

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/aretw0/paradigm/pkg/domain"
)

// Resume continues a durable session: trials already saved under the session ID are
// skipped, and the next Begin picks up after the highest saved trial number.
// An unknown session starts from the first trial. Returns the number of trials skipped.
func (r *Runner) Resume(ctx context.Context) (int, error) {
	if r.store == nil {
		return 0, nil
	}
	if r.active != nil {
		return 0, ErrTrialInProgress
	}

	numbers, err := r.store.Trials(ctx, r.sessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		r.logger.Debug("no saved trials, starting fresh")
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load session %s: %w", r.sessionID, err)
	}
	if len(numbers) == 0 {
		return 0, nil
	}

	next := slices.Max(numbers) + 1
	if next > r.seq.Len() {
		next = r.seq.Len()
	}
	r.next = next

	r.logger.Info("session resumed", "saved", len(numbers), "next", r.next)
	return len(numbers), nil
}
