package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/paradigm/pkg/domain"
	"github.com/aretw0/paradigm/pkg/ports"
	"github.com/mohae/deepcopy"
)

// Mask replaces masked values in stored records.
const Mask = "***"

type piiMiddleware struct {
	next     ports.TrialStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware masks measured data whose key matches any pattern, at any depth of
// nested maps, before records reach the store. Trial factors are left untouched.
func NewPIIMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid PII pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return func(next ports.TrialStore) ports.TrialStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *piiMiddleware) Save(ctx context.Context, sessionID string, rec *domain.TrialRecord) error {
	// The caller keeps the unmasked record.
	cloned, _ := deepcopy.Copy(rec).(*domain.TrialRecord)
	maskMap(cloned.Data, m.patterns)
	return m.next.Save(ctx, sessionID, cloned)
}

func (m *piiMiddleware) Load(ctx context.Context, sessionID string, trialNumber int) (*domain.TrialRecord, error) {
	return m.next.Load(ctx, sessionID, trialNumber)
}

func (m *piiMiddleware) Trials(ctx context.Context, sessionID string) ([]int, error) {
	return m.next.Trials(ctx, sessionID)
}

func (m *piiMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	if l := listAll(m.next); l != nil {
		return l.List(ctx)
	}
	return nil, fmt.Errorf("wrapped store cannot list sessions")
}

func maskMap(m map[string]any, patterns []*regexp.Regexp) {
	for k, v := range m {
		masked := false
		for _, p := range patterns {
			if p.MatchString(k) {
				m[k] = Mask
				masked = true
				break
			}
		}
		if sub, ok := v.(map[string]any); ok && !masked {
			maskMap(sub, patterns)
		}
	}
}
