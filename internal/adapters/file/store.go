package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/aretw0/paradigm/pkg/domain"
)

const (
	trialPrefix = "trial-"
	trialExt    = ".json"
)

// Store implements ports.TrialStore using the local filesystem.
// Each session is a directory holding one JSON file per trial.
type Store struct {
	BasePath string
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".paradigm/sessions".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".paradigm", "sessions")
	}
	return &Store{BasePath: basePath}
}

func (s *Store) sessionDir(sessionID string) string {
	return filepath.Join(s.BasePath, sessionID)
}

func trialFile(n int) string {
	return fmt.Sprintf("%s%06d%s", trialPrefix, n, trialExt)
}

// Save persists the record atomically: temp file, fsync, rename.
func (s *Store) Save(ctx context.Context, sessionID string, rec *domain.TrialRecord) error {
	if sessionID == "" {
		return fmt.Errorf("sessionID cannot be empty")
	}

	dir := s.sessionDir(sessionID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to ensure session directory: %w", err)
	}
	destPath := filepath.Join(dir, trialFile(rec.TrialNumber))

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal trial record: %w", err)
	}

	// Same directory as the destination so the rename stays on one filesystem.
	tmpFile, err := os.CreateTemp(dir, "tmp-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Windows cannot rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// On Windows, os.Rename fails if dest exists.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to remove existing trial file for overwrite: %w", err)
		}
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file to trial file: %w", err)
	}
	return nil
}

// Load reads one trial record.
func (s *Store) Load(ctx context.Context, sessionID string, trialNumber int) (*domain.TrialRecord, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("sessionID cannot be empty")
	}

	data, err := os.ReadFile(filepath.Join(s.sessionDir(sessionID), trialFile(trialNumber)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrTrialNotFound
		}
		return nil, fmt.Errorf("failed to read trial file: %w", err)
	}

	var rec domain.TrialRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal trial record: %w", err)
	}
	return &rec, nil
}

// Trials lists the saved trial numbers of a session.
func (s *Store) Trials(ctx context.Context, sessionID string) ([]int, error) {
	entries, err := os.ReadDir(s.sessionDir(sessionID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to list trials: %w", err)
	}

	var numbers []int
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, trialPrefix) || filepath.Ext(name) != trialExt {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, trialPrefix), trialExt))
		if err != nil {
			continue
		}
		numbers = append(numbers, n)
	}
	if len(numbers) == 0 {
		return nil, domain.ErrSessionNotFound
	}
	slices.Sort(numbers)
	return numbers, nil
}

// Delete removes the session directory.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("sessionID cannot be empty")
	}
	if err := os.RemoveAll(s.sessionDir(sessionID)); err != nil {
		return fmt.Errorf("failed to delete session directory: %w", err)
	}
	return nil
}

// List returns all session IDs found on disk.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	var sessions []string
	for _, entry := range entries {
		if entry.IsDir() {
			sessions = append(sessions, entry.Name())
		}
	}
	return sessions, nil
}
