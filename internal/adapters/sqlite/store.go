package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/paradigm/pkg/domain"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS trials (
	session_id   TEXT    NOT NULL,
	trial_number INTEGER NOT NULL,
	block_name   TEXT    NOT NULL,
	cycle        INTEGER NOT NULL,
	record       BLOB    NOT NULL,
	finished_at  INTEGER,
	updated_at   INTEGER NOT NULL,
	PRIMARY KEY (session_id, trial_number)
);
CREATE INDEX IF NOT EXISTS idx_trials_block ON trials(session_id, block_name);
`

// Store implements ports.TrialStore on a SQLite database, one row per trial.
// Block name and cycle are kept in their own columns for ad-hoc analysis queries.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and migrates it.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single writer avoids SQLITE_BUSY between pooled connections.
	db.SetMaxOpenConns(1)

	s, err := NewFromDB(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewFromDB wraps an existing connection and migrates it.
func NewFromDB(db *sql.DB) (*Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to migrate trial table: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save upserts the record under its trial number.
func (s *Store) Save(ctx context.Context, sessionID string, rec *domain.TrialRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal trial %d: %w", rec.TrialNumber, err)
	}

	var finished sql.NullInt64
	if !rec.FinishedAt.IsZero() {
		finished = sql.NullInt64{Int64: rec.FinishedAt.UnixMilli(), Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO trials (session_id, trial_number, block_name, cycle, record, finished_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id, trial_number) DO UPDATE SET
			block_name = excluded.block_name,
			cycle = excluded.cycle,
			record = excluded.record,
			finished_at = excluded.finished_at,
			updated_at = excluded.updated_at`,
		sessionID, rec.TrialNumber, rec.Trial.BlockName, rec.Trial.Cycle, data, finished, time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to save trial %d: %w", rec.TrialNumber, err)
	}
	return nil
}

// Load retrieves one record.
func (s *Store) Load(ctx context.Context, sessionID string, trialNumber int) (*domain.TrialRecord, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT record FROM trials WHERE session_id = ? AND trial_number = ?`,
		sessionID, trialNumber,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrTrialNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load trial %d: %w", trialNumber, err)
	}

	var rec domain.TrialRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal trial %d: %w", trialNumber, err)
	}
	return &rec, nil
}

// Trials lists the saved trial numbers of a session in ascending order.
func (s *Store) Trials(ctx context.Context, sessionID string) ([]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT trial_number FROM trials WHERE session_id = ? ORDER BY trial_number`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list trials: %w", err)
	}
	defer rows.Close()

	var numbers []int
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		numbers = append(numbers, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(numbers) == 0 {
		return nil, domain.ErrSessionNotFound
	}
	return numbers, nil
}

// Delete removes every record of a session.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM trials WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}
	return nil
}

// List returns the stored sessions.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT session_id FROM trials ORDER BY session_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	sessions := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		sessions = append(sessions, id)
	}
	return sessions, rows.Err()
}
