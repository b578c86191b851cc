package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/terra-clan/event-portal/internal/models"
)

const profileKey = "participant-profile"

// schema holds tokens and snapshots in one key-value table. Safe to
// apply repeatedly.
const schema = `
CREATE TABLE IF NOT EXISTS kv (
    key        TEXT PRIMARY KEY,
    value      TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// SQLiteStore is a file-backed Store for single-machine installs
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the durable storage file
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open state file: %w", err)
	}

	// The driver is not safe for concurrent writers over one file
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %q: %w", key, err)
	}
	return value, nil
}

func (s *SQLiteStore) set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value)
	if err != nil {
		return fmt.Errorf("failed to write %q: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}
	return nil
}

// Token returns the stored bearer token for a domain, or ""
func (s *SQLiteStore) Token(ctx context.Context, domain models.Domain) (string, error) {
	return s.get(ctx, domain.TokenKey())
}

// SetToken stores the bearer token for a domain
func (s *SQLiteStore) SetToken(ctx context.Context, domain models.Domain, token string) error {
	return s.set(ctx, domain.TokenKey(), token)
}

// DeleteToken removes the token for a domain
func (s *SQLiteStore) DeleteToken(ctx context.Context, domain models.Domain) error {
	return s.delete(ctx, domain.TokenKey())
}

// Profile returns the persisted participant snapshot, or nil
func (s *SQLiteStore) Profile(ctx context.Context) (*models.Participant, error) {
	raw, err := s.get(ctx, profileKey)
	if err != nil || raw == "" {
		return nil, err
	}

	var p models.Participant
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("failed to decode profile snapshot: %w", err)
	}
	return &p, nil
}

// SaveProfile persists the participant snapshot
func (s *SQLiteStore) SaveProfile(ctx context.Context, p *models.Participant) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode profile snapshot: %w", err)
	}
	return s.set(ctx, profileKey, string(raw))
}

// DeleteProfile removes the participant snapshot
func (s *SQLiteStore) DeleteProfile(ctx context.Context) error {
	return s.delete(ctx, profileKey)
}

// HealthCheck verifies the storage file is usable
func (s *SQLiteStore) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the storage file
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
