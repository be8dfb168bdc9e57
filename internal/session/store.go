// Package session manages chat sessions for the hosted agent: minting client
// secrets and recording session lifecycle in SQLite.
package session

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Record is a stored chat session.
type Record struct {
	ID           string
	UserID       string
	ClientSecret string
	CreatedAt    time.Time
	RefreshedAt  time.Time
}

// Store persists session records in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewStore(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		user_id TEXT,
		client_secret TEXT NOT NULL UNIQUE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		refreshed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_secret ON sessions(client_secret);
	`
	_, err := db.Exec(schema)
	return err
}

// Create inserts a session record.
func (s *Store) Create(ctx context.Context, rec *Record) error {
	now := time.Now()
	rec.CreatedAt = now
	rec.RefreshedAt = now
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, client_secret, created_at, refreshed_at)
		 VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.ClientSecret, rec.CreatedAt, rec.RefreshedAt,
	)
	return err
}

// GetBySecret returns the session holding the given client secret.
func (s *Store) GetBySecret(ctx context.Context, secret string) (*Record, error) {
	var rec Record
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, client_secret, created_at, refreshed_at
		 FROM sessions WHERE client_secret = ?`, secret,
	).Scan(&rec.ID, &rec.UserID, &rec.ClientSecret, &rec.CreatedAt, &rec.RefreshedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session not found")
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Refresh replaces a session's client secret and bumps refreshed_at.
func (s *Store) Refresh(ctx context.Context, id, newSecret string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET client_secret = ?, refreshed_at = ? WHERE id = ?`,
		newSecret, time.Now(), id,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("session not found: %s", id)
	}
	return nil
}

// Count returns the number of stored sessions.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&count)
	return count, err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
