// Package store provides SQLite-backed local state for labtrack: session
// flags and the mutation audit trail.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/fentz26/labtrack/internal/models"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store provides access to the labtrack SQLite database.
type Store struct {
	db *sql.DB
}

// New creates a new Store and runs migrations.
func New(dbPath string) (*Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate runs idempotent schema migrations.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS session_flags (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS audit (
		id TEXT PRIMARY KEY,
		action TEXT NOT NULL,
		inputs_hash TEXT NOT NULL,
		outcome TEXT NOT NULL,
		sample_id TEXT,
		details TEXT,
		timestamp DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_audit_sample_id ON audit(sample_id);
	CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit(timestamp);
	`

	_, err := s.db.Exec(schema)
	return err
}

// --- Session Flags ---

// LoadFlag returns the stored boolean for key, or false if it was never set.
func (s *Store) LoadFlag(key string) (bool, error) {
	var raw string
	err := s.db.QueryRow(`SELECT value FROM session_flags WHERE key = ?`, key).Scan(&raw)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query flag: %w", err)
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("parse flag %s: %w", key, err)
	}
	return v, nil
}

// SaveFlag stores a boolean under key.
func (s *Store) SaveFlag(key string, value bool) error {
	_, err := s.db.Exec(
		`INSERT INTO session_flags (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, strconv.FormatBool(value), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save flag: %w", err)
	}
	return nil
}

// --- Audit Operations ---

// WriteAudit writes an audit entry.
func (s *Store) WriteAudit(action, inputsHash, outcome, sampleID, details string) (*models.AuditEntry, error) {
	entry := &models.AuditEntry{
		ID:         uuid.New().String(),
		Action:     action,
		InputsHash: inputsHash,
		Outcome:    outcome,
		SampleID:   sampleID,
		Details:    details,
		Timestamp:  time.Now().UTC(),
	}

	_, err := s.db.Exec(
		`INSERT INTO audit (id, action, inputs_hash, outcome, sample_id, details, timestamp) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Action, entry.InputsHash, entry.Outcome, entry.SampleID, entry.Details, entry.Timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert audit: %w", err)
	}
	return entry, nil
}

// ListAudit returns the most recent audit entries, optionally for one sample.
func (s *Store) ListAudit(sampleID string, limit int) ([]models.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, action, inputs_hash, outcome, sample_id, details, timestamp FROM audit`
	var args []interface{}
	if sampleID != "" {
		query += ` WHERE sample_id = ?`
		args = append(args, sampleID)
	}
	query += ` ORDER BY timestamp DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit: %w", err)
	}
	defer rows.Close()

	var entries []models.AuditEntry
	for rows.Next() {
		var e models.AuditEntry
		var sid, details sql.NullString
		if err := rows.Scan(&e.ID, &e.Action, &e.InputsHash, &e.Outcome, &sid, &details, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit: %w", err)
		}
		e.SampleID = sid.String
		e.Details = details.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
