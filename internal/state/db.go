// Package state provides SQLite-based persistence for handover
// sessions: durable checkpoints, deliverable artifacts, and session
// bookkeeping under the configured data directory.
package state

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ShayCichocki/handover/internal/session"
)

// DB wraps an SQLite database connection and implements session.Store.
type DB struct {
	conn *sql.DB
	path string
	mu   sync.RWMutex
}

// DBPath returns the path to the session database under a data dir.
func DBPath(dataDir string) string {
	return filepath.Join(dataDir, "handover.db")
}

// Open opens an SQLite database at the given path. Parent directories
// are created if missing. WAL mode is enabled for concurrent reads.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return &DB{conn: conn, path: path}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.conn.Close()
}

// Path returns the path to the database file.
func (db *DB) Path() string {
	return db.path
}

// Migrate applies all pending schema migrations.
func (db *DB) Migrate() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	var currentVersion int
	row := db.conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("get schema version: %w", err)
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migrationV1Sessions},
		{2, migrationV2Checkpoints},
		{3, migrationV3Artifacts},
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}

		tx, err := db.conn.Begin()
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}

		if _, err := tx.Exec(m.sql); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration v%d: %w", m.version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", m.version); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration v%d: %w", m.version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration v%d: %w", m.version, err)
		}
	}

	return nil
}

const migrationV1Sessions = `
CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	status TEXT NOT NULL DEFAULT 'running',
	current_stage TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sessions_status ON sessions(status);
`

const migrationV2Checkpoints = `
CREATE TABLE IF NOT EXISTS checkpoints (
	session_id TEXT PRIMARY KEY REFERENCES sessions(id) ON DELETE CASCADE,
	state TEXT NOT NULL,
	updated_at DATETIME NOT NULL
);
`

const migrationV3Artifacts = `
CREATE TABLE IF NOT EXISTS artifacts (
	session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	data BLOB NOT NULL,
	created_at DATETIME NOT NULL,
	PRIMARY KEY (session_id, name)
);
`

// SaveCheckpoint persists the full session state. The session row and
// its checkpoint are written in one transaction so a crash never leaves
// them disagreeing.
func (db *DB) SaveCheckpoint(st *session.State) error {
	data, err := session.EncodeState(st)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	now := formatTime(time.Now())

	return db.Transaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO sessions (id, status, current_stage, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				status = excluded.status,
				current_stage = excluded.current_stage,
				updated_at = excluded.updated_at
		`, st.SessionID, st.Status, st.CurrentStage, now, now)
		if err != nil {
			return fmt.Errorf("upsert session row: %w", err)
		}

		_, err = tx.Exec(`
			INSERT INTO checkpoints (session_id, state, updated_at)
			VALUES (?, ?, ?)
			ON CONFLICT(session_id) DO UPDATE SET
				state = excluded.state,
				updated_at = excluded.updated_at
		`, st.SessionID, string(data), now)
		if err != nil {
			return fmt.Errorf("upsert checkpoint: %w", err)
		}

		return nil
	})
}

// LoadCheckpoint restores the latest persisted state for a session.
func (db *DB) LoadCheckpoint(sessionID string) (*session.State, error) {
	var data string
	row := db.QueryRow("SELECT state FROM checkpoints WHERE session_id = ?", sessionID)
	if err := row.Scan(&data); err != nil {
		if err == sql.ErrNoRows {
			return nil, session.ErrNotFound
		}
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}

	st, err := session.DecodeState([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return st, nil
}

// SaveArtifact stores a named deliverable for a session, replacing any
// earlier version under the same name.
func (db *DB) SaveArtifact(sessionID, name string, data []byte) error {
	_, err := db.Exec(`
		INSERT INTO artifacts (session_id, name, data, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(session_id, name) DO UPDATE SET
			data = excluded.data,
			created_at = excluded.created_at
	`, sessionID, name, data, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("save artifact %s: %w", name, err)
	}
	return nil
}

// LoadArtifact retrieves a named deliverable for a session.
func (db *DB) LoadArtifact(sessionID, name string) ([]byte, error) {
	var data []byte
	row := db.QueryRow("SELECT data FROM artifacts WHERE session_id = ? AND name = ?", sessionID, name)
	if err := row.Scan(&data); err != nil {
		if err == sql.ErrNoRows {
			return nil, session.ErrNotFound
		}
		return nil, fmt.Errorf("load artifact %s: %w", name, err)
	}
	return data, nil
}

// ListArtifacts returns the artifact names stored for a session.
func (db *DB) ListArtifacts(sessionID string) ([]string, error) {
	rows, err := db.Query("SELECT name FROM artifacts WHERE session_id = ? ORDER BY name", sessionID)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan artifact name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// SessionSummary is one row of the session listing.
type SessionSummary struct {
	ID           string
	Status       string
	CurrentStage string
	UpdatedAt    time.Time
}

// ListSessions returns all sessions, most recently updated first.
func (db *DB) ListSessions() ([]SessionSummary, error) {
	rows, err := db.Query(`
		SELECT id, status, current_stage, updated_at
		FROM sessions ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionSummary
	for rows.Next() {
		var s SessionSummary
		var updated string
		if err := rows.Scan(&s.ID, &s.Status, &s.CurrentStage, &updated); err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		if t, err := parseTime(updated); err == nil {
			s.UpdatedAt = t
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// DeleteSession removes a session, its checkpoint, and its artifacts.
func (db *DB) DeleteSession(sessionID string) error {
	_, err := db.Exec("DELETE FROM sessions WHERE id = ?", sessionID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// PurgeOldSessions deletes finished sessions older than the specified
// duration. Running and suspended sessions are never purged. Returns
// the number of sessions deleted.
func (db *DB) PurgeOldSessions(olderThan time.Duration) (int64, error) {
	cutoff := formatTime(time.Now().Add(-olderThan))

	result, err := db.Exec(`
		DELETE FROM sessions
		WHERE updated_at < ? AND status IN (?, ?, ?)
	`, cutoff, session.StatusCompleted, session.StatusFailed, session.StatusCanceled)
	if err != nil {
		return 0, fmt.Errorf("purge old sessions: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}
	return count, nil
}

// Exec executes a query that doesn't return rows.
func (db *DB) Exec(query string, args ...any) (sql.Result, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.conn.Exec(query, args...)
}

// Query executes a query that returns rows.
func (db *DB) Query(query string, args ...any) (*sql.Rows, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.conn.Query(query, args...)
}

// QueryRow executes a query that returns at most one row.
func (db *DB) QueryRow(query string, args ...any) *sql.Row {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.conn.QueryRow(query, args...)
}

// Transaction runs the given function within a transaction.
func (db *DB) Transaction(fn func(tx *sql.Tx) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

// formatTime formats a time.Time for SQLite storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// parseTime parses a time string from SQLite.
func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
