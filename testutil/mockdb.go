package testutil

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

// Schema mirrors the devwatch database layout for fixtures.
const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id          TEXT PRIMARY KEY,
	repo        TEXT NOT NULL,
	description TEXT NOT NULL,
	status      TEXT NOT NULL,
	devin_url   TEXT NOT NULL,
	pr_url      TEXT,
	created_at  INTEGER NOT NULL,
	revision    INTEGER NOT NULL DEFAULT 0,
	seq         INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS wakeups (
	id     INTEGER PRIMARY KEY AUTOINCREMENT,
	token  TEXT NOT NULL,
	due_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS ephemeralKV (
	key   TEXT PRIMARY KEY,
	value TEXT
);
`

// CreateSessionDB creates a file-backed devwatch database in a temp dir.
func CreateSessionDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sessions.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return db
}

// InsertSession inserts a session row directly.
func InsertSession(t *testing.T, db *sql.DB, id, repo, status string, seq int64) {
	t.Helper()
	_, err := db.Exec(
		`INSERT INTO sessions (id, repo, description, status, devin_url, created_at, revision, seq)
		 VALUES (?, ?, 'test session', ?, 'https://app.devin.ai/sessions/'||?, 0, 0, ?)`,
		id, repo, status, id, seq)
	if err != nil {
		t.Fatalf("Failed to insert session: %v", err)
	}
}

// InsertWakeup inserts a raw wakeup row directly.
func InsertWakeup(t *testing.T, db *sql.DB, token string, dueAtMillis int64) {
	t.Helper()
	if _, err := db.Exec("INSERT INTO wakeups (token, due_at) VALUES (?, ?)", token, dueAtMillis); err != nil {
		t.Fatalf("Failed to insert wakeup: %v", err)
	}
}

// CountRows returns the number of rows in a table.
func CountRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("Failed to count rows in %s: %v", table, err)
	}
	return n
}
