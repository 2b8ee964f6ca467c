package internal

import (
	"database/sql"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

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

CREATE INDEX IF NOT EXISTS idx_wakeups_due ON wakeups(due_at);

CREATE TABLE IF NOT EXISTS ephemeralKV (
	key   TEXT PRIMARY KEY,
	value TEXT
);
`

// OpenDatabase opens (creating if necessary) the devwatch SQLite database
// and applies the schema. Durable writes go through this single handle.
func OpenDatabase(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, &StoreError{Op: "open", Err: err}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &StoreError{Op: "open", Err: err}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, &StoreError{Op: "open", Err: err}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, &StoreError{Op: "exec", Err: err}
	}

	return db, nil
}

// KeyValuePair is one row of the ephemeral key-value tier.
type KeyValuePair struct {
	Key   string
	Value string
}

// QueryEphemeralKV queries the ephemeralKV table with a LIKE pattern.
func QueryEphemeralKV(db *sql.DB, pattern string) ([]KeyValuePair, error) {
	rows, err := db.Query(
		"SELECT key, value FROM ephemeralKV WHERE key LIKE ? AND value IS NOT NULL", pattern)
	if err != nil {
		return nil, &StoreError{Op: "query", Err: err}
	}
	defer rows.Close()

	var pairs []KeyValuePair
	for rows.Next() {
		var pair KeyValuePair
		var value sql.NullString
		if err := rows.Scan(&pair.Key, &value); err != nil {
			return nil, &StoreError{Op: "scan", Err: err}
		}
		if value.Valid {
			pair.Value = value.String
			pairs = append(pairs, pair)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, &StoreError{Op: "query", Err: err}
	}

	return pairs, nil
}
