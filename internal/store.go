package internal

import (
	"database/sql"
	"time"
)

// MaxSessions is the number of session records retained. Storing one more
// evicts the oldest by insertion order.
const MaxSessions = 20

// SessionStore provides durable CRUD over the bounded session collection.
// Records are kept newest-first by insertion order.
type SessionStore struct {
	db *sql.DB
}

// NewSessionStore creates a new SessionStore instance
func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db}
}

// Create inserts a session at the head of the collection and prunes anything
// beyond MaxSessions. Committed before return.
func (st *SessionStore) Create(sess *Session) error {
	tx, err := st.db.Begin()
	if err != nil {
		return &StoreError{Op: "exec", Err: err}
	}
	defer tx.Rollback()

	var maxSeq sql.NullInt64
	if err := tx.QueryRow("SELECT MAX(seq) FROM sessions").Scan(&maxSeq); err != nil {
		return &StoreError{Op: "query", Err: err}
	}

	_, err = tx.Exec(
		`INSERT INTO sessions (id, repo, description, status, devin_url, pr_url, created_at, revision, seq)
		 VALUES (?, ?, ?, ?, ?, NULLIF(?, ''), ?, 0, ?)`,
		sess.ID, sess.Repo, sess.Description, string(sess.Status),
		sess.DevinURL, sess.PRURL, sess.CreatedAt.UnixMilli(), maxSeq.Int64+1)
	if err != nil {
		return &StoreError{Op: "exec", Err: err}
	}

	_, err = tx.Exec(
		`DELETE FROM sessions WHERE id NOT IN
		 (SELECT id FROM sessions ORDER BY seq DESC LIMIT ?)`, MaxSessions)
	if err != nil {
		return &StoreError{Op: "exec", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return &StoreError{Op: "exec", Err: err}
	}

	sess.Revision = 0
	return nil
}

// Update applies status and PR URL guarded by the revision the caller read.
// The PR URL only ever transitions empty to set; an empty prURL never clears
// a stored one. Returns ErrNotFound for an unknown id and ErrStaleRevision
// when the stored record advanced past rev.
func (st *SessionStore) Update(id string, rev int64, status Status, prURL string) error {
	res, err := st.db.Exec(
		`UPDATE sessions
		 SET status = ?, pr_url = COALESCE(NULLIF(?, ''), pr_url), revision = revision + 1
		 WHERE id = ? AND revision = ?`,
		string(status), prURL, id, rev)
	if err != nil {
		return &StoreError{Op: "exec", Err: err}
	}

	n, err := res.RowsAffected()
	if err != nil {
		return &StoreError{Op: "exec", Err: err}
	}
	if n > 0 {
		return nil
	}

	var exists int
	err = st.db.QueryRow("SELECT COUNT(*) FROM sessions WHERE id = ?", id).Scan(&exists)
	if err != nil {
		return &StoreError{Op: "query", Err: err}
	}
	if exists == 0 {
		return ErrNotFound
	}
	return ErrStaleRevision
}

// Get looks up one session by id. Returns ErrNotFound if absent.
func (st *SessionStore) Get(id string) (*Session, error) {
	row := st.db.QueryRow(
		`SELECT id, repo, description, status, pr_url, devin_url, created_at, revision
		 FROM sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &StoreError{Op: "scan", Err: err}
	}
	return sess, nil
}

// List returns all sessions, newest-first by insertion order.
func (st *SessionStore) List() ([]*Session, error) {
	rows, err := st.db.Query(
		`SELECT id, repo, description, status, pr_url, devin_url, created_at, revision
		 FROM sessions ORDER BY seq DESC`)
	if err != nil {
		return nil, &StoreError{Op: "query", Err: err}
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, &StoreError{Op: "scan", Err: err}
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Op: "query", Err: err}
	}
	return sessions, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row rowScanner) (*Session, error) {
	var sess Session
	var status string
	var prURL sql.NullString
	var createdAt int64
	err := row.Scan(&sess.ID, &sess.Repo, &sess.Description, &status,
		&prURL, &sess.DevinURL, &createdAt, &sess.Revision)
	if err != nil {
		return nil, err
	}
	sess.Status = Status(status)
	if prURL.Valid {
		sess.PRURL = prURL.String
	}
	sess.CreatedAt = time.UnixMilli(createdAt)
	return &sess, nil
}

// EphemeralStore is the per-daemon-session key-value tier. The watcher wipes
// it on startup, giving the stored badge counter and click-target map the
// same lifetime a browser session store would have.
type EphemeralStore struct {
	db *sql.DB
}

// NewEphemeralStore creates a new EphemeralStore instance
func NewEphemeralStore(db *sql.DB) *EphemeralStore {
	return &EphemeralStore{db: db}
}

// Set stores a key-value pair.
func (es *EphemeralStore) Set(key, value string) error {
	_, err := es.db.Exec(
		"INSERT INTO ephemeralKV (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value)
	if err != nil {
		return &StoreError{Op: "exec", Err: err}
	}
	return nil
}

// Get returns the value for key, or "" and false if absent.
func (es *EphemeralStore) Get(key string) (string, bool, error) {
	var value string
	err := es.db.QueryRow("SELECT value FROM ephemeralKV WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, &StoreError{Op: "query", Err: err}
	}
	return value, true, nil
}

// Delete removes a key. Deleting an absent key is not an error.
func (es *EphemeralStore) Delete(key string) error {
	if _, err := es.db.Exec("DELETE FROM ephemeralKV WHERE key = ?", key); err != nil {
		return &StoreError{Op: "exec", Err: err}
	}
	return nil
}

// Reset clears the whole ephemeral tier.
func (es *EphemeralStore) Reset() error {
	if _, err := es.db.Exec("DELETE FROM ephemeralKV"); err != nil {
		return &StoreError{Op: "exec", Err: err}
	}
	return nil
}
