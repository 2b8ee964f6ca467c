package internal

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// PollLadder is the backoff ladder for re-polling non-terminal sessions.
// The index is clamped at the last entry, so polling settles at 120s.
var PollLadder = []time.Duration{
	15 * time.Second,
	30 * time.Second,
	60 * time.Second,
	120 * time.Second,
}

// MaxLadderIndex is the slowest backoff step.
func MaxLadderIndex() int { return len(PollLadder) - 1 }

const tokenPrefix = "poll:"

// WakeupToken is the self-describing scheduling handle. It carries everything
// a poll needs to resume, so the scheduler keeps no in-memory table and a
// process restart loses nothing.
type WakeupToken struct {
	SessionID string `json:"sid"`
	Index     int    `json:"idx"`
}

// Encode renders the token as a wakeup name string. JSON keeps session ids
// containing separators unambiguous.
func (t WakeupToken) Encode() (string, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return "", err
	}
	return tokenPrefix + string(data), nil
}

// DecodeWakeupToken parses a wakeup name string back into a token.
func DecodeWakeupToken(name string) (WakeupToken, error) {
	var tok WakeupToken
	if !strings.HasPrefix(name, tokenPrefix) {
		return tok, fmt.Errorf("not a poll token: %q", name)
	}
	if err := json.Unmarshal([]byte(name[len(tokenPrefix):]), &tok); err != nil {
		return tok, fmt.Errorf("malformed poll token %q: %w", name, err)
	}
	return tok, nil
}

// Wakeup is one pending one-shot timer entry.
type Wakeup struct {
	Token WakeupToken
	DueAt time.Time
}

// Scheduler issues one-shot wakeups through the durable wakeups table. It is
// stateless by design: the table is the complete pending-alarm set.
type Scheduler struct {
	db  *sql.DB
	now func() time.Time
}

// NewScheduler creates a new Scheduler instance
func NewScheduler(db *sql.DB) *Scheduler {
	return &Scheduler{db: db, now: time.Now}
}

// Schedule enqueues a wakeup for sessionID after the ladder delay for index.
// The index is clamped to the ladder before it is stored.
func (s *Scheduler) Schedule(sessionID string, index int) error {
	if index > MaxLadderIndex() {
		index = MaxLadderIndex()
	}
	if index < 0 {
		index = 0
	}

	name, err := WakeupToken{SessionID: sessionID, Index: index}.Encode()
	if err != nil {
		return err
	}

	due := s.now().Add(PollLadder[index])
	if _, err := s.db.Exec(
		"INSERT INTO wakeups (token, due_at) VALUES (?, ?)", name, due.UnixMilli()); err != nil {
		return &StoreError{Op: "exec", Err: err}
	}

	LogDebug("scheduled poll for %s at ladder index %d (due %s)", sessionID, index, due.Format(time.RFC3339))
	return nil
}

// Due removes and returns every wakeup whose due time has passed. Rows are
// deleted before the caller acts on them, so each wakeup fires exactly once
// even if the handler crashes mid-poll.
func (s *Scheduler) Due() ([]Wakeup, error) {
	nowMillis := s.now().UnixMilli()

	rows, err := s.db.Query(
		"SELECT id, token, due_at FROM wakeups WHERE due_at <= ? ORDER BY due_at, id", nowMillis)
	if err != nil {
		return nil, &StoreError{Op: "query", Err: err}
	}
	defer rows.Close()

	type pending struct {
		id    int64
		name  string
		dueAt int64
	}
	var found []pending
	for rows.Next() {
		var p pending
		if err := rows.Scan(&p.id, &p.name, &p.dueAt); err != nil {
			return nil, &StoreError{Op: "scan", Err: err}
		}
		found = append(found, p)
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Op: "query", Err: err}
	}

	var due []Wakeup
	for _, p := range found {
		if _, err := s.db.Exec("DELETE FROM wakeups WHERE id = ?", p.id); err != nil {
			return nil, &StoreError{Op: "exec", Err: err}
		}
		tok, err := DecodeWakeupToken(p.name)
		if err != nil {
			LogWarn("dropping unreadable wakeup: %v", err)
			continue
		}
		due = append(due, Wakeup{Token: tok, DueAt: time.UnixMilli(p.dueAt)})
	}
	return due, nil
}

// Pending returns the number of queued wakeups.
func (s *Scheduler) Pending() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM wakeups").Scan(&n); err != nil {
		return 0, &StoreError{Op: "query", Err: err}
	}
	return n, nil
}

// Clear drops every pending wakeup.
func (s *Scheduler) Clear() error {
	if _, err := s.db.Exec("DELETE FROM wakeups"); err != nil {
		return &StoreError{Op: "exec", Err: err}
	}
	return nil
}
