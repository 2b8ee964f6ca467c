package internal

import (
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := OpenDatabase(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenDatabase() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// fakeNotifier records platform surface calls.
type fakeNotifier struct {
	mu        sync.Mutex
	posts     []postedNotification
	dismissed []string
	badge     string
}

type postedNotification struct {
	ID      string
	Title   string
	Message string
}

func (f *fakeNotifier) Post(id, title, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts = append(f.posts, postedNotification{ID: id, Title: title, Message: message})
	return nil
}

func (f *fakeNotifier) Dismiss(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dismissed = append(f.dismissed, id)
	return nil
}

func (f *fakeNotifier) SetBadge(text, color string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.badge = text
	return nil
}

func (f *fakeNotifier) titles() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var titles []string
	for _, p := range f.posts {
		titles = append(titles, p.Title)
	}
	return titles
}

// pollerEnv wires a full poller over a real database and stub HTTP servers.
type pollerEnv struct {
	t        *testing.T
	db       *sql.DB
	store    *SessionStore
	sched    *Scheduler
	clock    *fakeClock
	notifier *fakeNotifier
	center   *NotificationCenter
	poller   *Poller

	mu        sync.Mutex
	apiFn     http.HandlerFunc
	githubFn  http.HandlerFunc
	apiCalls  int
	ghCalls   int
	openedURL []string
}

func newPollerEnv(t *testing.T) *pollerEnv {
	t.Helper()

	env := &pollerEnv{
		t:        t,
		db:       openTestDB(t),
		clock:    newFakeClock(),
		notifier: &fakeNotifier{},
	}
	env.apiFn = func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no api handler installed", http.StatusInternalServerError)
	}
	env.githubFn = func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env.mu.Lock()
		env.apiCalls++
		fn := env.apiFn
		env.mu.Unlock()
		fn(w, r)
	}))
	t.Cleanup(api.Close)

	github := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env.mu.Lock()
		env.ghCalls++
		fn := env.githubFn
		env.mu.Unlock()
		fn(w, r)
	}))
	t.Cleanup(github.Close)

	env.store = NewSessionStore(env.db)
	env.sched = NewScheduler(env.db)
	env.sched.now = env.clock.Now

	ids := 0
	env.center = NewNotificationCenter(
		NewEphemeralStore(env.db),
		env.notifier,
		func(url string) error {
			env.mu.Lock()
			env.openedURL = append(env.openedURL, url)
			env.mu.Unlock()
			return nil
		},
		nil,
	)
	env.center.newID = func() string {
		ids++
		return fmt.Sprintf("n%d", ids)
	}
	env.center.now = env.clock.Now

	env.poller = NewPoller(
		env.store,
		NewClient(api.URL, "test-key", nil),
		NewMergeOracle(github.URL, nil),
		env.center,
		env.sched,
	)
	env.poller.now = env.clock.Now

	return env
}

// respond makes the session API answer with the given status and PR URL.
func (env *pollerEnv) respond(status, prURL string) {
	env.mu.Lock()
	defer env.mu.Unlock()
	env.apiFn = func(w http.ResponseWriter, r *http.Request) {
		body := fmt.Sprintf(`{"status_enum": %q`, status)
		if prURL != "" {
			body += fmt.Sprintf(`, "pull_request": {"url": %q}`, prURL)
		}
		body += "}"
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}
}

// failAPI makes the session API return a server error.
func (env *pollerEnv) failAPI(code int) {
	env.mu.Lock()
	defer env.mu.Unlock()
	env.apiFn = func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", code)
	}
}

// setMerged makes the GitHub stub report the merged flag.
func (env *pollerEnv) setMerged(merged bool) {
	env.mu.Lock()
	defer env.mu.Unlock()
	env.githubFn = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"merged": %t}`, merged)
	}
}

// createSession persists a working session created at the current fake time.
func (env *pollerEnv) createSession(id string) *Session {
	env.t.Helper()
	sess := &Session{
		ID:          id,
		Repo:        "acme/widgets",
		Description: "fix the flaky login test",
		Status:      StatusWorking,
		DevinURL:    "https://app.devin.ai/sessions/" + id,
		CreatedAt:   env.clock.Now(),
	}
	if err := env.store.Create(sess); err != nil {
		env.t.Fatalf("Create() error = %v", err)
	}
	return sess
}

// pendingTokens returns the queued wakeup tokens without consuming them.
func (env *pollerEnv) pendingTokens() []WakeupToken {
	env.t.Helper()
	rows, err := env.db.Query("SELECT token FROM wakeups ORDER BY id")
	if err != nil {
		env.t.Fatalf("query wakeups: %v", err)
	}
	defer rows.Close()

	var tokens []WakeupToken
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			env.t.Fatalf("scan wakeup: %v", err)
		}
		tok, err := DecodeWakeupToken(name)
		if err != nil {
			env.t.Fatalf("decode wakeup: %v", err)
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// clickTargets returns the stored notification click targets by id.
func (env *pollerEnv) clickTargets() map[string]string {
	env.t.Helper()
	pairs, err := QueryEphemeralKV(env.db, "notif:%")
	if err != nil {
		env.t.Fatalf("query click targets: %v", err)
	}
	targets := make(map[string]string)
	for _, pair := range pairs {
		targets[pair.Key[len("notif:"):]] = pair.Value
	}
	return targets
}
