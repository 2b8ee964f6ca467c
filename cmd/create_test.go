package cmd

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iksnae/devwatch/internal"
	"github.com/iksnae/devwatch/testutil"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCreateCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"session_id": "devin-abc", "url": "https://app.devin.ai/sessions/devin-abc"}`)
	}))
	defer server.Close()

	cfgPath := testutil.WriteConfigFixture(t, fmt.Sprintf("api_key: test-key\napi_base_url: %s\n", server.URL))
	dbFile := filepath.Join(t.TempDir(), "sessions.db")

	out, err := runCommand(t,
		"create", "--config", cfgPath, "--db", dbFile,
		"--repo", "acme/widgets", "fix", "the", "flaky", "test")
	if err != nil {
		t.Fatalf("Execute() error = %v (output: %s)", err, out)
	}
	if !strings.Contains(out, "devin-abc") {
		t.Errorf("output = %q, want session id", out)
	}

	db, err := internal.OpenDatabase(dbFile)
	if err != nil {
		t.Fatalf("OpenDatabase() error = %v", err)
	}
	defer db.Close()

	sessions, err := internal.NewSessionStore(db).List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("stored %d sessions, want 1", len(sessions))
	}
	sess := sessions[0]
	if sess.ID != "devin-abc" || sess.Repo != "acme/widgets" || sess.Status != internal.StatusWorking {
		t.Errorf("stored session = %+v", sess)
	}
	if sess.Description != "fix the flaky test" {
		t.Errorf("Description = %q", sess.Description)
	}

	// The first poll is queued at ladder index 0.
	if n, _ := internal.NewScheduler(db).Pending(); n != 1 {
		t.Errorf("Pending() = %d, want 1", n)
	}
}

func TestCreateCommand_AuthErrorIsFriendly(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "bad token"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	cfgPath := testutil.WriteConfigFixture(t, fmt.Sprintf("api_key: bad-key\napi_base_url: %s\n", server.URL))
	dbFile := filepath.Join(t.TempDir(), "sessions.db")

	_, err := runCommand(t,
		"create", "--config", cfgPath, "--db", dbFile,
		"--repo", "acme/widgets", "do", "things")
	if err == nil {
		t.Fatal("Execute() succeeded, want auth error")
	}
	if !strings.Contains(err.Error(), "Invalid API key") {
		t.Errorf("error = %q, want friendly auth message", err)
	}
	if !strings.Contains(err.Error(), "bad token") {
		t.Errorf("error = %q, want raw diagnostic detail", err)
	}
}

func TestCreateCommand_RejectsUnlistedRepo(t *testing.T) {
	cfgPath := testutil.WriteConfigFixture(t, "api_key: k\nrepos:\n  - acme/widgets\n")
	dbFile := filepath.Join(t.TempDir(), "sessions.db")

	_, err := runCommand(t,
		"create", "--config", cfgPath, "--db", dbFile,
		"--repo", "other/repo", "prompt")
	if err == nil || !strings.Contains(err.Error(), "repo list") {
		t.Errorf("error = %v, want repo list rejection", err)
	}
}

func TestAckCommand(t *testing.T) {
	cfgPath := testutil.WriteConfigFixture(t, "api_key: k\n")
	dbFile := filepath.Join(t.TempDir(), "sessions.db")

	db, err := internal.OpenDatabase(dbFile)
	if err != nil {
		t.Fatal(err)
	}
	kv := internal.NewEphemeralStore(db)
	if err := kv.Set("badgeCount", "5"); err != nil {
		t.Fatal(err)
	}
	db.Close()

	if _, err := runCommand(t, "ack", "--config", cfgPath, "--db", dbFile); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	db, err = internal.OpenDatabase(dbFile)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	value, ok, err := internal.NewEphemeralStore(db).Get("badgeCount")
	if err != nil || !ok || value != "0" {
		t.Errorf("badgeCount after ack = %q, %v, %v; want 0", value, ok, err)
	}
	if _, ok, _ := internal.NewEphemeralStore(db).Get("lastActive"); !ok {
		t.Error("lastActive not recorded by ack")
	}
}
