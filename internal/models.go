package internal

import "time"

// Status is the lifecycle state of a remote session.
type Status string

const (
	StatusWorking                  Status = "working"
	StatusFinished                 Status = "finished"
	StatusExpired                  Status = "expired"
	StatusSuspendRequested         Status = "suspend_requested"
	StatusSuspendRequestedFrontend Status = "suspend_requested_frontend"
)

// ParseStatus maps a raw status string from the API onto the closed status
// set. Unknown or empty values fall back to StatusWorking so a malformed
// response never halts polling.
func ParseStatus(raw string) Status {
	switch Status(raw) {
	case StatusWorking, StatusFinished, StatusExpired,
		StatusSuspendRequested, StatusSuspendRequestedFrontend:
		return Status(raw)
	}
	return StatusWorking
}

// IsTerminal reports whether no further polling should happen for a session
// in this status.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusFinished, StatusExpired, StatusSuspendRequested, StatusSuspendRequestedFrontend:
		return true
	}
	return false
}

// Session is one tracked remote work session.
type Session struct {
	ID          string    `json:"id"`
	Repo        string    `json:"repo"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	DevinURL    string    `json:"devin_url"`
	PRURL       string    `json:"pr_url,omitempty"` // empty until the remote attaches a pull request
	CreatedAt   time.Time `json:"created_at"`
	Revision    int64     `json:"revision"`
}

// Age returns how long the session has existed relative to now.
func (s *Session) Age(now time.Time) time.Duration {
	return now.Sub(s.CreatedAt)
}

// Truncate shortens a display string to max runes, appending an ellipsis
// marker when it was cut.
func Truncate(s string, max int) string {
	if s == "" {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
