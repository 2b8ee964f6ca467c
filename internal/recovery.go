package internal

// RecoveryManager rebuilds the poll schedule after a process (re)start.
// Exact backoff progress lives only in wakeup tokens, so recovery resumes
// every non-terminal session at the slowest ladder step rather than risk a
// burst of fast retries.
type RecoveryManager struct {
	store *SessionStore
	sched *Scheduler
}

// NewRecoveryManager creates a new RecoveryManager instance
func NewRecoveryManager(store *SessionStore, sched *Scheduler) *RecoveryManager {
	return &RecoveryManager{store: store, sched: sched}
}

// Resume drops any stale pending wakeups and schedules a poll at the max
// ladder index for every non-terminal session. Returns how many sessions
// were rescheduled.
func (r *RecoveryManager) Resume() (int, error) {
	if err := r.sched.Clear(); err != nil {
		return 0, err
	}

	sessions, err := r.store.List()
	if err != nil {
		return 0, err
	}

	resumed := 0
	for _, sess := range sessions {
		if sess.Status.IsTerminal() {
			continue
		}
		if err := r.sched.Schedule(sess.ID, MaxLadderIndex()); err != nil {
			return resumed, err
		}
		resumed++
	}

	LogInfo("recovery: resumed polling for %d session(s)", resumed)
	return resumed, nil
}
