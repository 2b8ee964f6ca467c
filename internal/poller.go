package internal

import (
	"context"
	"errors"
	"time"
)

// MaxPollAge is the absolute horizon for a session: past it the next poll
// marks the session expired regardless of what the remote API would say.
const MaxPollAge = 24 * time.Hour

// Notification titles for session transitions.
const (
	TitlePRReady  = "Devin PR Ready"
	TitleFailed   = "Devin Session Failed"
	TitleTimedOut = "Devin Session Timed Out"
	TitleMerged   = "PR Merged"
)

// Poller applies the poll transition algorithm to one session per wakeup.
// It drives the store, the notification center, the merge oracle, and the
// scheduler; every outcome either reaches a terminal state or requeues
// exactly one wakeup.
type Poller struct {
	store  *SessionStore
	api    *Client
	oracle *MergeOracle
	notify *NotificationCenter
	sched  *Scheduler
	now    func() time.Time
}

// NewPoller creates a new Poller instance
func NewPoller(store *SessionStore, api *Client, oracle *MergeOracle, notify *NotificationCenter, sched *Scheduler) *Poller {
	return &Poller{
		store:  store,
		api:    api,
		oracle: oracle,
		notify: notify,
		sched:  sched,
		now:    time.Now,
	}
}

// Poll handles one wakeup for (sessionID, index).
//
// A missing session is a silent no-op: the record was deleted or the store
// lost it, and rescheduling would poll forever for nothing. A terminal
// session is likewise a no-op, which makes stray or duplicate wakeups
// harmless. Fetch failures requeue at the same ladder index; they are never
// surfaced to the user, who only ever sees the eventual expiry.
func (p *Poller) Poll(ctx context.Context, sessionID string, index int) {
	sess, err := p.store.Get(sessionID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			LogError("poll %s: %v", sessionID, err)
		}
		return
	}

	if sess.Status.IsTerminal() {
		LogDebug("poll %s: already %s, ignoring wakeup", sessionID, sess.Status)
		return
	}

	if sess.Age(p.now()) > MaxPollAge {
		if err := p.store.Update(sessionID, sess.Revision, StatusExpired, ""); err != nil {
			p.logUpdateErr(sessionID, err)
			return
		}
		p.send(TitleTimedOut, sess, sess.DevinURL)
		return
	}

	remote, err := p.api.GetSession(ctx, sessionID)
	if err != nil {
		LogDebug("poll %s: transient fetch failure, retrying at index %d: %v", sessionID, index, err)
		if err := p.sched.Schedule(sessionID, index); err != nil {
			LogError("poll %s: reschedule failed: %v", sessionID, err)
		}
		return
	}

	prevPR := sess.PRURL
	rev := sess.Revision
	if err := p.store.Update(sessionID, rev, remote.Status, remote.PRURL); err != nil {
		p.logUpdateErr(sessionID, err)
		return
	}
	rev++

	// The store never lets a set PR URL revert, so the effective URL is the
	// fetched one or whatever was already recorded.
	prURL := remote.PRURL
	if prURL == "" {
		prURL = prevPR
	}

	if remote.Status.IsTerminal() {
		if remote.Status == StatusFinished {
			target := prURL
			if target == "" {
				target = sess.DevinURL
			}
			p.send(TitlePRReady, sess, target)
		} else {
			p.send(TitleFailed, sess, sess.DevinURL)
		}
		return
	}

	if prURL != "" && p.oracle.IsMerged(ctx, prURL) {
		// The API still says working but the PR is already merged on
		// GitHub. Take the shortcut to finished.
		if err := p.store.Update(sessionID, rev, StatusFinished, ""); err != nil {
			p.logUpdateErr(sessionID, err)
			return
		}
		p.send(TitleMerged, sess, prURL)
		return
	}

	if prURL != "" && prevPR == "" {
		// PR URL just appeared. Announce it once and keep polling.
		p.send(TitlePRReady, sess, prURL)
	}

	if err := p.sched.Schedule(sessionID, index+1); err != nil {
		LogError("poll %s: reschedule failed: %v", sessionID, err)
	}
}

func (p *Poller) send(title string, sess *Session, targetURL string) {
	message := sess.Repo + " — " + Truncate(sess.Description, DescriptionTruncation)
	if _, err := p.notify.Notify(title, message, targetURL); err != nil {
		LogError("notification %q for %s: %v", title, sess.ID, err)
	}
}

func (p *Poller) logUpdateErr(sessionID string, err error) {
	switch {
	case errors.Is(err, ErrStaleRevision):
		// A concurrent completion path advanced the record first; it owns
		// the continuation, so this poll just stops.
		LogDebug("poll %s: lost revision race, dropping poll", sessionID)
	case errors.Is(err, ErrNotFound):
		LogDebug("poll %s: session vanished mid-poll", sessionID)
	default:
		LogError("poll %s: update failed: %v", sessionID, err)
	}
}
