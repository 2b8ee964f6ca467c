package internal

import (
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// BadgeColor is the unread-badge background color.
const BadgeColor = "#e53935"

// DescriptionTruncation is the display length notifications shorten session
// descriptions to.
const DescriptionTruncation = 50

const (
	badgeCountKey  = "badgeCount"
	lastActiveKey  = "lastActive"
	notifKeyPrefix = "notif:"
)

// Notifier is the platform notification surface.
type Notifier interface {
	// Post shows a notification under the given id.
	Post(id, title, message string) error
	// Dismiss removes a previously posted notification.
	Dismiss(id string) error
	// SetBadge renders the unread badge; empty text clears it.
	SetBadge(text, color string) error
}

// URLOpener opens a URL in the user's browser.
type URLOpener func(url string) error

// NotificationCenter delivers platform notifications, keeps the ephemeral
// click-target map, and maintains the unread badge counter. All of its state
// lives in the ephemeral tier, which the watcher wipes on startup.
type NotificationCenter struct {
	kv           *EphemeralStore
	notifier     Notifier
	opener       URLOpener
	allowedHosts []string
	newID        func() string
	now          func() time.Time
}

// NewNotificationCenter creates a new NotificationCenter instance
func NewNotificationCenter(kv *EphemeralStore, notifier Notifier, opener URLOpener, allowedHosts []string) *NotificationCenter {
	if len(allowedHosts) == 0 {
		allowedHosts = DefaultAllowedNotifyHosts
	}
	return &NotificationCenter{
		kv:           kv,
		notifier:     notifier,
		opener:       opener,
		allowedHosts: allowedHosts,
		newID:        uuid.NewString,
		now:          time.Now,
	}
}

// Notify posts a notification with a fresh unique id, records targetURL as
// its click target when given, and bumps the unread badge. Returns the
// notification id.
func (nc *NotificationCenter) Notify(title, message, targetURL string) (string, error) {
	id := nc.newID()

	if err := nc.notifier.Post(id, title, message); err != nil {
		// The badge and click target still track the event; the surface
		// just failed to render it.
		LogWarn("failed to post notification %q: %v", title, err)
	}

	if targetURL != "" {
		if err := nc.kv.Set(notifKeyPrefix+id, targetURL); err != nil {
			return id, err
		}
	}

	count, err := nc.badgeCount()
	if err != nil {
		return id, err
	}
	count++
	if err := nc.kv.Set(badgeCountKey, strconv.Itoa(count)); err != nil {
		return id, err
	}
	if err := nc.notifier.SetBadge(strconv.Itoa(count), BadgeColor); err != nil {
		LogWarn("failed to set badge: %v", err)
	}

	LogInfo("notification: %s — %s", title, message)
	return id, nil
}

// Click handles a click on notification id: the stored target is consumed
// (first click wins), opened if it passes the safety check, and the platform
// notification is dismissed regardless.
func (nc *NotificationCenter) Click(id string) error {
	key := notifKeyPrefix + id
	target, ok, err := nc.kv.Get(key)
	if err != nil {
		return err
	}
	if ok {
		if err := nc.kv.Delete(key); err != nil {
			return err
		}
		if nc.IsSafeURL(target) {
			if err := nc.opener(target); err != nil {
				LogWarn("failed to open %s: %v", target, err)
			}
		} else {
			LogWarn("refusing to open notification target %q", target)
		}
	}

	if err := nc.notifier.Dismiss(id); err != nil {
		LogDebug("failed to dismiss notification %s: %v", id, err)
	}
	return nil
}

// AckBadge is the explicit acknowledgement event from the UI surface: the
// unread counter resets to zero, the badge clears, and the last-active
// timestamp is recorded.
func (nc *NotificationCenter) AckBadge() error {
	if err := nc.kv.Set(badgeCountKey, "0"); err != nil {
		return err
	}
	if err := nc.notifier.SetBadge("", ""); err != nil {
		LogDebug("failed to clear badge: %v", err)
	}
	return nc.kv.Set(lastActiveKey, strconv.FormatInt(nc.now().UnixMilli(), 10))
}

// Badge returns the current unread count.
func (nc *NotificationCenter) Badge() (int, error) {
	return nc.badgeCount()
}

// LastActive returns the recorded last-active timestamp, zero if never set.
func (nc *NotificationCenter) LastActive() (time.Time, error) {
	raw, ok, err := nc.kv.Get(lastActiveKey)
	if err != nil || !ok {
		return time.Time{}, err
	}
	millis, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, nil
	}
	return time.UnixMilli(millis), nil
}

// IsSafeURL reports whether a click target may be opened: https only, host
// on the allow-list (subdomains included).
func (nc *NotificationCenter) IsSafeURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "https" {
		return false
	}
	host := u.Hostname()
	for _, allowed := range nc.allowedHosts {
		if host == allowed || hasDomainSuffix(host, allowed) {
			return true
		}
	}
	return false
}

func hasDomainSuffix(host, domain string) bool {
	suffix := "." + domain
	return len(host) > len(suffix) && host[len(host)-len(suffix):] == suffix
}

func (nc *NotificationCenter) badgeCount() (int, error) {
	raw, ok, err := nc.kv.Get(badgeCountKey)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	count, err := strconv.Atoi(raw)
	if err != nil {
		return 0, nil
	}
	return count, nil
}
