//go:build linux

package internal

import "os/exec"

// Compile-time interface check.
var _ Notifier = (*desktopNotifier)(nil)

type desktopNotifier struct{}

// NewDesktopNotifier returns the platform notification surface.
func NewDesktopNotifier() Notifier { return &desktopNotifier{} }

func (d *desktopNotifier) Post(id, title, message string) error {
	return exec.Command("notify-send", "--app-name=devwatch", title, message).Run()
}

// Dismiss is a no-op: freedesktop notification servers expire notifications
// on their own and notify-send does not hand back a server id to close.
func (d *desktopNotifier) Dismiss(id string) error { return nil }

// SetBadge is a no-op: there is no desktop badge surface; the unread count
// stays queryable through the ephemeral tier.
func (d *desktopNotifier) SetBadge(text, color string) error { return nil }

// OpenURL opens a URL in the default browser.
func OpenURL(url string) error {
	return exec.Command("xdg-open", url).Start()
}
