//go:build darwin

package internal

import (
	"fmt"
	"os/exec"
	"strings"
)

// Compile-time interface check.
var _ Notifier = (*desktopNotifier)(nil)

type desktopNotifier struct{}

// NewDesktopNotifier returns the platform notification surface.
func NewDesktopNotifier() Notifier { return &desktopNotifier{} }

func (d *desktopNotifier) Post(id, title, message string) error {
	script := fmt.Sprintf("display notification %s with title %s",
		appleQuote(message), appleQuote(title))
	return exec.Command("osascript", "-e", script).Run()
}

// Dismiss is a no-op: Notification Center expires banners on its own.
func (d *desktopNotifier) Dismiss(id string) error { return nil }

// SetBadge is a no-op: there is no desktop badge surface; the unread count
// stays queryable through the ephemeral tier.
func (d *desktopNotifier) SetBadge(text, color string) error { return nil }

// OpenURL opens a URL in the default browser.
func OpenURL(url string) error {
	return exec.Command("open", url).Start()
}

func appleQuote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
