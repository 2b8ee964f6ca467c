//go:build !linux && !darwin

package internal

// Compile-time interface check.
var _ Notifier = (*desktopNotifier)(nil)

type desktopNotifier struct{}

// NewDesktopNotifier returns a surface that only logs. Platforms without a
// supported notification command still get the badge counter and click map.
func NewDesktopNotifier() Notifier { return &desktopNotifier{} }

func (d *desktopNotifier) Post(id, title, message string) error {
	LogInfo("%s: %s", title, message)
	return nil
}

func (d *desktopNotifier) Dismiss(id string) error { return nil }

func (d *desktopNotifier) SetBadge(text, color string) error { return nil }

// OpenURL is unsupported here; the target URL is logged instead.
func OpenURL(url string) error {
	LogInfo("open: %s", url)
	return nil
}
