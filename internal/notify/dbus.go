//go:build linux

package notify

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	notifyDest   = "org.freedesktop.Notifications"
	notifyPath   = "/org/freedesktop/Notifications"
	notifyMethod = "org.freedesktop.Notifications.Notify"

	urgencyLow byte = 0
)

// Session posts notifications to the notification server on the session bus.
type Session struct {
	obj dbus.BusObject
}

// Connect returns a Session, or Discard when no session bus is reachable.
func Connect() Notifier {
	conn, err := dbus.SessionBus()
	if err != nil {
		return Discard
	}
	return &Session{obj: conn.Object(notifyDest, notifyPath)}
}

// Notify sends n and returns the server-assigned ID.
func (s *Session) Notify(n Notification) (uint32, error) {
	hints := map[string]dbus.Variant{
		"urgency":       dbus.MakeVariant(urgencyLow),
		"desktop-entry": dbus.MakeVariant(appName),
		"category":      dbus.MakeVariant("x-gnome.music"),
	}
	var id uint32
	err := s.obj.Call(notifyMethod, 0,
		appName, n.Replaces, n.Icon, n.Summary, n.Body,
		[]string{}, hints, n.TimeoutMS,
	).Store(&id)
	if err != nil {
		return 0, fmt.Errorf("notify: %w", err)
	}
	return id, nil
}
