//go:build !linux

package notify

// Connect returns Discard; desktop notifications need a D-Bus session.
func Connect() Notifier {
	return Discard
}
