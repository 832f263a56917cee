// Package hotkey watches for a global key combination and reports
// press and release edges on channels. The linux backend reads evdev
// directly so it works on Wayland; elsewhere it registers through the
// display server.
package hotkey

type Hotkey interface {
	Register() error
	Unregister()
	Keydown() <-chan struct{}
	Keyup() <-chan struct{}
}
