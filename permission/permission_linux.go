//go:build linux

package permission

import (
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"murmur/dictation"
)

// probeMicrophone checks for readable ALSA capture devices. There is
// no permission prompt on linux, so the answer is granted or denied
// based on filesystem access, never undetermined.
func probeMicrophone() dictation.PermissionStatus {
	entries, err := os.ReadDir("/dev/snd")
	if err != nil {
		return dictation.PermDenied
	}
	found := false
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "pcm") || !strings.HasSuffix(e.Name(), "c") {
			continue
		}
		found = true
		f, err := os.OpenFile(filepath.Join("/dev/snd", e.Name()), os.O_RDONLY|syscall.O_NONBLOCK, 0)
		if err == nil {
			f.Close()
			return dictation.PermGranted
		}
	}
	if !found {
		// No capture devices at all; let the capture layer surface a
		// device error rather than a permission one.
		return dictation.PermGranted
	}
	return dictation.PermDenied
}

// requestMicrophone cannot prompt on linux; it re-probes so a fix made
// in another terminal (group membership, replugged device) is noticed.
func requestMicrophone() bool {
	return probeMicrophone() == dictation.PermGranted
}

// probeAccessibility reports whether the uinput device used for
// keystroke injection is writable.
func probeAccessibility() bool {
	for _, path := range []string{"/dev/uinput", "/dev/input/uinput"} {
		f, err := os.OpenFile(path, os.O_WRONLY, 0)
		if err == nil {
			f.Close()
			return true
		}
	}
	return false
}
