//go:build !linux

package inject

import (
	"runtime"
	"sync"

	"github.com/micmonay/keybd_event"

	"murmur/dictation"
)

var (
	kb     keybd_event.KeyBonding
	kbOnce sync.Once
	kbErr  error
)

func initBonding() error {
	kbOnce.Do(func() {
		kb, kbErr = keybd_event.NewKeyBonding()
	})
	if kbErr != nil {
		return dictation.Wrap(dictation.KindAccessibilityMissing, "keyboard binding", kbErr)
	}
	return nil
}

// platformType has no per-character synthesis outside Linux; report it
// unsupported so Inject falls through to the paste chord.
func platformType(string) error {
	return dictation.Errf(dictation.KindUnsupportedApp, "keystroke synthesis not available on %s", runtime.GOOS)
}

// platformPaste presses the platform paste chord (Cmd+V on macOS,
// Ctrl+V elsewhere).
func platformPaste() error {
	if err := initBonding(); err != nil {
		return err
	}
	kb.SetKeys(keybd_event.VK_V)
	if runtime.GOOS == "darwin" {
		kb.HasSuper(true)
	} else {
		kb.HasCTRL(true)
	}
	return kb.Launching()
}

// Verify checks that the keyboard event binding can be initialized.
func Verify() (string, error) {
	if err := initBonding(); err != nil {
		return "", err
	}
	return "keyboard event binding OK", nil
}
