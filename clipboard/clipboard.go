// Package clipboard wraps the system clipboard and knows how to put
// transcripts there as a delivery fallback.
package clipboard

import (
	"time"

	cb "github.com/atotto/clipboard"
)

func Read() (string, error) {
	return cb.ReadAll()
}

func Copy(text string) error {
	return cb.WriteAll(text)
}

// RestoreAfter writes text back to the clipboard after d. Used to put
// the user's previous clipboard contents back once a paste-based
// injection has landed.
func RestoreAfter(text string, d time.Duration) {
	time.AfterFunc(d, func() {
		cb.WriteAll(text)
	})
}

// Store is the orchestrator-facing handle. It exists so the wiring in
// main can hand the orchestrator a value implementing its clipboard
// dependency without importing this package's free functions.
type Store struct{}

func (Store) Copy(text string) error { return Copy(text) }
