// Package inject delivers transcribed text into the focused application.
// It tries direct keystroke synthesis first and falls back to a
// clipboard paste chord when typing is not possible for the text.
package inject

import (
	"time"

	"murmur/clipboard"
	"murmur/dictation"
	"murmur/log"
)

// Method names reported back to the orchestrator.
const (
	MethodKeyboard = "keyboard"
	MethodPaste    = "paste"
)

// Writer injects text using platform keystroke synthesis. The typing
// and paste hooks are provided by the platform files; tests override
// them directly.
type Writer struct {
	typeText   func(text string) error
	pasteChord func() error
	copyText   func(text string) error
	readClip   func() (string, error)

	// PreserveClipboard restores the previous clipboard contents
	// after a paste-based injection.
	PreserveClipboard bool
}

// NewWriter returns a Writer backed by the platform input layer.
func NewWriter() *Writer {
	return &Writer{
		typeText:   platformType,
		pasteChord: platformPaste,
		copyText:   clipboard.Copy,
		readClip:   clipboard.Read,
	}
}

// Inject types text into the focused application and reports which
// method delivered it. Errors carry a dictation error kind so the
// recovery policy can decide whether a clipboard fallback applies.
func (w *Writer) Inject(text string) (string, error) {
	if text == "" {
		return "", dictation.Errf(dictation.KindUnknown, "nothing to inject")
	}

	typeErr := w.typeText(text)
	if typeErr == nil {
		log.Injected(MethodKeyboard)
		return MethodKeyboard, nil
	}
	log.Warnf("keystroke injection failed, trying paste: %v", typeErr)

	if err := w.paste(text); err != nil {
		return "", err
	}
	log.Injected(MethodPaste)
	return MethodPaste, nil
}

func (w *Writer) paste(text string) error {
	if w.PreserveClipboard {
		if prev, err := w.readClip(); err == nil {
			defer clipboard.RestoreAfter(prev, restoreDelay)
		}
	}
	if err := w.copyText(text); err != nil {
		return dictation.Wrap(dictation.KindUnknown, "clipboard write", err)
	}
	return w.pasteChord()
}

// restoreDelay gives the target application time to read the pasted
// text before the previous clipboard contents come back.
const restoreDelay = 500 * time.Millisecond
