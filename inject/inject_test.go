package inject

import (
	"errors"
	"testing"

	"murmur/dictation"
)

func TestInjectTypesDirectly(t *testing.T) {
	var typed string
	w := &Writer{
		typeText:   func(s string) error { typed = s; return nil },
		pasteChord: func() error { t.Fatal("paste should not run"); return nil },
	}

	method, err := w.Inject("hello world")
	if err != nil {
		t.Fatal(err)
	}
	if method != MethodKeyboard {
		t.Fatalf("method = %q, want %q", method, MethodKeyboard)
	}
	if typed != "hello world" {
		t.Fatalf("typed %q", typed)
	}
}

func TestInjectFallsBackToPaste(t *testing.T) {
	pasted := false
	w := &Writer{
		typeText:   func(string) error { return errors.New("no key mapping") },
		pasteChord: func() error { pasted = true; return nil },
		copyText:   func(string) error { return nil },
	}

	method, err := w.Inject("héllo")
	if err != nil {
		t.Fatal(err)
	}
	if method != MethodPaste {
		t.Fatalf("method = %q, want %q", method, MethodPaste)
	}
	if !pasted {
		t.Fatal("paste chord never ran")
	}
}

func TestInjectPropagatesPasteFailure(t *testing.T) {
	want := dictation.Errf(dictation.KindAccessibilityMissing, "uinput unavailable")
	w := &Writer{
		typeText:   func(string) error { return errors.New("typing broken") },
		pasteChord: func() error { return want },
		copyText:   func(string) error { return nil },
	}

	_, err := w.Inject("text")
	if err == nil {
		t.Fatal("expected error")
	}
	if dictation.KindOf(err) != dictation.KindAccessibilityMissing {
		t.Fatalf("kind = %v", dictation.KindOf(err))
	}
}

func TestInjectRejectsEmptyText(t *testing.T) {
	w := NewWriter()
	if _, err := w.Inject(""); err == nil {
		t.Fatal("expected error for empty text")
	}
}

func TestFakeRecords(t *testing.T) {
	f := NewFake()
	method, err := f.Inject("one")
	if err != nil || method != MethodKeyboard {
		t.Fatalf("Inject = %q, %v", method, err)
	}
	if f.Last() != "one" {
		t.Fatalf("Last() = %q", f.Last())
	}

	f.Err = errors.New("boom")
	if _, err := f.Inject("two"); err == nil {
		t.Fatal("expected scripted failure")
	}
}
