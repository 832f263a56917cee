package models

import (
	"os"
	"path/filepath"
	"testing"
)

func writeModel(t *testing.T, dir, name string, size int) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), make([]byte, size), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestIsDownloaded(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir)

	if m.IsDownloaded("tiny.en") {
		t.Fatal("empty dir should have no models")
	}

	writeModel(t, dir, "ggml-tiny.en.bin", 16)
	if !m.IsDownloaded("tiny.en") {
		t.Fatal("tiny.en should be downloaded")
	}
	if m.IsDownloaded("base.en") {
		t.Fatal("base.en should not be downloaded")
	}
}

func TestIsDownloadedEmptyFile(t *testing.T) {
	dir := t.TempDir()
	writeModel(t, dir, "ggml-base.bin", 0)

	if NewManager(dir).IsDownloaded("base") {
		t.Fatal("zero-byte model file should not count as downloaded")
	}
}

func TestUnknownModel(t *testing.T) {
	m := NewManager(t.TempDir())
	if m.IsDownloaded("gpt-5") {
		t.Fatal("unknown ids are never downloaded")
	}
	if _, err := m.Path("gpt-5"); err == nil {
		t.Fatal("expected error for unknown model path")
	}
	if Known("gpt-5") {
		t.Fatal("gpt-5 should not be known")
	}
	if !Known("small.en") {
		t.Fatal("small.en should be known")
	}
}

func TestDownloadedListing(t *testing.T) {
	dir := t.TempDir()
	writeModel(t, dir, "ggml-small.bin", 8)
	writeModel(t, dir, "ggml-base.en.bin", 8)

	got := NewManager(dir).Downloaded()
	want := []string{"base.en", "small"}
	if len(got) != len(want) {
		t.Fatalf("Downloaded() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Downloaded() = %v, want %v", got, want)
		}
	}
}

func TestDefaultModel(t *testing.T) {
	if got := NewManager(t.TempDir()).DefaultModel(); got != "tiny.en" {
		t.Fatalf("DefaultModel() = %q", got)
	}
}
