// Package models tracks which whisper models are present on disk. It
// does not download anything; it only answers availability questions for
// the orchestrator and names the smallest model to fall back to.
package models

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// catalog maps model id to its on-disk file name, smallest first by
// convention in Sizes.
var catalog = map[string]string{
	"tiny.en":  "ggml-tiny.en.bin",
	"tiny":     "ggml-tiny.bin",
	"base.en":  "ggml-base.en.bin",
	"base":     "ggml-base.bin",
	"small.en": "ggml-small.en.bin",
	"small":    "ggml-small.bin",
	"medium":   "ggml-medium.bin",
	"large-v3": "ggml-large-v3.bin",
}

// fallbackModel is the smallest English model; the recovery policy
// switches to it after repeated load failures.
const fallbackModel = "tiny.en"

// Manager answers model availability against one models directory.
type Manager struct {
	dir string
}

func NewManager(dir string) *Manager {
	return &Manager{dir: dir}
}

// DefaultDir resolves the conventional models location under the user
// config directory.
func DefaultDir() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "murmur", "models"), nil
}

// Known reports whether id is a model this build understands.
func Known(id string) bool {
	_, ok := catalog[id]
	return ok
}

// IsDownloaded reports whether the model file for id exists and is
// non-empty.
func (m *Manager) IsDownloaded(id string) bool {
	name, ok := catalog[id]
	if !ok {
		return false
	}
	info, err := os.Stat(filepath.Join(m.dir, name))
	return err == nil && info.Size() > 0
}

// DefaultModel names the smallest model to fall back to.
func (m *Manager) DefaultModel() string {
	return fallbackModel
}

// Path returns the on-disk path for id.
func (m *Manager) Path(id string) (string, error) {
	name, ok := catalog[id]
	if !ok {
		return "", fmt.Errorf("unknown model %q", id)
	}
	return filepath.Join(m.dir, name), nil
}

// Downloaded lists the model ids present on disk, sorted for stable
// display.
func (m *Manager) Downloaded() []string {
	var ids []string
	for id := range catalog {
		if m.IsDownloaded(id) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
