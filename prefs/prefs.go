// Package prefs persists user preferences as a TOML file under the
// user config directory.
package prefs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Prefs holds everything the user can configure. Zero values are
// filled from Default on load.
type Prefs struct {
	// Model is the whisper model id to transcribe with.
	Model string `toml:"model"`
	// Language hint passed to the engine, e.g. "en". Empty means
	// auto-detect.
	Language string `toml:"language"`
	// Hotkey is the recording trigger, e.g. "ctrl+shift+space".
	Hotkey string `toml:"hotkey"`
	// MaxDurationSeconds bounds a single recording.
	MaxDurationSeconds int `toml:"max_duration_seconds"`
	// ServerURL is the whisper server base URL.
	ServerURL string `toml:"server_url"`
	// Device pins capture to a named input device. Empty uses the
	// system default.
	Device string `toml:"device"`
	// PreserveClipboard restores previous clipboard contents after a
	// paste-based injection.
	PreserveClipboard bool `toml:"preserve_clipboard"`
}

func Default() Prefs {
	return Prefs{
		Model:              "base.en",
		Hotkey:             "ctrl+shift+space",
		MaxDurationSeconds: 60,
		ServerURL:          "http://127.0.0.1:8080",
		PreserveClipboard:  true,
	}
}

// DefaultPath resolves the conventional config location.
func DefaultPath() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "murmur", "config.toml"), nil
}

// Load reads path, filling missing fields from Default. A missing file
// is not an error; it returns the defaults.
func Load(path string) (Prefs, error) {
	p := Default()
	meta, err := toml.DecodeFile(path, &p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return p, nil
		}
		return p, fmt.Errorf("reading %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return p, fmt.Errorf("unknown key %q in %s", undecoded[0].String(), path)
	}
	if err := p.validate(); err != nil {
		return p, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

func (p Prefs) validate() error {
	if p.MaxDurationSeconds <= 0 {
		return errors.New("max_duration_seconds must be positive")
	}
	if p.Model == "" {
		return errors.New("model must not be empty")
	}
	if p.ServerURL == "" {
		return errors.New("server_url must not be empty")
	}
	return nil
}

// Save writes p to path, creating parent directories as needed.
func Save(path string, p Prefs) error {
	if err := p.validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(p)
}
