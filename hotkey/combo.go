package hotkey

import (
	"fmt"
	"strings"
)

// Combo is a parsed key combination such as "ctrl+shift+space".
type Combo struct {
	Ctrl  bool
	Shift bool
	Alt   bool
	Super bool
	Key   string
}

// DefaultCombo is the recording trigger used when preferences carry
// none.
var DefaultCombo = Combo{Ctrl: true, Shift: true, Key: "space"}

// ParseCombo parses a "+"-separated combination. The last token is the
// key, everything before it a modifier. Keys are a single letter, a
// digit, or "space".
func ParseCombo(s string) (Combo, error) {
	var c Combo
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "+")
	if len(parts) == 0 || parts[0] == "" {
		return c, fmt.Errorf("empty hotkey combination")
	}
	for _, mod := range parts[:len(parts)-1] {
		switch strings.TrimSpace(mod) {
		case "ctrl", "control":
			c.Ctrl = true
		case "shift":
			c.Shift = true
		case "alt", "option":
			c.Alt = true
		case "super", "cmd", "meta", "win":
			c.Super = true
		default:
			return c, fmt.Errorf("unknown modifier %q", mod)
		}
	}
	key := strings.TrimSpace(parts[len(parts)-1])
	switch {
	case key == "space":
	case len(key) == 1 && (key[0] >= 'a' && key[0] <= 'z' || key[0] >= '0' && key[0] <= '9'):
	default:
		return c, fmt.Errorf("unsupported key %q", key)
	}
	if !c.Ctrl && !c.Shift && !c.Alt && !c.Super {
		return c, fmt.Errorf("at least one modifier required")
	}
	c.Key = key
	return c, nil
}

func (c Combo) String() string {
	var parts []string
	if c.Ctrl {
		parts = append(parts, "ctrl")
	}
	if c.Shift {
		parts = append(parts, "shift")
	}
	if c.Alt {
		parts = append(parts, "alt")
	}
	if c.Super {
		parts = append(parts, "super")
	}
	parts = append(parts, c.Key)
	return strings.Join(parts, "+")
}
