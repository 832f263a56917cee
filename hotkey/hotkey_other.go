//go:build !linux

package hotkey

import (
	"fmt"

	"golang.design/x/hotkey"
)

type xHotkey struct {
	combo   Combo
	hk      *hotkey.Hotkey
	keydown chan struct{}
	keyup   chan struct{}
}

func New(combo Combo) Hotkey {
	return &xHotkey{
		combo:   combo,
		keydown: make(chan struct{}, 1),
		keyup:   make(chan struct{}, 1),
	}
}

func xKey(key string) (hotkey.Key, error) {
	switch {
	case key == "space":
		return hotkey.KeySpace, nil
	case len(key) == 1 && key[0] >= 'a' && key[0] <= 'z':
		return hotkey.KeyA + hotkey.Key(key[0]-'a'), nil
	case len(key) == 1 && key[0] >= '0' && key[0] <= '9':
		return hotkey.Key0 + hotkey.Key(key[0]-'0'), nil
	}
	return 0, fmt.Errorf("no key code for %q", key)
}

// xMods maps combo modifiers. Only ctrl and shift are portable across
// the non-linux backends of the underlying library.
func xMods(c Combo) ([]hotkey.Modifier, error) {
	if c.Alt || c.Super {
		return nil, fmt.Errorf("alt/super modifiers not supported on this platform")
	}
	var mods []hotkey.Modifier
	if c.Ctrl {
		mods = append(mods, hotkey.ModCtrl)
	}
	if c.Shift {
		mods = append(mods, hotkey.ModShift)
	}
	return mods, nil
}

func (h *xHotkey) Register() error {
	key, err := xKey(h.combo.Key)
	if err != nil {
		return err
	}
	mods, err := xMods(h.combo)
	if err != nil {
		return err
	}
	h.hk = hotkey.New(mods, key)
	if err := h.hk.Register(); err != nil {
		return err
	}
	go func() {
		for {
			<-h.hk.Keydown()
			h.keydown <- struct{}{}
		}
	}()
	go func() {
		for {
			<-h.hk.Keyup()
			h.keyup <- struct{}{}
		}
	}()
	return nil
}

func (h *xHotkey) Unregister() {
	if h.hk != nil {
		h.hk.Unregister()
	}
}

func (h *xHotkey) Keydown() <-chan struct{} {
	return h.keydown
}

func (h *xHotkey) Keyup() <-chan struct{} {
	return h.keyup
}

func Diagnose() (string, error) {
	return "hotkey support available", nil
}
