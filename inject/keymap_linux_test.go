//go:build linux

package inject

import "testing"

func TestCharToKey(t *testing.T) {
	cases := []struct {
		c     byte
		code  uint16
		shift bool
	}{
		{'a', 30, false},
		{'Z', 44, true},
		{'0', 11, false},
		{'7', 8, false},
		{' ', 57, false},
		{'\n', 28, false},
		{'?', 53, true},
		{'.', 52, false},
	}
	for _, c := range cases {
		code, shift, ok := charToKey(c.c)
		if !ok {
			t.Fatalf("charToKey(%q) not ok", c.c)
		}
		if code != c.code || shift != c.shift {
			t.Fatalf("charToKey(%q) = (%d, %v), want (%d, %v)", c.c, code, shift, c.code, c.shift)
		}
	}
}

func TestCharToKeyUnmapped(t *testing.T) {
	if _, _, ok := charToKey(0xc3); ok {
		t.Fatal("non-ASCII byte should not map")
	}
}
