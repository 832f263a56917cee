package hotkey

import (
	"time"
)

// Dispatcher turns raw keydown/keyup edges into recording press and
// release decisions with hybrid tap-to-toggle and hold-to-talk
// behavior on the same combination.
//
// A press always starts recording. Releasing before longPress leaves
// the recording toggled on until the next tap; holding past longPress
// means push-to-talk and the release stops it.
type Dispatcher struct {
	press   chan struct{}
	release chan struct{}
	stop    chan struct{}
}

// NewDispatcher starts a dispatch loop over hk. longPress is the hold
// threshold separating a tap from push-to-talk.
func NewDispatcher(hk Hotkey, longPress time.Duration) *Dispatcher {
	d := &Dispatcher{
		press:   make(chan struct{}, 1),
		release: make(chan struct{}, 1),
		stop:    make(chan struct{}),
	}
	go d.run(hk, longPress)
	return d
}

// Press signals when recording should start.
func (d *Dispatcher) Press() <-chan struct{} { return d.press }

// Release signals when recording should stop, in both hold and toggle
// modes.
func (d *Dispatcher) Release() <-chan struct{} { return d.release }

// Stop ends the dispatch loop.
func (d *Dispatcher) Stop() { close(d.stop) }

type dispatchState int

const (
	dispatchIdle dispatchState = iota
	dispatchToggled
)

func (d *Dispatcher) run(hk Hotkey, longPress time.Duration) {
	state := dispatchIdle
	for {
		switch state {
		case dispatchIdle:
			select {
			case <-d.stop:
				return
			case <-hk.Keydown():
			}
			d.signal(d.press)
			timer := time.NewTimer(longPress)
			select {
			case <-d.stop:
				timer.Stop()
				return
			case <-timer.C:
				// Held past the threshold: push-to-talk, stop on release.
				select {
				case <-d.stop:
					return
				case <-hk.Keyup():
				}
				d.signal(d.release)
				state = dispatchIdle
			case <-hk.Keyup():
				// Short tap: stays recording until the next tap.
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				state = dispatchToggled
			}
		case dispatchToggled:
			select {
			case <-d.stop:
				return
			case <-hk.Keydown():
			}
			select {
			case <-d.stop:
				return
			case <-hk.Keyup():
			}
			d.signal(d.release)
			state = dispatchIdle
		}
	}
}

func (d *Dispatcher) signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
