// Package observe provides a minimal publish/subscribe value container.
// The owner holds the canonical value; listeners are notified on every
// change. Subscriptions are synchronous: listeners run on the goroutine
// that calls Set, so owners that require ordering can guarantee it.
package observe

import "sync"

// Value holds one canonical value of type T and fans out changes to
// registered listeners.
type Value[T any] struct {
	mu        sync.Mutex
	current   T
	nextID    int
	listeners map[int]func(T)
}

// NewValue returns a Value initialized to initial.
func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{
		current:   initial,
		listeners: make(map[int]func(T)),
	}
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current
}

// Set stores val and notifies all listeners.
func (v *Value[T]) Set(val T) {
	v.mu.Lock()
	v.current = val
	fns := make([]func(T), 0, len(v.listeners))
	for _, fn := range v.listeners {
		fns = append(fns, fn)
	}
	v.mu.Unlock()

	for _, fn := range fns {
		fn(val)
	}
}

// Subscribe registers fn to be called on every Set. It returns a cancel
// function; fn is not called with the current value at subscribe time.
func (v *Value[T]) Subscribe(fn func(T)) (cancel func()) {
	v.mu.Lock()
	id := v.nextID
	v.nextID++
	v.listeners[id] = fn
	v.mu.Unlock()

	return func() {
		v.mu.Lock()
		delete(v.listeners, id)
		v.mu.Unlock()
	}
}

// Watch registers a buffered channel that receives every Set. Values are
// dropped when the channel is full, so a slow consumer never blocks the
// owner. It returns the channel and a cancel function.
func (v *Value[T]) Watch(buf int) (<-chan T, func()) {
	ch := make(chan T, buf)
	cancel := v.Subscribe(func(val T) {
		select {
		case ch <- val:
		default:
		}
	})
	return ch, cancel
}
